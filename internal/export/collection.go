package export

import (
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
)

// CollectionRow is one owned card.
type CollectionRow struct {
	CardID    string          `csv:"card_id" json:"cardId"`
	Name      string          `csv:"name" json:"name"`
	SetCode   string          `csv:"set" json:"setCode"`
	Rarity    string          `csv:"rarity" json:"rarity"`
	TypeLine  string          `csv:"type_line" json:"typeLine"`
	Quantity  int             `csv:"quantity" json:"quantity"`
	Staged    int             `csv:"staged" json:"staged"`
	UnitPrice decimal.Decimal `csv:"unit_price" json:"unitPrice"`
	Value     decimal.Decimal `csv:"value" json:"value"`
}

// CollectionRows flattens collection items for export. The result is never nil.
func CollectionRows(items []economy.CollectionItem) []CollectionRow {
	rows := make([]CollectionRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, CollectionRow{
			CardID:    it.Card.ID,
			Name:      it.Card.Name,
			SetCode:   it.Card.SetCode,
			Rarity:    string(it.Card.Rarity),
			TypeLine:  it.Card.TypeLine,
			Quantity:  it.Quantity,
			Staged:    it.Staged,
			UnitPrice: it.Card.Price,
			Value:     it.Card.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return rows
}

// PackRow is one card pulled in a simulated pack.
type PackRow struct {
	Pack    int             `csv:"pack" json:"pack"`
	Slot    int             `csv:"slot" json:"slot"`
	CardID  string          `csv:"card_id" json:"cardId"`
	Name    string          `csv:"name" json:"name"`
	SetCode string          `csv:"set" json:"setCode"`
	Rarity  string          `csv:"rarity" json:"rarity"`
	Land    bool            `csv:"land" json:"land"`
	Price   decimal.Decimal `csv:"price" json:"price"`
}

// PackRows numbers pack (1-based) and its slots for export.
func PackRows(pack int, cards []booster.DrawnCard) []PackRow {
	rows := make([]PackRow, 0, len(cards))
	for i, c := range cards {
		rows = append(rows, PackRow{
			Pack:    pack,
			Slot:    i + 1,
			CardID:  c.ID,
			Name:    c.Name,
			SetCode: c.SetCode,
			Rarity:  string(c.Rarity),
			Land:    c.IsBasicLand(),
			Price:   c.Price,
		})
	}
	return rows
}
