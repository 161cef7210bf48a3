package economy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// SetInfo identifies a set being bought.
type SetInfo struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	CardCount int    `json:"cardCount"`
}

// SetInfoFromMeta converts provider set metadata.
func SetInfoFromMeta(m cards.SetMeta) SetInfo {
	return SetInfo{Code: m.Code, Name: m.Name, Icon: m.IconURL, CardCount: m.CardCount}
}

// CartLine is a pending purchase of one set's packs. Keyed by SetCode.
type CartLine struct {
	SetCode   string          `json:"setCode"`
	SetName   string          `json:"setName"`
	Icon      string          `json:"icon"`
	CardCount int             `json:"cardCount"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal is UnitPrice × Quantity.
func (c CartLine) Subtotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Booster is an unopened pack in inventory.
type Booster struct {
	ID        string `json:"id"`
	SetCode   string `json:"setCode"`
	SetName   string `json:"setName"`
	Icon      string `json:"icon"`
	CardCount int    `json:"cardCount"`
}

// Meta rebuilds the set metadata a booster was bought with.
func (b Booster) Meta() cards.SetMeta {
	return cards.SetMeta{Code: b.SetCode, Name: b.SetName, IconURL: b.Icon, CardCount: b.CardCount}
}

// CollectionEntry is an owned card and its copy count. Keyed by card ID.
type CollectionEntry struct {
	Card     booster.DrawnCard `json:"card"`
	Quantity int               `json:"quantity"`
}

// SellLine is a card staged for sale. Quantity never exceeds the owned count.
type SellLine struct {
	CardID    string          `json:"cardId"`
	Name      string          `json:"name"`
	Rarity    cards.Rarity    `json:"rarity"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal is UnitPrice × Quantity.
func (s SellLine) Subtotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// State is the full ledger contents. Slices keep insertion order.
type State struct {
	Balance          decimal.Decimal   `json:"balance"`
	Collection       []CollectionEntry `json:"collection"`
	Cart             []CartLine        `json:"cart"`
	UnopenedBoosters []Booster         `json:"unopenedBoosters"`
	SellCart         []SellLine        `json:"sellCart"`
}

// DefaultState is the state of a fresh ledger.
func DefaultState(startingBalance decimal.Decimal) State {
	return State{
		Balance:          startingBalance,
		Collection:       []CollectionEntry{},
		Cart:             []CartLine{},
		UnopenedBoosters: []Booster{},
		SellCart:         []SellLine{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	return State{
		Balance:          s.Balance,
		Collection:       append([]CollectionEntry{}, s.Collection...),
		Cart:             append([]CartLine{}, s.Cart...),
		UnopenedBoosters: append([]Booster{}, s.UnopenedBoosters...),
		SellCart:         append([]SellLine{}, s.SellCart...),
	}
}

// Validate checks the ledger invariants.
func (s State) Validate() error {
	if s.Balance.IsNegative() {
		return fmt.Errorf("%w: negative balance %s", ErrInvalidState, s.Balance)
	}

	owned := make(map[string]int, len(s.Collection))
	for _, e := range s.Collection {
		if e.Card.ID == "" {
			return fmt.Errorf("%w: collection entry without card id", ErrInvalidState)
		}
		if e.Quantity < 1 {
			return fmt.Errorf("%w: card %s has quantity %d", ErrInvalidState, e.Card.ID, e.Quantity)
		}
		if _, dup := owned[e.Card.ID]; dup {
			return fmt.Errorf("%w: duplicate collection entry %s", ErrInvalidState, e.Card.ID)
		}
		owned[e.Card.ID] = e.Quantity
	}

	carts := make(map[string]bool, len(s.Cart))
	for _, c := range s.Cart {
		if c.Quantity < 1 || c.UnitPrice.IsNegative() || carts[c.SetCode] {
			return fmt.Errorf("%w: bad cart line %s", ErrInvalidState, c.SetCode)
		}
		carts[c.SetCode] = true
	}

	ids := make(map[string]bool, len(s.UnopenedBoosters))
	for _, b := range s.UnopenedBoosters {
		if b.ID == "" || ids[b.ID] {
			return fmt.Errorf("%w: bad booster id %q", ErrInvalidState, b.ID)
		}
		ids[b.ID] = true
	}

	staged := make(map[string]bool, len(s.SellCart))
	for _, l := range s.SellCart {
		if l.Quantity < 1 || l.Quantity > owned[l.CardID] || staged[l.CardID] {
			return fmt.Errorf("%w: sell line %s stages %d of %d owned", ErrInvalidState, l.CardID, l.Quantity, owned[l.CardID])
		}
		if l.UnitPrice.LessThan(booster.MinSalePrice) {
			return fmt.Errorf("%w: sell line %s priced below floor", ErrInvalidState, l.CardID)
		}
		staged[l.CardID] = true
	}

	return nil
}

// CheckoutReceipt describes a completed purchase.
type CheckoutReceipt struct {
	Total    decimal.Decimal `json:"total"`
	Boosters []Booster       `json:"boosters"`
	Balance  decimal.Decimal `json:"balance"`
}

// OpenResult describes an opened booster.
type OpenResult struct {
	Booster Booster             `json:"booster"`
	Cards   []booster.DrawnCard `json:"cards"`
	Balance decimal.Decimal     `json:"balance"`
}

// SaleReceipt describes a completed sale.
type SaleReceipt struct {
	Total   decimal.Decimal `json:"total"`
	Lines   []SellLine      `json:"lines"`
	Balance decimal.Decimal `json:"balance"`
}

// Change is the payload of ledger events.
type Change struct {
	Op    string `json:"op"`
	State State  `json:"state"`
}

// Ledger operation names carried in Change.Op.
const (
	OpAddToCart          = "addToCart"
	OpRemoveFromCart     = "removeFromCart"
	OpUpdateCartQuantity = "updateCartQuantity"
	OpCheckout           = "checkout"
	OpOpenBooster        = "openBooster"
	OpAddToSellCart      = "addToSellCart"
	OpUpdateSellQuantity = "updateSellCartQuantity"
	OpRemoveFromSellCart = "removeFromSellCart"
	OpSell               = "sellCartItems"
	OpClearSellCart      = "clearSellCart"
	OpReset              = "reset"
)
