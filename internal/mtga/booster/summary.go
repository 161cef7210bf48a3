package booster

import (
	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// Summary tallies the contents of one or more packs.
type Summary struct {
	Packs     int                  `json:"packs"`
	Cards     int                  `json:"cards"`
	Lands     int                  `json:"lands"`
	ByRarity  map[cards.Rarity]int `json:"byRarity"`
	Value     decimal.Decimal      `json:"value"`
	ShortPack int                  `json:"shortPacks"`
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{ByRarity: make(map[cards.Rarity]int)}
}

// Add records one pack.
func (s *Summary) Add(pack []DrawnCard) {
	s.Packs++
	if len(pack) < PackSize {
		s.ShortPack++
	}
	for _, c := range pack {
		s.Cards++
		s.Value = s.Value.Add(c.Price)
		if c.IsBasicLand() {
			s.Lands++
			continue
		}
		s.ByRarity[c.Rarity]++
	}
}

// AverageValue is the mean pack value.
func (s *Summary) AverageValue() decimal.Decimal {
	if s.Packs == 0 {
		return decimal.Zero
	}
	return s.Value.Div(decimal.NewFromInt(int64(s.Packs))).Round(2)
}

// AverageSize is the mean number of cards per pack.
func (s *Summary) AverageSize() float64 {
	if s.Packs == 0 {
		return 0
	}
	return float64(s.Cards) / float64(s.Packs)
}
