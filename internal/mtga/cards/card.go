// Package cards holds the card records the simulator works with: strict,
// normalized cards, set metadata, and rarity-partitioned pools.
package cards

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rarity is a normalized card rarity.
type Rarity string

const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
	Mythic   Rarity = "mythic"
)

// Rarities lists the rarities from lowest to highest.
var Rarities = []Rarity{Common, Uncommon, Rare, Mythic}

// ParseRarity normalizes a provider rarity string.
// "special" and "bonus" count as rare, anything unrecognized as common.
func ParseRarity(s string) Rarity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return Common
	case "uncommon":
		return Uncommon
	case "rare", "special", "bonus":
		return Rare
	case "mythic":
		return Mythic
	default:
		return Common
	}
}

// Rank orders rarities, common lowest.
func (r Rarity) Rank() int {
	switch r {
	case Uncommon:
		return 1
	case Rare:
		return 2
	case Mythic:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the four known rarities.
func (r Rarity) Valid() bool {
	switch r {
	case Common, Uncommon, Rare, Mythic:
		return true
	}
	return false
}

// Card is a normalized card record. PriceHint is never negative.
type Card struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Rarity    Rarity          `json:"rarity"`
	Image     string          `json:"image"`
	TypeLine  string          `json:"type"`
	ManaCost  string          `json:"manaCost"`
	SetCode   string          `json:"set"`
	SetName   string          `json:"set_name"`
	PriceHint decimal.Decimal `json:"priceHint"`
}

// IsBasicLand reports whether the card is a basic land by type line.
func (c Card) IsBasicLand() bool {
	return strings.Contains(c.TypeLine, "Basic") && strings.Contains(c.TypeLine, "Land")
}

// SetMeta describes a purchasable set.
type SetMeta struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	CardCount  int    `json:"card_count"`
	IconURL    string `json:"icon"`
	ReleasedAt string `json:"released_at,omitempty"`
	SetType    string `json:"set_type,omitempty"`
	Digital    bool   `json:"digital,omitempty"`
}
