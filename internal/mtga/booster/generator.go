// Package booster simulates opening a booster pack: a fixed sequence of slots
// whose rarities are partly fixed and partly rolled, drawn with replacement
// from a set's card pool.
package booster

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

const (
	LandSlots     = 2
	SplitSlots    = 7
	WildcardSlots = 2
	RareSlots     = 3

	// PackSize is the nominal card count. Packs can be smaller when a
	// rarity subset is empty and has no fallback.
	PackSize = LandSlots + SplitSlots + WildcardSlots + RareSlots

	// MythicChance is the probability that a rare-or-mythic slot upgrades.
	MythicChance = 0.1351
)

// MinSalePrice is the floor applied to every drawn card's price.
var MinSalePrice = decimal.New(10, -2)

// Split is one outcome of the common/uncommon roll. Upper is the exclusive
// percentage bound of its band.
type Split struct {
	Upper     float64 `json:"upper"`
	Commons   int     `json:"commons"`
	Uncommons int     `json:"uncommons"`
}

// splitTable always sums to SplitSlots per row.
var splitTable = []Split{
	{Upper: 35, Commons: 6, Uncommons: 1},
	{Upper: 75, Commons: 5, Uncommons: 2},
	{Upper: 87.5, Commons: 4, Uncommons: 3},
	{Upper: 94.5, Commons: 3, Uncommons: 4},
	{Upper: 98, Commons: 2, Uncommons: 5},
	{Upper: 100, Commons: 1, Uncommons: 6},
}

// Wildcard band upper bounds, in percent.
const (
	wildcardCommonUpper   = 49
	wildcardUncommonUpper = 73.5
)

// Odds describes the roll tables, for display.
type Odds struct {
	Splits                []Split `json:"splits"`
	WildcardCommonUpper   float64 `json:"wildcardCommonUpper"`
	WildcardUncommonUpper float64 `json:"wildcardUncommonUpper"`
	MythicChance          float64 `json:"mythicChance"`
}

// GetOdds returns a copy of the roll tables.
func GetOdds() Odds {
	return Odds{
		Splits:                append([]Split(nil), splitTable...),
		WildcardCommonUpper:   wildcardCommonUpper,
		WildcardUncommonUpper: wildcardUncommonUpper,
		MythicChance:          MythicChance,
	}
}

// SplitFor maps a roll in [0,100) to its common/uncommon split.
func SplitFor(roll float64) Split {
	for _, s := range splitTable {
		if roll < s.Upper {
			return s
		}
	}
	return splitTable[len(splitTable)-1]
}

// RNG is the randomness a Generator draws from. *rand.Rand satisfies it.
type RNG interface {
	Float64() float64
	IntN(n int) int
}

// globalRNG delegates to math/rand/v2's auto-seeded, goroutine-safe source.
type globalRNG struct{}

func (globalRNG) Float64() float64 { return rand.Float64() }
func (globalRNG) IntN(n int) int   { return rand.IntN(n) }

// NewSeededRNG returns a deterministic source.
func NewSeededRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DrawnCard is a card pulled from a pack, priced and stamped with its set's
// metadata for collection statistics.
type DrawnCard struct {
	cards.Card
	Price        decimal.Decimal `json:"price"`
	SetIcon      string          `json:"set_icon"`
	SetCardCount int             `json:"set_card_count"`
}

// Generator produces packs. It is safe for concurrent use only if its RNG is.
type Generator struct {
	rng RNG
}

// NewGenerator creates a Generator. A nil rng uses the global source.
func NewGenerator(rng RNG) *Generator {
	if rng == nil {
		rng = globalRNG{}
	}
	return &Generator{rng: rng}
}

// Generate draws one pack from pool. An empty pool yields an empty pack.
// Cards come out in slot order: lands, commons, uncommons, wildcards, rares.
func (g *Generator) Generate(pool cards.Pool, meta cards.SetMeta) []DrawnCard {
	if pool.Empty() {
		return []DrawnCard{}
	}

	pack := make([]DrawnCard, 0, PackSize)
	add := func(c cards.Card, ok bool) {
		if ok {
			pack = append(pack, stamp(c, meta))
		}
	}

	lands := pool.Lands
	if len(lands) == 0 {
		lands = pool.Commons
	}
	for i := 0; i < LandSlots; i++ {
		add(g.pick(lands))
	}

	split := SplitFor(g.rng.Float64() * 100)
	for i := 0; i < split.Commons; i++ {
		add(g.pick(pool.Commons))
	}
	for i := 0; i < split.Uncommons; i++ {
		add(g.pick(pool.Uncommons))
	}

	for i := 0; i < WildcardSlots; i++ {
		roll := g.rng.Float64() * 100
		switch {
		case roll < wildcardCommonUpper:
			add(g.pick(pool.Commons))
		case roll < wildcardUncommonUpper:
			add(g.pick(pool.Uncommons))
		default:
			add(g.rareOrMythic(pool))
		}
	}

	for i := 0; i < RareSlots; i++ {
		add(g.rareOrMythic(pool))
	}

	return pack
}

func (g *Generator) rareOrMythic(pool cards.Pool) (cards.Card, bool) {
	if g.rng.Float64() < MythicChance && len(pool.Mythics) > 0 {
		return g.pick(pool.Mythics)
	}
	if len(pool.Rares) > 0 {
		return g.pick(pool.Rares)
	}
	return g.pick(pool.Mythics)
}

func (g *Generator) pick(from []cards.Card) (cards.Card, bool) {
	if len(from) == 0 {
		return cards.Card{}, false
	}
	return from[g.rng.IntN(len(from))], true
}

// SalePrice floors a price hint at MinSalePrice.
func SalePrice(hint decimal.Decimal) decimal.Decimal {
	if hint.LessThan(MinSalePrice) {
		return MinSalePrice
	}
	return hint
}

func stamp(c cards.Card, meta cards.SetMeta) DrawnCard {
	return DrawnCard{
		Card:         c,
		Price:        SalePrice(c.PriceHint),
		SetIcon:      meta.IconURL,
		SetCardCount: meta.CardCount,
	}
}
