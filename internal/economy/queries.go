package economy

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// SortKey orders a collection listing.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByRarity   SortKey = "rarity"   // highest rarity first
	SortBySet      SortKey = "set"      // by set name
	SortByQuantity SortKey = "quantity" // most copies first
)

// ParseSortKey maps a query value to a SortKey, defaulting to name.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortByRarity:
		return SortByRarity
	case SortBySet:
		return SortBySet
	case SortByQuantity:
		return SortByQuantity
	default:
		return SortByName
	}
}

// CollectionFilter narrows and orders a collection listing.
type CollectionFilter struct {
	Rarity  cards.Rarity // empty matches all
	SetCode string       // empty matches all
	Search  string       // case-insensitive name substring
	Sort    SortKey
	// HideStaged drops cards whose every copy is in the sell cart.
	HideStaged bool
}

// CollectionItem is an owned card with its staged-for-sale count.
type CollectionItem struct {
	CollectionEntry
	Staged int `json:"staged"`
}

// Collection lists owned cards matching f.
func (l *Ledger) Collection(f CollectionFilter) []CollectionItem {
	l.mu.Lock()
	staged := make(map[string]int, len(l.state.SellCart))
	for _, line := range l.state.SellCart {
		staged[line.CardID] = line.Quantity
	}
	entries := append([]CollectionEntry{}, l.state.Collection...)
	l.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	items := make([]CollectionItem, 0, len(entries))
	for _, e := range entries {
		if f.Rarity != "" && e.Card.Rarity != f.Rarity {
			continue
		}
		if f.SetCode != "" && !strings.EqualFold(e.Card.SetCode, f.SetCode) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Card.Name), search) {
			continue
		}
		s := staged[e.Card.ID]
		if f.HideStaged && s >= e.Quantity {
			continue
		}
		items = append(items, CollectionItem{CollectionEntry: e, Staged: s})
	}

	sortItems(items, f.Sort)
	return items
}

func sortItems(items []CollectionItem, key SortKey) {
	byName := func(a, b CollectionItem) bool {
		return strings.ToLower(a.Card.Name) < strings.ToLower(b.Card.Name)
	}

	var less func(a, b CollectionItem) bool
	switch key {
	case SortByRarity:
		less = func(a, b CollectionItem) bool {
			if ra, rb := a.Card.Rarity.Rank(), b.Card.Rarity.Rank(); ra != rb {
				return ra > rb
			}
			return byName(a, b)
		}
	case SortBySet:
		less = func(a, b CollectionItem) bool {
			if a.Card.SetName != b.Card.SetName {
				return a.Card.SetName < b.Card.SetName
			}
			return byName(a, b)
		}
	case SortByQuantity:
		less = func(a, b CollectionItem) bool {
			if a.Quantity != b.Quantity {
				return a.Quantity > b.Quantity
			}
			return byName(a, b)
		}
	default:
		less = byName
	}

	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

// CollectionStats summarizes the collection.
type CollectionStats struct {
	TotalCards  int                  `json:"totalCards"`
	UniqueCards int                  `json:"uniqueCards"`
	ByRarity    map[cards.Rarity]int `json:"byRarity"` // unique cards per rarity
	Value       decimal.Decimal      `json:"value"`
}

// Stats computes collection totals.
func (l *Ledger) Stats() CollectionStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := CollectionStats{
		ByRarity: make(map[cards.Rarity]int, len(cards.Rarities)),
		Value:    decimal.Zero,
	}
	for _, r := range cards.Rarities {
		stats.ByRarity[r] = 0
	}
	for _, e := range l.state.Collection {
		stats.TotalCards += e.Quantity
		stats.UniqueCards++
		stats.ByRarity[e.Card.Rarity]++
		stats.Value = stats.Value.Add(e.Card.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return stats
}

// SetProgress is how much of one set the collection covers.
type SetProgress struct {
	SetCode    string `json:"setCode"`
	SetName    string `json:"setName"`
	Icon       string `json:"icon"`
	Owned      int    `json:"owned"` // unique cards
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// SetCompletion reports per-set progress, sorted by set name.
func (l *Ledger) SetCompletion() []SetProgress {
	l.mu.Lock()
	defer l.mu.Unlock()

	bySet := make(map[string]*SetProgress)
	var order []string
	for _, e := range l.state.Collection {
		p, ok := bySet[e.Card.SetCode]
		if !ok {
			p = &SetProgress{
				SetCode: e.Card.SetCode,
				SetName: e.Card.SetName,
				Icon:    e.Card.SetIcon,
				Total:   e.Card.SetCardCount,
			}
			bySet[e.Card.SetCode] = p
			order = append(order, e.Card.SetCode)
		}
		p.Owned++
	}

	out := make([]SetProgress, 0, len(order))
	for _, code := range order {
		p := bySet[code]
		if p.Total > 0 {
			p.Percentage = int(math.Round(float64(p.Owned) / float64(p.Total) * 100))
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SetName < out[j].SetName })
	return out
}

// BoosterGroup is the unopened boosters of one set.
type BoosterGroup struct {
	SetCode   string   `json:"setCode"`
	SetName   string   `json:"setName"`
	Icon      string   `json:"icon"`
	CardCount int      `json:"cardCount"`
	Count     int      `json:"count"`
	IDs       []string `json:"ids"`
}

// BoostersBySet groups unopened boosters by set, in first-purchase order.
func (l *Ledger) BoostersBySet() []BoosterGroup {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := make(map[string]int)
	groups := make([]BoosterGroup, 0)
	for _, b := range l.state.UnopenedBoosters {
		i, ok := index[b.SetCode]
		if !ok {
			i = len(groups)
			index[b.SetCode] = i
			groups = append(groups, BoosterGroup{
				SetCode:   b.SetCode,
				SetName:   b.SetName,
				Icon:      b.Icon,
				CardCount: b.CardCount,
			})
		}
		groups[i].Count++
		groups[i].IDs = append(groups[i].IDs, b.ID)
	}
	return groups
}
