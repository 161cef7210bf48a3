package cards

// Pool is the set of cards a booster of one set can draw from, partitioned by
// rarity. Basic lands live only in Lands and never in the rarity subsets.
type Pool struct {
	Lands     []Card
	Commons   []Card
	Uncommons []Card
	Rares     []Card
	Mythics   []Card
}

// NewPool partitions cards into a Pool, preserving input order.
func NewPool(all []Card) Pool {
	var p Pool
	for _, c := range all {
		if c.IsBasicLand() {
			p.Lands = append(p.Lands, c)
			continue
		}
		switch c.Rarity {
		case Uncommon:
			p.Uncommons = append(p.Uncommons, c)
		case Rare:
			p.Rares = append(p.Rares, c)
		case Mythic:
			p.Mythics = append(p.Mythics, c)
		default:
			p.Commons = append(p.Commons, c)
		}
	}
	return p
}

// Size returns the total number of cards in the pool.
func (p Pool) Size() int {
	return len(p.Lands) + len(p.Commons) + len(p.Uncommons) + len(p.Rares) + len(p.Mythics)
}

// Empty reports whether the pool has no cards at all.
func (p Pool) Empty() bool {
	return p.Size() == 0
}
