// Package setcache adapts the Scryfall client into the card provider the
// simulator consumes: filtered set lists and normalized, cached card pools.
package setcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/scryfall"
)

const fetchTimeout = 2 * time.Minute

// CardSource is the subset of the Scryfall client the provider needs.
type CardSource interface {
	GetSets(ctx context.Context) (*scryfall.SetList, error)
	SearchAllCards(ctx context.Context, query string) ([]scryfall.Card, error)
}

// Provider fetches set metadata and card pools. Failures never surface as
// errors: they are logged and reported as empty results.
type Provider struct {
	source  CardSource
	cache   PoolCache
	setsTTL time.Duration
	group   singleflight.Group

	mu            sync.RWMutex
	sets          []cards.SetMeta
	setsFetchedAt time.Time
}

// NewProvider creates a Provider. A nil cache disables pool caching.
func NewProvider(source CardSource, cache PoolCache, setsTTL time.Duration) *Provider {
	return &Provider{
		source:  source,
		cache:   cache,
		setsTTL: setsTTL,
	}
}

// FetchSets returns the purchasable sets, served from memory while fresh.
func (p *Provider) FetchSets(ctx context.Context) []cards.SetMeta {
	p.mu.RLock()
	fresh := p.sets != nil && (p.setsTTL <= 0 || time.Since(p.setsFetchedAt) < p.setsTTL)
	sets := p.sets
	p.mu.RUnlock()
	if fresh {
		return sets
	}

	sets, err := p.RefreshSets(ctx)
	if err != nil {
		log.WithError(err).Warn("[SetCache] Failed to fetch sets")
		return []cards.SetMeta{}
	}
	return sets
}

// RefreshSets refetches the set list unconditionally.
func (p *Provider) RefreshSets(ctx context.Context) ([]cards.SetMeta, error) {
	v, err, _ := p.group.Do("sets", func() (interface{}, error) {
		list, err := p.source.GetSets(ctx)
		if err != nil {
			return nil, err
		}

		sets := make([]cards.SetMeta, 0, len(list.Data))
		for _, s := range list.Data {
			if IsPurchasable(s) {
				sets = append(sets, convertSet(s))
			}
		}

		p.mu.Lock()
		p.sets = sets
		p.setsFetchedAt = time.Now()
		p.mu.Unlock()

		log.WithFields(log.Fields{"sets": len(sets), "total": len(list.Data)}).Info("[SetCache] Loaded purchasable sets")
		return sets, nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh sets: %w", err)
	}
	return v.([]cards.SetMeta), nil
}

// LookupSet finds a set in the current catalog.
func (p *Provider) LookupSet(ctx context.Context, code string) (cards.SetMeta, bool) {
	for _, s := range p.FetchSets(ctx) {
		if strings.EqualFold(s.Code, code) {
			return s, true
		}
	}
	return cards.SetMeta{}, false
}

// FetchCardsForSet returns every card of a set, normalized.
// Concurrent callers for one set share a single upstream fetch. A caller whose
// context ends stops waiting; the shared fetch still fills the cache.
func (p *Provider) FetchCardsForSet(ctx context.Context, code string) []cards.Card {
	code = strings.ToLower(code)

	if p.cache != nil {
		list, ok, err := p.cache.Get(ctx, code)
		if err != nil {
			log.WithError(err).WithField("set", code).Warn("[SetCache] Cache read failed")
		} else if ok {
			return list
		}
	}

	ch := p.group.DoChan("cards:"+code, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return p.fetchCards(fetchCtx, code)
	})

	select {
	case <-ctx.Done():
		log.WithField("set", code).Debug("[SetCache] Caller gave up waiting for cards")
		return []cards.Card{}
	case res := <-ch:
		if res.Err != nil {
			log.WithError(res.Err).WithField("set", code).Warn("[SetCache] Failed to fetch cards")
			return []cards.Card{}
		}
		return res.Val.([]cards.Card)
	}
}

// Pool fetches a set's cards and partitions them by rarity.
func (p *Provider) Pool(ctx context.Context, code string) cards.Pool {
	return cards.NewPool(p.FetchCardsForSet(ctx, code))
}

// PruneCache evicts expired pool entries.
func (p *Provider) PruneCache(ctx context.Context) (int, error) {
	if p.cache == nil {
		return 0, nil
	}
	return p.cache.Prune(ctx)
}

func (p *Provider) fetchCards(ctx context.Context, code string) ([]cards.Card, error) {
	raw, err := p.source.SearchAllCards(ctx, "set:"+code)
	if err != nil {
		return nil, fmt.Errorf("search set %s: %w", code, err)
	}

	list := make([]cards.Card, 0, len(raw))
	for _, sc := range raw {
		if sc.ID == "" {
			continue
		}
		list = append(list, convertCard(sc))
	}

	log.WithFields(log.Fields{"set": code, "cards": len(list)}).Info("[SetCache] Fetched set cards")

	if p.cache != nil && len(list) > 0 {
		if err := p.cache.Set(ctx, code, list); err != nil {
			log.WithError(err).WithField("set", code).Warn("[SetCache] Cache write failed")
		}
	}
	return list, nil
}
