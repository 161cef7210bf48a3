package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// BoosterFacade handles the unopened booster inventory.
type BoosterFacade struct {
	services *Services
}

// NewBoosterFacade creates a new BoosterFacade with the given services.
func NewBoosterFacade(services *Services) *BoosterFacade {
	return &BoosterFacade{services: services}
}

// OpenFailure is a booster OpenAll could not open.
type OpenFailure struct {
	BoosterID string `json:"boosterId"`
	SetCode   string `json:"setCode"`
	Error     string `json:"error"`
}

// OpenAllResult reports a bulk open.
type OpenAllResult struct {
	Opened  []economy.OpenResult `json:"opened"`
	Failed  []OpenFailure        `json:"failed"`
	Summary *booster.Summary     `json:"summary"`
}

// List returns unopened boosters in purchase order.
func (b *BoosterFacade) List() []economy.Booster {
	return b.services.Ledger.Boosters()
}

// Grouped returns unopened boosters grouped by set.
func (b *BoosterFacade) Grouped() []economy.BoosterGroup {
	return b.services.Ledger.BoostersBySet()
}

// Open fetches the booster's pool and opens it. The pool fetch runs outside
// the ledger lock and is abandoned if ctx ends first.
func (b *BoosterFacade) Open(ctx context.Context, id string) (economy.OpenResult, error) {
	bst, ok := b.services.Ledger.Booster(id)
	if !ok {
		return economy.OpenResult{}, appError("Booster not found", fmt.Errorf("%w: %s", economy.ErrBoosterNotFound, id))
	}

	pool := b.fetchPool(ctx, bst.SetCode)
	if err := ctx.Err(); err != nil {
		return economy.OpenResult{}, err
	}
	return b.open(id, bst.SetCode, pool)
}

func (b *BoosterFacade) fetchPool(ctx context.Context, code string) cards.Pool {
	start := time.Now()
	pool := b.services.Cards.Pool(ctx, code)
	b.services.Metrics.RecordPoolFetch(time.Since(start), pool.Empty())
	return pool
}

func (b *BoosterFacade) open(id, setCode string, pool cards.Pool) (economy.OpenResult, error) {
	start := time.Now()
	res, err := b.openPool(id, setCode, pool)
	if err != nil {
		b.services.Metrics.RecordOpenFailure()
		return res, err
	}
	b.services.Metrics.RecordOpen(time.Since(start), len(res.Cards))
	return res, nil
}

func (b *BoosterFacade) openPool(id, setCode string, pool cards.Pool) (economy.OpenResult, error) {
	if pool.Empty() {
		return economy.OpenResult{}, appError(
			fmt.Sprintf("Cards for set %s are unavailable, try again later", setCode),
			fmt.Errorf("%w: %s", ErrPoolUnavailable, setCode))
	}

	res, err := b.services.Ledger.OpenBooster(id, pool)
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, economy.ErrEmptyPack):
		return economy.OpenResult{}, appError("The pack came out empty, try again later", errors.Join(ErrPoolUnavailable, err))
	case errors.Is(err, economy.ErrBoosterNotFound):
		return economy.OpenResult{}, appError("Booster not found", err)
	default:
		return economy.OpenResult{}, err
	}
}

// OpenAll opens every unopened booster. Pools of distinct sets are fetched
// concurrently first; boosters are then opened one at a time. Boosters whose
// pool is unavailable stay unopened and are reported in Failed.
func (b *BoosterFacade) OpenAll(ctx context.Context) (OpenAllResult, error) {
	list := b.services.Ledger.Boosters()
	result := OpenAllResult{
		Opened:  []economy.OpenResult{},
		Failed:  []OpenFailure{},
		Summary: booster.NewSummary(),
	}
	if len(list) == 0 {
		return result, nil
	}

	limit := b.services.OpenConcurrency
	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	pools := make(map[string]cards.Pool)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, code := range distinctSets(list) {
		g.Go(func() error {
			pool := b.fetchPool(gctx, code)
			mu.Lock()
			pools[code] = pool
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for _, bst := range list {
		res, err := b.open(bst.ID, bst.SetCode, pools[bst.SetCode])
		if err != nil {
			result.Failed = append(result.Failed, OpenFailure{BoosterID: bst.ID, SetCode: bst.SetCode, Error: err.Error()})
			continue
		}
		result.Opened = append(result.Opened, res)
		result.Summary.Add(res.Cards)
	}

	log.WithFields(log.Fields{
		"opened": len(result.Opened),
		"failed": len(result.Failed),
		"value":  result.Summary.Value.StringFixed(2),
	}).Info("[BoosterFacade] Opened all boosters")
	return result, nil
}

func distinctSets(list []economy.Booster) []string {
	seen := make(map[string]bool)
	codes := make([]string, 0)
	for _, b := range list {
		if !seen[b.SetCode] {
			seen[b.SetCode] = true
			codes = append(codes, b.SetCode)
		}
	}
	return codes
}
