// Package refresh keeps the set catalog and card pool cache fresh on a cron
// schedule.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/events"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// Catalog is the part of setcache.Provider the scheduler drives.
type Catalog interface {
	RefreshSets(ctx context.Context) ([]cards.SetMeta, error)
	FetchCardsForSet(ctx context.Context, code string) []cards.Card
	PruneCache(ctx context.Context) (int, error)
}

// SchedulerConfig configures the refresh scheduler.
type SchedulerConfig struct {
	Catalog Catalog
	Events  events.Dispatcher

	// Schedule is a cron spec or descriptor (default: "@every 6h").
	Schedule string

	// Timeout bounds a single run (default: 5 minutes).
	Timeout time.Duration

	// WarmSets lists set codes whose pools should be fetched after each
	// refresh, typically the sets of unopened boosters. Optional.
	WarmSets func() []string
}

// Result describes one completed run.
type Result struct {
	Sets    int
	Evicted int
	Warmed  int
	At      time.Time
}

// Scheduler runs catalog refreshes on a cron schedule.
type Scheduler struct {
	config SchedulerConfig
	cron   *cron.Cron
	entry  cron.EntryID

	mu      sync.Mutex
	last    Result
	lastErr error
}

// NewScheduler creates a new refresh scheduler. The schedule is parsed here so
// a bad spec fails at startup.
func NewScheduler(config SchedulerConfig) (*Scheduler, error) {
	if config.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if config.Events == nil {
		config.Events = events.Nop{}
	}
	if config.Schedule == "" {
		config.Schedule = "@every 6h"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}

	s := &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLogger(cron.PrintfLogger(log.StandardLogger())),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}

	id, err := s.cron.AddFunc(config.Schedule, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", config.Schedule, err)
	}
	s.entry = id
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.WithField("schedule", s.config.Schedule).Info("[Refresh] Scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[Refresh] Scheduler stopped")
}

// NextRun returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entry).Next
}

// LastRun returns the most recent result and its error.
func (s *Scheduler) LastRun() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		log.WithError(err).Error("[Refresh] Scheduled refresh failed")
	}
}

// RunOnce refreshes the set list, prunes expired pools, warms pools for the
// WarmSets codes and dispatches catalog:refreshed. A failed set refresh
// aborts the run; nothing is dispatched.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()

	sets, err := s.config.Catalog.RefreshSets(ctx)
	if err != nil {
		s.record(Result{At: start}, err)
		return Result{}, fmt.Errorf("refresh sets: %w", err)
	}

	evicted, err := s.config.Catalog.PruneCache(ctx)
	if err != nil {
		// Stale entries are harmless; keep going.
		log.WithError(err).Warn("[Refresh] Cache prune failed")
	}

	warmed := 0
	if s.config.WarmSets != nil {
		for _, code := range uniqueCodes(s.config.WarmSets()) {
			if ctx.Err() != nil {
				break
			}
			if len(s.config.Catalog.FetchCardsForSet(ctx, code)) > 0 {
				warmed++
			}
		}
	}

	res := Result{Sets: len(sets), Evicted: evicted, Warmed: warmed, At: start}
	s.record(res, nil)

	s.config.Events.Dispatch(events.NewTypedEvent(events.CatalogRefreshed,
		events.CatalogRefreshedEvent{Sets: res.Sets, Evicted: res.Evicted}, ctx))

	log.WithFields(log.Fields{
		"sets":     res.Sets,
		"evicted":  res.Evicted,
		"warmed":   res.Warmed,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("[Refresh] Catalog refreshed")
	return res, nil
}

func (s *Scheduler) record(res Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = res
	s.lastErr = err
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
