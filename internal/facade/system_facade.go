package facade

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/metrics"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/refresh"
	"github.com/ramonehamilton/booster-sim/internal/version"
)

// SystemFacade handles startup restore, reset and health.
type SystemFacade struct {
	services *Services
	started  time.Time
}

// NewSystemFacade creates a new SystemFacade.
func NewSystemFacade(services *Services) *SystemFacade {
	return &SystemFacade{services: services, started: time.Now()}
}

// Health is the liveness report.
type Health struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	Uptime      string    `json:"uptime"`
	Persistence bool      `json:"persistence"`
	LastRefresh time.Time `json:"lastRefresh,omitempty"`
	NextRefresh time.Time `json:"nextRefresh,omitempty"`
	RefreshErr  string    `json:"refreshError,omitempty"`
}

// Restore loads the stored snapshot into the ledger. It reports whether a
// snapshot was applied; a missing or unusable one leaves defaults in place.
func (s *SystemFacade) Restore(ctx context.Context) (bool, error) {
	if s.services.Store == nil {
		return false, nil
	}

	st, ok := s.services.Store.Load(ctx)
	if !ok {
		log.Info("[SystemFacade] No saved snapshot, starting fresh")
		return false, nil
	}
	if err := s.services.Ledger.Restore(st); err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}

	log.WithFields(log.Fields{
		"balance":  st.Balance.StringFixed(2),
		"cards":    len(st.Collection),
		"boosters": len(st.UnopenedBoosters),
	}).Info("[SystemFacade] Restored snapshot")
	return true, nil
}

// Reset restores the ledger to its starting state. The stored snapshot is
// cleared by the snapshot observer.
func (s *SystemFacade) Reset() economy.State {
	return s.services.Ledger.Reset()
}

// State returns the whole ledger state.
func (s *SystemFacade) State() economy.State {
	return s.services.Ledger.State()
}

// RefreshCatalog runs a catalog refresh immediately.
func (s *SystemFacade) RefreshCatalog(ctx context.Context) (refresh.Result, error) {
	if s.services.Refresh == nil {
		return refresh.Result{}, appError("Catalog refresh is not configured", ErrRefreshDisabled)
	}
	res, err := s.services.Refresh.RunOnce(ctx)
	if err != nil {
		return refresh.Result{}, appError("Catalog refresh failed", err)
	}
	return res, nil
}

// Health reports liveness and background job status.
func (s *SystemFacade) Health() Health {
	h := Health{
		Status:      "ok",
		Version:     version.Version,
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Persistence: s.services.Store != nil,
	}
	if s.services.Refresh != nil {
		last, err := s.services.Refresh.LastRun()
		h.LastRefresh = last.At
		h.NextRefresh = s.services.Refresh.NextRun()
		if err != nil {
			h.RefreshErr = err.Error()
		}
	}
	return h
}

// Metrics returns simulator counters and latencies.
func (s *SystemFacade) Metrics() metrics.SimStats {
	return s.services.Metrics.Stats()
}
