package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/events"
)

// SimMetrics tracks booster opening and pool fetch activity. It also
// implements events.Observer to count committed ledger operations.
// The Record methods and Stats are safe on a nil receiver.
type SimMetrics struct {
	PoolFetchLatency *Histogram
	OpenLatency      *Histogram

	PoolFetches     atomic.Uint64
	PoolUnavailable atomic.Uint64
	PacksOpened     atomic.Uint64
	CardsDrawn      atomic.Uint64
	OpenFailures    atomic.Uint64
	Refreshes       atomic.Uint64

	mu        sync.Mutex
	ops       map[string]uint64
	startTime time.Time
}

// NewSimMetrics creates a new metrics collector.
func NewSimMetrics() *SimMetrics {
	return &SimMetrics{
		PoolFetchLatency: NewHistogram(1000),
		OpenLatency:      NewHistogram(1000),
		ops:              make(map[string]uint64),
		startTime:        time.Now(),
	}
}

// RecordPoolFetch records one pool fetch and whether it came back empty.
func (m *SimMetrics) RecordPoolFetch(d time.Duration, empty bool) {
	if m == nil {
		return
	}
	m.PoolFetches.Add(1)
	m.PoolFetchLatency.Record(d)
	if empty {
		m.PoolUnavailable.Add(1)
	}
}

// RecordOpen records a successful open of a pack with n cards.
func (m *SimMetrics) RecordOpen(d time.Duration, n int) {
	if m == nil {
		return
	}
	m.PacksOpened.Add(1)
	m.CardsDrawn.Add(uint64(n))
	m.OpenLatency.Record(d)
}

// RecordOpenFailure counts a booster that could not be opened.
func (m *SimMetrics) RecordOpenFailure() {
	if m == nil {
		return
	}
	m.OpenFailures.Add(1)
}

// OnEvent counts ledger operations by name and catalog refreshes.
func (m *SimMetrics) OnEvent(event events.Event) error {
	switch event.Type {
	case events.CatalogRefreshed:
		m.Refreshes.Add(1)
	case events.LedgerChanged, events.LedgerReset:
		op := event.Type
		if change, ok := events.GetTypedData[economy.Change](event); ok && change.Op != "" {
			op = change.Op
		}
		m.mu.Lock()
		m.ops[op]++
		m.mu.Unlock()
	}
	return nil
}

// GetName returns the observer's name.
func (m *SimMetrics) GetName() string {
	return "SimMetrics"
}

// ShouldHandle accepts ledger and catalog events.
func (m *SimMetrics) ShouldHandle(eventType string) bool {
	switch eventType {
	case events.LedgerChanged, events.LedgerReset, events.CatalogRefreshed:
		return true
	}
	return false
}

var _ events.Observer = (*SimMetrics)(nil)

// SimStats is a point-in-time copy of the metrics.
type SimStats struct {
	PoolFetchLatency LatencyStats      `json:"poolFetchLatency"`
	OpenLatency      LatencyStats      `json:"openLatency"`
	PoolFetches      uint64            `json:"poolFetches"`
	PoolUnavailable  uint64            `json:"poolUnavailable"`
	PoolAvailability float64           `json:"poolAvailability"` // percentage
	PacksOpened      uint64            `json:"packsOpened"`
	CardsDrawn       uint64            `json:"cardsDrawn"`
	AveragePackSize  float64           `json:"averagePackSize"`
	OpenFailures     uint64            `json:"openFailures"`
	Refreshes        uint64            `json:"refreshes"`
	Ops              map[string]uint64 `json:"ops"`
	Uptime           string            `json:"uptime"`
}

// Stats returns a snapshot of the current statistics. A nil collector
// reports zeros.
func (m *SimMetrics) Stats() SimStats {
	if m == nil {
		return SimStats{Ops: map[string]uint64{}}
	}

	s := SimStats{
		PoolFetchLatency: m.PoolFetchLatency.Stats(),
		OpenLatency:      m.OpenLatency.Stats(),
		PoolFetches:      m.PoolFetches.Load(),
		PoolUnavailable:  m.PoolUnavailable.Load(),
		PacksOpened:      m.PacksOpened.Load(),
		CardsDrawn:       m.CardsDrawn.Load(),
		OpenFailures:     m.OpenFailures.Load(),
		Refreshes:        m.Refreshes.Load(),
	}
	if s.PoolFetches > 0 {
		s.PoolAvailability = float64(s.PoolFetches-s.PoolUnavailable) / float64(s.PoolFetches) * 100
	}
	if s.PacksOpened > 0 {
		s.AveragePackSize = float64(s.CardsDrawn) / float64(s.PacksOpened)
	}

	m.mu.Lock()
	s.Ops = make(map[string]uint64, len(m.ops))
	for k, v := range m.ops {
		s.Ops[k] = v
	}
	s.Uptime = time.Since(m.startTime).Round(time.Second).String()
	m.mu.Unlock()
	return s
}

// Reset clears all metrics.
func (m *SimMetrics) Reset() {
	m.PoolFetchLatency.Reset()
	m.OpenLatency.Reset()
	m.PoolFetches.Store(0)
	m.PoolUnavailable.Store(0)
	m.PacksOpened.Store(0)
	m.CardsDrawn.Store(0)
	m.OpenFailures.Store(0)
	m.Refreshes.Store(0)

	m.mu.Lock()
	m.ops = make(map[string]uint64)
	m.startTime = time.Now()
	m.mu.Unlock()
}
