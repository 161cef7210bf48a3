// Package facade exposes the simulator's operations to transports. Facades
// sit between the HTTP API (or any other front end) and the ledger, the card
// provider and the snapshot store.
package facade

import (
	"context"
	"errors"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/events"
	"github.com/ramonehamilton/booster-sim/internal/metrics"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/refresh"
	"github.com/ramonehamilton/booster-sim/internal/storage"
)

var (
	// ErrPoolUnavailable is returned when a set's card pool cannot be fetched.
	// The caller may retry.
	ErrPoolUnavailable = errors.New("card pool unavailable")
	// ErrUnknownSet is returned for a set code not in the purchasable catalog.
	ErrUnknownSet = errors.New("unknown set")
	// ErrRefreshDisabled is returned when no refresh scheduler is configured.
	ErrRefreshDisabled = errors.New("catalog refresh is disabled")
)

// CardProvider is the catalog the facades read from. setcache.Provider
// implements it.
type CardProvider interface {
	FetchSets(ctx context.Context) []cards.SetMeta
	LookupSet(ctx context.Context, code string) (cards.SetMeta, bool)
	FetchCardsForSet(ctx context.Context, code string) []cards.Card
	Pool(ctx context.Context, code string) cards.Pool
}

// Services contains all shared services needed by facades.
type Services struct {
	Ledger *economy.Ledger
	Cards  CardProvider

	// Store is optional; without it nothing is persisted.
	Store *storage.SnapshotStore

	// Events is the dispatcher the ledger publishes to.
	Events *events.EventDispatcher

	// Refresh is optional.
	Refresh *refresh.Scheduler

	// Metrics is optional; a nil collector records nothing.
	Metrics *metrics.SimMetrics

	// OpenConcurrency caps parallel pool fetches in OpenAll (default 4).
	OpenConcurrency int
}

// AppError represents an application error with a user-friendly message.
type AppError struct {
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped error for errors.Is/As chain
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

func appError(message string, err error) *AppError {
	return &AppError{Message: message, Err: err}
}
