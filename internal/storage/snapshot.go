package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/economy"
)

const (
	// DefaultKey is the fixed key the snapshot document lives under.
	DefaultKey = "magic-collection-storage"
	// SchemaVersion is the document version written and accepted.
	SchemaVersion = 0
)

type document struct {
	State   json.RawMessage `json:"state"`
	Version *int            `json:"version"`
}

type savedDocument struct {
	State   economy.State `json:"state"`
	Version int           `json:"version"`
}

// persistedState mirrors economy.State with every field optional so missing
// fields can be told apart from zero values.
type persistedState struct {
	Balance          *decimal.Decimal          `json:"balance"`
	Euros            *decimal.Decimal          `json:"euros"` // legacy name for balance
	Collection       []economy.CollectionEntry `json:"collection"`
	Cart             []economy.CartLine        `json:"cart"`
	UnopenedBoosters []economy.Booster         `json:"unopenedBoosters"`
	SellCart         []economy.SellLine        `json:"sellCart"`
}

// SnapshotStore reads and writes the versioned ledger document.
type SnapshotStore struct {
	sink            Sink
	key             string
	startingBalance decimal.Decimal
}

// NewSnapshotStore creates a store. An empty key means DefaultKey.
// startingBalance fills in a document with no balance.
func NewSnapshotStore(sink Sink, key string, startingBalance decimal.Decimal) *SnapshotStore {
	if key == "" {
		key = DefaultKey
	}
	return &SnapshotStore{sink: sink, key: key, startingBalance: startingBalance}
}

// Key returns the key the document is stored under.
func (s *SnapshotStore) Key() string {
	return s.key
}

// Load returns the stored state and true, or default state and false when
// nothing usable is stored. Corrupt documents are logged and ignored.
func (s *SnapshotStore) Load(ctx context.Context) (economy.State, bool) {
	defaults := economy.DefaultState(s.startingBalance)

	raw, err := s.sink.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).WithField("key", s.key).Warn("[SnapshotStore] Failed to read snapshot, using defaults")
		}
		return defaults, false
	}

	st, err := s.decode(raw)
	if err != nil {
		log.WithError(err).WithField("key", s.key).Warn("[SnapshotStore] Discarding unusable snapshot")
		return defaults, false
	}
	return st, true
}

func (s *SnapshotStore) decode(raw []byte) (economy.State, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return economy.State{}, fmt.Errorf("parse document: %w", err)
	}
	if doc.Version != nil && *doc.Version > SchemaVersion {
		return economy.State{}, fmt.Errorf("unsupported snapshot version %d", *doc.Version)
	}
	if len(doc.State) == 0 || string(doc.State) == "null" {
		return economy.State{}, errors.New("document has no state")
	}

	var p persistedState
	if err := json.Unmarshal(doc.State, &p); err != nil {
		return economy.State{}, fmt.Errorf("parse state: %w", err)
	}

	st := economy.DefaultState(s.startingBalance)
	switch {
	case p.Balance != nil:
		st.Balance = *p.Balance
	case p.Euros != nil:
		st.Balance = *p.Euros
	}
	if p.Collection != nil {
		st.Collection = p.Collection
	}
	if p.Cart != nil {
		st.Cart = p.Cart
	}
	if p.UnopenedBoosters != nil {
		st.UnopenedBoosters = p.UnopenedBoosters
	}
	if p.SellCart != nil {
		st.SellCart = p.SellCart
	}

	if err := st.Validate(); err != nil {
		return economy.State{}, err
	}
	return st, nil
}

// Save writes st as the current document.
func (s *SnapshotStore) Save(ctx context.Context, st economy.State) error {
	b, err := json.Marshal(savedDocument{State: st, Version: SchemaVersion})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.sink.Put(ctx, s.key, b)
}

// Clear removes the stored document. Clearing a missing document succeeds.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.sink.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
