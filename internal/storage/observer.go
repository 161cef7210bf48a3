package storage

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/events"
)

const saveTimeout = 5 * time.Second

// SnapshotObserver persists the ledger after every committed change.
type SnapshotObserver struct {
	store *SnapshotStore
}

// NewSnapshotObserver creates an observer writing through store.
func NewSnapshotObserver(store *SnapshotStore) *SnapshotObserver {
	return &SnapshotObserver{store: store}
}

// OnEvent saves on ledger:changed and clears on ledger:reset. Sink errors are
// logged and swallowed; the ledger has already committed.
func (o *SnapshotObserver) OnEvent(event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	switch event.Type {
	case events.LedgerReset:
		if err := o.store.Clear(ctx); err != nil {
			log.WithError(err).Error("[SnapshotObserver] Failed to clear snapshot")
		}
	case events.LedgerChanged:
		change, ok := events.GetTypedData[economy.Change](event)
		if !ok {
			log.Warnf("[SnapshotObserver] Unexpected payload for %s", event.Type)
			return nil
		}
		if err := o.store.Save(ctx, change.State); err != nil {
			log.WithError(err).WithField("op", change.Op).Error("[SnapshotObserver] Failed to save snapshot")
		}
	}
	return nil
}

func (o *SnapshotObserver) GetName() string {
	return "SnapshotObserver"
}

func (o *SnapshotObserver) ShouldHandle(eventType string) bool {
	return eventType == events.LedgerChanged || eventType == events.LedgerReset
}
