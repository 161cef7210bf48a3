package websocket

import (
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/events"
)

// WebSocketObserver forwards ledger and catalog events to WebSocket clients.
type WebSocketObserver struct {
	name string
	hub  *Hub
}

// NewWebSocketObserver creates a new observer that forwards events to WebSocket clients.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{
		name: "WebSocketObserver",
		hub:  hub,
	}
}

// OnEvent broadcasts the event payload as {"type", "data"}.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		log.WithField("type", event.Type).Warnf("[%s] Cannot emit event: hub is nil", o.name)
		return nil
	}

	if o.hub.BroadcastEvent(Event{Type: event.Type, Data: event.TypedData}) {
		log.WithFields(log.Fields{
			"type":    event.Type,
			"clients": o.hub.ClientCount(),
		}).Debugf("[%s] Broadcast event", o.name)
	}
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return o.name
}

// ShouldHandle accepts ledger and catalog events.
func (o *WebSocketObserver) ShouldHandle(eventType string) bool {
	switch eventType {
	case events.LedgerChanged, events.LedgerReset, events.CatalogRefreshed:
		return true
	}
	return false
}

// Ensure WebSocketObserver implements the Observer interface.
var _ events.Observer = (*WebSocketObserver)(nil)
