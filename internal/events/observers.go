package events

import (
	log "github.com/sirupsen/logrus"
)

// LoggingObserver logs all events for debugging purposes.
type LoggingObserver struct {
	name    string
	verbose bool
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		verbose: verbose,
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	entry := log.WithField("event", event.Type)
	if o.verbose {
		entry = entry.WithField("data", event.TypedData)
	}
	entry.Debugf("[%s] Event dispatched", o.name)
	return nil
}

// GetName returns the observer's name.
func (o *LoggingObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}

// FuncObserver adapts a function into an Observer for a fixed set of types.
// An empty type list matches everything.
type FuncObserver struct {
	name  string
	types map[string]bool
	fn    func(Event) error
}

// NewFuncObserver creates a FuncObserver.
func NewFuncObserver(name string, fn func(Event) error, types ...string) *FuncObserver {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return &FuncObserver{name: name, types: set, fn: fn}
}

func (o *FuncObserver) OnEvent(event Event) error { return o.fn(event) }

func (o *FuncObserver) GetName() string { return o.name }

func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return len(o.types) == 0 || o.types[eventType]
}
