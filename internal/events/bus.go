// Package events provides an in-process publish/subscribe bus for run lifecycle events.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of event
type EventType string

const (
	// RunCompleted is published after a run has been evaluated and stored.
	RunCompleted EventType = "RUN_COMPLETED"
	// RunFailed is published when a run stops on an error.
	RunFailed EventType = "RUN_FAILED"
	// RunsPruned is published when the retention job deletes old runs.
	RunsPruned EventType = "RUNS_PRUNED"
	// RunsArchived is published when runs have been uploaded to the archive.
	RunsArchived EventType = "RUNS_ARCHIVED"
)

// AllEventTypes lists every event type the bus carries.
var AllEventTypes = []EventType{RunCompleted, RunFailed, RunsPruned, RunsArchived}

// Event is a single published event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(*Event)

// Bus fans events out to subscribers
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType]map[int]Handler
	nextID   int
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[int]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers handler for the given types and returns a function that removes it.
func (b *Bus) Subscribe(handler Handler, types ...EventType) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	for _, t := range types {
		if b.handlers[t] == nil {
			b.handlers[t] = make(map[int]Handler)
		}
		b.handlers[t][id] = handler
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, t := range types {
			delete(b.handlers[t], id)
		}
	}
}

// Publish delivers data to every subscriber of its event type.
func (b *Bus) Publish(data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Int("subscribers", len(handlers)).
		Msg("Publishing event")

	for _, h := range handlers {
		h(event)
	}
}
