package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/events"
)

const (
	eventBufferSize   = 100
	heartbeatInterval = 30 * time.Second
)

// EventsStreamHandler streams bus events to clients as Server-Sent Events.
type EventsStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
// The optional types query parameter is a comma-separated event type filter.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan, unsubscribe := subscribe(h.eventBus, parseEventTypes(r.URL.Query().Get("types")), h.log)
	defer unsubscribe()

	h.log.Info().Msg("Client connected to event stream")

	h.send(w, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			h.send(w, event)
			flusher.Flush()

		case <-heartbeat.C:
			h.send(w, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) send(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode event")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// parseEventTypes turns "A,B" into event types; empty means every type.
func parseEventTypes(raw string) []events.EventType {
	if strings.TrimSpace(raw) == "" {
		return events.AllEventTypes
	}
	var types []events.EventType
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, events.EventType(t))
		}
	}
	return types
}

// subscribe attaches a buffered channel to the bus. Events are dropped, not
// queued, once the buffer is full so a slow client never blocks publishers.
func subscribe(bus *events.Bus, types []events.EventType, log zerolog.Logger) (<-chan *events.Event, func()) {
	eventChan := make(chan *events.Event, eventBufferSize)
	unsubscribe := bus.Subscribe(func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}, types...)
	return eventChan, unsubscribe
}
