package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/celrisk/internal/events"
)

const wsWriteTimeout = 10 * time.Second

// EventsWSHandler streams bus events to clients over a websocket.
type EventsWSHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsWSHandler creates a new websocket events handler.
func NewEventsWSHandler(eventBus *events.Bus, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. Clients only receive; anything they
// send is discarded.
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	types := parseEventTypes(r.URL.Query().Get("types"))

	// CORS is open on every route, so origin checks are skipped here as well
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket handshake failed")
		return
	}
	defer conn.CloseNow()

	eventChan, unsubscribe := subscribe(h.eventBus, types, h.log)
	defer unsubscribe()

	ctx := conn.CloseRead(r.Context())

	if err := h.write(ctx, conn, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	}); err != nil {
		return
	}
	h.log.Info().Msg("Websocket client connected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Websocket client disconnected")
			return

		case event := <-eventChan:
			if err := h.write(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Websocket write failed")
				return
			}

		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Websocket ping failed")
				return
			}
		}
	}
}

func (h *EventsWSHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
