package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/chronicle/internal/services/events"
	"github.com/jwebster45206/chronicle/internal/session"
)

const keepaliveInterval = 30 * time.Second

// EventsHandler streams session events as Server-Sent Events.
type EventsHandler struct {
	bus      events.Bus
	sessions *session.Manager
	logger   *slog.Logger
}

func NewEventsHandler(bus events.Bus, sessions *session.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		bus:      bus,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles SSE requests for adventure events
// GET /v1/events/adventures/{id}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "events" || pathParts[2] != "adventures" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/adventures/{id}")
		return
	}

	sessionID, err := uuid.Parse(pathParts[3])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid adventure ID format.")
		return
	}
	if _, err := h.sessions.Get(sessionID); err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Adventure not found")
		return
	}

	eventCh, unsubscribe, err := h.bus.Subscribe(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to subscribe to session events", "error", err, "session_id", sessionID.String())
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable")
		return
	}
	defer unsubscribe()

	h.logger.Info("SSE connection established",
		"session_id", sessionID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, "connected", map[string]any{
		"session_id": sessionID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "session_id", sessionID.String())
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}
			h.sendSSE(w, string(event.Type), event)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flush(w)
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	flush(w)
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
