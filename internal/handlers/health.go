package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/chronicle/internal/services/events"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// CredentialStatus reports whether an API key is selected.
type CredentialStatus interface {
	HasSelectedKey() bool
}

type HealthHandler struct {
	bus    events.Bus
	keys   CredentialStatus
	logger *slog.Logger
}

func NewHealthHandler(bus events.Bus, keys CredentialStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		bus:    bus,
		keys:   keys,
		logger: logger,
	}
}

// ServeHTTP reports the event bus and credential status. A missing key is
// not a failure: the player is prompted for one on first use.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.bus.Ping(ctx); err != nil {
		h.logger.Warn("Event bus health check failed", "error", err)
		components["event_bus"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["event_bus"] = "healthy"
	}

	if h.keys.HasSelectedKey() {
		components["credentials"] = "selected"
	} else {
		components["credentials"] = "missing"
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "chronicle",
		Components: components,
	})
}
