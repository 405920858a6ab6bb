package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/chronicle/internal/services"
)

type CredentialsRequest struct {
	APIKey string `json:"api_key"`
}

type CredentialsResponse struct {
	Selected bool `json:"selected"`
}

// CredentialsHandler reports and selects the API key used for generation.
// Routes:
// GET  /v1/credentials - {selected}
// POST /v1/credentials - select a key
type CredentialsHandler struct {
	keys   *services.KeyRing
	logger *slog.Logger
}

func NewCredentialsHandler(keys *services.KeyRing, logger *slog.Logger) *CredentialsHandler {
	return &CredentialsHandler{
		keys:   keys,
		logger: logger,
	}
}

func (h *CredentialsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, CredentialsResponse{Selected: h.keys.HasSelectedKey()})

	case http.MethodPost:
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn("Invalid JSON in request body", "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
			return
		}
		if err := h.keys.SelectKey(req.APIKey); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "api_key is required")
			return
		}
		h.logger.Info("API key selected")
		writeJSON(w, h.logger, http.StatusOK, CredentialsResponse{Selected: true})

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
	}
}
