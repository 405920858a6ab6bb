package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/internal/session"
)

// CredentialRequiredMessage is shown when a key must be selected first.
const CredentialRequiredMessage = "Adventure requires access. Select a valid API key to continue."

type ErrorResponse struct {
	Error              string `json:"error"`
	CredentialRequired bool   `json:"credential_required,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// writeSessionError maps a controller error onto a status code and a body
// the player can read.
func writeSessionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var actionErr *session.ActionError
	hasAction := errors.As(err, &actionErr)

	switch {
	case services.IsCredentialError(err):
		writeJSON(w, logger, http.StatusUnauthorized, ErrorResponse{
			Error:              CredentialRequiredMessage,
			CredentialRequired: true,
		})
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, logger, http.StatusNotFound, "Adventure not found")
	case errors.Is(err, session.ErrInvalidRequest):
		writeError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrBusy):
		writeError(w, logger, http.StatusConflict, "The Loom is still weaving. Wait for the current request to finish.")
	case errors.Is(err, session.ErrGameOver):
		writeError(w, logger, http.StatusConflict, "This adventure has ended. Return to Origin to begin anew.")
	case errors.Is(err, session.ErrAlreadyStarted):
		writeError(w, logger, http.StatusConflict, "The adventure is already underway. Return to Origin to begin anew.")
	case errors.Is(err, session.ErrNotStarted):
		writeError(w, logger, http.StatusConflict, "The adventure has not begun.")
	case errors.Is(err, session.ErrReset):
		writeError(w, logger, http.StatusConflict, "The adventure was reset before the request finished.")
	case hasAction:
		writeError(w, logger, http.StatusBadGateway, actionErr.Message)
	default:
		logger.Error("Unexpected session error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
