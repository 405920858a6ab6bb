package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/chronicle/internal/session"
	"github.com/jwebster45206/chronicle/pkg/chat"
	"github.com/jwebster45206/chronicle/pkg/state"
)

const maxBodyBytes = 64 << 10

// StartRequest selects the theme and resolution of a new adventure.
type StartRequest struct {
	Theme     string `json:"theme"`
	ImageSize string `json:"image_size"`
}

type ChoiceRequest struct {
	Choice string `json:"choice"`
}

type AdventureHandler struct {
	ctrl   *session.Controller
	logger *slog.Logger
}

func NewAdventureHandler(ctrl *session.Controller, logger *slog.Logger) *AdventureHandler {
	return &AdventureHandler{
		ctrl:   ctrl,
		logger: logger,
	}
}

// ServeHTTP handles HTTP requests for adventure sessions
// Routes:
// POST   /v1/adventures               - Create a session and start it
// GET    /v1/adventures/{id}          - Session view
// DELETE /v1/adventures/{id}          - Reset to not started
// POST   /v1/adventures/{id}/start    - Start (or restart) an existing session
// POST   /v1/adventures/{id}/choices  - Submit a choice
// POST   /v1/adventures/{id}/chat     - Ask the lore assistant
// GET    /v1/adventures/{id}/image    - Current illustration bytes
func (h *AdventureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/adventures"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Unknown adventure route")
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid adventure ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid adventure ID format")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleReset(w, r, id)
	case action == "start" && r.Method == http.MethodPost:
		h.handleStart(w, r, id)
	case action == "choices" && r.Method == http.MethodPost:
		h.handleChoose(w, r, id)
	case action == "chat" && r.Method == http.MethodPost:
		h.handleChat(w, r, id)
	case action == "image" && r.Method == http.MethodGet:
		h.handleImage(w, id)
	case action == "" || action == "start" || action == "choices" || action == "chat" || action == "image":
		h.logger.Warn("Method not allowed for adventure endpoint", "method", r.Method, "action", action)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown adventure route")
	}
}

// detached keeps generation running when the client goes away.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *AdventureHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || err == io.EOF {
		return true
	}
	h.logger.Warn("Invalid JSON in request body", "error", err)
	writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
	return false
}

func (h *AdventureHandler) parseStart(w http.ResponseWriter, r *http.Request) (string, state.ImageSize, bool) {
	var req StartRequest
	if !h.decode(w, r, &req) {
		return "", "", false
	}
	size, err := state.ParseImageSize(req.ImageSize)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	theme, err := state.NormalizeTheme(req.Theme)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return "", "", false
	}
	return theme, size, true
}

func (h *AdventureHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	theme, size, ok := h.parseStart(w, r)
	if !ok {
		return
	}

	created := h.ctrl.Create()
	view, err := h.ctrl.Start(detached(r), created.ID, theme, size)
	if err != nil {
		// A session that never started is of no use to anyone.
		h.ctrl.Sessions().Delete(created.ID)
		writeSessionError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", "/v1/adventures/"+view.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *AdventureHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	theme, size, ok := h.parseStart(w, r)
	if !ok {
		return
	}
	view, err := h.ctrl.Start(detached(r), id, theme, size)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *AdventureHandler) handleGet(w http.ResponseWriter, id uuid.UUID) {
	view, err := h.ctrl.Get(id)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *AdventureHandler) handleReset(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	view, err := h.ctrl.Reset(r.Context(), id)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *AdventureHandler) handleChoose(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.ctrl.Choose(detached(r), id, req.Choice)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *AdventureHandler) handleChat(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req chat.ChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	resp, err := h.ctrl.Ask(detached(r), id, req.Message)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *AdventureHandler) handleImage(w http.ResponseWriter, id uuid.UUID) {
	img, err := h.ctrl.Image(id)
	if err != nil {
		writeSessionError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.Error("Failed to write image", "error", err, "session_id", id.String())
	}
}
