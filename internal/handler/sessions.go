// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/medassist/internal/middleware"
	"github.com/capitalize-ai/medassist/internal/model"
	"github.com/capitalize-ai/medassist/internal/service"
	"github.com/capitalize-ai/medassist/pkg/logger"
)

// SessionHandler handles session endpoints.
type SessionHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *service.ConversationService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

// Locales handles GET /api/v1/locales
func (h *SessionHandler) Locales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.NewLocalesResponse(h.service.Locales()))
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Create(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewSessionView(sess, h.service.Locales()))
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewSessionView(sess, h.service.Locales()))
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.End(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SelectLocale handles PUT /api/v1/sessions/{id}/locale
func (h *SessionHandler) SelectLocale(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req model.SelectLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateLocaleName(req.Locale); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.service.SelectLocale(r.Context(), id, req.Locale)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewSessionView(sess, h.service.Locales()))
}

// ChangeLocale handles DELETE /api/v1/sessions/{id}/locale
func (h *SessionHandler) ChangeLocale(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.ChangeLocale(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewSessionView(sess, h.service.Locales()))
}

// Send handles POST /api/v1/sessions/{id}/messages
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Send(r.Context(), id, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := model.SendMessageResponse{
		Reply:   res.Reply,
		Session: model.NewSessionView(res.Session, h.service.Locales()),
	}
	if res.Failure != nil {
		resp.FailureClass = string(res.Failure.Class)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error("request failed", zap.Error(err))
	}
	writeError(w, status, msg)
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
