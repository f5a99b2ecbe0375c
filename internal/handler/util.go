package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capitalize-ai/medassist/internal/conversation"
	"github.com/capitalize-ai/medassist/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, service.ErrPending):
		return http.StatusConflict, "a request is already pending for this session"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "session was modified concurrently"
	case errors.Is(err, conversation.ErrInvalidPhase):
		return http.StatusConflict, "operation not valid in current phase"
	case errors.Is(err, conversation.ErrUnknownLocale):
		return http.StatusBadRequest, "unknown locale"
	case errors.Is(err, conversation.ErrEmptyText):
		return http.StatusBadRequest, "content cannot be empty"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
