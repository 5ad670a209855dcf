package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nomis52/rosterd/roster"
)

// ErrorResponse is returned when a request fails.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is returned by successful roster changes.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// rosterErrorStatus maps a roster error to an HTTP status code.
func rosterErrorStatus(err error) int {
	switch {
	case roster.IsNotFound(err):
		return http.StatusNotFound
	case roster.IsInvalidOperation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
