package handlers

import (
	"log/slog"
	"net/http"
)

// LogLevelResponse reports the current log level.
type LogLevelResponse struct {
	Level string `json:"level"`
}

// LogLevelHandler serves the log level on GET and changes it on PUT
// with a level query parameter (debug, info, warn, error).
type LogLevelHandler struct {
	controller LogLevelController
}

// NewLogLevelHandler creates a new LogLevelHandler.
func NewLogLevelHandler(controller LogLevelController) *LogLevelHandler {
	return &LogLevelHandler{
		controller: controller,
	}
}

// ServeHTTP implements http.Handler.
func (h *LogLevelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		query := r.URL.Query()
		if !query.Has("level") {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "level query parameter is required"})
			return
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(query.Get("level"))); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
			return
		}
		if err := h.controller.SetLogLevel(level); err != nil {
			writeJSON(w, http.StatusConflict, ErrorResponse{Detail: err.Error()})
			return
		}
	}

	level, err := h.controller.LogLevel()
	if err != nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, LogLevelResponse{Level: level.String()})
}
