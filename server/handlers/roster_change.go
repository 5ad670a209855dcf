package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/rosterd/logging"
)

// rosterChangeHandler serves the signup and unregister endpoints. The activity
// comes from the {name} path segment and the student from the email query
// parameter.
type rosterChangeHandler struct {
	logger *slog.Logger
	op     string
	apply  func(activity, email string) (string, error)
}

// NewSignupHandler handles POST /activities/{name}/signup.
func NewSignupHandler(logger *slog.Logger, editor RosterEditor) http.Handler {
	return &rosterChangeHandler{
		logger: logger,
		op:     "signup",
		apply:  editor.Signup,
	}
}

// NewUnregisterHandler handles DELETE /activities/{name}/unregister.
func NewUnregisterHandler(logger *slog.Logger, editor RosterEditor) http.Handler {
	return &rosterChangeHandler{
		logger: logger,
		op:     "unregister",
		apply:  editor.Unregister,
	}
}

// ServeHTTP implements http.Handler.
func (h *rosterChangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)
	activity := r.PathValue("name")

	query := r.URL.Query()
	if !query.Has("email") {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Detail: "email query parameter is required",
		})
		return
	}
	email := query.Get("email")

	msg, err := h.apply(activity, email)
	if err != nil {
		status := rosterErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("roster change failed", "op", h.op, "activity", activity, "error", err)
		} else {
			logger.Info("roster change rejected", "op", h.op, "activity", activity, "email", email, "reason", err)
		}
		writeJSON(w, status, ErrorResponse{Detail: err.Error()})
		return
	}

	logger.Info("roster changed", "op", h.op, "activity", activity, "email", email)
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}
