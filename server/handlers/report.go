package handlers

import "net/http"

// ReportHandler serves the current roster summary.
type ReportHandler struct {
	provider ReportProvider
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(provider ReportProvider) *ReportHandler {
	return &ReportHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Summarize())
}
