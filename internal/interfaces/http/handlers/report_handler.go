package handlers

import (
	"mime"
	"net/http"

	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

// ReportHandler serves rendered evaluation reports.
type ReportHandler struct {
	svc    reporting.Service
	logger logging.Logger
}

func NewReportHandler(svc reporting.Service, logger logging.Logger) *ReportHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Get handles GET /api/v1/evaluations/{id}/report?format=html|markdown.
// ?download=1 sends the report as an attachment.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	format, err := reporting.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rep, err := h.svc.Report(r.Context(), actor, id, format)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.write(w, r, rep)
}

// Archived handles GET /api/v1/evaluations/{id}/report/archived.
func (h *ReportHandler) Archived(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	rep, err := h.svc.Archived(r.Context(), actor, id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.write(w, r, rep)
}

func (h *ReportHandler) write(w http.ResponseWriter, r *http.Request, rep *reporting.Report) {
	w.Header().Set("Content-Type", rep.ContentType)
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rep.FileName}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rep.Content))
}
