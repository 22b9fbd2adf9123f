package handlers

import (
	"net/http"

	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

// SpecialistHandler serves specialist recommendations.
type SpecialistHandler struct {
	svc    matching.Service
	logger logging.Logger
}

func NewSpecialistHandler(svc matching.Service, logger logging.Logger) *SpecialistHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SpecialistHandler{svc: svc, logger: logger}
}

// Recommend handles GET /api/v1/evaluations/{id}/specialists?limit=.
func (h *SpecialistHandler) Recommend(w http.ResponseWriter, r *http.Request) {
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
	rec, err := h.svc.Recommend(r.Context(), actor, id, intQuery(r, "limit", matching.DefaultLimit))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
