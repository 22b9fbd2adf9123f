package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// EvaluationHandler serves scoring and the evaluation resource.
type EvaluationHandler struct {
	svc    assessment.Service
	logger logging.Logger
}

func NewEvaluationHandler(svc assessment.Service, logger logging.Logger) *EvaluationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EvaluationHandler{svc: svc, logger: logger}
}

// ScoreRequest is the body of POST /api/v1/score.
type ScoreRequest struct {
	Type    string          `json:"type"`
	Answers json.RawMessage `json:"answers"`
}

// Score handles POST /api/v1/score: a stateless preview.
func (h *EvaluationHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	res, err := h.svc.Score(r.Context(), req.Type, req.Answers)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Create handles POST /api/v1/evaluations.
func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	var in assessment.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	res, err := h.svc.Create(r.Context(), actor, &in)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/evaluations/"+res.Evaluation.ID.String())
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /api/v1/evaluations?page=&page_size=&profile_id=.
func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	page, err := h.svc.List(r.Context(), actor, &assessment.ListInput{
		ProfileID: common.ProfileID(r.URL.Query().Get("profile_id")),
		Page:      intQuery(r, "page", 1),
		PageSize:  intQuery(r, "page_size", assessment.DefaultPageSize),
	})
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/v1/evaluations/{id}.
func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	e, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Update handles PATCH /api/v1/evaluations/{id}.
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var in assessment.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	res, err := h.svc.Update(r.Context(), actor, id, &in)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Result handles GET /api/v1/evaluations/{id}/result.
func (h *EvaluationHandler) Result(w http.ResponseWriter, r *http.Request) {
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
	res, err := h.svc.Result(r.Context(), actor, id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *EvaluationHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	d, err := h.svc.Dashboard(r.Context(), actor)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
