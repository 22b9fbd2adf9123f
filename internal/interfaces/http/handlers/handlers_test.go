package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/middleware"
	"github.com/turtacn/SIMPLE/internal/testutil"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

var owner = common.Actor{ProfileID: "p-1", Role: common.RoleUser}

type call struct {
	method, pattern, target, body string
	actor                         *common.Actor
}

func serve(h http.HandlerFunc, c call) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(c.method, c.pattern, h)
	req := httptest.NewRequest(c.method, c.target, strings.NewReader(c.body))
	if c.actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *c.actor))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func sampleResult() *maturity.Result {
	return &maturity.Result{
		Type:              maturity.TypeInitial,
		Score:             20,
		MaxScore:          45,
		Percentage:        44,
		Level:             maturity.MaturityLevel{Level: "Nivel 3", Tier: 3, Label: "Definido"},
		Categories:        []maturity.CategoryScore{{Category: "Red", Score: 2, MaxScore: 9}},
		Recommendations:   []maturity.Recommendation{},
		WeakestCategories: []string{"Red"},
	}
}

func sampleEvaluation() *evaluation.Evaluation {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &evaluation.Evaluation{
		ID:          uuid.New(),
		ProfileID:   owner.ProfileID,
		Type:        maturity.TypeInitial,
		Title:       "Evaluación inicial",
		Answers:     maturity.Answers{"q1": 3},
		Score:       20,
		CompletedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoring and evaluations
// ─────────────────────────────────────────────────────────────────────────────

func TestEvaluationHandler_Score(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	svc.On("Score", mock.Anything, "initial", mock.MatchedBy(func(raw json.RawMessage) bool {
		return string(raw) == `{"q1":3}`
	})).Return(sampleResult(), nil)

	w := serve(h.Score, call{method: http.MethodPost, pattern: "/score", target: "/score", body: `{"type":"initial","answers":{"q1":3}}`})

	require.Equal(t, http.StatusOK, w.Code)
	var got maturity.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 20, got.Score)
	assert.Equal(t, "Nivel 3", got.Level.Level)
}

func TestEvaluationHandler_ScoreErrors(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	svc.On("Score", mock.Anything, "weird", mock.Anything).
		Return(nil, fmt.Errorf("%w: %q", maturity.ErrInvalidEvaluationType, "weird"))

	w := serve(h.Score, call{method: http.MethodPost, pattern: "/score", target: "/score", body: `{"type":"weird"}`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, string(errors.ErrCodeEvaluationTypeInvalid), body.Code)
	assert.Equal(t, `invalid evaluation type: "weird"`, body.Message)

	w = serve(h.Score, call{method: http.MethodPost, pattern: "/score", target: "/score", body: `{"type":`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeBadRequest), errorBody(t, w).Code)

	w = serve(h.Score, call{method: http.MethodPost, pattern: "/score", target: "/score"})
	assert.Equal(t, "request body is required", errorBody(t, w).Message)
}

func TestEvaluationHandler_Create(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	e := sampleEvaluation()
	svc.On("Create", mock.Anything, owner, mock.MatchedBy(func(in *assessment.CreateInput) bool {
		return in.Type == "INITIAL" && in.Title == "Mi empresa"
	})).Return(&assessment.EvaluationResult{Evaluation: e, Result: sampleResult()}, nil)

	w := serve(h.Create, call{
		method: http.MethodPost, pattern: "/evaluations", target: "/evaluations",
		body: `{"type":"INITIAL","title":"Mi empresa","answers":{"q1":3}}`, actor: &owner,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/evaluations/"+e.ID.String(), w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), `"weakestCategories":["Red"]`)
}

func TestEvaluationHandler_RequiresIdentity(t *testing.T) {
	h := NewEvaluationHandler(new(MockAssessment), nil)
	w := serve(h.Create, call{method: http.MethodPost, pattern: "/evaluations", target: "/evaluations", body: `{}`})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEvaluationHandler_Get(t *testing.T) {
	svc := new(MockAssessment)
	log := testutil.NewMockLogger()
	h := NewEvaluationHandler(svc, log)
	e := sampleEvaluation()
	forbidden, broken := uuid.New(), uuid.New()
	svc.On("Get", mock.Anything, owner, e.ID).Return(e, nil)
	svc.On("Get", mock.Anything, owner, forbidden).Return(nil, fmt.Errorf("%w: %s", evaluation.ErrForbidden, forbidden))
	svc.On("Get", mock.Anything, owner, broken).Return(nil, errors.Wrap(fmt.Errorf("conn reset"), errors.ErrCodeDatabaseError, "query failed"))

	get := func(id string) *httptest.ResponseRecorder {
		return serve(h.Get, call{method: http.MethodGet, pattern: "/evaluations/{id}", target: "/evaluations/" + id, actor: &owner})
	}

	w := get(e.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Evaluación inicial"`)

	w = get(forbidden.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(errors.ErrCodeEvaluationForbidden), errorBody(t, w).Code)

	w = get(broken.String())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "database error", errorBody(t, w).Message, "server errors are masked")
	assert.True(t, log.HasMessage("error", "request failed"))

	w = get("nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluationHandler_List(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	page := common.NewPageResponse([]*evaluation.Evaluation{sampleEvaluation()}, 1, common.Pagination{Page: 2, PageSize: 5})
	svc.On("List", mock.Anything, owner, &assessment.ListInput{ProfileID: "p-7", Page: 2, PageSize: 5}).Return(&page, nil)

	w := serve(h.List, call{method: http.MethodGet, pattern: "/evaluations", target: "/evaluations?page=2&page_size=5&profile_id=p-7", actor: &owner})

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestEvaluationHandler_ListDefaults(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	page := common.NewPageResponse([]*evaluation.Evaluation{}, 0, common.Pagination{Page: 1, PageSize: 20})
	svc.On("List", mock.Anything, owner, &assessment.ListInput{Page: 1, PageSize: assessment.DefaultPageSize}).Return(&page, nil)

	w := serve(h.List, call{method: http.MethodGet, pattern: "/evaluations", target: "/evaluations?page=x", actor: &owner})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEvaluationHandler_Update(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	e := sampleEvaluation()
	svc.On("Update", mock.Anything, owner, e.ID, mock.MatchedBy(func(in *assessment.UpdateInput) bool {
		return in.Title != nil && *in.Title == "Nuevo" && len(in.Answers) == 0
	})).Return(&assessment.EvaluationResult{Evaluation: e, Result: sampleResult()}, nil)

	w := serve(h.Update, call{method: http.MethodPatch, pattern: "/evaluations/{id}", target: "/evaluations/" + e.ID.String(), body: `{"title":"Nuevo"}`, actor: &owner})
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestEvaluationHandler_ResultAndDashboard(t *testing.T) {
	svc := new(MockAssessment)
	h := NewEvaluationHandler(svc, nil)
	e := sampleEvaluation()
	er := &assessment.EvaluationResult{Evaluation: e, Result: sampleResult()}
	svc.On("Result", mock.Anything, owner, e.ID).Return(er, nil)
	svc.On("Dashboard", mock.Anything, owner).Return(&assessment.Dashboard{
		ProfileID: owner.ProfileID,
		Latest:    map[maturity.EvaluationType]*assessment.EvaluationResult{maturity.TypeInitial: er},
	}, nil)

	w := serve(h.Result, call{method: http.MethodGet, pattern: "/evaluations/{id}/result", target: "/evaluations/" + e.ID.String() + "/result", actor: &owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"percentage":44`)

	w = serve(h.Dashboard, call{method: http.MethodGet, pattern: "/dashboard", target: "/dashboard", actor: &owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"INITIAL"`)
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports and specialists
// ─────────────────────────────────────────────────────────────────────────────

func TestReportHandler_Get(t *testing.T) {
	svc := new(MockReports)
	h := NewReportHandler(svc, nil)
	id := uuid.New()
	svc.On("Report", mock.Anything, owner, id, reporting.FormatMarkdown).Return(&reporting.Report{
		EvaluationID: id,
		Format:       reporting.FormatMarkdown,
		ContentType:  reporting.FormatMarkdown.ContentType(),
		FileName:     "informe-abc.md",
		Content:      "# Informe",
	}, nil)

	w := serve(h.Get, call{method: http.MethodGet, pattern: "/evaluations/{id}/report", target: "/evaluations/" + id.String() + "/report?format=md&download=1", actor: &owner})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=informe-abc.md", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "# Informe", w.Body.String())
}

func TestReportHandler_BadFormat(t *testing.T) {
	h := NewReportHandler(new(MockReports), nil)
	w := serve(h.Get, call{method: http.MethodGet, pattern: "/evaluations/{id}/report", target: "/evaluations/" + uuid.NewString() + "/report?format=pdf", actor: &owner})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(errors.ErrCodeValidation), errorBody(t, w).Code)
}

func TestReportHandler_ArchivedMissing(t *testing.T) {
	svc := new(MockReports)
	h := NewReportHandler(svc, nil)
	id := uuid.New()
	svc.On("Archived", mock.Anything, owner, id).Return(nil, fmt.Errorf("%w: %s", evaluation.ErrReportNotFound, id))

	w := serve(h.Archived, call{method: http.MethodGet, pattern: "/evaluations/{id}/report/archived", target: "/evaluations/" + id.String() + "/report/archived", actor: &owner})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestSpecialistHandler_Recommend(t *testing.T) {
	svc := new(MockMatcher)
	h := NewSpecialistHandler(svc, nil)
	id := uuid.New()
	svc.On("Recommend", mock.Anything, owner, id, 5).Return(&matching.Recommendation{
		EvaluationID:      id,
		WeakestCategories: []string{"Red"},
		Suggestions: []specialist.Suggestion{{
			Specialist: &specialist.Specialist{ID: "s1", Name: "Ana", Expertise: []string{"Red"}, Rating: 4.8, Available: true},
			Covered:    []string{"Red"},
			Score:      2,
		}},
	}, nil)
	svc.On("Recommend", mock.Anything, owner, id, matching.DefaultLimit).Return(&matching.Recommendation{EvaluationID: id}, nil)

	w := serve(h.Recommend, call{method: http.MethodGet, pattern: "/evaluations/{id}/specialists", target: "/evaluations/" + id.String() + "/specialists?limit=5", actor: &owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ana"`)

	w = serve(h.Recommend, call{method: http.MethodGet, pattern: "/evaluations/{id}/specialists", target: "/evaluations/" + id.String() + "/specialists", actor: &owner})
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

// ─────────────────────────────────────────────────────────────────────────────
// Quizzes and health
// ─────────────────────────────────────────────────────────────────────────────

func TestQuizHandler_Get(t *testing.T) {
	qz := &maturity.Quiz{Type: maturity.TypeInitial, Title: "Inicial", Questions: []maturity.Question{
		{ID: "q1", Text: "¿Copias?", Options: []maturity.Option{{Text: "No", Value: 0}, {Text: "Sí", Value: 3}}},
	}}
	h := NewQuizHandler(stubQuizzes{maturity.TypeInitial: qz}, nil)
	get := func(typ string) *httptest.ResponseRecorder {
		return serve(h.Get, call{method: http.MethodGet, pattern: "/quizzes/{type}", target: "/quizzes/" + typ})
	}

	w := get("initial")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "INITIAL", got["type"])
	assert.EqualValues(t, 3, got["maxScore"])

	assert.Equal(t, http.StatusNotFound, get("advanced").Code)
	assert.Equal(t, http.StatusBadRequest, get("expert").Code)
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc{Component: "postgres", Fn: func(context.Context) error { return nil }}
	down := CheckFunc{Component: "redis", Fn: func(context.Context) error { return fmt.Errorf("connection refused") }}

	w := httptest.NewRecorder()
	NewHealthHandler("1.0.0", down).Liveness(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.0.0"`)

	w = httptest.NewRecorder()
	NewHealthHandler("1.0.0", ok).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	NewHealthHandler("1.0.0", ok, down).Readiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "healthy", body.Components["postgres"].Status)
	assert.Equal(t, "connection refused", body.Components["redis"].Error)
}
