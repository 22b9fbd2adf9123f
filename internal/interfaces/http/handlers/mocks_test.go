package handlers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

type MockAssessment struct {
	mock.Mock
}

func (m *MockAssessment) Score(ctx context.Context, evalType string, answers json.RawMessage) (*maturity.Result, error) {
	args := m.Called(ctx, evalType, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*maturity.Result), args.Error(1)
}

func (m *MockAssessment) Create(ctx context.Context, actor common.Actor, in *assessment.CreateInput) (*assessment.EvaluationResult, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.EvaluationResult), args.Error(1)
}

func (m *MockAssessment) Get(ctx context.Context, actor common.Actor, id uuid.UUID) (*evaluation.Evaluation, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*evaluation.Evaluation), args.Error(1)
}

func (m *MockAssessment) Update(ctx context.Context, actor common.Actor, id uuid.UUID, in *assessment.UpdateInput) (*assessment.EvaluationResult, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.EvaluationResult), args.Error(1)
}

func (m *MockAssessment) List(ctx context.Context, actor common.Actor, in *assessment.ListInput) (*common.PageResponse[*evaluation.Evaluation], error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*common.PageResponse[*evaluation.Evaluation]), args.Error(1)
}

func (m *MockAssessment) Result(ctx context.Context, actor common.Actor, id uuid.UUID) (*assessment.EvaluationResult, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.EvaluationResult), args.Error(1)
}

func (m *MockAssessment) Dashboard(ctx context.Context, actor common.Actor) (*assessment.Dashboard, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assessment.Dashboard), args.Error(1)
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) Report(ctx context.Context, actor common.Actor, id uuid.UUID, f reporting.Format) (*reporting.Report, error) {
	args := m.Called(ctx, actor, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Report), args.Error(1)
}

func (m *MockReports) Archive(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReports) Archived(ctx context.Context, actor common.Actor, id uuid.UUID) (*reporting.Report, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Report), args.Error(1)
}

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Recommend(ctx context.Context, actor common.Actor, id uuid.UUID, limit int) (*matching.Recommendation, error) {
	args := m.Called(ctx, actor, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matching.Recommendation), args.Error(1)
}

func (m *MockMatcher) HandleEvaluationCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type stubQuizzes map[maturity.EvaluationType]*maturity.Quiz

func (s stubQuizzes) Get(t maturity.EvaluationType) (*maturity.Quiz, error) {
	if qz, ok := s[t]; ok {
		return qz, nil
	}
	return nil, quiz.ErrNotFound
}

var (
	_ assessment.Service = (*MockAssessment)(nil)
	_ reporting.Service  = (*MockReports)(nil)
	_ matching.Service   = (*MockMatcher)(nil)
	_ quiz.Provider      = stubQuizzes(nil)
)
