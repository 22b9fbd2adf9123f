// Package assessment is the application service behind evaluations: it
// normalises incoming answers, scores them with the maturity engine, persists
// the evaluation and announces every (re)scoring as an event. Category
// breakdowns and maturity levels are recomputed on every read.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// Default and maximum page sizes for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// EventPublisher announces scored evaluations.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error
}

// Service defines the evaluation use cases.
type Service interface {
	// Score is a stateless preview: nothing is stored or published.
	Score(ctx context.Context, evalType string, answers json.RawMessage) (*maturity.Result, error)
	Create(ctx context.Context, actor common.Actor, input *CreateInput) (*EvaluationResult, error)
	Get(ctx context.Context, actor common.Actor, id uuid.UUID) (*evaluation.Evaluation, error)
	Update(ctx context.Context, actor common.Actor, id uuid.UUID, input *UpdateInput) (*EvaluationResult, error)
	List(ctx context.Context, actor common.Actor, input *ListInput) (*common.PageResponse[*evaluation.Evaluation], error)
	Result(ctx context.Context, actor common.Actor, id uuid.UUID) (*EvaluationResult, error)
	Dashboard(ctx context.Context, actor common.Actor) (*Dashboard, error)
}

// CreateInput contains input for creating an evaluation.
type CreateInput struct {
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Answers json.RawMessage `json:"answers"`
}

// UpdateInput contains input for updating an evaluation. Nil fields are left
// unchanged.
type UpdateInput struct {
	Title   *string         `json:"title"`
	Answers json.RawMessage `json:"answers"`
}

// ListInput contains input for listing evaluations. ProfileID is honoured for
// admins only; everyone else lists their own.
type ListInput struct {
	ProfileID common.ProfileID
	Page      int
	PageSize  int
}

// EvaluationResult pairs a stored evaluation with its recomputed result.
type EvaluationResult struct {
	Evaluation *evaluation.Evaluation `json:"evaluation"`
	Result     *maturity.Result       `json:"result"`
}

// Dashboard holds the latest result per evaluation type. Types the profile
// has never completed are absent.
type Dashboard struct {
	ProfileID common.ProfileID                              `json:"profileId"`
	Latest    map[maturity.EvaluationType]*EvaluationResult `json:"latest"`
}

type serviceImpl struct {
	repo      evaluation.Repository
	quizzes   quiz.Provider
	engine    *maturity.Engine
	publisher EventPublisher
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	now       func() time.Time
}

// NewService creates the assessment service. publisher and metrics may be nil.
func NewService(repo evaluation.Repository, quizzes quiz.Provider, engine *maturity.Engine, publisher EventPublisher, logger logging.Logger, metrics *prometheus.AppMetrics) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		repo:      repo,
		quizzes:   quizzes,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *serviceImpl) Score(ctx context.Context, evalType string, raw json.RawMessage) (*maturity.Result, error) {
	t, err := maturity.ParseEvaluationType(evalType)
	if err != nil {
		return nil, err
	}
	answers, err := evaluation.NormalizeAnswers(raw)
	if err != nil {
		return nil, err
	}
	return s.score(t, answers)
}

func (s *serviceImpl) Create(ctx context.Context, actor common.Actor, input *CreateInput) (*EvaluationResult, error) {
	if input == nil {
		return nil, errors.Validation("request body is required")
	}
	t, err := maturity.ParseEvaluationType(input.Type)
	if err != nil {
		return nil, err
	}
	answers, err := evaluation.NormalizeAnswers(input.Answers)
	if err != nil {
		return nil, err
	}
	e, err := evaluation.NewEvaluation(actor.ProfileID, t, input.Title, answers)
	if err != nil {
		return nil, err
	}

	res, err := s.score(t, answers)
	if err != nil {
		return nil, err
	}
	e.Complete(res.Score, s.now())

	err = s.repo.Create(ctx, e)
	prometheus.RecordEvaluationStored(s.metrics, "create", err)
	if err != nil {
		return nil, err
	}
	prometheus.RecordEvaluationScored(s.metrics, t.String(), res.Level.Tier, res.Percentage)

	s.logger.Info("evaluation created",
		logging.String(logging.KeyEvaluationID, e.ID.String()),
		logging.String(logging.KeyProfileID, string(e.ProfileID)),
		logging.String(logging.KeyEvalType, t.String()),
		logging.Int("score", res.Score))

	s.publish(ctx, e, res)
	return &EvaluationResult{Evaluation: e, Result: res}, nil
}

func (s *serviceImpl) Get(ctx context.Context, actor common.Actor, id uuid.UUID) (*evaluation.Evaluation, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.CanView(actor) {
		return nil, fmt.Errorf("%w: %s", evaluation.ErrForbidden, id)
	}
	return e, nil
}

func (s *serviceImpl) Update(ctx context.Context, actor common.Actor, id uuid.UUID, input *UpdateInput) (*EvaluationResult, error) {
	if input == nil {
		return nil, errors.Validation("request body is required")
	}
	fields := evaluation.UpdateFields{Title: input.Title}
	if len(input.Answers) > 0 && string(input.Answers) != "null" {
		answers, err := evaluation.NormalizeAnswers(input.Answers)
		if err != nil {
			return nil, err
		}
		fields.Answers = answers
	}
	if fields.IsEmpty() {
		return nil, errors.Validation("nothing to update: title or answers required")
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.CanEdit(actor) {
		return nil, fmt.Errorf("%w: %s", evaluation.ErrForbidden, id)
	}

	now := s.now()
	changed, err := e.ApplyUpdate(fields, now)
	if err != nil {
		return nil, err
	}
	res, err := s.score(e.Type, e.Answers)
	if err != nil {
		return nil, err
	}
	if changed {
		e.Complete(res.Score, now)
	}

	err = s.repo.Update(ctx, e)
	prometheus.RecordEvaluationStored(s.metrics, "update", err)
	if err != nil {
		return nil, err
	}
	if changed {
		prometheus.RecordEvaluationScored(s.metrics, e.Type.String(), res.Level.Tier, res.Percentage)
	}

	s.logger.Info("evaluation updated",
		logging.String(logging.KeyEvaluationID, e.ID.String()),
		logging.Bool("rescored", changed))

	if changed {
		s.publish(ctx, e, res)
	}
	return &EvaluationResult{Evaluation: e, Result: res}, nil
}

func (s *serviceImpl) List(ctx context.Context, actor common.Actor, input *ListInput) (*common.PageResponse[*evaluation.Evaluation], error) {
	if input == nil {
		input = &ListInput{}
	}
	profileID := actor.ProfileID
	if input.ProfileID != "" && input.ProfileID != actor.ProfileID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: cannot list evaluations of %s", evaluation.ErrForbidden, input.ProfileID)
		}
		profileID = input.ProfileID
	}
	if profileID == "" {
		return nil, evaluation.ErrInvalidProfile
	}

	page := common.Pagination{Page: input.Page, PageSize: input.PageSize}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = DefaultPageSize
	}
	if page.PageSize > MaxPageSize {
		page.PageSize = MaxPageSize
	}

	items, total, err := s.repo.ListByProfile(ctx, profileID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	resp := common.NewPageResponse(items, total, page)
	return &resp, nil
}

func (s *serviceImpl) Result(ctx context.Context, actor common.Actor, id uuid.UUID) (*EvaluationResult, error) {
	e, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	res, err := s.score(e.Type, e.Answers)
	if err != nil {
		return nil, err
	}
	return &EvaluationResult{Evaluation: e, Result: res}, nil
}

func (s *serviceImpl) Dashboard(ctx context.Context, actor common.Actor) (*Dashboard, error) {
	if actor.ProfileID == "" {
		return nil, evaluation.ErrInvalidProfile
	}
	d := &Dashboard{
		ProfileID: actor.ProfileID,
		Latest:    make(map[maturity.EvaluationType]*EvaluationResult, 2),
	}
	for _, t := range []maturity.EvaluationType{maturity.TypeInitial, maturity.TypeAdvanced} {
		e, err := s.repo.LatestByProfile(ctx, actor.ProfileID, t)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err := s.score(t, e.Answers)
		if err != nil {
			return nil, err
		}
		d.Latest[t] = &EvaluationResult{Evaluation: e, Result: res}
	}
	return d, nil
}

// score runs the engine against the current quiz of t. Reads call it too,
// so the scored counter is bumped by the writers only.
func (s *serviceImpl) score(t maturity.EvaluationType, answers maturity.Answers) (*maturity.Result, error) {
	qz, err := s.quizzes.Get(t)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Score(qz, answers, t)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScoringFailed, "failed to score evaluation").WithDetail(t.String())
	}
	return res, nil
}

func (s *serviceImpl) publish(ctx context.Context, e *evaluation.Evaluation, res *maturity.Result) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCompleted(ctx, evaluation.NewCompletedEvent(e, res)); err != nil {
		prometheus.RecordError(s.metrics, "assessment", string(errors.GetCode(err)))
		s.logger.Error("failed to publish evaluation.completed",
			logging.String(logging.KeyEvaluationID, e.ID.String()),
			logging.Err(err))
	}
}
