package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/application/assessment"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// SystemActor is used by background archiving, which runs outside any
// caller's identity.
var SystemActor = common.Actor{ProfileID: "system", Role: common.RoleAdmin}

// Evaluations is the part of the assessment service reports are built from.
type Evaluations interface {
	Get(ctx context.Context, actor common.Actor, id uuid.UUID) (*evaluation.Evaluation, error)
	Result(ctx context.Context, actor common.Actor, id uuid.UUID) (*assessment.EvaluationResult, error)
}

// Report is a rendered report ready to be served.
type Report struct {
	EvaluationID uuid.UUID `json:"evaluationId"`
	Format       Format    `json:"format"`
	ContentType  string    `json:"contentType"`
	FileName     string    `json:"fileName"`
	Content      string    `json:"content"`
	RenderedAt   time.Time `json:"renderedAt"`
}

// Service renders reports on demand and archives the HTML copy.
type Service interface {
	Report(ctx context.Context, actor common.Actor, id uuid.UUID, format Format) (*Report, error)
	// Archive renders the HTML report and stores it, replacing any previous copy.
	Archive(ctx context.Context, id uuid.UUID) error
	Archived(ctx context.Context, actor common.Actor, id uuid.UUID) (*Report, error)
}

type serviceImpl struct {
	evaluations Evaluations
	store       evaluation.ReportStore
	renderer    *Renderer
	logger      logging.Logger
	metrics     *prometheus.AppMetrics
}

// NewService creates the reporting service. store may be nil when archiving
// is not available, in which case Archive and Archived fail.
func NewService(evaluations Evaluations, store evaluation.ReportStore, renderer *Renderer, logger logging.Logger, metrics *prometheus.AppMetrics) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		evaluations: evaluations,
		store:       store,
		renderer:    renderer,
		logger:      logger,
		metrics:     metrics,
	}
}

func (s *serviceImpl) Report(ctx context.Context, actor common.Actor, id uuid.UUID, format Format) (*Report, error) {
	er, err := s.evaluations.Result(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.Render(NewReportData(er.Evaluation, er.Result), format)
	if err != nil {
		return nil, err
	}
	prometheus.RecordReportRendered(s.metrics, string(format))
	return newReport(id, format, content), nil
}

func (s *serviceImpl) Archive(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return fmt.Errorf("%w: no report store configured", ErrRenderFailed)
	}
	r, err := s.Report(ctx, SystemActor, id, FormatHTML)
	if err != nil {
		return err
	}
	if err := s.store.SaveReport(ctx, id, r.Content); err != nil {
		return err
	}
	s.logger.Info("report archived",
		logging.String(logging.KeyEvaluationID, id.String()),
		logging.Int("bytes", len(r.Content)))
	return nil
}

func (s *serviceImpl) Archived(ctx context.Context, actor common.Actor, id uuid.UUID) (*Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", evaluation.ErrReportNotFound, id)
	}
	// Authorise against the evaluation before touching the archive.
	if _, err := s.evaluations.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	html, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return newReport(id, FormatHTML, html), nil
}

func newReport(id uuid.UUID, format Format, content string) *Report {
	ext := "html"
	if format == FormatMarkdown {
		ext = "md"
	}
	return &Report{
		EvaluationID: id,
		Format:       format,
		ContentType:  format.ContentType(),
		FileName:     fmt.Sprintf("informe-%s.%s", strings.SplitN(id.String(), "-", 2)[0], ext),
		Content:      content,
		RenderedAt:   time.Now().UTC(),
	}
}
