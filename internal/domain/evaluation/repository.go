package evaluation

import (
	"context"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// ErrReportNotFound is returned until the worker has rendered a report.
var ErrReportNotFound = errors.New(errors.ErrCodeNotFound, "report not rendered yet")

// Repository persists evaluations. There is intentionally no Delete: an
// evaluation is never removed in normal operation.
type Repository interface {
	Create(ctx context.Context, e *Evaluation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	Update(ctx context.Context, e *Evaluation) error
	ListByProfile(ctx context.Context, profileID common.ProfileID, limit, offset int) ([]*Evaluation, int64, error)
	LatestByProfile(ctx context.Context, profileID common.ProfileID, t maturity.EvaluationType) (*Evaluation, error)
}

// ReportStore keeps the rendered report of the latest scoring of an evaluation.
type ReportStore interface {
	SaveReport(ctx context.Context, evaluationID uuid.UUID, html string) error
	GetReport(ctx context.Context, evaluationID uuid.UUID) (string, error)
}
