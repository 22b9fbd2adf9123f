package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/SIMPLE/pkg/errors"
)

type postgresReportStore struct {
	executor queryExecutor
	metrics  *prometheus.AppMetrics
	now      func() time.Time
}

func NewPostgresReportStore(conn *postgres.Connection, metrics *prometheus.AppMetrics) evaluation.ReportStore {
	return &postgresReportStore{executor: conn.DB(), metrics: metrics, now: time.Now}
}

// SaveReport keeps only the latest rendering per evaluation.
func (r *postgresReportStore) SaveReport(ctx context.Context, evaluationID uuid.UUID, html string) (err error) {
	defer func(start time.Time) { observe(r.metrics, "report_save", start, err) }(time.Now())

	query := `
		INSERT INTO evaluation_reports (evaluation_id, html, rendered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (evaluation_id) DO UPDATE SET html = EXCLUDED.html, rendered_at = EXCLUDED.rendered_at`
	_, err = r.executor.ExecContext(ctx, query, evaluationID, html, r.now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", evaluation.ErrNotFound, evaluationID)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save report")
	}
	return nil
}

func (r *postgresReportStore) GetReport(ctx context.Context, evaluationID uuid.UUID) (_ string, err error) {
	defer func(start time.Time) { observe(r.metrics, "report_get", start, err) }(time.Now())

	var html string
	err = r.executor.QueryRowContext(ctx,
		`SELECT html FROM evaluation_reports WHERE evaluation_id = $1`, evaluationID,
	).Scan(&html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", evaluation.ErrReportNotFound, evaluationID)
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get report")
	}
	return html, nil
}
