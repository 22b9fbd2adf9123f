package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

const evaluationColumns = `id, profile_id, type, title, answers, score, completed_at, created_at, updated_at`

type postgresEvaluationRepo struct {
	executor queryExecutor
	log      logging.Logger
	metrics  *prometheus.AppMetrics
}

// NewPostgresEvaluationRepo returns an evaluation.Repository on conn. metrics
// may be nil.
func NewPostgresEvaluationRepo(conn *postgres.Connection, log logging.Logger, metrics *prometheus.AppMetrics) evaluation.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresEvaluationRepo{executor: conn.DB(), log: log, metrics: metrics}
}

func (r *postgresEvaluationRepo) Create(ctx context.Context, e *evaluation.Evaluation) (err error) {
	defer func(start time.Time) { observe(r.metrics, "evaluation_create", start, err) }(time.Now())

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	answers, err := json.Marshal(e.Answers)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode answers")
	}

	query := `
		INSERT INTO evaluations (` + evaluationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	err = r.executor.QueryRowContext(ctx, query,
		e.ID, string(e.ProfileID), string(e.Type), e.Title, answers, e.Score,
		e.CompletedAt, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(err, apperrors.ErrCodeEvaluationAlreadyExists, "evaluation already exists")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create evaluation")
	}
	return nil
}

func (r *postgresEvaluationRepo) GetByID(ctx context.Context, id uuid.UUID) (_ *evaluation.Evaluation, err error) {
	defer func(start time.Time) { observe(r.metrics, "evaluation_get", start, err) }(time.Now())

	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`
	e, err := scanEvaluation(r.executor.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", evaluation.ErrNotFound, id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get evaluation")
	}
	return e, nil
}

func (r *postgresEvaluationRepo) Update(ctx context.Context, e *evaluation.Evaluation) (err error) {
	defer func(start time.Time) { observe(r.metrics, "evaluation_update", start, err) }(time.Now())

	answers, err := json.Marshal(e.Answers)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode answers")
	}

	query := `
		UPDATE evaluations SET
			title = $2, answers = $3, score = $4, completed_at = $5, updated_at = $6
		WHERE id = $1`
	res, err := r.executor.ExecContext(ctx, query,
		e.ID, e.Title, answers, e.Score, e.CompletedAt, e.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to update evaluation")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to update evaluation")
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", evaluation.ErrNotFound, e.ID)
	}
	return nil
}

func (r *postgresEvaluationRepo) ListByProfile(ctx context.Context, profileID common.ProfileID, limit, offset int) (_ []*evaluation.Evaluation, _ int64, err error) {
	defer func(start time.Time) { observe(r.metrics, "evaluation_list", start, err) }(time.Now())

	var total int64
	err = r.executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE profile_id = $1`, string(profileID),
	).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count evaluations")
	}

	query := `SELECT ` + evaluationColumns + ` FROM evaluations
		WHERE profile_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.executor.QueryContext(ctx, query, string(profileID), limit, offset)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to list evaluations")
	}
	defer rows.Close()

	var out []*evaluation.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan evaluation")
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate evaluations")
	}
	return out, total, nil
}

func (r *postgresEvaluationRepo) LatestByProfile(ctx context.Context, profileID common.ProfileID, t maturity.EvaluationType) (_ *evaluation.Evaluation, err error) {
	defer func(start time.Time) { observe(r.metrics, "evaluation_latest", start, err) }(time.Now())

	query := `SELECT ` + evaluationColumns + ` FROM evaluations
		WHERE profile_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1`
	e, err := scanEvaluation(r.executor.QueryRowContext(ctx, query, string(profileID), string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s evaluation for profile %s", evaluation.ErrNotFound, t, profileID)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get latest evaluation")
	}
	return e, nil
}

func scanEvaluation(row scanner) (*evaluation.Evaluation, error) {
	var (
		e           evaluation.Evaluation
		profileID   string
		evalType    string
		rawAnswers  []byte
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&e.ID, &profileID, &evalType, &e.Title, &rawAnswers, &e.Score,
		&completedAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.ProfileID = common.ProfileID(profileID)
	t, err := maturity.ParseEvaluationType(evalType)
	if err != nil {
		return nil, err
	}
	e.Type = t

	// Rows written by older clients may hold arrays or stringified JSON.
	answers, err := evaluation.NormalizeAnswers(rawAnswers)
	if err != nil {
		return nil, err
	}
	e.Answers = answers

	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		e.CompletedAt = &ts
	}
	return &e, nil
}
