package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/SIMPLE/pkg/errors"
)

const specialistColumns = `id, name, email, expertise, rating, available`

// SpecialistRepo implements specialist.Repository and the directory upsert.
type SpecialistRepo struct {
	executor queryExecutor
	log      logging.Logger
	metrics  *prometheus.AppMetrics
}

func NewPostgresSpecialistRepo(conn *postgres.Connection, log logging.Logger, metrics *prometheus.AppMetrics) *SpecialistRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SpecialistRepo{executor: conn.DB(), log: log, metrics: metrics}
}

// ListByExpertise compares folded keys written by Upsert and returns the
// candidates in the order specialist.Match ranks them: covered categories
// plus a bonus for the first (weakest) one, then rating and name. The limit
// therefore never cuts a better-covering specialist in favour of a
// better-rated one.
func (r *SpecialistRepo) ListByExpertise(ctx context.Context, categories []string, limit int) (_ []*specialist.Specialist, err error) {
	defer func(start time.Time) { observe(r.metrics, "specialist_list", start, err) }(time.Now())

	keys := specialist.CategoryKeys(categories)
	if len(keys) == 0 {
		return nil, nil
	}
	wanted, err := json.Marshal(keys)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode categories")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + specialistColumns + ` FROM (
			SELECT s.*,
				(SELECT count(*) FROM jsonb_array_elements_text($1::jsonb) AS w(cat)
				  WHERE s.expertise_keys @> jsonb_build_array(w.cat)) AS covered,
				(s.expertise_keys @> jsonb_build_array($1::jsonb ->> 0)) AS covers_weakest
			FROM specialists s
			WHERE s.available
		) m
		WHERE m.covered > 0
		ORDER BY m.covered + CASE WHEN m.covers_weakest THEN 1 ELSE 0 END DESC, m.rating DESC, m.name
		LIMIT $2`
	rows, err := r.executor.QueryContext(ctx, query, string(wanted), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSpecialistLookupFailed, "failed to list specialists")
	}
	defer rows.Close()

	var out []*specialist.Specialist
	for rows.Next() {
		s, err := scanSpecialist(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSpecialistLookupFailed, "failed to scan specialist")
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSpecialistLookupFailed, "failed to iterate specialists")
	}
	return out, nil
}

func (r *SpecialistRepo) GetByID(ctx context.Context, id string) (_ *specialist.Specialist, err error) {
	defer func(start time.Time) { observe(r.metrics, "specialist_get", start, err) }(time.Now())

	query := `SELECT ` + specialistColumns + ` FROM specialists WHERE id = $1`
	s, err := scanSpecialist(r.executor.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", specialist.ErrNotFound, id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSpecialistLookupFailed, "failed to get specialist")
	}
	return s, nil
}

// Upsert inserts or refreshes a directory entry; used by the seed command.
// Expertise is stored NFC-composed next to its folded keys.
func (r *SpecialistRepo) Upsert(ctx context.Context, in *specialist.Specialist) (err error) {
	defer func(start time.Time) { observe(r.metrics, "specialist_upsert", start, err) }(time.Now())

	sp := *in
	s := &sp
	s.NormalizeExpertise()
	expertise, err := json.Marshal(s.Expertise)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode expertise")
	}
	keys, err := json.Marshal(specialist.CategoryKeys(s.Expertise))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode expertise keys")
	}
	query := `
		INSERT INTO specialists (` + specialistColumns + `, expertise_keys)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, expertise = EXCLUDED.expertise,
			rating = EXCLUDED.rating, available = EXCLUDED.available,
			expertise_keys = EXCLUDED.expertise_keys`
	_, err = r.executor.ExecContext(ctx, query, s.ID, s.Name, s.Email, expertise, s.Rating, s.Available, keys)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(err, apperrors.ErrCodeConflict, "specialist email already registered")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to upsert specialist")
	}
	return nil
}

var _ specialist.Repository = (*SpecialistRepo)(nil)

func scanSpecialist(row scanner) (*specialist.Specialist, error) {
	var (
		s         specialist.Specialist
		expertise []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &expertise, &s.Rating, &s.Available); err != nil {
		return nil, err
	}
	if len(expertise) > 0 {
		if err := json.Unmarshal(expertise, &s.Expertise); err != nil {
			return nil, fmt.Errorf("decode expertise: %w", err)
		}
	}
	return &s, nil
}
