// Package repositories implements the domain repositories on PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
)

// queryExecutor abstracts *sql.DB and *sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgErrorCode(err) == pgUniqueViolation }
func isForeignKeyViolation(err error) bool { return pgErrorCode(err) == pgForeignKeyViolation }

// observe records query latency; m may be nil.
func observe(m *prometheus.AppMetrics, op string, start time.Time, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	prometheus.RecordDBQuery(m, op, time.Since(start), err)
}
