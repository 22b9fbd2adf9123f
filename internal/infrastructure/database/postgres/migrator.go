package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // "postgres://" database driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsFS exposes the embedded schema, mainly for tests and tooling.
func MigrationsFS() embed.FS { return migrationsFS }

// ─────────────────────────────────────────────────────────────────────────────
// Migrator
// ─────────────────────────────────────────────────────────────────────────────

// Migrator applies the embedded schema migrations. It owns a dedicated
// connection so that closing it never touches the application pool.
type Migrator struct {
	m      *migrate.Migrate
	logger logging.Logger
}

// NewMigrator opens a migrate instance against dsn ("postgres://...").
func NewMigrator(dsn string, log logging.Logger) (*Migrator, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: log}, nil
}

// Up applies all pending migrations. No pending migrations is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, _ := mg.Status()
	mg.logger.Info("database migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back steps migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	if err := mg.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("roll back %d step(s): %w", steps, err)
	}
	return nil
}

// Status reports the applied version; 0 when nothing has run yet.
func (mg *Migrator) Status() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running anything, to recover a dirty state.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations is the one-shot form used by the apiserver on startup.
func RunMigrations(dsn string, log logging.Logger) error {
	mg, err := NewMigrator(dsn, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
