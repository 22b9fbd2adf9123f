package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// NewMigrateCmd creates the migrate command group operating on the
// configured Postgres database.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					if err := mg.Up(); err != nil {
						return err
					}
					return printVersion(cmd, mg)
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return errors.Newf(errors.ErrCodeValidation, "steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					if err := mg.Down(steps); err != nil {
						return err
					}
					return printVersion(cmd, mg)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					return printVersion(cmd, mg)
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied to recover from a dirty state",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return errors.Newf(errors.ErrCodeValidation, "version must be a non-negative integer, got %q", args[0])
				}
				return withMigrator(cmd, func(mg *postgres.Migrator) error {
					if err := mg.Force(v); err != nil {
						return err
					}
					return printVersion(cmd, mg)
				})
			},
		},
	)
	return cmd
}

// migrationStatus is the output of every migrate subcommand.
type migrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s migrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("schema version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("schema version %d", s.Version)
}

func printVersion(cmd *cobra.Command, mg *postgres.Migrator) error {
	v, dirty, err := mg.Status()
	if err != nil {
		return err
	}
	return PrintResult(cmd, migrationStatus{Version: v, Dirty: dirty})
}

func withMigrator(cmd *cobra.Command, fn func(mg *postgres.Migrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(cliCtx.Config.Database.Postgres.DSN(), cliCtx.Logger)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open migrator")
	}
	defer mg.Close()
	return fn(mg)
}
