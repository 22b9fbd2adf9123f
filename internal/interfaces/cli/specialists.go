package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/SIMPLE/internal/domain/specialist"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// NewSpecialistsCmd creates the specialists command group.
func NewSpecialistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specialists",
		Short: "Maintain the specialist directory",
	}
	cmd.AddCommand(newSpecialistsImportCmd())
	return cmd
}

// specialistFile is the seed document format.
type specialistFile struct {
	Specialists []*specialist.Specialist `yaml:"specialists"`
}

func newSpecialistsImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Insert or update specialists from a YAML seed file",
		Example: "  simple specialists import deploy/seed/specialists.yaml\n" +
			"  simple specialists import team.yaml --dry-run",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			list, err := loadSpecialists(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				PrintSuccess(cmd, fmt.Sprintf("%d specialists are valid", len(list)))
				return nil
			}

			conn, err := postgres.NewConnection(cliCtx.Config.Database.Postgres, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()
			repo := repositories.NewPostgresSpecialistRepo(conn, cliCtx.Logger, nil)

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			for _, s := range list {
				if err := repo.Upsert(ctx, s); err != nil {
					return errors.Wrap(err, errors.GetCode(err), "import stopped").WithDetail(s.ID)
				}
				cliCtx.Logger.Debug("specialist upserted", logging.String("id", s.ID))
			}
			PrintSuccess(cmd, fmt.Sprintf("%d specialists imported", len(list)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without touching the database")
	return cmd
}

// loadSpecialists parses and validates a seed file. Ids and emails must be
// unique within the file.
func loadSpecialists(path string) ([]*specialist.Specialist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read specialists file").WithDetail(path)
	}
	var doc specialistFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "malformed specialists file").WithDetail(path)
	}
	if len(doc.Specialists) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "specialists file lists no specialists").WithDetail(path)
	}

	ids := make(map[string]bool, len(doc.Specialists))
	emails := make(map[string]bool, len(doc.Specialists))
	for i, s := range doc.Specialists {
		if s == nil {
			return nil, errors.Newf(errors.ErrCodeValidation, "entry %d is empty", i+1)
		}
		s.ID = strings.TrimSpace(s.ID)
		s.Name = strings.TrimSpace(s.Name)
		s.Email = strings.ToLower(strings.TrimSpace(s.Email))
		s.NormalizeExpertise()
		switch {
		case s.ID == "":
			return nil, errors.Newf(errors.ErrCodeValidation, "entry %d has no id", i+1)
		case s.Name == "":
			return nil, errors.Newf(errors.ErrCodeValidation, "specialist %s has no name", s.ID)
		case !strings.Contains(s.Email, "@"):
			return nil, errors.Newf(errors.ErrCodeValidation, "specialist %s has an invalid email %q", s.ID, s.Email)
		case len(s.Expertise) == 0:
			return nil, errors.Newf(errors.ErrCodeValidation, "specialist %s lists no expertise", s.ID)
		case s.Rating < 0 || s.Rating > 5:
			return nil, errors.Newf(errors.ErrCodeValidation, "specialist %s rating %.1f is outside [0, 5]", s.ID, s.Rating)
		case ids[s.ID]:
			return nil, errors.Newf(errors.ErrCodeValidation, "duplicate specialist id %s", s.ID)
		case emails[s.Email]:
			return nil, errors.Newf(errors.ErrCodeValidation, "duplicate specialist email %s", s.Email)
		}
		ids[s.ID] = true
		emails[s.Email] = true
	}
	return doc.Specialists, nil
}
