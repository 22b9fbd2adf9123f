package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// NewQuizCmd creates the quiz command group.
func NewQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Inspect and validate quiz definitions",
	}
	cmd.AddCommand(newQuizShowCmd(), newQuizValidateCmd())
	return cmd
}

func newQuizShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show <initial|advanced>",
		Short:     "Print the active quiz of a type",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"initial", "advanced"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			t, err := maturity.ParseEvaluationType(args[0])
			if err != nil {
				return err
			}
			qz, err := cliCtx.Quizzes.Get(t)
			if err != nil {
				return err
			}
			return PrintResult(cmd, &quizView{Quiz: qz, MaxScore: qz.MaxScore()})
		},
	}
}

// quizView is a quiz with its attainable total.
type quizView struct {
	*maturity.Quiz
	MaxScore int `json:"maxScore"`
}

func (v *quizView) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s", color.New(color.Bold).Sprint(v.Title), v.Type)
	if v.Version != "" {
		fmt.Fprintf(w, ", v%s", v.Version)
	}
	fmt.Fprintf(w, ") · %d preguntas · máximo %d\n\n", len(v.Questions), v.MaxScore)

	rows := make([][]string, 0, len(v.Questions))
	for i, q := range v.Questions {
		rows = append(rows, []string{strconv.Itoa(i + 1), q.ID, q.CategoryName(), strconv.Itoa(q.MaxValue()), q.Text})
	}
	fmt.Fprint(w, FormatTable([]string{"#", "ID", "Categoría", "Máx", "Pregunta"}, rows))
	return nil
}

func newQuizValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate quiz YAML files against the schema and scoring rules",
		Long: "Validate quiz files the way the servers load them: JSON schema, type and\n" +
			"file name agreement, and per-question scoring rules. A total that differs\n" +
			"from the configured maximum is reported as a warning.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				qz, err := quiz.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), path, err)
					continue
				}
				fmt.Fprintf(out, "%s %s: %s, %d preguntas, máximo %d\n",
					color.GreenString("OK"), path, qz.Type, len(qz.Questions), qz.MaxScore())
				if want := cliCtx.Engine.Config().MaxScore(qz.Type); qz.MaxScore() != want {
					fmt.Fprintf(out, "%s %s: total %d differs from configured maximum %d\n",
						color.YellowString("WARN"), path, qz.MaxScore(), want)
				}
			}
			if failed > 0 {
				return errors.Newf(errors.ErrCodeQuizInvalid, "%d of %d quiz files are invalid", failed, len(args))
			}
			return nil
		},
	}
}
