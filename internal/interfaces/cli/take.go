package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// Asker collects the answer to one question. index is 1-based.
type Asker interface {
	Ask(q maturity.Question, index, total int) (int, error)
}

// formAsker asks through a huh select form, falling back to accessible
// line-based prompts when input is not a terminal.
type formAsker struct {
	in  io.Reader
	out io.Writer
}

func (a formAsker) Ask(q maturity.Question, index, total int) (int, error) {
	var value int
	opts := make([]huh.Option[int], 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, huh.NewOption(o.Text, o.Value))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("%d/%d · %s", index, total, q.Text)).
				Description(q.CategoryName()).
				Options(opts...).
				Value(&value),
		),
	).
		WithInput(a.in).
		WithOutput(a.out)

	if f, ok := a.in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return 0, err
	}
	return value, nil
}

// NewTakeCmd creates the interactive questionnaire command. A nil asker uses
// terminal forms on the command's stdin and stdout.
func NewTakeCmd(asker Asker) *cobra.Command {
	var (
		evalType string
		saveTo   string
	)

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Answer a quiz interactively and print the result",
		Example: "  simple take --type initial\n" +
			"  simple take -t advanced --save respuestas.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			t, err := maturity.ParseEvaluationType(evalType)
			if err != nil {
				return err
			}
			qz, err := cliCtx.Quizzes.Get(t)
			if err != nil {
				return err
			}

			a := asker
			if a == nil {
				a = formAsker{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
			}
			answers := make(maturity.Answers, len(qz.Questions))
			for i, q := range qz.Questions {
				v, err := a.Ask(q, i+1, len(qz.Questions))
				if stderrors.Is(err, huh.ErrUserAborted) {
					return errors.New(errors.ErrCodeBadRequest, "questionnaire aborted")
				}
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInternal, "failed to read answer").WithDetail(q.ID)
				}
				answers[q.ID] = v
			}

			if saveTo != "" {
				if err := writeAnswers(saveTo, answers); err != nil {
					return err
				}
				cliCtx.Logger.Info("answers saved", logging.String("path", saveTo))
			}

			res, err := cliCtx.Engine.Score(qz, answers, t)
			if err != nil {
				return err
			}
			return PrintResult(cmd, &resultView{Result: res})
		},
	}

	cmd.Flags().StringVarP(&evalType, "type", "t", "", "evaluation type (initial, advanced) [REQUIRED]")
	cmd.Flags().StringVar(&saveTo, "save", "", "write the answers to this JSON file for later scoring")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func writeAnswers(path string, answers maturity.Answers) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create answers file").WithDetail(path)
	}
	defer f.Close()
	if err := printJSON(f, answers); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write answers").WithDetail(path)
	}
	return nil
}
