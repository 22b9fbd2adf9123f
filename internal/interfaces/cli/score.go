package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// priorityBands are the severity bands listed in the text summary.
const priorityBands = 2

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	var (
		evalType    string
		answersFile string
		overrides   map[string]int
		showAll     bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file offline",
		Long: "Score a set of answers against the quiz of the given type. Answers are read\n" +
			"from a JSON file (\"-\" for stdin) in either the {\"q1\": 3} or the legacy\n" +
			"[{\"questionId\": \"q1\", \"value\": 3}] form; --answer flags override it.",
		Example: "  simple score --type initial --answers answers.json\n" +
			"  echo '{\"q1\":3}' | simple score -t advanced -f - -o json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			t, err := maturity.ParseEvaluationType(evalType)
			if err != nil {
				return err
			}

			answers := maturity.Answers{}
			if answersFile != "" {
				if answers, err = readAnswers(cmd.InOrStdin(), answersFile); err != nil {
					return err
				}
			}
			for id, v := range overrides {
				answers[id] = v
			}

			qz, err := cliCtx.Quizzes.Get(t)
			if err != nil {
				return err
			}
			res, err := cliCtx.Engine.Score(qz, answers, t)
			if err != nil {
				return err
			}
			return PrintResult(cmd, &resultView{Result: res, all: showAll})
		},
	}

	cmd.Flags().StringVarP(&evalType, "type", "t", "", "evaluation type (initial, advanced) [REQUIRED]")
	cmd.Flags().StringVarP(&answersFile, "answers", "f", "", "answers JSON file, - for stdin")
	cmd.Flags().StringToIntVarP(&overrides, "answer", "a", nil, "single answer as questionId=value (repeatable)")
	cmd.Flags().BoolVar(&showAll, "all", false, "list every recommendation, not only the priority ones")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

// readAnswers loads and normalizes an answers document.
func readAnswers(stdin io.Reader, path string) (maturity.Answers, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read answers").WithDetail(path)
	}
	return evaluation.NormalizeAnswers(data)
}

// resultView renders a scoring result for the terminal. Its JSON form is the
// bare result.
type resultView struct {
	*maturity.Result
	all bool
}

// RenderText writes the level headline, the category table, the weakest
// categories and the recommendations.
func (v *resultView) RenderText(w io.Writer) error {
	r := v.Result
	headline := fmt.Sprintf("%s %s · %s", r.Level.Emoji, r.Level.Level, r.Level.Label)
	fmt.Fprintf(w, "%s  (%d/%d, %d%%)\n", levelColor(r.Level.Tier).Sprint(headline), r.Score, r.MaxScore, r.Percentage)
	if r.Level.Description != "" {
		fmt.Fprintln(w, r.Level.Description)
	}
	if r.Level.Advice != "" {
		fmt.Fprintln(w, color.New(color.Faint).Sprint(r.Level.Advice))
	}

	rows := make([][]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		pct := 0
		if c.MaxScore > 0 {
			pct = int(maturity.Percentage(c.Score, c.MaxScore) + 0.5)
		}
		rows = append(rows, []string{c.Category, strconv.Itoa(c.Score), strconv.Itoa(c.MaxScore), strconv.Itoa(pct) + "%"})
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, FormatTable([]string{"Categoría", "Puntos", "Máximo", "%"}, rows))

	if len(r.WeakestCategories) > 0 {
		fmt.Fprintf(w, "\nÁreas más débiles: %s\n", color.YellowString(strings.Join(r.WeakestCategories, ", ")))
	}

	title := "Recomendaciones prioritarias"
	if v.all {
		title = "Recomendaciones"
	}
	listed := 0
	for _, rec := range r.Recommendations {
		if !v.all && rec.Severity > priorityBands {
			continue
		}
		if listed == 0 {
			fmt.Fprintf(w, "\n%s:\n", title)
		}
		listed++
		fmt.Fprintf(w, "  %s %s (%s)\n    %s\n",
			severityColor(rec.Severity).Sprintf("[%d]", rec.Severity),
			rec.Question, rec.SelectedOption, rec.Recommendation)
	}
	if listed == 0 && !v.all {
		fmt.Fprintln(w, "\nSin recomendaciones prioritarias.")
	}
	return nil
}

func levelColor(tier int) *color.Color {
	switch {
	case tier <= 1:
		return color.New(color.FgRed, color.Bold)
	case tier == 2:
		return color.New(color.FgYellow, color.Bold)
	case tier == 3:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func severityColor(band int) *color.Color {
	switch band {
	case 1:
		return color.New(color.FgRed)
	case 2:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
