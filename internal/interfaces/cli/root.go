// Package cli implements the simple command-line tool: offline scoring of
// answer files, quiz inspection, an interactive questionnaire and the
// database maintenance commands used by operators.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/turtacn/SIMPLE/internal/application/quiz"
	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	QuizDir      string
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Engine       *maturity.Engine
	Quizzes      *quiz.Catalog
	OutputFormat string
	Timeout      time.Duration
}

// NewRootCommand creates the root command with its global flags and every
// subcommand.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, nil)
}

// newRootCommand lets tests script the interactive questionnaire.
func newRootCommand(info BuildInfo, asker Asker) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simple",
		Short: "SIMPLE cybersecurity maturity scoring",
		Long: "simple scores cybersecurity maturity questionnaires offline, inspects and\n" +
			"validates quiz definitions and maintains the SIMPLE database.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: SIMPLE_* environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVar(&opts.QuizDir, "quiz-dir", "", "directory overriding the built-in quiz definitions")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for database operations")

	cmd.AddCommand(
		NewScoreCmd(),
		NewQuizCmd(),
		NewTakeCmd(asker),
		NewMigrateCmd(),
		NewSpecialistsCmd(),
		NewVersionCmd(info),
	)
	return cmd
}

// persistentPreRun loads config, logger, engine and quiz catalog, then stores
// the CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	if opts.NoColor {
		color.NoColor = true
	}
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json":
	default:
		return errors.Newf(errors.ErrCodeValidation, "unsupported output format %q", opts.OutputFormat)
	}

	cfg, err := config.LoadOptional(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.QuizDir != "" {
		cfg.Quiz.Dir = opts.QuizDir
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            opts.LogLevel,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	engine, err := maturity.NewEngine(cfg.ScoringEngineConfig())
	if err != nil {
		return err
	}
	catalog, err := quiz.NewCatalog(quiz.Options{Dir: cfg.Quiz.Dir, Scoring: engine.Config()}, logger, nil)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Engine:       engine,
		Quizzes:      catalog,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the CLI and reports the error on stderr.
func Execute(ctx context.Context, info BuildInfo) error {
	rootCmd := NewRootCommand(info)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// textRenderer is implemented by results with a human-readable form.
type textRenderer interface {
	RenderText(w io.Writer) error
}

// PrintResult writes data as JSON or text according to --output.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "text"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), data)
	}
	if tr, ok := data.(textRenderer); ok {
		return tr.RenderText(cmd.OutOrStdout())
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", data)
	return err
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

// FormatTable renders headers and rows as an aligned text table. Widths are
// measured in terminal cells so accented labels line up.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
				continue
			}
			sb.WriteString(runewidth.FillRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// withTimeout derives the context used for database work.
func (c *CLIContext) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
