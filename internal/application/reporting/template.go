// Package reporting renders evaluation reports. A report is a Markdown
// document built from the recomputed result; its HTML form is the body used
// for the emailed report and the archived copy.
package reporting

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

//go:embed templates/report.md.tmpl
var templates embed.FS

// Format selects the report representation.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

// ParseFormat accepts "html", "markdown" and "md". Empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", errors.Newf(errors.ErrCodeValidation, "unsupported report format %q", s)
	}
}

var ErrRenderFailed = errors.New(errors.ErrCodeReportRenderFailed, "failed to render report")

// ReportData is the view model bound to the Markdown template.
type ReportData struct {
	Title           string
	Type            maturity.EvaluationType
	CompletedAt     *time.Time
	Score           int
	MaxScore        int
	Percentage      int
	Level           maturity.MaturityLevel
	Categories      []maturity.CategoryScore
	Weakest         []string
	Recommendations []maturity.Recommendation
}

// NewReportData combines an evaluation with its recomputed result.
func NewReportData(e *evaluation.Evaluation, res *maturity.Result) *ReportData {
	return &ReportData{
		Title:           e.Title,
		Type:            res.Type,
		CompletedAt:     e.CompletedAt,
		Score:           res.Score,
		MaxScore:        res.MaxScore,
		Percentage:      res.Percentage,
		Level:           res.Level,
		Categories:      res.Categories,
		Weakest:         res.WeakestCategories,
		Recommendations: res.Recommendations,
	}
}

// Renderer turns report data into Markdown and HTML. It is safe for
// concurrent use.
type Renderer struct {
	markdown *template.Template
	page     *htmltemplate.Template
	md       goldmark.Markdown
}

const pageTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body style="border-top: 6px solid {{ .Color }}">
{{ .Body }}
</body>
</html>
`

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	md, err := template.New("report.md.tmpl").Funcs(templateFuncs()).ParseFS(templates, "templates/report.md.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "template parse failed")
	}
	page, err := htmltemplate.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "template parse failed")
	}
	return &Renderer{
		markdown: md,
		page:     page,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Markdown renders the report as GitHub-flavoured Markdown.
func (r *Renderer) Markdown(data *ReportData) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}

// HTML renders the Markdown report and wraps it in a standalone page. Raw
// HTML in user-supplied text is dropped by the Markdown converter.
func (r *Renderer) HTML(data *ReportData) (string, error) {
	src, err := r.Markdown(data)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := r.md.Convert([]byte(src), &body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	var out bytes.Buffer
	err = r.page.Execute(&out, struct {
		Title string
		Color htmltemplate.CSS
		Body  htmltemplate.HTML
	}{
		Title: data.Title,
		Color: htmltemplate.CSS(safeColor(data.Level.Color)),
		Body:  htmltemplate.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return out.String(), nil
}

// Render produces the report in format f.
func (r *Renderer) Render(data *ReportData, f Format) (string, error) {
	if f == FormatMarkdown {
		return r.Markdown(data)
	}
	return r.HTML(data)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t *time.Time) string {
			return t.UTC().Format("02/01/2006")
		},
		"formatPct": func(v float64) string {
			return fmt.Sprintf("%.0f", v)
		},
		"categoryPct": maturity.CategoryPercentage,
		"inc":         func(i int) int { return i + 1 },
		"cell": func(s string) string {
			return strings.ReplaceAll(s, "|", `\|`)
		},
		"inline": inlineText,
		"typeName": func(t maturity.EvaluationType) string {
			if t == maturity.TypeAdvanced {
				return "Avanzada"
			}
			return "Inicial"
		},
		"severityLabel": severityLabel,
	}
}

var severityLabels = [5]string{"Crítica", "Alta", "Media", "Baja", "Mantener"}

func severityLabel(band int) string {
	if band < 1 || band > len(severityLabels) {
		return "-"
	}
	return severityLabels[band-1]
}

// safeColor accepts only #rgb / #rrggbb values.
func safeColor(c string) string {
	if (len(c) == 4 || len(c) == 7) && c[0] == '#' {
		for _, r := range c[1:] {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return "#999999"
			}
		}
		return c
	}
	return "#999999"
}

// markdownEscaper backslash-escapes the ASCII punctuation that can open
// Markdown structure.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `{`, `\{`, `}`, `\}`,
	`[`, `\[`, `]`, `\]`, `(`, `\(`, `)`, `\)`, `<`, `\<`, `>`, `\>`,
	`#`, `\#`, `+`, `\+`, `-`, `\-`, `!`, `\!`, `|`, `\|`, `~`, `\~`, `&`, `\&`,
)

// inlineText renders user text as a single literal Markdown line: control
// characters become spaces and structural punctuation is escaped.
func inlineText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return markdownEscaper.Replace(strings.TrimSpace(s))
}
