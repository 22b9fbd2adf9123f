package quiz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
)

var (
	ErrNotFound        = errors.New(errors.ErrCodeQuizNotFound, "quiz not found")
	ErrSchemaViolation = errors.New(errors.ErrCodeQuizSchemaViolation, "quiz does not match schema")
	ErrLoadFailed      = errors.New(errors.ErrCodeQuizLoadFailed, "failed to load quiz")
)

// Parse decodes one quiz document. source names the document in errors and is
// also used to infer the type when the document omits it: "advanced.yaml"
// yields ADVANCED. A document whose type disagrees with its file name is
// rejected.
func Parse(data []byte, source string) (*maturity.Quiz, error) {
	if v := SchemaViolations(data); len(v) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrSchemaViolation, source, strings.Join(v, "; "))
	}

	var raw struct {
		Type      string              `yaml:"type"`
		Title     string              `yaml:"title"`
		Version   string              `yaml:"version"`
		Questions []maturity.Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, source, err)
	}

	t, err := maturity.ParseEvaluationType(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if ft, ok := typeFromName(source); ok && ft != t {
		return nil, fmt.Errorf("%w: %s declares %s", maturity.ErrQuizTypeMismatch, source, t)
	}

	qz := &maturity.Quiz{
		Type:      t,
		Title:     normalize(raw.Title),
		Version:   strings.TrimSpace(raw.Version),
		Questions: raw.Questions,
	}
	for i := range qz.Questions {
		q := &qz.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		q.Text = normalize(q.Text)
		q.Category = normalize(q.Category)
		for j := range q.Options {
			q.Options[j].Text = normalize(q.Options[j].Text)
		}
	}

	if err := maturity.ValidateQuiz(qz); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return qz, nil
}

// LoadFile reads and parses a quiz file.
func LoadFile(path string) (*maturity.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeQuizLoadFailed, "failed to read quiz file").WithDetail(path)
	}
	return Parse(data, filepath.Base(path))
}

// FileName returns the file name a quiz of type t is stored under.
func FileName(t maturity.EvaluationType) string {
	return strings.ToLower(t.String()) + ".yaml"
}

func typeFromName(source string) (maturity.EvaluationType, bool) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	t, err := maturity.ParseEvaluationType(base)
	return t, err == nil
}

// normalize composes text to NFC so that categories typed with combining
// accents group with their precomposed spelling.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
