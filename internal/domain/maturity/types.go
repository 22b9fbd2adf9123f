// Package maturity implements the cybersecurity maturity scoring engine:
// category aggregation, maturity classification, per-question recommendations
// and weakest-category ranking. Every function in this package is pure and
// safe for concurrent use; callers pass in already-loaded quiz definitions and
// answer maps.
package maturity

import (
	"fmt"
	"strings"

	"github.com/turtacn/SIMPLE/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Evaluation type
// ─────────────────────────────────────────────────────────────────────────────

// EvaluationType discriminates the two quiz flavours. Band tables, clamping and
// recommendation wording all depend on it.
type EvaluationType string

const (
	TypeInitial  EvaluationType = "INITIAL"
	TypeAdvanced EvaluationType = "ADVANCED"
)

// IsValid reports whether t is one of the known evaluation types.
func (t EvaluationType) IsValid() bool {
	return t == TypeInitial || t == TypeAdvanced
}

func (t EvaluationType) String() string {
	return string(t)
}

// ParseEvaluationType accepts "INITIAL"/"ADVANCED" in any case, which also
// covers the lowercase values stored by older clients.
func ParseEvaluationType(s string) (EvaluationType, error) {
	t := EvaluationType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEvaluationType, s)
	}
	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Quiz definition
// ─────────────────────────────────────────────────────────────────────────────

// DefaultCategory is assigned to questions that carry no category.
const DefaultCategory = "General"

// Option is one selectable answer of a question.
type Option struct {
	Text  string `json:"text" yaml:"text"`
	Value int    `json:"value" yaml:"value"`
}

// Question is a static quiz question. Its max score is the highest option value.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Options  []Option `json:"options" yaml:"options"`
}

// MaxValue returns the maximum value among the question's options, or 0 when
// the question has no options.
func (q Question) MaxValue() int {
	max := 0
	for i, o := range q.Options {
		if i == 0 || o.Value > max {
			max = o.Value
		}
	}
	return max
}

// CategoryName returns the question's category, defaulting to "General".
func (q Question) CategoryName() string {
	if c := strings.TrimSpace(q.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// OptionLabel returns the text of the first option whose value equals v, or
// "Opción {v}" when no option matches (stale or edited definitions).
func (q Question) OptionLabel(v int) string {
	for _, o := range q.Options {
		if o.Value == v {
			return o.Text
		}
	}
	return fmt.Sprintf("Opción %d", v)
}

// Quiz is an ordered question set for one evaluation type.
type Quiz struct {
	Type      EvaluationType `json:"type" yaml:"type"`
	Title     string         `json:"title" yaml:"title"`
	Version   string         `json:"version,omitempty" yaml:"version,omitempty"`
	Questions []Question     `json:"questions" yaml:"questions"`
}

// MaxScore is the sum of every question's max value.
func (qz *Quiz) MaxScore() int {
	total := 0
	for _, q := range qz.Questions {
		total += q.MaxValue()
	}
	return total
}

// Categories returns the distinct category names in first-seen order.
func (qz *Quiz) Categories() []string {
	seen := make(map[string]struct{}, len(qz.Questions))
	out := make([]string, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		c := q.CategoryName()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Answers maps question id to the selected numeric value.
type Answers map[string]int

// ─────────────────────────────────────────────────────────────────────────────
// Derived records
// ─────────────────────────────────────────────────────────────────────────────

// CategoryScore is the aggregated score of one category.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
}

// MaturityLevel is the tier selected for a total score.
type MaturityLevel struct {
	Level       string `json:"level"`
	Tier        int    `json:"tier"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Advice      string `json:"advice"`
	Color       string `json:"color"`
	Emoji       string `json:"emoji"`
}

// Recommendation is the advisory record produced for one question.
type Recommendation struct {
	QuestionID     string  `json:"questionId"`
	Question       string  `json:"question"`
	SelectedOption string  `json:"selectedOption"`
	Category       string  `json:"category"`
	Score          int     `json:"score"`
	MaxScore       int     `json:"maxScore"`
	Percentage     float64 `json:"percentage"`
	Severity       int     `json:"severity"`
	Recommendation string  `json:"recommendation"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	ErrInvalidQuiz           = errors.New(errors.ErrCodeQuizInvalid, "invalid quiz")
	ErrInvalidQuestion       = errors.New(errors.ErrCodeQuizInvalid, "invalid question")
	ErrInvalidEvaluationType = errors.New(errors.ErrCodeEvaluationTypeInvalid, "invalid evaluation type")
	ErrQuizTypeMismatch      = errors.New(errors.ErrCodeQuizTypeMismatch, "quiz type does not match evaluation type")
)
