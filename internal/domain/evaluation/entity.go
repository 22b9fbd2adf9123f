// Package evaluation models a profile's completed or in-progress maturity
// assessment and the persistence contract around it. Scores are stored for
// listing, but category breakdowns and maturity levels are always recomputed
// from the answers by the maturity engine.
package evaluation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// MaxTitleLength bounds the user-editable title.
const MaxTitleLength = 200

var (
	ErrNotFound       = errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found")
	ErrForbidden      = errors.New(errors.ErrCodeEvaluationForbidden, "evaluation belongs to another profile")
	ErrInvalidTitle   = errors.New(errors.ErrCodeValidation, "invalid evaluation title")
	ErrInvalidAnswers = errors.New(errors.ErrCodeEvaluationAnswersInvalid, "invalid answers payload")
	ErrInvalidProfile = errors.New(errors.ErrCodeValidation, "profile id is required")
)

// Evaluation is one assessment owned by exactly one profile.
type Evaluation struct {
	ID          uuid.UUID               `json:"id"`
	ProfileID   common.ProfileID        `json:"profileId"`
	Type        maturity.EvaluationType `json:"type"`
	Title       string                  `json:"title"`
	Answers     maturity.Answers        `json:"answers"`
	Score       int                     `json:"score"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// NewEvaluation validates its inputs and returns an in-progress evaluation.
// An empty title is replaced by a default per type.
func NewEvaluation(profileID common.ProfileID, t maturity.EvaluationType, title string, answers maturity.Answers) (*Evaluation, error) {
	if strings.TrimSpace(string(profileID)) == "" {
		return nil, ErrInvalidProfile
	}
	if !t.IsValid() {
		return nil, maturity.ErrInvalidEvaluationType
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle(t)
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if answers == nil {
		answers = maturity.Answers{}
	}

	now := time.Now().UTC()
	return &Evaluation{
		ID:        uuid.New(),
		ProfileID: profileID,
		Type:      t,
		Title:     title,
		Answers:   answers,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DefaultTitle returns the title used when the caller supplies none.
func DefaultTitle(t maturity.EvaluationType) string {
	if t == maturity.TypeAdvanced {
		return "Evaluación avanzada"
	}
	return "Evaluación inicial"
}

// IsCompleted reports whether the evaluation has been scored.
func (e *Evaluation) IsCompleted() bool {
	return e.CompletedAt != nil
}

// Complete records the total score and completion time.
func (e *Evaluation) Complete(score int, now time.Time) {
	now = now.UTC()
	e.Score = score
	e.CompletedAt = &now
	e.UpdatedAt = now
}

// CanView reports whether actor may read the evaluation.
func (e *Evaluation) CanView(actor common.Actor) bool {
	return actor.IsAdmin() || (actor.ProfileID != "" && actor.ProfileID == e.ProfileID)
}

// CanEdit reports whether actor may change title or answers. Only the owner
// and admins qualify.
func (e *Evaluation) CanEdit(actor common.Actor) bool {
	return e.CanView(actor)
}

// UpdateFields lists the mutable attributes. Nil means unchanged.
type UpdateFields struct {
	Title   *string
	Answers maturity.Answers
}

// IsEmpty reports whether no field is set.
func (u UpdateFields) IsEmpty() bool {
	return u.Title == nil && u.Answers == nil
}

// ApplyUpdate mutates title and answers only. It reports whether the answers
// changed, in which case the caller must rescore.
func (e *Evaluation) ApplyUpdate(u UpdateFields, now time.Time) (answersChanged bool, err error) {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if err := validateTitle(title); err != nil {
			return false, err
		}
		e.Title = title
	}
	if u.Answers != nil {
		answersChanged = !sameAnswers(e.Answers, u.Answers)
		e.Answers = u.Answers
	}
	e.UpdatedAt = now.UTC()
	return answersChanged, nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrInvalidTitle)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, MaxTitleLength)
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: title must be a single line without control characters", ErrInvalidTitle)
	}
	return nil
}

func sameAnswers(a, b maturity.Answers) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
