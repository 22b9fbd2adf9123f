package maturity

import (
	"fmt"
	"strings"
)

// ValidateQuiz rejects definitions the engine cannot score. In particular a
// question whose options are all ≤ 0 has no usable maximum, and percentages
// over it would divide by zero; such quizzes must be refused when they are
// loaded rather than at scoring time.
func ValidateQuiz(qz *Quiz) error {
	if qz == nil {
		return fmt.Errorf("%w: quiz is nil", ErrInvalidQuiz)
	}
	if qz.Type != "" && !qz.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidQuiz, qz.Type)
	}
	if len(qz.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}

	seen := make(map[string]int, len(qz.Questions))
	for i, q := range qz.Questions {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("question #%d: %w", i+1, err)
		}
		if prev, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q (questions #%d and #%d)", ErrInvalidQuestion, q.ID, prev+1, i+1)
		}
		seen[q.ID] = i
	}
	return nil
}

// ValidateQuestion checks a single question in isolation.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %q has empty text", ErrInvalidQuestion, q.ID)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: %q has no options", ErrInvalidQuestion, q.ID)
	}
	if q.MaxValue() <= 0 {
		return fmt.Errorf("%w: %q has no option with a value above zero", ErrInvalidQuestion, q.ID)
	}
	return nil
}
