// Package specialist models the directory of human security specialists and
// the ranking used to recommend them for a profile's weakest categories.
package specialist

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/turtacn/SIMPLE/pkg/errors"
)

var ErrNotFound = errors.New(errors.ErrCodeSpecialistNotFound, "specialist not found")

// Specialist is a vetted professional offered through the marketplace.
type Specialist struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Expertise []string `json:"expertise"`
	Rating    float64  `json:"rating"`
	Available bool     `json:"available"`
}

// Repository reads the specialist directory.
type Repository interface {
	// ListByExpertise returns available specialists covering at least one of
	// the given categories.
	ListByExpertise(ctx context.Context, categories []string, limit int) ([]*Specialist, error)
	GetByID(ctx context.Context, id string) (*Specialist, error)
}

// NormalizeCategory canonicalises a category label for comparison: NFC
// composition, trimmed and case-folded, so "Protección" typed with combining
// accents still equals the quiz label.
func NormalizeCategory(s string) string {
	// A Caser is stateful, so one is built per call.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Covers reports whether the specialist lists category among its expertise.
func (s *Specialist) Covers(category string) bool {
	want := NormalizeCategory(category)
	for _, e := range s.Expertise {
		if NormalizeCategory(e) == want {
			return true
		}
	}
	return false
}

// CategoryKeys normalises labels with NormalizeCategory, dropping blanks and
// repeats while keeping the first-seen order.
func CategoryKeys(labels []string) []string {
	keys := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		k := NormalizeCategory(l)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// NormalizeExpertise trims and NFC-composes the expertise labels, dropping
// blanks and labels equal to an earlier one after case folding. Display case
// is kept.
func (s *Specialist) NormalizeExpertise() {
	out := make([]string, 0, len(s.Expertise))
	seen := make(map[string]bool, len(s.Expertise))
	for _, e := range s.Expertise {
		label := norm.NFC.String(strings.TrimSpace(e))
		k := NormalizeCategory(label)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, label)
	}
	s.Expertise = out
}
