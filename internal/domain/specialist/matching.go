package specialist

import "sort"

// weakestBonus is added when a specialist covers the single weakest category,
// so that covering it outranks covering any later one.
const weakestBonus = 1

// Suggestion is a ranked specialist match.
type Suggestion struct {
	Specialist *Specialist `json:"specialist"`
	Covered    []string    `json:"coveredCategories"`
	Score      int         `json:"score"`
}

// Match orders available specialists by how well they cover the weakest
// categories: one point per covered category plus a bonus for the first
// (weakest) one, ties broken by rating descending and then by name. Specialists
// covering nothing are dropped. limit <= 0 means no limit.
func Match(candidates []*Specialist, weakest []string, limit int) []Suggestion {
	matches := make([]Suggestion, 0, len(candidates))
	for _, s := range candidates {
		if s == nil || !s.Available {
			continue
		}
		m := Suggestion{Specialist: s}
		for i, c := range weakest {
			if !s.Covers(c) {
				continue
			}
			m.Covered = append(m.Covered, c)
			m.Score++
			if i == 0 {
				m.Score += weakestBonus
			}
		}
		if m.Score > 0 {
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Specialist.Rating != b.Specialist.Rating {
			return a.Specialist.Rating > b.Specialist.Rating
		}
		return a.Specialist.Name < b.Specialist.Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
