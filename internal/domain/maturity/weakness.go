package maturity

import (
	"math"
	"sort"
)

// DefaultWeakestCount is how many categories drive specialist matching.
const DefaultWeakestCount = 2

// CategoryPercentage returns round(100*score/maxScore), or 0 when maxScore is 0.
func CategoryPercentage(c CategoryScore) int {
	if c.MaxScore == 0 {
		return 0
	}
	return int(math.Round(100 * float64(c.Score) / float64(c.MaxScore)))
}

// RankCategories returns a copy of categories stably sorted by ascending
// percentage; ties keep their original encounter order.
func RankCategories(categories []CategoryScore) []CategoryScore {
	ranked := make([]CategoryScore, len(categories))
	copy(ranked, categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return CategoryPercentage(ranked[i]) < CategoryPercentage(ranked[j])
	})
	return ranked
}

// WeakestCategories returns the names of the n lowest-percentage categories.
// The result length is min(n, len(categories)).
func WeakestCategories(categories []CategoryScore, n int) []string {
	if n <= 0 {
		return []string{}
	}
	ranked := RankCategories(categories)
	if n > len(ranked) {
		n = len(ranked)
	}
	names := make([]string, 0, n)
	for _, c := range ranked[:n] {
		names = append(names, c.Category)
	}
	return names
}
