package maturity

// AggregateCategories sums answer values and option maxima per category.
//
// Categories appear in the order they are first encountered among questions.
// A missing answer counts as 0. For INITIAL evaluations each category score is
// clamped to [0, maxScore] after accumulation, so out-of-range values from
// migrated or malformed answer data never push a category over its maximum.
func AggregateCategories(questions []Question, answers Answers, t EvaluationType) []CategoryScore {
	index := make(map[string]int)
	out := make([]CategoryScore, 0)

	for _, q := range questions {
		name := q.CategoryName()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryScore{Category: name})
		}
		out[i].Score += answers[q.ID]
		out[i].MaxScore += q.MaxValue()
	}

	if t == TypeInitial {
		for i := range out {
			out[i].Score = clamp(out[i].Score, 0, out[i].MaxScore)
		}
	}
	return out
}

// TotalScore sums the category scores.
func TotalScore(categories []CategoryScore) (score, max int) {
	for _, c := range categories {
		score += c.Score
		max += c.MaxScore
	}
	return score, max
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
