package maturity

func opts(values ...int) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Text: optionText(v), Value: v})
	}
	return out
}

func optionText(v int) string {
	switch v {
	case 0:
		return "No"
	case 1:
		return "Parcialmente"
	case 2:
		return "Casi siempre"
	default:
		return "Sí"
	}
}

// twoCategoryQuiz is the A/B round-trip fixture: category A has two questions
// worth 3 each, category B a single question worth 5.
func twoCategoryQuiz(t EvaluationType) *Quiz {
	return &Quiz{
		Type:  t,
		Title: "fixture",
		Questions: []Question{
			{ID: "qA1", Text: "A1", Category: "A", Options: opts(0, 1, 2, 3)},
			{ID: "qA2", Text: "A2", Category: "A", Options: opts(0, 1, 2, 3)},
			{ID: "qB1", Text: "B1", Category: "B", Options: []Option{{"Nada", 0}, {"Algo", 2}, {"Todo", 5}}},
		},
	}
}

// initialQuiz has 15 questions of max 3 across 5 categories, totalling 45.
func initialQuiz() *Quiz {
	cats := []string{"Accesos", "Copias", "Red", "Personas", "Dispositivos"}
	qz := &Quiz{Type: TypeInitial, Title: "inicial"}
	for i := 0; i < 15; i++ {
		qz.Questions = append(qz.Questions, Question{
			ID:       "q" + string(rune('a'+i)),
			Text:     "pregunta",
			Category: cats[i%len(cats)],
			Options:  opts(0, 1, 2, 3),
		})
	}
	return qz
}
