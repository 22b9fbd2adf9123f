package maturity

import "fmt"

// Severity bands are selected by percentage with inclusive upper bounds of
// 20, 40, 60 and 80; anything above 80 is band 5.
var severityBounds = [4]float64{20, 40, 60, 80}

var initialAdvice = [5]string{
	"Este aspecto requiere atención inmediata. Implemente una medida básica cuanto antes y asigne un responsable.",
	"Hay un primer paso dado, pero la protección es insuficiente. Establezca una rutina mínima y documéntela.",
	"La práctica existe de forma parcial. Extiéndala a toda la organización y revise su cumplimiento.",
	"Buen nivel. Consolide la práctica con revisiones periódicas para que no dependa de una sola persona.",
	"Excelente. Mantenga esta práctica y compártala como referencia con el resto del equipo.",
}

var advancedAdvice = [5]string{
	"Brecha crítica de control. Defina un plan de remediación con responsables y plazos, y priorícelo en el análisis de riesgos.",
	"Control incipiente. Formalice el procedimiento, asigne indicadores y verifique su aplicación en los sistemas críticos.",
	"Control implantado de forma desigual. Estandarice su ejecución y automatice las evidencias de cumplimiento.",
	"Control gestionado. Incorpore métricas de eficacia y pruebas periódicas para detectar desviaciones.",
	"Control optimizado. Mantenga la mejora continua y valide el control mediante auditorías independientes.",
}

// Percentage returns 100*value/max. It assumes max > 0, which ValidateQuiz
// guarantees for every question of a loaded quiz.
func Percentage(value, max int) float64 {
	return 100 * float64(value) / float64(max)
}

// SeverityBand maps a percentage to a band in 1..5.
func SeverityBand(pct float64) int {
	for i, bound := range severityBounds {
		if pct <= bound {
			return i + 1
		}
	}
	return len(severityBounds) + 1
}

// AdviceFor returns the recommendation text of the given band for t.
func AdviceFor(t EvaluationType, band int) string {
	table := initialAdvice
	if t == TypeAdvanced {
		table = advancedAdvice
	}
	return table[clamp(band, 1, len(table))-1]
}

// GenerateRecommendations produces one record per question, in quiz order.
// Missing answers count as 0. A question without a positive max value yields
// ErrInvalidQuestion instead of a NaN percentage.
func GenerateRecommendations(questions []Question, answers Answers, t EvaluationType) ([]Recommendation, error) {
	out := make([]Recommendation, 0, len(questions))
	for _, q := range questions {
		max := q.MaxValue()
		if max <= 0 {
			return nil, fmt.Errorf("%w: %q has no option with a value above zero", ErrInvalidQuestion, q.ID)
		}
		value := answers[q.ID]
		pct := Percentage(value, max)
		band := SeverityBand(pct)

		out = append(out, Recommendation{
			QuestionID:     q.ID,
			Question:       q.Text,
			SelectedOption: q.OptionLabel(value),
			Category:       q.CategoryName(),
			Score:          value,
			MaxScore:       max,
			Percentage:     pct,
			Severity:       band,
			Recommendation: AdviceFor(t, band),
		})
	}
	return out, nil
}
