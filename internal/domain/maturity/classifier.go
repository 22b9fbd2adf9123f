package maturity

// ─────────────────────────────────────────────────────────────────────────────
// Band tables
// ─────────────────────────────────────────────────────────────────────────────

// Band is one row of a classification table: every score ≤ UpperBound that
// did not match an earlier row maps to Level.
type Band struct {
	UpperBound int           `json:"upperBound"`
	Level      MaturityLevel `json:"level"`
}

// Presentation metadata is shared by both tables; consumers branch on it.
var bandStyles = [6]struct{ color, emoji string }{
	{"#D32F2F", "🔴"},
	{"#F57C00", "🟠"},
	{"#FBC02D", "🟡"},
	{"#7CB342", "🟢"},
	{"#1E88E5", "🔵"},
	{"#6A1B9A", "🏆"},
}

// initialBounds and advancedBounds hold the inclusive upper bounds of the first
// five bands. The sixth band ("Óptimo") runs up to the type's max score.
var (
	initialBounds  = [5]int{9, 19, 29, 39, 44}
	advancedBounds = [5]int{15, 34, 51, 66, 74}
)

var initialLevels = [6]MaturityLevel{
	{
		Level: "Nivel 1", Tier: 1, Label: "Inicial",
		Description: "La organización no cuenta con prácticas básicas de ciberseguridad y depende de reacciones improvisadas ante incidentes.",
		Advice:      "Empiece por lo esencial: copias de seguridad periódicas, contraseñas robustas y actualizaciones automáticas en todos los equipos.",
	},
	{
		Level: "Nivel 2", Tier: 2, Label: "Básico",
		Description: "Existen algunas medidas de protección aisladas, pero no se aplican de forma consistente ni están documentadas.",
		Advice:      "Formalice un inventario de equipos y cuentas, y active la autenticación multifactor en los servicios críticos.",
	},
	{
		Level: "Nivel 3", Tier: 3, Label: "Definido",
		Description: "Los controles principales están definidos y la mayoría del personal conoce sus responsabilidades.",
		Advice:      "Documente un plan de respuesta a incidentes y programe formaciones de concienciación al menos una vez al año.",
	},
	{
		Level: "Nivel 4", Tier: 4, Label: "Gestionado",
		Description: "La ciberseguridad se gestiona de forma activa y se revisa periódicamente.",
		Advice:      "Mida la eficacia de los controles con revisiones trimestrales y pruebe la restauración de copias de seguridad.",
	},
	{
		Level: "Nivel 5", Tier: 5, Label: "Optimizado",
		Description: "Las prácticas de seguridad están integradas en la operación diaria y se mejoran de forma continua.",
		Advice:      "Considere una evaluación avanzada para identificar oportunidades de mejora más específicas.",
	},
	{
		Level: "Nivel 5", Tier: 5, Label: "Óptimo",
		Description: "La organización alcanza el máximo nivel de madurez de la evaluación inicial.",
		Advice:      "Mantenga el nivel alcanzado y realice la evaluación avanzada para validar sus controles en profundidad.",
	},
}

var advancedLevels = [6]MaturityLevel{
	{
		Level: "Nivel 1", Tier: 1, Label: "Inicial",
		Description: "Los procesos de seguridad son ad hoc y no existe una gobernanza formal del riesgo tecnológico.",
		Advice:      "Designe un responsable de seguridad y establezca una política de seguridad de la información aprobada por la dirección.",
	},
	{
		Level: "Nivel 2", Tier: 2, Label: "Repetible",
		Description: "Algunos procesos se repiten con éxito, aunque dependen de personas concretas y no de procedimientos.",
		Advice:      "Defina procedimientos de gestión de accesos, parches y proveedores, y registre su ejecución.",
	},
	{
		Level: "Nivel 3", Tier: 3, Label: "Definido",
		Description: "Los procesos están documentados y estandarizados en toda la organización.",
		Advice:      "Implante monitorización centralizada de eventos y un análisis de riesgos formal con revisión anual.",
	},
	{
		Level: "Nivel 4", Tier: 4, Label: "Gestionado",
		Description: "Los controles se miden con indicadores y se auditan de forma regular.",
		Advice:      "Automatice la detección y respuesta, y realice pruebas de intrusión externas al menos una vez al año.",
	},
	{
		Level: "Nivel 5", Tier: 5, Label: "Optimizado",
		Description: "La seguridad se mejora continuamente a partir de métricas, incidentes y tendencias de amenazas.",
		Advice:      "Incorpore ejercicios de simulación de crisis y evalúe a sus proveedores críticos con el mismo rigor.",
	},
	{
		Level: "Nivel 5", Tier: 5, Label: "Óptimo",
		Description: "La organización demuestra una postura de ciberseguridad ejemplar y resiliente.",
		Advice:      "Comparta buenas prácticas con su sector y valore certificaciones como ISO/IEC 27001 para acreditar su madurez.",
	},
}

// Bands returns the classification table for t with the last band closed at
// max. The returned slice is a copy.
func Bands(t EvaluationType, max int) []Band {
	bounds, levels := tableFor(t)
	out := make([]Band, 0, len(levels))
	for i := range levels {
		lvl := levels[i]
		lvl.Color = bandStyles[i].color
		lvl.Emoji = bandStyles[i].emoji
		upper := max
		if i < len(bounds) {
			upper = bounds[i]
		}
		out = append(out, Band{UpperBound: upper, Level: lvl})
	}
	return out
}

func tableFor(t EvaluationType) ([5]int, [6]MaturityLevel) {
	if t == TypeAdvanced {
		return advancedBounds, advancedLevels
	}
	return initialBounds, initialLevels
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookup
// ─────────────────────────────────────────────────────────────────────────────

// Classify maps score to the first band whose upper bound is ≥ score. Scores
// below zero land in the first band and scores above max in the last, so
// the lookup is total.
func Classify(score int, t EvaluationType, max int) MaturityLevel {
	bands := Bands(t, max)
	return bands[bandIndex(bands, score)].Level
}

func bandIndex(bands []Band, score int) int {
	for i, b := range bands {
		if score <= b.UpperBound {
			return i
		}
	}
	return len(bands) - 1
}
