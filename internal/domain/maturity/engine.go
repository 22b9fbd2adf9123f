package maturity

import (
	"fmt"
	"math"
)

// Maximum attainable totals per evaluation type.
//
// The ADVANCED maximum has two historical values, 100 for the scoring API and
// 75 for the maturity-level and report logic. DefaultAdvancedMaxScore is the
// only place the value lives; deployments that need 75 override
// scoring.advanced_max_score in configuration.
const (
	DefaultInitialMaxScore  = 45
	DefaultAdvancedMaxScore = 100
)

// ScoringConfig tunes the engine. Zero fields fall back to defaults.
type ScoringConfig struct {
	InitialMaxScore  int
	AdvancedMaxScore int
	WeakestCount     int
}

// DefaultScoringConfig returns the production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		InitialMaxScore:  DefaultInitialMaxScore,
		AdvancedMaxScore: DefaultAdvancedMaxScore,
		WeakestCount:     DefaultWeakestCount,
	}
}

func (c ScoringConfig) withDefaults() ScoringConfig {
	d := DefaultScoringConfig()
	if c.InitialMaxScore == 0 {
		c.InitialMaxScore = d.InitialMaxScore
	}
	if c.AdvancedMaxScore == 0 {
		c.AdvancedMaxScore = d.AdvancedMaxScore
	}
	if c.WeakestCount == 0 {
		c.WeakestCount = d.WeakestCount
	}
	return c
}

// Validate checks that every max score leaves room for the top band.
func (c ScoringConfig) Validate() error {
	c = c.withDefaults()
	if c.InitialMaxScore <= initialBounds[len(initialBounds)-1] {
		return fmt.Errorf("initial max score %d must exceed %d", c.InitialMaxScore, initialBounds[len(initialBounds)-1])
	}
	if c.AdvancedMaxScore <= advancedBounds[len(advancedBounds)-1] {
		return fmt.Errorf("advanced max score %d must exceed %d", c.AdvancedMaxScore, advancedBounds[len(advancedBounds)-1])
	}
	if c.WeakestCount < 1 {
		return fmt.Errorf("weakest count must be >= 1, got %d", c.WeakestCount)
	}
	return nil
}

// MaxScore returns the configured maximum for t.
func (c ScoringConfig) MaxScore(t EvaluationType) int {
	c = c.withDefaults()
	if t == TypeAdvanced {
		return c.AdvancedMaxScore
	}
	return c.InitialMaxScore
}

// Result is the complete scoring output for one evaluation.
type Result struct {
	Type              EvaluationType   `json:"type"`
	Score             int              `json:"score"`
	MaxScore          int              `json:"maxScore"`
	Percentage        int              `json:"percentage"`
	Level             MaturityLevel    `json:"level"`
	Categories        []CategoryScore  `json:"categories"`
	Recommendations   []Recommendation `json:"recommendations"`
	WeakestCategories []string         `json:"weakestCategories"`
}

// Engine is the configurable scoring entry point. It holds no mutable state.
type Engine struct {
	cfg ScoringConfig
}

// NewEngine builds an Engine, rejecting configurations whose max scores
// would leave the top band empty.
func NewEngine(cfg ScoringConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg.withDefaults()}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() ScoringConfig {
	return e.cfg
}

// Classify classifies score using the configured max for t.
func (e *Engine) Classify(score int, t EvaluationType) MaturityLevel {
	return Classify(score, t, e.cfg.MaxScore(t))
}

// Score aggregates, classifies, generates recommendations and ranks the
// weakest categories for one answer set.
func (e *Engine) Score(quiz *Quiz, answers Answers, t EvaluationType) (*Result, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEvaluationType, t)
	}
	if err := ValidateQuiz(quiz); err != nil {
		return nil, err
	}
	if quiz.Type != "" && quiz.Type != t {
		return nil, fmt.Errorf("%w: quiz is %s, evaluation is %s", ErrQuizTypeMismatch, quiz.Type, t)
	}

	categories := AggregateCategories(quiz.Questions, answers, t)
	recs, err := GenerateRecommendations(quiz.Questions, answers, t)
	if err != nil {
		return nil, err
	}

	max := e.cfg.MaxScore(t)
	score, _ := TotalScore(categories)
	if t == TypeInitial {
		score = clamp(score, 0, max)
	}

	return &Result{
		Type:              t,
		Score:             score,
		MaxScore:          max,
		Percentage:        int(math.Round(100 * float64(score) / float64(max))),
		Level:             Classify(score, t, max),
		Categories:        categories,
		Recommendations:   recs,
		WeakestCategories: WeakestCategories(categories, e.cfg.WeakestCount),
	}, nil
}

var defaultEngine = &Engine{cfg: DefaultScoringConfig()}

// ScoreEvaluation scores answers against quiz with the default configuration.
// It is the single shared entry point for every caller that does not carry its
// own Engine.
func ScoreEvaluation(quiz *Quiz, answers Answers, t EvaluationType) (*Result, error) {
	return defaultEngine.Score(quiz, answers, t)
}
