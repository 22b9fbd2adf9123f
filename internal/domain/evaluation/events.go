package evaluation

import (
	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// EventTypeCompleted is the event type emitted after every (re)scoring.
const EventTypeCompleted = "evaluation.completed"

// CompletedEvent announces a scored evaluation to downstream consumers
// (specialist matching, report rendering).
type CompletedEvent struct {
	common.BaseEvent
	EvaluationID      string                  `json:"evaluationId"`
	ProfileID         common.ProfileID        `json:"profileId"`
	Type              maturity.EvaluationType `json:"type"`
	Score             int                     `json:"score"`
	MaxScore          int                     `json:"maxScore"`
	Level             string                  `json:"level"`
	Label             string                  `json:"label"`
	WeakestCategories []string                `json:"weakestCategories"`
}

// NewCompletedEvent builds the event from an evaluation and its result.
func NewCompletedEvent(e *Evaluation, res *maturity.Result) *CompletedEvent {
	return &CompletedEvent{
		BaseEvent:         common.NewBaseEvent(e.ID.String()),
		EvaluationID:      e.ID.String(),
		ProfileID:         e.ProfileID,
		Type:              e.Type,
		Score:             res.Score,
		MaxScore:          res.MaxScore,
		Level:             res.Level.Level,
		Label:             res.Level.Label,
		WeakestCategories: res.WeakestCategories,
	}
}
