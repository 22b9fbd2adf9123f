package kafka

import (
	"context"

	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
)

// EventProducer is the envelope-publishing side of Producer.
type EventProducer interface {
	PublishEvent(ctx context.Context, topic, key, eventType, source string, payload interface{}) error
}

// EvaluationPublisher publishes evaluation events keyed by profile, so that
// one profile's events stay ordered within a partition.
type EvaluationPublisher struct {
	producer EventProducer
	source   string
}

// NewEvaluationPublisher stamps source on every envelope.
func NewEvaluationPublisher(producer EventProducer, source string) *EvaluationPublisher {
	return &EvaluationPublisher{producer: producer, source: source}
}

func (p *EvaluationPublisher) PublishCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error {
	return p.producer.PublishEvent(ctx, TopicEvaluationCompleted, string(evt.ProfileID), evaluation.EventTypeCompleted, p.source, evt)
}

// DecodeCompletedEvent extracts a CompletedEvent from a consumed message.
func DecodeCompletedEvent(env *EventEnvelope) (*evaluation.CompletedEvent, error) {
	var evt evaluation.CompletedEvent
	if err := env.DecodePayload(&evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
