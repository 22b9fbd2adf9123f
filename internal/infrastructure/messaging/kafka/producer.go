package kafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/SIMPLE/internal/config"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeMessageQueueError, "producer closed")
	ErrPublishFailed  = errors.New(errors.ErrCodeMessageQueueError, "publish failed")
	ErrInvalidMessage = errors.New(errors.ErrCodeValidation, "invalid message")
)

// DefaultMaxMessageBytes caps a single message value.
const DefaultMaxMessageBytes = 1 << 20

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the publishing side of Producer.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// Producer publishes messages to Kafka.
type Producer struct {
	writer          WriterInterface
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	maxMessageBytes int
	closed          atomic.Bool
	sent            atomic.Int64
}

// NewProducer builds a hash-balanced writer from cfg.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger, metrics *prometheus.AppMetrics) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka max_retries must be >= 0")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		Transport: &kafka.Transport{
			DialTimeout: 10 * time.Second,
			ClientID:    cfg.ClientID,
		},
	}
	return NewProducerWithWriter(writer, logger, metrics), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w WriterInterface, logger logging.Logger, metrics *prometheus.AppMetrics) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{
		writer:          w,
		logger:          logger,
		metrics:         metrics,
		maxMessageBytes: DefaultMaxMessageBytes,
	}
}

// requiredAcks maps the config value onto kafka-go. Zero means leader ack.
func requiredAcks(n int) kafka.RequiredAcks {
	if n < 0 {
		return kafka.RequireAll
	}
	return kafka.RequireOne
}

// Publish writes a single message synchronously.
func (p *Producer) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg == nil || msg.Topic == "" {
		return fmt.Errorf("%w: topic required", ErrInvalidMessage)
	}
	if len(msg.Value) == 0 {
		return fmt.Errorf("%w: value required", ErrInvalidMessage)
	}
	if len(msg.Value) > p.maxMessageBytes {
		return fmt.Errorf("%w: message too large", ErrInvalidMessage)
	}

	start := time.Now()
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg))
	prometheus.RecordEventPublished(p.metrics, msg.Topic, err)
	if err != nil {
		p.logger.Error("publish failed",
			logging.String(logging.KeyTopic, msg.Topic),
			logging.Err(err))
		return fmt.Errorf("%w: %s: %v", ErrPublishFailed, msg.Topic, err)
	}
	p.sent.Add(1)
	p.logger.Debug("message published",
		logging.String(logging.KeyTopic, msg.Topic),
		logging.Duration("latency", time.Since(start)))
	return nil
}

// PublishEvent wraps payload in an EventEnvelope and publishes it keyed by key.
func (p *Producer) PublishEvent(ctx context.Context, topic, key, eventType, source string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, source, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic, []byte(key))
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.sent.Load() }

// Close flushes and closes the writer. Calling it twice is a no-op.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(msg *common.ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}
