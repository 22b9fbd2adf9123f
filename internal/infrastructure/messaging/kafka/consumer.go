package kafka

import (
	"context"
	"sync"
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
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrNoTopics       = errors.New(errors.ErrCodeValidation, "consumer needs at least one topic")
)

// RetryConfig defines how a failing handler is retried before the message is
// dead-lettered.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	// FetchErrorBackoff is the pause after a failed fetch.
	FetchErrorBackoff time.Duration
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if r.RetryBackoff <= 0 {
		r.RetryBackoff = time.Second
	}
	if r.MaxRetryBackoff <= 0 {
		r.MaxRetryBackoff = 30 * time.Second
	}
	if r.FetchErrorBackoff <= 0 {
		r.FetchErrorBackoff = time.Second
	}
	return r
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Retried      int64
	DeadLettered int64
	Dropped      int64
}

// Consumer reads a consumer group and dispatches messages to per-topic
// handlers. Offsets are committed after the handler succeeds or the message
// has been dead-lettered, so a message is processed at least once.
type Consumer struct {
	reader     ReaderInterface
	deadLetter Publisher
	retry      RetryConfig
	group      string
	logger     logging.Logger
	metrics    *prometheus.AppMetrics

	mu       sync.RWMutex
	handlers map[string]common.MessageHandler

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	consumed, processed, retried, deadLettered, dropped atomic.Int64
}

// NewConsumer joins cfg.ConsumerGroup on topics. Dead letters are written
// with a dedicated producer.
func NewConsumer(cfg config.KafkaConfig, topics []string, logger logging.Logger, metrics *prometheus.AppMetrics) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka consumer group required")
	}
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		MaxWait:        time.Second,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
		Dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	dlq, err := NewProducer(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	c := NewConsumerWithReader(kafka.NewReader(readerCfg), dlq, RetryConfig{MaxRetries: cfg.MaxRetries}, logger, metrics)
	c.group = cfg.ConsumerGroup
	return c, nil
}

// NewConsumerWithReader wires a consumer around an existing reader. A nil
// deadLetter drops messages whose retries are exhausted.
func NewConsumerWithReader(reader ReaderInterface, deadLetter Publisher, retry RetryConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		reader:     reader,
		deadLetter: deadLetter,
		retry:      retry.withDefaults(),
		logger:     logger,
		metrics:    metrics,
		handlers:   make(map[string]common.MessageHandler),
	}
}

// Subscribe registers the handler for topic, replacing any previous one.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String(logging.KeyTopic, topic))
}

// Run consumes until ctx is cancelled. It returns nil on cancellation.
func (c *Consumer) Run(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.logger.Info("kafka consumer started", logging.String("group", c.group))
	c.consumeLoop(ctx)
	c.logger.Info("kafka consumer stopped", logging.Int64("consumed", c.consumed.Load()))
	return nil
}

// Start runs the consumer in the background until Close.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := c.Run(ctx); err != nil {
			c.logger.Error("kafka consumer exited", logging.Err(err))
		}
	}()
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch message failed", logging.Err(err))
			if !sleep(ctx, c.retry.FetchErrorBackoff) {
				return
			}
			continue
		}
		c.consumed.Add(1)

		msg := fromKafkaMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler for topic", logging.String(logging.KeyTopic, m.Topic))
			c.dropped.Add(1)
		} else if !c.process(ctx, msg, handler) {
			// Cancelled mid-retry: leave the offset uncommitted for redelivery.
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				logging.String(logging.KeyTopic, m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// process runs handler with exponential backoff and dead-letters the message
// once retries are exhausted. It returns false only if ctx was cancelled
// before the message was settled.
func (c *Consumer) process(ctx context.Context, msg *common.Message, handler common.MessageHandler) bool {
	start := time.Now()
	err := handler(ctx, msg)
	backoff := c.retry.RetryBackoff
	for attempt := 0; err != nil && attempt < c.retry.MaxRetries; attempt++ {
		c.retried.Add(1)
		c.logger.Warn("handler failed, retrying",
			logging.String(logging.KeyTopic, msg.Topic),
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", backoff),
			logging.Err(err))
		if !sleep(ctx, backoff) {
			return false
		}
		err = handler(ctx, msg)
		backoff *= 2
		if backoff > c.retry.MaxRetryBackoff {
			backoff = c.retry.MaxRetryBackoff
		}
	}
	prometheus.RecordEventConsumed(c.metrics, msg.Topic, time.Since(start), err)
	if err == nil {
		c.processed.Add(1)
		return true
	}

	c.logger.Error("message processing failed after retries",
		logging.String(logging.KeyTopic, msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))
	c.sendToDeadLetter(ctx, msg, err)
	return true
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *common.Message, cause error) {
	if c.deadLetter == nil {
		c.dropped.Add(1)
		return
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = cause.Error()

	dl := &common.ProducerMessage{
		Topic:   DeadLetterTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.Error("failed to dead-letter message",
			logging.String(logging.KeyTopic, dl.Topic),
			logging.Err(err))
		c.dropped.Add(1)
		return
	}
	c.deadLettered.Add(1)
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Dropped:      c.dropped.Load(),
	}
}

// Close stops a consumer started with Start and closes the reader and the
// dead-letter producer.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
	}
	var errs []error
	if err := c.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := c.deadLetter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(errs[0], errors.ErrCodeMessageQueueError, "failed to close consumer")
	}
	return nil
}

func fromKafkaMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// sleep waits for d or ctx, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
