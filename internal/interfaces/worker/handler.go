// Package worker holds the Kafka handlers run by cmd/worker.
package worker

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/redis"
	"github.com/turtacn/SIMPLE/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// Options configures the handler.
type Options struct {
	// Timeout bounds one message; zero means no bound beyond the consumer's.
	Timeout time.Duration
	LockTTL time.Duration
}

// Handler reacts to evaluation.completed: it warms the specialist cache and
// archives the HTML report.
type Handler struct {
	matcher matching.Service
	reports reporting.Service
	locker  redis.Locker
	opts    Options
	logger  logging.Logger
}

// NewHandler wires the handler. locker may be nil for single-replica setups.
func NewHandler(matcher matching.Service, reports reporting.Service, locker redis.Locker, opts Options, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = redis.DefaultLockTTL
	}
	return &Handler{
		matcher: matcher,
		reports: reports,
		locker:  locker,
		opts:    opts,
		logger:  logger.Named("worker"),
	}
}

// Register subscribes the handler on c.
func (h *Handler) Register(c *kafka.Consumer) {
	c.Subscribe(kafka.TopicEvaluationCompleted, h.HandleEvaluationCompleted)
}

// HandleEvaluationCompleted is a common.MessageHandler. A returned error makes
// the consumer retry and eventually dead-letter the message.
func (h *Handler) HandleEvaluationCompleted(ctx context.Context, msg *common.Message) error {
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != evaluation.EventTypeCompleted {
		h.logger.Warn("ignoring unexpected event type",
			logging.String(logging.KeyTopic, msg.Topic),
			logging.String("event_type", env.EventType))
		return nil
	}
	evt, err := kafka.DecodeCompletedEvent(env)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(evt.EvaluationID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid evaluation id").WithDetail(evt.EvaluationID)
	}
	log := h.logger.With(
		logging.String(logging.KeyEvaluationID, evt.EvaluationID),
		logging.String(logging.KeyProfileID, string(evt.ProfileID)))

	// Cache warming is best effort; the report is what must not be lost.
	if err := h.matcher.HandleEvaluationCompleted(ctx, evt); err != nil {
		log.Warn("failed to precompute specialist matches", logging.Err(err))
	}

	return h.archive(ctx, id, log)
}

func (h *Handler) archive(ctx context.Context, id uuid.UUID, log logging.Logger) error {
	if h.locker != nil {
		mu, err := h.locker.TryLock(ctx, "report:"+id.String(), h.opts.LockTTL)
		if stderrors.Is(err, redis.ErrLockNotAcquired) {
			log.Debug("report is being archived elsewhere")
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release report lock", logging.Err(err))
			}
		}()
	}

	err := h.reports.Archive(ctx, id)
	if errors.IsNotFound(err) {
		// Deleted between publish and consume; nothing to archive.
		log.Warn("evaluation vanished before archiving", logging.Err(err))
		return nil
	}
	return err
}
