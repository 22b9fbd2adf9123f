package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/application/matching"
	"github.com/turtacn/SIMPLE/internal/application/reporting"
	"github.com/turtacn/SIMPLE/internal/domain/evaluation"
	"github.com/turtacn/SIMPLE/internal/infrastructure/database/redis"
	"github.com/turtacn/SIMPLE/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SIMPLE/internal/testutil"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Recommend(ctx context.Context, actor common.Actor, id uuid.UUID, limit int) (*matching.Recommendation, error) {
	args := m.Called(ctx, actor, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matching.Recommendation), args.Error(1)
}

func (m *MockMatcher) HandleEvaluationCompleted(ctx context.Context, evt *evaluation.CompletedEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) Report(ctx context.Context, actor common.Actor, id uuid.UUID, f reporting.Format) (*reporting.Report, error) {
	args := m.Called(ctx, actor, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Report), args.Error(1)
}

func (m *MockReports) Archive(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReports) Archived(ctx context.Context, actor common.Actor, id uuid.UUID) (*reporting.Report, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Report), args.Error(1)
}

func completedMessage(t *testing.T, eventType string, evt *evaluation.CompletedEvent) *common.Message {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", evt)
	require.NoError(t, err)
	pm, err := env.ToMessage(kafka.TopicEvaluationCompleted, []byte(evt.ProfileID))
	require.NoError(t, err)
	return &common.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func newLocker(t *testing.T) (*miniredis.Miniredis, redis.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, redis.NewLocker(redis.NewClientWithUniversal(rdb, nil), "simple:")
}

func sampleEvent() *evaluation.CompletedEvent {
	return &evaluation.CompletedEvent{
		EvaluationID:      uuid.NewString(),
		ProfileID:         "p-1",
		Score:             20,
		MaxScore:          45,
		WeakestCategories: []string{"Red", "Accesos"},
	}
}

func TestHandleEvaluationCompleted(t *testing.T) {
	mr, locker := newLocker(t)
	matcher, reports := new(MockMatcher), new(MockReports)
	evt := sampleEvent()
	id := uuid.MustParse(evt.EvaluationID)

	matcher.On("HandleEvaluationCompleted", mock.Anything, mock.MatchedBy(func(e *evaluation.CompletedEvent) bool {
		return e.EvaluationID == evt.EvaluationID && len(e.WeakestCategories) == 2
	})).Return(nil)
	reports.On("Archive", mock.Anything, id).Run(func(mock.Arguments) {
		assert.True(t, mr.Exists("simple:lock:report:"+evt.EvaluationID), "archive runs under the lock")
	}).Return(nil)

	h := NewHandler(matcher, reports, locker, Options{}, nil)
	require.NoError(t, h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, evt)))

	matcher.AssertExpectations(t)
	reports.AssertExpectations(t)
	assert.False(t, mr.Exists("simple:lock:report:"+evt.EvaluationID), "lock released")
}

func TestHandleEvaluationCompleted_LockHeld(t *testing.T) {
	_, locker := newLocker(t)
	matcher, reports := new(MockMatcher), new(MockReports)
	evt := sampleEvent()
	matcher.On("HandleEvaluationCompleted", mock.Anything, mock.Anything).Return(nil)

	held, err := locker.TryLock(context.Background(), "report:"+evt.EvaluationID, 0)
	require.NoError(t, err)
	defer held.Unlock(context.Background())

	h := NewHandler(matcher, reports, locker, Options{}, nil)
	require.NoError(t, h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, evt)))
	reports.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}

func TestHandleEvaluationCompleted_MatchFailureStillArchives(t *testing.T) {
	log := testutil.NewMockLogger()
	matcher, reports := new(MockMatcher), new(MockReports)
	evt := sampleEvent()
	matcher.On("HandleEvaluationCompleted", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeSpecialistLookupFailed, "down"))
	reports.On("Archive", mock.Anything, uuid.MustParse(evt.EvaluationID)).Return(nil)

	h := NewHandler(matcher, reports, nil, Options{}, log)
	require.NoError(t, h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, evt)))

	assert.True(t, log.HasMessage("warn", "failed to precompute specialist matches"))
	reports.AssertExpectations(t)
}

func TestHandleEvaluationCompleted_ArchiveErrorIsRetried(t *testing.T) {
	matcher, reports := new(MockMatcher), new(MockReports)
	evt := sampleEvent()
	matcher.On("HandleEvaluationCompleted", mock.Anything, mock.Anything).Return(nil)
	reports.On("Archive", mock.Anything, mock.Anything).Return(errors.New(errors.ErrCodeDatabaseError, "down"))

	h := NewHandler(matcher, reports, nil, Options{}, nil)
	err := h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, evt))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestHandleEvaluationCompleted_EvaluationGone(t *testing.T) {
	matcher, reports := new(MockMatcher), new(MockReports)
	matcher.On("HandleEvaluationCompleted", mock.Anything, mock.Anything).Return(nil)
	reports.On("Archive", mock.Anything, mock.Anything).Return(evaluation.ErrNotFound)

	h := NewHandler(matcher, reports, nil, Options{}, nil)
	assert.NoError(t, h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, sampleEvent())))
}

func TestHandleEvaluationCompleted_IgnoresOtherEvents(t *testing.T) {
	log := testutil.NewMockLogger()
	matcher, reports := new(MockMatcher), new(MockReports)

	h := NewHandler(matcher, reports, nil, Options{}, log)
	require.NoError(t, h.HandleEvaluationCompleted(context.Background(), completedMessage(t, "evaluation.deleted", sampleEvent())))

	matcher.AssertNotCalled(t, "HandleEvaluationCompleted", mock.Anything, mock.Anything)
	assert.True(t, log.HasMessage("warn", "ignoring unexpected event type"))
}

func TestHandleEvaluationCompleted_Malformed(t *testing.T) {
	h := NewHandler(new(MockMatcher), new(MockReports), nil, Options{}, nil)

	err := h.HandleEvaluationCompleted(context.Background(), &common.Message{Topic: kafka.TopicEvaluationCompleted, Value: []byte("{")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	evt := sampleEvent()
	evt.EvaluationID = "not-a-uuid"
	err = h.HandleEvaluationCompleted(context.Background(), completedMessage(t, evaluation.EventTypeCompleted, evt))
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	empty, _ := json.Marshal(map[string]any{"event_type": evaluation.EventTypeCompleted})
	err = h.HandleEvaluationCompleted(context.Background(), &common.Message{Value: empty})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
