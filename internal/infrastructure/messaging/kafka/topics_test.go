package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

type mockKafkaConn struct {
	created    []kafka.TopicConfig
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
	closed     bool
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}

func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error {
	m.closed = true
	return nil
}

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "simple.evaluation.completed.dlq", DeadLetterTopic(TopicEvaluationCompleted))
}

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics()
	require.Len(t, topics, 2)
	assert.Equal(t, TopicEvaluationCompleted, topics[0].Name)
	assert.Equal(t, DeadLetterTopic(TopicEvaluationCompleted), topics[1].Name)
	for _, tc := range topics {
		assert.Positive(t, tc.NumPartitions)
		assert.Positive(t, tc.ReplicationFactor)
	}
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	type payload struct {
		EvaluationID string `json:"evaluationId"`
		Score        int    `json:"score"`
	}
	env, err := NewEventEnvelope("evaluation.completed", "simple-apiserver", payload{EvaluationID: "e-1", Score: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	pm, err := env.ToMessage(TopicEvaluationCompleted, []byte("profile-1"))
	require.NoError(t, err)
	assert.Equal(t, TopicEvaluationCompleted, pm.Topic)
	assert.Equal(t, []byte("profile-1"), pm.Key)
	assert.Equal(t, "evaluation.completed", pm.Headers[HeaderEventType])
	assert.Equal(t, "simple-apiserver", pm.Headers[HeaderSource])

	decoded, err := MessageToEventEnvelope(&common.Message{Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	var p payload
	require.NoError(t, decoded.DecodePayload(&p))
	assert.Equal(t, payload{EvaluationID: "e-1", Score: 30}, p)
}

func TestEventEnvelope_DecodeErrors(t *testing.T) {
	_, err := MessageToEventEnvelope(&common.Message{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = MessageToEventEnvelope(&common.Message{Value: []byte("{oops")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))

	env := &EventEnvelope{Payload: []byte("null")}
	var v map[string]interface{}
	assert.Error(t, env.DecodePayload(&v))

	_, err = NewEventEnvelope("x", "y", make(chan int))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func TestTopicManager_CreateTopic(t *testing.T) {
	conn := &mockKafkaConn{}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())

	err := m.CreateTopic(context.Background(), common.TopicConfig{
		Name: "t", NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 1000, CleanupPolicy: "delete",
	})
	require.NoError(t, err)
	require.Len(t, conn.created, 1)
	assert.Equal(t, "t", conn.created[0].Topic)
	assert.Equal(t, []kafka.ConfigEntry{
		{ConfigName: "retention.ms", ConfigValue: "1000"},
		{ConfigName: "cleanup.policy", ConfigValue: "delete"},
	}, conn.created[0].ConfigEntries)
}

func TestTopicManager_CreateTopic_Validation(t *testing.T) {
	m := NewTopicManagerWithConn(&mockKafkaConn{}, nil)
	ctx := context.Background()

	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{Name: "t", ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(ctx, common.TopicConfig{Name: "t", NumPartitions: 1}))
}

func TestTopicManager_CreateTopic_AlreadyExists(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(...kafka.TopicConfig) error { return kafka.TopicAlreadyExists }}
	m := NewTopicManagerWithConn(conn, nil)
	assert.NoError(t, m.CreateTopic(context.Background(), common.TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestTopicManager_CreateTopic_FailureButExists(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(...kafka.TopicConfig) error { return errors.New("controller moved") },
		readFunc: func(...string) ([]kafka.Partition, error) {
			return []kafka.Partition{{Topic: "t"}}, nil
		},
	}
	m := NewTopicManagerWithConn(conn, nil)
	assert.NoError(t, m.CreateTopic(context.Background(), common.TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestTopicManager_CreateTopic_Failure(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(...kafka.TopicConfig) error { return errors.New("broker down") }}
	m := NewTopicManagerWithConn(conn, nil)
	err := m.CreateTopic(context.Background(), common.TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMessageQueueError))
}

func TestTopicManager_EnsureDefaultTopics(t *testing.T) {
	conn := &mockKafkaConn{}
	m := NewTopicManagerWithConn(conn, nil)

	require.NoError(t, m.EnsureDefaultTopics(context.Background()))
	assert.Len(t, conn.created, 2)

	require.NoError(t, m.Close())
	assert.True(t, conn.closed)
}

func TestNewTopicManager_NoBrokers(t *testing.T) {
	_, err := NewTopicManager(nil, nil)
	assert.Error(t, err)
}
