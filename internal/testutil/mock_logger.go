// Package testutil provides shared test helpers.
package testutil

import (
	"sync"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
)

// LogMessage is one entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type logSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// MockLogger implements logging.Logger and records every entry. Children
// created with With or Named write to the same record.
type MockLogger struct {
	sink   *logSink
	name   string
	fields []logging.Field
}

// NewMockLogger returns an empty recording logger.
func NewMockLogger() *MockLogger {
	return &MockLogger{sink: &logSink{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.messages = append(m.sink.messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

// Fatal records the entry; it never exits.
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := *m
	child.fields = append(append([]logging.Field{}, m.fields...), fields...)
	return &child
}

func (m *MockLogger) Named(name string) logging.Logger {
	child := *m
	if m.name == "" {
		child.name = name
	} else {
		child.name = m.name + "." + name
	}
	return &child
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of all recorded entries.
func (m *MockLogger) GetMessages() []LogMessage {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	out := make([]LogMessage, len(m.sink.messages))
	copy(out, m.sink.messages)
	return out
}

// Clear drops all recorded entries.
func (m *MockLogger) Clear() {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	m.sink.messages = m.sink.messages[:0]
}

// HasMessage reports whether an entry with level and msg was recorded.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first entry with level and msg.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	for _, logged := range m.GetMessages() {
		if logged.Level == level && logged.Message == msg {
			return logged, true
		}
	}
	return LogMessage{}, false
}

// Count returns how many entries were recorded at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, logged := range m.GetMessages() {
		if logged.Level == level {
			n++
		}
	}
	return n
}

var _ logging.Logger = (*MockLogger)(nil)
