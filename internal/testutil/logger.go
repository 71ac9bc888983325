// Package testutil provides shared test doubles for ToxInsight packages.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
)

// LogMessage represents a single entry captured by RecordingLogger.
type LogMessage struct {
	Level   string
	Message string
	Name    string
	Fields  []logging.Field
}

// Field returns the value of the first field named key, or nil.
func (m LogMessage) Field(key string) interface{} {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

type logSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children created by With, Named, WithContext and WithError share the parent's
// sink and carry their accumulated fields.
type RecordingLogger struct {
	sink   *logSink
	name   string
	fields []logging.Field
}

var _ logging.Logger = (*RecordingLogger)(nil)

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{sink: &logSink{}}
}

func (l *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = append(l.sink.messages, LogMessage{Level: level, Message: msg, Name: l.name, Fields: all})
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Field) { l.log("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logging.Field)  { l.log("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logging.Field)  { l.log("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logging.Field) { l.log("error", msg, fields) }

// Fatal records the entry without exiting.
func (l *RecordingLogger) Fatal(msg string, fields ...logging.Field) { l.log("fatal", msg, fields) }

func (l *RecordingLogger) child(name string, extra ...logging.Field) *RecordingLogger {
	fields := make([]logging.Field, 0, len(l.fields)+len(extra))
	fields = append(fields, l.fields...)
	fields = append(fields, extra...)
	return &RecordingLogger{sink: l.sink, name: name, fields: fields}
}

func (l *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	return l.child(l.name, fields...)
}

func (l *RecordingLogger) Named(name string) logging.Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return l.child(name)
}

func (l *RecordingLogger) WithContext(ctx context.Context) logging.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return l.child(l.name, logging.String(logging.FieldRequestID, id))
	}
	return l
}

func (l *RecordingLogger) WithError(err error) logging.Logger {
	if err == nil {
		return l
	}
	return l.child(l.name, logging.Err(err))
}

func (l *RecordingLogger) Sync() error { return nil }

// Messages returns a copy of all recorded entries.
func (l *RecordingLogger) Messages() []LogMessage {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]LogMessage, len(l.sink.messages))
	copy(out, l.sink.messages)
	return out
}

// Find returns the first entry with the given level and message.
func (l *RecordingLogger) Find(level, msg string) (LogMessage, bool) {
	for _, m := range l.Messages() {
		if m.Level == level && m.Message == msg {
			return m, true
		}
	}
	return LogMessage{}, false
}

// HasMessage reports whether an entry with the given level and message exists.
func (l *RecordingLogger) HasMessage(level, msg string) bool {
	_, ok := l.Find(level, msg)
	return ok
}

// Clear removes all recorded entries.
func (l *RecordingLogger) Clear() {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.messages = l.sink.messages[:0]
}

//Personal.AI order the ending
