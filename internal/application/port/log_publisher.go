package port

import (
	"context"
	"time"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a structured record shipped to an external log system.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// LogPublisher ships log entries to an external observability platform (Port).
type LogPublisher interface {
	// Publish sends a single log entry.
	Publish(ctx context.Context, entry LogEntry) error

	// PublishBatch sends multiple entries in one operation. Implementations
	// handle provider batching limits.
	PublishBatch(ctx context.Context, entries []LogEntry) error

	// Flush forces publication of buffered entries. Called on shutdown.
	Flush(ctx context.Context) error
}
