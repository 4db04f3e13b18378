package cmis

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ObjectCreated does nothing and returns nil
func (n *NoopEventSink) ObjectCreated(ctx context.Context, repositoryID, objectID string) error {
	return nil
}

// ObjectUpdated does nothing and returns nil
func (n *NoopEventSink) ObjectUpdated(ctx context.Context, repositoryID, objectID string) error {
	return nil
}

// ObjectDeleted does nothing and returns nil
func (n *NoopEventSink) ObjectDeleted(ctx context.Context, repositoryID, objectID string) error {
	return nil
}

// LogEventSink writes every event to a structured logger.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink logging to logger, or to the default
// logger when logger is nil.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) ObjectCreated(ctx context.Context, repositoryID, objectID string) error {
	l.logger.InfoContext(ctx, "Object created", "repository_id", repositoryID, "object_id", objectID)
	return nil
}

func (l *LogEventSink) ObjectUpdated(ctx context.Context, repositoryID, objectID string) error {
	l.logger.InfoContext(ctx, "Object updated", "repository_id", repositoryID, "object_id", objectID)
	return nil
}

func (l *LogEventSink) ObjectDeleted(ctx context.Context, repositoryID, objectID string) error {
	l.logger.InfoContext(ctx, "Object deleted", "repository_id", repositoryID, "object_id", objectID)
	return nil
}
