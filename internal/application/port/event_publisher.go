package port

import (
	"context"
)

// EventPublisher publishes domain events to a message broker (Port).
type EventPublisher interface {
	// PublishEvent publishes an event to the given subject.
	PublishEvent(ctx context.Context, subject string, event interface{}) error

	// Close closes the broker connection.
	Close() error
}
