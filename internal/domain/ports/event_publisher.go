package ports

import (
	"context"

	"github.com/engineo/backend/internal/domain/events"
)

// EventHandler processes a published event payload
type EventHandler func(ctx context.Context, payload interface{}) error

// EventPublisher decouples services from the in-process event bus
type EventPublisher interface {
	Publish(ctx context.Context, eventType events.EventType, payload interface{}) error
	PublishAsync(eventType events.EventType, payload interface{})
}
