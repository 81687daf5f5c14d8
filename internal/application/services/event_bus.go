package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/engineo/backend/internal/domain/events"
	"github.com/engineo/backend/internal/domain/ports"
)

// EventType is an alias to the domain type
type EventType = events.EventType

// EventHandler is a function that handles an event.
// Using the type from ports to ensure interface compatibility.
type EventHandler = ports.EventHandler

// PlatformEvent wraps a payload published on the bus
type PlatformEvent struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// CrawlCompletedPayload is published after a crawl and audit finish
type CrawlCompletedPayload struct {
	ProjectID   string `json:"project_id"`
	ScopeType   string `json:"scope_type"`
	Crawled     int    `json:"crawled"`
	Removed     int    `json:"removed"`
	IssuesFound int    `json:"issues_found"`
}

// RunCompletedPayload is published when a playbook run reaches a terminal state
type RunCompletedPayload struct {
	ProjectID   string `json:"project_id"`
	RunID       string `json:"run_id"`
	PlaybookKey string `json:"playbook_key"`
	Status      string `json:"status"`
}

// DraftAppliedPayload is published after a draft is written to the storefront
type DraftAppliedPayload struct {
	ProjectID   string `json:"project_id"`
	DraftID     string `json:"draft_id"`
	PlaybookKey string `json:"playbook_key"`
	ScopeType   string `json:"scope_type"`
	ScopeID     string `json:"scope_id"`
}

// EventBus manages the in-process publish-subscribe system.
// It implements ports.EventPublisher.
type EventBus struct {
	handlers map[EventType][]EventHandler
	mu       sync.RWMutex
}

var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish publishes an event to all registered handlers in sequence
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.RLock()
	handlers := eb.handlers[eventType]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	event := PlatformEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	for _, handler := range handlers {
		if err := handler(ctx, event.Payload); err != nil {
			return fmt.Errorf("EventBus handler error for %s: %w", eventType, err)
		}
	}

	return nil
}

// PublishAsync publishes an event asynchronously
func (eb *EventBus) PublishAsync(eventType EventType, payload interface{}) {
	go func() {
		// Async events are decoupled from the request/tx
		if err := eb.Publish(context.Background(), eventType, payload); err != nil {
			log.Printf("EventBus async publish error: %v", err)
		}
	}()
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers = make(map[EventType][]EventHandler)
}
