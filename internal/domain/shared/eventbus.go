package shared

import "context"

// EventHandler handles domain events delivered as notifications
type EventHandler interface {
	// Handle processes a domain event. A returned error aborts the
	// unit of work that published the event.
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events synchronously to their handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandlerFunc adapts a function to EventHandler. It declares no event
// types, so it receives every event unless subscribed to specific ones.
type EventHandlerFunc func(ctx context.Context, event DomainEvent) error

// Handle implements EventHandler
func (f EventHandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	return f(ctx, event)
}

// EventTypes implements EventHandler
func (f EventHandlerFunc) EventTypes() []string {
	return nil
}

// EventPublisherFunc adapts a function to EventPublisher
type EventPublisherFunc func(ctx context.Context, events ...DomainEvent) error

// Publish implements EventPublisher
func (f EventPublisherFunc) Publish(ctx context.Context, events ...DomainEvent) error {
	return f(ctx, events...)
}
