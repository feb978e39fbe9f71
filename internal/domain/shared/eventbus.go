package shared

import "context"

// EventHandler consumes domain events.
type EventHandler interface {
	// Handle processes one event. Returning an error does not stop
	// delivery to other handlers.
	Handle(ctx context.Context, event DomainEvent) error

	// EventTypes names the event types this handler wants. Empty means
	// every event.
	EventTypes() []string
}

// EventPublisher emits domain events to whoever is subscribed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	// Subscribe routes the given event types to handler. With no types the
	// handler receives everything.
	Subscribe(handler EventHandler, eventTypes ...string)

	// Unsubscribe drops a handler's registrations.
	Unsubscribe(handler EventHandler)
}

// EventBus is the full publish/subscribe surface plus lifecycle control for
// background delivery.
type EventBus interface {
	EventPublisher
	EventSubscriber

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
