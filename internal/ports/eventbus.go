// Package ports defines the EventBus interface for event-driven communication.
package ports

import (
	"github.com/evxf/melodia/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// It decouples event producers (services) from event consumers (presentation,
// logging, analytics).
//
// Thread-safety: implementations must be thread-safe; events may be published
// and subscribed from multiple goroutines simultaneously.
type EventBus interface {
	// Publish delivers an event to all subscribers of its type. Handlers
	// should process events quickly or dispatch to a background goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type and
	// returns a SubscriptionID for later removal.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler. Unknown IDs are
	// a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event regardless
	// of type. Useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether any handler listens for the given type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the bus. After Close, publishes are dropped.
	Close() error
}
