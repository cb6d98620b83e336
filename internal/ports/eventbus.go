// Package ports defines the EventBus interface for event-driven communication.
package ports

import (
	"github.com/niarxxi/webmusic/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// It decouples event producers (services) from consumers (UI layer, media
// binding, session persistence, logging).
//
// Thread-safety: implementations must be thread-safe; events may be published
// and subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In a service: publish an event
//	bus.Publish(domain.NewSongChangedEvent(&song, true))
//
//	// In a consumer: subscribe to events
//	subID := bus.Subscribe(domain.EventSongChanged, func(event domain.Event) {
//	    e := event.(domain.SongChangedEvent)
//	    _ = e
//	})
//
//	// Later: unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type. Handlers of
	// a synchronous implementation run in subscription order on the calling
	// goroutine; they should return quickly.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// The same handler can be registered multiple times; each registration
	// gets its own SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler.
	// Unknown or already removed IDs are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event regardless
	// of type. Useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether any subscription exists for the type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and clears all subscriptions.
	Close() error
}
