// Package eventbus carries editor events to external observers.
package eventbus

import (
	"context"

	"github.com/dukex/nodegraph/pkg/events"
)

// Event is anything published on the bus. The type travels in message
// metadata so subscribers can decode the payload into the matching struct.
type Event interface {
	GetType() events.EventType
}

// EventPublisher is the only side the editor needs. key is a node, connection
// or module identifier and is stored in message metadata.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers handler for eventType. A second registration for the
	// same type replaces the first. Events without a handler are acked and dropped.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event struct, for example
// *events.ModuleOpened.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
