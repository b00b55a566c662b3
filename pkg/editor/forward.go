package editor

import (
	"context"
	"log/slog"

	"github.com/dukex/nodegraph/pkg/eventbus"
	"github.com/dukex/nodegraph/pkg/events"
	"github.com/dukex/nodegraph/pkg/graph"
)

// forward translates a store event into its bus event. Node moves are not published.
func (e *Editor) forward(event graph.Event) {
	if e.bus == nil {
		return
	}

	module := e.Current()
	key := event.NodeID

	var out eventbus.Event

	switch event.Type {
	case graph.EventNodeCreated:
		out = events.NodeCreated{
			BaseEvent: events.NewBaseEvent(events.NodeCreatedEvent, module),
			NodeID:    event.NodeID,
			Kind:      event.Kind,
			Position:  event.Position,
		}
	case graph.EventNodeRemoved:
		out = events.NodeRemoved{
			BaseEvent: events.NewBaseEvent(events.NodeRemovedEvent, module),
			NodeID:    event.NodeID,
			Kind:      event.Kind,
		}
	case graph.EventConnectionCreated:
		key = event.Connection.ID
		out = events.ConnectionCreated{
			BaseEvent:  events.NewBaseEvent(events.ConnectionCreatedEvent, module),
			Connection: *event.Connection,
		}
	case graph.EventConnectionRemoved:
		key = event.Connection.ID
		out = events.ConnectionRemoved{
			BaseEvent:  events.NewBaseEvent(events.ConnectionRemovedEvent, module),
			Connection: *event.Connection,
		}
	case graph.EventControlChanged:
		out = events.ControlChanged{
			BaseEvent: events.NewBaseEvent(events.ControlChangedEvent, module),
			NodeID:    event.NodeID,
			Control:   event.Control,
			Value:     event.Value,
		}
	case graph.EventCleared:
		key = module
		out = events.GraphCleared{BaseEvent: events.NewBaseEvent(events.GraphClearedEvent, module)}
	default:
		return
	}

	e.publish(context.Background(), key, out)
}

func (e *Editor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event",
			slog.String("event_type", string(event.GetType())),
			slog.Any("error", err),
		)
	}
}
