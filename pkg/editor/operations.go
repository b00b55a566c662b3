package editor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/dukex/nodegraph/pkg/events"
	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// DefaultControls returns the controls a node of kind starts with when none are given.
func DefaultControls(kind models.Kind) map[string]any {
	switch kind {
	case models.KindConstant:
		return map[string]any{"value": 0.0}
	case models.KindInput, models.KindOutput:
		return map[string]any{"key": "key"}
	case models.KindModule:
		return map[string]any{"name": ""}
	default:
		return map[string]any{}
	}
}

// Modules returns the names of every known module.
func (e *Editor) Modules() []string {
	return e.modules.Names()
}

// Open replaces the graph with the named module. The module becomes current only if it applied cleanly.
func (e *Editor) Open(ctx context.Context, name string) error {
	return e.submit(ctx, func(ctx context.Context) error {
		return e.open(ctx, name)
	})
}

func (e *Editor) open(ctx context.Context, name string) error {
	e.setCurrent("")

	if err := e.modules.Apply(ctx, name, e.store); err != nil {
		e.logger.WarnContext(ctx, "Failed to open module", slog.String("module", name), slog.Any("error", err))

		return err
	}

	e.setCurrent(name)

	nodes, conns := e.store.Len()
	e.publish(ctx, name, events.ModuleOpened{
		BaseEvent:   events.NewBaseEvent(events.ModuleOpenedEvent, name),
		Nodes:       nodes,
		Connections: conns,
	})

	return nil
}

// Save stores the graph as the payload of the current module. Without a current module it does nothing.
func (e *Editor) Save(ctx context.Context) error {
	return e.submit(ctx, func(ctx context.Context) error {
		name := e.Current()
		if name == "" {
			return nil
		}

		payload, err := e.modules.Export(e.store)
		if err != nil {
			return &models.ModuleError{Op: "Save", Module: name, Err: err}
		}

		e.modules.Overwrite(name, payload)

		persisted := false

		if e.persistence != nil {
			err := e.persistence.SaveModule(ctx, &models.Module{Name: name, Payload: payload})
			if err != nil {
				return fmt.Errorf("failed to persist module %s: %w", name, err)
			}

			persisted = true
		}

		e.logger.InfoContext(ctx, "Module saved", slog.String("module", name), slog.Bool("persisted", persisted))

		e.publish(ctx, name, events.ModuleSaved{
			BaseEvent: events.NewBaseEvent(events.ModuleSavedEvent, name),
			Persisted: persisted,
		})

		return nil
	})
}

// Restore discards unsaved edits by reopening the current module. Without a current module it does nothing.
func (e *Editor) Restore(ctx context.Context) error {
	return e.submit(ctx, func(ctx context.Context) error {
		name := e.Current()
		if name == "" {
			return nil
		}

		return e.open(ctx, name)
	})
}

// NewModule registers name with an empty graph, replacing any module of that name. The graph is untouched.
func (e *Editor) NewModule(ctx context.Context, name string) error {
	return e.submit(ctx, func(ctx context.Context) error {
		if name == "" {
			return &models.ModuleError{Op: "New", Module: name, Err: models.NewValidationError("module name is empty")}
		}

		e.modules.Overwrite(name, models.EmptyPayload())

		e.logger.InfoContext(ctx, "Module created", slog.String("module", name))
		e.publish(ctx, name, events.ModuleCreated{BaseEvent: events.NewBaseEvent(events.ModuleCreatedEvent, name)})

		return nil
	})
}

// Do runs fn on the session worker with exclusive use of the store.
func (e *Editor) Do(ctx context.Context, fn func(ctx context.Context, store *graph.Store) error) error {
	return e.submit(ctx, func(ctx context.Context) error {
		return fn(ctx, e.store)
	})
}

// Process evaluates every node and publishes the outcome.
func (e *Editor) Process(ctx context.Context) (map[string]models.Outputs, error) {
	var results map[string]models.Outputs

	err := e.submit(ctx, func(ctx context.Context) error {
		var err error

		results, err = e.process(ctx)

		return err
	})

	return results, err
}

func (e *Editor) process(ctx context.Context) (map[string]models.Outputs, error) {
	results, err := e.engine.Process(ctx)

	event := events.GraphEvaluated{BaseEvent: events.NewBaseEvent(events.GraphEvaluatedEvent, e.Current())}
	if err != nil {
		event.Error = err.Error()
	} else {
		event.Outputs = results
	}

	e.publish(ctx, e.Current(), event)

	return results, err
}

// Evaluate returns the outputs of a single node.
func (e *Editor) Evaluate(ctx context.Context, id string) (models.Outputs, error) {
	var outputs models.Outputs

	err := e.submit(ctx, func(ctx context.Context) error {
		var err error

		outputs, err = e.engine.Evaluate(ctx, id)

		return err
	})

	return outputs, err
}

// Export returns the graph as a payload.
func (e *Editor) Export(ctx context.Context) (*models.Payload, error) {
	var payload *models.Payload

	err := e.submit(ctx, func(_ context.Context) error {
		var err error

		payload, err = e.modules.Export(e.store)

		return err
	})

	return payload, err
}

// AddNode creates a node of kind and places it in the graph. Nil controls select the kind defaults.
func (e *Editor) AddNode(ctx context.Context, kind models.Kind, controls map[string]any, position models.Position) (string, error) {
	return e.AddNodeFunc(ctx, kind, controls, position, nil)
}

// AddNodeFunc is AddNode calling fn with the placed node before any later operation runs.
func (e *Editor) AddNodeFunc(
	ctx context.Context,
	kind models.Kind,
	controls map[string]any,
	position models.Position,
	fn func(node protocol.Node, position models.Position),
) (string, error) {
	if controls == nil {
		controls = DefaultControls(kind)
	}

	var id string

	err := e.submit(ctx, func(ctx context.Context) error {
		if !kind.Valid() {
			return &models.NodeError{Op: "Create", Err: models.NewValidationError("unknown node kind %q", kind)}
		}

		nodeID := graph.NewID()

		node, err := e.nodes.CreateNode(ctx, kind, nodeID, maps.Clone(controls), e.modules.Codec().ChangeFunc(nodeID))
		if err != nil {
			return err
		}

		id, err = e.store.AddNode(node, position)
		if err != nil {
			return err
		}

		if fn != nil {
			placed, _ := e.store.Position(id)
			fn(node, placed)
		}

		return nil
	})

	return id, err
}

func (e *Editor) RemoveNode(ctx context.Context, id string) error {
	return e.Do(ctx, func(_ context.Context, store *graph.Store) error {
		return store.RemoveNode(id)
	})
}

// Connect adds a connection and returns its id.
func (e *Editor) Connect(ctx context.Context, conn models.Connection) (string, error) {
	var id string

	err := e.Do(ctx, func(_ context.Context, store *graph.Store) error {
		var err error

		id, err = store.AddConnection(conn)

		return err
	})

	return id, err
}

func (e *Editor) Disconnect(ctx context.Context, id string) error {
	return e.Do(ctx, func(_ context.Context, store *graph.Store) error {
		return store.RemoveConnection(id)
	})
}

// SetControls writes each control of node id, then reprocesses the graph.
// Controls are written in name order and writing stops at the first rejected one.
func (e *Editor) SetControls(ctx context.Context, id string, controls map[string]any) (map[string]models.Outputs, error) {
	var results map[string]models.Outputs

	err := e.submit(ctx, func(ctx context.Context) error {
		for _, name := range slices.Sorted(maps.Keys(controls)) {
			if err := e.store.SetControl(ctx, id, name, controls[name]); err != nil {
				return err
			}
		}

		var err error

		results, err = e.process(ctx)

		return err
	})

	return results, err
}
