// Package protocol defines the interfaces and contracts for node kinds.
package protocol

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
)

// ChangeFunc is invoked synchronously whenever a control is edited directly.
// Its error is returned to the caller of SetControl unchanged.
type ChangeFunc func(control string, value any) error

// Node is a live node instance held by the graph store.
type Node interface {
	// ID returns the node id, unique within a graph
	ID() string

	// Kind returns the node variant
	Kind() models.Kind

	// InputPorts returns the input ports in declaration order
	InputPorts() []models.Port

	// OutputPorts returns the output ports in declaration order
	OutputPorts() []models.Port

	// Controls returns a snapshot of every control value, read-only ones included
	Controls() map[string]any

	// SetControl edits a writable control and invokes the change callback
	SetControl(ctx context.Context, name string, value any) error

	// Compute maps input values to output values. Missing inputs fall back to defaults.
	Compute(ctx context.Context, inputs models.Inputs) (models.Outputs, error)

	// Serialize returns the persistable control values
	Serialize() (map[string]any, error)
}

// NodeFactory constructs nodes of a single kind from saved control values.
type NodeFactory interface {
	// Create creates a new node instance with the given controls
	Create(ctx context.Context, id string, controls map[string]any, onChange ChangeFunc) (Node, error)

	// Kind returns the node variant this factory builds
	Kind() models.Kind

	// Name returns the human-readable name for this node kind
	Name() string

	// Description returns a description of what this node does
	Description() string
}

// ArgumentReceiver is implemented by nodes that read a module argument by key.
type ArgumentReceiver interface {
	ArgumentKey() string
}

// ResultEmitter is implemented by nodes that expose a module result by key.
type ResultEmitter interface {
	ResultKey() string
}

// ModuleInterface lists the argument and result keys of a module, in node order.
type ModuleInterface struct {
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// ModuleResolver gives module nodes access to the module catalog.
type ModuleResolver interface {
	// Interface returns the input and output keys of the named module
	Interface(ctx context.Context, name string) (ModuleInterface, error)

	// Run evaluates the named module with the given arguments and returns its results by key
	Run(ctx context.Context, name string, args map[string]float64) (map[string]float64, error)
}
