// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a constant node record with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     models.KindConstant,
		Controls: map[string]any{"value": 1.0},
		Position: models.Position{X: 100, Y: 200},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithKind sets the node kind and clears the default controls.
func WithKind(kind models.Kind) func(*models.Node) {
	return func(n *models.Node) {
		n.Kind = kind
		n.Controls = map[string]any{}
	}
}

// WithControls sets the node controls.
func WithControls(controls map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Controls = controls
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// CreateTestConnection creates a connection between two ports.
func CreateTestConnection(source, sourceOutput, target, targetInput string) *models.Connection {
	return &models.Connection{
		ID:           uuid.New().String(),
		Source:       source,
		SourceOutput: sourceOutput,
		Target:       target,
		TargetInput:  targetInput,
	}
}

// CreateTestPayload creates a graph summing two constants, 3 and 5.
func CreateTestPayload() *models.Payload {
	return &models.Payload{
		Nodes: []*models.Node{
			CreateTestNode(WithID("three"), WithControls(map[string]any{"value": 3.0}), WithPosition(0, 0)),
			CreateTestNode(WithID("five"), WithControls(map[string]any{"value": 5.0}), WithPosition(0, 100)),
			CreateTestNode(WithID("sum"), WithKind(models.KindAdd), WithPosition(200, 50)),
		},
		Connections: []*models.Connection{
			CreateTestConnection("three", "value", "sum", "left"),
			CreateTestConnection("five", "value", "sum", "right"),
		},
	}
}

// CreateDoublePayload creates a module whose output out is twice its input in.
func CreateDoublePayload(in, out string) *models.Payload {
	return &models.Payload{
		Nodes: []*models.Node{
			CreateTestNode(WithID("in"), WithKind(models.KindInput), WithControls(map[string]any{"key": in})),
			CreateTestNode(WithID("twice"), WithKind(models.KindAdd)),
			CreateTestNode(WithID("out"), WithKind(models.KindOutput), WithControls(map[string]any{"key": out})),
		},
		Connections: []*models.Connection{
			CreateTestConnection("in", "value", "twice", "left"),
			CreateTestConnection("in", "value", "twice", "right"),
			CreateTestConnection("twice", "value", "out", "value"),
		},
	}
}

// CreateModuleRefPayload creates a graph feeding value into the named module's input in.
func CreateModuleRefPayload(module, in, out string, value float64) *models.Payload {
	return &models.Payload{
		Nodes: []*models.Node{
			CreateTestNode(WithID("arg"), WithControls(map[string]any{"value": value})),
			CreateTestNode(WithID("ref"), WithKind(models.KindModule), WithControls(map[string]any{"name": module})),
			CreateTestNode(WithID("result"), WithKind(models.KindAdd)),
		},
		Connections: []*models.Connection{
			CreateTestConnection("arg", "value", "ref", in),
			CreateTestConnection("ref", out, "result", "left"),
		},
	}
}
