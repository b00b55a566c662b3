// Package boundary provides the module boundary node factories for registry integration.
package boundary

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// InputNodeFactory creates InputNode instances.
type InputNodeFactory struct{}

func (f *InputNodeFactory) Create(_ context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewInputNode(id, controls, onChange)
}

func (f *InputNodeFactory) Kind() models.Kind {
	return models.KindInput
}

func (f *InputNodeFactory) Name() string {
	return "Input"
}

func (f *InputNodeFactory) Description() string {
	return "Exposes a named argument of the enclosing module"
}

// NewInputNodeFactory creates a new factory instance.
func NewInputNodeFactory() protocol.NodeFactory {
	return &InputNodeFactory{}
}

// OutputNodeFactory creates OutputNode instances.
type OutputNodeFactory struct{}

func (f *OutputNodeFactory) Create(_ context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewOutputNode(id, controls, onChange)
}

func (f *OutputNodeFactory) Kind() models.Kind {
	return models.KindOutput
}

func (f *OutputNodeFactory) Name() string {
	return "Output"
}

func (f *OutputNodeFactory) Description() string {
	return "Exposes a named result of the enclosing module"
}

// NewOutputNodeFactory creates a new factory instance.
func NewOutputNodeFactory() protocol.NodeFactory {
	return &OutputNodeFactory{}
}
