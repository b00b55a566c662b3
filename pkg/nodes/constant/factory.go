// Package constant provides the numeric constant node factory for registry integration.
package constant

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// ConstantNodeFactory creates ConstantNode instances.
type ConstantNodeFactory struct{}

// Create creates a new ConstantNode instance.
func (f *ConstantNodeFactory) Create(_ context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewConstantNode(id, controls, onChange)
}

// Kind returns the factory kind.
func (f *ConstantNodeFactory) Kind() models.Kind {
	return models.KindConstant
}

// Name returns the factory name.
func (f *ConstantNodeFactory) Name() string {
	return "Number"
}

// Description returns the factory description.
func (f *ConstantNodeFactory) Description() string {
	return "Emits its own numeric value on the value output"
}

// NewConstantNodeFactory creates a new factory instance.
func NewConstantNodeFactory() protocol.NodeFactory {
	return &ConstantNodeFactory{}
}
