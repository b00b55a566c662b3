// Package add provides add node factory for registry integration.
package add

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// AddNodeFactory creates AddNode instances.
type AddNodeFactory struct{}

// Create creates a new AddNode instance.
func (f *AddNodeFactory) Create(_ context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewAddNode(id, controls, onChange)
}

// Kind returns the factory kind.
func (f *AddNodeFactory) Kind() models.Kind {
	return models.KindAdd
}

// Name returns the factory name.
func (f *AddNodeFactory) Name() string {
	return "Add"
}

// Description returns the factory description.
func (f *AddNodeFactory) Description() string {
	return "Adds the left and right operands; unconnected operands use their own control value"
}

// NewAddNodeFactory creates a new factory instance.
func NewAddNodeFactory() protocol.NodeFactory {
	return &AddNodeFactory{}
}
