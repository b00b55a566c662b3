// Package compare provides compare node factory for registry integration.
package compare

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// CompareNodeFactory creates CompareNode instances.
type CompareNodeFactory struct{}

// Create creates a new CompareNode instance.
func (f *CompareNodeFactory) Create(_ context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewCompareNode(id, controls, onChange)
}

// Kind returns the factory kind.
func (f *CompareNodeFactory) Kind() models.Kind {
	return models.KindCompare
}

// Name returns the factory name.
func (f *CompareNodeFactory) Name() string {
	return "Compare"
}

// Description returns the factory description.
func (f *CompareNodeFactory) Description() string {
	return "Outputs the greater operand and reports which side won; ties favor the left side"
}

// NewCompareNodeFactory creates a new factory instance.
func NewCompareNodeFactory() protocol.NodeFactory {
	return &CompareNodeFactory{}
}
