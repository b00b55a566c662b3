// Package moduleref provides module node factory for registry integration.
package moduleref

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// ModuleNodeFactory creates ModuleNode instances bound to a module resolver.
type ModuleNodeFactory struct {
	resolver protocol.ModuleResolver
}

// Create creates a new ModuleNode instance.
func (f *ModuleNodeFactory) Create(ctx context.Context, id string, controls map[string]any, onChange protocol.ChangeFunc) (protocol.Node, error) {
	return NewModuleNode(ctx, id, controls, f.resolver, onChange)
}

// Kind returns the factory kind.
func (f *ModuleNodeFactory) Kind() models.Kind {
	return models.KindModule
}

// Name returns the factory name.
func (f *ModuleNodeFactory) Name() string {
	return "Module"
}

// Description returns the factory description.
func (f *ModuleNodeFactory) Description() string {
	return "Evaluates a named module; ports mirror the module's Input and Output keys"
}

// NewModuleNodeFactory creates a new factory instance.
func NewModuleNodeFactory(resolver protocol.ModuleResolver) protocol.NodeFactory {
	return &ModuleNodeFactory{resolver: resolver}
}
