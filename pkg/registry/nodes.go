package registry

import (
	"github.com/dukex/nodegraph/pkg/nodes/add"
	"github.com/dukex/nodegraph/pkg/nodes/boundary"
	"github.com/dukex/nodegraph/pkg/nodes/compare"
	"github.com/dukex/nodegraph/pkg/nodes/constant"
	"github.com/dukex/nodegraph/pkg/nodes/moduleref"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
// resolver backs the module node; it is usually the module registry.
func (r *Registry) RegisterDefaultNodes(resolver protocol.ModuleResolver) {
	r.RegisterNode(constant.NewConstantNodeFactory())
	r.RegisterNode(add.NewAddNodeFactory())
	r.RegisterNode(compare.NewCompareNodeFactory())

	// Module boundaries
	r.RegisterNode(boundary.NewInputNodeFactory())
	r.RegisterNode(boundary.NewOutputNodeFactory())

	r.RegisterNode(moduleref.NewModuleNodeFactory(resolver))
}
