package web

import (
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// CreateModuleRequest is the body of POST /modules.
type CreateModuleRequest struct {
	Name string `json:"name" validate:"required,min=1,excludesall=/\\:"`
}

// CreateNodeRequest is the body of POST /graph/nodes. Omitted controls select the kind defaults.
type CreateNodeRequest struct {
	Kind     string          `json:"kind"     validate:"required,oneof=constant add compare input output module"`
	Controls map[string]any  `json:"controls"`
	Position models.Position `json:"position"`
}

// UpdateControlsRequest is the body of PATCH /graph/nodes/:id/controls.
type UpdateControlsRequest struct {
	Controls map[string]any `json:"controls" validate:"required,min=1"`
}

// CreateConnectionRequest is the body of POST /graph/connections.
type CreateConnectionRequest struct {
	Source       string `json:"source"       validate:"required"`
	SourceOutput string `json:"sourceOutput" validate:"required"`
	Target       string `json:"target"       validate:"required"`
	TargetInput  string `json:"targetInput"  validate:"required"`
}

// ModulesResponse lists the known modules and the open one.
type ModulesResponse struct {
	Modules []string `json:"modules"`
	Current string   `json:"current,omitempty"`
}

// NodeResponse describes a live node.
type NodeResponse struct {
	ID       string          `json:"id"`
	Kind     models.Kind     `json:"kind"`
	Controls map[string]any  `json:"controls"`
	Position models.Position `json:"position"`
	Inputs   []models.Port   `json:"inputs"`
	Outputs  []models.Port   `json:"outputs"`
}

// EvaluateResponse carries the outputs of every node after a processing pass.
type EvaluateResponse struct {
	Outputs map[string]models.Outputs `json:"outputs"`
}

// TransformNodeResponse describes node at position.
func TransformNodeResponse(node protocol.Node, position models.Position) NodeResponse {
	return NodeResponse{
		ID:       node.ID(),
		Kind:     node.Kind(),
		Controls: node.Controls(),
		Position: position,
		Inputs:   node.InputPorts(),
		Outputs:  node.OutputPorts(),
	}
}
