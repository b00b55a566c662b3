// Package constant provides a node that outputs a fixed number.
package constant

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

const (
	ControlValue    = "value"
	OutputPortValue = "value"
)

// ConstantNode has no inputs and outputs its value control.
type ConstantNode struct {
	id       string
	controls *protocol.ControlSet
}

// NewConstantNode creates a new constant node.
func NewConstantNode(id string, controls map[string]any, onChange protocol.ChangeFunc) (*ConstantNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: ControlValue, Type: models.ControlTypeNumber, Initial: 0.0},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	return &ConstantNode{id: id, controls: cs}, nil
}

func (n *ConstantNode) ID() string {
	return n.id
}

func (n *ConstantNode) Kind() models.Kind {
	return models.KindConstant
}

func (n *ConstantNode) InputPorts() []models.Port {
	return []models.Port{}
}

func (n *ConstantNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort(OutputPortValue, "Number")}
}

func (n *ConstantNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

func (n *ConstantNode) SetControl(ctx context.Context, name string, value any) error {
	return n.controls.Set(ctx, name, value)
}

// Compute returns the value control.
func (n *ConstantNode) Compute(_ context.Context, _ models.Inputs) (models.Outputs, error) {
	return models.Outputs{OutputPortValue: n.controls.Number(ControlValue)}, nil
}

func (n *ConstantNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}
