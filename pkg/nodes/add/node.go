// Package add provides a node summing two numeric operands.
package add

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

const (
	InputPortLeft   = "left"
	InputPortRight  = "right"
	OutputPortValue = "value"
	ControlResult   = "result"
)

// AddNode outputs left + right.
// Each operand is the first connected value, else the port control, else 0.
type AddNode struct {
	id       string
	controls *protocol.ControlSet
}

// NewAddNode creates a new add node.
func NewAddNode(id string, controls map[string]any, onChange protocol.ChangeFunc) (*AddNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: InputPortLeft, Type: models.ControlTypeNumber, Initial: 0.0},
		{Name: InputPortRight, Type: models.ControlTypeNumber, Initial: 0.0},
		{Name: ControlResult, Type: models.ControlTypeNumber, Initial: 0.0, ReadOnly: true},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	return &AddNode{id: id, controls: cs}, nil
}

func (n *AddNode) ID() string {
	return n.id
}

func (n *AddNode) Kind() models.Kind {
	return models.KindAdd
}

func (n *AddNode) InputPorts() []models.Port {
	return []models.Port{
		models.NumberPort(InputPortLeft, "Left"),
		models.NumberPort(InputPortRight, "Right"),
	}
}

func (n *AddNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort(OutputPortValue, "Number")}
}

func (n *AddNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

func (n *AddNode) SetControl(ctx context.Context, name string, value any) error {
	return n.controls.Set(ctx, name, value)
}

// Compute sums both operands and mirrors the sum on the result control.
func (n *AddNode) Compute(_ context.Context, inputs models.Inputs) (models.Outputs, error) {
	sum := n.operand(inputs, InputPortLeft) + n.operand(inputs, InputPortRight)

	n.controls.Mirror(ControlResult, sum)

	return models.Outputs{OutputPortValue: sum}, nil
}

func (n *AddNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}

func (n *AddNode) operand(inputs models.Inputs, port string) float64 {
	if v, ok := inputs.First(port); ok {
		return v
	}

	return n.controls.Number(port)
}
