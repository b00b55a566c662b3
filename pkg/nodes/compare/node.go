// Package compare provides a node selecting the greater of two operands.
package compare

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

	ResultLeft  = "Node A"
	ResultRight = "Node B"
)

// CompareNode outputs max(left, right) and names the greater side on its result control.
type CompareNode struct {
	id       string
	controls *protocol.ControlSet
}

// NewCompareNode creates a new compare node.
func NewCompareNode(id string, controls map[string]any, onChange protocol.ChangeFunc) (*CompareNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: InputPortLeft, Type: models.ControlTypeNumber, Initial: 0.0},
		{Name: InputPortRight, Type: models.ControlTypeNumber, Initial: 0.0},
		{Name: ControlResult, Type: models.ControlTypeText, Initial: "", ReadOnly: true},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	return &CompareNode{id: id, controls: cs}, nil
}

func (n *CompareNode) ID() string {
	return n.id
}

func (n *CompareNode) Kind() models.Kind {
	return models.KindCompare
}

func (n *CompareNode) InputPorts() []models.Port {
	return []models.Port{
		models.NumberPort(InputPortLeft, "Left"),
		models.NumberPort(InputPortRight, "Right"),
	}
}

func (n *CompareNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort(OutputPortValue, "Number")}
}

func (n *CompareNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

func (n *CompareNode) SetControl(ctx context.Context, name string, value any) error {
	return n.controls.Set(ctx, name, value)
}

// Compute returns the greater operand. Equal operands report the left side.
func (n *CompareNode) Compute(_ context.Context, inputs models.Inputs) (models.Outputs, error) {
	left := n.operand(inputs, InputPortLeft)
	right := n.operand(inputs, InputPortRight)

	greater := ResultLeft
	if left < right {
		greater = ResultRight
	}

	n.controls.Mirror(ControlResult, greater)

	return models.Outputs{OutputPortValue: max(left, right)}, nil
}

func (n *CompareNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}

func (n *CompareNode) operand(inputs models.Inputs, port string) float64 {
	if v, ok := inputs.First(port); ok {
		return v
	}

	return n.controls.Number(port)
}
