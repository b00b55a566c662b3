package boundary

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

// OutputNode passes its first input through; its key control names the module result.
type OutputNode struct {
	id       string
	controls *protocol.ControlSet
}

// NewOutputNode creates a new output node.
func NewOutputNode(id string, controls map[string]any, onChange protocol.ChangeFunc) (*OutputNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: ControlKey, Type: models.ControlTypeText, Initial: DefaultKey},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	return &OutputNode{id: id, controls: cs}, nil
}

func (n *OutputNode) ID() string {
	return n.id
}

func (n *OutputNode) Kind() models.Kind {
	return models.KindOutput
}

func (n *OutputNode) InputPorts() []models.Port {
	return []models.Port{models.NumberPort(InputPortValue, "Number")}
}

func (n *OutputNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort(OutputPortValue, "Number")}
}

func (n *OutputNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

func (n *OutputNode) SetControl(ctx context.Context, name string, value any) error {
	return n.controls.Set(ctx, name, value)
}

// ResultKey returns the module result this node exposes.
func (n *OutputNode) ResultKey() string {
	return n.controls.Text(ControlKey)
}

func (n *OutputNode) Compute(_ context.Context, inputs models.Inputs) (models.Outputs, error) {
	value, _ := inputs.First(InputPortValue)

	return models.Outputs{OutputPortValue: value}, nil
}

func (n *OutputNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}
