// Package boundary provides the Input and Output nodes forming a module's external interface.
package boundary

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

const (
	ControlKey      = "key"
	OutputPortValue = "value"
	InputPortValue  = "value"
	DefaultKey      = "key"
)

// InputNode forwards the caller-supplied argument named by its key control.
// The engine delivers the argument on models.ArgumentPort; without one it outputs 0.
type InputNode struct {
	id       string
	controls *protocol.ControlSet
}

// NewInputNode creates a new input node.
func NewInputNode(id string, controls map[string]any, onChange protocol.ChangeFunc) (*InputNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: ControlKey, Type: models.ControlTypeText, Initial: DefaultKey},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	return &InputNode{id: id, controls: cs}, nil
}

func (n *InputNode) ID() string {
	return n.id
}

func (n *InputNode) Kind() models.Kind {
	return models.KindInput
}

func (n *InputNode) InputPorts() []models.Port {
	return []models.Port{}
}

func (n *InputNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort(OutputPortValue, "Number")}
}

func (n *InputNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

func (n *InputNode) SetControl(ctx context.Context, name string, value any) error {
	return n.controls.Set(ctx, name, value)
}

// ArgumentKey returns the module argument this node reads.
func (n *InputNode) ArgumentKey() string {
	return n.controls.Text(ControlKey)
}

func (n *InputNode) Compute(_ context.Context, inputs models.Inputs) (models.Outputs, error) {
	value, _ := inputs.First(models.ArgumentPort)

	return models.Outputs{OutputPortValue: value}, nil
}

func (n *InputNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}
