// Package moduleref provides a node that instantiates a nested module.
package moduleref

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

const ControlName = "name"

// ModuleNode delegates its computation to the referenced module.
// Input ports are the module's Input keys, output ports its Output keys.
type ModuleNode struct {
	id       string
	controls *protocol.ControlSet
	resolver protocol.ModuleResolver

	mu    sync.RWMutex
	iface protocol.ModuleInterface
}

// NewModuleNode creates a module node and resolves the interface of the named module.
func NewModuleNode(
	ctx context.Context,
	id string,
	controls map[string]any,
	resolver protocol.ModuleResolver,
	onChange protocol.ChangeFunc,
) (*ModuleNode, error) {
	cs, err := protocol.NewControlSet(id, []protocol.Control{
		{Name: ControlName, Type: models.ControlTypeText, Initial: ""},
	}, controls, onChange)
	if err != nil {
		return nil, err
	}

	n := &ModuleNode{id: id, controls: cs, resolver: resolver}

	iface, err := n.resolve(ctx, cs.Text(ControlName))
	if err != nil {
		return nil, &models.NodeError{Op: "Construct", NodeID: id, Err: err}
	}

	n.iface = iface

	return n, nil
}

func (n *ModuleNode) ID() string {
	return n.id
}

func (n *ModuleNode) Kind() models.Kind {
	return models.KindModule
}

// ModuleName returns the referenced module, "" when unset.
func (n *ModuleNode) ModuleName() string {
	return n.controls.Text(ControlName)
}

func (n *ModuleNode) InputPorts() []models.Port {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ports := make([]models.Port, 0, len(n.iface.Inputs))
	for _, key := range n.iface.Inputs {
		ports = append(ports, models.NumberPort(key, key))
	}

	return ports
}

func (n *ModuleNode) OutputPorts() []models.Port {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ports := make([]models.Port, 0, len(n.iface.Outputs))
	for _, key := range n.iface.Outputs {
		ports = append(ports, models.NumberPort(key, key))
	}

	return ports
}

func (n *ModuleNode) Controls() map[string]any {
	return n.controls.Snapshot()
}

// SetControl re-resolves the module interface before switching to a new module name.
func (n *ModuleNode) SetControl(ctx context.Context, name string, value any) error {
	if name == ControlName {
		moduleName, ok := value.(string)
		if !ok {
			return models.NewValidationError("control %q expects text, got %v", name, value)
		}

		iface, err := n.resolve(ctx, moduleName)
		if err != nil {
			return err
		}

		n.mu.Lock()
		n.iface = iface
		n.mu.Unlock()
	}

	return n.controls.Set(ctx, name, value)
}

// Compute runs the module with each input key bound to its first connected value, 0 when unconnected.
func (n *ModuleNode) Compute(ctx context.Context, inputs models.Inputs) (models.Outputs, error) {
	name := n.ModuleName()
	if name == "" {
		return models.Outputs{}, nil
	}

	n.mu.RLock()
	iface := n.iface
	n.mu.RUnlock()

	args := make(map[string]float64, len(iface.Inputs))
	for _, key := range iface.Inputs {
		v, _ := inputs.First(key)
		args[key] = v
	}

	results, err := n.resolver.Run(ctx, name, args)
	if err != nil {
		return nil, fmt.Errorf("module node %s: %w", n.id, err)
	}

	out := make(models.Outputs, len(iface.Outputs))
	for _, key := range iface.Outputs {
		out[key] = results[key]
	}

	return out, nil
}

func (n *ModuleNode) Serialize() (map[string]any, error) {
	return n.controls.Serialize()
}

func (n *ModuleNode) resolve(ctx context.Context, name string) (protocol.ModuleInterface, error) {
	if name == "" {
		return protocol.ModuleInterface{}, nil
	}

	if n.resolver == nil {
		return protocol.ModuleInterface{}, &models.ModuleError{Op: "Resolve", Module: name, Err: models.ErrModuleNotFound}
	}

	return n.resolver.Interface(ctx, name)
}
