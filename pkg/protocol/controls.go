package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukex/nodegraph/pkg/models"
)

// Control describes a scalar value attached to a node.
type Control struct {
	Name     string
	Type     models.ControlType
	Initial  any
	ReadOnly bool // Display only; written by the node itself, never persisted
}

// ControlSet holds the control values of one node.
type ControlSet struct {
	mu       sync.RWMutex
	nodeID   string
	specs    []Control
	values   map[string]any
	onChange ChangeFunc
}

// NewControlSet builds the controls of a node from saved values.
// Values for unknown names are ignored; values of an unsupported type fail with ErrSerialization.
func NewControlSet(nodeID string, specs []Control, saved map[string]any, onChange ChangeFunc) (*ControlSet, error) {
	cs := &ControlSet{
		nodeID:   nodeID,
		specs:    specs,
		values:   make(map[string]any, len(specs)),
		onChange: onChange,
	}

	for _, spec := range specs {
		cs.values[spec.Name] = spec.Initial

		raw, ok := saved[spec.Name]
		if !ok || spec.ReadOnly {
			continue
		}

		value, err := coerce(spec, raw)
		if err != nil {
			return nil, &models.NodeError{Op: "Construct", NodeID: nodeID, Err: err}
		}

		cs.values[spec.Name] = value
	}

	return cs, nil
}

// Get returns the current value of a control.
func (cs *ControlSet) Get(name string) any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return cs.values[name]
}

// Number returns a numeric control, 0 when unset.
func (cs *ControlSet) Number(name string) float64 {
	v, _ := models.ControlNumber(cs.Get(name))

	return v
}

// Text returns a text control, "" when unset.
func (cs *ControlSet) Text(name string) string {
	s, _ := cs.Get(name).(string)

	return s
}

// Set writes a user-editable control and invokes the change callback with the stored value.
func (cs *ControlSet) Set(_ context.Context, name string, value any) error {
	spec, ok := cs.spec(name)
	if !ok {
		return models.NewValidationError("node %s has no control %q", cs.nodeID, name)
	}

	if spec.ReadOnly {
		return models.NewValidationError("control %q of node %s is read-only", name, cs.nodeID)
	}

	normalized, err := coerce(spec, value)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	cs.values[name] = normalized
	cs.mu.Unlock()

	if cs.onChange != nil {
		return cs.onChange(name, normalized)
	}

	return nil
}

// Mirror writes a read-only display control. It never triggers the change callback.
func (cs *ControlSet) Mirror(name string, value any) {
	cs.mu.Lock()
	cs.values[name] = value
	cs.mu.Unlock()
}

// Snapshot returns a copy of all values.
func (cs *ControlSet) Snapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make(map[string]any, len(cs.values))
	for k, v := range cs.values {
		out[k] = v
	}

	return out
}

// Serialize returns the writable controls in persistable form.
func (cs *ControlSet) Serialize() (map[string]any, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make(map[string]any, len(cs.specs))

	for _, spec := range cs.specs {
		if spec.ReadOnly {
			continue
		}

		value, err := models.NormalizeControl(cs.values[spec.Name])
		if err != nil {
			return nil, &models.NodeError{Op: "Serialize", NodeID: cs.nodeID, Err: err}
		}

		out[spec.Name] = value
	}

	return out, nil
}

func (cs *ControlSet) spec(name string) (Control, bool) {
	for _, spec := range cs.specs {
		if spec.Name == name {
			return spec, true
		}
	}

	return Control{}, false
}

func coerce(spec Control, raw any) (any, error) {
	value, err := models.NormalizeControl(raw)
	if err != nil {
		return nil, fmt.Errorf("control %q: %w", spec.Name, err)
	}

	switch spec.Type {
	case models.ControlTypeNumber:
		if _, ok := value.(float64); ok {
			return value, nil
		}

		if n, ok := models.ControlNumber(value); ok {
			return n, nil
		}

		return nil, models.NewValidationError("control %q expects a number, got %q", spec.Name, value)
	case models.ControlTypeText:
		if s, ok := value.(string); ok {
			return s, nil
		}

		return nil, models.NewValidationError("control %q expects text, got %v", spec.Name, value)
	default:
		return value, nil
	}
}
