// Package models defines port-based models for node connections.
package models

// ValueType is the type carried by a port. Only numbers flow through this system.
type ValueType string

const (
	ValueTypeNumber ValueType = "number"
)

// ArgumentPort is the reserved input on which the engine feeds a module argument to an Input node.
const ArgumentPort = "argument"

// Port represents a connection point on a node.
type Port struct {
	Name  string    `json:"name"` // Unique within the node
	Label string    `json:"label"`
	Type  ValueType `json:"type"`
}

// NumberPort returns a numeric port.
func NumberPort(name, label string) Port {
	return Port{Name: name, Label: label, Type: ValueTypeNumber}
}

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// Inputs maps an input port name to the values delivered to it, in connection order.
type Inputs map[string][]float64

// First returns the first value delivered to port, if any.
func (in Inputs) First(port string) (float64, bool) {
	values := in[port]
	if len(values) == 0 {
		return 0, false
	}

	return values[0], true
}

// Outputs maps an output port name to the value produced on it.
type Outputs map[string]float64

// MakePortID creates a port ID from node ID and port name.
func MakePortID(nodeID, portName string) string {
	return nodeID + ":" + portName
}

// FindPort returns the port with the given name.
func FindPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}

	return Port{}, false
}
