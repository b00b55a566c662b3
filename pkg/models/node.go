// Package models defines the persisted graph records shared by the store, the codec and the module catalog.
package models

// Kind identifies one of the closed set of node variants.
type Kind string

const (
	KindConstant Kind = "constant" // Emits its own numeric control
	KindAdd      Kind = "add"      // Sums left and right
	KindCompare  Kind = "compare"  // Emits the greater of left and right
	KindInput    Kind = "input"    // Module argument boundary
	KindOutput   Kind = "output"   // Module result boundary
	KindModule   Kind = "module"   // Nested module instance
)

// Kinds returns every node kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindConstant, KindAdd, KindCompare, KindInput, KindOutput, KindModule}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindConstant, KindAdd, KindCompare, KindInput, KindOutput, KindModule:
		return true
	default:
		return false
	}
}

// Position is the canvas placement of a node. It never influences evaluation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is the persisted form of a graph node.
type Node struct {
	ID       string         `json:"id"       validate:"required"`
	Kind     Kind           `json:"kind"     validate:"required"`
	Controls map[string]any `json:"controls"`
	Position Position       `json:"position"`
}

// Connection links an output port of one node to an input port of another.
type Connection struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"       validate:"required"`
	SourceOutput string `json:"sourceOutput" validate:"required"`
	Target       string `json:"target"       validate:"required"`
	TargetInput  string `json:"targetInput"  validate:"required"`
}

// SourcePortID returns the globally unique id of the source port.
func (c *Connection) SourcePortID() string {
	return MakePortID(c.Source, c.SourceOutput)
}

// TargetPortID returns the globally unique id of the target port.
func (c *Connection) TargetPortID() string {
	return MakePortID(c.Target, c.TargetInput)
}

// Payload is the serialized graph: nodes and connections in a stable order, no engine state.
type Payload struct {
	Nodes       []*Node       `json:"nodes"       validate:"dive,required"`
	Connections []*Connection `json:"connections" validate:"dive,required"`
}

// EmptyPayload returns a payload with no nodes and no connections.
func EmptyPayload() *Payload {
	return &Payload{
		Nodes:       make([]*Node, 0),
		Connections: make([]*Connection, 0),
	}
}

// Clone returns a deep copy of the payload so callers never share control maps.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return EmptyPayload()
	}

	clone := &Payload{
		Nodes:       make([]*Node, 0, len(p.Nodes)),
		Connections: make([]*Connection, 0, len(p.Connections)),
	}

	for _, node := range p.Nodes {
		if node == nil {
			continue
		}

		controls := make(map[string]any, len(node.Controls))
		for k, v := range node.Controls {
			controls[k] = v
		}

		clone.Nodes = append(clone.Nodes, &Node{
			ID:       node.ID,
			Kind:     node.Kind,
			Controls: controls,
			Position: node.Position,
		})
	}

	for _, conn := range p.Connections {
		if conn == nil {
			continue
		}

		c := *conn
		clone.Connections = append(clone.Connections, &c)
	}

	return clone
}
