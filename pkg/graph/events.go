package graph

import "github.com/dukex/nodegraph/pkg/models"

type EventType string

const (
	EventNodeCreated       EventType = "nodeCreated"
	EventNodeRemoved       EventType = "nodeRemoved"
	EventNodeTranslated    EventType = "nodeTranslated"
	EventConnectionCreated EventType = "connectionCreated"
	EventConnectionRemoved EventType = "connectionRemoved"
	EventControlChanged    EventType = "controlChanged"
	EventCleared           EventType = "cleared"
)

// Event describes a single store mutation. Only the fields relevant to Type are set.
type Event struct {
	Type       EventType
	NodeID     string
	Kind       models.Kind
	Connection *models.Connection
	Control    string
	Value      any
	Position   models.Position
}

// Topological reports whether the event can change evaluation results.
func (e Event) Topological() bool {
	return e.Type != EventNodeTranslated
}

// Listener receives store events synchronously, after the mutation completed.
type Listener func(Event)
