// Package events defines the notifications an editor session publishes about its graph and modules.
package events

import (
	"time"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every editor event.
const Topic = "nodegraph.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Graph events.
	NodeCreatedEvent       EventType = "node.created"
	NodeRemovedEvent       EventType = "node.removed"
	ConnectionCreatedEvent EventType = "connection.created"
	ConnectionRemovedEvent EventType = "connection.removed"
	ControlChangedEvent    EventType = "control.changed"
	GraphClearedEvent      EventType = "graph.cleared"
	GraphEvaluatedEvent    EventType = "graph.evaluated"

	// Module lifecycle events.
	ModuleOpenedEvent  EventType = "module.opened"
	ModuleSavedEvent   EventType = "module.saved"
	ModuleCreatedEvent EventType = "module.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Module    string         `json:"module,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type NodeCreated struct {
	BaseEvent

	NodeID   string          `json:"node_id"`
	Kind     models.Kind     `json:"kind"`
	Position models.Position `json:"position"`
}

func (e NodeCreated) GetType() EventType {
	return NodeCreatedEvent
}

type NodeRemoved struct {
	BaseEvent

	NodeID string      `json:"node_id"`
	Kind   models.Kind `json:"kind"`
}

func (e NodeRemoved) GetType() EventType {
	return NodeRemovedEvent
}

type ConnectionCreated struct {
	BaseEvent

	Connection models.Connection `json:"connection"`
}

func (e ConnectionCreated) GetType() EventType {
	return ConnectionCreatedEvent
}

type ConnectionRemoved struct {
	BaseEvent

	Connection models.Connection `json:"connection"`
}

func (e ConnectionRemoved) GetType() EventType {
	return ConnectionRemovedEvent
}

type ControlChanged struct {
	BaseEvent

	NodeID  string `json:"node_id"`
	Control string `json:"control"`
	Value   any    `json:"value"`
}

func (e ControlChanged) GetType() EventType {
	return ControlChangedEvent
}

type GraphCleared struct {
	BaseEvent
}

func (e GraphCleared) GetType() EventType {
	return GraphClearedEvent
}

// GraphEvaluated reports the outputs of a full processing pass, or its error.
type GraphEvaluated struct {
	BaseEvent

	Outputs map[string]models.Outputs `json:"outputs,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

func (e GraphEvaluated) GetType() EventType {
	return GraphEvaluatedEvent
}

type ModuleOpened struct {
	BaseEvent

	Nodes       int `json:"nodes"`
	Connections int `json:"connections"`
}

func (e ModuleOpened) GetType() EventType {
	return ModuleOpenedEvent
}

type ModuleSaved struct {
	BaseEvent

	Persisted bool `json:"persisted"`
}

func (e ModuleSaved) GetType() EventType {
	return ModuleSavedEvent
}

type ModuleCreated struct {
	BaseEvent
}

func (e ModuleCreated) GetType() EventType {
	return ModuleCreatedEvent
}

func NewBaseEvent(eventType EventType, module string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Module:    module,
		Metadata:  make(map[string]any),
	}
}
