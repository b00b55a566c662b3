// Package graph holds the live node graph: nodes, their positions and the connections between them.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/google/uuid"
)

// NewID returns a fresh node or connection id.
func NewID() string {
	return uuid.NewString()
}

type nodeEntry struct {
	node     protocol.Node
	position models.Position
}

type subscription struct {
	id int
	fn Listener
}

// Store owns the nodes and connections of one graph.
// Listeners run after the store lock is released, in subscription order.
type Store struct {
	logger      *slog.Logger
	allowCycles bool

	mu          sync.RWMutex
	nodes       map[string]*nodeEntry
	nodeOrder   []string
	connections map[string]*models.Connection
	connOrder   []string

	listenersMu sync.Mutex
	listeners   []subscription
	nextSubID   int
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		logger:      slog.Default(),
		nodes:       make(map[string]*nodeEntry),
		connections: make(map[string]*models.Connection),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subscribe registers fn for every subsequent event and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()

		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)

				return
			}
		}
	}
}

func (s *Store) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.listenersMu.Lock()
	listeners := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.fn
	}
	s.listenersMu.Unlock()

	for _, event := range events {
		for _, fn := range listeners {
			fn(event)
		}
	}
}

// AddNode inserts a live node at position and returns its id.
func (s *Store) AddNode(node protocol.Node, position models.Position) (string, error) {
	if node == nil {
		return "", models.NewValidationError("node is nil")
	}

	id := node.ID()
	if id == "" {
		return "", models.NewValidationError("node id is empty")
	}

	s.mu.Lock()
	if _, exists := s.nodes[id]; exists {
		s.mu.Unlock()

		return "", &models.NodeError{Op: "AddNode", NodeID: id, Err: models.NewValidationError("duplicate node id")}
	}

	s.nodes[id] = &nodeEntry{node: node, position: position}
	s.nodeOrder = append(s.nodeOrder, id)
	s.mu.Unlock()

	s.logger.Debug("Node added", slog.String("node_id", id), slog.String("kind", string(node.Kind())))
	s.emit(Event{Type: EventNodeCreated, NodeID: id, Kind: node.Kind(), Position: position})

	return id, nil
}

// RemoveNode deletes a node together with every connection touching it.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()

	entry, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()

		return &models.NodeError{Op: "RemoveNode", NodeID: id, Err: models.ErrNodeNotFound}
	}

	var events []Event

	for _, conn := range s.connectionsLocked() {
		if conn.Source == id || conn.Target == id {
			s.deleteConnectionLocked(conn.ID)
			events = append(events, Event{Type: EventConnectionRemoved, Connection: conn})
		}
	}

	delete(s.nodes, id)
	s.nodeOrder = removeID(s.nodeOrder, id)
	s.mu.Unlock()

	events = append(events, Event{Type: EventNodeRemoved, NodeID: id, Kind: entry.node.Kind()})
	s.emit(events...)

	return nil
}

// AddConnection validates and inserts a connection. An empty conn.ID is replaced by a fresh id.
func (s *Store) AddConnection(conn models.Connection) (string, error) {
	if conn.ID == "" {
		conn.ID = NewID()
	}

	s.mu.Lock()
	if err := s.validateConnectionLocked(&conn); err != nil {
		s.mu.Unlock()

		return "", &models.ConnectionError{Op: "AddConnection", Connection: describe(&conn), Err: err}
	}

	stored := conn
	s.connections[conn.ID] = &stored
	s.connOrder = append(s.connOrder, conn.ID)
	s.mu.Unlock()

	out := conn
	s.emit(Event{Type: EventConnectionCreated, Connection: &out})

	return conn.ID, nil
}

func (s *Store) RemoveConnection(id string) error {
	s.mu.Lock()

	conn, ok := s.connections[id]
	if !ok {
		s.mu.Unlock()

		return &models.ConnectionError{Op: "RemoveConnection", Connection: id, Err: models.ErrConnectionNotFound}
	}

	removed := *conn
	s.deleteConnectionLocked(id)
	s.mu.Unlock()

	s.emit(Event{Type: EventConnectionRemoved, Connection: &removed})

	return nil
}

func (s *Store) Node(id string) (protocol.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.nodes[id]
	if !ok {
		return nil, false
	}

	return entry.node, true
}

// Nodes returns the live nodes in insertion order.
func (s *Store) Nodes() []protocol.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]protocol.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		nodes = append(nodes, s.nodes[id].node)
	}

	return nodes
}

// Connections returns copies of the connections in insertion order.
func (s *Store) Connections() []models.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]models.Connection, 0, len(s.connOrder))
	for _, id := range s.connOrder {
		conns = append(conns, *s.connections[id])
	}

	return conns
}

func (s *Store) Position(id string) (models.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.nodes[id]
	if !ok {
		return models.Position{}, false
	}

	return entry.position, true
}

// Translate moves a node. Positions never affect evaluation.
func (s *Store) Translate(id string, position models.Position) error {
	s.mu.Lock()

	entry, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()

		return &models.NodeError{Op: "Translate", NodeID: id, Err: models.ErrNodeNotFound}
	}

	entry.position = position
	s.mu.Unlock()

	s.emit(Event{Type: EventNodeTranslated, NodeID: id, Position: position})

	return nil
}

// SetControl writes a node control. Writes the node rejected without applying are not announced.
// When the write changes the node's ports, connections to vanished ports are removed.
func (s *Store) SetControl(ctx context.Context, id, name string, value any) error {
	node, ok := s.Node(id)
	if !ok {
		return &models.NodeError{Op: "SetControl", NodeID: id, Err: models.ErrNodeNotFound}
	}

	before := node.Controls()[name]

	err := node.SetControl(ctx, name, value)

	after := node.Controls()[name]
	if err != nil && reflect.DeepEqual(before, after) {
		return &models.NodeError{Op: "SetControl", NodeID: id, Err: err}
	}

	events := []Event{{Type: EventControlChanged, NodeID: id, Kind: node.Kind(), Control: name, Value: after}}
	events = append(events, s.pruneDangling(id)...)
	s.emit(events...)

	if err != nil {
		return &models.NodeError{Op: "SetControl", NodeID: id, Err: err}
	}

	return nil
}

// Clear removes every node and connection.
func (s *Store) Clear() {
	s.mu.Lock()
	s.nodes = make(map[string]*nodeEntry)
	s.nodeOrder = nil
	s.connections = make(map[string]*models.Connection)
	s.connOrder = nil
	s.mu.Unlock()

	s.emit(Event{Type: EventCleared})
}

// Len returns the number of nodes and connections.
func (s *Store) Len() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodeOrder), len(s.connOrder)
}

func (s *Store) pruneDangling(id string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nodes[id]
	if !ok {
		return nil
	}

	var events []Event

	for _, conn := range s.connectionsLocked() {
		dangling := false

		if conn.Source == id {
			_, found := models.FindPort(entry.node.OutputPorts(), conn.SourceOutput)
			dangling = !found
		}

		if conn.Target == id && !dangling {
			_, found := models.FindPort(entry.node.InputPorts(), conn.TargetInput)
			dangling = !found
		}

		if dangling {
			s.deleteConnectionLocked(conn.ID)
			events = append(events, Event{Type: EventConnectionRemoved, Connection: conn})
		}
	}

	return events
}

func (s *Store) validateConnectionLocked(conn *models.Connection) error {
	if _, exists := s.connections[conn.ID]; exists {
		return models.NewValidationError("duplicate connection id %s", conn.ID)
	}

	source, ok := s.nodes[conn.Source]
	if !ok {
		return models.NewValidationError("source node %s does not exist", conn.Source)
	}

	target, ok := s.nodes[conn.Target]
	if !ok {
		return models.NewValidationError("target node %s does not exist", conn.Target)
	}

	out, ok := models.FindPort(source.node.OutputPorts(), conn.SourceOutput)
	if !ok {
		return models.NewValidationError("node %s has no output %q", conn.Source, conn.SourceOutput)
	}

	in, ok := models.FindPort(target.node.InputPorts(), conn.TargetInput)
	if !ok {
		return models.NewValidationError("node %s has no input %q", conn.Target, conn.TargetInput)
	}

	if out.Type != in.Type {
		return models.NewValidationError("type mismatch: %s -> %s", out.Type, in.Type)
	}

	for _, existing := range s.connections {
		if existing.Source == conn.Source && existing.SourceOutput == conn.SourceOutput &&
			existing.Target == conn.Target && existing.TargetInput == conn.TargetInput {
			return models.NewValidationError("connection already exists")
		}
	}

	if !s.allowCycles && s.reachableLocked(conn.Target, conn.Source) {
		return models.NewValidationError("connection would create a cycle")
	}

	return nil
}

// reachableLocked reports whether to can be reached from from by following connections downstream.
func (s *Store) reachableLocked(from, to string) bool {
	visited := make(map[string]bool)
	stack := []string{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == to {
			return true
		}

		if visited[current] {
			continue
		}

		visited[current] = true

		for _, conn := range s.connections {
			if conn.Source == current && !visited[conn.Target] {
				stack = append(stack, conn.Target)
			}
		}
	}

	return false
}

func (s *Store) connectionsLocked() []*models.Connection {
	conns := make([]*models.Connection, 0, len(s.connOrder))
	for _, id := range s.connOrder {
		c := *s.connections[id]
		conns = append(conns, &c)
	}

	return conns
}

func (s *Store) deleteConnectionLocked(id string) {
	delete(s.connections, id)
	s.connOrder = removeID(s.connOrder, id)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}

	return ids
}

func describe(conn *models.Connection) string {
	return fmt.Sprintf("%s -> %s", conn.SourcePortID(), conn.TargetPortID())
}
