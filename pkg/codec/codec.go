// Package codec converts between a live graph store and its persisted payload.
package codec

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/dukex/nodegraph/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed payload.schema.json
var payloadSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(payloadSchema)

// ChangeHandler observes control writes of imported nodes. Its error is returned from the write.
type ChangeHandler func(nodeID, control string, value any) error

type Codec struct {
	registry *registry.Registry
	validate *validator.Validate
	logger   *slog.Logger
	onChange ChangeHandler
}

type Option func(*Codec)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

func WithChangeHandler(fn ChangeHandler) Option {
	return func(c *Codec) {
		c.onChange = fn
	}
}

func NewCodec(reg *registry.Registry, opts ...Option) *Codec {
	c := &Codec{
		registry: reg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Export captures nodes and connections in store order.
func (c *Codec) Export(store *graph.Store) (*models.Payload, error) {
	payload := models.EmptyPayload()

	for _, node := range store.Nodes() {
		controls, err := node.Serialize()
		if err != nil {
			return nil, &models.NodeError{Op: "Export", NodeID: node.ID(), Err: err}
		}

		position, _ := store.Position(node.ID())

		payload.Nodes = append(payload.Nodes, &models.Node{
			ID:       node.ID(),
			Kind:     node.Kind(),
			Controls: controls,
			Position: position,
		})
	}

	for _, conn := range store.Connections() {
		payload.Connections = append(payload.Connections, &conn)
	}

	return payload, nil
}

// Import recreates payload into store, nodes first. Node ids are kept.
// On error the store may hold a partial import; callers clear it.
func (c *Codec) Import(ctx context.Context, store *graph.Store, payload *models.Payload) error {
	if payload == nil {
		return models.NewValidationError("payload is nil")
	}

	if err := c.Validate(payload); err != nil {
		return err
	}

	for _, record := range payload.Nodes {
		node, err := c.registry.CreateNode(ctx, record.Kind, record.ID, record.Controls, c.ChangeFunc(record.ID))
		if err != nil {
			return err
		}

		if _, err := store.AddNode(node, record.Position); err != nil {
			return err
		}
	}

	for _, record := range payload.Connections {
		if _, err := store.AddConnection(*record); err != nil {
			return err
		}
	}

	c.logger.DebugContext(ctx, "Payload imported",
		slog.Int("nodes", len(payload.Nodes)),
		slog.Int("connections", len(payload.Connections)),
	)

	return nil
}

// Validate checks the structural rules of every record.
func (c *Codec) Validate(payload *models.Payload) error {
	if err := c.validate.Struct(payload); err != nil {
		return models.NewValidationError("invalid payload: %v", err)
	}

	for _, record := range payload.Nodes {
		if !record.Kind.Valid() {
			return &models.NodeError{Op: "Import", NodeID: record.ID, Err: models.NewValidationError("unknown kind %q", record.Kind)}
		}
	}

	return nil
}

// DecodeJSON validates data against the payload schema and decodes it.
// Numbers stay json.Number until the node controls normalize them.
func DecodeJSON(data []byte) (*models.Payload, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSerialization, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, models.NewValidationError("payload does not match schema: %s", strings.Join(problems, "; "))
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var payload models.Payload
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSerialization, err)
	}

	if payload.Nodes == nil {
		payload.Nodes = make([]*models.Node, 0)
	}

	if payload.Connections == nil {
		payload.Connections = make([]*models.Connection, 0)
	}

	return &payload, nil
}

func EncodeJSON(payload *models.Payload) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSerialization, err)
	}

	return data, nil
}

// ChangeFunc binds the change handler to nodeID, nil when no handler is installed.
func (c *Codec) ChangeFunc(nodeID string) protocol.ChangeFunc {
	if c.onChange == nil {
		return nil
	}

	return func(control string, value any) error {
		return c.onChange(nodeID, control, value)
	}
}
