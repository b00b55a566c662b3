// Package registry maps node kinds to the factories that construct them.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	factories map[models.Kind]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[models.Kind]protocol.NodeFactory),
	}
}

// RegisterNode installs a factory, replacing any factory already bound to its kind.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[factory.Kind()] = factory

	r.logger.Debug("Registered node factory", slog.String("kind", string(factory.Kind())), slog.String("name", factory.Name()))
}

// Factory returns the factory bound to kind.
func (r *Registry) Factory(kind models.Kind) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[kind]

	return factory, ok
}

// CreateNode constructs a live node of the given kind.
func (r *Registry) CreateNode(
	ctx context.Context,
	kind models.Kind,
	id string,
	controls map[string]any,
	onChange protocol.ChangeFunc,
) (protocol.Node, error) {
	factory, ok := r.Factory(kind)
	if !ok {
		return nil, &models.NodeError{
			Op:     "Create",
			NodeID: id,
			Err:    models.NewValidationError("node kind %q not registered", kind),
		}
	}

	return factory.Create(ctx, id, controls, onChange)
}

// GetAvailableNodes returns the registered factories ordered by kind.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.factories))
	for _, factory := range r.factories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		return factories[i].Kind() < factories[j].Kind()
	})

	return factories
}

// Validate reports every declared kind that has no factory.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string

	for _, kind := range models.Kinds() {
		if _, ok := r.factories[kind]; !ok {
			missing = append(missing, string(kind))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("node kinds without factory: %s", strings.Join(missing, ", "))
	}

	return nil
}

func (r *Registry) HealthCheck() (string, bool) {
	if err := r.Validate(); err != nil {
		return err.Error(), false
	}

	return "ok", true
}
