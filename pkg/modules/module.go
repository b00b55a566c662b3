// Package modules keeps the named sub-graphs of an editor and resolves them for nested module nodes.
package modules

import (
	"context"

	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
)

// Applier builds a module directly into a store that has just been cleared.
type Applier func(ctx context.Context, store *graph.Store) error

// Module is a catalog entry: either a stored payload or an applier.
type Module struct {
	Name    string
	Payload *models.Payload
	Applier Applier
}

// Resolver loads modules that were never registered, typically from persistence.
// It returns an error matching models.ErrModuleNotFound for unknown names.
type Resolver func(ctx context.Context, name string) (*models.Payload, error)
