// Package persistence provides durable storage for editor modules.
package persistence

import (
	"context"

	"github.com/dukex/nodegraph/pkg/models"
)

type Persistence interface {
	Modules(ctx context.Context) ([]*models.Module, error)
	ModuleByName(ctx context.Context, name string) (*models.Module, error)
	SaveModule(ctx context.Context, module *models.Module) error
	DeleteModule(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// Resolver adapts p to the lazy module lookup of the module registry.
func Resolver(p Persistence) func(ctx context.Context, name string) (*models.Payload, error) {
	return func(ctx context.Context, name string) (*models.Payload, error) {
		module, err := p.ModuleByName(ctx, name)
		if err != nil {
			return nil, err
		}

		return module.Payload, nil
	}
}
