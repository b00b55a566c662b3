// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/nodegraph/pkg/catalog"
	"github.com/dukex/nodegraph/pkg/codec"
	"github.com/dukex/nodegraph/pkg/modules"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/registry"
)

// NewRegistries builds the node registry and the module registry, then installs the builtin
// catalog, the modules found in catalogDir when set, and finally every persisted module.
// Each layer overrides the one before it. Modules persisted later resolve lazily.
func NewRegistries(
	ctx context.Context,
	logger *slog.Logger,
	p persistence.Persistence,
	catalogDir string,
) (*registry.Registry, *modules.Registry, error) {
	nodes := registry.NewRegistry(logger)

	opts := []modules.Option{
		modules.WithCodecOptions(codec.WithChangeHandler(LogControlChange(logger))),
	}
	if p != nil {
		opts = append(opts, modules.WithResolver(persistence.Resolver(p)))
	}

	mods := modules.NewRegistry(logger, nodes, opts...)
	nodes.RegisterDefaultNodes(mods)

	if err := nodes.Validate(); err != nil {
		return nil, nil, err
	}

	builtin, err := catalog.Builtin()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load builtin catalog: %w", err)
	}

	if err := catalog.Install(mods, builtin, false); err != nil {
		return nil, nil, err
	}

	if catalogDir != "" {
		entries, err := catalog.LoadDir(catalogDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load catalog %s: %w", catalogDir, err)
		}

		if err := catalog.Install(mods, entries, true); err != nil {
			return nil, nil, err
		}

		logger.InfoContext(ctx, "Catalog loaded", "dir", catalogDir, "modules", len(entries))
	}

	if p != nil {
		persisted, err := p.Modules(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load persisted modules: %w", err)
		}

		for _, module := range persisted {
			mods.Overwrite(module.Name, module.Payload)
		}

		logger.InfoContext(ctx, "Persisted modules loaded", "modules", len(persisted))
	}

	return nodes, mods, nil
}

// LogControlChange reports every accepted control write of an editor node at debug level.
func LogControlChange(logger *slog.Logger) codec.ChangeHandler {
	return func(nodeID, control string, value any) error {
		logger.Debug("Control changed", "node_id", nodeID, "control", control, "value", value)

		return nil
	}
}
