package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/nodegraph/pkg/cmd"
	"github.com/dukex/nodegraph/pkg/editor"
	"github.com/dukex/nodegraph/pkg/modules"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

// session holds what every subcommand builds from the global flags.
type session struct {
	nodes       *registry.Registry
	modules     *modules.Registry
	persistence persistence.Persistence
}

func newSession(ctx context.Context, logger *slog.Logger, command *cli.Command) (*session, error) {
	p, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to open module storage: %w", err)
	}

	nodes, mods, err := cmd.NewRegistries(ctx, logger, p, command.String("catalog-dir"))
	if err != nil {
		if p != nil {
			_ = p.Close(ctx)
		}

		return nil, err
	}

	return &session{nodes: nodes, modules: mods, persistence: p}, nil
}

func (s *session) editor(logger *slog.Logger, opts ...editor.Option) *editor.Editor {
	if s.persistence != nil {
		opts = append(opts, editor.WithPersistence(s.persistence))
	}

	return editor.New(logger, s.nodes, s.modules, opts...)
}

// names lists registered modules followed by persisted ones not registered yet.
func (s *session) names(ctx context.Context) ([]string, error) {
	names := s.modules.Names()
	if s.persistence == nil {
		return names, nil
	}

	stored, err := s.persistence.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored modules: %w", err)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}

	for _, module := range stored {
		if !seen[module.Name] {
			names = append(names, module.Name)
		}
	}

	return names, nil
}

func (s *session) close(ctx context.Context) {
	if s.persistence == nil {
		return
	}

	if err := s.persistence.Close(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}
