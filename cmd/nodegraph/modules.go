package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/nodegraph/pkg/codec"
	"github.com/dukex/nodegraph/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func modulesCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "modules",
		Usage: "Inspect and store modules",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List module names",
				Action: func(ctx context.Context, command *cli.Command) error {
					s, err := newSession(ctx, logger, command)
					if err != nil {
						return err
					}
					defer s.close(ctx)

					names, err := s.names(ctx)
					if err != nil {
						return err
					}

					for _, name := range names {
						fmt.Println(name)
					}

					return nil
				},
			},
			{
				Name:      "export",
				Usage:     "Print a module payload as JSON",
				ArgsUsage: "<module>",
				Action: func(ctx context.Context, command *cli.Command) error {
					s, err := newSession(ctx, logger, command)
					if err != nil {
						return err
					}
					defer s.close(ctx)

					name := command.Args().First()

					module, found, err := s.modules.Find(ctx, name)
					if err != nil {
						return err
					}

					if !found || module.Payload == nil {
						return &models.ModuleError{Op: "Export", Module: name, Err: models.ErrModuleNotFound}
					}

					data, err := codec.EncodeJSON(module.Payload)
					if err != nil {
						return err
					}

					_, err = fmt.Println(string(data))

					return err
				},
			},
			{
				Name:      "import",
				Usage:     "Validate a JSON payload file and store it under a name",
				ArgsUsage: "<module> <file>",
				Action: func(ctx context.Context, command *cli.Command) error {
					name, path := command.Args().Get(0), command.Args().Get(1)
					if name == "" || path == "" {
						return fmt.Errorf("module name and file are required")
					}

					s, err := newSession(ctx, logger, command)
					if err != nil {
						return err
					}
					defer s.close(ctx)

					if s.persistence == nil {
						return fmt.Errorf("--database-url is required to store modules")
					}

					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}

					payload, err := codec.DecodeJSON(data)
					if err != nil {
						return err
					}

					if err := s.modules.Codec().Validate(payload); err != nil {
						return err
					}

					return s.persistence.SaveModule(ctx, &models.Module{Name: name, Payload: payload})
				},
			},
		},
	}
}
