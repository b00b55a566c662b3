// Package main provides the nodegraph command line: an HTTP editor server and offline module tools.
package main

import (
	"context"
	"os"

	"github.com/dukex/nodegraph/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("nodegraph")

	cmd := &cli.Command{
		Name:                  "nodegraph",
		Usage:                 "Edit and evaluate node-graph modules",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Module storage URL (file://dir, postgres://..., redis://...)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "catalog-dir",
				Usage:   "Directory of .json and .hcl modules loaded at startup",
				Sources: cli.EnvVars("CATALOG_DIR"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(logger),
			evalCommand(logger),
			modulesCommand(logger),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("nodegraph failed", "error", err)
		os.Exit(1)
	}
}
