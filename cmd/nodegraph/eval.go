package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
)

func evalCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "Evaluate a module and print its outputs as JSON",
		ArgsUsage: "<module>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "arg",
				Usage: "Module argument as key=value; with arguments only the module results are printed",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			name := command.Args().First()
			if name == "" {
				return fmt.Errorf("module name is required")
			}

			args, err := parseArguments(command.StringSlice("arg"))
			if err != nil {
				return err
			}

			s, err := newSession(ctx, logger, command)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			var result any

			if len(args) > 0 {
				result, err = s.modules.Run(ctx, name, args)
			} else {
				result, err = evaluateModule(ctx, logger, s, name)
			}

			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(result)
		},
	}
}

func evaluateModule(ctx context.Context, logger *slog.Logger, s *session, name string) (any, error) {
	ed := s.editor(logger)
	defer func() { _ = ed.Destroy(ctx) }()

	if err := ed.Open(ctx, name); err != nil {
		return nil, err
	}

	return ed.Process(ctx)
}

func parseArguments(pairs []string) (map[string]float64, error) {
	args := make(map[string]float64, len(pairs))

	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", pair, err)
		}

		args[key] = value
	}

	return args, nil
}
