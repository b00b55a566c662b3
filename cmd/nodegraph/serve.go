package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/nodegraph/pkg/cmd"
	"github.com/dukex/nodegraph/pkg/dataflow"
	"github.com/dukex/nodegraph/pkg/editor"
	"github.com/dukex/nodegraph/pkg/otelhelper"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/registry"
	"github.com/dukex/nodegraph/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"
)

type API struct {
	logger      *slog.Logger
	editor      *editor.Editor
	registry    *registry.Registry
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	ed *editor.Editor,
	registry *registry.Registry,
	persistence persistence.Persistence,
) *API {
	return &API{
		logger:      logger,
		editor:      ed,
		registry:    registry,
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.editor, a.validate, a.registry, a.persistence)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("nodegraph API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}

func serveCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve an editor session over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "autosave",
				Usage:   "Cron schedule saving the open module, e.g. \"@every 1m\"",
				Sources: cli.EnvVars("AUTOSAVE_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:  "open",
				Usage: "Module opened at startup",
				Value: "root",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger.InfoContext(ctx, "Initializing nodegraph API")

			if command.Bool("otel") {
				_, shutdown, err := otelhelper.NewTracer(ctx, "nodegraph")
				if err != nil {
					return err
				}

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
					}
				}()
			}

			session, err := newSession(ctx, logger, command)
			if err != nil {
				return err
			}
			defer session.close(ctx)

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			ed := session.editor(logger,
				editor.WithEventBus(eventBus),
				editor.WithEngineOptions(dataflow.WithTracer(otelhelper.Tracer())),
			)

			defer func() {
				if err := ed.Destroy(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to destroy editor", "error", err)
				}
			}()

			if name := command.String("open"); name != "" {
				if err := ed.Open(ctx, name); err != nil {
					logger.WarnContext(ctx, "Failed to open startup module", "module", name, "error", err)
				}
			}

			if schedule := command.String("autosave"); schedule != "" {
				stop, err := editor.StartAutosave(ctx, ed, schedule)
				if err != nil {
					return err
				}
				defer stop()
			}

			api := NewAPI(logger, ed, session.nodes, session.persistence)

			return api.Start(command.Int("port"))
		},
	}
}
