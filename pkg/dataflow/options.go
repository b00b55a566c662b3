package dataflow

import (
	"log/slog"
	"maps"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithArguments sets the values Input nodes receive, keyed by their key control.
func WithArguments(args map[string]float64) Option {
	return func(e *Engine) {
		e.args = maps.Clone(args)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}
