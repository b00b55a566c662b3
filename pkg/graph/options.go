package graph

import "log/slog"

type Option func(*Store)

// WithCyclesAllowed disables the cycle check on AddConnection.
// Cycles are then reported by the dataflow engine at evaluation time.
func WithCyclesAllowed() Option {
	return func(s *Store) {
		s.allowCycles = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}
