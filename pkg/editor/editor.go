// Package editor owns one editing session: a graph store, its dataflow engine and the module currently open.
// Every operation runs on a single worker goroutine in arrival order.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dukex/nodegraph/pkg/dataflow"
	"github.com/dukex/nodegraph/pkg/eventbus"
	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/modules"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/registry"
)

// ErrClosed is returned by operations submitted after Destroy.
var ErrClosed = errors.New("editor destroyed")

type Option func(*Editor)

// WithEventBus forwards store events and module lifecycle steps to bus.
func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(e *Editor) {
		e.bus = bus
	}
}

// WithPersistence makes Save write modules through p.
func WithPersistence(p persistence.Persistence) Option {
	return func(e *Editor) {
		e.persistence = p
	}
}

// WithEngineOptions passes options to the dataflow engine of the session.
func WithEngineOptions(opts ...dataflow.Option) Option {
	return func(e *Editor) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Editor is the handle given to presentation layers.
type Editor struct {
	logger      *slog.Logger
	nodes       *registry.Registry
	modules     *modules.Registry
	store       *graph.Store
	engine      *dataflow.Engine
	engineOpts  []dataflow.Option
	bus         eventbus.EventPublisher
	persistence persistence.Persistence

	mu      sync.RWMutex
	current string

	closeMu sync.RWMutex
	closed  bool
	tasks   chan task
	stopped chan struct{}

	unsubscribe func()
}

// New creates a session with an empty graph and starts its worker.
func New(logger *slog.Logger, nodes *registry.Registry, mods *modules.Registry, opts ...Option) *Editor {
	e := &Editor{
		logger:  logger.With("component", "editor"),
		nodes:   nodes,
		modules: mods,
		tasks:   make(chan task),
		stopped: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.store = graph.NewStore(graph.WithLogger(e.logger))
	e.engine = dataflow.NewEngine(e.store, append([]dataflow.Option{dataflow.WithLogger(e.logger)}, e.engineOpts...)...)
	e.unsubscribe = e.store.Subscribe(e.forward)

	go e.run()

	return e
}

func (e *Editor) run() {
	defer close(e.stopped)

	for t := range e.tasks {
		t.done <- t.fn(t.ctx)
	}
}

// submit queues fn and waits for its result. A caller whose ctx ends stops waiting,
// but a task already queued still runs to completion. Tasks must not call submit.
func (e *Editor) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	e.closeMu.RLock()

	if e.closed {
		e.closeMu.RUnlock()

		return ErrClosed
	}

	t := task{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan error, 1)}

	select {
	case e.tasks <- t:
	case <-ctx.Done():
		e.closeMu.RUnlock()

		return ctx.Err()
	}

	e.closeMu.RUnlock()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the name of the open module, or "" when none is open.
func (e *Editor) Current() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.current
}

func (e *Editor) setCurrent(name string) {
	e.mu.Lock()
	e.current = name
	e.mu.Unlock()
}

// Store returns the session graph. Mutating it outside Do bypasses the operation queue.
func (e *Editor) Store() *graph.Store {
	return e.store
}

// Destroy waits for queued operations, then releases the session. Calling it again is a no-op.
func (e *Editor) Destroy(ctx context.Context) error {
	e.closeMu.Lock()

	if e.closed {
		e.closeMu.Unlock()

		return nil
	}

	e.closed = true
	close(e.tasks)
	e.closeMu.Unlock()

	select {
	case <-e.stopped:
	case <-ctx.Done():
		go func() {
			<-e.stopped
			e.release(context.WithoutCancel(ctx))
		}()

		return ctx.Err()
	}

	e.release(ctx)

	return nil
}

func (e *Editor) release(ctx context.Context) {
	e.unsubscribe()
	e.engine.Close()
	e.store.Clear()
	e.setCurrent("")

	e.logger.InfoContext(ctx, "Editor destroyed")
}
