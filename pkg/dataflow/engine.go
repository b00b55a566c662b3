// Package dataflow evaluates a graph store depth-first with a memo table scoped to one evaluation pass.
package dataflow

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/otelhelper"
	"github.com/dukex/nodegraph/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine computes node outputs for one store.
type Engine struct {
	store  *graph.Store
	logger *slog.Logger
	tracer trace.Tracer

	passMu sync.Mutex
	args   map[string]float64

	// generation moves on every store event so a pass in flight stops trusting its memo.
	generation atomic.Uint64

	unsubscribe func()
}

// NewEngine creates an engine bound to store. Close releases the store subscription.
func NewEngine(store *graph.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.Default(),
		tracer: otelhelper.Tracer(),
		args:   map[string]float64{},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.unsubscribe = store.Subscribe(func(event graph.Event) {
		if event.Topological() {
			e.Invalidate()
		}
	})

	return e
}

// Invalidate discards what a running pass has memoized so far. Every pass
// starts with an empty memo, so results never outlive the pass that made them.
func (e *Engine) Invalidate() {
	e.generation.Add(1)
}

// SetArguments replaces the Input node arguments used by the next pass.
func (e *Engine) SetArguments(args map[string]float64) {
	e.passMu.Lock()
	e.args = maps.Clone(args)
	e.passMu.Unlock()
}

func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Evaluate returns the outputs of node id, computing its upstream nodes as needed.
func (e *Engine) Evaluate(ctx context.Context, id string) (models.Outputs, error) {
	results, err := e.EvaluateAll(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	return results[id], nil
}

// EvaluateAll evaluates ids in a single pass. Any failure aborts the whole pass.
func (e *Engine) EvaluateAll(ctx context.Context, ids []string) (map[string]models.Outputs, error) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	p := e.newPass()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "dataflow.evaluate",
		attribute.Int(otelhelper.NodeCountKey, len(p.nodes)),
		attribute.Int(otelhelper.ConnCountKey, p.connections),
	)
	defer span.End()

	results := make(map[string]models.Outputs, len(ids))

	for _, id := range ids {
		outputs, err := p.evaluate(ctx, id)
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.NodeIDKey, id))
			e.logger.DebugContext(ctx, "Evaluation pass failed", slog.String("node_id", id), slog.Any("error", err))

			return nil, err
		}

		results[id] = maps.Clone(outputs)
	}

	span.SetAttributes(
		attribute.Int(otelhelper.EvaluatedKey, p.evaluated),
		attribute.Int(otelhelper.CacheHitsKey, p.hits),
	)

	e.logger.DebugContext(ctx, "Evaluation pass done",
		slog.Int("requested", len(ids)),
		slog.Int("evaluated", p.evaluated),
		slog.Int("cache_hits", p.hits),
	)

	return results, nil
}

// Process evaluates every node of the store.
func (e *Engine) Process(ctx context.Context) (map[string]models.Outputs, error) {
	nodes := e.store.Nodes()

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID())
	}

	return e.EvaluateAll(ctx, ids)
}

type pass struct {
	engine      *Engine
	generation  uint64
	memo        map[string]models.Outputs
	nodes       map[string]protocol.Node
	incoming    map[string][]models.Connection
	connections int

	inProgress map[string]bool
	stack      []string
	evaluated  int
	hits       int
}

func (e *Engine) newPass() *pass {
	p := &pass{
		engine:     e,
		generation: e.generation.Load(),
		memo:       make(map[string]models.Outputs),
		nodes:      make(map[string]protocol.Node),
		incoming:   make(map[string][]models.Connection),
		inProgress: make(map[string]bool),
	}

	for _, node := range e.store.Nodes() {
		p.nodes[node.ID()] = node
	}

	conns := e.store.Connections()
	p.connections = len(conns)

	for _, conn := range conns {
		p.incoming[conn.Target] = append(p.incoming[conn.Target], conn)
	}

	return p
}

func (p *pass) evaluate(ctx context.Context, id string) (models.Outputs, error) {
	if outputs, ok := p.cached(id); ok {
		p.hits++

		return outputs, nil
	}

	if p.inProgress[id] {
		start := slices.Index(p.stack, id)
		path := append(slices.Clone(p.stack[start:]), id)

		return nil, &models.CycleError{Path: path}
	}

	node, ok := p.nodes[id]
	if !ok {
		return nil, &models.NodeError{Op: "Evaluate", NodeID: id, Err: models.ErrNodeNotFound}
	}

	p.inProgress[id] = true
	p.stack = append(p.stack, id)

	defer func() {
		delete(p.inProgress, id)
		p.stack = p.stack[:len(p.stack)-1]
	}()

	inputs := models.Inputs{}

	for _, conn := range p.incoming[id] {
		upstream, err := p.evaluate(ctx, conn.Source)
		if err != nil {
			return nil, err
		}

		if v, ok := upstream[conn.SourceOutput]; ok {
			inputs[conn.TargetInput] = append(inputs[conn.TargetInput], v)
		}
	}

	if receiver, ok := node.(protocol.ArgumentReceiver); ok {
		if v, ok := p.engine.args[receiver.ArgumentKey()]; ok {
			inputs[models.ArgumentPort] = []float64{v}
		}
	}

	outputs, err := node.Compute(ctx, inputs)
	if err != nil {
		return nil, &models.NodeError{Op: "Compute", NodeID: id, Err: err}
	}

	p.evaluated++
	p.store(id, outputs)

	return outputs, nil
}

func (p *pass) cached(id string) (models.Outputs, bool) {
	if p.stale() {
		return nil, false
	}

	outputs, ok := p.memo[id]

	return outputs, ok
}

// store memoizes outputs unless the graph changed since the pass started.
func (p *pass) store(id string, outputs models.Outputs) {
	if !p.stale() {
		p.memo[id] = outputs
	}
}

func (p *pass) stale() bool {
	if p.engine.generation.Load() == p.generation {
		return false
	}

	clear(p.memo)

	return true
}
