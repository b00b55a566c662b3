package modules

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/nodegraph/pkg/codec"
	"github.com/dukex/nodegraph/pkg/dataflow"
	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/nodes/boundary"
	"github.com/dukex/nodegraph/pkg/otelhelper"
	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/dukex/nodegraph/pkg/registry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Registry is the module catalog of one editor. It also serves as the
// protocol.ModuleResolver of module nodes.
type Registry struct {
	logger    *slog.Logger
	codec     *codec.Codec
	codecOpts []codec.Option
	tracer    trace.Tracer

	mu       sync.RWMutex
	modules  map[string]*Module
	order    []string
	resolver Resolver
	resolved map[string]*models.Payload
	misses   []string
}

var _ protocol.ModuleResolver = (*Registry)(nil)

type Option func(*Registry)

// WithResolver installs a lazy loader consulted for names that were never registered.
func WithResolver(resolver Resolver) Option {
	return func(r *Registry) {
		r.resolver = resolver
	}
}

// WithCodecOptions configures the codec that imports module payloads.
func WithCodecOptions(opts ...codec.Option) Option {
	return func(r *Registry) {
		r.codecOpts = append(r.codecOpts, opts...)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// NewRegistry creates an empty catalog that imports payloads through nodes.
func NewRegistry(logger *slog.Logger, nodes *registry.Registry, opts ...Option) *Registry {
	r := &Registry{
		logger:   logger,
		tracer:   otelhelper.Tracer(),
		modules:  make(map[string]*Module),
		resolved: make(map[string]*models.Payload),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.codec = codec.NewCodec(nodes, append([]codec.Option{codec.WithLogger(logger)}, r.codecOpts...)...)

	return r
}

// Codec returns the codec used to import and export module payloads.
func (r *Registry) Codec() *codec.Codec {
	return r.codec
}

// Register adds a payload module. Names are unique.
func (r *Registry) Register(name string, payload *models.Payload) error {
	return r.add(&Module{Name: name, Payload: payload.Clone()})
}

// RegisterApplier adds a module built by fn instead of a payload.
func (r *Registry) RegisterApplier(name string, fn Applier) error {
	if fn == nil {
		return &models.ModuleError{Op: "Register", Module: name, Err: models.NewValidationError("applier is nil")}
	}

	return r.add(&Module{Name: name, Applier: fn})
}

func (r *Registry) add(module *Module) error {
	if module.Name == "" {
		return &models.ModuleError{Op: "Register", Module: module.Name, Err: models.NewValidationError("module name is empty")}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[module.Name]; exists {
		return &models.ModuleError{Op: "Register", Module: module.Name, Err: models.ErrModuleExists}
	}

	r.modules[module.Name] = module
	r.order = append(r.order, module.Name)

	r.logger.Debug("Module registered", slog.String("module", module.Name))

	return nil
}

// Overwrite replaces the payload of name, registering it when absent.
func (r *Registry) Overwrite(name string, payload *models.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; !exists {
		r.order = append(r.order, name)
	}

	r.modules[name] = &Module{Name: name, Payload: payload.Clone()}
	delete(r.resolved, name)
}

// Names returns registered modules in registration order, followed by modules loaded lazily.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Clone(r.order)

	for _, name := range r.misses {
		if _, registered := r.modules[name]; !registered {
			names = append(names, name)
		}
	}

	return names
}

// Find looks name up among registered modules, then through the lazy resolver.
// The returned module never shares its payload with the catalog.
func (r *Registry) Find(ctx context.Context, name string) (Module, bool, error) {
	r.mu.RLock()
	module, ok := r.modules[name]
	cached, resolved := r.resolved[name]
	resolver := r.resolver
	r.mu.RUnlock()

	if ok {
		return Module{Name: name, Payload: clonePayload(module.Payload), Applier: module.Applier}, true, nil
	}

	if resolved {
		return Module{Name: name, Payload: cached.Clone()}, true, nil
	}

	if resolver == nil {
		return Module{}, false, nil
	}

	payload, err := resolver(ctx, name)
	if errors.Is(err, models.ErrModuleNotFound) {
		return Module{}, false, nil
	}

	if err != nil {
		return Module{}, false, &models.ModuleError{Op: "Resolve", Module: name, Err: err}
	}

	r.mu.Lock()
	if _, exists := r.resolved[name]; !exists {
		r.misses = append(r.misses, name)
	}
	r.resolved[name] = payload.Clone()
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Module resolved lazily", slog.String("module", name))

	return Module{Name: name, Payload: payload.Clone()}, true, nil
}

// Apply clears store and rebuilds it from the named module.
// Whenever it fails the store is left empty.
func (r *Registry) Apply(ctx context.Context, name string, store *graph.Store) error {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "modules.apply", attribute.String(otelhelper.ModuleNameKey, name))
	defer span.End()

	store.Clear()

	if err := r.load(ctx, name, store); err != nil {
		store.Clear()
		otelhelper.SetError(span, err)

		return err
	}

	nodes, conns := store.Len()
	span.SetAttributes(
		attribute.Int(otelhelper.NodeCountKey, nodes),
		attribute.Int(otelhelper.ConnCountKey, conns),
	)

	r.logger.InfoContext(ctx, "Module applied", slog.String("module", name), slog.Int("nodes", nodes), slog.Int("connections", conns))

	return nil
}

// Export captures store as a payload suitable for Register or Overwrite.
func (r *Registry) Export(store *graph.Store) (*models.Payload, error) {
	return r.codec.Export(store)
}

// Interface returns the argument and result keys of the named module, in node order.
func (r *Registry) Interface(ctx context.Context, name string) (protocol.ModuleInterface, error) {
	store := graph.NewStore(graph.WithLogger(r.logger))

	if err := r.load(ctx, name, store); err != nil {
		return protocol.ModuleInterface{}, err
	}

	iface := protocol.ModuleInterface{Inputs: []string{}, Outputs: []string{}}

	for _, node := range store.Nodes() {
		switch n := node.(type) {
		case protocol.ArgumentReceiver:
			if !slices.Contains(iface.Inputs, n.ArgumentKey()) {
				iface.Inputs = append(iface.Inputs, n.ArgumentKey())
			}
		case protocol.ResultEmitter:
			if !slices.Contains(iface.Outputs, n.ResultKey()) {
				iface.Outputs = append(iface.Outputs, n.ResultKey())
			}
		}
	}

	return iface, nil
}

// Run evaluates the named module in a scratch graph with args bound to its Input nodes
// and returns the value of each Output node by key. The first Output node of a key wins.
func (r *Registry) Run(ctx context.Context, name string, args map[string]float64) (map[string]float64, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "modules.run",
		attribute.String(otelhelper.ModuleNameKey, name),
		attribute.Int(otelhelper.ModuleDepthKey, depth(ctx)),
	)
	defer span.End()

	store := graph.NewStore(graph.WithLogger(r.logger))

	if err := r.load(ctx, name, store); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	engine := dataflow.NewEngine(store,
		dataflow.WithArguments(args),
		dataflow.WithLogger(r.logger),
		dataflow.WithTracer(r.tracer),
	)
	defer engine.Close()

	keys := make(map[string]string)

	var ids []string

	for _, node := range store.Nodes() {
		emitter, ok := node.(protocol.ResultEmitter)
		if !ok {
			continue
		}

		if _, seen := keys[emitter.ResultKey()]; seen {
			continue
		}

		keys[emitter.ResultKey()] = node.ID()
		ids = append(ids, node.ID())
	}

	outputs, err := engine.EvaluateAll(ctx, ids)
	if err != nil {
		err = &models.ModuleError{Op: "Run", Module: name, Err: err}
		otelhelper.SetError(span, err)

		return nil, err
	}

	results := make(map[string]float64, len(keys))
	for key, id := range keys {
		results[key] = outputs[id][boundary.OutputPortValue]
	}

	return results, nil
}

// load builds the named module into an empty store with name pushed on the module stack.
func (r *Registry) load(ctx context.Context, name string, store *graph.Store) error {
	ctx, err := enter(ctx, name)
	if err != nil {
		return &models.ModuleError{Op: "Load", Module: name, Err: err}
	}

	module, ok, err := r.Find(ctx, name)
	if err != nil {
		return err
	}

	if !ok {
		return &models.ModuleError{Op: "Find", Module: name, Err: models.ErrModuleNotFound}
	}

	if module.Applier != nil {
		err = module.Applier(ctx, store)
	} else {
		err = r.codec.Import(ctx, store, module.Payload)
	}

	if err != nil {
		return &models.ModuleError{Op: "Load", Module: name, Err: err}
	}

	return nil
}

func clonePayload(payload *models.Payload) *models.Payload {
	if payload == nil {
		return nil
	}

	return payload.Clone()
}
