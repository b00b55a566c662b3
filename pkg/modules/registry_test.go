package modules_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/nodegraph/pkg/dataflow"
	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/modules"
	"github.com/dukex/nodegraph/pkg/nodes/constant"
	"github.com/dukex/nodegraph/pkg/registry"
	"github.com/dukex/nodegraph/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModules(t *testing.T, opts ...modules.Option) *modules.Registry {
	t.Helper()

	nodes := registry.NewRegistry(slog.Default())
	mods := modules.NewRegistry(slog.Default(), nodes, opts...)
	nodes.RegisterDefaultNodes(mods)

	return mods
}

func nodeIDs(store *graph.Store) []string {
	var ids []string
	for _, node := range store.Nodes() {
		ids = append(ids, node.ID())
	}

	return ids
}

func TestApply_ReplacesPreviousModule(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("sum", testutil.CreateTestPayload()))
	require.NoError(t, mods.Register("double", testutil.CreateDoublePayload("x", "y")))

	ctx := context.Background()
	store := graph.NewStore()

	require.NoError(t, mods.Apply(ctx, "sum", store))
	assert.Equal(t, []string{"three", "five", "sum"}, nodeIDs(store))

	require.NoError(t, mods.Apply(ctx, "double", store))
	assert.Equal(t, []string{"in", "twice", "out"}, nodeIDs(store))
	assert.Len(t, store.Connections(), 3)

	exported, err := mods.Export(store)
	require.NoError(t, err)

	source := testutil.CreateDoublePayload("x", "y")
	for i, conn := range exported.Connections {
		assert.Equal(t, source.Connections[i].Source, conn.Source)
		assert.Equal(t, source.Connections[i].Target, conn.Target)
	}
}

func TestApply_UnknownModuleLeavesStoreEmpty(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("sum", testutil.CreateTestPayload()))

	ctx := context.Background()
	store := graph.NewStore()
	require.NoError(t, mods.Apply(ctx, "sum", store))

	err := mods.Apply(ctx, "ghost", store)
	require.Error(t, err)
	assert.True(t, models.IsModuleNotFound(err))

	var moduleErr *models.ModuleError
	require.True(t, errors.As(err, &moduleErr))
	assert.Equal(t, "ghost", moduleErr.Module)

	nodes, conns := store.Len()
	assert.Zero(t, nodes)
	assert.Zero(t, conns)
}

func TestApply_FailedImportLeavesStoreEmpty(t *testing.T) {
	mods := newModules(t)

	broken := testutil.CreateTestPayload()
	broken.Connections = append(broken.Connections, testutil.CreateTestConnection("three", "value", "ghost", "left"))
	require.NoError(t, mods.Register("broken", broken))

	store := graph.NewStore()

	err := mods.Apply(context.Background(), "broken", store)
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	nodes, _ := store.Len()
	assert.Zero(t, nodes)
}

func TestRegister(t *testing.T) {
	mods := newModules(t)

	require.NoError(t, mods.Register("b", nil))
	require.NoError(t, mods.Register("a", testutil.CreateTestPayload()))

	err := mods.Register("a", nil)
	require.ErrorIs(t, err, models.ErrModuleExists)

	err = mods.Register("", nil)
	assert.True(t, models.IsValidation(err))

	mods.Overwrite("c", nil)
	mods.Overwrite("a", testutil.CreateDoublePayload("x", "y"))

	assert.Equal(t, []string{"b", "a", "c"}, mods.Names())

	module, ok, err := mods.Find(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, module.Payload.Nodes, 3)
	assert.Equal(t, models.KindInput, module.Payload.Nodes[0].Kind)
}

func TestRegister_PayloadIsCopied(t *testing.T) {
	mods := newModules(t)
	payload := testutil.CreateTestPayload()
	require.NoError(t, mods.Register("sum", payload))

	payload.Nodes[0].Controls["value"] = 100.0

	module, _, err := mods.Find(context.Background(), "sum")
	require.NoError(t, err)
	assert.Equal(t, 3.0, module.Payload.Nodes[0].Controls["value"])

	module.Payload.Nodes[0].Controls["value"] = 200.0

	again, _, err := mods.Find(context.Background(), "sum")
	require.NoError(t, err)
	assert.Equal(t, 3.0, again.Payload.Nodes[0].Controls["value"])
}

func TestRegisterApplier(t *testing.T) {
	mods := newModules(t)

	require.NoError(t, mods.RegisterApplier("built", func(_ context.Context, store *graph.Store) error {
		node, err := constant.NewConstantNode("seven", map[string]any{"value": 7.0}, nil)
		if err != nil {
			return err
		}

		_, err = store.AddNode(node, models.Position{})

		return err
	}))
	assert.True(t, models.IsValidation(mods.RegisterApplier("nil", nil)))

	store := graph.NewStore()
	require.NoError(t, mods.Apply(context.Background(), "built", store))
	assert.Equal(t, []string{"seven"}, nodeIDs(store))
}

func TestWithResolver_LoadsLazilyOnce(t *testing.T) {
	calls := map[string]int{}

	mods := newModules(t, modules.WithResolver(func(_ context.Context, name string) (*models.Payload, error) {
		calls[name]++
		if name == "stored" {
			return testutil.CreateTestPayload(), nil
		}

		return nil, &models.ModuleError{Op: "Load", Module: name, Err: models.ErrModuleNotFound}
	}))
	require.NoError(t, mods.Register("local", nil))

	ctx := context.Background()
	store := graph.NewStore()

	require.NoError(t, mods.Apply(ctx, "stored", store))
	require.NoError(t, mods.Apply(ctx, "stored", store))
	assert.Equal(t, 1, calls["stored"])
	assert.Equal(t, []string{"three", "five", "sum"}, nodeIDs(store))

	err := mods.Apply(ctx, "ghost", store)
	assert.True(t, models.IsModuleNotFound(err))

	assert.Equal(t, []string{"local", "stored"}, mods.Names())
}

func TestWithResolver_PropagatesFailures(t *testing.T) {
	boom := errors.New("connection refused")
	mods := newModules(t, modules.WithResolver(func(context.Context, string) (*models.Payload, error) {
		return nil, boom
	}))

	_, _, err := mods.Find(context.Background(), "any")
	require.ErrorIs(t, err, boom)
	assert.False(t, models.IsModuleNotFound(err))
}

func TestInterfaceAndRun(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("double", testutil.CreateDoublePayload("x", "y")))

	ctx := context.Background()

	iface, err := mods.Interface(ctx, "double")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, iface.Inputs)
	assert.Equal(t, []string{"y"}, iface.Outputs)

	results, err := mods.Run(ctx, "double", map[string]float64{"x": 4})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"y": 8}, results)

	results, err = mods.Run(ctx, "double", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"y": 0}, results)

	_, err = mods.Run(ctx, "ghost", nil)
	assert.True(t, models.IsModuleNotFound(err))
}

func TestNestedModuleEvaluation(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("double", testutil.CreateDoublePayload("x", "y")))
	require.NoError(t, mods.Register("outer", testutil.CreateModuleRefPayload("double", "x", "y", 3)))

	ctx := context.Background()
	store := graph.NewStore()
	require.NoError(t, mods.Apply(ctx, "outer", store))

	engine := dataflow.NewEngine(store)
	defer engine.Close()

	out, err := engine.Evaluate(ctx, "result")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out["value"], 0)

	// a module running another module
	require.NoError(t, mods.Register("quad", &models.Payload{
		Nodes: []*models.Node{
			testutil.CreateTestNode(testutil.WithID("in"), testutil.WithKind(models.KindInput), testutil.WithControls(map[string]any{"key": "a"})),
			testutil.CreateTestNode(testutil.WithID("d1"), testutil.WithKind(models.KindModule), testutil.WithControls(map[string]any{"name": "double"})),
			testutil.CreateTestNode(testutil.WithID("d2"), testutil.WithKind(models.KindModule), testutil.WithControls(map[string]any{"name": "double"})),
			testutil.CreateTestNode(testutil.WithID("out"), testutil.WithKind(models.KindOutput), testutil.WithControls(map[string]any{"key": "b"})),
		},
		Connections: []*models.Connection{
			testutil.CreateTestConnection("in", "value", "d1", "x"),
			testutil.CreateTestConnection("d1", "y", "d2", "x"),
			testutil.CreateTestConnection("d2", "y", "out", "value"),
		},
	}))

	results, err := mods.Run(ctx, "quad", map[string]float64{"a": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"b": 20}, results)
}

func TestModuleNodeRenamePrunesConnections(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("double", testutil.CreateDoublePayload("x", "y")))
	require.NoError(t, mods.Register("other", testutil.CreateDoublePayload("p", "q")))
	require.NoError(t, mods.Register("outer", testutil.CreateModuleRefPayload("double", "x", "y", 3)))

	ctx := context.Background()
	store := graph.NewStore()
	require.NoError(t, mods.Apply(ctx, "outer", store))
	require.Len(t, store.Connections(), 2)

	var removed int

	store.Subscribe(func(e graph.Event) {
		if e.Type == graph.EventConnectionRemoved {
			removed++
		}
	})

	require.NoError(t, store.SetControl(ctx, "ref", "name", "other"))
	assert.Empty(t, store.Connections())
	assert.Equal(t, 2, removed)

	err := store.SetControl(ctx, "ref", "name", "ghost")
	assert.True(t, models.IsModuleNotFound(err))
}

func TestRecursiveModulesAreCycles(t *testing.T) {
	mods := newModules(t)
	require.NoError(t, mods.Register("self", testutil.CreateModuleRefPayload("self", "x", "y", 1)))
	require.NoError(t, mods.Register("a", testutil.CreateModuleRefPayload("b", "x", "y", 1)))
	require.NoError(t, mods.Register("b", testutil.CreateModuleRefPayload("a", "x", "y", 1)))

	ctx := context.Background()

	for _, name := range []string{"self", "a"} {
		t.Run(name, func(t *testing.T) {
			store := graph.NewStore()

			err := mods.Apply(ctx, name, store)
			require.Error(t, err)
			assert.True(t, models.IsCycle(err))

			nodes, _ := store.Len()
			assert.Zero(t, nodes)
		})
	}
}
