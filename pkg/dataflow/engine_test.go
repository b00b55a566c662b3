package dataflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/nodegraph/pkg/dataflow"
	"github.com/dukex/nodegraph/pkg/graph"
	"github.com/dukex/nodegraph/pkg/mocks"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/nodes/add"
	"github.com/dukex/nodegraph/pkg/nodes/boundary"
	"github.com/dukex/nodegraph/pkg/nodes/compare"
	"github.com/dukex/nodegraph/pkg/nodes/constant"
	"github.com/dukex/nodegraph/pkg/nodes/moduleref"
	"github.com/dukex/nodegraph/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// countingNode outputs a fixed value and counts its computations.
type countingNode struct {
	id    string
	value float64
	calls int
}

func (n *countingNode) ID() string                { return n.id }
func (n *countingNode) Kind() models.Kind         { return models.KindConstant }
func (n *countingNode) InputPorts() []models.Port { return nil }
func (n *countingNode) OutputPorts() []models.Port {
	return []models.Port{models.NumberPort("value", "Number")}
}
func (n *countingNode) Controls() map[string]any           { return map[string]any{"value": n.value} }
func (n *countingNode) Serialize() (map[string]any, error) { return n.Controls(), nil }

func (n *countingNode) SetControl(context.Context, string, any) error { return nil }

func (n *countingNode) Compute(context.Context, models.Inputs) (models.Outputs, error) {
	n.calls++

	return models.Outputs{"value": n.value}, nil
}

type failingNode struct{ countingNode }

func (n *failingNode) Compute(context.Context, models.Inputs) (models.Outputs, error) {
	return nil, errors.New("boom")
}

func mustAdd(t *testing.T, s *graph.Store, node protocol.Node) {
	t.Helper()

	_, err := s.AddNode(node, models.Position{})
	require.NoError(t, err)
}

func newConstant(t *testing.T, id string, v float64) protocol.Node {
	t.Helper()

	n, err := constant.NewConstantNode(id, map[string]any{"value": v}, nil)
	require.NoError(t, err)

	return n
}

func newAdd(t *testing.T, id string, controls map[string]any) protocol.Node {
	t.Helper()

	n, err := add.NewAddNode(id, controls, nil)
	require.NoError(t, err)

	return n
}

func link(t *testing.T, s *graph.Store, source, target, input string) {
	t.Helper()

	_, err := s.AddConnection(models.Connection{Source: source, SourceOutput: "value", Target: target, TargetInput: input})
	require.NoError(t, err)
}

func TestEngine_AddUnconnectedUsesControls(t *testing.T) {
	s := graph.NewStore()
	sum := newAdd(t, "a1", map[string]any{"left": 3.0, "right": 5.0})
	mustAdd(t, s, sum)

	e := dataflow.NewEngine(s)
	defer e.Close()

	out, err := e.Evaluate(context.Background(), "a1")
	require.NoError(t, err)
	assert.InDelta(t, 8.0, out["value"], 0)
	assert.Equal(t, 8.0, sum.Controls()["result"])
}

func TestEngine_ConnectedValuesOverrideControls(t *testing.T) {
	s := graph.NewStore()
	mustAdd(t, s, newConstant(t, "c1", 2))
	mustAdd(t, s, newConstant(t, "c2", 0))
	mustAdd(t, s, newAdd(t, "a1", map[string]any{"left": 100.0, "right": 100.0}))
	link(t, s, "c1", "a1", "left")
	link(t, s, "c2", "a1", "right")

	e := dataflow.NewEngine(s)
	defer e.Close()

	out, err := e.Evaluate(context.Background(), "a1")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out["value"], 0)
}

func TestEngine_FanInFirstConnectionWins(t *testing.T) {
	s := graph.NewStore()
	mustAdd(t, s, newConstant(t, "c1", 4))
	mustAdd(t, s, newConstant(t, "c2", 40))
	mustAdd(t, s, newAdd(t, "a1", nil))
	link(t, s, "c1", "a1", "left")
	link(t, s, "c2", "a1", "left")

	e := dataflow.NewEngine(s)
	defer e.Close()

	out, err := e.Evaluate(context.Background(), "a1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, out["value"], 0)
}

func buildDiamond(t *testing.T) *graph.Store {
	t.Helper()

	s := graph.NewStore()
	mustAdd(t, s, newConstant(t, "c1", 2))
	mustAdd(t, s, newConstant(t, "c2", 7))

	cmp, err := compare.NewCompareNode("cmp", nil, nil)
	require.NoError(t, err)
	mustAdd(t, s, cmp)

	mustAdd(t, s, newAdd(t, "a1", nil))
	mustAdd(t, s, newAdd(t, "a2", nil))

	link(t, s, "c1", "cmp", "left")
	link(t, s, "c2", "cmp", "right")
	link(t, s, "cmp", "a1", "left")
	link(t, s, "c1", "a1", "right")
	link(t, s, "cmp", "a2", "left")
	link(t, s, "a1", "a2", "right")

	return s
}

func TestEngine_DeterministicAcrossVisitationOrders(t *testing.T) {
	orders := [][]string{
		{"c1", "c2", "cmp", "a1", "a2"},
		{"a2", "a1", "cmp", "c2", "c1"},
		{"cmp", "a2", "c1", "a1", "c2"},
	}

	var reference map[string]models.Outputs

	for _, order := range orders {
		s := buildDiamond(t)
		e := dataflow.NewEngine(s)

		results, err := e.EvaluateAll(context.Background(), order)
		require.NoError(t, err)
		e.Close()

		if reference == nil {
			reference = results

			continue
		}

		assert.Equal(t, reference, results, "order %v", order)
	}

	assert.InDelta(t, 7.0, reference["cmp"]["value"], 0)
	assert.InDelta(t, 9.0, reference["a1"]["value"], 0)
	assert.InDelta(t, 16.0, reference["a2"]["value"], 0)
}

func TestEngine_SharedUpstreamComputedOnce(t *testing.T) {
	s := graph.NewStore()
	shared := &countingNode{id: "shared", value: 3}
	mustAdd(t, s, shared)
	mustAdd(t, s, newAdd(t, "a1", nil))
	mustAdd(t, s, newAdd(t, "a2", nil))
	mustAdd(t, s, newAdd(t, "top", nil))
	link(t, s, "shared", "a1", "left")
	link(t, s, "shared", "a2", "left")
	link(t, s, "a1", "top", "left")
	link(t, s, "a2", "top", "right")

	e := dataflow.NewEngine(s)
	defer e.Close()

	out, err := e.Evaluate(context.Background(), "top")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out["value"], 0)
	assert.Equal(t, 1, shared.calls)
}

func TestEngine_MemoDoesNotOutliveThePass(t *testing.T) {
	s := graph.NewStore()
	shared := &countingNode{id: "shared", value: 3}
	mustAdd(t, s, shared)
	mustAdd(t, s, newAdd(t, "a1", nil))
	mustAdd(t, s, newAdd(t, "a2", nil))
	link(t, s, "shared", "a1", "left")
	link(t, s, "shared", "a2", "left")

	e := dataflow.NewEngine(s)
	defer e.Close()

	ctx := context.Background()

	_, err := e.EvaluateAll(ctx, []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, 1, shared.calls)

	_, err = e.Evaluate(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, shared.calls)

	require.NoError(t, s.SetControl(ctx, "a1", "right", 10.0))
	out, err := e.Evaluate(ctx, "a1")
	require.NoError(t, err)
	assert.InDelta(t, 13.0, out["value"], 0)
	assert.Equal(t, 3, shared.calls)
}

// hookNode runs hook while computing, after its upstream nodes are resolved.
type hookNode struct {
	countingNode
	hook func()
}

func (n *hookNode) Compute(ctx context.Context, inputs models.Inputs) (models.Outputs, error) {
	n.hook()

	return n.countingNode.Compute(ctx, inputs)
}

func sharedBehindHook(t *testing.T, s *graph.Store, hook func()) *countingNode {
	t.Helper()

	shared := &countingNode{id: "shared", value: 3}
	mustAdd(t, s, shared)
	mustAdd(t, s, &hookNode{countingNode: countingNode{id: "hook"}, hook: hook})
	mustAdd(t, s, newAdd(t, "a1", nil))
	mustAdd(t, s, newAdd(t, "a2", nil))
	link(t, s, "shared", "a1", "left")
	link(t, s, "hook", "a1", "right")
	link(t, s, "shared", "a2", "left")

	return shared
}

func TestEngine_InvalidateDuringPass(t *testing.T) {
	s := graph.NewStore()

	var e *dataflow.Engine
	shared := sharedBehindHook(t, s, func() { e.Invalidate() })

	e = dataflow.NewEngine(s)
	defer e.Close()

	_, err := e.EvaluateAll(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, 2, shared.calls)
}

func TestEngine_StoreEventDuringPass(t *testing.T) {
	tests := []struct {
		name  string
		close bool
		calls int
	}{
		{name: "subscribed", calls: 2},
		{name: "closed", close: true, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := graph.NewStore()
			added := false
			shared := sharedBehindHook(t, s, func() {
				if !added {
					added = true
					mustAdd(t, s, newConstant(t, "late", 1))
				}
			})

			e := dataflow.NewEngine(s)
			if tt.close {
				e.Close()
			} else {
				defer e.Close()
			}

			_, err := e.EvaluateAll(context.Background(), []string{"a1", "a2"})
			require.NoError(t, err)
			assert.Equal(t, tt.calls, shared.calls)
		})
	}
}

func TestEngine_ModuleChangeBetweenPasses(t *testing.T) {
	iface := protocol.ModuleInterface{Inputs: []string{"value"}, Outputs: []string{"result"}}
	resolver := &mocks.MockModuleResolver{}
	resolver.On("Interface", mock.Anything, "double").Return(iface, nil)
	resolver.On("Run", mock.Anything, "double", map[string]float64{"value": 2}).
		Return(map[string]float64{"result": 4}, nil).Once()
	resolver.On("Run", mock.Anything, "double", map[string]float64{"value": 2}).
		Return(map[string]float64{"result": 6}, nil).Once()

	ref, err := moduleref.NewModuleNode(context.Background(), "m1", map[string]any{"name": "double"}, resolver, nil)
	require.NoError(t, err)

	s := graph.NewStore()
	mustAdd(t, s, newConstant(t, "c1", 2))
	mustAdd(t, s, ref)
	link(t, s, "c1", "m1", "value")

	e := dataflow.NewEngine(s)
	defer e.Close()

	ctx := context.Background()

	out, err := e.Evaluate(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, out["result"], 0)

	out, err = e.Evaluate(ctx, "m1")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out["result"], 0)
	resolver.AssertExpectations(t)
}

func TestEngine_CycleDetected(t *testing.T) {
	s := graph.NewStore(graph.WithCyclesAllowed())
	mustAdd(t, s, newAdd(t, "a1", nil))
	mustAdd(t, s, newAdd(t, "a2", nil))
	link(t, s, "a1", "a2", "left")
	link(t, s, "a2", "a1", "left")

	e := dataflow.NewEngine(s)
	defer e.Close()

	_, err := e.Evaluate(context.Background(), "a1")
	require.Error(t, err)
	assert.True(t, models.IsCycle(err))

	var cycleErr *models.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a1", "a2", "a1"}, cycleErr.Path)

	nodes, conns := s.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 2, conns)
}

func TestEngine_InputReceivesArguments(t *testing.T) {
	s := graph.NewStore()

	in, err := boundary.NewInputNode("in", map[string]any{"key": "x"}, nil)
	require.NoError(t, err)
	mustAdd(t, s, in)
	mustAdd(t, s, newAdd(t, "a1", map[string]any{"right": 1.0}))
	link(t, s, "in", "a1", "left")

	e := dataflow.NewEngine(s, dataflow.WithArguments(map[string]float64{"x": 4}))
	defer e.Close()

	ctx := context.Background()

	out, err := e.Evaluate(ctx, "a1")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, out["value"], 0)

	e.SetArguments(map[string]float64{"y": 4})
	out, err = e.Evaluate(ctx, "a1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out["value"], 0)
}

func TestEngine_Errors(t *testing.T) {
	s := graph.NewStore()
	mustAdd(t, s, &failingNode{countingNode{id: "bad"}})
	mustAdd(t, s, newAdd(t, "a1", nil))
	link(t, s, "bad", "a1", "left")

	e := dataflow.NewEngine(s)
	defer e.Close()

	ctx := context.Background()

	_, err := e.Evaluate(ctx, "a1")
	require.Error(t, err)

	var nodeErr *models.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "bad", nodeErr.NodeID)

	_, err = e.Evaluate(ctx, "missing")
	assert.True(t, models.IsNodeNotFound(err))
}
