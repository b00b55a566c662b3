package constant

import (
	"context"
	"testing"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstantNode(t *testing.T) {
	node, err := NewConstantNode("c1", map[string]any{"value": 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, "c1", node.ID())
	assert.Equal(t, models.KindConstant, node.Kind())
	assert.Empty(t, node.InputPorts())
	assert.Len(t, node.OutputPorts(), 1)
}

func TestConstantNode_Compute(t *testing.T) {
	node, err := NewConstantNode("c1", map[string]any{"value": 2.5}, nil)
	require.NoError(t, err)

	out, err := node.Compute(context.Background(), models.Inputs{"ignored": {9}})
	require.NoError(t, err)
	assert.Equal(t, models.Outputs{"value": 2.5}, out)
}

func TestConstantNode_DefaultsToZero(t *testing.T) {
	node, err := NewConstantNode("c1", nil, nil)
	require.NoError(t, err)

	out, err := node.Compute(context.Background(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out["value"], 0)
}

func TestConstantNode_SetControlAndSerialize(t *testing.T) {
	var changed any

	node, err := NewConstantNode("c1", nil, func(_ string, value any) error {
		changed = value

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, node.SetControl(context.Background(), "value", 7))
	assert.InDelta(t, 7.0, changed, 0)

	saved, err := node.Serialize()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 7.0}, saved)
}

func TestConstantNodeFactory(t *testing.T) {
	factory := NewConstantNodeFactory()

	assert.Equal(t, models.KindConstant, factory.Kind())
	assert.Equal(t, "Number", factory.Name())

	node, err := factory.Create(context.Background(), "c2", map[string]any{"value": 1.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "c2", node.ID())
}
