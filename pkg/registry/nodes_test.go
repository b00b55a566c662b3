package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/nodegraph/pkg/mocks"
	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/nodes/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDefaultNodes(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes(&mocks.MockModuleResolver{})

	available := registry.GetAvailableNodes()
	require.Len(t, available, len(models.Kinds()))

	for _, kind := range models.Kinds() {
		factory, ok := registry.Factory(kind)
		require.True(t, ok, "kind %s", kind)
		assert.Equal(t, kind, factory.Kind())
		assert.NotEmpty(t, factory.Name())
	}

	require.NoError(t, registry.Validate())

	status, ok := registry.HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "ok", status)
}

func TestValidate_ReportsMissingKinds(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterNode(constant.NewConstantNodeFactory())

	err := registry.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add")
	assert.Contains(t, err.Error(), "module")
	assert.NotContains(t, err.Error(), "constant")

	_, ok := registry.HealthCheck()
	assert.False(t, ok)
}

func TestCreateNode(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.RegisterDefaultNodes(&mocks.MockModuleResolver{})

	tests := []struct {
		name     string
		kind     models.Kind
		controls map[string]any
		inputs   int
		outputs  int
	}{
		{name: "constant", kind: models.KindConstant, controls: map[string]any{"value": 2.0}, inputs: 0, outputs: 1},
		{name: "add", kind: models.KindAdd, inputs: 2, outputs: 1},
		{name: "compare", kind: models.KindCompare, inputs: 2, outputs: 1},
		{name: "input", kind: models.KindInput, controls: map[string]any{"key": "a"}, inputs: 0, outputs: 1},
		{name: "output", kind: models.KindOutput, controls: map[string]any{"key": "b"}, inputs: 1, outputs: 1},
		{name: "empty module", kind: models.KindModule, inputs: 0, outputs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := registry.CreateNode(context.Background(), tt.kind, "n1", tt.controls, nil)
			require.NoError(t, err)

			assert.Equal(t, "n1", node.ID())
			assert.Equal(t, tt.kind, node.Kind())
			assert.Len(t, node.InputPorts(), tt.inputs)
			assert.Len(t, node.OutputPorts(), tt.outputs)
		})
	}
}

func TestCreateNode_UnknownKind(t *testing.T) {
	registry := NewRegistry(slog.Default())

	_, err := registry.CreateNode(context.Background(), models.Kind("bogus"), "n1", nil, nil)
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))
}
