package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetType(t *testing.T) {
	tests := []struct {
		event    interface{ GetType() EventType }
		expected EventType
	}{
		{NodeCreated{}, NodeCreatedEvent},
		{NodeRemoved{}, NodeRemovedEvent},
		{ConnectionCreated{}, ConnectionCreatedEvent},
		{ConnectionRemoved{}, ConnectionRemovedEvent},
		{ControlChanged{}, ControlChangedEvent},
		{GraphCleared{}, GraphClearedEvent},
		{GraphEvaluated{}, GraphEvaluatedEvent},
		{ModuleOpened{}, ModuleOpenedEvent},
		{ModuleSaved{}, ModuleSavedEvent},
		{ModuleCreated{}, ModuleCreatedEvent},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.GetType())
		})
	}
}

func TestConnectionCreated_JSONSerialization(t *testing.T) {
	original := &ConnectionCreated{
		BaseEvent: NewBaseEvent(ConnectionCreatedEvent, "root"),
		Connection: models.Connection{
			ID: "c1", Source: "a", SourceOutput: "value", Target: "b", TargetInput: "left",
		},
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"connection.created"`)
	assert.Contains(t, string(jsonData), `"module":"root"`)
	assert.Contains(t, string(jsonData), `"sourceOutput":"value"`)

	var deserialized ConnectionCreated

	require.NoError(t, json.Unmarshal(jsonData, &deserialized))
	assert.Equal(t, original.ID, deserialized.ID)
	assert.Equal(t, original.Connection, deserialized.Connection)
	assert.WithinDuration(t, original.Timestamp, deserialized.Timestamp, 0)
}

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(ModuleOpenedEvent, "double")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ModuleOpenedEvent, event.Type)
	assert.Equal(t, "double", event.Module)
	assert.NotNil(t, event.Metadata)
	assert.False(t, event.Timestamp.IsZero())
}
