package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/nodegraph/pkg/editor"
	"github.com/dukex/nodegraph/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	tests := map[string]string{
		"file:///tmp/modules":            "file",
		"/tmp/modules":                   "file",
		"postgres://u:p@localhost/db":    "postgres",
		"postgresql://u:p@localhost/db":  "postgresql",
		"redis://localhost:6379/0":       "redis",
		"mongodb://localhost:27017/test": "mongodb",
	}

	for url, expected := range tests {
		assert.Equal(t, expected, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence(t *testing.T) {
	ctx := t.Context()

	p, err := NewPersistence(ctx, slog.Default(), "")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPersistence(ctx, slog.Default(), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)

	_, err = NewPersistence(ctx, slog.Default(), "mongodb://localhost:27017/test")
	assert.Error(t, err)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", slog.Default())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("nats", slog.Default())
	assert.Error(t, err)

	t.Setenv("KAFKA_BROKERS", "")

	_, err = NewEventBus("kafka", slog.Default())
	assert.Error(t, err)
}

func TestNewRegistries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "double.json"), []byte(`{"nodes": [], "connections": []}`), 0600))

	nodes, mods, err := NewRegistries(t.Context(), slog.Default(), nil, dir)
	require.NoError(t, err)

	_, healthy := nodes.HealthCheck()
	assert.True(t, healthy)
	assert.Equal(t, []string{"root", "transit", "double"}, mods.Names())

	module, found, err := mods.Find(t.Context(), "double")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, module.Payload.Nodes)
}

func TestNewRegistries_ResolvesPersistedModules(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, mods, err := NewRegistries(t.Context(), slog.Default(), p, "")
	require.NoError(t, err)

	_, found, err := mods.Find(t.Context(), "stored")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRegistries_PersistedModulesOverrideBuiltins(t *testing.T) {
	ctx := t.Context()
	p := file.NewPersistence(t.TempDir())

	nodes, mods, err := NewRegistries(ctx, slog.Default(), p, "")
	require.NoError(t, err)

	ed := editor.New(slog.Default(), nodes, mods, editor.WithPersistence(p))
	require.NoError(t, ed.Open(ctx, "root"))
	require.NoError(t, ed.RemoveNode(ctx, "root-compare"))
	require.NoError(t, ed.Save(ctx))
	require.NoError(t, ed.Destroy(ctx))

	_, mods, err = NewRegistries(ctx, slog.Default(), p, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "transit", "double"}, mods.Names())

	module, found, err := mods.Find(ctx, "root")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, module.Payload.Nodes, 5)
	assert.Len(t, module.Payload.Connections, 4)
}

func TestNewRegistries_BindsControlChangeHandler(t *testing.T) {
	_, mods, err := NewRegistries(t.Context(), slog.Default(), nil, "")
	require.NoError(t, err)

	onChange := mods.Codec().ChangeFunc("n1")
	require.NotNil(t, onChange)
	assert.NoError(t, onChange("value", 2.0))
}
