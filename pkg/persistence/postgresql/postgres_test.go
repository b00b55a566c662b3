package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/persistence"
	"github.com/dukex/nodegraph/pkg/persistence/postgresql"
	"github.com/dukex/nodegraph/pkg/testutil"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"modules", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("nodegraph_test"),
			postgres.WithUsername("nodegraph"),
			postgres.WithPassword("nodegraph"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	var exists bool

	err = db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.columns
			WHERE table_name = 'modules' AND column_name = 'node_count'
		)`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewPersistence_MigrationsAreIdempotent(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	again, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))
}

func TestPersistence_ModuleLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	modules, err := p.Modules(ctx)
	require.NoError(t, err)
	assert.Empty(t, modules)

	module := &models.Module{Name: "sum", Payload: testutil.CreateTestPayload()}
	require.NoError(t, p.SaveModule(ctx, module))
	assert.False(t, module.UpdatedAt.IsZero())

	found, err := p.ModuleByName(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, "sum", found.Name)
	require.Len(t, found.Payload.Nodes, 3)
	assert.Len(t, found.Payload.Connections, len(module.Payload.Connections))
	assert.Equal(t, models.KindAdd, found.Payload.Nodes[2].Kind)

	module.Payload = models.EmptyPayload()
	require.NoError(t, p.SaveModule(ctx, module))

	found, err = p.ModuleByName(ctx, "sum")
	require.NoError(t, err)
	assert.Empty(t, found.Payload.Nodes)

	require.NoError(t, p.SaveModule(ctx, &models.Module{Name: "alpha", Payload: models.EmptyPayload()}))

	modules, err = p.Modules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "alpha", modules[0].Name)
	assert.Equal(t, "sum", modules[1].Name)

	require.NoError(t, p.DeleteModule(ctx, "sum"))

	_, err = p.ModuleByName(ctx, "sum")
	assert.True(t, persistence.IsModuleNotFound(err))

	err = p.DeleteModule(ctx, "sum")
	assert.True(t, persistence.IsModuleNotFound(err))
}

func TestPersistence_SaveRejectsInvalidName(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.SaveModule(ctx, &models.Module{Name: "", Payload: models.EmptyPayload()})
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidModuleName)
}
