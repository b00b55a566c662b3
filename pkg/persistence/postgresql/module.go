package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/persistence"
)

// ModuleRepository handles module database operations.
type ModuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sql.DB, logger *slog.Logger) *ModuleRepository {
	return &ModuleRepository{db: db, logger: logger}
}

// GetAll returns all modules ordered by name.
func (r *ModuleRepository) GetAll(ctx context.Context) ([]*models.Module, error) {
	query := `
		SELECT
			name
		  , payload
		  , updated_at
		FROM modules
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}

	defer func(ctx context.Context, r *ModuleRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	modules := make([]*models.Module, 0)

	for rows.Next() {
		module, err := scanModule(rows)
		if err != nil {
			return nil, err
		}

		modules = append(modules, module)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate modules: %w", err)
	}

	return modules, nil
}

// GetByName returns a single module.
func (r *ModuleRepository) GetByName(ctx context.Context, name string) (*models.Module, error) {
	query := `
		SELECT
			name
		  , payload
		  , updated_at
		FROM modules
		WHERE name = $1
	`

	module, err := scanModule(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewModuleError("GetByName", name, persistence.ErrModuleNotFound)
	}

	if err != nil {
		return nil, persistence.NewModuleError("GetByName", name, err)
	}

	return module, nil
}

// Save upserts a module and stamps its update time.
func (r *ModuleRepository) Save(ctx context.Context, module *models.Module) error {
	if err := persistence.ValidateName(module.Name); err != nil {
		return err
	}

	payload := module.Payload
	if payload == nil {
		payload = models.EmptyPayload()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return &persistence.ModuleError{Op: "Save", Module: module.Name, Err: err, Message: "failed to marshal payload"}
	}

	module.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO modules (name, payload, node_count, connection_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name) DO UPDATE SET
			payload = EXCLUDED.payload
		  , node_count = EXCLUDED.node_count
		  , connection_count = EXCLUDED.connection_count
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, module.Name, data, len(payload.Nodes), len(payload.Connections), module.UpdatedAt)
	if err != nil {
		return persistence.NewModuleError("Save", module.Name, err)
	}

	return nil
}

// Delete removes a module.
func (r *ModuleRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE name = $1", name)
	if err != nil {
		return persistence.NewModuleError("Delete", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewModuleError("Delete", name, err)
	}

	if affected == 0 {
		return persistence.NewModuleError("Delete", name, persistence.ErrModuleNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModule(row scanner) (*models.Module, error) {
	var (
		module  models.Module
		payload []byte
	)

	err := row.Scan(&module.Name, &payload, &module.UpdatedAt)
	if err != nil {
		return nil, err
	}

	module.Payload = models.EmptyPayload()

	err = json.Unmarshal(payload, module.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload of module %s: %w", module.Name, err)
	}

	return &module, nil
}
