// Package redis stores modules in a single Redis hash keyed by module name.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding every module.
const DefaultKey = "nodegraph:modules"

// Persistence implements the persistence layer on top of a Redis hash.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	key    string
}

// NewPersistence parses a redis:// URL, connects and pings the server.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	p := NewPersistenceWithClient(logger, goredis.NewClient(options))

	err = p.HealthCheck(ctx)
	if err != nil {
		_ = p.client.Close()

		return nil, err
	}

	return p, nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(logger *slog.Logger, client goredis.UniversalClient) *Persistence {
	return &Persistence{
		client: client,
		logger: logger.With("persistence", "redis"),
		key:    DefaultKey,
	}
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// Modules returns every module ordered by name.
func (p *Persistence) Modules(ctx context.Context) ([]*models.Module, error) {
	entries, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	modules := make([]*models.Module, 0, len(entries))

	for name, body := range entries {
		module, err := decode(name, body)
		if err != nil {
			return nil, err
		}

		modules = append(modules, module)
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

	return modules, nil
}

func (p *Persistence) ModuleByName(ctx context.Context, name string) (*models.Module, error) {
	body, err := p.client.HGet(ctx, p.key, name).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewModuleError("GetByName", name, persistence.ErrModuleNotFound)
	}

	if err != nil {
		return nil, persistence.NewModuleError("GetByName", name, err)
	}

	return decode(name, body)
}

// SaveModule replaces the stored module.
func (p *Persistence) SaveModule(ctx context.Context, module *models.Module) error {
	if err := persistence.ValidateName(module.Name); err != nil {
		return err
	}

	if module.Payload == nil {
		module.Payload = models.EmptyPayload()
	}

	module.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(module)
	if err != nil {
		return &persistence.ModuleError{Op: "Save", Module: module.Name, Err: err, Message: "failed to marshal module"}
	}

	err = p.client.HSet(ctx, p.key, module.Name, data).Err()
	if err != nil {
		return persistence.NewModuleError("Save", module.Name, err)
	}

	p.logger.DebugContext(ctx, "module saved", "module", module.Name)

	return nil
}

func (p *Persistence) DeleteModule(ctx context.Context, name string) error {
	removed, err := p.client.HDel(ctx, p.key, name).Result()
	if err != nil {
		return persistence.NewModuleError("Delete", name, err)
	}

	if removed == 0 {
		return persistence.NewModuleError("Delete", name, persistence.ErrModuleNotFound)
	}

	return nil
}

func decode(name, body string) (*models.Module, error) {
	var module models.Module

	err := json.Unmarshal([]byte(body), &module)
	if err != nil {
		return nil, &persistence.ModuleError{Op: "GetByName", Module: name, Err: err, Message: "failed to unmarshal module"}
	}

	module.Name = name
	if module.Payload == nil {
		module.Payload = models.EmptyPayload()
	}

	return &module, nil
}
