package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/nodegraph/pkg/models"
	"github.com/dukex/nodegraph/pkg/persistence"
)

// ModuleRepository handles module file operations under <root>/modules.
type ModuleRepository struct {
	root string
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(root string) *ModuleRepository {
	return &ModuleRepository{root: root}
}

func (r *ModuleRepository) dir() string {
	return filepath.Join(r.root, "modules")
}

func (r *ModuleRepository) path(name string) string {
	return filepath.Clean(filepath.Join(r.dir(), name+".json"))
}

// GetAll returns every stored module ordered by name.
func (r *ModuleRepository) GetAll(ctx context.Context) ([]*models.Module, error) {
	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list module files: %w", err)
	}

	sort.Strings(jsonFiles)

	modules := make([]*models.Module, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		module, err := r.GetByName(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		modules = append(modules, module)
	}

	return modules, nil
}

// GetByName reads a module from the file system.
func (r *ModuleRepository) GetByName(_ context.Context, name string) (*models.Module, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(r.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewModuleError("GetByName", name, persistence.ErrModuleNotFound)
		}

		return nil, persistence.NewModuleError("GetByName", name, err)
	}

	var module models.Module

	err = json.Unmarshal(body, &module)
	if err != nil {
		return nil, &persistence.ModuleError{Op: "GetByName", Module: name, Err: err, Message: "failed to unmarshal module"}
	}

	if module.Payload == nil {
		module.Payload = models.EmptyPayload()
	}

	return &module, nil
}

// Save writes a module to the file system, replacing any previous version.
func (r *ModuleRepository) Save(_ context.Context, module *models.Module) error {
	if err := persistence.ValidateName(module.Name); err != nil {
		return err
	}

	err := os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create modules directory: %w", err)
	}

	module.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(module, "", "  ")
	if err != nil {
		return &persistence.ModuleError{Op: "Save", Module: module.Name, Err: err, Message: "failed to marshal module"}
	}

	return os.WriteFile(r.path(module.Name), data, 0600)
}

// Delete removes a module file.
func (r *ModuleRepository) Delete(_ context.Context, name string) error {
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	err := os.Remove(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewModuleError("Delete", name, persistence.ErrModuleNotFound)
	}

	if err != nil {
		return persistence.NewModuleError("Delete", name, err)
	}

	return nil
}

// Modules returns all stored modules.
func (fp *Persistence) Modules(ctx context.Context) ([]*models.Module, error) {
	return fp.moduleRepo.GetAll(ctx)
}

// ModuleByName returns a module by name.
func (fp *Persistence) ModuleByName(ctx context.Context, name string) (*models.Module, error) {
	return fp.moduleRepo.GetByName(ctx, name)
}

// SaveModule stores a module.
func (fp *Persistence) SaveModule(ctx context.Context, module *models.Module) error {
	return fp.moduleRepo.Save(ctx, module)
}

// DeleteModule removes a module.
func (fp *Persistence) DeleteModule(ctx context.Context, name string) error {
	return fp.moduleRepo.Delete(ctx, name)
}
