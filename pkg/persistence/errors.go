package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/nodegraph/pkg/models"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrModuleNotFound indicates no module is stored under the given name.
	// It is the same sentinel the module registry reports.
	ErrModuleNotFound = models.ErrModuleNotFound

	// ErrInvalidModuleName indicates a name that cannot be used as a storage key.
	ErrInvalidModuleName = errors.New("invalid module name")
)

// ModuleError wraps storage errors with the operation and module they concern.
type ModuleError struct {
	Op      string // Operation being performed (e.g., "ByName", "Save", "Delete")
	Module  string // Module name
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *ModuleError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for module %s: %s (%v)", e.Op, e.Module, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for module %s: %v", e.Op, e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for module errors.
func (e *ModuleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewModuleError creates a new module error with context.
func NewModuleError(op, module string, err error) *ModuleError {
	return &ModuleError{
		Op:     op,
		Module: module,
		Err:    err,
	}
}

// IsModuleNotFound checks if an error indicates a module was not found.
func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound)
}

// ValidateName rejects names that are empty or could escape a storage namespace.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:`) {
		return NewModuleError("Validate", name, ErrInvalidModuleName)
	}

	return nil
}
