package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every layer of the graph core.
var (
	// ErrValidation indicates a malformed node, connection or control write.
	ErrValidation = errors.New("validation error")

	// ErrCycle indicates an illegal dependency cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrModuleNotFound indicates an unknown module name.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSerialization indicates a control value that cannot be persisted.
	ErrSerialization = errors.New("serialization error")

	// ErrNodeNotFound indicates a node id absent from the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrConnectionNotFound indicates a connection id absent from the graph.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrModuleExists indicates a module name that is already registered.
	ErrModuleExists = errors.New("module already exists")
)

// NodeError wraps node-related errors with additional context.
type NodeError struct {
	Op     string // Operation being performed
	NodeID string // Node ID
	Err    error  // Underlying error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s failed for node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ConnectionError wraps connection-related errors with additional context.
type ConnectionError struct {
	Op         string // Operation being performed
	Connection string // Connection ID or "source:port -> target:port"
	Err        error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s failed for connection %s: %v", e.Op, e.Connection, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ModuleError wraps module-related errors with additional context.
type ModuleError struct {
	Op     string // Operation being performed (e.g., "Apply", "Run")
	Module string // Module name
	Err    error  // Underlying error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s failed for module %s: %v", e.Op, e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

func (e *ModuleError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// CycleError reports the node or module ids forming a dependency cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// NewValidationError returns an ErrValidation carrying a reason.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsCycle checks if an error reports a dependency cycle.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycle)
}

// IsModuleNotFound checks if an error indicates a module was not found.
func IsModuleNotFound(err error) bool {
	return errors.Is(err, ErrModuleNotFound)
}

// IsSerialization checks if an error indicates an unrepresentable control value.
func IsSerialization(err error) bool {
	return errors.Is(err, ErrSerialization)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}
