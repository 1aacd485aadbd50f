package evaluation

import (
	"errors"
	"fmt"
)

// ErrPhaseOrder is returned when a FunctionDispatcher pass is called out of
// order or more than once.
var ErrPhaseOrder = errors.New("evaluation pass called out of order")

// ExecutionError wraps an error returned by the executor.
type ExecutionError struct {
	ID    int64
	Table string
	Cause error
}

// Error returns the error message.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("snippet %s#%d: execution failed: %v", e.Table, e.ID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// DeactivationError indicates a single-use snippet could not be deactivated.
// The snippet is not executed.
type DeactivationError struct {
	ID    int64
	Table string
	Cause error
}

// Error returns the error message.
func (e *DeactivationError) Error() string {
	return fmt.Sprintf("snippet %s#%d: deactivation failed: %v", e.Table, e.ID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DeactivationError) Unwrap() error {
	return e.Cause
}
