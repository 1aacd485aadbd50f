package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a snippet row does not exist.
	ErrNotFound = errors.New("snippet not found")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrUnknownTable is returned for table names outside the configured pair.
	ErrUnknownTable = errors.New("unknown snippet table")
)

// QueryError represents a failed storage operation.
type QueryError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "fetch_active", "deactivate", ...
	Table     string // Table involved, if any
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store error [backend=%s, operation=%s, table=%s]: %v", e.Backend, e.Operation, e.Table, e.Cause)
	}
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

func newQueryError(backend, op, table string, cause error) *QueryError {
	return &QueryError{Backend: backend, Operation: op, Table: table, Cause: cause}
}

var errDuplicateID = errors.New("duplicate snippet id")

var errNotAdmin = errors.New("wrapped store does not support administrative writes")
