package course

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced entity does not exist, typically
// because it vanished between fetch and mutate.
var ErrNotFound = errors.New("entity not found")

// NotFoundError identifies the missing entity. It matches ErrNotFound with
// errors.Is.
type NotFoundError struct {
	Kind Kind
	ID   int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind Kind, id int64) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory")
	Operation string // Operation that failed ("find", "flush", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// TransitionError is returned when an audit record cannot move to the
// requested status.
type TransitionError struct {
	RecordID int64
	From     AuditStatus
	To       AuditStatus
	Reason   string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("audit %d: cannot transition %s -> %s: %s", e.RecordID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("audit %d: cannot transition %s -> %s", e.RecordID, e.From, e.To)
}
