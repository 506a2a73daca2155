package types

import (
	"errors"
	"fmt"
)

// Common errors returned by store and persistence operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, types.ErrNotFound) {
//	    // the referenced record does not exist remotely
//	}
var (
	// ErrNotFound is returned when an operation references an id that
	// does not exist in the remote store.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned by registration when the remote store
	// reports a uniqueness violation on the email column.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrOwnerRequired is returned when a project update would remove the
	// owner from the member set.
	ErrOwnerRequired = errors.New("project owner cannot be removed from members")

	// ErrNotReady is returned when a mutating operation is attempted
	// before the store finished initializing.
	ErrNotReady = errors.New("store is not ready")
)

// NotFoundError identifies which record was missing. It unwraps to
// ErrNotFound so callers can match either way.
type NotFoundError struct {
	Kind string // "task", "project", "document", "file", "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a failed remote mutation. Local state is left
// unchanged whenever one of these is returned.
type PersistenceError struct {
	Op  string // e.g. "insert task", "update project"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError wraps a failed generation-service call. Always
// recoverable: callers fall back to the local matcher or surface a retry.
type GenerationError struct {
	Op  string // "tasks", "document", "summary"
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation of %s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
