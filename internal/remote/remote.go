// Package remote defines the contract between the in-memory store and the
// durable persistence service, plus the change-notification feed that keeps
// replicas reconciled.
//
// Implementations live in subpackages (see remote/sqlite for the embedded
// SQLite one). The store never touches a database directly; it speaks only
// these interfaces, so a hosted backend can be dropped in without changing
// store logic.
package remote

import (
	"context"

	"github.com/crewdeck/crewdeck/internal/types"
)

// Table identifies one watched entity collection.
type Table string

const (
	TableUsers     Table = "users"
	TableProjects  Table = "projects"
	TableTasks     Table = "tasks"
	TableDocuments Table = "documents"
	TableFiles     Table = "files"
)

// Op is the kind of change carried by a feed event.
type Op int

const (
	// OpInsert indicates a new row was inserted.
	OpInsert Op = iota
	// OpUpdate indicates an existing row was rewritten.
	OpUpdate
	// OpDelete indicates a row was removed.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one change notification. Exactly one of the record pointers is
// populated, matching Table. For OpDelete only the record's ID field is
// guaranteed to be set.
type Event struct {
	Table Table
	Op    Op

	User     *types.User
	Project  *types.Project
	Task     *types.Task
	Document *types.Document
	File     *types.FileMeta
}

// RecordID returns the id of whichever record the event carries.
func (e Event) RecordID() string {
	switch {
	case e.User != nil:
		return e.User.ID
	case e.Project != nil:
		return e.Project.ID
	case e.Task != nil:
		return e.Task.ID
	case e.Document != nil:
		return e.Document.ID
	case e.File != nil:
		return e.File.ID
	}
	return ""
}

// Client is the remote persistence service. Every mutating call either
// durably commits and returns the canonical record, or fails without
// side effects.
//
// List order is newest-first (created_at descending), matching the order
// the store keeps its in-memory collections in.
type Client interface {
	ListUsers(ctx context.Context) ([]*types.User, error)
	InsertUser(ctx context.Context, u *types.User) (*types.User, error)
	InsertUsers(ctx context.Context, us []*types.User) ([]*types.User, error)
	UpdateUser(ctx context.Context, id string, patch types.UserPatch) (*types.User, error)
	DeleteUser(ctx context.Context, id string) error

	ListProjects(ctx context.Context) ([]*types.Project, error)
	InsertProject(ctx context.Context, p *types.Project) (*types.Project, error)
	UpdateProject(ctx context.Context, id string, patch types.ProjectPatch) (*types.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTasks(ctx context.Context) ([]*types.Task, error)
	InsertTask(ctx context.Context, t *types.Task) (*types.Task, error)
	InsertTasks(ctx context.Context, ts []*types.Task) ([]*types.Task, error)
	UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (*types.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListDocuments(ctx context.Context) ([]*types.Document, error)
	InsertDocument(ctx context.Context, d *types.Document) (*types.Document, error)
	UpdateDocument(ctx context.Context, id string, patch types.DocumentPatch) (*types.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	ListFiles(ctx context.Context) ([]*types.FileMeta, error)
	InsertFile(ctx context.Context, f *types.FileMeta) (*types.FileMeta, error)
	DeleteFile(ctx context.Context, id string) error
}

// Feed delivers change notifications. Delivery is in commit order per
// table; no ordering is guaranteed across tables.
type Feed interface {
	// Subscribe registers for changes to one table. The returned cancel
	// function releases the subscription; after it returns, the channel
	// is closed and no further events are delivered.
	Subscribe(table Table) (<-chan Event, func())
}
