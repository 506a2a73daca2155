// Package types defines the canonical data model for crewdeck.
//
// All entities use one schema with snake_case wire names. Field-name
// variants coming from external callers are mapped at the persistence
// boundary, never inside core logic.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Role controls what a user may administer.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "Planning"
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
)

// TaskStatus is the kanban column a task sits in.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

// User is a registered account. Email is unique across the system.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"` // short display label, e.g. initials
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project groups tasks, documents and files under an owner and a member set.
// The owner is always a member; that invariant is enforced on every mutation.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	OwnerID     string        `json:"owner_id"`
	Members     []string      `json:"members"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HasMember reports whether the given user id is in the member set.
func (p *Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	ProjectID   string     `json:"project_id"`
	CreatedByAI bool       `json:"created_by_ai"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks required task fields before persistence.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.ProjectID == "" {
		return fmt.Errorf("task project_id is required")
	}
	switch t.Status {
	case TaskTodo, TaskInProgress, TaskDone:
	default:
		return fmt.Errorf("invalid task status %q", t.Status)
	}
	return nil
}

// SetDefaults applies default values for optional task fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
}

// Document is a rich-text page. Content is serialized HTML.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content,omitempty"`
	ProjectID  string    `json:"project_id"`
	AuthorID   string    `json:"author_id"`
	LastEdited time.Time `json:"last_edited"`
	CreatedAt  time.Time `json:"created_at"`
}

// FileMeta records an uploaded file. Binary contents are out of scope;
// only metadata is tracked.
type FileMeta struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	ProjectID  string    `json:"project_id"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	DueDate     **time.Time `json:"due_date,omitempty"`
	AssignedTo  *string     `json:"assigned_to,omitempty"`
	ProjectID   *string     `json:"project_id,omitempty"`
}

// ProjectPatch is a partial project update. Nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Members     []string       `json:"members,omitempty"`
}

// DocumentPatch is a partial document update. LastEdited is stamped by the
// store on every save, not supplied by callers.
type DocumentPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// UserPatch is a partial user update.
type UserPatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Role   *Role   `json:"role,omitempty"`
}

// AvatarFor derives a short display label from a full name: the first
// letters of up to the first two words, uppercased. "Ana Lopez" -> "AL".
func AvatarFor(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i >= 2 {
			break
		}
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}
