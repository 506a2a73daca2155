package types

import (
	"errors"
	"testing"
)

func TestAvatarFor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two words", "Ana Lopez", "AL"},
		{"single word", "Ana", "A"},
		{"three words uses first two", "Ana Maria Lopez", "AM"},
		{"lowercase input", "ana lopez", "AL"},
		{"extra whitespace", "  Ana   Lopez  ", "AL"},
		{"multibyte initials", "Åsa Öberg", "ÅÖ"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AvatarFor(tt.in); got != tt.want {
				t.Errorf("AvatarFor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"valid", Task{Name: "x", ProjectID: "p", Status: TaskTodo}, false},
		{"valid in progress", Task{Name: "x", ProjectID: "p", Status: TaskInProgress}, false},
		{"missing name", Task{ProjectID: "p", Status: TaskTodo}, true},
		{"missing project", Task{Name: "x", Status: TaskTodo}, true},
		{"empty status", Task{Name: "x", ProjectID: "p"}, true},
		{"unknown status", Task{Name: "x", ProjectID: "p", Status: "Archived"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskSetDefaults(t *testing.T) {
	var task Task
	task.SetDefaults()
	if task.Status != TaskTodo {
		t.Errorf("default status = %q, want %q", task.Status, TaskTodo)
	}
	if task.CreatedAt.IsZero() {
		t.Error("CreatedAt was not defaulted")
	}

	// Existing values survive.
	done := Task{Status: TaskDone}
	done.SetDefaults()
	if done.Status != TaskDone {
		t.Errorf("SetDefaults() overwrote status: %q", done.Status)
	}
}

func TestProjectHasMember(t *testing.T) {
	p := Project{Members: []string{"u1", "u2"}}
	if !p.HasMember("u1") {
		t.Error("HasMember(u1) = false")
	}
	if p.HasMember("u3") {
		t.Error("HasMember(u3) = true")
	}
}

func TestNotFoundErrorUnwrapsToSentinel(t *testing.T) {
	err := &NotFoundError{Kind: "task", ID: "t1"}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError does not unwrap to ErrNotFound")
	}
	if err.Error() != "task t1 not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := &PersistenceError{Op: "insert task", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("PersistenceError does not unwrap to its cause")
	}

	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "insert task" {
		t.Error("errors.As failed to extract PersistenceError")
	}
}
