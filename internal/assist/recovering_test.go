package assist

import (
	"context"
	"errors"
	"testing"

	"github.com/crewdeck/crewdeck/internal/types"
)

// stubGenerator counts calls and returns either canned output or an error.
type stubGenerator struct {
	calls int
	err   error
}

func (s *stubGenerator) GenerateTasks(context.Context, string, Options) ([]*types.Task, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []*types.Task{{Name: "stub"}}, nil
}

func (s *stubGenerator) GenerateDocument(context.Context, string, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "<p>stub</p>", nil
}

func (s *stubGenerator) Summarize(context.Context, string, []*types.Task) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "stub summary", nil
}

func TestRecoveringPrefersPrimary(t *testing.T) {
	primary := &stubGenerator{}
	fallback := &stubGenerator{}
	r := NewRecovering(primary, fallback)

	tasks, err := r.GenerateTasks(context.Background(), "do things", Options{})
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "stub" {
		t.Errorf("tasks = %v", tasks)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback was consulted %d times on a primary success", fallback.calls)
	}
}

func TestRecoveringFallsBackOnFailure(t *testing.T) {
	primary := &stubGenerator{err: &types.GenerationError{Op: "tasks", Err: errors.New("api down")}}
	fallback := &stubGenerator{}
	r := NewRecovering(primary, fallback)

	if _, err := r.GenerateTasks(context.Background(), "do things", Options{}); err != nil {
		t.Fatalf("GenerateTasks() error = %v, want fallback success", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls: primary %d, fallback %d, want 1 and 1", primary.calls, fallback.calls)
	}

	if _, err := r.GenerateDocument(context.Background(), "t", "x"); err != nil {
		t.Errorf("GenerateDocument() error = %v", err)
	}
	if _, err := r.Summarize(context.Background(), "u", nil); err != nil {
		t.Errorf("Summarize() error = %v", err)
	}
}

func TestRecoveringPropagatesDoubleFailure(t *testing.T) {
	failure := &types.GenerationError{Op: "tasks", Err: errors.New("down")}
	r := NewRecovering(&stubGenerator{err: failure}, &stubGenerator{err: failure})

	var gerr *types.GenerationError
	if _, err := r.GenerateTasks(context.Background(), "x", Options{}); !errors.As(err, &gerr) {
		t.Errorf("error = %v, want *types.GenerationError", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tasks":[]}`, `{"tasks":[]}`},
		{"json fence", "```json\n{\"tasks\":[]}\n```", `{"tasks":[]}`},
		{"bare fence", "```\n{\"tasks\":[]}\n```", `{"tasks":[]}`},
		{"surrounding space", "  {\"tasks\":[]}  ", `{"tasks":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
