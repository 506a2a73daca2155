package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/crewdeck/crewdeck/internal/types"
)

func taskID(t *types.Task) string { return t.ID }

// CreateTask validates the draft, persists it remotely and prepends the
// canonical record to the local collection. On failure local state is
// left unchanged.
func (s *Store) CreateTask(ctx context.Context, draft *types.Task) (*types.Task, error) {
	d := *draft
	d.SetDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.remote.InsertTask(ctx, &d)
	if err != nil {
		return nil, &types.PersistenceError{Op: "insert task", Err: err}
	}

	s.mu.Lock()
	s.tasks = upsertLocal(s.tasks, rec, taskID)
	s.mu.Unlock()

	return rec, nil
}

// CreateTasks persists a batch of drafts atomically: either every draft is
// committed and applied locally, or none are.
func (s *Store) CreateTasks(ctx context.Context, drafts []*types.Task) ([]*types.Task, error) {
	prepared := make([]*types.Task, 0, len(drafts))
	for _, draft := range drafts {
		d := *draft
		d.SetDefaults()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid draft in batch: %w", err)
		}
		prepared = append(prepared, &d)
	}

	recs, err := s.remote.InsertTasks(ctx, prepared)
	if err != nil {
		return nil, &types.PersistenceError{Op: "insert task batch", Err: err}
	}

	s.mu.Lock()
	for i := len(recs) - 1; i >= 0; i-- {
		s.tasks = upsertLocal(s.tasks, recs[i], taskID)
	}
	s.mu.Unlock()

	return recs, nil
}

// UpdateTask applies a partial update remotely and replaces the local
// record with the canonical response. Returns types.ErrNotFound (via
// *types.NotFoundError) when the id does not exist remotely.
func (s *Store) UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (*types.Task, error) {
	rec, err := s.remote.UpdateTask(ctx, id, patch)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "update task", Err: err}
	}

	s.mu.Lock()
	s.tasks = replaceLocal(s.tasks, rec, taskID)
	s.mu.Unlock()

	return rec, nil
}

// DeleteTask removes the task remotely, then locally. Deleting an absent
// id is a no-op (idempotent).
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.remote.DeleteTask(ctx, id); err != nil {
		return &types.PersistenceError{Op: "delete task", Err: err}
	}

	s.mu.Lock()
	s.tasks = removeLocal(s.tasks, id, taskID)
	s.mu.Unlock()

	return nil
}

// TaskStats aggregates task counts for one project by status.
type TaskStats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// GetTaskStats returns per-status task counts for a project.
func (s *Store) GetTaskStats(projectID string) TaskStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats TaskStats
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		stats.Total++
		switch t.Status {
		case types.TaskTodo:
			stats.Todo++
		case types.TaskInProgress:
			stats.InProgress++
		case types.TaskDone:
			stats.Done++
		}
	}
	return stats
}

// GetProjectProgress returns the project's completion percentage,
// round(done/total*100). A project with no tasks is at 0.
func (s *Store) GetProjectProgress(projectID string) int {
	stats := s.GetTaskStats(projectID)
	if stats.Total == 0 {
		return 0
	}
	return int(math.Round(float64(stats.Done) / float64(stats.Total) * 100))
}
