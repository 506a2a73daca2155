package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewdeck/crewdeck/internal/types"
)

func projectID(p *types.Project) string { return p.ID }

// CreateProject persists a new project and prepends the canonical record
// locally. The owner defaults to the current session user and is always
// part of the member set.
func (s *Store) CreateProject(ctx context.Context, draft *types.Project) (*types.Project, error) {
	d := *draft
	if d.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if d.OwnerID == "" {
		if current := s.CurrentUser(); current != nil {
			d.OwnerID = current.ID
		}
	}
	if d.OwnerID == "" {
		return nil, fmt.Errorf("project owner is required")
	}

	rec, err := s.remote.InsertProject(ctx, &d)
	if err != nil {
		return nil, &types.PersistenceError{Op: "insert project", Err: err}
	}

	s.mu.Lock()
	s.projects = upsertLocal(s.projects, rec, projectID)
	s.mu.Unlock()

	return rec, nil
}

// UpdateProject applies a partial update. A members list that would drop
// the owner is rejected with types.ErrOwnerRequired before any remote
// call, leaving both remote and local state unchanged.
func (s *Store) UpdateProject(ctx context.Context, id string, patch types.ProjectPatch) (*types.Project, error) {
	if patch.Members != nil {
		current := s.GetProject(id)
		if current != nil {
			found := false
			for _, m := range patch.Members {
				if m == current.OwnerID {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("update project %s: %w", id, types.ErrOwnerRequired)
			}
		}
	}

	rec, err := s.remote.UpdateProject(ctx, id, patch)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrOwnerRequired) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "update project", Err: err}
	}

	s.mu.Lock()
	s.projects = replaceLocal(s.projects, rec, projectID)
	s.mu.Unlock()

	return rec, nil
}

// DeleteProject removes the project remotely, then purges it and its
// children from local memory. The remote store owns the durable cascade;
// the local purge just avoids ghost children lingering until their own
// delete notifications arrive. Deleting an absent id is a no-op.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.remote.DeleteProject(ctx, id); err != nil {
		return &types.PersistenceError{Op: "delete project", Err: err}
	}

	s.mu.Lock()
	s.projects = removeLocal(s.projects, id, projectID)
	s.tasks = purgeByProject(s.tasks, id, func(t *types.Task) string { return t.ProjectID })
	s.documents = purgeByProject(s.documents, id, func(d *types.Document) string { return d.ProjectID })
	s.files = purgeByProject(s.files, id, func(f *types.FileMeta) string { return f.ProjectID })
	s.mu.Unlock()

	return nil
}

// purgeByProject drops every record referencing the given project id.
func purgeByProject[T any](coll []*T, projectID string, parent func(*T) string) []*T {
	out := make([]*T, 0, len(coll))
	for _, rec := range coll {
		if parent(rec) != projectID {
			out = append(out, rec)
		}
	}
	return out
}
