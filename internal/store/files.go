package store

import (
	"context"
	"fmt"

	"github.com/crewdeck/crewdeck/internal/types"
)

func fileID(f *types.FileMeta) string { return f.ID }

// AddFile records uploaded-file metadata remotely and prepends the
// canonical record locally. Binary contents are not stored.
func (s *Store) AddFile(ctx context.Context, draft *types.FileMeta) (*types.FileMeta, error) {
	d := *draft
	if d.Name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if d.ProjectID == "" {
		return nil, fmt.Errorf("file project_id is required")
	}
	if d.UploadedBy == "" {
		if current := s.CurrentUser(); current != nil {
			d.UploadedBy = current.ID
		}
	}

	rec, err := s.remote.InsertFile(ctx, &d)
	if err != nil {
		return nil, &types.PersistenceError{Op: "insert file", Err: err}
	}

	s.mu.Lock()
	s.files = upsertLocal(s.files, rec, fileID)
	s.mu.Unlock()

	return rec, nil
}

// DeleteFile removes the file record remotely, then locally. Deleting an
// absent id is a no-op (idempotent).
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	if err := s.remote.DeleteFile(ctx, id); err != nil {
		return &types.PersistenceError{Op: "delete file", Err: err}
	}

	s.mu.Lock()
	s.files = removeLocal(s.files, id, fileID)
	s.mu.Unlock()

	return nil
}
