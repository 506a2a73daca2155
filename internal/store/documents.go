package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewdeck/crewdeck/internal/types"
)

func documentID(d *types.Document) string { return d.ID }

// CreateDocument persists a new document and prepends the canonical
// record locally. The author defaults to the current session user.
func (s *Store) CreateDocument(ctx context.Context, draft *types.Document) (*types.Document, error) {
	d := *draft
	if d.Title == "" {
		return nil, fmt.Errorf("document title is required")
	}
	if d.ProjectID == "" {
		return nil, fmt.Errorf("document project_id is required")
	}
	if d.AuthorID == "" {
		if current := s.CurrentUser(); current != nil {
			d.AuthorID = current.ID
		}
	}

	rec, err := s.remote.InsertDocument(ctx, &d)
	if err != nil {
		return nil, &types.PersistenceError{Op: "insert document", Err: err}
	}

	s.mu.Lock()
	s.documents = upsertLocal(s.documents, rec, documentID)
	s.mu.Unlock()

	return rec, nil
}

// UpdateDocument applies a partial update. The persistence layer stamps
// last_edited on every save.
func (s *Store) UpdateDocument(ctx context.Context, id string, patch types.DocumentPatch) (*types.Document, error) {
	rec, err := s.remote.UpdateDocument(ctx, id, patch)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "update document", Err: err}
	}

	s.mu.Lock()
	s.documents = replaceLocal(s.documents, rec, documentID)
	s.mu.Unlock()

	return rec, nil
}

// DeleteDocument removes the document remotely, then locally. Deleting an
// absent id is a no-op (idempotent).
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if err := s.remote.DeleteDocument(ctx, id); err != nil {
		return &types.PersistenceError{Op: "delete document", Err: err}
	}

	s.mu.Lock()
	s.documents = removeLocal(s.documents, id, documentID)
	s.mu.Unlock()

	return nil
}
