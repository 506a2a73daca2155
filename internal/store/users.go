package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/types"
)

func userID(u *types.User) string { return u.ID }

// UpdateUser applies a partial profile update. If the updated user is the
// session user, the session follows the change.
func (s *Store) UpdateUser(ctx context.Context, id string, patch types.UserPatch) (*types.User, error) {
	rec, err := s.remote.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, &types.PersistenceError{Op: "update user", Err: err}
	}

	s.mu.Lock()
	s.users = replaceLocal(s.users, rec, userID)
	refreshSession := s.current != nil && s.current.ID == id
	if refreshSession {
		s.current = rec
	}
	s.mu.Unlock()

	if refreshSession && s.kv != nil {
		if data, err := json.Marshal(rec); err == nil {
			if err := s.kv.Set(session.Key, string(data)); err != nil {
				s.logger.Printf("Error refreshing session record: %v", err)
			}
		}
	}

	return rec, nil
}

// DeleteUser removes a user. Deleting the session user logs them out.
// Deleting an absent id is a no-op (idempotent).
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.remote.DeleteUser(ctx, id); err != nil {
		return &types.PersistenceError{Op: "delete user", Err: err}
	}

	s.mu.Lock()
	s.users = removeLocal(s.users, id, userID)
	wasCurrent := s.current != nil && s.current.ID == id
	s.mu.Unlock()

	if wasCurrent {
		s.Logout()
	}

	return nil
}
