package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/types"
)

// CurrentUser returns the active session user, or nil when logged out.
func (s *Store) CurrentUser() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Login matches email case-insensitively against the users collection.
// On a hit the session is established and persisted; a miss is a normal
// outcome reported as ok=false, never an error.
func (s *Store) Login(email string) (*types.User, bool) {
	s.mu.RLock()
	var match *types.User
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			match = u
			break
		}
	}
	s.mu.RUnlock()

	if match == nil {
		return nil, false
	}

	s.setSession(match)
	return match, true
}

// Register inserts a new user with an avatar derived from the initials of
// the name, then establishes the session for them. A uniqueness violation
// on email is reported as types.ErrDuplicateEmail and leaves both remote
// and local state unchanged.
func (s *Store) Register(ctx context.Context, name, email string) (*types.User, error) {
	draft := &types.User{
		Name:   name,
		Email:  email,
		Avatar: types.AvatarFor(name),
		Role:   types.RoleMember,
	}

	rec, err := s.remote.InsertUser(ctx, draft)
	if err != nil {
		// ErrDuplicateEmail passes through for the caller to surface.
		return nil, err
	}

	s.mu.Lock()
	s.users = upsertLocal(s.users, rec, userID)
	s.mu.Unlock()

	s.setSession(rec)
	return rec, nil
}

// Logout clears the session and its durable record. It never calls the
// remote store.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if s.kv != nil {
		if err := s.kv.Remove(session.Key); err != nil {
			s.logger.Printf("Error clearing session record: %v", err)
		}
	}
}

// ReloadSession re-reads the durable session record, picking up a write
// made by another process (last write wins). Wire this to a
// session.Watcher to follow external logins and logouts.
func (s *Store) ReloadSession() {
	s.restoreSession()
}

// setSession sets the current user and persists the durable record.
func (s *Store) setSession(u *types.User) {
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	if s.kv == nil {
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		s.logger.Printf("Error serializing session: %v", err)
		return
	}
	if err := s.kv.Set(session.Key, string(data)); err != nil {
		s.logger.Printf("Error persisting session: %v", err)
	}
}

// restoreSession loads the durable session record, if any.
func (s *Store) restoreSession() {
	if s.kv == nil {
		return
	}

	value, ok, err := s.kv.Get(session.Key)
	if err != nil {
		s.logger.Printf("Error reading session record: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.current = nil
		return
	}

	var u types.User
	if err := json.Unmarshal([]byte(value), &u); err != nil {
		s.logger.Printf("Error parsing session record: %v", err)
		return
	}
	s.current = &u
}
