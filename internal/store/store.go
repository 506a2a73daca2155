// Package store implements the data synchronization store: the single
// source of truth for in-memory copies of users, projects, tasks,
// documents and file records, plus the active session.
//
// Every mutation goes through the remote persistence service before it is
// confirmed to the caller; a failed remote call leaves local state
// untouched. Change notifications from the remote feed are folded into
// local state by background reconciliation goroutines, so a store replica
// converges on the remote rows at quiescence.
//
// Collections are replaced wholesale on every change (copy-on-write at
// collection granularity), so a reader never observes a half-updated list.
package store

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/crewdeck/crewdeck/internal/remote"
	"github.com/crewdeck/crewdeck/internal/session"
	"github.com/crewdeck/crewdeck/internal/types"
)

// State is the store lifecycle state.
type State int

const (
	// StateUninitialized means Init has not been called yet.
	StateUninitialized State = iota
	// StateLoading means the initial list-fetches are in flight.
	StateLoading
	// StateReady means the store is serving reads and mutations.
	// Initialization failures still end here, with degraded (empty or
	// seeded) collections, so the UI stays usable.
	StateReady
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// SampleUsers is the seed roster applied when the users table is empty or
// the initial users fetch fails.
var SampleUsers = []*types.User{
	{ID: "user-1", Name: "Alex Johnson", Email: "alex@company.com", Avatar: "AJ", Role: types.RoleAdmin},
	{ID: "user-2", Name: "Maria Garcia", Email: "maria@company.com", Avatar: "MG", Role: types.RoleMember},
	{ID: "user-3", Name: "Juan Rodriguez", Email: "juan@company.com", Avatar: "JR", Role: types.RoleMember},
	{ID: "user-4", Name: "Sarah Chen", Email: "sarah@company.com", Avatar: "SC", Role: types.RoleMember},
}

// Config holds store configuration.
type Config struct {
	// SeedUsers is the roster used when the users collection cannot be
	// loaded or is empty. Defaults to SampleUsers.
	SeedUsers []*types.User

	// Logger for store activity. Defaults to a stderr logger.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SeedUsers: SampleUsers,
		Logger:    log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
}

// Store owns the in-memory collections and mediates every mutation
// through the remote persistence service. Construct one per process with
// New and pass it by reference to consumers.
type Store struct {
	remote remote.Client
	feed   remote.Feed
	kv     session.KV
	logger *log.Logger
	seed   []*types.User

	mu        sync.RWMutex
	state     State
	users     []*types.User
	projects  []*types.Project
	tasks     []*types.Task
	documents []*types.Document
	files     []*types.FileMeta
	current   *types.User

	cancels   []func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Store. Init must be called before use.
func New(client remote.Client, feed remote.Feed, kv session.KV, config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	if config.SeedUsers == nil {
		config.SeedUsers = SampleUsers
	}

	return &Store{
		remote: client,
		feed:   feed,
		kv:     kv,
		logger: config.Logger,
		seed:   config.SeedUsers,
	}
}

// Init loads every collection from the remote store and subscribes to the
// change feed. Individual list failures are isolated: a failed users fetch
// falls back to the seed roster, other failures degrade to an empty
// collection. Init always leaves the store in StateReady.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	s.restoreSession()

	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); s.loadUsers(ctx) }()
	go func() { defer wg.Done(); s.loadProjects(ctx) }()
	go func() { defer wg.Done(); s.loadTasks(ctx) }()
	go func() { defer wg.Done(); s.loadDocuments(ctx) }()
	go func() { defer wg.Done(); s.loadFiles(ctx) }()
	wg.Wait()

	s.subscribeAll()

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	return nil
}

// Close releases the feed subscriptions and waits for the reconciliation
// goroutines to exit. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		for _, cancel := range s.cancels {
			cancel()
		}
		s.wg.Wait()
	})
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) loadUsers(ctx context.Context) {
	users, err := s.remote.ListUsers(ctx)
	if err != nil {
		s.logger.Printf("Error loading users, falling back to seed roster: %v", err)
		s.replaceUsers(cloneUsers(s.seed))
		return
	}

	// Empty table: seed it so login has accounts to match against.
	if len(users) == 0 {
		seeded, err := s.remote.InsertUsers(ctx, s.seed)
		if err != nil {
			s.logger.Printf("Error seeding users: %v", err)
			s.replaceUsers(cloneUsers(s.seed))
			return
		}
		s.replaceUsers(seeded)
		return
	}

	s.replaceUsers(users)
}

func (s *Store) loadProjects(ctx context.Context) {
	projects, err := s.remote.ListProjects(ctx)
	if err != nil {
		s.logger.Printf("Error loading projects: %v", err)
		projects = nil
	}
	s.mu.Lock()
	s.projects = projects
	s.mu.Unlock()
}

func (s *Store) loadTasks(ctx context.Context) {
	tasks, err := s.remote.ListTasks(ctx)
	if err != nil {
		s.logger.Printf("Error loading tasks: %v", err)
		tasks = nil
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
}

func (s *Store) loadDocuments(ctx context.Context) {
	documents, err := s.remote.ListDocuments(ctx)
	if err != nil {
		s.logger.Printf("Error loading documents: %v", err)
		documents = nil
	}
	s.mu.Lock()
	s.documents = documents
	s.mu.Unlock()
}

func (s *Store) loadFiles(ctx context.Context) {
	files, err := s.remote.ListFiles(ctx)
	if err != nil {
		s.logger.Printf("Error loading files: %v", err)
		files = nil
	}
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
}

func (s *Store) replaceUsers(users []*types.User) {
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
}

func cloneUsers(users []*types.User) []*types.User {
	out := make([]*types.User, len(users))
	for i, u := range users {
		c := *u
		out[i] = &c
	}
	return out
}

// Users returns a snapshot of the users collection, newest first.
func (s *Store) Users() []*types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users
}

// Projects returns a snapshot of the projects collection, newest first.
func (s *Store) Projects() []*types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects
}

// Tasks returns a snapshot of the tasks collection, newest first.
func (s *Store) Tasks() []*types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

// Documents returns a snapshot of the documents collection, newest first.
func (s *Store) Documents() []*types.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents
}

// Files returns a snapshot of the file records, newest first.
func (s *Store) Files() []*types.FileMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files
}

// GetUser returns the user with the given id, or nil if absent.
func (s *Store) GetUser(id string) *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// GetProject returns the project with the given id, or nil if absent.
func (s *Store) GetProject(id string) *types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// GetDocument returns the document with the given id, or nil if absent.
func (s *Store) GetDocument(id string) *types.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.documents {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// GetProjectTasks returns the tasks belonging to a project.
func (s *Store) GetProjectTasks(projectID string) []*types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

// GetProjectDocuments returns the documents belonging to a project.
func (s *Store) GetProjectDocuments(projectID string) []*types.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Document
	for _, d := range s.documents {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out
}

// GetProjectFiles returns the file records belonging to a project.
func (s *Store) GetProjectFiles(projectID string) []*types.FileMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.FileMeta
	for _, f := range s.files {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	return out
}
