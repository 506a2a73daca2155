package store

import (
	"github.com/crewdeck/crewdeck/internal/remote"
	"github.com/crewdeck/crewdeck/internal/types"
)

// subscribeAll registers one feed subscription per table and starts a
// reconciliation goroutine for each. The cancel functions are retained so
// Close can guarantee teardown.
func (s *Store) subscribeAll() {
	if s.feed == nil {
		return
	}

	tables := []remote.Table{
		remote.TableUsers,
		remote.TableProjects,
		remote.TableTasks,
		remote.TableDocuments,
		remote.TableFiles,
	}

	for _, table := range tables {
		ch, cancel := s.feed.Subscribe(table)
		s.cancels = append(s.cancels, cancel)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for ev := range ch {
				s.apply(ev)
			}
		}()
	}
}

// apply folds one change notification into local state.
//
// The same logical change can arrive twice: once via a direct CRUD
// response and once via the feed. Inserts are therefore deduplicated by
// id; an update for an unknown id (a race with a not-yet-applied insert)
// is treated as an insert; a delete for an unknown id is a no-op. All of
// these are idempotent, so applying an event twice leaves the collection
// unchanged.
func (s *Store) apply(ev remote.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Table {
	case remote.TableUsers:
		if ev.User == nil {
			return
		}
		s.users = applyToCollection(s.users, ev.Op, ev.User, func(u *types.User) string { return u.ID })
		// Keep the session coherent with remote user changes.
		if s.current != nil && s.current.ID == ev.User.ID {
			switch ev.Op {
			case remote.OpUpdate:
				s.current = ev.User
			case remote.OpDelete:
				s.current = nil
			}
		}
	case remote.TableProjects:
		if ev.Project == nil {
			return
		}
		s.projects = applyToCollection(s.projects, ev.Op, ev.Project, func(p *types.Project) string { return p.ID })
	case remote.TableTasks:
		if ev.Task == nil {
			return
		}
		s.tasks = applyToCollection(s.tasks, ev.Op, ev.Task, func(t *types.Task) string { return t.ID })
	case remote.TableDocuments:
		if ev.Document == nil {
			return
		}
		s.documents = applyToCollection(s.documents, ev.Op, ev.Document, func(d *types.Document) string { return d.ID })
	case remote.TableFiles:
		if ev.File == nil {
			return
		}
		s.files = applyToCollection(s.files, ev.Op, ev.File, func(f *types.FileMeta) string { return f.ID })
	}
}

// applyToCollection returns a new collection with the event applied,
// leaving the input untouched so concurrent readers keep a stable view.
func applyToCollection[T any](coll []*T, op remote.Op, rec *T, id func(*T) string) []*T {
	recID := id(rec)

	switch op {
	case remote.OpInsert:
		for _, existing := range coll {
			if id(existing) == recID {
				return coll
			}
		}
		out := make([]*T, 0, len(coll)+1)
		out = append(out, rec)
		return append(out, coll...)

	case remote.OpUpdate:
		found := false
		out := make([]*T, len(coll))
		for i, existing := range coll {
			if id(existing) == recID {
				out[i] = rec
				found = true
			} else {
				out[i] = existing
			}
		}
		if !found {
			// Update raced ahead of its insert; treat as insert.
			ins := make([]*T, 0, len(coll)+1)
			ins = append(ins, rec)
			return append(ins, coll...)
		}
		return out

	case remote.OpDelete:
		out := make([]*T, 0, len(coll))
		for _, existing := range coll {
			if id(existing) != recID {
				out = append(out, existing)
			}
		}
		return out
	}

	return coll
}

// upsertLocal is applyToCollection specialized for the direct CRUD path:
// it prepends a canonical record unless the feed already delivered it.
func upsertLocal[T any](coll []*T, rec *T, id func(*T) string) []*T {
	return applyToCollection(coll, remote.OpInsert, rec, id)
}

// replaceLocal swaps the record with the matching id, inserting when the
// id is absent.
func replaceLocal[T any](coll []*T, rec *T, id func(*T) string) []*T {
	return applyToCollection(coll, remote.OpUpdate, rec, id)
}

// removeLocal drops the record with the matching id.
func removeLocal[T any](coll []*T, recID string, id func(*T) string) []*T {
	out := make([]*T, 0, len(coll))
	for _, existing := range coll {
		if id(existing) != recID {
			out = append(out, existing)
		}
	}
	return out
}
