package session

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the session file for writes by other processes.
// It uses fsnotify on the parent directory, since watching the file
// directly misses replace-by-rename writes.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan struct{}
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	path    string
}

// NewWatcher creates a Watcher for the given session file path.
// The watcher must be started with Start() before it emits changes.
func NewWatcher(path string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		changes: make(chan struct{}, 8),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
		path:    path,
	}, nil
}

// Start begins watching the session file's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch session directory %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and cleans up resources. It blocks until the event
// goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.changes)
	close(w.errors)

	return nil
}

// Changes returns the channel that signals session-file writes.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors returns the channel that emits watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			select {
			case w.changes <- struct{}{}:
			default:
				// A pending change signal already covers this write.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// matches reports whether the event is a content change of the session file.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
