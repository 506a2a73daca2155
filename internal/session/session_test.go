package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileKV(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "session.json"))

	// Missing file reads as an absent key, not an error.
	if _, ok, err := kv.Get(Key); err != nil || ok {
		t.Fatalf("Get() on missing file = ok %v, err %v", ok, err)
	}

	if err := kv.Set(Key, `{"id":"u1"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := kv.Get(Key)
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if v != `{"id":"u1"}` {
		t.Errorf("Get() = %q", v)
	}

	// A second instance on the same path sees the write.
	other := NewFileKV(kv.Path())
	if v, ok, _ := other.Get(Key); !ok || v != `{"id":"u1"}` {
		t.Errorf("second instance Get() = %q, ok %v", v, ok)
	}

	if err := kv.Remove(Key); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := kv.Get(Key); ok {
		t.Error("Get() after Remove() = ok")
	}
	// Removing an absent key is a no-op.
	if err := kv.Remove(Key); err != nil {
		t.Errorf("repeated Remove() error = %v", err)
	}
}

func TestFileKVCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	kv := NewFileKV(path)

	if err := kv.Set(Key, "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("session file was not created: %v", err)
	}
}

func TestFileKVPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	kv := NewFileKV(path)
	if err := kv.Set(Key, "secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 0600", perm)
	}
}

func TestWatcherSignalsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	kv := NewFileKV(path)

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := kv.Set(Key, "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal after session write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-w.Changes():
		t.Fatal("change signal for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopClosesChannels(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if _, ok := <-w.Changes(); ok {
		t.Error("Changes() delivered after Stop()")
	}
	// Stopping twice is safe.
	if err := w.Stop(); err != nil {
		t.Errorf("repeated Stop() error = %v", err)
	}
}

func TestWatcherStartTwice(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}
}
