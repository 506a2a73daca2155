// Package session provides the durable local key-value storage used for
// the active session record.
//
// The store keeps exactly one durable local value: the current user,
// serialized as JSON under a fixed key. Two processes writing the file race
// with last-write-wins semantics; the Watcher lets a process pick up the
// other's write.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Key is the fixed application key the session record is stored under.
const Key = "crewdeck-user"

// KV is durable local key-value storage. Get reports ok=false when the key
// is absent; Remove of an absent key is a no-op.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// FileKV stores key-value pairs in a single JSON file.
type FileKV struct {
	path string
}

// NewFileKV creates a FileKV backed by the given path. The file is created
// lazily on first Set.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// Path returns the backing file path.
func (kv *FileKV) Path() string { return kv.path }

// Get reads the value for key. Missing file and missing key both report
// ok=false without error.
func (kv *FileKV) Get(key string) (string, bool, error) {
	m, err := kv.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set writes the value for key, creating the file if needed.
func (kv *FileKV) Set(key, value string) error {
	m, err := kv.read()
	if err != nil {
		return err
	}
	m[key] = value
	return kv.write(m)
}

// Remove deletes the key. Removing an absent key is a no-op.
func (kv *FileKV) Remove(key string) error {
	m, err := kv.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return kv.write(m)
}

func (kv *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(kv.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file %s: %w", kv.path, err)
	}

	m := map[string]string{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", kv.path, err)
	}
	return m, nil
}

func (kv *FileKV) write(m map[string]string) error {
	if dir := filepath.Dir(kv.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := os.WriteFile(kv.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", kv.path, err)
	}
	return nil
}
