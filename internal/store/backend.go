package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend is a textual key/value state store, the server-side counterpart
// of a browser's local storage.
type Backend interface {
	// GetItem returns the value for key and whether it was present.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem replaces the value for key.
	SetItem(ctx context.Context, key, value string) error
}

// MemoryBackend keeps values in memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]string)}
}

func (m *MemoryBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryBackend) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// FileBackend stores each key in its own file below Dir.
//
// Writes go to `<file>.tmp` and are renamed over the original so a crash
// never leaves a partial file behind.
type FileBackend struct {
	Dir string
	mu  sync.Mutex
}

// NewFileBackend returns a backend rooted at dir, creating it if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileBackend{Dir: dir}, nil
}

// ForOwner returns a backend scoped to one owner's subdirectory.
func (f *FileBackend) ForOwner(owner string) (*FileBackend, error) {
	return NewFileBackend(filepath.Join(f.Dir, sanitizeName(owner)))
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.Dir, sanitizeName(key)+".json")
}

func (f *FileBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (f *FileBackend) SetItem(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// sanitizeName keeps file names inside the backend directory.
func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
