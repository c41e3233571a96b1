// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/discochess/tablebase/internal/store"
)

// Compile-time checks.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Object = (*object)(nil)
)

// Store is an in-memory store for testing.
// Directories exist implicitly as prefixes of file names.
type Store struct {
	mu    sync.RWMutex
	files map[string][]byte

	opens atomic.Int64
	reads atomic.Int64
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		files: make(map[string][]byte),
	}
}

// SetFile sets the content of a file (for test setup).
// The data is copied to prevent caller mutations from affecting the store.
func (s *Store) SetFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.files[path.Clean(name)] = copied
}

// Opens returns the number of successful Open calls.
func (s *Store) Opens() int64 {
	return s.opens.Load()
}

// Reads returns the number of ReadDir and ReadRange calls.
func (s *Store) Reads() int64 {
	return s.reads.Load()
}

// ReadDir lists the entries directly below dir.
func (s *Store) ReadDir(ctx context.Context, dir string) ([]store.Entry, error) {
	s.reads.Add(1)

	prefix := ""
	if dir = strings.Trim(dir, "/"); dir != "" && dir != "." {
		prefix = dir + "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for name := range s.files {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		child, _, isDir := strings.Cut(rest, "/")
		seen[child] = seen[child] || isDir
	}
	if len(seen) == 0 && prefix != "" {
		return nil, fmt.Errorf("%s: %w", dir, store.ErrNotFound)
	}

	entries := make([]store.Entry, 0, len(seen))
	for name, isDir := range seen {
		entries = append(entries, store.Entry{Name: name, Dir: isDir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Open returns the named file.
func (s *Store) Open(ctx context.Context, name string) (store.Object, error) {
	s.mu.RLock()
	data, ok := s.files[path.Clean(name)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	s.opens.Add(1)
	return &object{s: s, data: data}, nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

type object struct {
	s    *Store
	data []byte
}

func (o *object) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	o.s.reads.Add(1)
	if off < 0 || n < 0 || off+n > int64(len(o.data)) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	copy(out, o.data[off:off+n])
	return out, nil
}

func (o *object) Size() int64 {
	return int64(len(o.data))
}

func (o *object) Close() error {
	return nil
}
