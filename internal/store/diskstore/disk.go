// Package diskstore implements a disk-based filesystem storage backend.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/discochess/tablebase/internal/store"
)

// Compile-time checks.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Object = (*Object)(nil)
)

// Store is a disk-based filesystem storage backend.
type Store struct {
	root string
}

// New creates a new disk store rooted at the given directory.
// The directory must exist.
func New(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{root: root}, nil
}

// Root returns the directory the store is rooted at.
func (s *Store) Root() string {
	return s.root
}

// ReadDir lists a directory. Symbolic links to directories are reported as
// directories.
func (s *Store) ReadDir(ctx context.Context, dir string) ([]store.Entry, error) {
	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path := s.path(dir)
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, store.ErrNotFound)
		}
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	out := make([]store.Entry, 0, len(entries))
	for _, e := range entries {
		isDir := e.IsDir()
		if e.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(path, e.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		out = append(out, store.Entry{Name: e.Name(), Dir: isDir})
	}
	return out, nil
}

// Open opens a file.
func (s *Store) Open(ctx context.Context, name string) (store.Object, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return &Object{f: f, size: info.Size()}, nil
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Object is an open file on disk.
type Object struct {
	f    *os.File
	size int64
}

// ReadRange reads n bytes at off.
func (o *Object) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := o.f.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %s: %w", o.f.Name(), err)
	}
	return buf, nil
}

// Size returns the file size.
func (o *Object) Size() int64 {
	return o.size
}

// Close closes the file.
func (o *Object) Close() error {
	return o.f.Close()
}
