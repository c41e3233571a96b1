// Package store defines the storage backend interface for table sets.
//
// Names are slash-separated and relative to the root of the store; the empty
// string names the root itself.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a file or directory does not exist in the store.
var ErrNotFound = errors.New("store: not found")

// Entry is a directory listing entry.
type Entry struct {
	Name string
	Dir  bool
}

// Store defines the interface for storage backends.
type Store interface {
	// ReadDir lists the entries directly below dir.
	ReadDir(ctx context.Context, dir string) ([]Entry, error)

	// Open opens a file for random access.
	Open(ctx context.Context, name string) (Object, error)

	// Close releases any resources held by the store.
	Close() error
}

// Object is an opened file.
// Implementations must be safe for concurrent use.
type Object interface {
	// ReadRange reads exactly n bytes starting at off.
	ReadRange(ctx context.Context, off, n int64) ([]byte, error)

	// Size returns the size of the file in bytes.
	Size() int64

	// Close releases the object.
	Close() error
}
