// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/discochess/tablebase/internal/store"
)

// Compile-time checks.
var (
	_ store.Store  = (*Store)(nil)
	_ store.Object = (*Object)(nil)
)

// Store is a Google Cloud Storage backend.
// Directories are emulated with "/"-delimited object name prefixes.
type Store struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	options []option.ClientOption
}

// New creates a new GCS store.
// The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	client, err := storage.NewClient(ctx, s.options...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	s.client = client
	s.bucket = client.Bucket(bucketName)

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithEndpoint points the client at a custom endpoint, such as a local
// emulator. Authentication is disabled.
func WithEndpoint(endpoint string) Option {
	return func(s *Store) {
		s.options = append(s.options, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
}

// ReadDir lists the objects and prefixes directly below dir.
func (s *Store) ReadDir(ctx context.Context, dir string) ([]store.Entry, error) {
	// Check for cancellation before starting.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	prefix := s.dirKey(dir)
	it := s.bucket.Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var entries []store.Entry
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		if e, ok := entryFromAttrs(prefix, attrs); ok {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 && strings.Trim(dir, "/") != "" {
		return nil, fmt.Errorf("%s: %w", dir, store.ErrNotFound)
	}
	return entries, nil
}

// Open returns a handle reading the named object with range requests.
func (s *Store) Open(ctx context.Context, name string) (store.Object, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	obj := s.bucket.Object(s.objectKey(name))
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("reading attributes: %w", err)
	}

	return &Object{obj: obj, size: attrs.Size}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// objectKey returns the full object key for a file name.
func (s *Store) objectKey(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// dirKey returns the listing prefix for a directory.
func (s *Store) dirKey(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return s.prefix
	}
	return s.prefix + dir + "/"
}

// entryFromAttrs converts a delimited listing result into an entry relative
// to prefix.
func entryFromAttrs(prefix string, attrs *storage.ObjectAttrs) (store.Entry, bool) {
	if attrs.Prefix != "" {
		name := strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, prefix), "/")
		return store.Entry{Name: name, Dir: true}, name != ""
	}
	name := strings.TrimPrefix(attrs.Name, prefix)
	// Zero-length placeholder objects created by some tools for "folders".
	if name == "" || strings.HasSuffix(name, "/") {
		return store.Entry{}, false
	}
	return store.Entry{Name: name}, true
}

// Object is a GCS object read with range requests.
type Object struct {
	obj  *storage.ObjectHandle
	size int64
}

// ReadRange reads n bytes at off.
func (o *Object) ReadRange(ctx context.Context, off, n int64) ([]byte, error) {
	if off+n > o.size {
		return nil, io.ErrUnexpectedEOF
	}

	reader, err := o.obj.NewRangeReader(ctx, off, n)
	if err != nil {
		return nil, fmt.Errorf("creating range reader: %w", err)
	}
	defer reader.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, fmt.Errorf("reading range: %w", err)
	}
	return buf, nil
}

// Size returns the object size.
func (o *Object) Size() int64 {
	return o.size
}

// Close is a no-op; range readers are closed after each read.
func (o *Object) Close() error {
	return nil
}
