// Package registry maps table keys to table files and opens them lazily.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/discochess/tablebase/internal/naming"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/store"
	"github.com/discochess/tablebase/internal/tablefile"
)

// ErrClosed is returned by Lookup after Close.
var ErrClosed = errors.New("registry: closed")

// Table is an opened table.
type Table interface {
	Read(ctx context.Context, index uint64) (tablefile.Value, error)
}

// Opener opens the named file of a store as a table.
type Opener func(ctx context.Context, st store.Store, name string) (Table, error)

// TableFileOpener returns an Opener for packed table files.
func TableFileOpener(opts ...tablefile.Option) Opener {
	return func(ctx context.Context, st store.Store, name string) (Table, error) {
		obj, err := st.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		t, err := tablefile.Open(ctx, obj, opts...)
		if err != nil {
			obj.Close()
			if errors.Is(err, tablefile.ErrBadMagic) {
				return nil, fmt.Errorf("opening %s: %w (raw tables must be converted with tablebase pack)", name, err)
			}
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		return t, nil
	}
}

type handle struct {
	table Table
}

type entry struct {
	store  store.Store
	path   string
	handle atomic.Pointer[handle]
}

// Registry holds every registered table. It is safe for concurrent use.
type Registry struct {
	opener    Opener
	logger    *zap.Logger
	collector stats.Collector

	mu      sync.RWMutex
	entries map[naming.Key]*entry
	retired []Table // opened tables of replaced entries, closed by Close
	closed  bool

	group singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(r *Registry) {
		r.collector = c
	}
}

// New creates an empty registry opening tables with opener.
func New(opener Opener, opts ...Option) *Registry {
	r := &Registry{
		opener:    opener,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
		entries:   make(map[naming.Key]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register scans the table directories directly below root and records every
// table file whose name decodes and whose material matches its directory.
// It returns the number of files recorded. A listing error aborts the scan;
// tables recorded before the error stay registered.
func (r *Registry) Register(ctx context.Context, st store.Store, root string) (int, error) {
	dirs, err := st.ReadDir(ctx, root)
	if err != nil {
		return 0, fmt.Errorf("listing %q: %w", root, err)
	}

	count := 0
	for _, d := range dirs {
		if !d.Dir {
			continue
		}
		dir, ok := naming.ParseDirname(d.Name)
		if !ok {
			continue
		}

		dirPath := path.Join(root, d.Name)
		files, err := st.ReadDir(ctx, dirPath)
		if err != nil {
			return count, fmt.Errorf("listing %q: %w", dirPath, err)
		}

		for _, f := range files {
			if f.Dir {
				continue
			}
			file, ok := naming.ParseFilename(f.Name)
			if !ok || file.Material != dir.Material {
				continue
			}
			r.insert(naming.NewKey(dir, file), st, path.Join(dirPath, f.Name))
			count++
		}
	}

	n := r.Len()
	r.collector.SetGauge(stats.MetricTablesRegistered, int64(n))
	r.logger.Info("tables registered",
		zap.String("root", root),
		zap.Int("count", count),
		zap.Int("total", n),
	)
	return count, nil
}

func (r *Registry) insert(key naming.Key, st store.Store, p string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.entries[key]
	if ok && old.store == st && old.path == p {
		return
	}
	if ok {
		// Readers may still hold the old table, so it stays open until Close.
		if h := old.handle.Load(); h != nil {
			r.retired = append(r.retired, h.table)
		}
	}
	r.entries[key] = &entry{store: st, path: p}
}

// Lookup returns the opened table for key, opening it on first use.
// It returns nil, nil when no table is registered under key. Concurrent
// callers share a single open; a failed open is retried by later calls.
func (r *Registry) Lookup(ctx context.Context, key naming.Key) (Table, error) {
	r.mu.RLock()
	e, ok := r.entries[key]
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, nil
	}

	if h := e.handle.Load(); h != nil {
		return h.table, nil
	}

	v, err, _ := r.group.Do(key.Path(), func() (any, error) {
		if h := e.handle.Load(); h != nil {
			return h.table, nil
		}

		t, err := r.opener(ctx, e.store, e.path)
		if err != nil {
			r.collector.IncCounter(stats.MetricTableOpenErrors, 1)
			return nil, err
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			closeTable(t)
			return nil, ErrClosed
		}
		if r.entries[key] == e {
			e.handle.Store(&handle{table: t})
		} else {
			// Replaced while opening.
			r.retired = append(r.retired, t)
		}
		r.mu.Unlock()

		r.collector.IncCounter(stats.MetricTableOpens, 1)
		r.logger.Debug("table opened", zap.String("path", e.path))
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", key, err)
	}
	return v.(Table), nil
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns every registered key, sorted by path.
func (r *Registry) Keys() []naming.Key {
	r.mu.RLock()
	keys := make([]naming.Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Path() < keys[j].Path() })
	return keys
}

// Path returns the store path a key is registered under.
func (r *Registry) Path(key naming.Key) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return e.path, true
}

// Close closes every opened table, including tables of replaced entries.
// Lookups after Close fail with ErrClosed; an open still in flight closes
// its table itself.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	var errs []error
	for _, e := range r.entries {
		if h := e.handle.Swap(nil); h != nil {
			if err := closeTable(h.table); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, t := range r.retired {
		if err := closeTable(t); err != nil {
			errs = append(errs, err)
		}
	}
	r.retired = nil
	return errors.Join(errs...)
}

func closeTable(t Table) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
