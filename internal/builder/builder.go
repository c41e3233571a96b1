// Package builder packs raw MB tables into block-compressed table sets.
package builder

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/discochess/tablebase/internal/codec"
	"github.com/discochess/tablebase/internal/codec/zstdcodec"
	"github.com/discochess/tablebase/internal/naming"
	"github.com/discochess/tablebase/internal/store"
	"github.com/discochess/tablebase/internal/store/diskstore"
	"github.com/discochess/tablebase/internal/tablefile"
)

// Builder packs a directory of raw tables. A raw table holds one entry byte
// per index and is laid out with the usual directory and file names.
type Builder struct {
	sourceDir    string
	source       store.Store
	outputDir    string
	codec        codec.Codec
	blockEntries int
	workers      int
	progress     ProgressFunc
}

// Option configures the Builder.
type Option func(*Builder)

// WithSourceDir sets the directory holding raw tables.
func WithSourceDir(dir string) Option {
	return func(b *Builder) { b.sourceDir = dir }
}

// WithSource reads raw tables from st instead of a local directory.
func WithSource(st store.Store) Option {
	return func(b *Builder) { b.source = st }
}

// WithOutputDir sets the output directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// WithCodec sets the block codec.
func WithCodec(c codec.Codec) Option {
	return func(b *Builder) { b.codec = c }
}

// WithBlockEntries sets the number of entries per block.
func WithBlockEntries(n int) Option {
	return func(b *Builder) { b.blockEntries = n }
}

// WithWorkers sets the number of tables packed in parallel.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(b *Builder) { b.progress = fn }
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		outputDir:    "./tables",
		codec:        zstdcodec.New(),
		blockEntries: tablefile.DefaultBlockEntries,
		workers:      runtime.GOMAXPROCS(0),
		progress:     DefaultProgressFunc,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// rawTable is a source table to pack.
type rawTable struct {
	key  naming.Key
	path string
}

// Build packs every raw table and writes the manifest.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	startTime := time.Now()

	src := b.source
	if src == nil {
		if b.sourceDir == "" {
			return nil, fmt.Errorf("no source directory")
		}
		st, err := diskstore.New(b.sourceDir)
		if err != nil {
			return nil, fmt.Errorf("opening source: %w", err)
		}
		defer st.Close()
		src = st
	}

	b.reportProgress(Progress{Phase: "scan", StartTime: startTime})
	tables, err := scan(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var (
		mu      sync.Mutex
		done    int
		entries atomic.Int64
		read    atomic.Int64
		written atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.workers, 1))

	for _, t := range tables {
		g.Go(func() error {
			n, in, out, err := b.packTable(gctx, src, t)
			if err != nil {
				return fmt.Errorf("packing %s: %w", t.path, err)
			}
			entries.Add(n)
			read.Add(in)
			written.Add(out)

			mu.Lock()
			done++
			p := Progress{
				Phase:          "pack",
				TablesDone:     done,
				TablesTotal:    len(tables),
				EntriesWritten: entries.Load(),
				BytesRead:      read.Load(),
				BytesWritten:   written.Load(),
				StartTime:      startTime,
			}
			b.reportProgress(p)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.reportProgress(Progress{Phase: "error", Error: err, StartTime: startTime})
		return nil, err
	}

	m := &Manifest{
		Version:      tablefile.Version,
		Codec:        b.codec.Method().String(),
		BlockEntries: b.blockEntries,
		TableCount:   len(tables),
		EntryCount:   entries.Load(),
		BytesRaw:     read.Load(),
		BytesPacked:  written.Load(),
		BuiltAt:      time.Now().UTC(),
	}
	if err := WriteManifest(b.outputDir, m); err != nil {
		return nil, err
	}

	b.reportProgress(Progress{
		Phase:          "done",
		TablesDone:     len(tables),
		TablesTotal:    len(tables),
		EntriesWritten: m.EntryCount,
		BytesRead:      m.BytesRaw,
		BytesWritten:   m.BytesPacked,
		StartTime:      startTime,
	})

	return m, nil
}

// scan lists the raw tables of src in directory order.
func scan(ctx context.Context, src store.Store) ([]rawTable, error) {
	dirs, err := src.ReadDir(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing source: %w", err)
	}

	var tables []rawTable
	for _, d := range dirs {
		if !d.Dir {
			continue
		}
		dir, ok := naming.ParseDirname(d.Name)
		if !ok {
			continue
		}
		files, err := src.ReadDir(ctx, d.Name)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", d.Name, err)
		}
		for _, f := range files {
			if f.Dir {
				continue
			}
			file, ok := naming.ParseFilename(f.Name)
			if !ok || file.Material != dir.Material {
				continue
			}
			tables = append(tables, rawTable{
				key:  naming.NewKey(dir, file),
				path: path.Join(d.Name, f.Name),
			})
		}
	}
	return tables, nil
}

// packTable encodes one raw table into the output directory.
func (b *Builder) packTable(ctx context.Context, src store.Store, t rawTable) (entries, in, out int64, err error) {
	select {
	case <-ctx.Done():
		return 0, 0, 0, ctx.Err()
	default:
	}

	obj, err := src.Open(ctx, t.path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer obj.Close()

	values, err := obj.ReadRange(ctx, 0, obj.Size())
	if err != nil {
		return 0, 0, 0, fmt.Errorf("reading raw table: %w", err)
	}

	packed, err := tablefile.Encode(values, b.codec, b.blockEntries)
	if err != nil {
		return 0, 0, 0, err
	}

	dst := filepath.Join(b.outputDir, filepath.FromSlash(t.key.Path()))
	if err := writeFileAtomic(dst, packed); err != nil {
		return 0, 0, 0, err
	}

	return int64(len(values)), int64(len(values)), int64(len(packed)), nil
}

// writeFileAtomic writes data to a temporary file and renames it into place.
func writeFileAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func (b *Builder) reportProgress(p Progress) {
	if b.progress != nil {
		b.progress(p)
	}
}
