package tablefile

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/discochess/tablebase/internal/blockcache"
	"github.com/discochess/tablebase/internal/codec"
	"github.com/discochess/tablebase/internal/codec/gzipcodec"
	"github.com/discochess/tablebase/internal/codec/noopcodec"
	"github.com/discochess/tablebase/internal/codec/zstdcodec"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/store"
)

// nextID hands out block cache namespaces to opened tables.
var nextID atomic.Uint64

var (
	sharedNoop = sync.OnceValue(func() codec.Codec { return noopcodec.New() })
	sharedGzip = sync.OnceValue(func() codec.Codec { return gzipcodec.New() })
	sharedZstd = sync.OnceValue(func() codec.Codec { return zstdcodec.New() })
)

// Table is an opened table file. It is safe for concurrent use.
type Table struct {
	id      uint64
	obj     store.Object
	header  Header
	offsets []uint64
	codec   codec.Codec

	cache     blockcache.Backend
	collector stats.Collector
}

// Option configures a Table.
type Option func(*Table)

// WithCache sets the decoded block cache shared between tables.
func WithCache(c blockcache.Backend) Option {
	return func(t *Table) {
		t.cache = c
	}
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(t *Table) {
		t.collector = c
	}
}

// Open validates the header and block index of obj.
// The table takes ownership of obj.
func Open(ctx context.Context, obj store.Object, opts ...Option) (*Table, error) {
	t := &Table{
		id:        nextID.Add(1),
		obj:       obj,
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	size := obj.Size()
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte file", ErrCorrupt, size)
	}

	raw, err := obj.ReadRange(ctx, 0, HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	t.header, err = parseHeader(raw)
	if err != nil {
		return nil, err
	}

	t.codec, err = CodecFor(t.header.Method)
	if err != nil {
		return nil, err
	}

	if t.header.DataOffset() > size {
		return nil, fmt.Errorf("%w: truncated block index", ErrCorrupt)
	}
	raw, err = obj.ReadRange(ctx, HeaderSize, t.header.IndexSize())
	if err != nil {
		return nil, fmt.Errorf("reading block index: %w", err)
	}
	t.offsets = make([]uint64, int(t.header.Blocks)+1)
	for i := range t.offsets {
		t.offsets[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	if err := t.checkOffsets(size); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Table) checkOffsets(size int64) error {
	if t.offsets[0] != uint64(t.header.DataOffset()) {
		return fmt.Errorf("%w: first block at %d", ErrCorrupt, t.offsets[0])
	}
	for i := 1; i < len(t.offsets); i++ {
		if t.offsets[i] < t.offsets[i-1] {
			return fmt.Errorf("%w: block %d offset decreases", ErrCorrupt, i)
		}
	}
	if last := t.offsets[len(t.offsets)-1]; last != uint64(size) {
		return fmt.Errorf("%w: blocks end at %d, file size %d", ErrCorrupt, last, size)
	}
	return nil
}

// Header returns the table header.
func (t *Table) Header() Header {
	return t.header
}

// Len returns the number of entries.
func (t *Table) Len() uint64 {
	return t.header.Entries
}

// Read returns the entry at index.
func (t *Table) Read(ctx context.Context, index uint64) (Value, error) {
	if index >= t.header.Entries {
		return Value{}, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, index, t.header.Entries)
	}

	b := uint32(index / uint64(t.header.BlockEntries))
	data, err := t.block(ctx, b)
	if err != nil {
		return Value{}, err
	}
	return DecodeEntry(data[index%uint64(t.header.BlockEntries)]), nil
}

// Verify decodes every block and checks its length.
func (t *Table) Verify(ctx context.Context) error {
	for b := uint32(0); b < t.header.Blocks; b++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := t.decodeBlock(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying object.
func (t *Table) Close() error {
	return t.obj.Close()
}

func (t *Table) block(ctx context.Context, b uint32) ([]byte, error) {
	key := blockcache.Key{Table: t.id, Block: b}
	if t.cache != nil {
		if data, ok := t.cache.Get(key); ok {
			return data, nil
		}
	}

	data, err := t.decodeBlock(ctx, b)
	if err != nil {
		return nil, err
	}

	if t.cache != nil {
		t.cache.Set(key, data)
	}
	return data, nil
}

func (t *Table) decodeBlock(ctx context.Context, b uint32) ([]byte, error) {
	off := t.offsets[b]
	n := t.offsets[b+1] - off

	compressed, err := t.obj.ReadRange(ctx, int64(off), int64(n))
	if err != nil {
		return nil, fmt.Errorf("reading block %d: %w", b, err)
	}
	t.collector.IncCounter(stats.MetricBlockReads, 1)

	want := t.header.BlockLen(b)
	data, err := t.codec.Decode(make([]byte, 0, want), compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: %v", ErrCorrupt, b, err)
	}
	if len(data) != want {
		return nil, fmt.Errorf("%w: block %d has %d entries, want %d", ErrCorrupt, b, len(data), want)
	}
	return data, nil
}

// CodecFor returns the codec identified by m.
func CodecFor(m codec.Method) (codec.Codec, error) {
	switch m {
	case codec.MethodNone:
		return sharedNoop(), nil
	case codec.MethodGzip:
		return sharedGzip(), nil
	case codec.MethodZstd:
		return sharedZstd(), nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, uint8(m))
	}
}
