package tablefile

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/discochess/tablebase/internal/blockcache/cachestrategy/lru"
	"github.com/discochess/tablebase/internal/blockcache/memory"
	"github.com/discochess/tablebase/internal/codec"
	"github.com/discochess/tablebase/internal/codec/gzipcodec"
	"github.com/discochess/tablebase/internal/codec/noopcodec"
	"github.com/discochess/tablebase/internal/codec/zstdcodec"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/store/memstore"
)

func testValues(n int) []byte {
	values := make([]byte, n)
	for i := range values {
		switch {
		case i%17 == 0:
			values[i] = EntryUnresolved
		case i%31 == 0:
			values[i] = EntryHighDTC
		default:
			values[i] = byte(1 + i%MaxDTC)
		}
	}
	return values
}

func openEncoded(t *testing.T, data []byte, opts ...Option) *Table {
	t.Helper()
	st := memstore.New()
	st.SetFile("kqk_out/kqk_w_0.mb", data)

	ctx := context.Background()
	obj, err := st.Open(ctx, "kqk_out/kqk_w_0.mb")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	tbl, err := Open(ctx, obj, opts...)
	if err != nil {
		t.Fatalf("tablefile.Open() error = %v", err)
	}
	return tbl
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		b    byte
		want Value
	}{
		{0, Value{Kind: Unresolved}},
		{1, Value{Kind: DTC, DTC: 1}},
		{254, Value{Kind: DTC, DTC: 254}},
		{255, Value{Kind: HighDTC}},
	}

	for _, tt := range tests {
		got := DecodeEntry(tt.b)
		if got != tt.want {
			t.Errorf("DecodeEntry(%d) = %+v, want %+v", tt.b, got, tt.want)
		}
		if got.Byte() != tt.b {
			t.Errorf("Value.Byte() = %d, want %d", got.Byte(), tt.b)
		}
	}
}

func TestEncodeOpenRead(t *testing.T) {
	codecs := []codec.Codec{noopcodec.New(), gzipcodec.New(), zstdcodec.New()}
	values := testValues(1000)

	for _, c := range codecs {
		t.Run(c.Method().String(), func(t *testing.T) {
			data, err := Encode(values, c, 64)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			tbl := openEncoded(t, data)
			defer tbl.Close()

			h := tbl.Header()
			if h.Method != c.Method() {
				t.Errorf("Method = %v, want %v", h.Method, c.Method())
			}
			if h.Blocks != 16 {
				t.Errorf("Blocks = %d, want 16", h.Blocks)
			}
			if tbl.Len() != 1000 {
				t.Errorf("Len() = %d, want 1000", tbl.Len())
			}

			ctx := context.Background()
			for i, b := range values {
				got, err := tbl.Read(ctx, uint64(i))
				if err != nil {
					t.Fatalf("Read(%d) error = %v", i, err)
				}
				if got != DecodeEntry(b) {
					t.Fatalf("Read(%d) = %+v, want %+v", i, got, DecodeEntry(b))
				}
			}

			if err := tbl.Verify(ctx); err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

func TestRead_OutOfRange(t *testing.T) {
	data, err := Encode(testValues(10), noopcodec.New(), 4)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	tbl := openEncoded(t, data)

	_, err = tbl.Read(context.Background(), 10)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Read() error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestRead_UsesBlockCache(t *testing.T) {
	data, err := Encode(testValues(256), zstdcodec.New(), 32)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	strategy, err := lru.New(8)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	rec := stats.NewRecorder()
	cache := memory.New(strategy, nil)
	tbl := openEncoded(t, data, WithCache(cache), WithStats(rec))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := tbl.Read(ctx, 5); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if _, err := tbl.Read(ctx, 200); err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got := rec.Counter(stats.MetricBlockReads); got != 2 {
		t.Errorf("block reads = %d, want 2", got)
	}
	s := cache.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("cache stats = %+v, want 2 hits and 2 misses", s)
	}
}

func TestHeader_IndexSize(t *testing.T) {
	tests := []struct {
		blocks uint32
		want   int64
	}{
		{0, 8},
		{10, 88},
		{math.MaxUint32, 1 << 35},
	}
	for _, tt := range tests {
		if got := (Header{Blocks: tt.blocks}).IndexSize(); got != tt.want {
			t.Errorf("Header{Blocks: %d}.IndexSize() = %d, want %d", tt.blocks, got, tt.want)
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	valid, err := Encode(testValues(100), noopcodec.New(), 10)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{
			name:    "bad magic",
			mutate:  func(b []byte) []byte { b[0] = 'X'; return b },
			wantErr: ErrBadMagic,
		},
		{
			name:    "unknown version",
			mutate:  func(b []byte) []byte { b[4] = 9; return b },
			wantErr: ErrUnsupportedVersion,
		},
		{
			name:    "unknown codec",
			mutate:  func(b []byte) []byte { b[5] = 42; return b },
			wantErr: ErrCorrupt,
		},
		{
			name:    "block count mismatch",
			mutate:  func(b []byte) []byte { binary.LittleEndian.PutUint32(b[12:], 3); return b },
			wantErr: ErrCorrupt,
		},
		{
			name:    "truncated",
			mutate:  func(b []byte) []byte { return b[:len(b)-1] },
			wantErr: ErrCorrupt,
		},
		{
			name:    "short file",
			mutate:  func(b []byte) []byte { return b[:10] },
			wantErr: ErrCorrupt,
		},
		{
			name: "block count at uint32 limit",
			mutate: func(b []byte) []byte {
				b = b[:HeaderSize+64]
				binary.LittleEndian.PutUint32(b[8:], 1)
				binary.LittleEndian.PutUint32(b[12:], math.MaxUint32)
				binary.LittleEndian.PutUint64(b[16:], math.MaxUint32)
				return b
			},
			wantErr: ErrCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))

			st := memstore.New()
			st.SetFile("t.mb", data)
			ctx := context.Background()
			obj, err := st.Open(ctx, "t.mb")
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}

			_, err = Open(ctx, obj)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("tablefile.Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_CorruptBlock(t *testing.T) {
	data, err := Encode(testValues(100), zstdcodec.New(), 50)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Flip bytes inside the last block.
	for i := len(data) - 4; i < len(data); i++ {
		data[i] ^= 0xff
	}

	tbl := openEncoded(t, data)
	if err := tbl.Verify(context.Background()); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Verify() error = %v, want ErrCorrupt", err)
	}
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil, noopcodec.New(), 16)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(data) != HeaderSize+8 {
		t.Errorf("len = %d, want %d", len(data), HeaderSize+8)
	}

	tbl := openEncoded(t, data)
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
	if _, err := tbl.Read(context.Background(), 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Read() error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestEncodeBlocks_InvalidSize(t *testing.T) {
	if _, err := EncodeBlocks([]byte{1}, noopcodec.New(), 0); err == nil {
		t.Error("EncodeBlocks() with zero block size should return error")
	}
}
