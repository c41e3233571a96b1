// Package tablefile reads and writes packed MB table files.
//
// A table file is a fixed header, a block offset index and a sequence of
// independently compressed blocks. Every entry is a single byte:
//
//	0       unresolved
//	1..254  distance to conversion
//	255     overflow, the distance is stored in the companion .hi table
//
// Only packed files are readable. The raw one-byte-per-entry tables written
// by the MB generator fail with ErrBadMagic and must first be converted with
// `tablebase pack` (internal/builder), which keeps the directory layout and
// file names.
package tablefile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/discochess/tablebase/internal/codec"
)

const (
	// Magic identifies a packed table file.
	Magic = "MBTB"

	// Version is the only format version understood by this package.
	Version = 1

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = 24

	// DefaultBlockEntries is the default number of entries per block.
	DefaultBlockEntries = 1 << 16
)

// Entry byte values.
const (
	EntryUnresolved byte = 0
	EntryHighDTC    byte = 255
	MaxDTC               = 254
)

var (
	// ErrBadMagic is returned when a file is not a packed table.
	ErrBadMagic = errors.New("tablefile: bad magic")

	// ErrUnsupportedVersion is returned for unknown format versions.
	ErrUnsupportedVersion = errors.New("tablefile: unsupported version")

	// ErrIndexOutOfRange is returned when reading past the last entry.
	ErrIndexOutOfRange = errors.New("tablefile: index out of range")

	// ErrCorrupt is returned when the header, offsets or a block are inconsistent.
	ErrCorrupt = errors.New("tablefile: corrupt table")
)

// Kind classifies a table entry.
type Kind uint8

const (
	// Unresolved means the table holds no decisive result for the position.
	Unresolved Kind = iota
	// DTC means the entry holds a distance to conversion.
	DTC
	// HighDTC means the distance overflowed into the .hi table.
	HighDTC
)

func (k Kind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case DTC:
		return "dtc"
	case HighDTC:
		return "high-dtc"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a decoded table entry.
type Value struct {
	Kind Kind
	DTC  uint8
}

// DecodeEntry converts an entry byte into a Value.
func DecodeEntry(b byte) Value {
	switch b {
	case EntryUnresolved:
		return Value{Kind: Unresolved}
	case EntryHighDTC:
		return Value{Kind: HighDTC}
	default:
		return Value{Kind: DTC, DTC: b}
	}
}

// Byte returns the entry byte for v.
func (v Value) Byte() byte {
	switch v.Kind {
	case DTC:
		return v.DTC
	case HighDTC:
		return EntryHighDTC
	default:
		return EntryUnresolved
	}
}

// Header is the fixed-size table header.
type Header struct {
	Version      uint8
	Method       codec.Method
	BlockEntries uint32
	Blocks       uint32
	Entries      uint64
}

// IndexSize returns the size of the block offset index in bytes.
func (h Header) IndexSize() int64 {
	return (int64(h.Blocks) + 1) * 8
}

// DataOffset returns the offset of the first block.
func (h Header) DataOffset() int64 {
	return HeaderSize + h.IndexSize()
}

// BlockLen returns the number of entries in block b.
func (h Header) BlockLen(b uint32) int {
	start := uint64(b) * uint64(h.BlockEntries)
	end := min(start+uint64(h.BlockEntries), h.Entries)
	return int(end - start)
}

func (h Header) validate() error {
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Entries > 0 && h.BlockEntries == 0 {
		return fmt.Errorf("%w: zero block size", ErrCorrupt)
	}
	var want uint64
	if h.BlockEntries > 0 {
		want = (h.Entries + uint64(h.BlockEntries) - 1) / uint64(h.BlockEntries)
	}
	if uint64(h.Blocks) != want {
		return fmt.Errorf("%w: %d blocks for %d entries", ErrCorrupt, h.Blocks, h.Entries)
	}
	return nil
}

func (h Header) appendBinary(b []byte) []byte {
	b = append(b, Magic...)
	b = append(b, h.Version, byte(h.Method), 0, 0)
	b = binary.LittleEndian.AppendUint32(b, h.BlockEntries)
	b = binary.LittleEndian.AppendUint32(b, h.Blocks)
	b = binary.LittleEndian.AppendUint64(b, h.Entries)
	return b
}

func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(b[:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Version:      b[4],
		Method:       codec.Method(b[5]),
		BlockEntries: binary.LittleEndian.Uint32(b[8:]),
		Blocks:       binary.LittleEndian.Uint32(b[12:]),
		Entries:      binary.LittleEndian.Uint64(b[16:]),
	}
	return h, h.validate()
}
