package tablefile

import (
	"encoding/binary"
	"fmt"

	"github.com/discochess/tablebase/internal/codec"
)

// EncodeBlocks splits values into blocks of blockEntries entries and
// compresses each with c.
func EncodeBlocks(values []byte, c codec.Codec, blockEntries int) ([][]byte, error) {
	if blockEntries <= 0 {
		return nil, fmt.Errorf("block entries must be positive, got %d", blockEntries)
	}

	blocks := make([][]byte, 0, (len(values)+blockEntries-1)/blockEntries)
	for start := 0; start < len(values); start += blockEntries {
		end := min(start+blockEntries, len(values))
		enc, err := c.Encode(nil, values[start:end])
		if err != nil {
			return nil, fmt.Errorf("encoding block %d: %w", len(blocks), err)
		}
		blocks = append(blocks, enc)
	}
	return blocks, nil
}

// Encode packs values into a complete table file.
func Encode(values []byte, c codec.Codec, blockEntries int) ([]byte, error) {
	blocks, err := EncodeBlocks(values, c, blockEntries)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:      Version,
		Method:       c.Method(),
		BlockEntries: uint32(blockEntries),
		Blocks:       uint32(len(blocks)),
		Entries:      uint64(len(values)),
	}

	size := h.DataOffset()
	for _, b := range blocks {
		size += int64(len(b))
	}

	out := make([]byte, 0, size)
	out = h.appendBinary(out)

	off := uint64(h.DataOffset())
	out = binary.LittleEndian.AppendUint64(out, off)
	for _, b := range blocks {
		off += uint64(len(b))
		out = binary.LittleEndian.AppendUint64(out, off)
	}
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out, nil
}
