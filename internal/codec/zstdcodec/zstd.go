// Package zstdcodec provides a zstd block codec.
package zstdcodec

import (
	"github.com/klauspost/compress/zstd"

	"github.com/discochess/tablebase/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression. The encoder and decoder are shared and
// safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New returns a new zstd codec.
func New() *Codec {
	// Neither constructor fails with these options.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic(err)
	}
	return &Codec{enc: enc, dec: dec}
}

// Method returns codec.MethodZstd.
func (c *Codec) Method() codec.Method {
	return codec.MethodZstd
}

// Encode compresses src.
func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, dst[:0]), nil
}

// Decode decompresses src.
func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return c.dec.DecodeAll(src, dst[:0])
}
