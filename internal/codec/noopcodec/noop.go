// Package noopcodec provides a codec that stores blocks uncompressed.
package noopcodec

import (
	"github.com/discochess/tablebase/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements no compression.
type Codec struct{}

// New returns a new no-op codec.
func New() *Codec {
	return &Codec{}
}

// Method returns codec.MethodNone.
func (c *Codec) Method() codec.Method {
	return codec.MethodNone
}

// Encode copies src.
func (c *Codec) Encode(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}

// Decode copies src.
func (c *Codec) Decode(dst, src []byte) ([]byte, error) {
	return append(dst[:0], src...), nil
}
