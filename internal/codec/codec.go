// Package codec provides compression and decompression for table blocks.
package codec

import (
	"fmt"
	"strings"
)

// Method identifies a compression method in a table file header.
type Method uint8

const (
	MethodNone Method = iota
	MethodGzip
	MethodZstd
)

func (m Method) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodGzip:
		return "gzip"
	case MethodZstd:
		return "zstd"
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// ParseMethod parses a method name as printed by Method.String.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return MethodNone, nil
	case "gzip", "gz":
		return MethodGzip, nil
	case "zstd", "zst":
		return MethodZstd, nil
	}
	return 0, fmt.Errorf("unknown compression method %q", name)
}

// Codec compresses and decompresses whole blocks.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Method returns the header identifier of the codec.
	Method() Method
	// Encode appends the compressed form of src to dst[:0].
	Encode(dst, src []byte) ([]byte, error)
	// Decode appends the decompressed form of src to dst[:0].
	Decode(dst, src []byte) ([]byte, error)
}
