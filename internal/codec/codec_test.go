package codec_test

import (
	"bytes"
	"testing"

	"github.com/discochess/tablebase/internal/codec"
	"github.com/discochess/tablebase/internal/codec/gzipcodec"
	"github.com/discochess/tablebase/internal/codec/noopcodec"
	"github.com/discochess/tablebase/internal/codec/zstdcodec"
)

func codecs() map[codec.Method]codec.Codec {
	return map[codec.Method]codec.Codec{
		codec.MethodNone: noopcodec.New(),
		codec.MethodGzip: gzipcodec.New(),
		codec.MethodZstd: zstdcodec.New(),
	}
}

func TestCodec_Method(t *testing.T) {
	for want, c := range codecs() {
		if got := c.Method(); got != want {
			t.Errorf("Method() = %v, want %v", got, want)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"short":      []byte{0, 1, 2, 255, 254, 0, 0, 7},
		"repetitive": bytes.Repeat([]byte{0, 0, 0, 12}, 16384),
	}

	for method, c := range codecs() {
		for name, original := range inputs {
			t.Run(method.String()+"/"+name, func(t *testing.T) {
				encoded, err := c.Encode(nil, original)
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				decoded, err := c.Decode(nil, encoded)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if !bytes.Equal(decoded, original) {
					t.Errorf("round trip mismatch: got %d bytes, want %d", len(decoded), len(original))
				}
			})
		}
	}
}

func TestCodec_ReusesDestination(t *testing.T) {
	c := zstdcodec.New()
	encoded, err := c.Encode(nil, []byte("block"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	dst := make([]byte, 3, 64)
	decoded, err := c.Decode(dst, encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if string(decoded) != "block" {
		t.Errorf("Decode() = %q, want %q", decoded, "block")
	}
}

func TestCodec_DecodeGarbage(t *testing.T) {
	garbage := []byte("definitely not compressed")
	for _, c := range []codec.Codec{gzipcodec.New(), zstdcodec.New()} {
		if _, err := c.Decode(nil, garbage); err == nil {
			t.Errorf("%v: Decode(garbage) should fail", c.Method())
		}
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    codec.Method
		wantErr bool
	}{
		{"none", codec.MethodNone, false},
		{"", codec.MethodNone, false},
		{"gzip", codec.MethodGzip, false},
		{"GZ", codec.MethodGzip, false},
		{"zstd", codec.MethodZstd, false},
		{"zst", codec.MethodZstd, false},
		{"lz4", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := codec.ParseMethod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
