package gcsstore

import (
	"testing"

	"cloud.google.com/go/storage"

	"github.com/discochess/tablebase/internal/store"
)

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			opt := WithPrefix(tt.input)
			opt(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestWithEndpoint(t *testing.T) {
	s := &Store{}
	WithEndpoint("http://localhost:4443/storage/v1/")(s)
	if len(s.options) != 2 {
		t.Errorf("len(options) = %d, want 2", len(s.options))
	}
}

func TestStore_keys(t *testing.T) {
	s := &Store{prefix: "tb/v1/"}

	if got, want := s.objectKey("kqk_out/kqk_w_0.mb"), "tb/v1/kqk_out/kqk_w_0.mb"; got != want {
		t.Errorf("objectKey() = %q, want %q", got, want)
	}

	tests := []struct {
		dir  string
		want string
	}{
		{"", "tb/v1/"},
		{"/", "tb/v1/"},
		{"kqk_out", "tb/v1/kqk_out/"},
		{"kqk_out/", "tb/v1/kqk_out/"},
	}
	for _, tt := range tests {
		if got := s.dirKey(tt.dir); got != tt.want {
			t.Errorf("dirKey(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestEntryFromAttrs(t *testing.T) {
	tests := []struct {
		name   string
		attrs  *storage.ObjectAttrs
		want   store.Entry
		wantOK bool
	}{
		{
			name:   "prefix",
			attrs:  &storage.ObjectAttrs{Prefix: "tb/kqk_out/"},
			want:   store.Entry{Name: "kqk_out", Dir: true},
			wantOK: true,
		},
		{
			name:   "object",
			attrs:  &storage.ObjectAttrs{Name: "tb/manifest.json"},
			want:   store.Entry{Name: "manifest.json"},
			wantOK: true,
		},
		{
			name:   "folder placeholder",
			attrs:  &storage.ObjectAttrs{Name: "tb/"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := entryFromAttrs("tb/", tt.attrs)
			if ok != tt.wantOK {
				t.Fatalf("entryFromAttrs() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("entryFromAttrs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
