package diskstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/discochess/tablebase/internal/store"
)

func TestStore_ReadDir(t *testing.T) {
	dir := t.TempDir()

	tableDir := filepath.Join(dir, "kqk_out")
	if err := os.MkdirAll(tableDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(tableDir, "kqk_w_0.mb"), []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Symlink(tableDir, filepath.Join(dir, "krk_out")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	entries, err := s.ReadDir(ctx, "")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	want := []store.Entry{
		{Name: "README", Dir: false},
		{Name: "kqk_out", Dir: true},
		{Name: "krk_out", Dir: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("ReadDir() = %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	files, err := s.ReadDir(ctx, "kqk_out")
	if err != nil {
		t.Fatalf("ReadDir(kqk_out) error = %v", err)
	}
	if len(files) != 1 || files[0].Name != "kqk_w_0.mb" || files[0].Dir {
		t.Errorf("ReadDir(kqk_out) = %v", files)
	}
}

func TestStore_ReadDirNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = s.ReadDir(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ReadDir() error = %v, want ErrNotFound", err)
	}
}

func TestStore_OpenReadRange(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "table"), []byte("0123456789"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	obj, err := s.Open(ctx, "table")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer obj.Close()

	if obj.Size() != 10 {
		t.Errorf("Size() = %d, want 10", obj.Size())
	}

	got, err := obj.ReadRange(ctx, 3, 4)
	if err != nil {
		t.Fatalf("ReadRange() error = %v", err)
	}
	if string(got) != "3456" {
		t.Errorf("ReadRange() = %q, want %q", got, "3456")
	}

	if _, err := obj.ReadRange(ctx, 8, 4); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadRange() past end error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestStore_OpenNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = s.Open(context.Background(), "kqk_out/kqk_w_0.mb")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path")
	if err == nil {
		t.Error("New() with invalid path should return error")
	}
}

func TestNew_NotDirectory(t *testing.T) {
	// Create a file, not a directory.
	f, err := os.CreateTemp("", "test")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	defer os.Remove(f.Name())

	_, err = New(f.Name())
	if err == nil {
		t.Error("New() with file (not directory) should return error")
	}
}
