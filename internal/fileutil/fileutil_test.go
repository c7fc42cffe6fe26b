package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWithSuffix(t *testing.T) {
	tests := []struct {
		path, suffix, ext, want string
	}{
		{"/v/clip.mp4", "_compressed", "", "/v/clip_compressed.mp4"},
		{"/v/clip.mp4", "", ".m4a", "/v/clip.m4a"},
		{"/v/clip", "_x", "", "/v/clip_x"},
		{"/v/a.b.mov", "_compressed", ".mp4", "/v/a.b_compressed.mp4"},
	}
	for _, tc := range tests {
		if got := WithSuffix(tc.path, tc.suffix, tc.ext); got != tc.want {
			t.Errorf("WithSuffix(%q, %q, %q) = %q, want %q", tc.path, tc.suffix, tc.ext, got, tc.want)
		}
	}
}

func TestSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, make([]byte, 1234), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := Size(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != 1234 {
		t.Fatalf("size = %d, want 1234", size)
	}
	if _, err := Size(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	err := RequireFile(filepath.Join(dir, "missing.mp4"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if err := RequireFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	path := filepath.Join(dir, "present.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RequireFile(path); err != nil {
		t.Fatalf("RequireFile returned error: %v", err)
	}
}

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(path, []byte("old content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}
