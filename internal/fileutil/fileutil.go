package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WithSuffix derives a sibling path by appending suffix to the file stem. When
// ext is empty the original extension is kept.
//
//	WithSuffix("/v/clip.mp4", "_compressed", "")  -> /v/clip_compressed.mp4
//	WithSuffix("/v/clip.mp4", "", ".m4a")         -> /v/clip.m4a
func WithSuffix(path, suffix, ext string) string {
	origExt := filepath.Ext(path)
	stem := strings.TrimSuffix(path, origExt)
	if ext == "" {
		ext = origExt
	}
	return stem + suffix + ext
}

// Size returns the size in bytes of the regular file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

// RequireFile returns an error wrapping os.ErrNotExist when path is missing,
// and a descriptive error when it names a directory.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file not found: %s: %w", path, os.ErrNotExist)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("expected a file but found a directory: %s", path)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
