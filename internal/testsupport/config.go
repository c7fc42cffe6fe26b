package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"channelgrab/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns the default configuration rooted in a fresh temp
// directory: output under <tmp>/output, logs and history under <tmp>/logs.
// The API key is a placeholder and the progress bar is off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Catalog.APIKey = "test"
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.History.Path = filepath.Join(cfg.Paths.LogDir, "history.db")
	cfg.Download.Progress = false

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// WithCatalog points the catalog client at baseURL using key.
func WithCatalog(baseURL, key string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Catalog.BaseURL = baseURL
		cfg.Catalog.APIKey = key
	}
}

// WithKeystream points the keystream client at baseURL.
func WithKeystream(baseURL string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) {
		cfg.Keystream.BaseURL = baseURL
	}
}

// WithStubbedBinaries installs no-op ffmpeg and ffprobe executables on a
// private PATH entry for the lifetime of the test.
func WithStubbedBinaries() ConfigOption {
	return func(t testing.TB, _ *config.Config) {
		t.Helper()
		bin := t.TempDir()
		for _, name := range []string{"ffmpeg", "ffprobe"} {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
