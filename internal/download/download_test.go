package download_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"channelgrab/internal/download"
	"channelgrab/internal/testsupport"
)

func TestDownloadWritesBody(t *testing.T) {
	payload := testsupport.Pattern(3*download.ChunkSize + 17)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "clip_encrypted.mp4")
	written, err := download.New().Download(context.Background(), server.URL+"/v?token=abc", dest)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if written != int64(len(payload)) {
		t.Fatalf("written = %d, want %d", written, len(payload))
	}
	if got := testsupport.ReadBytes(t, dest); !bytes.Equal(got, payload) {
		t.Fatal("downloaded content mismatch")
	}
}

func TestDownloadOverwritesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteBytes(t, dest, []byte("previous longer content"))
	if _, err := download.New().Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if got := string(testsupport.ReadBytes(t, dest)); got != "new" {
		t.Fatalf("content = %q", got)
	}
}

func TestDownloadBadStatusDoesNotCreateFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	_, err := download.New().Download(context.Background(), server.URL+"/v?token=secret", dest)
	var transferErr *download.TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if transferErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d", transferErr.StatusCode)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks url token: %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("expected destination to be absent, stat err = %v", statErr)
	}
}

func TestDownloadInterruptedLeavesPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("0123456789"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	written, err := download.New().Download(context.Background(), server.URL, dest)
	var transferErr *download.TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected TransferError, got %v", err)
	}
	if written != 10 || transferErr.Written != 10 {
		t.Fatalf("expected 10 bytes written, got %d / %d", written, transferErr.Written)
	}
	if got := string(testsupport.ReadBytes(t, dest)); got != "0123456789" {
		t.Fatalf("partial content = %q", got)
	}
}

func TestDownloadWithProgress(t *testing.T) {
	payload := testsupport.Pattern(2 * download.ChunkSize)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	var progress bytes.Buffer
	dest := filepath.Join(t.TempDir(), "clip.mp4")
	written, err := download.New(download.WithProgress(&progress)).Download(context.Background(), server.URL, dest)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if written != int64(len(payload)) {
		t.Fatalf("written = %d", written)
	}
}

func TestDownloadCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := download.New().Download(ctx, server.URL, filepath.Join(t.TempDir(), "clip.mp4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
