package keystream_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"channelgrab/internal/keystream"
)

func newServer(t *testing.T, handler http.HandlerFunc) *keystream.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return keystream.New(server.URL + "/")
}

func TestFetchDecodesHex(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/keystream" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["decode_key"] != "123456" {
			t.Errorf("unexpected decode_key %q", body["decode_key"])
		}
		_, _ = w.Write([]byte(`{"keystream":"00ff10AB"}`))
	})

	ks, err := client.Fetch(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !bytes.Equal(ks, []byte{0x00, 0xff, 0x10, 0xab}) || ks.Len() != 4 {
		t.Fatalf("unexpected keystream %x", []byte(ks))
	}
}

func TestFetchFailuresAreUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing field", http.StatusOK, `{"error":"unknown key"}`},
		{"empty field", http.StatusOK, `{"keystream":""}`},
		{"bad hex", http.StatusOK, `{"keystream":"zz"}`},
		{"odd hex", http.StatusOK, `{"keystream":"abc"}`},
		{"not json", http.StatusOK, `<html>`},
		{"server error", http.StatusInternalServerError, `boom`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.Fetch(context.Background(), "key")
			if !errors.Is(err, keystream.ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestFetchUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := keystream.New(url).Fetch(context.Background(), "key")
	if !errors.Is(err, keystream.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchRequiresDecodeKey(t *testing.T) {
	if _, err := keystream.New("").Fetch(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty decode key")
	}
}

func TestNewDefaultsBaseURL(t *testing.T) {
	if got := keystream.New("").BaseURL(); got != keystream.DefaultBaseURL {
		t.Fatalf("BaseURL = %q", got)
	}
}
