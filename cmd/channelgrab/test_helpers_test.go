package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"channelgrab/internal/deobfuscate"
	"channelgrab/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	outputDir  string
	logDir     string
	baseDir    string
	plain      []byte
	server     *httptest.Server
}

type envOption func(*envSettings)

type envSettings struct {
	apiKey  string
	ffmpeg  string
	ffprobe string
}

func withAPIKey(key string) envOption {
	return func(s *envSettings) { s.apiKey = key }
}

func withTools(ffmpeg, ffprobe string) envOption {
	return func(s *envSettings) {
		s.ffmpeg = ffmpeg
		s.ffprobe = ffprobe
	}
}

// setupCLITestEnv starts one httptest server that plays the catalog, the
// CDN and the keystream service, and writes a config pointing at it.
func setupCLITestEnv(t *testing.T, opts ...envOption) *cliTestEnv {
	t.Helper()

	settings := envSettings{apiKey: "test-key", ffmpeg: "ffmpeg", ffprobe: "ffprobe"}
	for _, opt := range opts {
		opt(&settings)
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TIKHUB_API_KEY", "")
	t.Setenv("CHANNELGRAB_DECRYPT_API", "")

	plain := testsupport.Pattern(8192)
	ks := bytes.Repeat([]byte{0x13, 0x37}, 64)
	cipher := append([]byte(nil), plain...)
	deobfuscate.XOR(cipher, ks)

	env := &cliTestEnv{baseDir: base, plain: plain}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/wechat_channels/fetch_user_search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(t, w, []map[string]any{
			{"contact": map[string]any{"username": "alpha@finder", "nickname": "Alpha", "signature": "first\nline"}},
			{"contact": map[string]any{"username": "beta@finder", "nickname": "Beta", "signature": strings.Repeat("长", 50)}},
		})
	})
	mux.HandleFunc("/api/v1/wechat_channels/fetch_home_page", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, map[string]any{
			"object_list": []map[string]any{
				{"id": "111", "createtime": 100, "object_desc": map[string]any{
					"description": "old",
					"media":       []map[string]any{{"url": env.server.URL + "/media/111?t=", "url_token": "a", "decode_key": "1"}},
				}},
				{"id": 222, "createtime": "200", "object_desc": map[string]any{
					"description": "new\nclip",
					"media":       []map[string]any{{"url": env.server.URL + "/media/222?t=", "url_token": "b", "decode_key": 987654}},
				}},
			},
		})
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(cipher)
	})
	mux.HandleFunc("/api/keystream", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DecodeKey string `json:"decode_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DecodeKey != "987654" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"keystream": hex.EncodeToString(ks)})
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	env.outputDir = filepath.Join(base, "output")
	env.logDir = filepath.Join(base, "logs")
	env.configPath = filepath.Join(base, "channelgrab.toml")
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q

[catalog]
api_key = %q
base_url = %q

[keystream]
base_url = %q

[download]
progress = false

[tools]
ffmpeg = %q
ffprobe = %q

[logging]
level = "error"
`, env.outputDir, env.logDir, settings.apiKey, env.server.URL, env.server.URL, settings.ffmpeg, settings.ffprobe)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"code": 200, "data": data}); err != nil {
		t.Errorf("encode envelope: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
