package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Catalog contains configuration for the TikHub catalog API.
type Catalog struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Keystream contains configuration for the local decryption service.
type Keystream struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Download contains configuration for streaming media downloads.
type Download struct {
	HeaderTimeoutSeconds int  `toml:"header_timeout_seconds"`
	Progress             bool `toml:"progress"`
}

// Compress contains the size-targeted transcode defaults.
type Compress struct {
	TargetMB        float64 `toml:"target_mb"`
	AudioKbps       int     `toml:"audio_kbps"`
	Preset          string  `toml:"preset"`
	Retries         int     `toml:"retries"`
	Safety          float64 `toml:"safety"`
	SafetyDecay     float64 `toml:"safety_decay"`
	MinVideoKbps    int     `toml:"min_video_kbps"`
	MaxrateHeadroom float64 `toml:"maxrate_headroom"`
	VideoCodec      string  `toml:"video_codec"`
	AudioCodec      string  `toml:"audio_codec"`
}

// Audio contains defaults for audio extraction.
type Audio struct {
	Codec       string `toml:"codec"`
	BitrateKbps int    `toml:"bitrate_kbps"`
}

// Tools names the external binaries the pipeline shells out to.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for channelgrab.
//
// Configuration sections by subsystem:
//   - Paths: output and log directories
//   - Catalog: TikHub API credentials and endpoint
//   - Keystream: local decryption service endpoint
//   - Download: streaming download behaviour
//   - Compress: target size transcode defaults
//   - Audio: audio extraction defaults
//   - Tools: ffmpeg/ffprobe binaries
//   - History: SQLite run ledger
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Catalog   Catalog   `toml:"catalog"`
	Keystream Keystream `toml:"keystream"`
	Download  Download  `toml:"download"`
	Compress  Compress  `toml:"compress"`
	Audio     Audio     `toml:"audio"`
	Tools     Tools     `toml:"tools"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/channelgrab/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("channelgrab.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireCatalogKey reports a descriptive error when no TikHub API key is available.
// Only commands that talk to the catalog call it.
func (c *Config) RequireCatalogKey() error {
	if strings.TrimSpace(c.Catalog.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/channelgrab/config.toml"
	}
	return fmt.Errorf("catalog.api_key is required. Set TIKHUB_API_KEY env var, pass --api-key, or edit %s (create with 'channelgrab config init')", defaultPath)
}

// CatalogTimeout returns the request timeout for catalog calls.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// KeystreamTimeout returns the request timeout for keystream calls.
func (c *Config) KeystreamTimeout() time.Duration {
	return time.Duration(c.Keystream.TimeoutSeconds) * time.Second
}

// DownloadHeaderTimeout returns how long a download may wait for response headers.
func (c *Config) DownloadHeaderTimeout() time.Duration {
	return time.Duration(c.Download.HeaderTimeoutSeconds) * time.Second
}

// HistoryPath returns the SQLite ledger location, or "" when history is disabled.
func (c *Config) HistoryPath() string {
	if !c.History.Enabled {
		return ""
	}
	return c.History.Path
}

// FFmpegBinary returns the ffmpeg executable used for encoding and audio extraction.
func (c *Config) FFmpegBinary() string {
	return c.Tools.FFmpeg
}

// FFprobeBinary returns the ffprobe executable used for duration probing.
func (c *Config) FFprobeBinary() string {
	return c.Tools.FFprobe
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ErrConfigExists is returned by CreateSample when the target is already
// present and overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// CreateSample writes the annotated sample configuration to path, creating
// parent directories. An existing file is replaced only when overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		_ = file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Catalog.APIKey != "" {
		redacted.Catalog.APIKey = "<redacted>"
	}
	return toml.Marshal(redacted)
}
