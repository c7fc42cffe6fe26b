package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeKeystream()
	c.normalizeCompress()
	c.normalizeAudio()
	c.normalizeTools()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if c.Catalog.APIKey == "" {
		if value, ok := os.LookupEnv(EnvAPIKey); ok {
			c.Catalog.APIKey = strings.TrimSpace(value)
		}
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
}

func (c *Config) normalizeKeystream() {
	if value, ok := os.LookupEnv(EnvKeystreamURL); ok && strings.TrimSpace(value) != "" {
		if c.Keystream.BaseURL == "" || c.Keystream.BaseURL == defaultKeystreamBaseURL {
			c.Keystream.BaseURL = value
		}
	}
	c.Keystream.BaseURL = strings.TrimRight(strings.TrimSpace(c.Keystream.BaseURL), "/")
	if c.Keystream.BaseURL == "" {
		c.Keystream.BaseURL = defaultKeystreamBaseURL
	}
	if c.Keystream.TimeoutSeconds <= 0 {
		c.Keystream.TimeoutSeconds = defaultKeystreamTimeout
	}
	if c.Download.HeaderTimeoutSeconds <= 0 {
		c.Download.HeaderTimeoutSeconds = defaultDownloadHeaderWait
	}
}

func (c *Config) normalizeCompress() {
	c.Compress.Preset = strings.ToLower(strings.TrimSpace(c.Compress.Preset))
	if c.Compress.Preset == "" {
		c.Compress.Preset = defaultPreset
	}
	c.Compress.VideoCodec = strings.TrimSpace(c.Compress.VideoCodec)
	if c.Compress.VideoCodec == "" {
		c.Compress.VideoCodec = defaultVideoCodec
	}
	c.Compress.AudioCodec = strings.TrimSpace(c.Compress.AudioCodec)
	if c.Compress.AudioCodec == "" {
		c.Compress.AudioCodec = defaultAudioCodec
	}
	if c.Compress.SafetyDecay == 0 {
		c.Compress.SafetyDecay = defaultSafetyDecay
	}
	if c.Compress.MaxrateHeadroom == 0 {
		c.Compress.MaxrateHeadroom = defaultMaxrateHeadroom
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Codec = strings.ToLower(strings.TrimSpace(c.Audio.Codec))
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultExtractAudioCodec
	}
	if c.Audio.BitrateKbps <= 0 {
		c.Audio.BitrateKbps = defaultExtractAudioKbps
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, historyFileName)
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
