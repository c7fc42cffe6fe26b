package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {}, "placebo": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateCompress(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	if err := validateBaseURL("catalog.base_url", c.Catalog.BaseURL); err != nil {
		return err
	}
	return validateBaseURL("keystream.base_url", c.Keystream.BaseURL)
}

func validateBaseURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}

func (c *Config) validateCompress() error {
	cmp := c.Compress
	if cmp.TargetMB <= 0 {
		return errors.New("compress.target_mb must be positive")
	}
	if cmp.AudioKbps <= 0 {
		return errors.New("compress.audio_kbps must be positive")
	}
	if cmp.Retries < 0 {
		return errors.New("compress.retries must be >= 0")
	}
	if cmp.Safety <= 0 || cmp.Safety > 1 {
		return errors.New("compress.safety must be in (0, 1]")
	}
	if cmp.SafetyDecay <= 0 || cmp.SafetyDecay >= 1 {
		return errors.New("compress.safety_decay must be in (0, 1)")
	}
	if cmp.MinVideoKbps <= 0 {
		return errors.New("compress.min_video_kbps must be positive")
	}
	if cmp.MaxrateHeadroom < 1 {
		return errors.New("compress.maxrate_headroom must be >= 1")
	}
	if _, ok := validPresets[cmp.Preset]; !ok {
		return fmt.Errorf("compress.preset %q is not a known x264 preset", cmp.Preset)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if strings.ContainsAny(c.Audio.Codec, " /\\") {
		return fmt.Errorf("audio.codec %q is not a valid codec name", c.Audio.Codec)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// ValidPreset reports whether name is an x264 preset accepted by compress.preset.
func ValidPreset(name string) bool {
	_, ok := validPresets[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
