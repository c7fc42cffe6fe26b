// Package config loads, normalizes, and validates channelgrab configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TIKHUB_API_KEY and CHANNELGRAB_DECRYPT_API. The Config type centralizes every
// knob the CLI needs, so output directories, service endpoints, and transcode
// defaults are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
