// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Duration is the narrow query the transcoder needs; Inspect returns the full
// stream and format listing. Both run the probe binary under the caller's
// context.
package ffprobe
