package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"channelgrab/internal/fileutil"
	"channelgrab/internal/media/ffprobe"
)

const (
	// DefaultCodec is used when Request.Codec is empty.
	DefaultCodec = "aac"
	// DefaultBitrateKbps is used when Request.BitrateKbps is not positive.
	DefaultBitrateKbps = 128
)

// ErrNoAudioStream is returned when the probe finds no audio stream in the input.
var ErrNoAudioStream = errors.New("input has no audio stream")

// commandContext and inspect are swapped out by tests.
var (
	commandContext = exec.CommandContext
	inspect        = ffprobe.Inspect
)

var codecExtensions = map[string]string{
	"aac":  ".m4a",
	"mp3":  ".mp3",
	"flac": ".flac",
	"opus": ".opus",
}

// Request describes one extraction.
type Request struct {
	Input       string
	Output      string
	Codec       string
	BitrateKbps int
	// FFmpeg and FFprobe name the binaries. An empty FFprobe skips the
	// audio stream check.
	FFmpeg  string
	FFprobe string
}

// ExtensionFor maps an audio codec to its conventional file extension,
// falling back to .m4a.
func ExtensionFor(codec string) string {
	if ext, ok := codecExtensions[strings.ToLower(strings.TrimSpace(codec))]; ok {
		return ext
	}
	return ".m4a"
}

// DefaultOutput returns input with its extension replaced by the one for codec.
func DefaultOutput(input, codec string) string {
	return fileutil.WithSuffix(input, "", ExtensionFor(codec))
}

// Extract runs ffmpeg to write the audio of req.Input to req.Output (or the
// codec's default path) and returns the output path. Existing output is
// overwritten.
func Extract(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Input) == "" {
		return "", errors.New("extract audio: input path required")
	}
	if err := fileutil.RequireFile(req.Input); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	codec := strings.TrimSpace(req.Codec)
	if codec == "" {
		codec = DefaultCodec
	}
	bitrate := req.BitrateKbps
	if bitrate <= 0 {
		bitrate = DefaultBitrateKbps
	}
	output := strings.TrimSpace(req.Output)
	if output == "" {
		output = DefaultOutput(req.Input, codec)
	}

	if req.FFprobe != "" {
		probe, err := inspect(ctx, req.FFprobe, req.Input)
		if err != nil {
			return "", fmt.Errorf("extract audio: %w", err)
		}
		if probe.AudioStreamCount() == 0 {
			return "", fmt.Errorf("extract audio: %s: %w", req.Input, ErrNoAudioStream)
		}
	}

	binary := strings.TrimSpace(req.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := commandContext(ctx, binary, Args(req.Input, output, codec, bitrate)...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ffmpeg extract: %w: %s", err, tail(string(out)))
	}
	return output, nil
}

// Args builds the ffmpeg argument list for an extraction.
func Args(input, output, codec string, bitrateKbps int) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-c:a", codec,
		"-b:a", strconv.Itoa(bitrateKbps) + "k",
		output,
	}
}

// tail keeps the last few lines of ffmpeg output, which carry the actual error.
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}
