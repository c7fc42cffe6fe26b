package compress

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"channelgrab/internal/services"
)

var commandContext = exec.CommandContext

// Job is one encoder invocation.
type Job struct {
	Input    string
	Output   string
	Bitrates Bitrates
	Preset   string
}

// Encoder produces Job.Output from Job.Input at the requested bitrates.
type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

// FFmpegOption configures the ffmpeg encoder.
type FFmpegOption func(*FFmpeg)

// WithBinary overrides the default binary name.
func WithBinary(binary string) FFmpegOption {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithCodecs overrides the video and audio codecs.
func WithCodecs(video, audio string) FFmpegOption {
	return func(f *FFmpeg) {
		if video != "" {
			f.videoCodec = video
		}
		if audio != "" {
			f.audioCodec = audio
		}
	}
}

// FFmpeg wraps the ffmpeg command-line encoder.
type FFmpeg struct {
	binary     string
	videoCodec string
	audioCodec string
}

var _ Encoder = (*FFmpeg)(nil)

// NewFFmpeg constructs an encoder using libx264 video and AAC audio.
func NewFFmpeg(opts ...FFmpegOption) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", videoCodec: "libx264", audioCodec: "aac"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Args builds the ffmpeg argument list for job.
func (f *FFmpeg) Args(job Job) []string {
	kbps := func(v int64) string { return strconv.FormatInt(v, 10) + "k" }
	return []string{
		"-y",
		"-i", job.Input,
		"-c:v", f.videoCodec,
		"-b:v", kbps(job.Bitrates.VideoK),
		"-maxrate", kbps(job.Bitrates.MaxrateK),
		"-bufsize", kbps(job.Bitrates.BufsizeK),
		"-preset", job.Preset,
		"-c:a", f.audioCodec,
		"-b:a", kbps(job.Bitrates.AudioK),
		"-movflags", "+faststart",
		job.Output,
	}
}

// Encode runs ffmpeg for job. A non-zero exit is reported as an external tool
// failure carrying the tail of ffmpeg's output.
func (f *FFmpeg) Encode(ctx context.Context, job Job) error {
	if job.Input == "" {
		return errors.New("input path required")
	}
	if job.Output == "" {
		return errors.New("output path required")
	}
	cmd := commandContext(ctx, f.binary, f.Args(job)...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "compress", "ffmpeg encode", tail(string(output)), err)
	}
	return nil
}

func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
