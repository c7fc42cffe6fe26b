package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrInvalidDuration is returned when a file reports no positive duration.
var ErrInvalidDuration = errors.New("invalid media duration")

// commandContext is swapped out by tests.
var commandContext = exec.CommandContext

// Result is the subset of `ffprobe -of json` output channelgrab reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one entry of the streams array.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Channels  int    `json:"channels"`
}

// Format is the container section.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// Inspect lists the streams and container format of path.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	output, err := probe(ctx, binary, path, "-show_format", "-show_streams")
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds. A missing,
// unparsable or non-positive value yields ErrInvalidDuration.
func Duration(ctx context.Context, binary, path string) (float64, error) {
	output, err := probe(ctx, binary, path, "-show_entries", "format=duration")
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	return parseDuration(output)
}

func parseDuration(output []byte) (float64, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	raw := strings.TrimSpace(result.Format.Duration)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return seconds, nil
}

// probe runs `ffprobe -v error <query> -of json <path>` and returns stdout.
func probe(ctx context.Context, binary, path string, query ...string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty path")
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	args := append([]string{"-v", "error"}, query...)
	args = append(args, "-of", "json", path)

	cmd := commandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// AudioStreamCount returns how many audio streams the file carries.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}
