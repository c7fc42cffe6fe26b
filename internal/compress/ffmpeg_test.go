package compress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"channelgrab/internal/services"
)

func TestFFmpegArgs(t *testing.T) {
	enc := NewFFmpeg()
	job := Job{
		Input:    "in.mp4",
		Output:   "out.mp4",
		Bitrates: Bitrates{VideoK: 1246, MaxrateK: 1333, BufsizeK: 2492, AudioK: 96},
		Preset:   "medium",
	}
	got := strings.Join(enc.Args(job), " ")
	want := "-y -i in.mp4 -c:v libx264 -b:v 1246k -maxrate 1333k -bufsize 2492k -preset medium -c:a aac -b:a 96k -movflags +faststart out.mp4"
	if got != want {
		t.Fatalf("args:\n got %s\nwant %s", got, want)
	}
}

func TestFFmpegEncodeUsesBinary(t *testing.T) {
	var capturedName string
	setHelperCommand(t, "success", &capturedName)

	enc := NewFFmpeg(WithBinary("/opt/ffmpeg"))
	if err := enc.Encode(context.Background(), Job{Input: "a.mp4", Output: "b.mp4", Preset: "fast"}); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if capturedName != "/opt/ffmpeg" {
		t.Fatalf("binary = %q", capturedName)
	}
}

func TestFFmpegEncodeFailureIsExternalTool(t *testing.T) {
	setHelperCommand(t, "failure", nil)

	err := NewFFmpeg().Encode(context.Background(), Job{Input: "a.mp4", Output: "b.mp4", Preset: "fast"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
}

func TestFFmpegEncodeRequiresPaths(t *testing.T) {
	if err := NewFFmpeg().Encode(context.Background(), Job{Output: "b.mp4"}); err == nil {
		t.Fatal("expected error when input missing")
	}
	if err := NewFFmpeg().Encode(context.Background(), Job{Input: "a.mp4"}); err == nil {
		t.Fatal("expected error when output missing")
	}
}

func setHelperCommand(t *testing.T, mode string, capturedName *string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if capturedName != nil {
			*capturedName = name
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "failure":
		fmt.Fprintln(os.Stderr, "Error while opening encoder")
		fmt.Fprintln(os.Stderr, "Conversion failed!")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
