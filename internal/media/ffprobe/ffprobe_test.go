package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestAudioStreamCount(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}, {CodecType: "audio"}, {CodecType: "AUDIO"}}}
	if got := result.AudioStreamCount(); got != 2 {
		t.Fatalf("AudioStreamCount = %d, want 2", got)
	}
	if got := (Result{}).AudioStreamCount(); got != 0 {
		t.Fatalf("empty result AudioStreamCount = %d", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		invalid bool
	}{
		{"valid", `{"format":{"duration":"300.500000"}}`, 300.5, false},
		{"zero", `{"format":{"duration":"0.000000"}}`, 0, true},
		{"negative", `{"format":{"duration":"-4"}}`, 0, true},
		{"missing", `{"format":{}}`, 0, true},
		{"na", `{"format":{"duration":"N/A"}}`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDuration([]byte(tc.payload))
			if tc.invalid {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Fatalf("expected ErrInvalidDuration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("duration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDurationRunsProbe(t *testing.T) {
	var captured []string
	setHelperCommand(t, "duration", &captured)

	got, err := Duration(context.Background(), "/opt/ffprobe", "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 42.25 {
		t.Fatalf("duration = %v", got)
	}
	want := []string{"/opt/ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "json", "/media/clip.mp4"}
	if fmt.Sprint(captured) != fmt.Sprint(want) {
		t.Fatalf("args = %v, want %v", captured, want)
	}
}

func TestDurationProbeFailure(t *testing.T) {
	setHelperCommand(t, "failure", nil)
	if _, err := Duration(context.Background(), "", "/media/clip.mp4"); err == nil {
		t.Fatal("expected error when ffprobe fails")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectParsesStreams(t *testing.T) {
	setHelperCommand(t, "inspect", nil)
	result, err := Inspect(context.Background(), "ffprobe", "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if len(result.Streams) != 2 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected streams: %+v", result.Streams)
	}
	if result.Format.Duration != "10.0" {
		t.Fatalf("unexpected format: %+v", result.Format)
	}
}

func setHelperCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE="+mode)
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

	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "duration":
		fmt.Println(`{"format":{"duration":"42.250000"}}`)
		os.Exit(0)
	case "inspect":
		fmt.Println(`{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio"}],"format":{"duration":"10.0"}}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "clip.mp4: Invalid data found when processing input")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
