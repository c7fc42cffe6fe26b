package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"channelgrab/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "compress", "encode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"compress", "encode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	setupErr := services.Wrap(services.ErrSetup, "preflight", "tools", "ffmpeg missing", nil)
	if code := services.ExitCode(setupErr); code != services.ExitSetupFailure {
		t.Fatalf("expected setup exit code, got %d", code)
	}
	wrapped := fmt.Errorf("outer: %w", setupErr)
	if !services.IsSetup(wrapped) {
		t.Fatal("expected wrapped setup error to be detected")
	}

	runtimeErr := services.Wrap(services.ErrValidation, "select", "latest", "empty", nil)
	if code := services.ExitCode(runtimeErr); code != services.ExitRuntimeFailure {
		t.Fatalf("expected runtime exit code, got %d", code)
	}
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil error, got %d", code)
	}
}
