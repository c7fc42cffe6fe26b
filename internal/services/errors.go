package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrSetup         = errors.New("setup error")
)

const (
	// ExitRuntimeFailure is the process exit code for pipeline failures.
	ExitRuntimeFailure = 1
	// ExitSetupFailure is the process exit code for environment problems
	// detected before any pipeline work started.
	ExitSetupFailure = 2
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsSetup reports whether err was raised by an environment check rather than
// by the pipeline itself.
func IsSetup(err error) bool {
	return errors.Is(err, ErrSetup)
}

// ExitCode maps an error to the CLI exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsSetup(err):
		return ExitSetupFailure
	default:
		return ExitRuntimeFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
