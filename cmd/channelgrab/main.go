package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"channelgrab/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(services.ExitCode(err))
	}
}

// formatError renders err for the terminal. Setup errors already carry their
// "setup error:" prefix from the marker.
func formatError(err error) string {
	if services.IsSetup(err) {
		return err.Error()
	}
	return "error: " + err.Error()
}
