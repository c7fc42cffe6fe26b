package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"channelgrab/internal/config"
	"channelgrab/internal/history"
	"channelgrab/internal/logging"
	"channelgrab/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrSetup, "config", "load", "", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrSetup, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loggerFor returns the process logger, falling back to stderr-only output
// when the log file cannot be opened.
func (c *commandContext) loggerFor(cmd *cobra.Command) *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; logging to stderr only\n", err)
			logger, _ = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		}
		if logger == nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// openRecorder opens the history ledger. A disabled or unreadable ledger
// yields a no-op recorder and a nil close func.
func (c *commandContext) openRecorder(cmd *cobra.Command, cfg *config.Config) (*history.Recorder, func()) {
	logger := c.loggerFor(cmd)
	path := cfg.HistoryPath()
	if path == "" {
		return history.NewRecorder(nil, logger), func() {}
	}
	store, err := history.Open(path)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
		return history.NewRecorder(nil, logger), func() {}
	}
	return history.NewRecorder(store, logger), func() { _ = store.Close() }
}

// newRunContext tags the command context with a fresh run id.
func newRunContext(cmd *cobra.Command) (context.Context, string) {
	runID := uuid.NewString()
	return services.WithRunID(cmd.Context(), runID), runID
}

// skipConfigLoad marks commands that must run before a config file exists.
const skipConfigLoad = "skipConfigLoad"

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
