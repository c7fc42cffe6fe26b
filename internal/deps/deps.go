// Package deps resolves the external binaries channelgrab shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"channelgrab/internal/services"
)

// Tool is an external binary together with the config key that overrides it.
type Tool struct {
	Name      string
	Command   string
	ConfigKey string
}

// Status is the outcome of resolving one Tool against PATH.
type Status struct {
	Tool
	// Path is the resolved executable; empty when the tool is unavailable.
	Path   string
	Reason string
}

// Available reports whether the tool resolved to an executable.
func (s Status) Available() bool { return s.Path != "" }

// MediaTools returns ffmpeg and ffprobe with the configured commands.
func MediaTools(ffmpeg, ffprobe string) []Tool {
	return []Tool{
		{Name: "FFmpeg", Command: ffmpeg, ConfigKey: "tools.ffmpeg"},
		{Name: "FFprobe", Command: ffprobe, ConfigKey: "tools.ffprobe"},
	}
}

// Resolve looks every tool up on PATH. Absolute or relative commands are
// checked in place.
func Resolve(tools []Tool) []Status {
	statuses := make([]Status, len(tools))
	for i, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		statuses[i] = Status{Tool: tool}
		if tool.Command == "" {
			statuses[i].Reason = fmt.Sprintf("no command configured (set %s)", tool.ConfigKey)
			continue
		}
		path, err := exec.LookPath(tool.Command)
		if err != nil {
			statuses[i].Reason = fmt.Sprintf("%q not found (install it or set %s)", tool.Command, tool.ConfigKey)
			continue
		}
		statuses[i].Path = path
	}
	return statuses
}

// Unavailable filters statuses down to the tools that failed to resolve.
func Unavailable(statuses []Status) []Status {
	var out []Status
	for _, status := range statuses {
		if !status.Available() {
			out = append(out, status)
		}
	}
	return out
}

// Require resolves tools and returns a setup error naming every one that is
// unavailable.
func Require(tools []Tool) error {
	missing := Unavailable(Resolve(tools))
	if len(missing) == 0 {
		return nil
	}
	parts := make([]string, len(missing))
	for i, status := range missing {
		parts[i] = status.Name + ": " + status.Reason
	}
	return services.Wrap(services.ErrSetup, "tools", "resolve binaries", strings.Join(parts, "; "), nil)
}
