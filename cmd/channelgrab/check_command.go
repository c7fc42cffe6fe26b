package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"channelgrab/internal/deps"
	"channelgrab/internal/preflight"
	"channelgrab/internal/services"
)

type checkState string

const (
	stateOK    checkState = "OK"
	stateError checkState = "ERROR"
)

var stateColors = map[checkState]text.Color{
	stateOK:    text.FgGreen,
	stateError: text.FgRed,
}

type checkRow struct {
	name   string
	state  checkState
	detail string
}

// checkSection is one titled table in the `check` report.
type checkSection struct {
	title string
	rows  []checkRow
}

func (s checkSection) failures() int {
	n := 0
	for _, row := range s.rows {
		if row.state == stateError {
			n++
		}
	}
	return n
}

func (s checkSection) render(colorize bool) string {
	tw := newTable(s.title, table.Row{"Check", "Status", "Detail"})
	for _, row := range s.rows {
		state := string(row.state)
		if colorize {
			state = stateColors[row.state].Sprint(state)
		}
		tw.AppendRow(table.Row{row.name, state, row.detail})
	}
	return tw.Render()
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check tools, directories, credentials and the keystream service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sections := []checkSection{
				toolSection(preflight.CheckTools(cfg)),
				environmentSection(preflight.RunAll(cmd.Context(), cfg)),
			}
			failed := writeCheckReport(cmd.OutOrStdout(), ctx.configPath, sections)
			if failed > 0 {
				return services.Wrap(services.ErrSetup, "check", "", fmt.Sprintf("%d check(s) failed", failed), nil)
			}
			return nil
		},
	}
}

// writeCheckReport prints every section and returns the number of failed rows.
func writeCheckReport(out io.Writer, configPath string, sections []checkSection) int {
	colorize := isTerminal(out)
	if configPath != "" {
		fmt.Fprintf(out, "Config: %s\n", configPath)
	}
	failed := 0
	for _, section := range sections {
		fmt.Fprintln(out, section.render(colorize))
		failed += section.failures()
	}
	return failed
}

func toolSection(statuses []deps.Status) checkSection {
	section := checkSection{title: "Tools"}
	for _, dep := range statuses {
		if dep.Available() {
			section.rows = append(section.rows, checkRow{name: dep.Name, state: stateOK, detail: dep.Path})
			continue
		}
		section.rows = append(section.rows, checkRow{name: dep.Name, state: stateError, detail: dep.Reason})
	}
	return section
}

func environmentSection(results []preflight.Result) checkSection {
	section := checkSection{title: "Environment"}
	for _, r := range results {
		state := stateOK
		if !r.Passed {
			state = stateError
		}
		section.rows = append(section.rows, checkRow{name: r.Name, state: state, detail: strings.TrimSpace(r.Detail)})
	}
	return section
}
