package main

import (
	"encoding/json"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"channelgrab/internal/catalog"
	"channelgrab/internal/history"
	"channelgrab/internal/textutil"
)

const (
	searchListLimit      = 10
	signatureColumnWidth = 60
	pathColumnWidth      = 48
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a rounded table with header; the listed 1-based columns
// are right aligned.
func newTable(title string, header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	tw.AppendHeader(header)
	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, column := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: column, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// renderUsers lists at most searchListLimit accounts with their index, which
// is what --user-index selects.
func renderUsers(users []catalog.UserRecord) string {
	tw := newTable("", table.Row{"#", "Nickname", "Username", "Signature"}, 1)
	for i, u := range users[:min(len(users), searchListLimit)] {
		tw.AppendRow(table.Row{
			i,
			textutil.OneLine(u.Nickname),
			u.Username,
			textutil.TruncateWidth(textutil.OneLine(u.Signature), signatureColumnWidth),
		})
	}
	return tw.Render()
}

func renderHistory(runs []history.Run) string {
	tw := newTable("", table.Row{"Started", "Stage", "Media", "User", "Size", "Output", "Status"}, 5)
	for _, run := range runs {
		size := ""
		if run.SizeBytes > 0 {
			size = humanBytes(run.SizeBytes)
		}
		status := string(run.Status)
		if run.Error != "" {
			status += ": " + textutil.TruncateWidth(textutil.OneLine(run.Error), signatureColumnWidth)
		}
		tw.AppendRow(table.Row{
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Stage),
			run.MediaID,
			run.Username,
			size,
			textutil.TruncateWidth(run.OutputPath, pathColumnWidth),
			status,
		})
	}
	return tw.Render()
}
