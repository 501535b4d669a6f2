package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pankaj-dahiya-devops/orginv/internal/models"
)

// KindInfo describes one registered resource kind for RenderKinds.
type KindInfo struct {
	Kind       string `json:"kind"`
	Global     bool   `json:"global"`
	MaxRetries int    `json:"max_retries"`
	Columns    int    `json:"columns"`
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// RenderSummary writes the run summary to w, followed by tables of skipped
// accounts and failed regions when there are any.
func RenderSummary(w io.Writer, res *models.RunResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(res.Message)
	tw.AppendRows([]table.Row{
		{"Run ID", res.RunID},
		{"Accounts processed", res.AccountsProcessed},
		{"Successful collections", fmt.Sprintf("%d / %d", res.SuccessfulUnits, res.TotalUnits)},
		{"Rows", res.Stats.TotalRows},
		{"Archive size (MB)", strconv.FormatFloat(res.ArchiveSizeMB, 'f', 1, 64)},
		{"Duration (s)", strconv.FormatFloat(res.DurationSeconds, 'f', 1, 64)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	tw.Render()

	if len(res.Stats.AccountsSkipped) > 0 {
		st := table.NewWriter()
		st.SetOutputMirror(w)
		st.SetStyle(table.StyleRounded)
		st.SetTitle("Skipped accounts")
		st.AppendHeader(table.Row{"Account", "Reason"})
		for _, s := range res.Stats.AccountsSkipped {
			st.AppendRow(table.Row{s.AccountID, ShortenMessage(s.Reason, 80)})
		}
		st.Render()
	}

	if len(res.Stats.RegionFailures) > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(w)
		ft.SetStyle(table.StyleRounded)
		ft.SetTitle("Failed collections")
		ft.AppendHeader(table.Row{"Account", "Kind", "Region", "Error"})
		for _, f := range res.Stats.RegionFailures {
			ft.AppendRow(table.Row{f.AccountID, f.Kind, f.Region, ShortenMessage(f.Error, 60)})
		}
		ft.Render()
	}

	if len(res.Stats.UnknownKinds) > 0 {
		fmt.Fprintf(w, "Unknown resource kinds (skipped): %v\n", res.Stats.UnknownKinds)
	}
}

// RenderKinds writes the resource-kind registry as a table.
func RenderKinds(w io.Writer, kinds []KindInfo) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Kind", "Scope", "Max retries", "Columns"})
	for _, k := range kinds {
		scope := "regional"
		if k.Global {
			scope = "global"
		}
		tw.AppendRow(table.Row{k.Kind, scope, k.MaxRetries, k.Columns})
	}
	tw.Render()
}
