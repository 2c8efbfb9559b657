package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/hoptrace/hoptrace/internal/analytics"
	"github.com/hoptrace/hoptrace/internal/domain"
	"github.com/hoptrace/hoptrace/internal/replay"
)

// Long diff values are truncated in tables; the full values are available
// via --verbose or ndjson output.
const (
	maxTableDiffs = 50
	maxValueWidth = 50
	maxPathWidth  = 60
)

// RenderSessions writes the session listing table.
func RenderSessions(w io.Writer, sessions []replay.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Session", "Snapshots", "First Capture")
	for _, s := range sessions {
		first := "N/A"
		if !s.FirstCapture.IsZero() {
			first = s.FirstCapture.Format("2006-01-02 15:04")
		}
		table.Append([]string{s.Name, fmt.Sprintf("%d", s.Snapshots), first})
	}
	table.Render()
}

// RenderDiffs writes the hop diff table, capped at maxTableDiffs rows.
func RenderDiffs(w io.Writer, diffs []domain.HopDiff) {
	table := tablewriter.NewWriter(w)
	table.Header("Hop", "Path", "Type", "Old Value", "New Value")
	shown := diffs
	if len(shown) > maxTableDiffs {
		shown = shown[:maxTableDiffs]
	}
	for _, d := range shown {
		table.Append([]string{
			d.HopName,
			truncate(d.Path, maxPathWidth),
			string(d.DiffType),
			formatValue(d.OldValue),
			formatValue(d.NewValue),
		})
	}
	table.Render()
	if len(diffs) > maxTableDiffs {
		fmt.Fprintf(w, "... and %d more (use --verbose for the full dump)\n", len(diffs)-maxTableDiffs)
	}
}

// RenderHealth writes the per-hop health table.
func RenderHealth(w io.Writer, hops []analytics.HopHealth) {
	if len(hops) == 0 {
		fmt.Fprintln(w, "No capture data found.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Hop", "Runs", "Clean", "Clean %", "Avg Latency")
	for _, h := range hops {
		table.Append([]string{
			h.Name,
			fmt.Sprintf("%d", h.TotalRuns),
			fmt.Sprintf("%d", h.CleanRuns),
			fmt.Sprintf("%.1f%%", h.CleanRate()),
			fmt.Sprintf("%.1fms", h.AvgLatencyMS),
		})
	}
	table.Render()
}

// RenderTrends writes the weekly corruption trend table.
func RenderTrends(w io.Writer, trends []analytics.WeeklyTrend) {
	if len(trends) == 0 {
		fmt.Fprintln(w, "No capture data found.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Week Starting", "Total Runs", "Corrupt", "Corruption %")
	for _, t := range trends {
		table.Append([]string{
			t.WeekStart,
			fmt.Sprintf("%d", t.TotalRuns),
			fmt.Sprintf("%d", t.CorruptRuns),
			fmt.Sprintf("%.1f%%", t.CorruptionRate()),
		})
	}
	table.Render()
}

// RenderBreakdown writes one table per tag dimension.
func RenderBreakdown(w io.Writer, b analytics.Breakdown) {
	renderGroup(w, "Corruption by Workout Type", b.ByType)
	renderGroup(w, "Corruption by Source", b.BySource)
	renderGroup(w, "Corruption by Device", b.ByDevice)
}

func renderGroup(w io.Writer, title string, stats []analytics.GroupStat) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	if len(stats) == 0 {
		fmt.Fprintln(w, "No data")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Group", "Total", "Corrupt", "Rate")
	for _, g := range stats {
		table.Append([]string{
			g.Label,
			fmt.Sprintf("%d", g.TotalRuns),
			fmt.Sprintf("%d", g.CorruptRuns),
			fmt.Sprintf("%.1f%%", g.CorruptionRate()),
		})
	}
	table.Render()
}

// formatValue renders a diff value for a table cell. Added/removed entries
// carry no values and show as N/A.
func formatValue(v any) string {
	if v == nil {
		return "N/A"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return truncate(fmt.Sprintf("%v", v), maxValueWidth)
	}
	return truncate(string(b), maxValueWidth)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// FormatTimestamp renders a snapshot timestamp for human output.
func FormatTimestamp(ts float64) string {
	if ts == 0 {
		return "N/A"
	}
	return time.Unix(int64(ts), 0).Format("2006-01-02 15:04:05")
}
