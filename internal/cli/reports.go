package cli

import (
	"fmt"

	"github.com/hoptrace/hoptrace/internal/analytics"
	"github.com/hoptrace/hoptrace/internal/output"
)

// HealthCmd shows the per-hop health report.
type HealthCmd struct{}

// Run executes the health command
func (c *HealthCmd) Run(globals *Globals) error {
	report := analytics.HealthReport(globals.CaptureDir)

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteHealth(report)
	}

	fmt.Fprintln(globals.Stdout, "=== Pipeline Health ===")
	output.RenderHealth(globals.Stdout, report)
	return nil
}

// TrendsCmd shows the weekly corruption trend report.
type TrendsCmd struct {
	Weeks int `default:"${config_weeks}" help:"Number of weeks to show"`
}

// Run executes the trends command
func (c *TrendsCmd) Run(globals *Globals) error {
	trends := analytics.TrendReport(globals.CaptureDir, c.Weeks)

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteTrends(trends)
	}

	fmt.Fprintln(globals.Stdout, "=== Weekly Corruption Trends ===")
	output.RenderTrends(globals.Stdout, trends)
	return nil
}

// BreakdownCmd shows corruption rates grouped by run tags.
type BreakdownCmd struct{}

// Run executes the breakdown command
func (c *BreakdownCmd) Run(globals *Globals) error {
	report := analytics.BreakdownReport(globals.CaptureDir)

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteBreakdown(report)
	}

	output.RenderBreakdown(globals.Stdout, report)
	return nil
}
