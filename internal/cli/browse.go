package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hoptrace/hoptrace/internal/tui"
)

// BrowseCmd opens the interactive session browser.
type BrowseCmd struct{}

// Run executes the browse command
func (c *BrowseCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		return outputErrorCommon(globals, "INTERACTIVE_ONLY",
			"browse is interactive and does not support ndjson output",
			"use sessions or replay for machine-readable output")
	}

	program := tea.NewProgram(tui.New(globals.CaptureDir), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return outputErrorCommon(globals, "BROWSE_FAILED", err.Error())
	}
	return nil
}
