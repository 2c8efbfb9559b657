package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hoptrace/hoptrace/internal/domain"
	"github.com/hoptrace/hoptrace/internal/filter"
	"github.com/hoptrace/hoptrace/internal/output"
	"github.com/hoptrace/hoptrace/internal/replay"
)

var (
	cleanStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	corruptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ReplayCmd replays a captured session and shows where data diverged.
type ReplayCmd struct {
	SessionName string   `arg:"" help:"Name of the session to replay"`
	Device      string   `short:"d" enum:"garmin,apple,strava,all" default:"${config_device}" help:"Device export path to test"`
	Where       []string `short:"w" help:"Filter diffs (e.g. 'type=added', 'path~^metrics') - can be repeated"`
	Verbose     bool     `help:"Show full JSON diff details"`
}

// Run executes the replay command
func (c *ReplayCmd) Run(globals *Globals) error {
	where, err := filter.NewWhereFilter(c.Where)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_WHERE", err.Error())
	}

	globals.Debug("replaying session %s (device=%s)", c.SessionName, c.Device)

	var result domain.ReplayResult
	if c.Device == "" || c.Device == "all" {
		result = replay.ReplaySession(globals.CaptureDir, c.SessionName, globals.Config.Capture.Stages)
	} else {
		result = replay.DevicePathDiffs(globals.CaptureDir, c.SessionName, c.Device)
	}

	if len(result.Snapshots) == 0 {
		known := replay.ListSessions(globals.CaptureDir)
		names := make([]string, 0, len(known))
		for _, s := range known {
			names = append(names, s.Name)
		}
		hint := "available sessions: " + strings.Join(names, ", ")
		if len(names) == 0 {
			hint = "no sessions recorded under " + globals.CaptureDir
		}
		return outputErrorCommon(globals, "SESSION_NOT_FOUND",
			fmt.Sprintf("no snapshots found for session: %s", c.SessionName), hint)
	}

	result.Diffs = where.Apply(result.Diffs)
	result.IsClean = len(result.Diffs) == 0
	if result.IsClean {
		result.FirstCorruptionHop = ""
	}

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteReplayResult(result)
	}

	c.renderText(globals, result)
	return nil
}

func (c *ReplayCmd) renderText(globals *Globals, result domain.ReplayResult) {
	status := "CLEAN"
	if !result.IsClean {
		status = "CORRUPTED"
	}
	if globals.colorized() {
		if result.IsClean {
			status = cleanStyle.Render(status)
		} else {
			status = corruptedStyle.Render(status)
		}
	}

	fmt.Fprintf(globals.Stdout, "Session:   %s\n", result.SessionName)
	fmt.Fprintf(globals.Stdout, "Status:    %s\n", status)
	fmt.Fprintf(globals.Stdout, "Snapshots: %d\n", len(result.Snapshots))
	fmt.Fprintf(globals.Stdout, "Stages:    %s\n", strings.Join(result.StagesSeen(), " -> "))

	if result.FirstCorruptionHop != "" {
		fmt.Fprintf(globals.Stdout, "\nFirst corruption at: %s\n", result.FirstCorruptionHop)
	}

	if len(result.Diffs) == 0 {
		fmt.Fprintln(globals.Stdout, "\nNo differences found - pipeline is clean!")
		return
	}

	fmt.Fprintf(globals.Stdout, "\nFound %d differences:\n", len(result.Diffs))
	output.RenderDiffs(globals.Stdout, result.Diffs)

	if c.Verbose {
		fmt.Fprintln(globals.Stdout, "\nFull JSON diff:")
		dump := map[string]any{
			"session":              result.SessionName,
			"first_corruption_hop": result.FirstCorruptionHop,
			"diffs":                result.Diffs,
		}
		b, err := json.MarshalIndent(dump, "", "  ")
		if err == nil {
			fmt.Fprintln(globals.Stdout, string(b))
		}
	}
}
