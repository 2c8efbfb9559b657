package cli

import (
	"github.com/hoptrace/hoptrace/internal/output"
	"github.com/hoptrace/hoptrace/internal/replay"
)

// SessionsCmd lists all capture sessions under the capture directory.
type SessionsCmd struct{}

// Run executes the sessions command
func (c *SessionsCmd) Run(globals *Globals) error {
	globals.Debug("listing sessions under %s", globals.CaptureDir)
	sessions := replay.ListSessions(globals.CaptureDir)

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteSessionList(sessions)
	}

	output.RenderSessions(globals.Stdout, sessions)
	return nil
}
