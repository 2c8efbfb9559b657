package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hoptrace/hoptrace/internal/config"
)

// CLI is the top-level command tree.
type CLI struct {
	CaptureDir string `short:"c" default:"${config_capture_dir}" help:"Directory containing captured sessions"`
	Format     string `enum:"text,ndjson" default:"${config_format}" help:"Output format (text or ndjson)"`
	Quiet      bool   `help:"Suppress non-essential output"`
	Verbose    bool   `help:"Enable verbose debug logging"`

	Sessions  SessionsCmd  `cmd:"" help:"List available capture sessions"`
	Replay    ReplayCmd    `cmd:"" help:"Replay a captured session and show structured diffs"`
	Health    HealthCmd    `cmd:"" help:"Show pipeline health report (per-hop clean rate and latency)"`
	Trends    TrendsCmd    `cmd:"" help:"Show corruption trends over time"`
	Breakdown BreakdownCmd `cmd:"" help:"Show corruption breakdown by workout type, source, and device"`
	Viewer    ViewerCmd    `cmd:"" help:"Generate and serve the interactive trace viewer"`
	Serve     ServeCmd     `cmd:"" help:"Run the demo pipeline server with capture middleware mounted"`
	Browse    BrowseCmd    `cmd:"" help:"Browse captured sessions interactively"`
	Config    ConfigCmd    `cmd:"" help:"Manage configuration"`
}

// Globals carries shared flags and streams into command Run methods.
type Globals struct {
	CaptureDir string
	Format     string
	Quiet      bool
	Verbose    bool
	Stdout     io.Writer
	Stderr     io.Writer
	Config     *config.Config

	logger *debugLogger
}

// NewGlobalsWithConfig builds Globals from parsed flags, falling back to
// config values for anything not set on the command line.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		CaptureDir: c.CaptureDir,
		Format:     c.Format,
		Quiet:      c.Quiet || cfg.Quiet,
		Verbose:    c.Verbose || cfg.Verbose,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Config:     cfg,
	}
	g.logger = newDebugLogger(g.Verbose)
	return g
}

// Debug logs a verbose diagnostic line; a no-op unless --verbose is set.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(format, args...)
	}
}

// colorized reports whether styled output should be emitted: text format
// on a real terminal only.
func (g *Globals) colorized() bool {
	if g.Format != "text" {
		return false
	}
	f, ok := g.Stdout.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
