package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/hoptrace/hoptrace/internal/cli"
	"github.com/hoptrace/hoptrace/internal/config"
)

const quickStart = `hoptrace - capture and replay pipeline snapshots to find where data corrupts

Quick start:
  hoptrace serve                        Run the demo pipeline with capture mounted
  hoptrace sessions                     List recorded sessions
  hoptrace replay my-session            Show where data diverged, hop by hop
  hoptrace health                       Per-hop clean rate and latency

For help:
  hoptrace --help                       All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_capture_dir": cfg.CaptureDir,
		"config_format":      cfg.Format,
		"config_device":      cfg.Defaults.Device,
		"config_weeks":       strconv.Itoa(cfg.Defaults.Weeks),
		"config_viewer_port": strconv.Itoa(cfg.Defaults.ViewerPort),
		"config_serve_addr":  cfg.Defaults.ServeAddr,
	}

	ctx := kong.Parse(&c,
		kong.Name("hoptrace"),
		kong.Description("Capture pipeline snapshots per request, then replay them to localize the first corrupting hop"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	// Create globals with config fallbacks
	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
