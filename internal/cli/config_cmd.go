package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hoptrace/hoptrace/internal/config"
)

// ConfigCmd manages configuration
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show config file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Generate a sample config file"`
}

// ConfigShowCmd shows the current configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		out := map[string]any{
			"type":        "config",
			"capture_dir": cfg.CaptureDir,
			"format":      cfg.Format,
			"quiet":       cfg.Quiet,
			"verbose":     cfg.Verbose,
			"defaults": map[string]any{
				"device":      cfg.Defaults.Device,
				"weeks":       cfg.Defaults.Weeks,
				"viewer_port": cfg.Defaults.ViewerPort,
				"serve_addr":  cfg.Defaults.ServeAddr,
			},
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  capture_dir: %s\n", cfg.CaptureDir)
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet: %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Defaults:")
	fmt.Fprintf(globals.Stdout, "    device: %s\n", cfg.Defaults.Device)
	fmt.Fprintf(globals.Stdout, "    weeks: %d\n", cfg.Defaults.Weeks)
	fmt.Fprintf(globals.Stdout, "    viewer_port: %d\n", cfg.Defaults.ViewerPort)
	fmt.Fprintf(globals.Stdout, "    serve_addr: %s\n", cfg.Defaults.ServeAddr)
	return nil
}

// ConfigPathCmd shows the config file path
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]any{
			"type": "config_path",
			"path": path,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found")
		fmt.Fprintln(globals.Stdout, "Searched: /etc/hoptrace/, ~/.config/hoptrace/, ~/.hoptrace.yaml, ./hoptrace.yaml")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}
	return nil
}

// ConfigGenerateCmd generates a sample config file
type ConfigGenerateCmd struct{}

const sampleConfig = `# hoptrace configuration file
# Place at ~/.hoptrace.yaml or ./hoptrace.yaml

# Directory containing captured sessions
capture_dir: ./captures

# Output format: text or ndjson
format: text

# Suppress non-essential output
quiet: false

# Enable verbose debug logging
verbose: false

defaults:
  # Device export path used by replay: garmin, apple, strava, or all
  device: all

  # Number of weeks shown by trends
  weeks: 8

  # Port the viewer serves on
  viewer_port: 8080

  # Address the demo pipeline server listens on
  serve_addr: ":8600"

capture:
  # Override the (method, path) -> capture point map used by serve.
  # Empty means the built-in pipeline routes.
  routes: []
  #  - method: POST
  #    path: /api/workouts/import/stream
  #    point: web-ingest

  # Override the pipeline stage order used by replay.
  stages: []
`

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
