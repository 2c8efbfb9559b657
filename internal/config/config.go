package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	CaptureDir string `mapstructure:"capture_dir"`
	Format     string `mapstructure:"format"`
	Quiet      bool   `mapstructure:"quiet"`
	Verbose    bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`

	// Capture middleware settings
	Capture CaptureConfig `mapstructure:"capture"`
}

// DefaultsConfig holds default values for various commands
type DefaultsConfig struct {
	// Replay command defaults
	Device string `mapstructure:"device"`

	// Trends command defaults
	Weeks int `mapstructure:"weeks"`

	// Viewer / serve defaults
	ViewerPort int    `mapstructure:"viewer_port"`
	ServeAddr  string `mapstructure:"serve_addr"`
}

// CaptureConfig customizes the capture middleware mounted by serve.
type CaptureConfig struct {
	// Routes overrides the default (method, path) -> capture point map.
	Routes []RouteConfig `mapstructure:"routes"`
	// Stages overrides the pipeline stage order used by replay.
	Stages []string `mapstructure:"stages"`
}

// RouteConfig is one capture route entry.
type RouteConfig struct {
	Method string `mapstructure:"method"`
	Path   string `mapstructure:"path"`
	Point  string `mapstructure:"point"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		CaptureDir: "./captures",
		Format:     "text",
		Quiet:      false,
		Verbose:    false,
		Defaults: DefaultsConfig{
			Device:     "all",
			Weeks:      8,
			ViewerPort: 8080,
			ServeAddr:  ":8600",
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("hoptrace")
	v.SetConfigType("yaml")

	// Config paths, lowest precedence first
	v.AddConfigPath("/etc/hoptrace/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "hoptrace"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".hoptrace")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("HOPTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("capture_dir", "HOPTRACE_CAPTURE_DIR")
	v.BindEnv("format", "HOPTRACE_FORMAT")
	v.BindEnv("quiet", "HOPTRACE_QUIET")
	v.BindEnv("verbose", "HOPTRACE_VERBOSE")

	// Set defaults
	cfg := Default()
	v.SetDefault("capture_dir", cfg.CaptureDir)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.device", cfg.Defaults.Device)
	v.SetDefault("defaults.weeks", cfg.Defaults.Weeks)
	v.SetDefault("defaults.viewer_port", cfg.Defaults.ViewerPort)
	v.SetDefault("defaults.serve_addr", cfg.Defaults.ServeAddr)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("hoptrace")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	v.SetConfigName(".hoptrace")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}
