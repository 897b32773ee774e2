// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"

	"font-license/internal/errors"
	"font-license/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. FONTLIC_LOGGING_LEVEL
const EnvPrefix = "FONTLIC"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" ignored:"true"`

	// Manifest contains manifest location settings
	Manifest ManifestConfig `json:"manifest"`

	// Quote contains quote output settings
	Quote QuoteConfig `json:"quote"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ManifestConfig says where the manifest lives
type ManifestConfig struct {
	// Path is the manifest file used when none is given on the command line
	Path string `json:"path"`

	// Format forces json or yaml; empty picks by file extension
	Format string `json:"format,omitempty"`
}

// QuoteConfig contains quote-related settings
type QuoteConfig struct {
	// OmitTimestamp leaves generated_at empty for byte-stable output files
	OmitTimestamp bool `json:"omit_timestamp" split_words:"true"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (cli, json)
	DefaultFormat string `json:"default_format" split_words:"true"`

	// ShowContext prints each finding's context in cli output
	ShowContext bool `json:"show_context" split_words:"true"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Manifest: ManifestConfig{
			Path: "fonts.manifest.json",
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowContext:   false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath is $HOME/.font-license.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".font-license.json")
}

// Load loads configuration from a file, then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Config("invalid config file", err).WithContext("path", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Config("cannot read config file", err).WithContext("path", path)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overlays FONTLIC_* environment variables onto c
func ApplyEnv(c *Config) error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Config("invalid environment override", err)
	}
	return nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Output.DefaultFormat {
	case "cli", "json":
	default:
		return errors.Newf(errors.TypeConfig, "output.default_format must be cli or json, got %q", c.Output.DefaultFormat)
	}
	switch c.Manifest.Format {
	case "", "json", "yaml":
	default:
		return errors.Newf(errors.TypeConfig, "manifest.format must be json or yaml, got %q", c.Manifest.Format)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.Newf(errors.TypeConfig, "logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Config("cannot create config directory", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Internal("cannot encode config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Config("cannot write config file", err).WithContext("path", path)
	}
	return nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
