// Package config loads the converter's YAML configuration: the package
// map used to resolve asset references, output options, and logging.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all converter configuration.
type Config struct {
	// Comment is embedded verbatim in the output stage metadata.
	Comment string `yaml:"comment,omitempty"`

	// Packages maps package names to filesystem roots for resolving
	// package:// asset references.
	Packages map[string]string `yaml:"packages,omitempty"`

	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig configures stage authoring.
type OutputConfig struct {
	// MetersPerUnit sets the stage's linear unit; robot documents are
	// authored in meters.
	MetersPerUnit float64 `yaml:"meters_per_unit"`

	// UpAxis is the stage up axis, "Z" or "Y".
	UpAxis string `yaml:"up_axis"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder instead of JSON
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			MetersPerUnit: 1,
			UpAxis:        "Z",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch c.Output.UpAxis {
	case "Z", "Y":
	default:
		return fmt.Errorf("up_axis must be Z or Y, got %q", c.Output.UpAxis)
	}
	if c.Output.MetersPerUnit <= 0 {
		return fmt.Errorf("meters_per_unit must be positive")
	}
	return nil
}
