// Package config provides configuration loading and management for volmorph.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"volmorph/pkg/reconstruction"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Reconstruction parameters
	Reconstruction struct {
		// Type is "dilation" or "erosion"
		Type string `yaml:"type"`

		// Connectivity is 6 or 26
		Connectivity int `yaml:"connectivity"`

		// MaxQueueDepth bounds the propagation queue, 0 for no bound
		MaxQueueDepth int `yaml:"maxQueueDepth"`
	} `yaml:"reconstruction"`

	// Filter parameters
	Filter struct {
		// RegularizeRadius is the radius of the cube used to smooth the mask
		// before reconstruction, 0 disables it
		RegularizeRadius int `yaml:"regularizeRadius"`
	} `yaml:"filter"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// Axis is the axis along which result slices are written
		Axis string `yaml:"axis"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Reconstruction.Type = reconstruction.ByDilation.String()
	cfg.Reconstruction.Connectivity = int(reconstruction.C6)
	cfg.Reconstruction.MaxQueueDepth = 0

	cfg.Filter.RegularizeRadius = 0

	cfg.Output.Verbose = false
	cfg.Output.Axis = "z"

	return cfg
}

// Validate checks the values that have a fixed set of choices
func (c *Config) Validate() error {
	if _, err := c.ReconstructionParams(); err != nil {
		return err
	}
	if c.Filter.RegularizeRadius < 0 {
		return errors.Errorf("regularizeRadius must not be negative, got %d", c.Filter.RegularizeRadius)
	}
	switch c.Output.Axis {
	case "x", "y", "z":
	default:
		return errors.Errorf("output axis must be x, y or z, got %q", c.Output.Axis)
	}
	return nil
}

// ReconstructionParams converts the reconstruction section to parameters
func (c *Config) ReconstructionParams() (*reconstruction.Params, error) {
	typ, err := reconstruction.ParseType(c.Reconstruction.Type)
	if err != nil {
		return nil, err
	}
	conn := reconstruction.Connectivity(c.Reconstruction.Connectivity)
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if c.Reconstruction.MaxQueueDepth < 0 {
		return nil, errors.Errorf("maxQueueDepth must not be negative, got %d", c.Reconstruction.MaxQueueDepth)
	}

	return &reconstruction.Params{
		Type:          typ,
		Connectivity:  conn,
		Verbose:       c.Output.Verbose,
		MaxQueueDepth: c.Reconstruction.MaxQueueDepth,
	}, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	// Keys missing from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", configPath)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
