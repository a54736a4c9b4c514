package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "updatedirdates.yaml"

type Config struct {
	// Exclude lists doublestar patterns for entries that take no part in
	// the run. A trailing / restricts a pattern to directories.
	Exclude   []string `yaml:"exclude"`
	ReportDir string   `yaml:"report_dir"`
	LogLevel  string   `yaml:"log_level"`
}

// DefaultConfig excludes nothing: every file counts toward its
// directory's content time unless configured otherwise.
func DefaultConfig() *Config {
	return &Config{
		Exclude:   []string{},
		ReportDir: "output",
		LogLevel:  "warn",
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize Exclude slice if nil (for configs with an empty list)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for _, pattern := range c.Exclude {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}
