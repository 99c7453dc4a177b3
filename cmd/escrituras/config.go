package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the YAML configuration for the serve command.
type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
	Metrics  bool   `yaml:"metrics"`

	Store struct {
		Backend string `yaml:"backend"` // "memory" or "redis"
		Redis   struct {
			Addr     string   `yaml:"addr"`
			Password string   `yaml:"password"`
			DB       int      `yaml:"db"`
			Prefix   string   `yaml:"prefix"`
			TTL      Duration `yaml:"ttl"`
			Lock     bool     `yaml:"lock"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Extraction struct {
		Endpoint string `yaml:"endpoint"`
		Retry    struct {
			Attempts       int      `yaml:"attempts"`
			InitialBackoff Duration `yaml:"initial_backoff"`
			MaxBackoff     Duration `yaml:"max_backoff"`
		} `yaml:"retry"`
	} `yaml:"extraction"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Addr = ":8080"
	cfg.LogLevel = "info"
	cfg.Metrics = true
	cfg.Store.Backend = "memory"
	return cfg
}

// LoadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	switch cfg.Store.Backend {
	case "memory", "redis":
	default:
		return cfg, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}
