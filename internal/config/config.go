package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration of the apply pipeline.
type Config struct {
	Workspace struct {
		Root string `yaml:"root"`
	} `yaml:"workspace"`

	Apply struct {
		GitBinary      string `yaml:"git_binary"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Fallback       *bool  `yaml:"fallback"` // nil = default true
	} `yaml:"apply"`

	Log struct {
		Path        string `yaml:"path"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns a Config with every default applied, rooted at the current
// directory.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads a YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Convert workspace root to absolute path
	if cfg.Workspace.Root != "" {
		absRoot, err := filepath.Abs(cfg.Workspace.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
		}
		cfg.Workspace.Root = absRoot
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = "."
	}
	if cfg.Apply.GitBinary == "" {
		cfg.Apply.GitBinary = "git"
	}
	if cfg.Apply.TimeoutSeconds == 0 {
		cfg.Apply.TimeoutSeconds = 30
	}
}

// FallbackEnabled reports whether the internal fallback chain may run.
// Defaults to true when unset.
func (c *Config) FallbackEnabled() bool {
	if c.Apply.Fallback == nil {
		return true
	}
	return *c.Apply.Fallback
}

// Timeout returns the external tool timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Apply.TimeoutSeconds) * time.Second
}
