// Package config loads the ledger's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full medinsight configuration.
type Config struct {
	Version string `yaml:"version" json:"version"`

	// Database is the SQLite file holding the ledger.
	Database string `yaml:"database" json:"database"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Display DisplayConfig `yaml:"display" json:"display"`
}

// TracingConfig configures OpenTelemetry.
type TracingConfig struct {
	// Stdout exports spans to stderr as JSON.
	Stdout bool `yaml:"stdout" json:"stdout"`
}

// DisplayConfig configures text rendering of history entries.
type DisplayConfig struct {
	InputWidth  int `yaml:"input_width" json:"input_width"`
	OutputWidth int `yaml:"output_width" json:"output_width"`
}

const (
	appDir          = "medinsight"
	defaultDBName   = "medinsight-history.db"
	defaultFileName = "config.yaml"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:  "1",
		Database: DefaultDatabasePath(),
		LogLevel: "info",
		Display: DisplayConfig{
			InputWidth:  70,
			OutputWidth: 100,
		},
	}
}

// Load reads the config file at path over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Display.InputWidth < 0 || c.Display.OutputWidth < 0 {
		return errors.New("display widths must not be negative")
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel parses a log level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", s)
	}
	return lvl, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultFileName
	}
	return filepath.Join(dir, appDir, defaultFileName)
}

// DefaultDatabasePath returns the default ledger file location.
func DefaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultDBName
	}
	return filepath.Join(dir, appDir, defaultDBName)
}

// WriteDefault writes a commented default configuration to path,
// creating parent directories.
func WriteDefault(path string) error {
	content := `# MedInsight activity ledger configuration
version: "1"

# SQLite file holding the activity ledger
database: '` + strings.ReplaceAll(DefaultDatabasePath(), "'", "''") + `'

# debug | info | warn | error
log_level: info

# OpenTelemetry tracing
tracing:
  stdout: false

# Text rendering of history entries (characters)
display:
  input_width: 70
  output_width: 100
`
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
