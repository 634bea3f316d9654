// Package config loads eternal's settings.
//
// Values are layered from lowest to highest priority:
//
//  1. Defaults (Default)
//  2. The YAML file passed with --config
//  3. Environment variables (ETERNAL_DB, ETERNAL_LOG_LEVEL)
//  4. Command-line flags, applied by the caller
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eternal/internal/proposal"
)

// Environment variables consulted by Load.
const (
	EnvDatabase = "ETERNAL_DB"
	EnvLogLevel = "ETERNAL_LOG_LEVEL"
)

// ID schemes for new proposals.
const (
	IDSchemeRandom = "random"
	IDSchemeLegacy = "legacy"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings shared by every command.
type Config struct {
	Database     string `yaml:"database"`
	IDScheme     string `yaml:"id_scheme"`
	LogLevel     string `yaml:"log_level"`
	DefaultTheme string `yaml:"default_theme"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:     "eternal.db",
		IDScheme:     IDSchemeRandom,
		LogLevel:     "info",
		DefaultTheme: string(proposal.ThemeClassic),
	}
}

// Load builds a Config from defaults, the optional YAML file at path and
// the environment. getenv is usually os.Getenv; tests pass a map lookup.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if getenv != nil {
		if v := getenv(EnvDatabase); v != "" {
			cfg.Database = v
		}
		if v := getenv(EnvLogLevel); v != "" {
			cfg.LogLevel = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Keys absent from the document keep their
// current values; unknown keys are rejected.
func (c *Config) decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(c)
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("%w: database is required", ErrInvalid)
	}
	switch c.IDScheme {
	case IDSchemeRandom, IDSchemeLegacy:
	default:
		return fmt.Errorf("%w: id_scheme must be %q or %q, got %q", ErrInvalid, IDSchemeRandom, IDSchemeLegacy, c.IDScheme)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := proposal.ParseTheme(c.DefaultTheme); err != nil {
		return fmt.Errorf("%w: default_theme: %v", ErrInvalid, err)
	}
	return nil
}

// IDGenerator returns the generator for the configured id scheme.
func (c Config) IDGenerator() proposal.IDGenerator {
	if c.IDScheme == IDSchemeLegacy {
		return proposal.LegacyGenerator{}
	}
	return proposal.RandomGenerator{}
}

// Theme returns the default theme for new drafts.
func (c Config) Theme() proposal.Theme {
	return proposal.Theme(c.DefaultTheme)
}

// Level returns the configured slog level, falling back to info.
func (c Config) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel converts debug, info, warn or error into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: log_level must be debug, info, warn or error, got %q", ErrInvalid, s)
}
