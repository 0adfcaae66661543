// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AllowedOrigins lists CORS origins; "*" allows any. Comma separated in env.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MaxEncounters bounds the in-memory encounter store.
	MaxEncounters int `koanf:"max_encounters"`

	// MaxSearchResults caps GET /monsters?limit.
	MaxSearchResults int `koanf:"max_search_results"`

	// SuggestionLimit caps "did you mean" suggestions for unknown monsters.
	SuggestionLimit int `koanf:"suggestion_limit"`

	// CatalogPath optionally replaces the built-in monster catalog with a YAML file.
	CatalogPath string `koanf:"catalog_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		AllowedOrigins:   []string{"*"},
		MaxEncounters:    1000,
		MaxSearchResults: 50,
		SuggestionLimit:  5,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxEncounters <= 0 {
		return fmt.Errorf("%w: max_encounters must be positive", ErrInvalidConfig)
	}
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("%w: max_search_results must be positive", ErrInvalidConfig)
	}
	if c.SuggestionLimit < 0 {
		return fmt.Errorf("%w: suggestion_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// JSONLogs reports whether the JSON log handler was requested.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}
