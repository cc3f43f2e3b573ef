// Package config defines the consolidation pipeline configuration and its loader.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load errors wrap ErrLoadConfig; validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Config contains pipeline configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsNamespace prefixes every Prometheus series.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// DisplayNames adds or overrides model key -> display label mappings.
	// Keys are matched case- and whitespace-insensitively.
	DisplayNames map[string]string `koanf:"display_names"`

	// TimeAliases are extra raw column names accepted as the Month column.
	TimeAliases []string `koanf:"time_aliases"`

	// ValueAliases are extra raw column names accepted as the Forecast column.
	ValueAliases []string `koanf:"value_aliases"`

	// BaselinePrefixes are extra truncated forms of the baseline row label.
	BaselinePrefixes []string `koanf:"baseline_prefixes"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		MetricsNamespace: "consolidator",
		DisplayNames:     map[string]string{},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if strings.TrimSpace(c.MetricsNamespace) == "" {
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for k, v := range c.DisplayNames {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: display_names entries must not be blank (%q: %q)", ErrInvalidConfig, k, v)
		}
	}
	return nil
}
