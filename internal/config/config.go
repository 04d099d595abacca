// Package config provides configuration types for checkngn.
//
// Configuration is file-based (checkngn.yaml) with environment overrides.
// Every field is optional; SetDefaults fills in the values used when a key
// is absent.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration for checkngn.
type Config struct {
	// Log configures the structured logger.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Normalizer configures action normalization.
	Normalizer NormalizerConfig `yaml:"normalizer" mapstructure:"normalizer"`

	// Metrics configures the optional Prometheus textfile export.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Output selects the CLI output encoding.
	// Valid values: "json", "yaml". Defaults to "json".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,oneof=json yaml"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error". Defaults to "info".
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Format selects the slog handler. Valid values: "text", "json".
	// Defaults to "text".
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// NormalizerConfig configures the action normalizer and its cache.
type NormalizerConfig struct {
	// NestedLists decides what happens to a list element that is itself a
	// list of actions. "reject" fails normalization, "flatten" splices the
	// nested actions in place. Defaults to "reject".
	NestedLists string `yaml:"nested_lists" mapstructure:"nested_lists" validate:"omitempty,oneof=reject flatten"`

	// StrictIdentifiers rejects actions with an empty identifier.
	StrictIdentifiers bool `yaml:"strict_identifiers" mapstructure:"strict_identifiers"`

	// CacheSize is the number of normalized descriptors kept in memory.
	// 0 disables the cache. Defaults to 1000 when not set.
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size" validate:"min=0"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// Textfile is a path to write metrics to after each run, in the
	// Prometheus text format. Must end in ".prom". Empty disables export.
	Textfile string `yaml:"textfile" mapstructure:"textfile" validate:"omitempty,prom_textfile"`
}

// SetDefaults applies default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Normalizer.NestedLists == "" {
		c.Normalizer.NestedLists = "reject"
	}
	// viper.IsSet distinguishes "not set" from an explicit 0 (cache disabled).
	if !viper.IsSet("normalizer.cache_size") && c.Normalizer.CacheSize == 0 {
		c.Normalizer.CacheSize = 1000
	}

	if c.Output == "" {
		c.Output = "json"
	}
}
