// Package config provides the configuration system for Strata.
//
// The configuration is organized into logical sections:
//   - Block: Block size budget and truncation search tuning
//   - Logging: Log level and encoding
//   - Observability: Metrics and tracing
//   - Archive: Compression used when blocks are spilled to an archive
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.Block.MaxBlockSize = 8192
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/ajitpratap0/strata/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	// Block settings control block sizing and truncation
	Block BlockConfig `yaml:"block" json:"block"`

	// Logging settings for the global logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Observability settings for metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Archive settings for framed block persistence
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
}

// BlockConfig contains block sizing settings.
type BlockConfig struct {
	// MaxBlockSize is the serialized size budget of one block in bytes
	MaxBlockSize int `yaml:"max_block_size" json:"max_block_size"`
	// TruncateSeedRecords is the first candidate record count of a truncation
	TruncateSeedRecords int `yaml:"truncate_seed_records" json:"truncate_seed_records"`
	// TruncateTolerance accepts a candidate within this fraction of the budget
	TruncateTolerance float64 `yaml:"truncate_tolerance" json:"truncate_tolerance"`
	// TruncateMaxIterations caps the interpolation steps of a truncation
	TruncateMaxIterations int `yaml:"truncate_max_iterations" json:"truncate_max_iterations"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level sets logging verbosity (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`
	// Encoding selects json or console output
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables colored levels and error stack traces
	Development bool `yaml:"development" json:"development"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics activates the Prometheus collectors
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry tracing
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// ArchiveConfig contains archive compression settings.
type ArchiveConfig struct {
	// CompressionAlgorithm selects compression type (none, gzip, snappy, lz4, zstd, s2, deflate)
	CompressionAlgorithm string `yaml:"compression_algorithm" json:"compression_algorithm"`
	// CompressionLevel selects fastest, default, better or best
	CompressionLevel string `yaml:"compression_level" json:"compression_level"`
}

// Algorithms lists the accepted archive compression algorithms.
var Algorithms = []string{"none", "gzip", "snappy", "lz4", "zstd", "s2", "deflate"}

// Levels lists the accepted archive compression levels.
var Levels = []string{"fastest", "default", "better", "best"}

// NewConfig creates a Config with defaults that suit most workloads.
func NewConfig() *Config {
	return &Config{
		Block: BlockConfig{
			MaxBlockSize:          4096,
			TruncateSeedRecords:   100,
			TruncateTolerance:     0.05,
			TruncateMaxIterations: 5,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 0.1,
		},
		Archive: ArchiveConfig{
			CompressionAlgorithm: "zstd",
			CompressionLevel:     "default",
		},
	}
}

// Validate checks that every value is within its accepted range.
func (c *Config) Validate() error {
	if err := c.Block.Validate(); err != nil {
		return err
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig,
			"tracing_sample_rate must be within [0, 1], got %g", c.Observability.TracingSampleRate)
	}
	if !contains(Algorithms, c.Archive.CompressionAlgorithm) {
		return errors.Newf(errors.ErrorTypeConfig,
			"unknown compression_algorithm %q", c.Archive.CompressionAlgorithm)
	}
	if !contains(Levels, c.Archive.CompressionLevel) {
		return errors.Newf(errors.ErrorTypeConfig,
			"unknown compression_level %q", c.Archive.CompressionLevel)
	}
	return nil
}

// Validate checks the block section.
func (b *BlockConfig) Validate() error {
	if b.MaxBlockSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "max_block_size must be positive")
	}
	if b.TruncateSeedRecords <= 0 {
		return errors.New(errors.ErrorTypeConfig, "truncate_seed_records must be positive")
	}
	if b.TruncateTolerance <= 0 || b.TruncateTolerance >= 1 {
		return errors.Newf(errors.ErrorTypeConfig,
			"truncate_tolerance must be within (0, 1), got %g", b.TruncateTolerance)
	}
	if b.TruncateMaxIterations < 0 {
		return errors.New(errors.ErrorTypeConfig, "truncate_max_iterations cannot be negative")
	}
	return nil
}

// IsCompressionEnabled returns true if archives are compressed.
func (a *ArchiveConfig) IsCompressionEnabled() bool {
	return a.CompressionAlgorithm != "" && a.CompressionAlgorithm != "none"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
