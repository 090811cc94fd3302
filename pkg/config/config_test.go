package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero block size", func(c *Config) { c.Block.MaxBlockSize = 0 }},
		{"zero seed", func(c *Config) { c.Block.TruncateSeedRecords = 0 }},
		{"tolerance too large", func(c *Config) { c.Block.TruncateTolerance = 1 }},
		{"tolerance zero", func(c *Config) { c.Block.TruncateTolerance = 0 }},
		{"negative iterations", func(c *Config) { c.Block.TruncateMaxIterations = -1 }},
		{"sample rate", func(c *Config) { c.Observability.TracingSampleRate = 1.5 }},
		{"algorithm", func(c *Config) { c.Archive.CompressionAlgorithm = "brotli" }},
		{"level", func(c *Config) { c.Archive.CompressionLevel = "max" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestParseEnvSubstitution(t *testing.T) {
	t.Setenv("STRATA_TEST_LEVEL", "debug")
	t.Setenv("STRATA_TEST_ALGO", "s2")

	cfg, err := Parse([]byte(`
logging:
  level: ${STRATA_TEST_LEVEL}
archive:
  compression_algorithm: ${STRATA_TEST_ALGO}
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "s2", cfg.Archive.CompressionAlgorithm)
	assert.Equal(t, 4096, cfg.Block.MaxBlockSize)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("block:\n  max_block_size: -1\n"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Parse([]byte("block: [unclosed"))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strata.yaml")

	cfg := NewConfig()
	cfg.Block.MaxBlockSize = 16384
	cfg.Archive.CompressionAlgorithm = "gzip"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestIsCompressionEnabled(t *testing.T) {
	a := ArchiveConfig{CompressionAlgorithm: "none"}
	assert.False(t, a.IsCompressionEnabled())
	a.CompressionAlgorithm = "lz4"
	assert.True(t, a.IsCompressionEnabled())
}
