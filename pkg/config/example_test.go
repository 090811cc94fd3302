package config_test

import (
	"fmt"

	"github.com/ajitpratap0/strata/pkg/config"
)

// ExampleNewConfig shows the defaults.
func ExampleNewConfig() {
	cfg := config.NewConfig()
	fmt.Println(cfg.Block.MaxBlockSize, cfg.Block.TruncateSeedRecords, cfg.Archive.CompressionAlgorithm)
	// Output: 4096 100 zstd
}

// ExampleParse shows a partial file layered over the defaults.
func ExampleParse() {
	cfg, err := config.Parse([]byte(`
block:
  max_block_size: 8192
archive:
  compression_algorithm: lz4
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(cfg.Block.MaxBlockSize, cfg.Block.TruncateTolerance, cfg.Archive.CompressionAlgorithm)
	// Output: 8192 0.05 lz4
}
