// Package config loads and validates Strata configuration.
//
// # Loading
//
// Configuration is read from YAML. Missing sections keep the defaults of
// NewConfig, and ${VAR} references are expanded from the environment before
// parsing:
//
//	block:
//	  max_block_size: 8192
//	  truncate_tolerance: 0.05
//	logging:
//	  level: ${STRATA_LOG_LEVEL}
//	archive:
//	  compression_algorithm: lz4
//
// # Validation
//
// Load and Parse validate the result. Invalid values are reported as
// errors of type errors.ErrorTypeConfig.
package config
