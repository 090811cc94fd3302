// Package block groups typed columns into blocks of records.
//
// A Builder is the mutable form: records are appended, merged, ordered by
// record id, deleted and finally serialized. TruncateBlock splits off a
// prefix whose serialized form fits a byte budget. A ReadOnly block wraps a
// serialized payload and decodes each column on first access.
//
// Serialized layout, little-endian:
//
//	[payload length u16] x (columns + 1)
//	[column payload]     x (columns + 1)
//
// Columns follow schema order; the record id column comes last.
package block

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/predicate"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// RowPosition selects the record index itself in a projection.
const RowPosition = predicate.RowPosition

// Block is the read interface shared by Builder and ReadOnly.
type Block interface {
	predicate.Source

	// Schema returns the user columns of the block.
	Schema() *schema.Schema

	// RecordIDs returns the record id column.
	RecordIDs() (columnar.Reader, error)

	// Query resolves p and projects columns for every matching record.
	Query(p predicate.Predicate, columns []int) ([][]interface{}, error)
}

// Serialized is a block payload together with its out-of-band metadata.
type Serialized struct {
	// Data is the framed payload
	Data []byte `json:"-"`
	// RecordCount is the number of records in every column
	RecordCount int `json:"record_count"`
	// Columns holds per-column statistics, record id column last
	Columns []columnar.Stats `json:"columns"`
}

// Size returns the payload size in bytes.
func (s *Serialized) Size() int { return len(s.Data) }

// TruncateOptions tunes the truncation search.
type TruncateOptions struct {
	// SeedRecords is the first candidate record count
	SeedRecords int
	// Tolerance accepts a fitting candidate within this fraction of the budget
	Tolerance float64
	// MaxIterations caps the interpolation steps after the seed
	MaxIterations int
}

// DefaultTruncateOptions returns a seed of 100 records, a 5% tolerance and
// at most 5 interpolation steps.
func DefaultTruncateOptions() TruncateOptions {
	return TruncateOptions{
		SeedRecords:   100,
		Tolerance:     0.05,
		MaxIterations: 5,
	}
}

// TruncateOptionsFromConfig maps the block section of the configuration.
func TruncateOptionsFromConfig(cfg config.BlockConfig) TruncateOptions {
	return TruncateOptions{
		SeedRecords:   cfg.TruncateSeedRecords,
		Tolerance:     cfg.TruncateTolerance,
		MaxIterations: cfg.TruncateMaxIterations,
	}
}

// Option configures a Builder or ReadOnly block.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	truncate TruncateOptions
}

// WithLogger sets the logger. The default is the global logger named "block".
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTruncateOptions overrides the truncation search tuning.
func WithTruncateOptions(t TruncateOptions) Option {
	return func(o *options) {
		o.truncate = t
	}
}

func buildOptions(opts []Option) options {
	o := options{truncate: DefaultTruncateOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("block")
	}
	return o
}

// columnIndexError reports a column index outside [0, count].
func columnIndexError(i, count int) error {
	return errors.Newf(errors.ErrorTypeValidation, "column %d is outside [0, %d]", i, count).
		WithDetail("column", i)
}
