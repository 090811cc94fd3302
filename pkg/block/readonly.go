package block

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// cell decodes one column at most once.
type cell struct {
	once    sync.Once
	typ     schema.Type
	payload []byte
	col     columnar.Column
	err     error
}

// ReadOnly is a serialized block whose columns are decoded on first access.
// It is safe for concurrent use; decoded columns must not be mutated.
type ReadOnly struct {
	schema *schema.Schema
	count  int
	stats  []columnar.Stats
	cells  []*cell
	logger *zap.Logger
}

// Open wraps a serialized block. Only the payload length table is read; each
// column is decoded when first requested.
func Open(s *schema.Schema, data *Serialized, opts ...Option) (*ReadOnly, error) {
	if s == nil || data == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "schema and payload are required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if data.RecordCount < 0 || data.RecordCount > MaxRecords {
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "record count %d outside [0, %d]", data.RecordCount, MaxRecords)
	}

	columns := s.Len() + 1
	if data.Columns != nil && len(data.Columns) != columns {
		return nil, errors.Newf(errors.ErrorTypeCorrupt,
			"%d column stats for %d columns", len(data.Columns), columns)
	}
	payloads, err := splitFrame(data.Data, columns)
	if err != nil {
		return nil, err
	}

	cells := make([]*cell, columns)
	for i, p := range payloads {
		typ := schema.TypeInt64
		if i < s.Len() {
			typ = s.Columns[i].Type
		}
		cells[i] = &cell{typ: typ, payload: p}
	}

	o := buildOptions(opts)
	return &ReadOnly{
		schema: s,
		count:  data.RecordCount,
		stats:  data.Columns,
		cells:  cells,
		logger: o.logger.With(zap.String("schema", s.Name)),
	}, nil
}

// Schema returns the user columns of the block.
func (r *ReadOnly) Schema() *schema.Schema { return r.schema }

// RecordCount returns the number of records.
func (r *ReadOnly) RecordCount() int { return r.count }

// RecordIDColumn returns the column index that addresses record ids in
// Column and Query.
func (r *ReadOnly) RecordIDColumn() int { return r.schema.Len() }

// Stats returns the statistics the block was serialized with, or nil when
// none were supplied.
func (r *ReadOnly) Stats() []columnar.Stats { return r.stats }

// Column decodes and returns user column i, or the record id column for
// i == RecordIDColumn().
func (r *ReadOnly) Column(i int) (columnar.Reader, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, columnIndexError(i, r.schema.Len())
	}
	return r.decode(i)
}

// RecordIDs decodes and returns the record id column.
func (r *ReadOnly) RecordIDs() (columnar.Reader, error) {
	return r.decode(len(r.cells) - 1)
}

func (r *ReadOnly) decode(i int) (columnar.Reader, error) {
	c := r.cells[i]
	c.once.Do(func() {
		c.col, c.err = columnar.Decode(c.typ, c.payload, r.count)
		status := metrics.StatusSuccess
		if c.err != nil {
			status = metrics.StatusFailure
			c.err = errors.Wrap(c.err, errors.TypeOf(c.err), "failed to open column").
				WithDetail("column", r.columnName(i))
		}
		metrics.ColumnDecodes.WithLabelValues(string(c.typ), status).Inc()
		r.logger.Debug("decoded column",
			zap.String("column", r.columnName(i)),
			zap.Int("bytes", len(c.payload)),
			zap.Bool("ok", c.err == nil))
		c.payload = nil
	})
	if c.err != nil {
		return nil, c.err
	}
	return c.col, nil
}

func (r *ReadOnly) columnName(i int) string {
	if i < r.schema.Len() {
		return r.schema.Columns[i].Name
	}
	return schema.RecordIDColumn
}

// Thaw copies the block into a new Builder.
func (r *ReadOnly) Thaw(opts ...Option) (*Builder, error) {
	b, err := NewBuilder(r.schema, opts...)
	if err != nil {
		return nil, err
	}
	if err := b.AppendBlock(r); err != nil {
		return nil, err
	}
	return b, nil
}
