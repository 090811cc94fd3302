package block

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Builder is a mutable block. It is not safe for concurrent use.
type Builder struct {
	schema  *schema.Schema
	columns []columnar.Column
	ids     *columnar.IntColumn[int64]
	opts    options
	logger  *zap.Logger
}

// NewBuilder creates an empty builder with one column per schema entry plus
// the record id column.
func NewBuilder(s *schema.Schema, opts ...Option) (*Builder, error) {
	if s == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "schema is required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	columns := make([]columnar.Column, s.Len())
	for i, c := range s.Columns {
		col, err := columnar.New(c.Type)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}

	o := buildOptions(opts)
	return &Builder{
		schema:  s,
		columns: columns,
		ids:     columnar.NewRecordIDColumn(),
		opts:    o,
		logger:  o.logger.With(zap.String("schema", s.Name)),
	}, nil
}

// Schema returns the user columns of the block.
func (b *Builder) Schema() *schema.Schema { return b.schema }

// RecordCount returns the number of records.
func (b *Builder) RecordCount() int { return b.ids.RecordCount() }

// RecordIDColumn returns the column index that addresses record ids in
// Column and Query.
func (b *Builder) RecordIDColumn() int { return len(b.columns) }

// Column returns user column i, or the record id column for
// i == RecordIDColumn().
func (b *Builder) Column(i int) (columnar.Reader, error) {
	switch {
	case i >= 0 && i < len(b.columns):
		return b.columns[i], nil
	case i == len(b.columns):
		return b.ids, nil
	default:
		return nil, columnIndexError(i, len(b.columns))
	}
}

// RecordIDs returns the record id column.
func (b *Builder) RecordIDs() (columnar.Reader, error) { return b.ids, nil }

// MemoryUsage estimates the bytes held by all columns.
func (b *Builder) MemoryUsage() int64 {
	total := b.ids.MemoryUsage()
	for _, col := range b.columns {
		total += col.MemoryUsage()
	}
	return total
}

func (b *Builder) all() []columnar.Column {
	cols := make([]columnar.Column, 0, len(b.columns)+1)
	cols = append(cols, b.columns...)
	return append(cols, b.ids)
}

func (b *Builder) columnName(i int) string {
	if i < len(b.columns) {
		return b.schema.Columns[i].Name
	}
	return schema.RecordIDColumn
}

// AppendRecord appends one value per user column followed by id. A value
// that a column rejects leaves the builder unchanged.
func (b *Builder) AppendRecord(id int64, values []interface{}) error {
	if len(values) != len(b.columns) {
		return errors.Newf(errors.ErrorTypeValidation,
			"record has %d values, schema %q has %d columns", len(values), b.schema.Name, len(b.columns))
	}

	for i, col := range b.columns {
		if err := col.Append(values[i]); err != nil {
			b.dropLast(b.columns[:i])
			return errors.Wrap(err, errors.TypeOf(err), "failed to append record").
				WithDetail("column", b.columnName(i)).
				WithDetail("record_id", id)
		}
	}
	return b.ids.Append(id)
}

func (b *Builder) dropLast(cols []columnar.Column) {
	for _, col := range cols {
		// The last index of a non-empty column is always a valid delete.
		_ = col.DeleteRecords([]int{col.RecordCount() - 1})
	}
}

// AppendBlock copies every record of other, record ids included. The
// column types of both schemas must match pairwise.
func (b *Builder) AppendBlock(other Block) error {
	if !b.schema.Compatible(other.Schema()) {
		return errors.Newf(errors.ErrorTypeValidation,
			"schema %q is not compatible with %q", other.Schema().Name, b.schema.Name).
			WithDetail("expected", b.schema.Fingerprint()).
			WithDetail("actual", other.Schema().Fingerprint())
	}

	readers := make([]columnar.Reader, len(b.columns))
	for i := range readers {
		col, err := other.Column(i)
		if err != nil {
			return err
		}
		readers[i] = col
	}
	ids, err := other.RecordIDs()
	if err != nil {
		return err
	}

	before, count := b.RecordCount(), other.RecordCount()
	values := make([]interface{}, len(readers))
	for row := 0; row < count; row++ {
		for i, r := range readers {
			values[i] = r.Get(row)
		}
		if err := b.AppendRecord(ids.Get(row).(int64), values); err != nil {
			b.truncateTo(before)
			return err
		}
	}

	b.logger.Debug("appended block",
		zap.Int("records", count),
		zap.Int("total", b.RecordCount()))
	return nil
}

// truncateTo drops every record at or after n.
func (b *Builder) truncateTo(n int) {
	count := b.RecordCount()
	if n >= count {
		return
	}
	indexes := make([]int, 0, count-n)
	for i := n; i < count; i++ {
		indexes = append(indexes, i)
	}
	_ = b.DeleteRecordsByRecordIndex(indexes)
}

// OrderByRecordID sorts records by ascending record id. Equal ids keep
// their relative order.
func (b *Builder) OrderByRecordID() error {
	n := b.RecordCount()
	if n < 2 {
		return nil
	}
	sorted := true
	prev, _ := b.ids.At(0)
	for i := 1; i < n; i++ {
		id, _ := b.ids.At(i)
		if id < prev {
			sorted = false
			break
		}
		prev = id
	}
	if sorted {
		return nil
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		a, _ := b.ids.At(perm[i])
		c, _ := b.ids.At(perm[j])
		return a < c
	})

	for _, col := range b.all() {
		if err := col.Reorder(perm); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInvariant, "failed to reorder block")
		}
	}
	return nil
}

// DeleteRecordsByRecordID deletes every record whose id is in ids and
// returns the ids that were found, in block order.
func (b *Builder) DeleteRecordsByRecordID(ids []int64) ([]int64, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var (
		indexes []int
		found   []int64
		seen    = make(map[int64]struct{})
	)
	for i := 0; i < b.RecordCount(); i++ {
		id, _ := b.ids.At(i)
		if _, ok := wanted[id]; !ok {
			continue
		}
		indexes = append(indexes, i)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			found = append(found, id)
		}
	}

	if len(indexes) == 0 {
		return nil, nil
	}
	if err := b.DeleteRecordsByRecordIndex(indexes); err != nil {
		return nil, err
	}
	return found, nil
}

// DeleteRecordsByRecordIndex deletes the records at indexes, which must be
// strictly increasing and in range. Invalid indexes leave the builder
// unchanged.
func (b *Builder) DeleteRecordsByRecordIndex(indexes []int) error {
	if len(indexes) == 0 {
		return nil
	}
	if err := b.ids.DeleteRecords(indexes); err != nil {
		return err
	}
	for i, col := range b.columns {
		if err := col.DeleteRecords(indexes); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInvariant, "column out of step with record ids").
				WithDetail("column", b.columnName(i))
		}
	}
	return nil
}

// head returns a builder holding copies of the first n records.
func (b *Builder) head(n int) *Builder {
	columns := make([]columnar.Column, len(b.columns))
	for i, col := range b.columns {
		columns[i] = col.Head(n)
	}
	return &Builder{
		schema:  b.schema,
		columns: columns,
		ids:     b.ids.Head(n).(*columnar.IntColumn[int64]),
		opts:    b.opts,
		logger:  b.logger,
	}
}
