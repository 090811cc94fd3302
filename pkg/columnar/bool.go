package columnar

import (
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// BoolColumn presents an int32 column holding 0 and 1 as booleans. Encoding,
// null handling and compaction are delegated; values and stats are converted
// at the boundary.
type BoolColumn struct {
	typ   schema.Type
	inner *IntColumn[int32]
}

// NewBoolColumn creates an empty boolean column.
func NewBoolColumn(nullable bool) *BoolColumn {
	typ := schema.TypeBool
	if nullable {
		typ = schema.TypeBoolNullable
	}
	return &BoolColumn{typ: typ, inner: NewInt32Column(nullable)}
}

func toInner(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func toOuter(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return v.(int32) != 0
}

func (c *BoolColumn) Type() schema.Type { return c.typ }
func (c *BoolColumn) RecordCount() int  { return c.inner.RecordCount() }

func (c *BoolColumn) Get(i int) interface{} {
	return toOuter(c.inner.Get(i))
}

// At returns the value at record i and whether it is non-null.
func (c *BoolColumn) At(i int) (bool, bool) {
	v, ok := c.inner.At(i)
	return v != 0, ok
}

func (c *BoolColumn) convert(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	b, ok := value.(bool)
	if !ok {
		return nil, typeMismatch(c.typ, value)
	}
	return toInner(b), nil
}

func (c *BoolColumn) Append(value interface{}) error {
	v, err := c.convert(value)
	if err != nil {
		return err
	}
	if v == nil {
		if !c.inner.nullable {
			return nullRejected(c.typ)
		}
		return c.inner.Append(nil)
	}
	return c.inner.Append(v)
}

func (c *BoolColumn) Filter(op Operator, value interface{}) ([]uint32, error) {
	if op.Ordering() {
		return nil, errors.Newf(errors.ErrorTypeValidation, "operator %s is not supported by %s columns", op, c.typ).
			WithDetail("column_type", string(c.typ))
	}
	v, err := c.convert(value)
	if err != nil {
		return nil, err
	}
	return c.inner.Filter(op, v)
}

func (c *BoolColumn) Reorder(perm []int) error          { return c.inner.Reorder(perm) }
func (c *BoolColumn) DeleteRecords(indexes []int) error { return c.inner.DeleteRecords(indexes) }

func (c *BoolColumn) Head(n int) Column {
	return &BoolColumn{typ: c.typ, inner: c.inner.Head(n).(*IntColumn[int32])}
}

func (c *BoolColumn) Stats() Stats {
	return boolStats(c.inner.Stats())
}

func boolStats(s Stats) Stats {
	s.Min = toOuter(s.Min)
	s.Max = toOuter(s.Max)
	return s
}

func (c *BoolColumn) MemoryUsage() int64 { return c.inner.MemoryUsage() }

func (c *BoolColumn) Serialize() ([]byte, Stats, error) {
	payload, stats, err := c.inner.Serialize()
	if err != nil {
		return nil, Stats{}, err
	}
	return payload, boolStats(stats), nil
}

func decodeBool(nullable bool, data []byte, count int) (*BoolColumn, error) {
	c := NewBoolColumn(nullable)
	inner, err := decodeInt(c.inner, data, count)
	if err != nil {
		return nil, err
	}
	if inner.nonNull() > 0 && (inner.min < 0 || inner.max > 1) {
		return nil, errors.Newf(errors.ErrorTypeCorrupt,
			"%s payload holds values in [%d, %d]", c.typ, inner.min, inner.max)
	}
	c.inner = inner
	return c, nil
}
