package columnar

import (
	"strings"

	"github.com/ajitpratap0/strata/pkg/codec"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// StringColumn stores strings with an explicit validity mask. Strings are
// always nullable.
type StringColumn struct {
	values []string
	valid  []bool
	nulls  int
	min    string
	max    string
}

// NewStringColumn creates an empty string column.
func NewStringColumn() *StringColumn {
	return &StringColumn{}
}

func (c *StringColumn) Type() schema.Type { return schema.TypeString }
func (c *StringColumn) RecordCount() int  { return len(c.values) }

func (c *StringColumn) nonNull() int { return len(c.values) - c.nulls }

func (c *StringColumn) Get(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	return c.values[i]
}

// At returns the value at record i and whether it is non-null.
func (c *StringColumn) At(i int) (string, bool) {
	return c.values[i], c.valid[i]
}

func (c *StringColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, "")
		c.valid = append(c.valid, false)
		c.nulls++
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return typeMismatch(schema.TypeString, value)
	}
	c.track(s)
	c.values = append(c.values, s)
	c.valid = append(c.valid, true)
	return nil
}

func (c *StringColumn) track(s string) {
	if c.nonNull() == 0 {
		c.min, c.max = s, s
		return
	}
	if s < c.min {
		c.min = s
	}
	if s > c.max {
		c.max = s
	}
}

func (c *StringColumn) recompute() {
	n := len(c.values)
	values, valid := c.values, c.valid
	c.values, c.valid, c.nulls = values[:0], valid[:0], 0
	for i := 0; i < n; i++ {
		if valid[i] {
			c.track(values[i])
		} else {
			c.nulls++
		}
		c.values = append(c.values, values[i])
		c.valid = append(c.valid, valid[i])
	}
}

func (c *StringColumn) Filter(op Operator, value interface{}) ([]uint32, error) {
	if value == nil {
		return c.filterNull(op)
	}
	v, ok := value.(string)
	if !ok {
		return nil, typeMismatch(schema.TypeString, value)
	}
	if op < Equal || op > GreaterOrEqual {
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported operator %d for string column", int(op))
	}
	if c.nonNull() == 0 {
		return []uint32{}, nil
	}
	if op == Equal && (v < c.min || v > c.max) {
		return []uint32{}, nil
	}

	out := make([]uint32, 0)
	for i, s := range c.values {
		if !c.valid[i] {
			continue
		}
		if compareStrings(op, strings.Compare(s, v)) {
			out = append(out, uint32(i))
		}
	}
	return out, nil
}

func compareStrings(op Operator, cmp int) bool {
	switch op {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case Greater:
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func (c *StringColumn) filterNull(op Operator) ([]uint32, error) {
	if op.Ordering() {
		return nil, nullOrdering(op)
	}
	want := op == NotEqual
	out := make([]uint32, 0)
	for i, ok := range c.valid {
		if ok == want {
			out = append(out, uint32(i))
		}
	}
	return out, nil
}

func (c *StringColumn) Reorder(perm []int) error {
	if err := validatePermutation(perm, len(c.values)); err != nil {
		return err
	}
	c.values = permute(c.values, perm)
	c.valid = permute(c.valid, perm)
	return nil
}

func (c *StringColumn) DeleteRecords(indexes []int) error {
	if err := validateDeletes(indexes, len(c.values)); err != nil {
		return err
	}
	c.values = compact(c.values, indexes)
	c.valid = compact(c.valid, indexes)
	c.recompute()
	return nil
}

func (c *StringColumn) Head(n int) Column {
	if n > len(c.values) {
		n = len(c.values)
	}
	head := &StringColumn{
		values: make([]string, n),
		valid:  make([]bool, n),
	}
	copy(head.values, c.values[:n])
	copy(head.valid, c.valid[:n])
	head.recompute()
	return head
}

func (c *StringColumn) Stats() Stats {
	s := Stats{Count: len(c.values), NullCount: c.nulls}
	if c.nonNull() > 0 {
		s.Min, s.Max = c.min, c.max
	}
	return s
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	for _, s := range c.values {
		total += int64(len(s)) + 16
	}
	return total + int64(len(c.valid))
}

func (c *StringColumn) Serialize() ([]byte, Stats, error) {
	if len(c.values) == 0 {
		return []byte{}, c.Stats(), nil
	}
	var valid []bool
	if c.nulls > 0 {
		valid = c.valid
	}
	payload, _, err := codec.CompressStrings(c.values, valid)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, errors.TypeOf(err), "failed to serialize string column")
	}
	return payload, c.Stats(), nil
}

func decodeString(data []byte, count int) (*StringColumn, error) {
	values, valid, err := codec.DecompressStrings(data, count)
	if err != nil {
		return nil, err
	}
	if valid == nil {
		valid = make([]bool, count)
		for i := range valid {
			valid[i] = true
		}
	}
	c := &StringColumn{values: values, valid: valid}
	c.recompute()
	return c, nil
}
