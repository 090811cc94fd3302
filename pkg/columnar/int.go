package columnar

import (
	"math"
	"unsafe"

	"github.com/ajitpratap0/strata/pkg/codec"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

type integer interface {
	int32 | int64
}

// IntColumn stores 32 or 64-bit integers in a flat buffer. Nullable columns
// mark nulls with the type minimum, which is therefore not a storable value.
type IntColumn[T integer] struct {
	typ      schema.Type
	nullable bool
	lowest   T
	highest  T

	values []T
	nulls  int
	min    T
	max    T
}

// NewInt32Column creates an empty 32-bit column.
func NewInt32Column(nullable bool) *IntColumn[int32] {
	typ := schema.TypeInt32
	if nullable {
		typ = schema.TypeInt32Nullable
	}
	return &IntColumn[int32]{typ: typ, nullable: nullable, lowest: math.MinInt32, highest: math.MaxInt32}
}

// NewInt64Column creates an empty 64-bit column.
func NewInt64Column(nullable bool) *IntColumn[int64] {
	typ := schema.TypeInt64
	if nullable {
		typ = schema.TypeInt64Nullable
	}
	return &IntColumn[int64]{typ: typ, nullable: nullable, lowest: math.MinInt64, highest: math.MaxInt64}
}

func (c *IntColumn[T]) Type() schema.Type { return c.typ }
func (c *IntColumn[T]) RecordCount() int  { return len(c.values) }

func (c *IntColumn[T]) nonNull() int { return len(c.values) - c.nulls }

func (c *IntColumn[T]) isNull(x T) bool {
	return c.nullable && x == c.lowest
}

func (c *IntColumn[T]) Get(i int) interface{} {
	x := c.values[i]
	if c.isNull(x) {
		return nil
	}
	return x
}

// At returns the typed value at record i and whether it is non-null.
func (c *IntColumn[T]) At(i int) (T, bool) {
	x := c.values[i]
	return x, !c.isNull(x)
}

func (c *IntColumn[T]) coerce(value interface{}) (T, error) {
	var x T
	switch v := value.(type) {
	case T:
		x = v
	case int:
		if int64(v) < int64(c.lowest) || int64(v) > int64(c.highest) {
			return 0, errors.Newf(errors.ErrorTypeValidation, "value %d overflows %s column", v, c.typ)
		}
		x = T(v)
	default:
		return 0, typeMismatch(c.typ, value)
	}
	if c.isNull(x) {
		return 0, errors.Newf(errors.ErrorTypeValidation,
			"value %d is reserved as the null marker of %s columns", x, c.typ)
	}
	return x, nil
}

func (c *IntColumn[T]) Append(value interface{}) error {
	if value == nil {
		if !c.nullable {
			return nullRejected(c.typ)
		}
		c.values = append(c.values, c.lowest)
		c.nulls++
		return nil
	}

	x, err := c.coerce(value)
	if err != nil {
		return err
	}
	c.track(x)
	c.values = append(c.values, x)
	return nil
}

func (c *IntColumn[T]) track(x T) {
	if c.nonNull() == 0 {
		c.min, c.max = x, x
		return
	}
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
}

func (c *IntColumn[T]) recompute() {
	values := c.values
	c.values = c.values[:0]
	c.nulls = 0
	for _, x := range values {
		if c.isNull(x) {
			c.nulls++
		} else {
			c.track(x)
		}
		c.values = append(c.values, x)
	}
}

func (c *IntColumn[T]) Filter(op Operator, value interface{}) ([]uint32, error) {
	if value == nil {
		return c.filterNull(op)
	}
	v, err := c.coerce(value)
	if err != nil {
		return nil, err
	}
	if op < Equal || op > GreaterOrEqual {
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported operator %d for %s column", int(op), c.typ)
	}
	if c.nonNull() == 0 {
		return []uint32{}, nil
	}

	// Non-null values are never below c.min and the null marker always is,
	// so comparing against c.min excludes nulls.
	if op == NotEqual {
		out := make([]uint32, 0, len(c.values))
		for i, x := range c.values {
			if x != v && x >= c.min {
				out = append(out, uint32(i))
			}
		}
		return out, nil
	}

	lo, hi, ok := c.bounds(op, v)
	if !ok {
		return []uint32{}, nil
	}
	if lo < c.min {
		lo = c.min
	}
	if hi > c.max {
		hi = c.max
	}
	if lo > hi {
		return []uint32{}, nil
	}
	if lo == c.min && hi == c.max && c.nulls == 0 {
		return allRows(len(c.values)), nil
	}

	out := make([]uint32, 0)
	for i, x := range c.values {
		if x >= lo && x <= hi {
			out = append(out, uint32(i))
		}
	}
	return out, nil
}

// bounds maps an ordered comparison onto the closed range it accepts.
func (c *IntColumn[T]) bounds(op Operator, v T) (lo, hi T, ok bool) {
	switch op {
	case Equal:
		return v, v, true
	case Less:
		if v == c.lowest {
			return 0, 0, false
		}
		return c.lowest, v - 1, true
	case LessOrEqual:
		return c.lowest, v, true
	case Greater:
		if v == c.highest {
			return 0, 0, false
		}
		return v + 1, c.highest, true
	default:
		return v, c.highest, true
	}
}

func (c *IntColumn[T]) filterNull(op Operator) ([]uint32, error) {
	switch op {
	case Equal:
		out := make([]uint32, 0, c.nulls)
		if c.nulls == 0 {
			return out, nil
		}
		for i, x := range c.values {
			if x == c.lowest {
				out = append(out, uint32(i))
			}
		}
		return out, nil
	case NotEqual:
		if c.nulls == 0 {
			return allRows(len(c.values)), nil
		}
		out := make([]uint32, 0, c.nonNull())
		for i, x := range c.values {
			if x != c.lowest {
				out = append(out, uint32(i))
			}
		}
		return out, nil
	default:
		return nil, nullOrdering(op)
	}
}

func (c *IntColumn[T]) Reorder(perm []int) error {
	if err := validatePermutation(perm, len(c.values)); err != nil {
		return err
	}
	c.values = permute(c.values, perm)
	return nil
}

func (c *IntColumn[T]) DeleteRecords(indexes []int) error {
	if err := validateDeletes(indexes, len(c.values)); err != nil {
		return err
	}
	c.values = compact(c.values, indexes)
	c.recompute()
	return nil
}

func (c *IntColumn[T]) Head(n int) Column {
	if n > len(c.values) {
		n = len(c.values)
	}
	head := &IntColumn[T]{typ: c.typ, nullable: c.nullable, lowest: c.lowest, highest: c.highest}
	head.values = make([]T, n)
	copy(head.values, c.values[:n])
	head.recompute()
	return head
}

func (c *IntColumn[T]) Stats() Stats {
	s := Stats{Count: len(c.values), NullCount: c.nulls}
	if c.nonNull() > 0 {
		s.Min, s.Max = c.min, c.max
	}
	return s
}

func (c *IntColumn[T]) MemoryUsage() int64 {
	return int64(len(c.values)) * int64(unsafe.Sizeof(c.lowest))
}

func (c *IntColumn[T]) Serialize() ([]byte, Stats, error) {
	if len(c.values) == 0 {
		return []byte{}, c.Stats(), nil
	}
	wide := make([]int64, len(c.values))
	var valid []bool
	if c.nulls > 0 {
		valid = make([]bool, len(c.values))
	}
	for i, x := range c.values {
		if c.isNull(x) {
			continue
		}
		wide[i] = int64(x)
		if valid != nil {
			valid[i] = true
		}
	}

	payload, _, err := codec.CompressInt64(wide, valid)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, errors.TypeOf(err), "failed to serialize "+string(c.typ)+" column")
	}
	return payload, c.Stats(), nil
}

func decodeInt[T integer](c *IntColumn[T], data []byte, count int) (*IntColumn[T], error) {
	wide, valid, err := codec.DecompressInt64(data, count)
	if err != nil {
		return nil, err
	}

	c.values = make([]T, 0, count)
	for i, x := range wide {
		if valid != nil && !valid[i] {
			if !c.nullable {
				return nil, errors.Newf(errors.ErrorTypeCorrupt, "null at record %d of %s column", i, c.typ)
			}
			c.values = append(c.values, c.lowest)
			c.nulls++
			continue
		}
		v := T(x)
		if int64(v) != x || c.isNull(v) {
			return nil, errors.Newf(errors.ErrorTypeCorrupt, "value %d at record %d does not fit %s column", x, i, c.typ)
		}
		c.track(v)
		c.values = append(c.values, v)
	}
	return c, nil
}

func allRows(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
