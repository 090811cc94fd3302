package columnar

import (
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/schema"
)

// Operator is a comparison applied by Filter.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

var operatorSymbols = [...]string{
	Equal:          "=",
	NotEqual:       "!=",
	Less:           "<",
	LessOrEqual:    "<=",
	Greater:        ">",
	GreaterOrEqual: ">=",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorSymbols) {
		return "?"
	}
	return operatorSymbols[op]
}

// Ordering reports whether op compares order rather than identity.
func (op Operator) Ordering() bool {
	return op != Equal && op != NotEqual
}

// ParseOperator accepts the symbols printed by Operator.String plus "==" and "<>".
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "=", "==":
		return Equal, nil
	case "!=", "<>":
		return NotEqual, nil
	case "<":
		return Less, nil
	case "<=":
		return LessOrEqual, nil
	case ">":
		return Greater, nil
	case ">=":
		return GreaterOrEqual, nil
	}
	return 0, errors.Newf(errors.ErrorTypeValidation, "unknown operator %q", s)
}

// Stats summarizes a column. Min and Max hold the column's Go value type and
// are nil when every record is null.
type Stats struct {
	Count     int         `json:"count"`
	NullCount int         `json:"null_count"`
	Min       interface{} `json:"min"`
	Max       interface{} `json:"max"`
}

// Reader is the read-only view of a column. Decoded columns of a read-only
// block are only ever exposed through it.
type Reader interface {
	Type() schema.Type
	RecordCount() int

	// Get returns the value at record i, or nil when it is null.
	Get(i int) interface{}

	// Filter returns, in increasing order, the indexes of records for which
	// "record op value" holds. Null records never match a non-nil value;
	// Equal(nil) selects null records and NotEqual(nil) non-null ones.
	Filter(op Operator, value interface{}) ([]uint32, error)

	Stats() Stats
	MemoryUsage() int64
}

// Column is a mutable, typed column owned by a block builder.
type Column interface {
	Reader

	// Append adds one value. nil appends a null on nullable columns.
	Append(value interface{}) error

	// Reorder rearranges records so that record i becomes the former record
	// perm[i]. perm must be a permutation of [0, RecordCount).
	Reorder(perm []int) error

	// DeleteRecords removes the records at the given strictly increasing
	// indexes, compacting survivors in place.
	DeleteRecords(indexes []int) error

	// Head returns an independent copy of the first n records.
	Head(n int) Column

	// Serialize encodes the column with its codec.
	Serialize() ([]byte, Stats, error)
}

func typeMismatch(t schema.Type, value interface{}) error {
	return errors.Newf(errors.ErrorTypeValidation, "value of type %T does not match %s column", value, t).
		WithDetail("column_type", string(t))
}

func nullRejected(t schema.Type) error {
	return errors.Newf(errors.ErrorTypeValidation, "null value for non-nullable %s column", t).
		WithDetail("column_type", string(t))
}

func nullOrdering(op Operator) error {
	return errors.Newf(errors.ErrorTypeValidation, "operator %s cannot compare against null", op)
}

func validatePermutation(perm []int, count int) error {
	if len(perm) != count {
		return errors.Newf(errors.ErrorTypeValidation,
			"permutation has %d entries for %d records", len(perm), count)
	}
	seen := make([]bool, count)
	for _, p := range perm {
		if p < 0 || p >= count || seen[p] {
			return errors.Newf(errors.ErrorTypeValidation, "permutation entry %d is out of range or repeated", p)
		}
		seen[p] = true
	}
	return nil
}

func validateDeletes(indexes []int, count int) error {
	prev := -1
	for _, idx := range indexes {
		if idx <= prev || idx >= count {
			return errors.Newf(errors.ErrorTypeValidation,
				"delete index %d is out of range or not strictly increasing", idx).
				WithDetail("record_count", count)
		}
		prev = idx
	}
	return nil
}

// compact shifts survivors of values left past the deleted indexes and
// returns the shortened slice. indexes must already be validated.
func compact[T any](values []T, indexes []int) []T {
	if len(indexes) == 0 {
		return values
	}
	write := indexes[0]
	next := 0
	for read := indexes[0]; read < len(values); read++ {
		if next < len(indexes) && indexes[next] == read {
			next++
			continue
		}
		values[write] = values[read]
		write++
	}
	var zero T
	for i := write; i < len(values); i++ {
		values[i] = zero
	}
	return values[:write]
}

func permute[T any](values []T, perm []int) []T {
	out := make([]T, len(values))
	for i, p := range perm {
		out[i] = values[p]
	}
	return out
}
