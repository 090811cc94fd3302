// Package codec implements the bit-exact column payload formats used by Strata
// blocks: a null-aware delta/bit-packing codec for 64-bit integers and a
// dictionary codec for short, low-cardinality strings.
//
// Payloads carry no magic number or version tag. They are only meaningful when
// paired with the item count they were produced for, which the block keeps
// out of band.
package codec

import (
	"math"

	"github.com/ajitpratap0/strata/pkg/bitpack"
	"github.com/ajitpratap0/strata/pkg/errors"
)

// MaxItems is the largest sequence a payload can describe; item counts are
// stored in 16 bits.
const MaxItems = math.MaxUint16

// Stats is the out-of-band metadata produced alongside a payload.
type Stats[T any] struct {
	Count     int
	NullCount int
	Min       T
	Max       T
}

// HasNulls reports whether any item is null.
func (s Stats[T]) HasNulls() bool { return s.NullCount > 0 }

// AllNull reports whether every item is null. Min and Max are zero values then.
func (s Stats[T]) AllNull() bool { return s.NullCount == s.Count }

func checkSequence(kind string, count int, valid []bool) error {
	if count == 0 {
		return errors.New(errors.ErrorTypeValidation, "value sequence is empty").
			WithDetail("codec", kind)
	}
	if count > MaxItems {
		return errors.Newf(errors.ErrorTypeValidation,
			"sequence of %d items exceeds %d", count, MaxItems).
			WithDetail("codec", kind)
	}
	if valid != nil && len(valid) != count {
		return errors.Newf(errors.ErrorTypeValidation,
			"validity mask has %d entries for %d values", len(valid), count).
			WithDetail("codec", kind)
	}
	return nil
}

func checkCount(kind string, count int) error {
	if count <= 0 || count > MaxItems {
		return errors.Newf(errors.ErrorTypeValidation,
			"item count %d outside [1, %d]", count, MaxItems).
			WithDetail("codec", kind)
	}
	return nil
}

func isValid(valid []bool, i int) bool {
	return valid == nil || valid[i]
}

// packValidity writes one bit per item, set when the item is non-null.
func packValidity(dst []byte, valid []bool) {
	for i, ok := range valid {
		if ok {
			dst[i>>3] |= 1 << uint(i&7)
		}
	}
}

func unpackValidity(src []byte, count int) ([]bool, int, error) {
	bitsSet := make([]uint64, count)
	if err := bitpack.UnpackInto(bitsSet, src, 1); err != nil {
		return nil, 0, err
	}
	valid := make([]bool, count)
	nonNull := 0
	for i, b := range bitsSet {
		if b == 1 {
			valid[i] = true
			nonNull++
		}
	}
	return valid, nonNull, nil
}

func corruptf(kind, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeCorrupt, format, args...).WithDetail("codec", kind)
}

func expectConsumed(kind string, remaining int) error {
	if remaining != 0 {
		return errors.Newf(errors.ErrorTypeCorrupt, "%d trailing bytes after payload", remaining).
			WithDetail("codec", kind)
	}
	return nil
}
