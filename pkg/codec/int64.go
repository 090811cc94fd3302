package codec

import (
	"github.com/ajitpratap0/strata/internal/wire"
	"github.com/ajitpratap0/strata/pkg/bitpack"
)

// Int64 payload layout, little-endian:
//
//	[nonNullCount:u16]
//	[min:i64][max:i64]           iff nonNullCount > 0
//	[validity: ceil(n/8) bytes]  iff 0 < nonNullCount < n
//	[packed deltas]              iff nonNullCount > 0 and min != max
//
// Deltas are value-min for every non-null value in original order, packed with
// the width needed for max-min.

// zeroBase returns v-min as an unsigned offset. Two's complement wraparound
// makes the unsigned difference exact for every pair with v >= min, including
// ranges wider than math.MaxInt64.
func zeroBase(v, min int64) uint64 {
	return uint64(v) - uint64(min)
}

func fromZeroBase(delta uint64, min int64) int64 {
	return int64(uint64(min) + delta)
}

// Int64Size returns the payload size CompressInt64 would produce for a
// sequence of count items with the given stats.
func Int64Size(stats Stats[int64]) int {
	nonNull := stats.Count - stats.NullCount
	size := 2
	if nonNull == 0 {
		return size
	}
	size += 16
	if nonNull < stats.Count {
		size += (stats.Count + 7) / 8
	}
	if stats.Min != stats.Max {
		size += bitpack.PackedSize(nonNull, bitpack.BitsPerValue(zeroBase(stats.Max, stats.Min)))
	}
	return size
}

// Int64Stats scans a nullable sequence for its null count and non-null range.
func Int64Stats(values []int64, valid []bool) Stats[int64] {
	stats := Stats[int64]{Count: len(values)}
	seen := false
	for i, v := range values {
		if !isValid(valid, i) {
			stats.NullCount++
			continue
		}
		if !seen {
			stats.Min, stats.Max = v, v
			seen = true
			continue
		}
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	return stats
}

// CompressInt64 encodes a nullable sequence. valid may be nil when no item is
// null; otherwise valid[i] is false for null items and values[i] is ignored.
func CompressInt64(values []int64, valid []bool) ([]byte, Stats[int64], error) {
	if err := checkSequence("int64", len(values), valid); err != nil {
		return nil, Stats[int64]{}, err
	}

	stats := Int64Stats(values, valid)
	nonNull := stats.Count - stats.NullCount

	buf := make([]byte, Int64Size(stats))
	w := wire.NewWriter(buf)
	if err := w.Uint16(uint16(nonNull)); err != nil {
		return nil, stats, err
	}
	if nonNull == 0 {
		return w.Bytes(), stats, nil
	}

	if err := w.Int64(stats.Min); err != nil {
		return nil, stats, err
	}
	if err := w.Int64(stats.Max); err != nil {
		return nil, stats, err
	}

	if nonNull < stats.Count {
		bitmap, err := w.Window((stats.Count + 7) / 8)
		if err != nil {
			return nil, stats, err
		}
		packValidity(bitmap, valid)
	}

	if stats.Min == stats.Max {
		return w.Bytes(), stats, nil
	}

	width := bitpack.BitsPerValue(zeroBase(stats.Max, stats.Min))
	deltas := make([]uint64, 0, nonNull)
	for i, v := range values {
		if isValid(valid, i) {
			deltas = append(deltas, zeroBase(v, stats.Min))
		}
	}
	packed, err := w.Window(bitpack.PackedSize(nonNull, width))
	if err != nil {
		return nil, stats, err
	}
	bitpack.PackInto(packed, deltas, width)

	return w.Bytes(), stats, nil
}

// DecompressInt64 decodes a payload produced for count items. The returned
// validity mask is nil when no item is null. Null slots hold zero.
func DecompressInt64(data []byte, count int) ([]int64, []bool, error) {
	if err := checkCount("int64", count); err != nil {
		return nil, nil, err
	}

	r := wire.NewReader(data)
	n, err := r.Uint16()
	if err != nil {
		return nil, nil, err
	}
	nonNull := int(n)
	if nonNull > count {
		return nil, nil, corruptf("int64", "non-null count %d exceeds item count %d", nonNull, count)
	}

	values := make([]int64, count)

	// All null: nothing else is stored.
	if nonNull == 0 {
		return values, make([]bool, count), expectConsumed("int64", r.Remaining())
	}

	min, err := r.Int64()
	if err != nil {
		return nil, nil, err
	}
	max, err := r.Int64()
	if err != nil {
		return nil, nil, err
	}
	if max < min {
		return nil, nil, corruptf("int64", "maximum %d below minimum %d", max, min)
	}

	var valid []bool
	if nonNull < count {
		bitmap, err := r.Window((count + 7) / 8)
		if err != nil {
			return nil, nil, err
		}
		var set int
		valid, set, err = unpackValidity(bitmap, count)
		if err != nil {
			return nil, nil, err
		}
		if set != nonNull {
			return nil, nil, corruptf("int64", "validity bitmap marks %d items, header says %d", set, nonNull)
		}
	}

	// Single distinct value: no deltas are stored.
	if min == max {
		for i := range values {
			if isValid(valid, i) {
				values[i] = min
			}
		}
		return values, valid, expectConsumed("int64", r.Remaining())
	}

	width := bitpack.BitsPerValue(zeroBase(max, min))
	packed, err := r.Window(bitpack.PackedSize(nonNull, width))
	if err != nil {
		return nil, nil, err
	}
	deltas := make([]uint64, nonNull)
	if err := bitpack.UnpackInto(deltas, packed, width); err != nil {
		return nil, nil, err
	}

	next := 0
	for i := range values {
		if isValid(valid, i) {
			values[i] = fromZeroBase(deltas[next], min)
			next++
		}
	}
	return values, valid, expectConsumed("int64", r.Remaining())
}
