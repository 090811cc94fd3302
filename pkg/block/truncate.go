package block

import (
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/metrics"
)

// sample is a measured (record count, serialized size) point.
type sample struct {
	records int
	size    int
}

// TruncateBlock moves the longest prefix of records whose serialized size
// does not exceed maxSize into a new builder and deletes it from b.
//
// Sizes are sampled at a seed record count and refined by secant steps
// through the last two samples, keeping the largest fitting sample as a lower
// bound and the smallest oversized one as an upper bound. The search stops
// once the lower bound is within the tolerance of maxSize, the bounds are
// adjacent or the iteration cap is reached.
//
// A single record that does not fit is a capacity error.
func (b *Builder) TruncateBlock(maxSize int) (*Builder, error) {
	timer := metrics.NewTimer("truncate")
	defer timer.ObserveLatency()

	total := b.RecordCount()
	if total == 0 {
		return b.head(0), nil
	}

	one, err := b.sizeAt(1)
	if err != nil {
		return nil, err
	}
	if one > maxSize {
		metrics.TruncationFailures.WithLabelValues("record_too_large").Inc()
		b.logger.Error("record exceeds block size",
			zap.Int("record_size", one),
			zap.Int("max_size", maxSize))
		return nil, errors.Newf(errors.ErrorTypeCapacity,
			"a single record needs %d bytes, block budget is %d", one, maxSize).
			WithDetail("record_size", one).
			WithDetail("max_size", maxSize)
	}

	n, iterations, err := b.search(maxSize, one)
	metrics.TruncationIterations.Observe(float64(iterations))
	if err != nil {
		metrics.TruncationFailures.WithLabelValues("invariant").Inc()
		b.logger.Error("truncation search failed", zap.Error(err))
		return nil, err
	}

	head := b.head(n)
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	if err := b.DeleteRecordsByRecordIndex(indexes); err != nil {
		return nil, err
	}

	b.logger.Debug("truncated block",
		zap.Int("records", n),
		zap.Int("remaining", b.RecordCount()),
		zap.Int("iterations", iterations))
	return head, nil
}

// search returns the accepted record count and the number of interpolation
// steps taken after the seed.
func (b *Builder) search(maxSize, one int) (int, int, error) {
	opts := b.opts.truncate
	limit := b.RecordCount()
	if limit > MaxRecords {
		limit = MaxRecords
	}

	empty, err := b.sizeAt(0)
	if err != nil {
		return 0, 0, err
	}

	lower := sample{records: 1, size: one}
	upper := sample{records: limit + 1, size: math.MaxInt}

	seed := opts.SeedRecords
	if seed < 1 {
		seed = 1
	}
	if seed > limit {
		seed = limit
	}
	cur, err := b.measure(seed, maxSize)
	if err != nil {
		return 0, 0, err
	}
	prev := sample{records: 0, size: empty}
	if cur.size <= maxSize {
		lower = cur
		if cur.records == limit {
			return cur.records, 0, nil
		}
	} else {
		upper = cur
	}

	target := float64(maxSize) * (1 - opts.Tolerance)
	iterations := 0
	for iterations < opts.MaxIterations {
		if float64(lower.size) >= target || upper.records-lower.records <= 1 {
			break
		}
		next := secant(prev, cur, maxSize, lower, upper)
		if next <= lower.records || next >= upper.records {
			return 0, iterations, errors.Newf(errors.ErrorTypeInvariant,
				"truncation candidate %d outside bounds (%d, %d)", next, lower.records, upper.records)
		}

		s, err := b.measure(next, maxSize)
		if err != nil {
			return 0, iterations, err
		}
		iterations++
		b.logger.Debug("truncation step",
			zap.Int("iteration", iterations),
			zap.Int("records", s.records),
			zap.Int("size", s.size),
			zap.Int("lower", lower.records),
			zap.Int("upper", upper.records))

		if s.size <= maxSize {
			lower = s
		} else {
			upper = s
		}
		if s.size != math.MaxInt {
			prev, cur = cur, s
		}
	}
	return lower.records, iterations, nil
}

// measure returns the serialized size of the first n records. A prefix whose
// column payload overflows the length table is reported as not fitting.
func (b *Builder) measure(n, maxSize int) (sample, error) {
	size, err := b.sizeAt(n)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeCapacity) {
			return sample{records: n, size: math.MaxInt}, nil
		}
		return sample{}, err
	}
	return sample{records: n, size: size}, nil
}

// secant predicts the record count whose size equals maxSize from the line
// through prev and cur. It bisects (lower, upper) when the line is flat or
// unknown, or when the prediction falls outside the bounds. The latter
// happens once a column payload overflows its length field before maxSize is
// reached, so the line no longer describes the fitting region.
func secant(prev, cur sample, maxSize int, lower, upper sample) int {
	known := cur.size != math.MaxInt && prev.size != math.MaxInt
	if known && cur.size != prev.size && cur.records != prev.records {
		slope := float64(cur.size-prev.size) / float64(cur.records-prev.records)
		predicted := float64(prev.records) + math.Floor(float64(maxSize-prev.size)/slope)
		if predicted > float64(lower.records) && predicted < float64(upper.records) {
			return int(predicted)
		}
	}
	return lower.records + (upper.records-lower.records)/2
}
