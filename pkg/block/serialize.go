package block

import (
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/internal/wire"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/metrics"
)

// MaxRecords is the largest record count a serialized block can hold.
const MaxRecords = math.MaxUint16

// lengthSize is the size of one entry of the payload length table.
const lengthSize = 2

// Serialize encodes the whole block.
func (b *Builder) Serialize() (*Serialized, error) {
	payloads, stats, err := b.encode(b.RecordCount())
	if err != nil {
		metrics.BlocksSerialized.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}

	data := make([]byte, frameSize(payloads))
	if _, err := writeFrame(data, payloads); err != nil {
		metrics.BlocksSerialized.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}

	metrics.BlocksSerialized.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.SerializedBytes.Observe(float64(len(data)))
	return &Serialized{Data: data, RecordCount: b.RecordCount(), Columns: stats}, nil
}

// SerializeTo encodes the whole block into dst and returns the number of
// bytes written. A dst shorter than the encoding is a capacity error and
// leaves dst unmodified.
func (b *Builder) SerializeTo(dst []byte) (int, error) {
	payloads, _, err := b.encode(b.RecordCount())
	if err != nil {
		metrics.BlocksSerialized.WithLabelValues(metrics.StatusFailure).Inc()
		return 0, err
	}

	size := frameSize(payloads)
	if size > len(dst) {
		metrics.BlocksSerialized.WithLabelValues(metrics.StatusFailure).Inc()
		return 0, errors.Newf(errors.ErrorTypeCapacity,
			"block needs %d bytes, destination holds %d", size, len(dst)).
			WithDetail("record_count", b.RecordCount())
	}

	n, err := writeFrame(dst, payloads)
	if err != nil {
		metrics.BlocksSerialized.WithLabelValues(metrics.StatusFailure).Inc()
		return 0, err
	}
	metrics.BlocksSerialized.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.SerializedBytes.Observe(float64(n))
	return n, nil
}

// SerializedSize returns the size Serialize would produce.
func (b *Builder) SerializedSize() (int, error) {
	return b.sizeAt(b.RecordCount())
}

// sizeAt returns the serialized size of the first n records.
func (b *Builder) sizeAt(n int) (int, error) {
	payloads, _, err := b.encode(n)
	if err != nil {
		return 0, err
	}
	return frameSize(payloads), nil
}

// encode serializes the first n records of every column.
func (b *Builder) encode(n int) ([][]byte, []columnar.Stats, error) {
	if n > MaxRecords {
		return nil, nil, errors.Newf(errors.ErrorTypeCapacity,
			"block holds %d records, more than %d", n, MaxRecords)
	}

	cols := b.all()
	payloads := make([][]byte, len(cols))
	stats := make([]columnar.Stats, len(cols))
	for i, col := range cols {
		if n < col.RecordCount() {
			col = col.Head(n)
		}
		data, st, err := col.Serialize()
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.TypeOf(err), "failed to serialize column").
				WithDetail("column", b.columnName(i))
		}
		if len(data) > math.MaxUint16 {
			b.logger.Debug("column payload exceeds length table",
				zap.String("column", b.columnName(i)),
				zap.Int("bytes", len(data)))
			return nil, nil, errors.Newf(errors.ErrorTypeCapacity,
				"column payload of %d bytes exceeds %d", len(data), math.MaxUint16).
				WithDetail("column", b.columnName(i))
		}
		payloads[i], stats[i] = data, st
	}
	return payloads, stats, nil
}

func frameSize(payloads [][]byte) int {
	size := lengthSize * len(payloads)
	for _, p := range payloads {
		size += len(p)
	}
	return size
}

func writeFrame(dst []byte, payloads [][]byte) (int, error) {
	w := wire.NewWriter(dst)
	for _, p := range payloads {
		if err := w.Uint16(uint16(len(p))); err != nil {
			return 0, err
		}
	}
	for _, p := range payloads {
		if err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return w.Len(), nil
}

// splitFrame returns the column payloads of a serialized block.
func splitFrame(data []byte, columns int) ([][]byte, error) {
	r := wire.NewReader(data)
	lengths := make([]int, columns)
	for i := range lengths {
		n, err := r.Uint16()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCorrupt, "truncated payload length table").
				WithDetail("columns", columns)
		}
		lengths[i] = int(n)
	}

	payloads := make([][]byte, columns)
	for i, n := range lengths {
		p, err := r.Window(n)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCorrupt, "column payload runs past the block").
				WithDetail("column", i)
		}
		payloads[i] = p
	}
	if r.Remaining() != 0 {
		return nil, errors.Newf(errors.ErrorTypeCorrupt, "%d trailing bytes after the last column", r.Remaining())
	}
	return payloads, nil
}
