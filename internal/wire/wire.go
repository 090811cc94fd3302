// Package wire provides little-endian writer and reader windows over
// borrowed byte slices. Both are bounds-checked and never allocate: the
// writer fills a caller-provided slice and the reader hands out sub-slices
// of its input.
package wire

import (
	"encoding/binary"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Writer appends little-endian values into a fixed-capacity slice.
type Writer struct {
	buf []byte
	off int
}

// NewWriter returns a writer over buf. Writes never grow buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.off }

// Bytes returns the written prefix of the underlying slice.
func (w *Writer) Bytes() []byte { return w.buf[:w.off] }

func (w *Writer) reserve(n int) ([]byte, error) {
	if w.off+n > len(w.buf) {
		return nil, errors.Newf(errors.ErrorTypeCapacity,
			"write of %d bytes at offset %d exceeds capacity %d", n, w.off, len(w.buf))
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b, nil
}

// Uint8 writes a single byte.
func (w *Writer) Uint8(v uint8) error {
	b, err := w.reserve(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// Uint16 writes v as two little-endian bytes.
func (w *Writer) Uint16(v uint16) error {
	b, err := w.reserve(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

// Uint32 writes v as four little-endian bytes.
func (w *Writer) Uint32(v uint32) error {
	b, err := w.reserve(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// Int64 writes v as eight little-endian bytes.
func (w *Writer) Int64(v int64) error {
	b, err := w.reserve(8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, uint64(v))
	return nil
}

// Window reserves n bytes and returns them for the caller to fill in place.
func (w *Writer) Window(n int) ([]byte, error) {
	return w.reserve(n)
}

// Write copies p into the buffer.
func (w *Writer) Write(p []byte) error {
	b, err := w.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// Reader consumes little-endian values from a borrowed slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, errors.Newf(errors.ErrorTypeCorrupt,
			"read of %d bytes at offset %d exceeds payload of %d bytes", n, r.off, len(r.buf))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads two little-endian bytes.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads four little-endian bytes.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int64 reads eight little-endian bytes.
func (r *Reader) Int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// Window returns the next n bytes without copying.
func (r *Reader) Window(n int) ([]byte, error) {
	return r.take(n)
}
