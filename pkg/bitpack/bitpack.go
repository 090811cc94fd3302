// Package bitpack packs unsigned integers into the minimal number of bits
// needed to represent a known maximum value.
//
// Values are written least-significant bit first and laid out contiguously,
// so a value may straddle byte boundaries and a byte may hold bits from two
// consecutive values:
//
//	width=3, values=[5 2 7]
//	bits:   1 0 1 | 0 1 0 | 1 1 1
//	byte 0: 0b11_010_101
//	byte 1: 0b00000001
//
// A maximum of zero needs zero bits: packing produces no bytes and unpacking
// yields zeros.
package bitpack

import (
	"math/bits"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// BitsPerValue returns the number of bits needed for values in [0, maximum].
func BitsPerValue(maximum uint64) int {
	return bits.Len64(maximum)
}

// PackedSize returns the number of bytes needed to pack count values of the
// given width.
func PackedSize(count, width int) int {
	return (count*width + 7) / 8
}

// Pack packs values using the width implied by maximum. Values above maximum
// are truncated to their low bits.
func Pack(values []uint64, maximum uint64) []byte {
	width := BitsPerValue(maximum)
	dst := make([]byte, PackedSize(len(values), width))
	PackInto(dst, values, width)
	return dst
}

// PackInto packs values of the given width into dst, which must be zeroed and
// at least PackedSize(len(values), width) bytes long.
func PackInto(dst []byte, values []uint64, width int) {
	if width == 0 {
		return
	}

	var mask uint64 = ^uint64(0)
	if width < 64 {
		mask = (1 << uint(width)) - 1
	}

	bitPos := 0
	for _, v := range values {
		v &= mask
		remaining := width
		for remaining > 0 {
			shift := bitPos & 7
			dst[bitPos>>3] |= byte(v << uint(shift))
			written := 8 - shift
			if written > remaining {
				written = remaining
			}
			v >>= uint(written)
			remaining -= written
			bitPos += written
		}
	}
}

// Unpack reverses Pack, returning count values.
func Unpack(src []byte, count int, maximum uint64) ([]uint64, error) {
	dst := make([]uint64, count)
	if err := UnpackInto(dst, src, BitsPerValue(maximum)); err != nil {
		return nil, err
	}
	return dst, nil
}

// UnpackInto fills dst with len(dst) values of the given width read from src.
func UnpackInto(dst []uint64, src []byte, width int) error {
	if need := PackedSize(len(dst), width); len(src) < need {
		return errors.Newf(errors.ErrorTypeCorrupt,
			"packed section holds %d bytes, %d values of %d bits need %d", len(src), len(dst), width, need)
	}
	if width == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	bitPos := 0
	for i := range dst {
		var v uint64
		got := 0
		for got < width {
			shift := bitPos & 7
			take := 8 - shift
			if take > width-got {
				take = width - got
			}
			chunk := uint64(src[bitPos>>3]>>uint(shift)) & ((1 << uint(take)) - 1)
			v |= chunk << uint(got)
			got += take
			bitPos += take
		}
		dst[i] = v
	}
	return nil
}
