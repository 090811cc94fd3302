package bitpack

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsPerValue(t *testing.T) {
	tests := []struct {
		maximum  uint64
		expected int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{63, 6},
		{64, 7},
		{255, 8},
		{65535, 16},
		{1 << 40, 41},
		{math.MaxUint64, 64},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, BitsPerValue(test.maximum), "maximum %d", test.maximum)
	}
}

func TestPackedSize(t *testing.T) {
	assert.Equal(t, 0, PackedSize(10, 0))
	assert.Equal(t, 1, PackedSize(3, 2))
	assert.Equal(t, 2, PackedSize(3, 3))
	assert.Equal(t, 8, PackedSize(1, 64))
	assert.Equal(t, 15, PackedSize(20, 6))
}

func TestPackLayoutIsLSBFirst(t *testing.T) {
	packed := Pack([]uint64{5, 2, 7}, 7)
	// 5=101, 2=010, 7=111 -> bit stream 1,0,1, 0,1,0, 1,1,1
	assert.Equal(t, []byte{0b11010101, 0b00000001}, packed)
}

func TestPackZeroWidth(t *testing.T) {
	packed := Pack([]uint64{0, 0, 0}, 0)
	assert.Empty(t, packed)

	values, err := Unpack(packed, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0, 0}, values)
}

func TestPackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, width := range []int{0, 1, 6, 8, 16, 33, 64} {
		var maximum uint64
		if width == 64 {
			maximum = math.MaxUint64
		} else {
			maximum = (uint64(1) << uint(width)) - 1
		}

		for _, count := range []int{1, 7, 8, 9, 100, 1000} {
			values := make([]uint64, count)
			for i := range values {
				if maximum > 0 {
					values[i] = rng.Uint64() % maximum
				}
			}
			values[count-1] = maximum

			packed := Pack(values, maximum)
			require.Len(t, packed, PackedSize(count, width))

			got, err := Unpack(packed, count, maximum)
			require.NoError(t, err)
			require.Equal(t, values, got, "width %d count %d", width, count)
		}
	}
}

func TestUnpackShortInput(t *testing.T) {
	_, err := Unpack([]byte{0xFF}, 3, 15)
	require.Error(t, err)
}
