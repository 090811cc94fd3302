package codec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func nullable(values ...interface{}) ([]int64, []bool) {
	out := make([]int64, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		out[i] = int64(v.(int))
		valid[i] = true
	}
	return out, valid
}

func TestCompressInt64WithNulls(t *testing.T) {
	values, valid := nullable(1, nil, 3, 4, nil)

	payload, stats, err := CompressInt64(values, valid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Min)
	assert.Equal(t, int64(4), stats.Max)
	assert.Equal(t, 2, stats.NullCount)
	assert.Equal(t, Int64Size(stats), len(payload))

	// nonNull=3, min, max, one bitmap byte, 3 deltas of 2 bits.
	assert.Len(t, payload, 2+16+1+1)
	assert.Equal(t, byte(0b00001101), payload[18])

	got, gotValid, err := DecompressInt64(payload, len(values))
	require.NoError(t, err)
	assert.Equal(t, valid, gotValid)
	assert.Equal(t, values, got)
}

func TestCompressInt64ExtremeNullRegimes(t *testing.T) {
	t.Run("all null", func(t *testing.T) {
		values, valid := nullable(nil, nil, nil)
		payload, stats, err := CompressInt64(values, valid)
		require.NoError(t, err)
		assert.True(t, stats.AllNull())
		assert.Equal(t, []byte{0, 0}, payload)

		got, gotValid, err := DecompressInt64(payload, 3)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, false}, gotValid)
		assert.Equal(t, []int64{0, 0, 0}, got)
	})

	t.Run("single distinct value", func(t *testing.T) {
		values := []int64{7, 7, 7, 7}
		payload, stats, err := CompressInt64(values, nil)
		require.NoError(t, err)
		assert.False(t, stats.HasNulls())
		assert.Len(t, payload, 2+16)

		got, gotValid, err := DecompressInt64(payload, len(values))
		require.NoError(t, err)
		assert.Nil(t, gotValid)
		assert.Equal(t, values, got)
	})

	t.Run("single value with nulls", func(t *testing.T) {
		values, valid := nullable(nil, 9, nil, 9)
		payload, _, err := CompressInt64(values, valid)
		require.NoError(t, err)
		assert.Len(t, payload, 2+16+1)

		got, gotValid, err := DecompressInt64(payload, len(values))
		require.NoError(t, err)
		assert.Equal(t, valid, gotValid)
		assert.Equal(t, values, got)
	})
}

func TestCompressInt64FullRange(t *testing.T) {
	values := []int64{math.MaxInt64, math.MinInt64, 0, -1, 1, math.MaxInt64 - 1}

	payload, stats, err := CompressInt64(values, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), stats.Min)
	assert.Equal(t, int64(math.MaxInt64), stats.Max)

	got, _, err := DecompressInt64(payload, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestCompressInt64RoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, spread := range []int64{1, 2, 100, 1 << 20, math.MaxInt64} {
		for _, count := range []int{1, 9, 1000, MaxItems} {
			values := make([]int64, count)
			valid := make([]bool, count)
			for i := range values {
				valid[i] = rng.Intn(5) != 0
				values[i] = rng.Int63n(spread) - spread/2
				if !valid[i] {
					values[i] = 0
				}
			}

			payload, stats, err := CompressInt64(values, valid)
			require.NoError(t, err)

			got, gotValid, err := DecompressInt64(payload, count)
			require.NoError(t, err)
			if gotValid == nil {
				gotValid = make([]bool, count)
				for i := range gotValid {
					gotValid[i] = true
				}
			}
			require.Equal(t, valid, gotValid)
			require.Equal(t, values, got)

			decoded := Int64Stats(got, gotValid)
			require.Equal(t, stats, decoded)
		}
	}
}

func TestCompressInt64InvalidInput(t *testing.T) {
	_, _, err := CompressInt64(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, _, err = CompressInt64(make([]int64, MaxItems+1), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, _, err = CompressInt64([]int64{1, 2}, []bool{true})
	require.Error(t, err)
	assert.True(t, errors.IsCallerError(err))
}

func TestDecompressInt64Corrupt(t *testing.T) {
	payload, _, err := CompressInt64([]int64{1, 5, 9}, nil)
	require.NoError(t, err)

	_, _, err = DecompressInt64(payload[:len(payload)-1], 3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))

	_, _, err = DecompressInt64(payload, 2)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))

	_, _, err = DecompressInt64(payload, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
