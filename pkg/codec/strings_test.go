package codec

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestCompressStringsDictionary(t *testing.T) {
	values := []string{"Bob", "Alice", "Bob"}

	payload, stats, err := CompressStrings(values, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stats.Min)
	assert.Equal(t, "Bob", stats.Max)
	assert.Zero(t, stats.NullCount)

	// unique=2, seqLen=len("Alice")+1+len("Bob")+1, max byte 'o'.
	assert.Equal(t, []byte{2, 0, 10, 0, 'o'}, payload[:5])

	got, valid, err := DecompressStrings(payload, len(values))
	require.NoError(t, err)
	assert.Nil(t, valid)
	assert.Equal(t, values, got)
}

func TestCompressStringsNulls(t *testing.T) {
	values := []string{"", "x", "", "y", ""}
	valid := []bool{false, true, true, true, false}

	payload, stats, err := CompressStrings(values, valid)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NullCount)
	assert.Equal(t, "", stats.Min)
	assert.Equal(t, "y", stats.Max)

	got, gotValid, err := DecompressStrings(payload, len(values))
	require.NoError(t, err)
	assert.Equal(t, valid, gotValid)
	assert.Equal(t, values, got)
}

func TestCompressStringsAllNull(t *testing.T) {
	payload, stats, err := CompressStrings([]string{"", ""}, []bool{false, false})
	require.NoError(t, err)
	assert.True(t, stats.AllNull())
	assert.Equal(t, []byte{0, 0}, payload)

	got, valid, err := DecompressStrings(payload, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, valid)
	assert.Equal(t, []string{"", ""}, got)
}

func TestCompressStringsBinaryBytes(t *testing.T) {
	values := []string{"\x00", "\xff\xfe", "héllo", "\x00"}

	payload, stats, err := CompressStrings(values, nil)
	require.NoError(t, err)
	assert.Equal(t, "\x00", stats.Min)
	assert.Equal(t, "\xff\xfe", stats.Max)

	got, _, err := DecompressStrings(payload, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestCompressStringsRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, cardinality := range []int{1, 2, 17, 300} {
		count := 2000
		values := make([]string, count)
		valid := make([]bool, count)
		for i := range values {
			valid[i] = rng.Intn(4) != 0
			if valid[i] {
				values[i] = fmt.Sprintf("v-%03d", rng.Intn(cardinality))
			}
		}

		payload, stats, err := CompressStrings(values, valid)
		require.NoError(t, err)

		got, gotValid, err := DecompressStrings(payload, count)
		require.NoError(t, err)
		if gotValid == nil {
			gotValid = make([]bool, count)
			for i := range gotValid {
				gotValid[i] = true
			}
		}
		require.Equal(t, valid, gotValid)
		require.Equal(t, values, got)

		decoded, _ := StringStats(got, gotValid)
		require.Equal(t, stats, decoded)
	}
}

func TestCompressStringsDictionaryTooLarge(t *testing.T) {
	values := make([]string, 300)
	for i := range values {
		values[i] = fmt.Sprintf("%0250d", i)
	}

	_, _, err := CompressStrings(values, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapacity))
}

func TestCompressStringsInvalidInput(t *testing.T) {
	_, _, err := CompressStrings(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, _, err = CompressStrings(make([]string, MaxItems+1), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDecompressStringsCorrupt(t *testing.T) {
	payload, _, err := CompressStrings([]string{"a", "b", "c"}, nil)
	require.NoError(t, err)

	// Claim four unique values but only three are present.
	bad := append([]byte(nil), payload...)
	bad[0] = 4
	_, _, err = DecompressStrings(bad, 3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))

	_, _, err = DecompressStrings(payload[:4], 3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))
}
