package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

func payload(n int) []byte {
	rng := testutil.Rand(int64(n))
	data := make([]byte, n)
	for i := range data {
		// Low entropy so every algorithm has something to find.
		data[i] = byte('a' + rng.Intn(4))
	}
	return data
}

func TestRoundTrip(t *testing.T) {
	for _, algo := range Algorithms {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			comp, err := NewCompressor(&Config{Algorithm: algo, Level: level})
			require.NoError(t, err)
			assert.Equal(t, algo, comp.Algorithm())
			assert.Equal(t, level, comp.Level())

			for _, size := range []int{0, 1, 100, 4096, 70000} {
				data := payload(size)
				packed, err := comp.Compress(nil, data)
				require.NoError(t, err, "%s/%s/%d", algo, level, size)

				raw := make([]byte, size)
				require.NoError(t, comp.Decompress(raw, packed), "%s/%s/%d", algo, level, size)
				assert.True(t, bytes.Equal(data, raw), "%s/%s/%d", algo, level, size)
			}
		}
	}
}

func TestCompressAppends(t *testing.T) {
	data := payload(1000)
	for _, algo := range Algorithms {
		comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
		require.NoError(t, err)

		prefix := []byte{0xde, 0xad}
		out, err := comp.Compress(prefix, data)
		require.NoError(t, err)
		require.Equal(t, prefix, out[:2], "%s", algo)

		raw := make([]byte, len(data))
		require.NoError(t, comp.Decompress(raw, out[2:]), "%s", algo)
		assert.Equal(t, data, raw)
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := payload(512)
	for _, algo := range Algorithms {
		comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
		require.NoError(t, err)
		packed, err := comp.Compress(nil, data)
		require.NoError(t, err)

		err = comp.Decompress(make([]byte, len(data)-1), packed)
		require.Error(t, err, "%s short", algo)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt), "%s short", algo)

		err = comp.Decompress(make([]byte, len(data)+1), packed)
		require.Error(t, err, "%s long", algo)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt), "%s long", algo)
	}
}

func TestDecompressBoundedOutput(t *testing.T) {
	large := make([]byte, 4<<20)
	for _, algo := range Algorithms {
		if algo == None {
			continue
		}
		comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
		require.NoError(t, err)
		packed, err := comp.Compress(nil, large)
		require.NoError(t, err)

		dst := make([]byte, 16, 32)
		err = comp.Decompress(dst, packed)
		require.Error(t, err, "%s", algo)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt), "%s", algo)
	}

	// A second frame after the expected output is rejected.
	comp, err := NewCompressor(&Config{Algorithm: Zstd, Level: Default})
	require.NoError(t, err)
	data := payload(256)
	packed, err := comp.Compress(nil, data)
	require.NoError(t, err)
	packed, err = comp.Compress(packed, data)
	require.NoError(t, err)
	err = comp.Decompress(make([]byte, len(data)), packed)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt))

	// Decoders are reused across calls.
	for i := 0; i < 3; i++ {
		single, err := comp.Compress(nil, data)
		require.NoError(t, err)
		raw := make([]byte, len(data))
		require.NoError(t, comp.Decompress(raw, single))
		assert.Equal(t, data, raw)
	}
}

func TestDecompressGarbage(t *testing.T) {
	garbage := []byte("definitely not a compressed stream")
	for _, algo := range Algorithms {
		if algo == None {
			continue
		}
		comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
		require.NoError(t, err)
		err = comp.Decompress(make([]byte, 64), garbage)
		require.Error(t, err, "%s", algo)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorrupt), "%s", algo)
	}
}

func TestParse(t *testing.T) {
	a, err := ParseAlgorithm("lz4")
	require.NoError(t, err)
	assert.Equal(t, LZ4, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	l, err := ParseLevel("better")
	require.NoError(t, err)
	assert.Equal(t, Better, l)
	assert.Equal(t, "better", l.String())
	assert.Equal(t, "level(3)", Level(3).String())

	_, err = ParseLevel("max")
	require.Error(t, err)

	_, err = NewCompressor(&Config{Algorithm: "brotli"})
	require.Error(t, err)

	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Zstd, comp.Algorithm())
}

func BenchmarkCompress(b *testing.B) {
	data := payload(64 * 1024)
	for _, algo := range Algorithms {
		comp, err := NewCompressor(&Config{Algorithm: algo, Level: Default})
		require.NoError(b, err)
		b.Run(string(algo), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			buf := make([]byte, 0, len(data)*2)
			for i := 0; i < b.N; i++ {
				if _, err := comp.Compress(buf[:0], data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
