// Package testutil provides testing utilities for Strata: loggers, contexts
// and deterministic value generators for column and block tests.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Rand returns a generator with a fixed seed so failures are reproducible.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Int64s returns n int64 values in [lo, hi], with roughly nullRate of them
// replaced by nil.
func Int64s(rng *rand.Rand, n int, lo, hi int64, nullRate float64) []interface{} {
	out := make([]interface{}, n)
	span := uint64(hi - lo)
	for i := range out {
		if rng.Float64() < nullRate {
			continue
		}
		var off uint64
		if span == ^uint64(0) {
			off = rng.Uint64()
		} else {
			off = rng.Uint64() % (span + 1)
		}
		out[i] = int64(uint64(lo) + off)
	}
	return out
}

// Int32s is Int64s for 32-bit values.
func Int32s(rng *rand.Rand, n int, lo, hi int32, nullRate float64) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		if rng.Float64() < nullRate {
			continue
		}
		out[i] = lo + int32(rng.Int63n(int64(hi)-int64(lo)+1))
	}
	return out
}

// Strings returns n values drawn from cardinality distinct strings, with
// roughly nullRate of them nil.
func Strings(rng *rand.Rand, n, cardinality int, nullRate float64) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		if rng.Float64() < nullRate {
			continue
		}
		out[i] = fmt.Sprintf("value-%04d", rng.Intn(cardinality))
	}
	return out
}

// Bools returns n booleans with roughly nullRate of them nil.
func Bools(rng *rand.Rand, n int, nullRate float64) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		if rng.Float64() < nullRate {
			continue
		}
		out[i] = rng.Intn(2) == 1
	}
	return out
}

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
