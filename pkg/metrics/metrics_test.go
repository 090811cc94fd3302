package metrics

import (
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := promtest.ToFloat64(BlocksSerialized.WithLabelValues(StatusFailure))
	BlocksSerialized.WithLabelValues(StatusFailure).Inc()
	assert.Equal(t, before+1, promtest.ToFloat64(BlocksSerialized.WithLabelValues(StatusFailure)))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("test_op")
	time.Sleep(time.Millisecond)
	d := timer.ObserveLatency()

	assert.Equal(t, "test_op", timer.Name())
	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.Positive(t, promtest.CollectAndCount(OperationLatency))
}

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("test_op")
	tracker.Increment(500)
	time.Sleep(time.Millisecond)

	rate := tracker.GetAndReset()
	assert.Positive(t, rate)
	assert.Equal(t, rate, promtest.ToFloat64(Throughput.WithLabelValues("test_op")))

	time.Sleep(time.Millisecond)
	assert.Zero(t, tracker.GetAndReset())
}

func TestLatencyTracker(t *testing.T) {
	tracker := NewLatencyTracker(4)
	assert.Zero(t, tracker.GetPercentile(50))

	for _, ms := range []int{9, 1, 5, 3, 7} {
		tracker.Record(time.Duration(ms) * time.Millisecond)
	}

	// the oldest sample (9ms) was evicted
	assert.Equal(t, time.Millisecond, tracker.GetPercentile(0))
	assert.Equal(t, 5*time.Millisecond, tracker.GetPercentile(50))
	assert.Equal(t, 7*time.Millisecond, tracker.GetPercentile(100))
}
