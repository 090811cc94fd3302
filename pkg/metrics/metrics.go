// Package metrics provides Prometheus collectors for the Strata block store.
//
// # Overview
//
// Collectors are registered with the default registry through promauto when
// the package is loaded. Core packages record into them directly:
//
//	metrics.BlocksSerialized.WithLabelValues(metrics.StatusSuccess).Inc()
//	metrics.SerializedBytes.Observe(float64(len(payload)))
//
// Timer and the trackers are small helpers used by the CLI benchmark:
//
//	timer := metrics.NewTimer("truncate")
//	head, err := builder.TruncateBlock(4096)
//	metrics.OperationLatency.WithLabelValues("truncate").Observe(float64(timer.Stop().Nanoseconds()))
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by several collectors.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// BlocksSerialized counts block serializations.
	// Labels: status (success/failure)
	BlocksSerialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_blocks_serialized_total",
			Help: "Total number of block serializations",
		},
		[]string{"status"},
	)

	// SerializedBytes tracks the size distribution of serialized blocks.
	SerializedBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strata_serialized_block_bytes",
			Help:    "Size of serialized blocks in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 12), // 64B .. 128KB
		},
	)

	// TruncationIterations tracks how many interpolation steps a truncation
	// needed beyond the seed candidate.
	TruncationIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strata_truncation_iterations",
			Help:    "Interpolation iterations per block truncation",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		},
	)

	// TruncationFailures counts truncations that could not produce a block.
	// Labels: reason (record_too_large/invariant)
	TruncationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_truncation_failures_total",
			Help: "Total number of failed block truncations",
		},
		[]string{"reason"},
	)

	// PredicateResolutions counts predicate resolutions by outcome.
	// Labels: outcome (success/validation/invariant/...)
	PredicateResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_predicate_resolutions_total",
			Help: "Total number of predicate resolutions",
		},
		[]string{"outcome"},
	)

	// ColumnDecodes counts lazy column decodes of read-only blocks.
	// Labels: type (schema type), status (success/failure)
	ColumnDecodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strata_column_decodes_total",
			Help: "Total number of lazy column decodes",
		},
		[]string{"type", "status"},
	)

	// OperationLatency tracks the latency of block operations in nanoseconds.
	// Labels: operation (serialize/truncate/query/...)
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "strata_operation_latency_nanoseconds",
			Help: "Block operation latency in nanoseconds",
			Buckets: []float64{
				1000, // 1μs
				1e4,  // 10μs
				1e5,  // 100μs
				1e6,  // 1ms
				1e7,  // 10ms
				1e8,  // 100ms
				1e9,  // 1s
			},
		},
		[]string{"operation"},
	)

	// Throughput tracks records per second per operation.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strata_throughput_records_per_second",
			Help: "Current throughput in records per second",
		},
		[]string{"operation"},
	)
)

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the operation name the timer was created with.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveLatency stops the timer and records it in OperationLatency.
func (t *Timer) ObserveLatency() time.Duration {
	d := t.Stop()
	OperationLatency.WithLabelValues(t.name).Observe(float64(d.Nanoseconds()))
	return d
}

// ThroughputTracker tracks records per second for one operation. Safe for
// concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	operation string
}

// NewThroughputTracker creates a tracker labelled with operation.
func NewThroughputTracker(operation string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		operation: operation,
	}
}

// Increment adds n to the record count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset returns records per second since the last reset, publishes it
// to Throughput and starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed
	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.operation).Set(throughput)
	return throughput
}

// LatencyTracker keeps the most recent latencies for percentile queries.
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	maxSize int
}

// NewLatencyTracker creates a tracker holding at most maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	return &LatencyTracker{
		values:  make([]time.Duration, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a sample, evicting the oldest when full.
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.values) >= l.maxSize {
		l.values = l.values[1:]
	}
	l.values = append(l.values, d)
}

// GetPercentile returns the p-th percentile (0-100) of the recorded samples.
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := make([]time.Duration, len(l.values))
	copy(sorted, l.values)
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p / 100)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
