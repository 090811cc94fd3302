// Package pool provides object pooling for Strata.
//
// The package provides:
//   - Generic type-safe object pooling with Pool[T]
//   - Byte buffer pooling with size-based buckets, used as scratch space for
//     block serialization and archive compression
//
// Example usage:
//
//	buf := pool.GlobalBufferPool.Get(4096)
//	defer pool.GlobalBufferPool.Put(buf)
//
//	n, err := builder.SerializeTo(buf)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic, type-safe wrapper around sync.Pool that tracks
// allocation statistics. It is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a typed pool. new allocates a fresh object when the pool is
// empty; reset, if non-nil, is applied to objects as they are returned.
//
// Example:
//
//	p := New(
//	    func() *Buffer { return &Buffer{data: make([]byte, 0, 1024)} },
//	    func(b *Buffer) { b.data = b.data[:0] },
//	)
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, allocating one if it is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the pool statistics.
//
// Returns:
//   - allocated: Total number of objects created by the pool
//   - inUse: Number of objects currently checked out from the pool
//   - hits: Number of Get calls served by a recycled object
//   - misses: Number of Get calls that had to allocate
func (p *Pool[T]) Stats() (allocated, inUse, hits, misses int64) {
	allocated = atomic.LoadInt64(&p.stats.allocated)
	gets := atomic.LoadInt64(&p.stats.gets)
	misses = allocated
	if gets > misses {
		hits = gets - misses
	}
	return allocated, atomic.LoadInt64(&p.stats.inUse), hits, misses
}

// BufferPool manages byte buffers in power-of-two size buckets. Requests are
// served from the smallest bucket that fits; requests above the largest
// bucket are allocated directly.
type BufferPool struct {
	pools []*Pool[[]byte]
	sizes []int
}

// NewBufferPool creates a buffer pool with buckets from 512B to 16MB:
//   - 512B, 1KB, 4KB, 16KB, 64KB, 256KB, 1MB, 4MB, 16MB
func NewBufferPool() *BufferPool {
	sizes := []int{
		512,      // 512B
		1024,     // 1KB
		4096,     // 4KB
		16384,    // 16KB
		65536,    // 64KB
		262144,   // 256KB
		1048576,  // 1MB
		4194304,  // 4MB
		16777216, // 16MB
	}

	pools := make([]*Pool[[]byte], len(sizes))
	for i, size := range sizes {
		size := size
		pools[i] = New(
			func() []byte {
				return make([]byte, size)
			},
			nil,
		)
	}

	return &BufferPool{
		pools: pools,
		sizes: sizes,
	}
}

// Get returns a buffer whose length is size. Its contents are not zeroed.
//
// Example:
//
//	buf := bufferPool.Get(2048)  // a 4KB buffer sliced to 2048 bytes
//	defer bufferPool.Put(buf)
func (p *BufferPool) Get(size int) []byte {
	for i, s := range p.sizes {
		if s >= size {
			buf := p.pools[i].Get()
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a buffer obtained from Get. Buffers whose capacity matches no
// bucket are left to the garbage collector.
func (p *BufferPool) Put(buf []byte) {
	size := cap(buf)
	for i, s := range p.sizes {
		if s == size {
			p.pools[i].Put(buf[:size])
			return
		}
	}
}

// Stats aggregates the statistics of every bucket.
func (p *BufferPool) Stats() Stats {
	var total Stats
	for _, bucket := range p.pools {
		allocated, inUse, hits, misses := bucket.Stats()
		total.Allocated += allocated
		total.InUse += inUse
		total.Hits += hits
		total.Misses += misses
	}
	return total
}

// GlobalBufferPool is the shared buffer pool used for serialization scratch.
var GlobalBufferPool = NewBufferPool()

// Stats represents pool statistics for monitoring.
type Stats struct {
	// Allocated is the total number of objects created by the pool
	Allocated int64 `json:"allocated"`
	// InUse is the current number of objects checked out from the pool
	InUse int64 `json:"in_use"`
	// Hits is the number of Get calls served by a recycled object
	Hits int64 `json:"hits"`
	// Misses is the number of Get calls that had to allocate
	Misses int64 `json:"misses"`
}

// GetGlobalStats returns statistics for the global pools, keyed by name.
func GetGlobalStats() map[string]Stats {
	return map[string]Stats{
		"buffer": GlobalBufferPool.Stats(),
	}
}
