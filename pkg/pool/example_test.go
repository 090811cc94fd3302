package pool_test

import (
	"fmt"

	"github.com/ajitpratap0/strata/pkg/pool"
)

// Example shows a typed pool of scratch slices.
func Example() {
	p := pool.New(
		func() *[]uint32 {
			s := make([]uint32, 0, 64)
			return &s
		},
		func(s *[]uint32) { *s = (*s)[:0] },
	)

	rows := p.Get()
	*rows = append(*rows, 1, 2, 3)
	fmt.Println(len(*rows))
	p.Put(rows)

	allocated, inUse, _, _ := p.Stats()
	fmt.Println(allocated, inUse)

	// Output:
	// 3
	// 1 0
}

// ExampleBufferPool shows bucketed byte buffers.
func ExampleBufferPool() {
	bp := pool.NewBufferPool()

	buf := bp.Get(2048)
	fmt.Println(len(buf), cap(buf))
	bp.Put(buf)

	large := bp.Get(32 << 20)
	fmt.Println(len(large) == cap(large))

	// Output:
	// 2048 4096
	// true
}
