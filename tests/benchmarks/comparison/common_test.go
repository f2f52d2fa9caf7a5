// Package comparison provides benchmark utilities for comparing the
// shipped allocation backends against each other and against the
// default system backend.
package comparison

import (
	"testing"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/cmalloc"
	"github.com/joshuapare/memkit/mem/pool"
	"github.com/joshuapare/memkit/mem/track"
)

// BenchmarkSizes defines the request sizes used across benchmarks.
// Covers the pool's linear classes, its logarithmic classes, and the
// fallback range past the largest class.
var BenchmarkSizes = []struct {
	Name string // Short name for benchmark output
	Size int    // Request size in bytes
}{
	{Name: "16B", Size: 16},
	{Name: "256B", Size: 256},
	{Name: "4KB", Size: 4096},
	{Name: "64KB", Size: 64 << 10},
}

// BenchmarkBackends defines the backend configurations compared by
// every benchmark. Open builds a fresh backend; the returned close is
// always safe to call.
var BenchmarkBackends = []struct {
	Name string
	Open func(b *testing.B) (mem.Backend, func())
}{
	{
		Name: "system",
		Open: func(b *testing.B) (mem.Backend, func()) {
			return mem.SystemBackend{}, func() {}
		},
	},
	{
		Name: "pool",
		Open: func(b *testing.B) (mem.Backend, func()) {
			p, err := pool.New(nil)
			if err != nil {
				b.Fatalf("pool.New failed: %v", err)
			}
			return p, func() {}
		},
	},
	{
		Name: "arena",
		Open: func(b *testing.B) (mem.Backend, func()) {
			a, err := arena.New(&arena.Options{RegionSize: 1 << 20})
			if err != nil {
				b.Fatalf("arena.New failed: %v", err)
			}
			return a, func() { a.Close() }
		},
	},
	{
		Name: "cmalloc",
		Open: func(b *testing.B) (mem.Backend, func()) {
			return cmalloc.New(), func() {}
		},
	},
	{
		Name: "tracked",
		Open: func(b *testing.B) (mem.Backend, func()) {
			return track.Wrap(mem.SystemBackend{}), func() {}
		},
	},
}

// arenaResetEvery bounds how much an arena maps during a benchmark
// loop. Arena releases reclaim nothing, so benchmarks rewind it
// periodically; the Reset cost amortizes into the measurement the same
// way it does in real bulk workloads.
const arenaResetEvery = 1024

// maybeReset rewinds reset-capable backends every arenaResetEvery
// iterations. i is the loop counter.
func maybeReset(b *testing.B, backend mem.Backend, i int) {
	if i%arenaResetEvery != arenaResetEvery-1 {
		return
	}
	r, ok := backend.(interface{ Reset() error })
	if !ok {
		return
	}
	if err := r.Reset(); err != nil {
		b.Fatalf("Reset failed: %v", err)
	}
}

// Prevent compiler optimizations from eliminating benchmark code
// These variables are written to by benchmarks to ensure operations aren't optimized away.
var (
	benchBuf  []byte
	benchErr  error
	benchByte byte
)
