package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem"
)

// Options controls pool behavior.
type Options struct {
	// Config selects the size class table. A zero Config means
	// DefaultConfig.
	Config Config

	// Fallback serves requests larger than Config.MaxSize and releases
	// of buffers that belong to no class. nil means the system backend.
	Fallback mem.Backend
}

// bucket is one size class: a sync.Pool of fixed-capacity buffers plus
// its traffic counters.
type bucket struct {
	size int
	pool sync.Pool

	gets atomic.Int64 // buffers handed out
	puts atomic.Int64 // buffers returned
	news atomic.Int64 // buffers minted because the pool was empty
}

// Pool is a size-class pooled backend. Requests are rounded up to a
// class capacity and served from that class's sync.Pool, so steady-state
// traffic recycles buffers instead of growing the heap. Requests larger
// than the largest class pass through to the fallback backend untouched.
//
// A Pool is safe for concurrent use without external locking; classes
// are sync.Pools and counters are atomic.
type Pool struct {
	table    *classTable
	classes  []bucket
	fallback mem.Backend

	fallbackAllocs   atomic.Int64
	fallbackReleases atomic.Int64
}

var _ mem.Backend = (*Pool)(nil)

// ClassStats is the traffic snapshot of one size class.
type ClassStats struct {
	Size int   // buffer capacity of this class
	Gets int64 // buffers handed out
	Puts int64 // buffers returned
	News int64 // buffers minted
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Classes          []ClassStats
	Gets             int64 // total buffers handed out across classes
	Puts             int64 // total buffers returned across classes
	News             int64 // total buffers minted across classes
	FallbackAllocs   int64 // requests passed to the fallback backend
	FallbackReleases int64 // releases routed to the fallback backend
}

// New creates a pool. A nil opts uses DefaultConfig over the system
// backend.
func New(opts *Options) (*Pool, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.Config == (Config{}) {
		o.Config = DefaultConfig
	}
	if o.Fallback == nil {
		o.Fallback = mem.SystemBackend{}
	}

	table := newClassTable(o.Config)
	p := &Pool{
		table:    table,
		classes:  make([]bucket, table.NumClasses()),
		fallback: o.Fallback,
	}
	for i, size := range table.sizes {
		b := &p.classes[i]
		b.size = size
		b.pool.New = func() any {
			b.news.Add(1)
			return make([]byte, size)
		}
	}
	return p, nil
}

// Alloc returns a handle of size bytes with unspecified content, backed
// by a buffer of the containing class's capacity.
func (p *Pool) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("pool: alloc size=%d: %w", size, mem.ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}

	idx := p.table.classFor(size)
	if idx == len(p.classes) {
		p.fallbackAllocs.Add(1)
		return p.fallback.Alloc(size)
	}

	b := &p.classes[idx]
	out := b.pool.Get().([]byte)
	b.gets.Add(1)
	return out[:size], nil
}

// AllocZeroed returns count*size zeroed bytes. Recycled class buffers
// carry previous content, so the visible range is cleared explicitly.
func (p *Pool) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("pool: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}

	idx := p.table.classFor(total)
	if idx == len(p.classes) {
		p.fallbackAllocs.Add(1)
		return p.fallback.AllocZeroed(count, size)
	}

	b := &p.classes[idx]
	out := b.pool.Get().([]byte)
	b.gets.Add(1)
	out = out[:total]
	clear(out)
	return out, nil
}

// Realloc resizes b to size bytes. Resizes within the buffer's class
// capacity re-slice in place; anything larger moves to a new class (or
// the fallback) with the surviving prefix copied over.
//
// On failure the original handle is left untouched and still valid.
func (p *Pool) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("pool: realloc size=%d: %w", size, mem.ErrInvalidSize)
	case b == nil:
		return p.Alloc(size)
	case size == 0:
		p.Release(b)
		return nil, nil
	}

	if size <= cap(b) {
		return b[:size], nil
	}

	out, err := p.Alloc(size)
	if err != nil {
		return nil, err
	}
	copy(out, b)
	p.Release(b)
	return out, nil
}

// Release returns b to its size class for reuse. Buffers whose capacity
// matches no class (fallback allocations, foreign handles) route to the
// fallback's Release instead, so class pools only ever hold buffers of
// their exact capacity.
func (p *Pool) Release(b []byte) {
	if b == nil {
		return
	}

	idx := p.table.classFor(cap(b))
	if idx < len(p.classes) && p.classes[idx].size == cap(b) {
		bucket := &p.classes[idx]
		bucket.pool.Put(b[:cap(b)])
		bucket.puts.Add(1)
		return
	}

	p.fallbackReleases.Add(1)
	p.fallback.Release(b)
}

// Stats returns a snapshot of per-class and total counters.
func (p *Pool) Stats() Stats {
	s := Stats{
		Classes:          make([]ClassStats, len(p.classes)),
		FallbackAllocs:   p.fallbackAllocs.Load(),
		FallbackReleases: p.fallbackReleases.Load(),
	}
	for i := range p.classes {
		b := &p.classes[i]
		cs := ClassStats{
			Size: b.size,
			Gets: b.gets.Load(),
			Puts: b.puts.Load(),
			News: b.news.Load(),
		}
		s.Classes[i] = cs
		s.Gets += cs.Gets
		s.Puts += cs.Puts
		s.News += cs.News
	}
	return s
}

// NumClasses returns the number of size classes in the pool's table.
func (p *Pool) NumClasses() int {
	return p.table.NumClasses()
}
