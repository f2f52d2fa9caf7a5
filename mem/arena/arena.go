package arena

import (
	"fmt"
	"os"
	"sync"

	"github.com/joshuapare/memkit/internal/align"
	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/mmap"
	"github.com/joshuapare/memkit/mem"
)

// maxRegionSize caps the doubling of region sizes. Arenas that need more
// than this per allocation still get it: a region is always at least as
// large as the request that triggered it.
const maxRegionSize = 4 << 20 // 4 MiB

// region is one mapped chunk of arena memory with a bump pointer.
type region struct {
	data []byte
	used int
}

// Arena is a region-based bump allocator backend. It serves allocations
// by advancing a pointer through page-backed regions mapped from the OS,
// which makes Alloc O(1) with zero per-allocation bookkeeping.
//
// Key characteristics:
//   - O(1) allocation: pure bump pointer, no free lists, no maps
//   - Release records statistics but reclaims nothing; memory returns
//     in bulk on Reset or Close
//   - Realloc of the most recent allocation extends or shrinks in place
//     when the region tail allows it
//   - Regions double in size up to an internal cap as the arena grows
//
// This profile fits burst workloads: build a structure with many small
// allocations, use it, then Reset and start over. It is a poor fit for
// long-lived mixed alloc/release traffic, where dead bytes accumulate
// until the next Reset.
//
// An Arena is safe for concurrent use; operations are serialized by an
// internal mutex.
type Arena struct {
	mu   sync.Mutex
	opts Options

	regions []region // regions[len-1] is the active one
	file    *os.File // backing file, nil for anonymous arenas
	mapped  int64    // total mapped bytes, also the next file offset

	// topStart/topLen identify the most recent allocation in the active
	// region, the only handle eligible for in-place Realloc. topLen is
	// -1 when no such handle exists.
	topStart int
	topLen   int

	stats  Stats
	closed bool
}

var _ mem.Backend = (*Arena)(nil)

// Stats is a point-in-time snapshot of arena counters.
type Stats struct {
	Regions     int   // mapped regions
	MappedBytes int64 // total bytes reserved from the OS
	UsedBytes   int64 // bytes consumed by the bump pointers
	Allocs      int64 // allocations served
	Frees       int64 // releases recorded (no memory is reclaimed)
	FreedBytes  int64 // bytes covered by those releases
	Grows       int64 // regions mapped beyond the first
}

// New creates an arena and maps its first region. A nil opts uses
// DefaultOptions.
func New(opts *Options) (*Arena, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.RegionSize <= 0 {
		o.RegionSize = DefaultRegionSize
	}
	o.RegionSize = align.UpTo(o.RegionSize, mmap.PageSize())
	if o.MaxBytes > 0 && o.MaxBytes < mmap.PageSize() {
		return nil, fmt.Errorf("%w: MaxBytes %d is below one page", ErrBadOptions, o.MaxBytes)
	}

	a := &Arena{opts: o, topLen: -1}

	if o.BackingFile != "" {
		f, err := os.OpenFile(o.BackingFile, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("arena: open backing file: %w", err)
		}
		a.file = f
	}

	if err := a.grow(1); err != nil {
		if a.file != nil {
			a.file.Close()
		}
		return nil, err
	}
	return a, nil
}

// Alloc returns size bytes of 8-byte aligned arena memory with
// unspecified content.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("arena: alloc size=%d: %w", size, mem.ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	return a.alloc(size)
}

// AllocZeroed returns count*size bytes of zeroed arena memory. The clear
// is explicit: regions recycled by Reset still hold old content.
func (a *Arena) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("arena: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}

	b, err := a.alloc(total)
	if err != nil {
		return nil, err
	}
	clear(b)
	return b, nil
}

// Realloc resizes b to size bytes. When b is the most recent allocation
// and the active region's tail has room, the resize happens in place
// without copying. Otherwise the content moves to a fresh allocation and
// the old bytes become dead space until Reset.
//
// On failure the original allocation is left untouched and still valid.
func (a *Arena) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("arena: realloc size=%d: %w", size, mem.ErrInvalidSize)
	case b == nil:
		return a.Alloc(size)
	case size == 0:
		a.Release(b)
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}

	if a.isTop(b) {
		need := align.Up8(size)
		r := &a.regions[len(a.regions)-1]
		if need >= size && need <= len(r.data)-a.topStart {
			r.used = a.topStart + need
			a.topLen = size
			return r.data[a.topStart : a.topStart+size : a.topStart+need], nil
		}
	}

	out, err := a.alloc(size)
	if err != nil {
		return nil, err
	}
	copy(out, b)
	a.stats.Frees++
	a.stats.FreedBytes += int64(len(b))
	return out, nil
}

// Release records the free in the arena's statistics. The bytes stay
// dead until Reset or Close; nothing is reclaimed per handle.
func (a *Arena) Release(b []byte) {
	if b == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.stats.Frees++
	a.stats.FreedBytes += int64(len(b))
}

// Reset rewinds the arena to a single empty region, unmapping every
// region mapped after the first. All handles served before the Reset
// are invalid afterward. File-backed arenas truncate the backing file
// back to the first region.
func (a *Arena) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	var firstErr error
	for _, r := range a.regions[1:] {
		if err := mmap.Unmap(r.data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.regions = a.regions[:1]
	a.regions[0].used = 0
	a.mapped = int64(len(a.regions[0].data))
	a.topLen = -1

	if a.file != nil {
		if err := a.file.Truncate(a.mapped); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sync flushes file-backed regions to the backing file. It is a no-op
// for anonymous arenas.
func (a *Arena) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.file == nil {
		return nil
	}
	for _, r := range a.regions {
		if err := mmap.Sync(r.data); err != nil {
			return fmt.Errorf("arena: sync: %w", err)
		}
	}
	return nil
}

// Close unmaps every region and closes the backing file. All handles are
// invalid afterward. Close is idempotent.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	for _, r := range a.regions {
		if err := mmap.Unmap(r.data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.regions = nil

	if a.file != nil {
		if err := a.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.file = nil
	}
	return firstErr
}

// Stats returns a snapshot of the arena's counters.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	s.Regions = len(a.regions)
	s.MappedBytes = a.mapped
	for _, r := range a.regions {
		s.UsedBytes += int64(r.used)
	}
	return s
}

// alloc bumps size bytes out of the active region, growing first when
// the tail is too short. Caller holds mu and has validated size > 0.
func (a *Arena) alloc(size int) ([]byte, error) {
	need := align.Up8(size)
	if need < size {
		// Alignment pushed the size past the int range.
		return nil, fmt.Errorf("arena: alloc size=%d: %w", size, mem.ErrOutOfMemory)
	}

	r := &a.regions[len(a.regions)-1]
	if need > len(r.data)-r.used {
		if err := a.grow(need); err != nil {
			return nil, err
		}
		r = &a.regions[len(a.regions)-1]
	}

	start := r.used
	r.used += need
	a.topStart = start
	a.topLen = size
	a.stats.Allocs++

	// Cap the handle at its aligned block so appends cannot reach into
	// memory the arena has yet to hand out.
	return r.data[start : start+size : start+need], nil
}

// grow maps a region with at least need usable bytes and makes it the
// active region. Caller holds mu (or is New, before the arena escapes).
func (a *Arena) grow(need int) error {
	if len(a.regions) > 0 && a.opts.NoGrowth {
		return fmt.Errorf("arena: region exhausted and growth disabled: %w", mem.ErrOutOfMemory)
	}

	ps := mmap.PageSize()
	minSize := align.UpTo(need, ps)
	if minSize < need {
		return fmt.Errorf("arena: grow need=%d: %w", need, mem.ErrOutOfMemory)
	}

	// Double the previous region up to the cap, like a growing buffer,
	// so long-lived arenas settle into few large mappings.
	size := a.opts.RegionSize
	if n := len(a.regions); n > 0 {
		size = len(a.regions[n-1].data) * 2
		if size > maxRegionSize {
			size = maxRegionSize
		}
		if size < a.opts.RegionSize {
			size = a.opts.RegionSize
		}
	}
	if size < minSize {
		size = minSize
	}

	if a.opts.MaxBytes > 0 {
		remaining := align.DownTo(a.opts.MaxBytes-int(a.mapped), ps)
		if remaining < minSize {
			return fmt.Errorf("arena: %d byte cap reached (mapped %d, need %d): %w",
				a.opts.MaxBytes, a.mapped, need, mem.ErrOutOfMemory)
		}
		if size > remaining {
			size = remaining
		}
	}

	var (
		data []byte
		err  error
	)
	if a.file != nil {
		off := a.mapped
		if err = a.file.Truncate(off + int64(size)); err != nil {
			return fmt.Errorf("arena: grow backing file to %d (%v): %w",
				off+int64(size), err, mem.ErrOutOfMemory)
		}
		data, err = mmap.MapFile(a.file, off, size)
	} else {
		data, err = mmap.Map(size)
	}
	if err != nil {
		return fmt.Errorf("arena: map %d byte region (%v): %w", size, err, mem.ErrOutOfMemory)
	}

	a.regions = append(a.regions, region{data: data})
	a.mapped += int64(size)
	a.topLen = -1
	if len(a.regions) > 1 {
		a.stats.Grows++
	}
	return nil
}

// isTop reports whether b is exactly the most recent allocation in the
// active region. Caller holds mu.
func (a *Arena) isTop(b []byte) bool {
	if a.topLen <= 0 || len(b) != a.topLen {
		return false
	}
	r := &a.regions[len(a.regions)-1]
	return &b[0] == &r.data[a.topStart]
}
