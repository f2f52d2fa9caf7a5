package track

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem"
)

// Tracker wraps a backend and counts its traffic. All counters are
// atomics; a Tracker adds no locks to the allocation path.
type Tracker struct {
	inner mem.Backend

	allocs   atomic.Int64 // successful allocating calls
	reallocs atomic.Int64 // successful resizes
	releases atomic.Int64 // releases of non-nil handles
	failed   atomic.Int64 // allocating calls that returned no memory
	handles  atomic.Int64 // live handles
	live     atomic.Int64 // live bytes
	peak     atomic.Int64 // high-water mark of live bytes
}

var _ mem.Backend = (*Tracker)(nil)

// Stats is a point-in-time snapshot of tracker counters.
type Stats struct {
	Allocs      int64 // successful allocating calls
	Reallocs    int64 // successful resizes
	Releases    int64 // releases recorded
	Failed      int64 // allocating calls that returned no memory
	LiveHandles int64 // handles allocated and not yet released
	LiveBytes   int64 // bytes allocated and not yet released
	PeakBytes   int64 // highest LiveBytes observed
}

// Wrap returns a Tracker counting traffic into b. A nil b wraps the
// system backend.
func Wrap(b mem.Backend) *Tracker {
	if b == nil {
		b = mem.SystemBackend{}
	}
	return &Tracker{inner: b}
}

// Unwrap returns the wrapped backend.
func (t *Tracker) Unwrap() mem.Backend {
	return t.inner
}

// Alloc delegates to the wrapped backend and accounts for the result.
func (t *Tracker) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("track: alloc size=%d: %w", size, mem.ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}

	out, err := t.inner.Alloc(size)
	if err != nil || out == nil {
		t.failed.Add(1)
		return nil, err
	}
	t.allocs.Add(1)
	t.handles.Add(1)
	t.addLive(int64(len(out)))
	return out, nil
}

// AllocZeroed delegates to the wrapped backend and accounts for the
// result.
func (t *Tracker) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("track: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}

	out, err := t.inner.AllocZeroed(count, size)
	if err != nil || out == nil {
		t.failed.Add(1)
		return nil, err
	}
	t.allocs.Add(1)
	t.handles.Add(1)
	t.addLive(int64(len(out)))
	return out, nil
}

// Realloc delegates to the wrapped backend. A successful resize moves
// live bytes by the length difference; a failed one leaves the
// accounting untouched, matching backends that keep the original handle
// valid on failure.
func (t *Tracker) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("track: realloc size=%d: %w", size, mem.ErrInvalidSize)
	case b == nil:
		return t.Alloc(size)
	case size == 0:
		t.Release(b)
		return nil, nil
	}

	out, err := t.inner.Realloc(b, size)
	if err != nil || out == nil {
		t.failed.Add(1)
		return nil, err
	}
	t.reallocs.Add(1)
	t.addLive(int64(len(out) - len(b)))
	return out, nil
}

// Release accounts for the handle and delegates to the wrapped backend.
func (t *Tracker) Release(b []byte) {
	if b == nil {
		return
	}
	t.releases.Add(1)
	t.handles.Add(-1)
	t.live.Add(-int64(len(b)))
	t.inner.Release(b)
}

// Stats returns a snapshot of the tracker's counters.
func (t *Tracker) Stats() Stats {
	return Stats{
		Allocs:      t.allocs.Load(),
		Reallocs:    t.reallocs.Load(),
		Releases:    t.releases.Load(),
		Failed:      t.failed.Load(),
		LiveHandles: t.handles.Load(),
		LiveBytes:   t.live.Load(),
		PeakBytes:   t.peak.Load(),
	}
}

// InUse returns the live byte count.
func (t *Tracker) InUse() int64 {
	return t.live.Load()
}

// Balanced reports whether every allocation has been released: no live
// handles and no live bytes. Useful as an end-of-test leak check.
func (t *Tracker) Balanced() bool {
	return t.handles.Load() == 0 && t.live.Load() == 0
}

// addLive moves the live byte counter and raises the peak if passed.
func (t *Tracker) addLive(delta int64) {
	v := t.live.Add(delta)
	for {
		p := t.peak.Load()
		if v <= p || t.peak.CompareAndSwap(p, v) {
			return
		}
	}
}
