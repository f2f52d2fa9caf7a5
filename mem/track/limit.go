package track

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem"
)

// Limiter wraps a backend with a byte quota. Requests that would push
// live bytes past the maximum fail with a wrapped mem.ErrOutOfMemory
// before reaching the wrapped backend, making exhaustion deterministic
// and testable regardless of what actually backs the memory.
type Limiter struct {
	inner mem.Backend
	max   int64

	used   atomic.Int64 // bytes currently reserved
	denied atomic.Int64 // requests rejected by the quota
}

var _ mem.Backend = (*Limiter)(nil)

// Limit returns a Limiter capping b at max live bytes. A nil b wraps
// the system backend. max <= 0 denies every allocation.
func Limit(b mem.Backend, max int64) *Limiter {
	if b == nil {
		b = mem.SystemBackend{}
	}
	return &Limiter{inner: b, max: max}
}

// Unwrap returns the wrapped backend.
func (l *Limiter) Unwrap() mem.Backend {
	return l.inner
}

// Max returns the quota in bytes.
func (l *Limiter) Max() int64 {
	return l.max
}

// Used returns the bytes currently reserved against the quota.
func (l *Limiter) Used() int64 {
	return l.used.Load()
}

// Remaining returns the bytes still available under the quota.
func (l *Limiter) Remaining() int64 {
	return l.max - l.used.Load()
}

// Denied returns the number of requests the quota has rejected.
func (l *Limiter) Denied() int64 {
	return l.denied.Load()
}

// Alloc reserves size bytes against the quota and delegates. The
// reservation is refunded when the wrapped backend fails.
func (l *Limiter) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("track: alloc size=%d: %w", size, mem.ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}
	if err := l.reserve(int64(size)); err != nil {
		return nil, err
	}

	out, err := l.inner.Alloc(size)
	if err != nil || out == nil {
		l.used.Add(-int64(size))
		return nil, err
	}
	return out, nil
}

// AllocZeroed reserves count*size bytes against the quota and delegates.
func (l *Limiter) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("track: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}
	if err := l.reserve(int64(total)); err != nil {
		return nil, err
	}

	out, err := l.inner.AllocZeroed(count, size)
	if err != nil || out == nil {
		l.used.Add(-int64(total))
		return nil, err
	}
	return out, nil
}

// Realloc reserves the growth before delegating; shrinks settle after
// the resize succeeds. A failed resize refunds the growth reservation
// and leaves the original handle's reservation standing.
func (l *Limiter) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("track: realloc size=%d: %w", size, mem.ErrInvalidSize)
	case b == nil:
		return l.Alloc(size)
	case size == 0:
		l.Release(b)
		return nil, nil
	}

	grow := int64(size - len(b))
	if grow > 0 {
		if err := l.reserve(grow); err != nil {
			return nil, err
		}
	}

	out, err := l.inner.Realloc(b, size)
	if err != nil || out == nil {
		if grow > 0 {
			l.used.Add(-grow)
		}
		return nil, err
	}
	if grow < 0 {
		l.used.Add(grow)
	}
	return out, nil
}

// Release refunds the handle's bytes and delegates.
func (l *Limiter) Release(b []byte) {
	if b == nil {
		return
	}
	l.used.Add(-int64(len(b)))
	l.inner.Release(b)
}

// reserve claims n bytes against the quota: add first, back out on
// overshoot. The counter may briefly exceed max, never real memory.
func (l *Limiter) reserve(n int64) error {
	if l.used.Add(n) > l.max {
		l.used.Add(-n)
		l.denied.Add(1)
		return fmt.Errorf("track: quota of %d bytes exceeded (in use %d, requested %d): %w",
			l.max, l.used.Load(), n, mem.ErrOutOfMemory)
	}
	return nil
}
