package mem

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/buf"
)

// Bridge dispatches allocation calls to a swappable backend.
//
// The zero Bridge is ready to use and dispatches to SystemBackend until a
// backend is registered. Registration is one-shot: the override pointer
// moves from nil to a backend exactly once, by compare-and-set, and every
// operation reads it with a single atomic load. The dispatch path takes
// no locks and stays O(1) regardless of backend.
//
// Most programs use the package-level functions, which share one
// process-wide Bridge. Separate Bridge values exist for libraries and
// tests that need isolated registration lifecycles.
type Bridge struct {
	override atomic.Pointer[Backend]
}

// New returns a Bridge with no backend registered.
func New() *Bridge {
	return &Bridge{}
}

// Register installs b as the bridge's backend. It succeeds at most once
// per Bridge: later calls fail with ErrAlreadyRegistered and leave the
// first registration intact. There is no way to unregister; a swappable
// backend would race against in-flight allocation calls.
//
// b must be safe for concurrent use.
func (br *Bridge) Register(b Backend) error {
	if b == nil {
		return ErrNilBackend
	}
	if !br.override.CompareAndSwap(nil, &b) {
		return ErrAlreadyRegistered
	}
	return nil
}

// Registered reports whether an override backend is installed.
func (br *Bridge) Registered() bool {
	return br.override.Load() != nil
}

// Active returns the backend allocation calls currently dispatch to:
// the registered override, or SystemBackend when none is installed.
func (br *Bridge) Active() Backend {
	if p := br.override.Load(); p != nil {
		return *p
	}
	return SystemBackend{}
}

// Alloc returns a handle to at least size bytes of memory with
// unspecified content. size == 0 yields the null handle and no error.
// Fails with ErrInvalidSize for negative sizes and ErrOutOfMemory when
// the backend cannot satisfy the request.
func (br *Bridge) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("mem: alloc size=%d: %w", size, ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}
	out, err := br.Active().Alloc(size)
	if err != nil {
		return nil, err
	}
	if out == nil {
		// A null handle from the backend signals exhaustion.
		return nil, fmt.Errorf("mem: alloc size=%d: %w", size, ErrOutOfMemory)
	}
	return out, nil
}

// AllocZeroed returns a handle to count*size bytes initialized to zero.
// The product is validated here, before any backend call, so a backend
// that skips its own overflow check cannot be tricked into a short
// allocation. A zero product yields the null handle and no error.
func (br *Bridge) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("mem: alloc zeroed count=%d size=%d: %w", count, size, ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}
	out, err := br.Active().AllocZeroed(count, size)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("mem: alloc zeroed count=%d size=%d: %w", count, size, ErrOutOfMemory)
	}
	return out, nil
}

// Realloc returns a handle to size bytes whose leading
// min(len(b), size) bytes equal b's content. b is invalid as soon as
// the call begins, even on failure, with one exception: a negative
// size fails before any backend call and does not consume b.
//
// Realloc(nil, size) behaves as Alloc(size). Realloc(b, 0) releases b
// and yields the null handle.
func (br *Bridge) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("mem: realloc size=%d: %w", size, ErrInvalidSize)
	case b == nil:
		return br.Alloc(size)
	case size == 0:
		br.Active().Release(b)
		return nil, nil
	}
	out, err := br.Active().Realloc(b, size)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("mem: realloc size=%d: %w", size, ErrOutOfMemory)
	}
	return out, nil
}

// Release returns b's memory to the backend. Release(nil) is a no-op and
// never reaches the backend.
func (br *Bridge) Release(b []byte) {
	if b == nil {
		return
	}
	br.Active().Release(b)
}
