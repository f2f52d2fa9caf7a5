package mem

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

// Funcs adapts plain functions to the Backend interface. It exists for
// callers that have allocation routines, often thin wrappers over a C
// allocator or an instrumentation shim, but no natural receiver type.
//
// Any field may be nil. Missing functions are derived from the ones
// provided: a nil AllocZeroed falls back to Alloc plus an explicit
// clear, a nil Realloc to Alloc-copy-Release, and a nil Release to a
// no-op (the provided allocator owns reclamation). When Alloc itself is
// nil, the unset operations dispatch to SystemBackend instead, so a
// partially filled Funcs is always a complete Backend.
type Funcs struct {
	// AllocFunc returns at least size bytes, size > 0. A nil result is
	// treated as exhaustion by Bridge.
	AllocFunc func(size int) ([]byte, error)

	// AllocZeroedFunc returns count*size zeroed bytes. The product has
	// already been overflow-checked when called through a Bridge.
	AllocZeroedFunc func(count, size int) ([]byte, error)

	// ReallocFunc resizes buf to size bytes, preserving the leading
	// min(len(buf), size) bytes. buf is consumed even on failure.
	ReallocFunc func(buf []byte, size int) ([]byte, error)

	// ReleaseFunc returns buf to the allocator.
	ReleaseFunc func(buf []byte)
}

var _ Backend = Funcs{}

// Alloc calls AllocFunc, or SystemBackend when it is nil.
func (f Funcs) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("mem: funcs alloc size=%d: %w", size, ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}
	if f.AllocFunc == nil {
		return SystemBackend{}.Alloc(size)
	}
	return f.AllocFunc(size)
}

// AllocZeroed calls AllocZeroedFunc when set. Otherwise it allocates
// through Alloc and clears the result, so the zeroing guarantee holds
// even for allocators that only expose a malloc-shaped entry point.
func (f Funcs) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("mem: funcs alloc zeroed count=%d size=%d: %w", count, size, ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}
	if f.AllocZeroedFunc != nil {
		return f.AllocZeroedFunc(count, size)
	}
	if f.AllocFunc == nil {
		return SystemBackend{}.AllocZeroed(count, size)
	}
	out, err := f.AllocFunc(total)
	if err != nil || out == nil {
		return nil, err
	}
	clear(out)
	return out, nil
}

// Realloc calls ReallocFunc when set. Otherwise it emulates resize with
// Alloc, a copy of the surviving prefix, and Release of the old handle.
func (f Funcs) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("mem: funcs realloc size=%d: %w", size, ErrInvalidSize)
	case b == nil:
		return f.Alloc(size)
	case size == 0:
		f.Release(b)
		return nil, nil
	}
	if f.ReallocFunc != nil {
		return f.ReallocFunc(b, size)
	}
	if f.AllocFunc == nil {
		return SystemBackend{}.Realloc(b, size)
	}
	out, err := f.AllocFunc(size)
	if err != nil || out == nil {
		f.Release(b)
		return nil, err
	}
	copy(out, b)
	f.Release(b)
	return out, nil
}

// Release calls ReleaseFunc when set. With a custom AllocFunc and no
// ReleaseFunc it is a no-op, since handing foreign handles to the
// system allocator would be wrong in both directions.
func (f Funcs) Release(b []byte) {
	if b == nil {
		return
	}
	if f.ReleaseFunc != nil {
		f.ReleaseFunc(b)
		return
	}
	if f.AllocFunc == nil {
		SystemBackend{}.Release(b)
	}
}
