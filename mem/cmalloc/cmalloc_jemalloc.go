//go:build cgo && jemalloc

package cmalloc

/*
#cgo        CFLAGS: -std=gnu99
#cgo      CPPFLAGS: -D_REENTRANT -DJEMALLOC_NO_DEMANGLE
#cgo linux CPPFLAGS: -D_GNU_SOURCE
#cgo       LDFLAGS: -ljemalloc -lm
#cgo linux LDFLAGS: -lrt
#include <jemalloc/jemalloc.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/mem"
)

// Available reports whether New dispatches to the C allocator in this
// build.
func Available() bool { return true }

// New returns a backend that fulfills each call with the je_* prefixed
// jemalloc entry points.
func New() mem.Backend { return cBackend{} }

type cBackend struct{}

var _ mem.Backend = cBackend{}

func (cBackend) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("cmalloc: alloc size=%d: %w", size, mem.ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}
	p := C.je_malloc(C.size_t(size))
	if p == nil {
		return nil, fmt.Errorf("cmalloc: alloc size=%d: %w", size, mem.ErrOutOfMemory)
	}
	return unsafe.Slice((*byte)(p), size), nil
}

func (cBackend) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("cmalloc: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}
	p := C.je_calloc(C.size_t(count), C.size_t(size))
	if p == nil {
		return nil, fmt.Errorf("cmalloc: alloc zeroed count=%d size=%d: %w", count, size, mem.ErrOutOfMemory)
	}
	return unsafe.Slice((*byte)(p), total), nil
}

func (cb cBackend) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("cmalloc: realloc size=%d: %w", size, mem.ErrInvalidSize)
	case b == nil:
		return cb.Alloc(size)
	case size == 0:
		cb.Release(b)
		return nil, nil
	}
	p := C.je_realloc(unsafe.Pointer(unsafe.SliceData(b)), C.size_t(size))
	if p == nil {
		// realloc leaves the block untouched on failure; b still owns it.
		return nil, fmt.Errorf("cmalloc: realloc size=%d: %w", size, mem.ErrOutOfMemory)
	}
	return unsafe.Slice((*byte)(p), size), nil
}

func (cBackend) Release(b []byte) {
	// Owned handles always have len > 0; zero-size requests return nil.
	if len(b) == 0 {
		return
	}
	C.je_free(unsafe.Pointer(unsafe.SliceData(b)))
}
