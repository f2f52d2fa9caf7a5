package mem

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/buf"
)

// SystemBackend allocates from the Go runtime and leaves reclamation to
// the garbage collector. It is the backend used when nothing is
// registered.
//
// Realloc shrinks in place (re-slicing the original block) and grows by
// allocating fresh memory and copying; a failed resize therefore never
// destroys the original block. Release is a no-op.
type SystemBackend struct{}

func (SystemBackend) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("mem: alloc size=%d: %w", size, ErrInvalidSize)
	}
	if size == 0 {
		return nil, nil
	}
	return make([]byte, size), nil
}

func (SystemBackend) AllocZeroed(count, size int) ([]byte, error) {
	total, err := buf.CheckAllocTotal(count, size)
	if err != nil {
		return nil, fmt.Errorf("mem: alloc zeroed count=%d size=%d: %w", count, size, ErrInvalidSize)
	}
	if total == 0 {
		return nil, nil
	}
	return make([]byte, total), nil
}

func (s SystemBackend) Realloc(b []byte, size int) ([]byte, error) {
	switch {
	case size < 0:
		return nil, fmt.Errorf("mem: realloc size=%d: %w", size, ErrInvalidSize)
	case b == nil:
		return s.Alloc(size)
	case size == 0:
		return nil, nil
	case size <= cap(b):
		return b[:size], nil
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}

func (SystemBackend) Release([]byte) {}

var _ Backend = SystemBackend{}
