//go:build windows

package mmap

import (
	"fmt"
	"os"
)

// Map allocates from the Go heap on Windows.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: non-positive size %d", size)
	}
	return make([]byte, size), nil
}

// MapFile reads the file region at off into a heap buffer on Windows.
// Writes are NOT shared with other processes on this platform.
func MapFile(f *os.File, off int64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: non-positive size %d", size)
	}
	data := make([]byte, size)
	if _, err := f.ReadAt(data, off); err != nil {
		return nil, fmt.Errorf("mmap: read of %q: %w", f.Name(), err)
	}
	return data, nil
}

// Unmap is a no-op; the GC reclaims heap buffers.
func Unmap(data []byte) error {
	return nil
}

// Sync is a no-op for heap buffers.
func Sync(data []byte) error {
	return nil
}

// PageSize returns the OS page size.
func PageSize() int {
	return os.Getpagesize()
}
