//go:build unix

package mmap

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map reserves size bytes of anonymous, private, read-write memory from
// the OS. The returned slice is page-backed and lives outside the Go heap;
// it must be returned with Unmap.
func Map(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: non-positive size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap: anonymous map of %d bytes: %w", size, err)
	}
	return data, nil
}

// MapFile maps size bytes of f at file offset off as a shared read-write
// mapping. The file must already span [off, off+size) and off must be
// page-aligned. Writes become visible to other processes mapping the same
// range; call Sync to force them to disk.
func MapFile(f *os.File, off int64, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: non-positive size %d", size)
	}
	if off < 0 || off%int64(PageSize()) != 0 {
		return nil, fmt.Errorf("mmap: offset %d is not page-aligned", off)
	}
	data, err := unix.Mmap(int(f.Fd()), off, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: shared map of %q (%d bytes at %d): %w", f.Name(), size, off, err)
	}
	return data, nil
}

// Unmap releases a mapping created by Map or MapFile.
// Unmapping the same slice twice is treated as a no-op for callers.
func Unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}

// Sync flushes a shared file mapping to its backing file.
func Sync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_SYNC)
}

// PageSize returns the OS page size.
func PageSize() int {
	return os.Getpagesize()
}
