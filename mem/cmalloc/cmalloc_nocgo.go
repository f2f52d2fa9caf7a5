//go:build !cgo

package cmalloc

import "github.com/joshuapare/memkit/mem"

// Available reports whether New dispatches to the C allocator in this
// build.
func Available() bool { return false }

// New returns the Go system backend. Without cgo there is no C
// allocator to call; handles behave like ordinary garbage-collected
// slices and Release is a no-op.
func New() mem.Backend { return mem.SystemBackend{} }
