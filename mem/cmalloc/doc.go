// Package cmalloc provides a mem.Backend over the process C allocator.
//
// # Overview
//
// Buffers come from malloc/calloc/realloc and live outside the Go heap,
// so the garbage collector never moves or reclaims them. Every handle
// must come back through Release or the block leaks for the life of the
// process. The usual reason to reach for this backend is interop with C
// libraries that expect to free (or keep) the memory themselves, or to
// take allocation pressure off the Go heap for large short-lived
// buffers. The C allocator synchronizes internally, so all operations
// are safe for concurrent use.
//
// # Build Configurations
//
// Three build configurations share the New/Available surface:
//
//   - cgo enabled (default): malloc, calloc, realloc and free from the
//     C standard library.
//   - cgo enabled with the jemalloc tag: the same surface over the
//     je_* prefixed jemalloc symbols, linked with -ljemalloc.
//   - cgo disabled: New returns the Go system backend and Available
//     reports false. Handles then behave like ordinary
//     garbage-collected slices and Release is a no-op.
//
// Callers that must know whether memory really lives outside the Go
// heap check Available before relying on it.
//
// # Usage
//
//	backend := cmalloc.New()
//	b, err := backend.Alloc(4096)
//	if err != nil {
//	    return err
//	}
//	defer backend.Release(b)
//
// # Handle Rules
//
// Handles follow the usual backend contract: release the exact slice
// an operation returned, never a reslice of it. Realloc passes the
// block's base pointer to the C allocator and returns a fresh slice
// over the (possibly moved) block, so the old handle is dead the
// moment Realloc succeeds. On a failed Realloc the C block is
// untouched and the original handle still owns it.
package cmalloc
