// Package mem provides a pluggable allocation bridge: standard allocation
// primitives dispatched to a swappable backend.
//
// # Overview
//
// Programs allocate through four canonical operations (Alloc, AllocZeroed,
// Realloc, Release). Each call is forwarded to the active backend: the
// built-in system backend by default, or an override installed once per
// process with Register. The bridge preserves the standard allocation
// contract regardless of backend: zero-fill guarantees, realloc content
// preservation, release-of-nil safety, and overflow rejection.
//
// # Backend Interface
//
// The core abstraction is the Backend interface:
//
//   - Alloc(size): Allocate at least size bytes, content unspecified
//   - AllocZeroed(count, size): Allocate count*size zero bytes
//   - Realloc(buf, size): Resize, preserving the leading min(len, size) bytes
//   - Release(buf): Return a handle's memory to the backend
//
// # Implementations
//
// SystemBackend: the default, allocating from the Go runtime
//
//   - Release is a no-op; the garbage collector reclaims memory
//   - Realloc shrinks in place and grows by copy
//   - A failed resize never destroys the original block
//
// Funcs: adapter assembling a Backend from individual functions
//
//   - Unset slots fall back to coherent completions (see Funcs)
//
// Further backends live in subpackages: mem/arena (region bump
// allocator), mem/pool (size-class pools), mem/track (instrumentation
// and quota wrappers), mem/cmalloc (C allocator via cgo).
//
// # Usage Example
//
//	// Once, at process startup:
//	p, err := pool.New(nil)
//	if err != nil {
//	    return err
//	}
//	if err := mem.Register(p); err != nil {
//	    return err
//	}
//
//	// Anywhere, from any goroutine:
//	b, err := mem.Alloc(256)
//	if err != nil {
//	    return err
//	}
//	defer mem.Release(b)
//
// # Handles
//
// A handle is a []byte. A nil slice is the null handle: Release(nil) is a
// no-op and Realloc(nil, n) behaves as Alloc(n). Ownership of a handle
// moves from bridge to caller on allocation and back on release; callers
// must hand back exactly the slice they received. Re-sliced or copied
// handles violate the ownership protocol and backends are free to
// misbehave on them. Double release is likewise the caller's protocol
// violation; the bridge cannot detect it at this layer.
//
// # Zero-Size Requests
//
// Alloc(0), AllocZeroed with a zero product, and Realloc(buf, 0) all yield
// the null handle and no error. Realloc(buf, 0) releases buf first. This
// choice is fixed and consistent across backends because the bridge
// short-circuits these requests before dispatch.
//
// # Realloc Semantics
//
// The input handle becomes invalid the moment Realloc is entered, even if
// the call fails, with one exception: a size < 0 argument fails before any
// backend call and does not consume the handle. On failure the fate of the
// original block is backend-defined; SystemBackend and mem/arena document
// that the original survives, other backends make no promise.
//
// # Registration
//
// Register installs a process-wide override at most once; a second call
// fails with ErrAlreadyRegistered and leaves the first registration
// intact. There is no unregistration: allowing the backend to change
// mid-flight would race against concurrent allocation calls. The install
// uses an atomic compare-and-set and every operation reads the backend
// with a single atomic load, so the dispatch path takes no locks.
//
// # Thread Safety
//
// All bridge operations are safe to call from arbitrary goroutines, before
// or after registration. The bridge does not synchronize backend
// internals: a registered Backend must itself be safe for concurrent use.
// All backends in this module are; document the requirement when writing
// your own.
package mem
