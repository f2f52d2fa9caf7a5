package mem

// Backend is the capability interface every allocator implements.
//
// Implementations in this module:
//   - SystemBackend: Go runtime allocation (the default)
//   - Funcs: adapter over individual functions
//   - arena.Arena, pool.Pool, track.Tracker, track.Limiter, cmalloc
//
// A Backend registered with the bridge must be safe for concurrent use;
// the bridge adds no synchronization of its own.
type Backend interface {
	// Alloc returns a handle to at least size bytes. The content is
	// unspecified: backends that recycle memory hand out dirty bytes.
	// size is never negative or zero when called through the bridge.
	Alloc(size int) ([]byte, error)

	// AllocZeroed returns a handle to count*size bytes of zeroes.
	// The bridge validates the product before delegating, so conforming
	// backends never see a negative or overflowing request through it;
	// standalone callers get the same validation from the backends in
	// this module.
	AllocZeroed(count, size int) ([]byte, error)

	// Realloc returns a handle to size bytes whose leading
	// min(len(buf), size) bytes equal buf's content. buf is invalid as
	// soon as the call begins. Whether buf survives a failed resize is
	// backend-defined.
	Realloc(buf []byte, size int) ([]byte, error)

	// Release returns buf's memory to the backend. Backends tolerate
	// nil; releasing any other handle the caller does not own is a
	// protocol violation with backend-defined consequences.
	Release(buf []byte)
}
