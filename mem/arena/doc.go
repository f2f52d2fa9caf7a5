// Package arena provides a region-based bump allocator backend for the
// mem bridge.
//
// # Overview
//
// An Arena serves allocations by advancing a pointer through page-backed
// memory regions mapped directly from the OS. Allocation is O(1) and
// individual releases are recorded but not reclaimed; the arena returns
// memory in bulk when Reset or Close is called. This trades space for
// speed in burst workloads: parsers, request handlers, and batch builders
// that allocate heavily and then throw the whole working set away.
//
// # Usage
//
// Standalone:
//
//	a, err := arena.New(nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	b, err := a.Alloc(1024)
//	// ... fill b ...
//	a.Reset() // b and every other handle are now invalid
//
// As the process-wide backend:
//
//	a, _ := arena.New(&arena.Options{RegionSize: 1 << 20})
//	if err := mem.Register(a); err != nil {
//	    return err
//	}
//
// # Regions and Growth
//
// The first region is Options.RegionSize bytes (64 KiB by default).
// When a region fills, the arena maps another at double the previous
// size, capped internally, so long-running arenas settle into a few
// large mappings. Options.MaxBytes bounds the total; requests past the
// bound fail with a wrapped mem.ErrOutOfMemory. Options.NoGrowth pins
// the arena to its first region.
//
// # In-Place Realloc
//
// Realloc of the most recent allocation adjusts the bump pointer instead
// of copying when the active region's tail has room. Growing a 4 KiB
// buffer in a loop over an arena is therefore cheap as long as it stays
// the newest allocation.
//
// # File-Backed Arenas
//
// Options.BackingFile maps regions from a file as shared read-write
// mappings. Content written through arena handles is visible to other
// processes mapping the same file; Sync forces it to disk. The file
// grows with the arena and is truncated back on Reset.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The arena serializes them
// with a mutex; the critical sections are a few comparisons and an
// addition, so contention stays low for realistic workloads.
package arena
