package arena

// DefaultRegionSize is the size of the first mapped region when Options
// does not override it. Later regions double up to an internal cap.
const DefaultRegionSize = 64 << 10 // 64 KiB

// Options controls arena behavior.
type Options struct {
	// RegionSize is the size of the first mapped region in bytes.
	// Rounded up to the OS page size. 0 means DefaultRegionSize.
	RegionSize int

	// MaxBytes caps the total mapped bytes across all regions.
	// 0 means unlimited. Requests that would push the arena past the
	// cap fail with a wrapped mem.ErrOutOfMemory.
	MaxBytes int

	// BackingFile, when non-empty, maps regions from this file as
	// shared read-write mappings instead of anonymous memory. The file
	// is created if missing and grown as regions are added, which makes
	// the arena's content visible to other processes mapping the same
	// file. Call Sync to force content to disk.
	BackingFile string

	// NoGrowth restricts the arena to its first region. Allocations
	// that do not fit fail with a wrapped mem.ErrOutOfMemory.
	NoGrowth bool
}

// DefaultOptions returns the standard arena configuration: 64 KiB
// anonymous regions, unlimited growth.
func DefaultOptions() Options {
	return Options{
		RegionSize: DefaultRegionSize,
	}
}
