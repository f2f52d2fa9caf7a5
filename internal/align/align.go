package align

// Alignment utilities for allocator implementations.
// Backends hand out 8-byte aligned blocks and size their regions in
// whole pages, so both boundaries get dedicated helpers.

const (
	// Word is the allocation granularity every backend guarantees.
	// Matches the alignment of the largest primitive Go type.
	Word = 8

	wordMask = Word - 1

	// Page is the region granularity used when reserving memory from
	// the OS. Kept at the common 4KB page; mappings on systems with
	// larger pages still work because the kernel rounds up internally.
	Page = 4096

	pageMask = Page - 1
)

// Up8 returns n aligned up to the next 8-byte boundary.
// Used for block sizes handed out by bump and pool allocators.
//
// Example:
//
//	Up8(1)  = 8
//	Up8(8)  = 8
//	Up8(9)  = 16
//	Up8(16) = 16
func Up8(n int) int {
	return (n + wordMask) & ^wordMask
}

// UpPage returns n aligned up to the next 4KB (4096-byte) boundary.
// Used for region sizes requested from the OS.
//
// Example:
//
//	UpPage(1)    = 4096
//	UpPage(4096) = 4096
//	UpPage(4097) = 8192
func UpPage(n int) int {
	return (n + pageMask) & ^pageMask
}

// UpTo returns n aligned up to the next multiple of a.
// a must be a power of two; passing anything else is a programming error
// and the result is unspecified.
func UpTo(n, a int) int {
	mask := a - 1
	return (n + mask) & ^mask
}

// DownTo returns n aligned down to the previous multiple of a.
// a must be a power of two.
func DownTo(n, a int) int {
	return n & ^(a - 1)
}

// IsAligned8 reports whether n sits on an 8-byte boundary.
func IsAligned8(n int) bool {
	return n&wordMask == 0
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
