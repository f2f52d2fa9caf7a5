// Package buf holds the overflow-safe size arithmetic shared by every
// allocation backend.
package buf

import (
	"fmt"
	"math"
)

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow int.
// This is essential for count * size calculations in array allocation requests.
func MulOverflowSafe(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	// For positive numbers, check if result would overflow
	if a > 0 && b > 0 {
		if a > math.MaxInt/b {
			return 0, false
		}
	}
	// For negative numbers
	if a < 0 && b < 0 {
		if a < math.MaxInt/b {
			return 0, false
		}
	}
	// Mixed signs - check against MinInt
	if a > 0 && b < 0 {
		if b < math.MinInt/a {
			return 0, false
		}
	}
	if a < 0 && b > 0 {
		if a < math.MinInt/b {
			return 0, false
		}
	}
	return a * b, true
}

// CheckAllocTotal validates a count * size allocation request and returns the
// total byte count. It rejects negative inputs and products that overflow int.
//
// This is the recommended way to validate array allocation requests before
// touching any allocator:
//
//	total, err := buf.CheckAllocTotal(count, size)
//	if err != nil {
//	    return nil, fmt.Errorf("mem: %w", err)
//	}
//	// Safe to request total bytes
func CheckAllocTotal(count, size int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("negative count: %d", count)
	}
	if size < 0 {
		return 0, fmt.Errorf("negative size: %d", size)
	}

	total, ok := MulOverflowSafe(count, size)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * size=%d", count, size)
	}
	return total, nil
}
