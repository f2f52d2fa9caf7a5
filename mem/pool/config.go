package pool

import (
	"math"

	"github.com/joshuapare/memkit/internal/align"
)

// Config defines the pool's size class strategy.
// Different configurations trade lookup granularity against the number
// of pools kept warm.
type Config struct {
	// Name for this configuration (for benchmarking)
	Name string

	// Small allocation settings (linear increments)
	SmallMin       int // Smallest class size (typically 8)
	SmallMax       int // Max for linear increments (typically 256-512)
	SmallIncrement int // Class spacing for small allocations (8, 16, or 32)

	// Large allocation settings (logarithmic growth)
	MaxSize      int     // Largest pooled size; bigger requests hit the fallback
	GrowthFactor float64 // Exponential growth factor (1.5, 2.0, etc.)
}

// Predefined configurations.
var (
	// FineGrained: many small classes, low internal fragmentation.
	// 8-256 step 8 (32 classes) + 256-16K log growth (~12 classes).
	ConfigFineGrained = Config{
		Name:           "FineGrained",
		SmallMin:       8,
		SmallMax:       256,
		SmallIncrement: 8,
		MaxSize:        16384,
		GrowthFactor:   1.5,
	}

	// Balanced: good balance between warm-pool count and granularity.
	// 8-512 step 16 (32 classes) + 512-16K log growth (~9 classes).
	ConfigBalanced = Config{
		Name:           "Balanced",
		SmallMin:       8,
		SmallMax:       512,
		SmallIncrement: 16,
		MaxSize:        16384,
		GrowthFactor:   1.5,
	}

	// Coarse: few classes, fast lookup, more internal fragmentation.
	// 8-512 step 32 (16 classes) + 512-16K log growth (~6 classes).
	ConfigCoarse = Config{
		Name:           "Coarse",
		SmallMin:       8,
		SmallMax:       512,
		SmallIncrement: 32,
		MaxSize:        16384,
		GrowthFactor:   2.0,
	}

	// DefaultConfig is used when Options carries a zero Config.
	DefaultConfig = ConfigBalanced
)

// Classes returns the buffer capacities the configuration produces,
// smallest first. The slice is a copy and safe to modify.
func (c Config) Classes() []int {
	t := newClassTable(c)
	out := make([]int, len(t.sizes))
	copy(out, t.sizes)
	return out
}

// normalized returns the config with every size snapped to the 8-byte
// allocation granularity and degenerate values repaired.
func (c Config) normalized() Config {
	if c.SmallMin < align.Word {
		c.SmallMin = align.Word
	}
	c.SmallMin = align.Up8(c.SmallMin)

	if c.SmallIncrement < align.Word {
		c.SmallIncrement = align.Word
	}
	c.SmallIncrement = align.Up8(c.SmallIncrement)

	if c.SmallMax < c.SmallMin {
		c.SmallMax = c.SmallMin
	}
	c.SmallMax = align.Up8(c.SmallMax)

	if c.MaxSize < c.SmallMax {
		c.MaxSize = c.SmallMax
	}
	c.MaxSize = align.Up8(c.MaxSize)

	if c.GrowthFactor < 1.1 {
		c.GrowthFactor = 1.5
	}
	return c
}

// classTable holds the computed size class capacities.
type classTable struct {
	config Config
	sizes  []int // exact buffer capacity of each class, ascending
}

// newClassTable computes class capacities from config.
func newClassTable(config Config) *classTable {
	config = config.normalized()
	t := &classTable{
		config: config,
		sizes:  make([]int, 0, 64),
	}

	// Phase 1: small classes (linear increments)
	for size := config.SmallMin; size <= config.SmallMax; size += config.SmallIncrement {
		t.sizes = append(t.sizes, size)
	}

	// Phase 2: large classes (logarithmic growth)
	for size := t.sizes[len(t.sizes)-1]; size < config.MaxSize; {
		next := align.Up8(int(math.Ceil(float64(size) * config.GrowthFactor)))
		if next <= size {
			next = size + align.Word // Ensure progress
		}
		if next >= config.MaxSize {
			next = config.MaxSize
		}
		t.sizes = append(t.sizes, next)
		size = next
	}

	return t
}

// classFor returns the index of the smallest class that fits size.
// Returns len(t.sizes) for sizes beyond MaxSize (use the fallback).
func (t *classTable) classFor(size int) int {
	// Binary search for the appropriate size class
	lo, hi := 0, len(t.sizes)-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.sizes[mid] {
			// Check if this is the smallest class that fits
			if mid == 0 || size > t.sizes[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	// Size is larger than all classes → fallback
	return len(t.sizes)
}

// String returns the configuration name.
func (t *classTable) String() string {
	return t.config.Name
}

// NumClasses returns the number of size classes.
func (t *classTable) NumClasses() int {
	return len(t.sizes)
}
