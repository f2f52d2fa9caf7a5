package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassTable_LinearPhase tests the small-size classes.
func TestClassTable_LinearPhase(t *testing.T) {
	table := newClassTable(Config{
		Name:           "test",
		SmallMin:       8,
		SmallMax:       64,
		SmallIncrement: 8,
		MaxSize:        64,
		GrowthFactor:   1.5,
	})

	assert.Equal(t, []int{8, 16, 24, 32, 40, 48, 56, 64}, table.sizes)
}

// TestClassTable_GeometricPhase tests growth above SmallMax.
func TestClassTable_GeometricPhase(t *testing.T) {
	table := newClassTable(Config{
		Name:           "test",
		SmallMin:       8,
		SmallMax:       16,
		SmallIncrement: 8,
		MaxSize:        128,
		GrowthFactor:   2.0,
	})

	// 8, 16 linear; then 32, 64, 128 geometric.
	assert.Equal(t, []int{8, 16, 32, 64, 128}, table.sizes)
}

// TestClassTable_ClassFor tests class lookup boundaries.
func TestClassTable_ClassFor(t *testing.T) {
	table := newClassTable(Config{
		Name:           "test",
		SmallMin:       8,
		SmallMax:       32,
		SmallIncrement: 8,
		MaxSize:        32,
		GrowthFactor:   1.5,
	})
	require.Equal(t, []int{8, 16, 24, 32}, table.sizes)

	cases := map[int]int{
		1:  0, // below the smallest class
		8:  0, // exact boundary
		9:  1,
		16: 1,
		17: 2,
		24: 2,
		25: 3,
		32: 3,
	}
	for size, want := range cases {
		assert.Equal(t, want, table.classFor(size), "classFor(%d)", size)
	}

	assert.Equal(t, len(table.sizes), table.classFor(33), "over-max sizes should report the fallback index")
}

// TestClassTable_Normalization tests repair of degenerate configs.
func TestClassTable_Normalization(t *testing.T) {
	table := newClassTable(Config{
		Name:           "degenerate",
		SmallMin:       3,   // below granularity
		SmallMax:       1,   // below min
		SmallIncrement: 0,   // zero step
		MaxSize:        0,   // below max small
		GrowthFactor:   0.5, // shrinking growth
	})

	require.NotEmpty(t, table.sizes)
	assert.Equal(t, 8, table.sizes[0], "smallest class should snap to the 8-byte granularity")
	for i, size := range table.sizes {
		assert.Equal(t, 0, size%8, "class %d capacity %d should be 8-byte aligned", i, size)
	}
	for i := 1; i < len(table.sizes); i++ {
		assert.Greater(t, table.sizes[i], table.sizes[i-1], "class capacities should be strictly increasing")
	}
}

// TestConfig_Classes tests the public class listing.
func TestConfig_Classes(t *testing.T) {
	cfg := Config{
		Name:           "test",
		SmallMin:       8,
		SmallMax:       16,
		SmallIncrement: 8,
		MaxSize:        128,
		GrowthFactor:   2.0,
	}

	classes := cfg.Classes()
	assert.Equal(t, []int{8, 16, 32, 64, 128}, classes)

	classes[0] = 999
	assert.Equal(t, 8, cfg.Classes()[0], "Classes should return a copy")
}

// TestClassTable_Presets tests that every preset builds a sane table.
func TestClassTable_Presets(t *testing.T) {
	for _, cfg := range []Config{ConfigFineGrained, ConfigBalanced, ConfigCoarse} {
		table := newClassTable(cfg)

		require.NotEmpty(t, table.sizes, "%s should have classes", cfg.Name)
		assert.Equal(t, cfg.Name, table.String())
		assert.Equal(t, len(table.sizes), table.NumClasses())
		assert.Equal(t, cfg.MaxSize, table.sizes[len(table.sizes)-1],
			"%s should top out at MaxSize", cfg.Name)

		for i := 1; i < len(table.sizes); i++ {
			require.Greater(t, table.sizes[i], table.sizes[i-1],
				"%s class capacities should be strictly increasing", cfg.Name)
		}
	}
}
