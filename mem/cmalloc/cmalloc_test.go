package cmalloc

import (
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/mem"
)

// TestNew_RoundTrip tests that an allocated buffer holds data written
// to it until it is released.
func TestNew_RoundTrip(t *testing.T) {
	backend := New()
	require.NotNil(t, backend, "New should always return a backend")

	b, err := backend.Alloc(64)
	require.NoError(t, err, "alloc should succeed")
	require.Len(t, b, 64, "buffer should have the requested length")

	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		assert.Equal(t, byte(i), b[i], "buffer should hold written data at %d", i)
	}

	backend.Release(b)
}

// TestNew_AllocZeroed tests zeroed allocation and overflow rejection.
func TestNew_AllocZeroed(t *testing.T) {
	backend := New()

	b, err := backend.AllocZeroed(16, 8)
	require.NoError(t, err, "zeroed alloc should succeed")
	require.Len(t, b, 128, "buffer should cover count*size bytes")
	for i, v := range b {
		require.Zero(t, v, "byte %d should be zero", i)
	}
	backend.Release(b)

	_, err = backend.AllocZeroed(math.MaxInt, 2)
	require.Error(t, err, "overflowing product should be rejected")
	assert.ErrorIs(t, err, mem.ErrInvalidSize, "overflow should map to ErrInvalidSize")
}

// TestNew_Conventions tests the zero-size, negative-size and nil-handle
// conventions shared by every backend.
func TestNew_Conventions(t *testing.T) {
	backend := New()

	b, err := backend.Alloc(0)
	assert.NoError(t, err, "zero-size alloc should not error")
	assert.Nil(t, b, "zero-size alloc should return a nil handle")

	_, err = backend.Alloc(-1)
	assert.ErrorIs(t, err, mem.ErrInvalidSize, "negative size should be rejected")

	_, err = backend.Realloc(nil, -5)
	assert.ErrorIs(t, err, mem.ErrInvalidSize, "negative realloc should be rejected")

	assert.NotPanics(t, func() { backend.Release(nil) }, "releasing nil should be a no-op")
}

// TestNew_ReallocGrowPreservesPrefix tests that growing a buffer keeps
// its contents.
func TestNew_ReallocGrowPreservesPrefix(t *testing.T) {
	backend := New()

	b, err := backend.Alloc(32)
	require.NoError(t, err, "alloc should succeed")
	for i := range b {
		b[i] = 0xC3
	}

	out, err := backend.Realloc(b, 256)
	require.NoError(t, err, "grow should succeed")
	require.Len(t, out, 256, "grown buffer should have the new length")
	for i := range 32 {
		assert.Equal(t, byte(0xC3), out[i], "prefix byte %d should survive the grow", i)
	}

	backend.Release(out)
}

// TestNew_ReallocNilAndZero tests the alloc and release aliases of
// Realloc.
func TestNew_ReallocNilAndZero(t *testing.T) {
	backend := New()

	b, err := backend.Realloc(nil, 48)
	require.NoError(t, err, "realloc from nil should allocate")
	require.Len(t, b, 48, "allocated buffer should have the requested length")

	out, err := backend.Realloc(b, 0)
	assert.NoError(t, err, "realloc to zero should not error")
	assert.Nil(t, out, "realloc to zero should return a nil handle")
}

// TestNew_SurvivesGC tests that buffer contents are stable across a
// garbage collection cycle.
func TestNew_SurvivesGC(t *testing.T) {
	backend := New()

	b, err := backend.Alloc(4096)
	require.NoError(t, err, "alloc should succeed")
	for i := range b {
		b[i] = byte(i % 251)
	}

	runtime.GC()
	runtime.GC()

	for i := range b {
		require.Equal(t, byte(i%251), b[i], "byte %d should survive collection", i)
	}

	backend.Release(b)
}

// TestNew_AsBridgeBackend tests registering the backend on a bridge and
// running traffic through the bridge surface.
func TestNew_AsBridgeBackend(t *testing.T) {
	br := mem.New()
	require.NoError(t, br.Register(New()), "registration should succeed")

	b, err := br.AllocZeroed(8, 8)
	require.NoError(t, err, "bridge zeroed alloc should succeed")
	require.Len(t, b, 64, "bridge should return the requested buffer")

	b, err = br.Realloc(b, 128)
	require.NoError(t, err, "bridge realloc should succeed")
	assert.Len(t, b, 128, "bridge realloc should resize the buffer")

	br.Release(b)
}

// TestAvailable_MatchesBackendKind tests that Available agrees with the
// concrete backend New returns.
func TestAvailable_MatchesBackendKind(t *testing.T) {
	_, isSystem := New().(mem.SystemBackend)
	if Available() {
		assert.False(t, isSystem, "a C-backed build should not hand out the system backend")
	} else {
		assert.True(t, isSystem, "without cgo New should fall back to the system backend")
	}
}
