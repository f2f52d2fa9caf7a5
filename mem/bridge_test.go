package mem

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBridge_DefaultDispatch tests that an unregistered bridge serves
// allocations through the system backend.
func TestBridge_DefaultDispatch(t *testing.T) {
	br := New()

	assert.False(t, br.Registered(), "fresh bridge should have no override")
	_, ok := br.Active().(SystemBackend)
	assert.True(t, ok, "default backend should be SystemBackend")

	b, err := br.Alloc(32)
	require.NoError(t, err, "Alloc should succeed without registration")
	require.Len(t, b, 32)
	br.Release(b)
}

// TestBridge_ZeroValueUsable tests that the zero Bridge dispatches
// without any construction step.
func TestBridge_ZeroValueUsable(t *testing.T) {
	var br Bridge

	b, err := br.Alloc(8)
	require.NoError(t, err)
	require.Len(t, b, 8)
	br.Release(b)
}

// TestBridge_RegisterOnce tests the one-shot registration contract.
func TestBridge_RegisterOnce(t *testing.T) {
	br := New()
	first := &stubBackend{}
	second := &stubBackend{}

	err := br.Register(first)
	require.NoError(t, err, "first registration should succeed")
	assert.True(t, br.Registered())

	err = br.Register(second)
	require.Error(t, err, "second registration should fail")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// The losing registration must not disturb the winner.
	active, ok := br.Active().(*stubBackend)
	require.True(t, ok)
	assert.True(t, active == first, "first backend should remain active")
}

// TestBridge_RegisterNil tests that a nil backend is rejected without
// consuming the registration slot.
func TestBridge_RegisterNil(t *testing.T) {
	br := New()

	err := br.Register(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilBackend)
	assert.False(t, br.Registered(), "failed registration should leave the slot open")

	require.NoError(t, br.Register(&stubBackend{}), "slot should still accept a real backend")
}

// TestBridge_DispatchAfterRegister tests that all four operations route
// to the registered backend.
func TestBridge_DispatchAfterRegister(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	b, err := br.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 1, sb.allocCalls)

	z, err := br.AllocZeroed(4, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, sb.zeroedCalls)

	b, err = br.Realloc(b, 32)
	require.NoError(t, err)
	assert.Equal(t, 1, sb.reallocCalls)

	br.Release(b)
	br.Release(z)
	assert.Equal(t, 2, sb.releaseCalls)
}

// TestBridge_InvalidSizeNeverReachesBackend tests that size validation
// happens in the bridge, before any backend call.
func TestBridge_InvalidSizeNeverReachesBackend(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	_, err := br.Alloc(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = br.AllocZeroed(-1, 8)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = br.AllocZeroed(8, -1)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = br.AllocZeroed(math.MaxInt, 2)
	assert.ErrorIs(t, err, ErrInvalidSize, "overflowing product should be caught up front")

	assert.Equal(t, 0, sb.allocCalls, "no backend alloc should have happened")
	assert.Equal(t, 0, sb.zeroedCalls, "no backend zeroed alloc should have happened")
}

// TestBridge_ReallocNegativeKeepsHandle tests that a negative resize
// fails before touching the backend and does not consume the handle.
func TestBridge_ReallocNegativeKeepsHandle(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	b, err := br.Alloc(8)
	require.NoError(t, err)
	b[0] = 0x7F

	out, err := br.Realloc(b, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Nil(t, out)

	assert.Equal(t, 0, sb.reallocCalls, "backend realloc should not run")
	assert.Equal(t, 0, sb.releaseCalls, "handle should not be consumed")
	assert.Equal(t, byte(0x7F), b[0], "handle should remain intact")

	br.Release(b)
}

// TestBridge_ZeroSizeShortCircuits tests that zero-size requests yield
// the null handle without a backend round trip.
func TestBridge_ZeroSizeShortCircuits(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	b, err := br.Alloc(0)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = br.AllocZeroed(0, 128)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = br.AllocZeroed(128, 0)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = br.Realloc(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, b)

	assert.Equal(t, 0, sb.allocCalls)
	assert.Equal(t, 0, sb.zeroedCalls)
	assert.Equal(t, 0, sb.reallocCalls)
	assert.Equal(t, 0, sb.releaseCalls)
}

// TestBridge_ReallocNilDelegatesToAlloc tests the C realloc convention
// for the null handle.
func TestBridge_ReallocNilDelegatesToAlloc(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	b, err := br.Realloc(nil, 24)
	require.NoError(t, err)
	require.Len(t, b, 24)

	assert.Equal(t, 1, sb.allocCalls, "Realloc(nil, n) should route to Alloc")
	assert.Equal(t, 0, sb.reallocCalls)

	br.Release(b)
}

// TestBridge_ReallocZeroReleases tests the C realloc convention for a
// zero target size: the handle is released and the null handle returned.
func TestBridge_ReallocZeroReleases(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	b, err := br.Alloc(16)
	require.NoError(t, err)

	out, err := br.Realloc(b, 0)
	require.NoError(t, err)
	assert.Nil(t, out)

	assert.Equal(t, 1, sb.releaseCalls, "Realloc(b, 0) should release the handle")
	assert.Equal(t, 0, sb.reallocCalls)
	assert.True(t, &sb.lastReleased[0] == &b[0], "the exact handle should be released")
}

// TestBridge_ReleaseNil tests that the null handle never reaches the
// backend's Release.
func TestBridge_ReleaseNil(t *testing.T) {
	br := New()
	sb := &stubBackend{}
	require.NoError(t, br.Register(sb))

	br.Release(nil)
	assert.Equal(t, 0, sb.releaseCalls)
}

// TestBridge_NilResultIsOutOfMemory tests that a backend handing back
// the null handle without an error is reported as exhaustion.
func TestBridge_NilResultIsOutOfMemory(t *testing.T) {
	br := New()
	sb := &stubBackend{exhausted: true}
	require.NoError(t, br.Register(sb))

	_, err := br.Alloc(16)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	_, err = br.AllocZeroed(2, 8)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	seed, sysErr := SystemBackend{}.Alloc(8)
	require.NoError(t, sysErr)
	_, err = br.Realloc(seed, 16)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

// TestBridge_BackendErrorPassthrough tests that backend errors surface
// unchanged so callers can match the backend's own sentinels.
func TestBridge_BackendErrorPassthrough(t *testing.T) {
	errBoom := errors.New("backend exploded")
	br := New()
	sb := &stubBackend{failErr: errBoom}
	require.NoError(t, br.Register(sb))

	_, err := br.Alloc(16)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrOutOfMemory, "bridge should not rewrite backend errors")
}

// TestBridge_ConcurrentRegister tests that exactly one of many racing
// registrations wins.
func TestBridge_ConcurrentRegister(t *testing.T) {
	br := New()

	const racers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := br.Register(&stubBackend{})
			if err == nil {
				wins.Add(1)
				return
			}
			if !errors.Is(err, ErrAlreadyRegistered) {
				t.Errorf("unexpected registration error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one registration should win")
	_, ok := br.Active().(*stubBackend)
	assert.True(t, ok, "the winner should be serving dispatch")
}

// TestBridge_ConcurrentTraffic tests that parallel alloc/realloc/release
// cycles never observe foreign writes through a shared bridge.
func TestBridge_ConcurrentTraffic(t *testing.T) {
	br := New()
	require.NoError(t, br.Register(SystemBackend{}))

	const workers = 8
	const cycles = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(pattern byte) {
			defer wg.Done()
			for i := 0; i < cycles; i++ {
				size := 16 + i%48
				b, err := br.Alloc(size)
				if err != nil {
					t.Errorf("worker %d: alloc: %v", pattern, err)
					return
				}
				for j := range b {
					b[j] = pattern
				}

				b, err = br.Realloc(b, size*2)
				if err != nil {
					t.Errorf("worker %d: realloc: %v", pattern, err)
					return
				}
				for j := 0; j < size; j++ {
					if b[j] != pattern {
						t.Errorf("worker %d: byte %d corrupted: got %#x", pattern, j, b[j])
						return
					}
				}
				br.Release(b)
			}
		}(byte(w + 1))
	}
	wg.Wait()
}

// stubBackend is a Backend test double. It counts calls, serves real
// memory from the Go heap, and can be switched into failure modes.
type stubBackend struct {
	allocCalls   int
	zeroedCalls  int
	reallocCalls int
	releaseCalls int
	lastReleased []byte

	exhausted bool  // allocating calls return the null handle
	failErr   error // allocating calls return this error
}

var _ Backend = (*stubBackend)(nil)

func (s *stubBackend) Alloc(size int) ([]byte, error) {
	s.allocCalls++
	if s.failErr != nil {
		return nil, s.failErr
	}
	if s.exhausted {
		return nil, nil
	}
	return SystemBackend{}.Alloc(size)
}

func (s *stubBackend) AllocZeroed(count, size int) ([]byte, error) {
	s.zeroedCalls++
	if s.failErr != nil {
		return nil, s.failErr
	}
	if s.exhausted {
		return nil, nil
	}
	return SystemBackend{}.AllocZeroed(count, size)
}

func (s *stubBackend) Realloc(b []byte, size int) ([]byte, error) {
	s.reallocCalls++
	if s.failErr != nil {
		return nil, s.failErr
	}
	if s.exhausted {
		return nil, nil
	}
	return SystemBackend{}.Realloc(b, size)
}

func (s *stubBackend) Release(b []byte) {
	s.releaseCalls++
	s.lastReleased = b
}
