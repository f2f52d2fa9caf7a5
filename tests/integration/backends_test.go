// Package integration exercises the public allocation surface end to
// end: every shipped backend dispatched through a Bridge, plus the
// tracking and quota wrappers stacked the way applications deploy them.
//
// Unit tests in the individual packages pin down each component in
// isolation; the tests here confirm that the calling conventions hold
// identically no matter which backend sits behind the bridge.
package integration

import (
	"testing"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/cmalloc"
	"github.com/joshuapare/memkit/mem/pool"
	"github.com/joshuapare/memkit/mem/track"
)

// suiteBackends defines the backend configurations used across the
// conformance tests. Each Open builds a fresh backend so tests cannot
// leak state into each other; cleanup is registered on t.
var suiteBackends = []struct {
	Name string
	Desc string // Human-readable configuration description
	Open func(t *testing.T) mem.Backend
}{
	{
		Name: "system",
		Desc: "Go heap, garbage collected",
		Open: func(t *testing.T) mem.Backend {
			return mem.SystemBackend{}
		},
	},
	{
		Name: "funcs",
		Desc: "function adapter over the Go heap",
		Open: func(t *testing.T) mem.Backend {
			sys := mem.SystemBackend{}
			return mem.Funcs{
				AllocFunc:   sys.Alloc,
				ReleaseFunc: sys.Release,
			}
		},
	},
	{
		Name: "pool",
		Desc: "size-class recycling, Balanced classes",
		Open: func(t *testing.T) mem.Backend {
			p, err := pool.New(nil)
			if err != nil {
				t.Fatalf("pool.New failed: %v", err)
			}
			return p
		},
	},
	{
		Name: "pool-fine",
		Desc: "size-class recycling, FineGrained classes",
		Open: func(t *testing.T) mem.Backend {
			p, err := pool.New(&pool.Options{Config: pool.ConfigFineGrained})
			if err != nil {
				t.Fatalf("pool.New failed: %v", err)
			}
			return p
		},
	},
	{
		Name: "arena",
		Desc: "bump allocation over anonymous mappings",
		Open: func(t *testing.T) mem.Backend {
			a, err := arena.New(&arena.Options{RegionSize: 64 << 10})
			if err != nil {
				t.Fatalf("arena.New failed: %v", err)
			}
			t.Cleanup(func() {
				if err := a.Close(); err != nil {
					t.Errorf("arena.Close failed: %v", err)
				}
			})
			return a
		},
	},
	{
		Name: "arena-file",
		Desc: "bump allocation over a file-backed mapping",
		Open: func(t *testing.T) mem.Backend {
			a, err := arena.New(&arena.Options{
				RegionSize:  64 << 10,
				BackingFile: t.TempDir() + "/arena.bin",
			})
			if err != nil {
				t.Fatalf("arena.New failed: %v", err)
			}
			t.Cleanup(func() {
				if err := a.Close(); err != nil {
					t.Errorf("arena.Close failed: %v", err)
				}
			})
			return a
		},
	},
	{
		Name: "cmalloc",
		Desc: "C allocator when built with cgo, Go heap otherwise",
		Open: func(t *testing.T) mem.Backend {
			return cmalloc.New()
		},
	},
	{
		Name: "tracked-pool",
		Desc: "pool behind a traffic tracker",
		Open: func(t *testing.T) mem.Backend {
			p, err := pool.New(nil)
			if err != nil {
				t.Fatalf("pool.New failed: %v", err)
			}
			tr := track.Wrap(p)
			t.Cleanup(func() {
				if !tr.Balanced() {
					s := tr.Stats()
					t.Errorf("tracker unbalanced after test: %d handles, %d bytes live",
						s.LiveHandles, s.LiveBytes)
				}
			})
			return tr
		},
	},
	{
		Name: "limited-system",
		Desc: "Go heap behind a 1 GiB quota",
		Open: func(t *testing.T) mem.Backend {
			return track.Limit(mem.SystemBackend{}, 1<<30)
		},
	},
}

// openBridge registers a fresh backend of the named configuration on a
// fresh bridge, the way applications wire an override at startup.
func openBridge(t *testing.T, open func(t *testing.T) mem.Backend) *mem.Bridge {
	t.Helper()
	br := mem.New()
	if err := br.Register(open(t)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return br
}

// fill writes a deterministic, seed-dependent pattern over b.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// verify checks that the leading n bytes of b still carry the pattern
// fill wrote with the same seed.
func verify(t *testing.T, b []byte, n int, seed byte) {
	t.Helper()
	for i := range n {
		if b[i] != seed+byte(i) {
			t.Fatalf("content mismatch at byte %d: got 0x%02x, want 0x%02x",
				i, b[i], seed+byte(i))
		}
	}
}
