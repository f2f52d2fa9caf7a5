package integration

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/joshuapare/memkit/mem"
)

// soakHandle pairs a live handle with the seed its content was filled
// from, so releases can verify nothing scribbled over it in between.
type soakHandle struct {
	buf  []byte
	seed byte
}

// runSoak drives ops random lifecycle operations against the bridge,
// keeping at most maxLive bytes live, verifying handle content before
// every resize and release. It returns only after draining the live set.
func runSoak(t *testing.T, br *mem.Bridge, seed int64, ops, maxLive int) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	var live []soakHandle
	liveBytes := 0

	for range ops {
		switch op := rng.Intn(4); {
		case op <= 1 && liveBytes < maxLive: // alloc, alloc zeroed
			size := 1 + rng.Intn(2048)
			var (
				b   []byte
				err error
			)
			if op == 0 {
				b, err = br.Alloc(size)
			} else {
				b, err = br.AllocZeroed(1, size)
			}
			if err != nil {
				t.Fatalf("alloc size=%d failed: %v", size, err)
			}
			s := byte(1 + rng.Intn(255))
			fill(b, s)
			live = append(live, soakHandle{b, s})
			liveBytes += size

		case op == 2 && len(live) > 0: // realloc
			i := rng.Intn(len(live))
			h := live[i]
			size := 1 + rng.Intn(4096)
			keep := min(len(h.buf), size)

			b, err := br.Realloc(h.buf, size)
			if err != nil {
				t.Fatalf("realloc %d -> %d failed: %v", len(h.buf), size, err)
			}
			verify(t, b, keep, h.seed)
			liveBytes += size - len(h.buf)
			live[i] = soakHandle{b, h.seed}

		case len(live) > 0: // release
			i := rng.Intn(len(live))
			h := live[i]
			verify(t, h.buf, len(h.buf), h.seed)
			br.Release(h.buf)
			liveBytes -= len(h.buf)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}

	for _, h := range live {
		verify(t, h.buf, len(h.buf), h.seed)
		br.Release(h.buf)
	}
}

// TestBridgeSoak runs a randomized allocate/resize/release workload
// against every backend and verifies content at each step. The fixed
// seed keeps failures reproducible.
func TestBridgeSoak(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping soak test in short mode")
	}

	for _, bc := range suiteBackends {
		t.Run(bc.Name, func(t *testing.T) {
			br := openBridge(t, bc.Open)
			runSoak(t, br, 1, 20000, 1<<20)
		})
	}
}

// TestBridgeConcurrentTraffic hammers one bridge from several
// goroutines at once. The dispatch path is a single atomic load, so
// the only shared state under test is the backend itself; every
// shipped backend must take concurrent mixed traffic without
// corrupting handles.
func TestBridgeConcurrentTraffic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}

	const workers = 8

	for _, bc := range suiteBackends {
		t.Run(bc.Name, func(t *testing.T) {
			br := openBridge(t, bc.Open)

			var wg sync.WaitGroup
			for w := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					rng := rand.New(rand.NewSource(int64(w) + 100))
					for range 3000 {
						size := 1 + rng.Intn(1024)
						b, err := br.Alloc(size)
						if err != nil {
							t.Errorf("Alloc(%d) failed: %v", size, err)
							return
						}
						s := byte(w + 1)
						fill(b, s)

						if size%3 == 0 {
							grown, err := br.Realloc(b, size*2)
							if err != nil {
								t.Errorf("Realloc(%d) failed: %v", size*2, err)
								return
							}
							b = grown
						}

						for i := range min(len(b), size) {
							if b[i] != s+byte(i) {
								t.Errorf("worker %d: byte %d corrupted", w, i)
								return
							}
						}
						br.Release(b)
					}
				}()
			}
			wg.Wait()
		})
	}
}
