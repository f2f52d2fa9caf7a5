package main

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/memkit/mem"
)

const (
	workerMaxLive  = 2 << 20 // live bytes each worker may hold
	workerBatch    = 64      // operations between pacing sleeps
	workerInterval = 10 * time.Millisecond
)

// generator drives randomized allocator traffic so the monitor has
// something to watch. Workers release their whole live set on stop.
type generator struct {
	backend  mem.Backend
	workers  int
	paused   atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newGenerator(backend mem.Backend, workers int) *generator {
	return &generator{
		backend: backend,
		workers: workers,
		stop:    make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (g *generator) Start() {
	for w := range g.workers {
		g.wg.Add(1)
		go g.loop(int64(w + 1))
	}
}

// Toggle flips the paused state and reports the new one.
func (g *generator) Toggle() bool {
	paused := !g.paused.Load()
	g.paused.Store(paused)
	return paused
}

// Paused reports whether the workload is paused.
func (g *generator) Paused() bool {
	return g.paused.Load()
}

// Stop terminates the workers and waits until every live buffer has
// been released. Safe to call more than once.
func (g *generator) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
	g.wg.Wait()
}

func (g *generator) loop(seed int64) {
	defer g.wg.Done()

	rng := rand.New(rand.NewSource(seed*7919 ^ time.Now().UnixNano()))
	live := make([][]byte, 0, 128)
	liveBytes := 0

	release := func(idx int) {
		b := live[idx]
		g.backend.Release(b)
		liveBytes -= len(b)
		live[idx] = live[len(live)-1]
		live = live[:len(live)-1]
	}

	for {
		select {
		case <-g.stop:
			for len(live) > 0 {
				release(len(live) - 1)
			}
			return
		default:
		}

		if g.paused.Load() {
			time.Sleep(workerInterval)
			continue
		}

		for range workerBatch {
			for liveBytes > workerMaxLive && len(live) > 0 {
				release(rng.Intn(len(live)))
			}

			switch rng.Intn(4) {
			case 0, 1: // allocation-leaning keeps the live set moving
				size := 1 + rng.Intn(16384)
				var b []byte
				var err error
				if rng.Intn(2) == 0 {
					b, err = g.backend.Alloc(size)
				} else {
					b, err = g.backend.AllocZeroed(1, size)
				}
				if err != nil {
					// Denials and exhaustion show up as Failed in the UI.
					continue
				}
				b[0] = byte(size)
				b[len(b)-1] = byte(size >> 8)
				live = append(live, b)
				liveBytes += len(b)

			case 2:
				if len(live) == 0 {
					continue
				}
				idx := rng.Intn(len(live))
				out, err := g.backend.Realloc(live[idx], 1+rng.Intn(16384))
				if err != nil {
					continue
				}
				liveBytes += len(out) - len(live[idx])
				live[idx] = out

			case 3:
				if len(live) == 0 {
					continue
				}
				release(rng.Intn(len(live)))
			}
		}
		time.Sleep(workerInterval)
	}
}
