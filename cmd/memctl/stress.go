package main

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/track"
)

var (
	stressBackend string
	stressWorkers int
	stressOps     int64
	stressSeed    int64
	stressMaxLive string
	stressQuota   string
)

func init() {
	rootCmd.AddCommand(newStressCmd())
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run randomized traffic against a backend under leak tracking",
		Long: `The stress command drives a backend with randomized allocate, zeroed
allocate, reallocate, and release traffic. Every buffer holds a pattern
byte that is verified before release and across reallocation, and the
whole run is wrapped in a tracker that must balance to zero at the end.

The command exits non-zero on content corruption, on a leak, or on an
accounting imbalance.

Example:
  memctl stress --backend pool --workers 8
  memctl stress --backend arena --ops 50000 --seed 7
  memctl stress --backend system --quota 64MiB --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	cmd.Flags().StringVar(&stressBackend, "backend", "system",
		"Backend to exercise (system, pool, arena, cmalloc)")
	cmd.Flags().IntVar(&stressWorkers, "workers", 4,
		"Concurrent workers generating traffic")
	cmd.Flags().Int64Var(&stressOps, "ops", 200_000,
		"Operations per worker")
	cmd.Flags().Int64Var(&stressSeed, "seed", 0,
		"Random seed (0 derives one from the clock)")
	cmd.Flags().StringVar(&stressMaxLive, "max-live", "1MiB",
		"Live byte ceiling per worker (e.g. 512KiB, 4MiB)")
	cmd.Flags().StringVar(&stressQuota, "quota", "",
		"Global allocation quota enforced during the run (empty disables)")
	registerBackendFlags(cmd)
	return cmd
}

type StressResult struct {
	Backend   string
	Workers   int
	Seed      int64
	Allocs    int64
	Reallocs  int64
	Releases  int64
	Failed    int64
	PeakBytes int64
	Denied    int64
	Balanced  bool
}

func runStress() error {
	backend, closeBackend, err := openBackend(stressBackend)
	if err != nil {
		return err
	}
	defer closeBackend()

	maxLive, err := humanize.ParseBytes(stressMaxLive)
	if err != nil {
		return fmt.Errorf("invalid --max-live %q: %w", stressMaxLive, err)
	}
	if stressOps <= 0 {
		return fmt.Errorf("--ops must be positive, got %d", stressOps)
	}
	if stressWorkers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", stressWorkers)
	}

	seed := stressSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	printVerbose("stress: seed %d\n", seed)

	var limiter *track.Limiter
	wrapped := backend
	if stressQuota != "" {
		quota, err := humanize.ParseBytes(stressQuota)
		if err != nil {
			return fmt.Errorf("invalid --quota %q: %w", stressQuota, err)
		}
		limiter = track.Limit(wrapped, int64(quota))
		wrapped = limiter
	}
	tracker := track.Wrap(wrapped)

	errs := make([]error, stressWorkers)
	var wg sync.WaitGroup
	for w := range stressWorkers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			errs[w] = stressWorker(tracker, seed+int64(w), stressOps, int64(maxLive))
		}(w)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("stress failed: %w", e)
		}
	}

	stats := tracker.Stats()
	result := StressResult{
		Backend:   stressBackend,
		Workers:   stressWorkers,
		Seed:      seed,
		Allocs:    stats.Allocs,
		Reallocs:  stats.Reallocs,
		Releases:  stats.Releases,
		Failed:    stats.Failed,
		PeakBytes: stats.PeakBytes,
		Balanced:  tracker.Balanced(),
	}
	if limiter != nil {
		result.Denied = limiter.Denied()
	}

	if jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printInfo("\nStress: %s backend\n", result.Backend)
		printInfo("%s\n\n", strings.Repeat("═", 40))
		printInfo("  Workers: %d\n", result.Workers)
		printInfo("  Seed: %d\n", result.Seed)
		printInfo("  Allocations: %s\n", formatCount(result.Allocs))
		printInfo("  Reallocations: %s\n", formatCount(result.Reallocs))
		printInfo("  Releases: %s\n", formatCount(result.Releases))
		printInfo("  Failed: %s\n", formatCount(result.Failed))
		printInfo("  Peak Live: %s\n", formatBytes(result.PeakBytes))
		if limiter != nil {
			printInfo("  Quota Denials: %s\n", formatCount(result.Denied))
		}
	}

	if !result.Balanced {
		return fmt.Errorf("leak detected: %d live handles, %s still accounted",
			stats.LiveHandles, formatBytes(stats.LiveBytes))
	}
	if !jsonOut {
		printInfo("\n  OK: all handles released, accounting balanced\n")
	}
	return nil
}

// stressBuf is one live allocation and the pattern byte it was filled
// with.
type stressBuf struct {
	buf     []byte
	pattern byte
}

// stressWorker drives ops random operations, keeping its live set under
// maxLive bytes and verifying buffer contents before every release and
// reallocation.
func stressWorker(backend mem.Backend, seed, ops, maxLive int64) error {
	rng := rand.New(rand.NewSource(seed))
	live := make([]stressBuf, 0, 128)
	var liveBytes int64

	verify := func(sb stressBuf, n int) error {
		for i := range n {
			if sb.buf[i] != sb.pattern {
				return fmt.Errorf("corruption at byte %d: got %#x want %#x",
					i, sb.buf[i], sb.pattern)
			}
		}
		return nil
	}

	release := func(idx int) error {
		sb := live[idx]
		if err := verify(sb, len(sb.buf)); err != nil {
			return err
		}
		backend.Release(sb.buf)
		liveBytes -= int64(len(sb.buf))
		live[idx] = live[len(live)-1]
		live = live[:len(live)-1]
		return nil
	}

	for op := int64(0); op < ops; op++ {
		for liveBytes > maxLive && len(live) > 0 {
			if err := release(rng.Intn(len(live))); err != nil {
				return err
			}
		}

		switch rng.Intn(4) {
		case 0, 1: // allocation-leaning traffic keeps the live set populated
			size := 1 + rng.Intn(8192)
			var b []byte
			var err error
			if rng.Intn(2) == 0 {
				b, err = backend.Alloc(size)
			} else {
				b, err = backend.AllocZeroed(1, size)
			}
			if err != nil {
				// Quota denials and arena exhaustion land in the
				// tracker's Failed count.
				continue
			}
			pattern := byte(1 + rng.Intn(255))
			for i := range b {
				b[i] = pattern
			}
			live = append(live, stressBuf{buf: b, pattern: pattern})
			liveBytes += int64(len(b))

		case 2:
			if len(live) == 0 {
				continue
			}
			idx := rng.Intn(len(live))
			sb := live[idx]
			newSize := 1 + rng.Intn(8192)
			keep := min(len(sb.buf), newSize)
			if err := verify(sb, keep); err != nil {
				return err
			}

			out, err := backend.Realloc(sb.buf, newSize)
			if err != nil {
				// Shipped backends keep the original block intact on a
				// failed resize, so the handle stays in the live set.
				continue
			}
			if err := verify(stressBuf{buf: out[:keep], pattern: sb.pattern}, keep); err != nil {
				return fmt.Errorf("after realloc %d -> %d: %w", len(sb.buf), newSize, err)
			}

			pattern := byte(1 + rng.Intn(255))
			for i := range out {
				out[i] = pattern
			}
			liveBytes += int64(len(out)) - int64(len(sb.buf))
			live[idx] = stressBuf{buf: out, pattern: pattern}

		case 3:
			if len(live) == 0 {
				continue
			}
			if err := release(rng.Intn(len(live))); err != nil {
				return err
			}
		}
	}

	for len(live) > 0 {
		if err := release(len(live) - 1); err != nil {
			return err
		}
	}
	return nil
}
