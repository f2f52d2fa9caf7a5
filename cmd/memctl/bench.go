package main

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem"
)

var (
	benchBackend string
	benchSizes   string
	benchOps     int64
	benchWorkers int
	benchZeroed  bool
)

// benchResetChunk bounds how many allocations each worker performs
// between arena resets, keeping the bench inside the mapping budget.
const benchResetChunk = int64(4096)

func init() {
	rootCmd.AddCommand(newBenchCmd())
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark allocate/release throughput of a backend",
		Long: `The bench command runs a tight allocate/release loop against the
selected backend and reports throughput, latency, and bytes moved.
Sizes cycle through the --sizes list. With --workers above one the
same loop runs on every worker concurrently.

Example:
  memctl bench --backend pool --ops 1000000
  memctl bench --backend arena --sizes 64,512,4096 --workers 4
  memctl bench --backend cmalloc --zeroed --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
	cmd.Flags().StringVar(&benchBackend, "backend", "system",
		"Backend to exercise (system, pool, arena, cmalloc)")
	cmd.Flags().StringVar(&benchSizes, "sizes", "16,64,256,1024,4096",
		"Comma-separated allocation sizes to cycle through")
	cmd.Flags().Int64Var(&benchOps, "ops", 1_000_000,
		"Allocate/release cycles per worker")
	cmd.Flags().IntVar(&benchWorkers, "workers", 1,
		"Concurrent workers running the loop")
	cmd.Flags().BoolVar(&benchZeroed, "zeroed", false,
		"Use zeroed allocation instead of plain allocation")
	registerBackendFlags(cmd)
	return cmd
}

type BenchResult struct {
	Backend     string
	Zeroed      bool
	Workers     int
	Sizes       []int
	Ops         int64
	Bytes       int64
	ElapsedMs   float64
	NsPerOp     float64
	OpsPerSec   float64
	BytesPerSec float64
}

func runBench() error {
	sizes, err := parseSizes(benchSizes)
	if err != nil {
		return err
	}
	if benchOps <= 0 {
		return fmt.Errorf("--ops must be positive, got %d", benchOps)
	}
	if benchWorkers <= 0 {
		return fmt.Errorf("--workers must be positive, got %d", benchWorkers)
	}

	backend, closeBackend, err := openBackend(benchBackend)
	if err != nil {
		return err
	}
	defer closeBackend()

	printVerbose("bench: %s backend, %d workers, %s ops each\n",
		benchBackend, benchWorkers, formatCount(benchOps))

	// Arena regions only come back on Reset, so an arena bench runs in
	// chunks with a reset barrier between them.
	resettable, canReset := backend.(interface{ Reset() error })
	chunk := benchOps
	if canReset && chunk > benchResetChunk {
		chunk = benchResetChunk
	}

	start := time.Now()
	var done int64
	for done < benchOps {
		n := min(chunk, benchOps-done)

		errs := make([]error, benchWorkers)
		var wg sync.WaitGroup
		for w := range benchWorkers {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				errs[w] = benchWorker(backend, sizes, done, n, benchZeroed)
			}(w)
		}
		wg.Wait()
		for _, e := range errs {
			if e != nil {
				return fmt.Errorf("bench failed: %w", e)
			}
		}

		if canReset {
			if err := resettable.Reset(); err != nil {
				return fmt.Errorf("arena reset: %w", err)
			}
		}
		done += n
	}
	elapsed := time.Since(start)

	totalOps := benchOps * int64(benchWorkers)
	totalBytes := cycleBytes(sizes, benchOps) * int64(benchWorkers)
	seconds := elapsed.Seconds()

	result := BenchResult{
		Backend:     benchBackend,
		Zeroed:      benchZeroed,
		Workers:     benchWorkers,
		Sizes:       sizes,
		Ops:         totalOps,
		Bytes:       totalBytes,
		ElapsedMs:   float64(elapsed.Microseconds()) / 1000.0,
		NsPerOp:     float64(elapsed.Nanoseconds()) / float64(totalOps),
		OpsPerSec:   float64(totalOps) / seconds,
		BytesPerSec: float64(totalBytes) / seconds,
	}

	if jsonOut {
		return printJSON(result)
	}

	printInfo("\nBenchmark: %s backend\n", result.Backend)
	printInfo("%s\n\n", strings.Repeat("═", 40))
	printInfo("  Workers: %d\n", result.Workers)
	printInfo("  Operations: %s\n", formatCount(result.Ops))
	printInfo("  Moved: %s\n", formatBytes(result.Bytes))
	printInfo("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	printInfo("  Latency: %.1f ns/op\n", result.NsPerOp)
	printInfo("  Rate: %s ops/s\n", formatCount(int64(result.OpsPerSec)))
	printInfo("  Throughput: %s/s\n", formatBytes(int64(result.BytesPerSec)))
	return nil
}

// benchWorker runs count allocate/release cycles, touching both ends
// of every buffer so the work cannot be optimized away.
func benchWorker(backend mem.Backend, sizes []int, start, count int64, zeroed bool) error {
	for i := start; i < start+count; i++ {
		size := sizes[int(i%int64(len(sizes)))]

		var b []byte
		var err error
		if zeroed {
			b, err = backend.AllocZeroed(1, size)
		} else {
			b, err = backend.Alloc(size)
		}
		if err != nil {
			return fmt.Errorf("op %d (size %d): %w", i, size, err)
		}

		b[0] = byte(i)
		b[len(b)-1] = byte(i >> 8)
		backend.Release(b)
	}
	return nil
}

// parseSizes turns a --sizes flag value into a validated size list.
func parseSizes(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", part, err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("sizes must be positive, got %d", size)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given in %q", spec)
	}
	return sizes, nil
}

// cycleBytes returns the bytes allocated by ops cycles over sizes.
func cycleBytes(sizes []int, ops int64) int64 {
	var sum int64
	for _, s := range sizes {
		sum += int64(s)
	}
	total := (ops / int64(len(sizes))) * sum
	for _, s := range sizes[:int(ops%int64(len(sizes)))] {
		total += int64(s)
	}
	return total
}
