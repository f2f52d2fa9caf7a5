package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/cmalloc"
	"github.com/joshuapare/memkit/mem/pool"
)

// Backend selection shared by the bench and stress commands.

var (
	poolConfigName string
	arenaMaxSpec   string
)

// registerBackendFlags wires the backend tuning flags onto a command.
func registerBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&poolConfigName, "pool-config", "balanced",
		"Pool size class configuration (balanced, fine, coarse)")
	cmd.Flags().StringVar(&arenaMaxSpec, "arena-max", "256MiB",
		"Arena mapping budget (e.g. 64MiB, 1GiB)")
}

// poolConfigByName resolves a --pool-config flag value.
func poolConfigByName(name string) (pool.Config, error) {
	switch strings.ToLower(name) {
	case "", "balanced":
		return pool.ConfigBalanced, nil
	case "fine", "finegrained":
		return pool.ConfigFineGrained, nil
	case "coarse":
		return pool.ConfigCoarse, nil
	default:
		return pool.Config{}, fmt.Errorf("unknown pool config %q (expected balanced, fine, or coarse)", name)
	}
}

// openBackend builds the backend named by a --backend flag value. The
// returned closer releases whatever the backend holds and is always
// safe to call.
func openBackend(name string) (mem.Backend, func() error, error) {
	switch strings.ToLower(name) {
	case "", "system":
		return mem.SystemBackend{}, noClose, nil

	case "pool":
		cfg, err := poolConfigByName(poolConfigName)
		if err != nil {
			return nil, nil, err
		}
		p, err := pool.New(&pool.Options{Config: cfg})
		if err != nil {
			return nil, nil, fmt.Errorf("pool backend: %w", err)
		}
		printVerbose("pool: %s configuration, %d classes\n", cfg.Name, p.NumClasses())
		return p, noClose, nil

	case "arena":
		budget, err := humanize.ParseBytes(arenaMaxSpec)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --arena-max %q: %w", arenaMaxSpec, err)
		}
		a, err := arena.New(&arena.Options{
			RegionSize: 1 << 20,
			MaxBytes:   int(budget),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("arena backend: %w", err)
		}
		printVerbose("arena: %s budget, %s regions\n",
			formatBytes(int64(budget)), formatBytes(1<<20))
		return a, a.Close, nil

	case "cmalloc":
		if !cmalloc.Available() {
			printVerbose("cmalloc: built without cgo, falling back to the Go allocator\n")
		}
		return cmalloc.New(), noClose, nil

	default:
		return nil, nil, fmt.Errorf(
			"unknown backend %q (expected system, pool, arena, or cmalloc)", name)
	}
}

func noClose() error { return nil }
