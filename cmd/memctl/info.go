package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/mem/arena"
	"github.com/joshuapare/memkit/mem/cmalloc"
	"github.com/joshuapare/memkit/mem/pool"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report build capabilities and backend defaults",
		Long: `The info command reports the runtime this build targets and the
defaults the backends will use on it, including whether the C allocator
is available.

Example:
  memctl info
  memctl info --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

type BuildInfo struct {
	Version     string
	GoVersion   string
	OS          string
	Arch        string
	NumCPU      int
	PageSize    int
	CAllocator  bool
	PoolConfig  string
	PoolClasses int
	ArenaRegion int
}

func runInfo() error {
	info := BuildInfo{
		Version:     version,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		PageSize:    os.Getpagesize(),
		CAllocator:  cmalloc.Available(),
		PoolConfig:  pool.DefaultConfig.Name,
		PoolClasses: len(pool.DefaultConfig.Classes()),
		ArenaRegion: arena.DefaultRegionSize,
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nmemctl %s\n", info.Version)
	printInfo("%s\n\n", strings.Repeat("═", 40))

	printInfo("Runtime:\n")
	printInfo("  Go: %s\n", info.GoVersion)
	printInfo("  Platform: %s/%s\n", info.OS, info.Arch)
	printInfo("  CPUs: %d\n", info.NumCPU)
	printInfo("  Page Size: %s\n\n", formatBytes(int64(info.PageSize)))

	printInfo("Backends:\n")
	printInfo("  system: Go runtime allocator\n")
	printInfo("  pool: %s configuration, %d classes\n", info.PoolConfig, info.PoolClasses)
	printInfo("  arena: %s regions\n", formatBytes(int64(info.ArenaRegion)))
	if info.CAllocator {
		printInfo("  cmalloc: available\n")
	} else {
		printInfo("  cmalloc: unavailable (built without cgo)\n")
	}
	return nil
}
