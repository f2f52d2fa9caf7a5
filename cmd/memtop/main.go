package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	args := os.Args[1:]

	cfg := Config{
		Backend: "system",
		Workers: 2,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--help" || arg == "-h":
			printHelp()
			os.Exit(0)

		case arg == "--version" || arg == "-v":
			fmt.Printf("memtop %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)

		case arg == "--workers" || arg == "-w":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --workers needs a value")
				os.Exit(1)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "Error: invalid worker count %q\n", args[i])
				os.Exit(1)
			}
			cfg.Workers = n

		case arg == "--quota":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --quota needs a value")
				os.Exit(1)
			}
			cfg.Quota = args[i]

		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Error: unknown option %s\n", arg)
			printUsage()
			os.Exit(1)

		default:
			cfg.Backend = arg
		}
	}

	// Create the TUI model
	m, err := NewModel(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create the Bubbletea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	// Run the program
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean up resources
	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing backend: %v\n", err)
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: memtop [options] [backend]\n")
	fmt.Fprintf(os.Stderr, "Try 'memtop --help' for more information.\n")
}

func printHelp() {
	fmt.Println("memtop - Live monitor for memkit allocator backends")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  memtop [options] [backend]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Drives randomized allocation traffic against a backend and shows")
	fmt.Println("  live accounting: operation counts and rates, live and peak bytes,")
	fmt.Println("  pool size class traffic, quota pressure, and a live-byte history")
	fmt.Println("  graph.")
	fmt.Println()
	fmt.Println("  Backends: system (default), pool, arena, cmalloc")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    space/p     Pause or resume the workload")
	fmt.Println("    c           Copy a stats snapshot to the clipboard")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -w, --workers <n>   Traffic workers (default 2)")
	fmt.Println("      --quota <size>  Enforce an allocation quota (e.g. 64MiB)")
	fmt.Println("  -h, --help          Show this help message")
	fmt.Println("  -v, --version       Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  memtop")
	fmt.Println("  memtop pool --workers 4")
	fmt.Println("  memtop system --quota 32MiB")
	fmt.Println()
	fmt.Println("For one-shot benchmarks, use the 'memctl' command instead.")
}
