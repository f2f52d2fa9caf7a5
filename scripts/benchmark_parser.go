package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Backend     string // "system", "pool", "arena", "cmalloc", ...
	Size        string // request size label, empty for sizeless benchmarks
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult represents one operation/size row compared across
// all backends that ran it.
type ComparisonResult struct {
	Operation string
	Size      string
	Backends  map[string]BenchmarkResult
	Baseline  string // backend the speedups are computed against
	Best      string // fastest backend for this row
}

// backendOrder fixes the column order of the report tables. Backends
// not listed here sort after the known ones, alphabetically.
var backendOrder = []string{
	"system", "pool", "arena", "cmalloc", "tracked",
	"direct", "bridged", "bridged-default",
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	// Parse benchmarks
	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	// Generate comparisons
	comparisons := generateComparisons(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	// Generate markdown report
	report := generateMarkdownReport(comparisons)

	// Write output
	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	// Close input file if opened
	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkAllocRelease/pool/256B-8    10000    124.5 ns/op    256 B/op    1 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+[\d.]+\s+MB/s)?(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		// Parse benchmark line
		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		// Parse name into operation, backend, and size
		// Format: Benchmark<Operation>/<backend>/<size>-<procs>
		// Or:     Benchmark<Operation>/<backend>-<procs>
		parts := strings.Split(name, "/")
		if len(parts) < 2 {
			continue
		}

		operation := strings.TrimPrefix(parts[0], "Benchmark")

		// The -N GOMAXPROCS suffix sits on the last segment.
		lastPart := parts[len(parts)-1]
		if dashIdx := strings.LastIndex(lastPart, "-"); dashIdx > 0 {
			parts[len(parts)-1] = lastPart[:dashIdx]
		}

		backend := parts[1]
		size := ""
		if len(parts) >= 3 {
			size = parts[2]
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Backend:     backend,
			Size:        size,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	// Group results by operation and size
	type key struct {
		operation string
		size      string
	}

	grouped := make(map[key]map[string]BenchmarkResult)

	for _, result := range results {
		k := key{result.Operation, result.Size}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchmarkResult)
		}
		grouped[k][result.Backend] = result
	}

	var comparisons []ComparisonResult

	for k, backends := range grouped {
		comp := ComparisonResult{
			Operation: k.operation,
			Size:      k.size,
			Backends:  backends,
			Baseline:  baselineFor(backends),
		}

		best := ""
		bestNs := 0.0
		for name, r := range backends {
			if best == "" || r.NsPerOp < bestNs {
				best = name
				bestNs = r.NsPerOp
			}
		}
		comp.Best = best

		comparisons = append(comparisons, comp)
	}

	// Sort by operation then size
	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Operation != comparisons[j].Operation {
			return comparisons[i].Operation < comparisons[j].Operation
		}
		return sizeRank(comparisons[i].Size) < sizeRank(comparisons[j].Size)
	})

	return comparisons
}

// baselineFor picks the backend speedups are measured against: the
// system backend when it ran, otherwise "direct" (the raw-call side of
// the dispatch benchmarks), otherwise whatever ran first in table order.
func baselineFor(backends map[string]BenchmarkResult) string {
	if _, ok := backends["system"]; ok {
		return "system"
	}
	if _, ok := backends["direct"]; ok {
		return "direct"
	}
	for _, name := range backendOrder {
		if _, ok := backends[name]; ok {
			return name
		}
	}
	for name := range backends {
		return name
	}
	return ""
}

// sizeRank orders size labels numerically: 16B < 256B < 4KB < 64KB.
func sizeRank(size string) int64 {
	if size == "" {
		return -1
	}
	mult := int64(1)
	num := size
	switch {
	case strings.HasSuffix(size, "KB"):
		mult = 1024
		num = strings.TrimSuffix(size, "KB")
	case strings.HasSuffix(size, "MB"):
		mult = 1024 * 1024
		num = strings.TrimSuffix(size, "MB")
	case strings.HasSuffix(size, "B"):
		num = strings.TrimSuffix(size, "B")
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 1 << 62
	}
	return n * mult
}

// columnsFor returns the union of backends present across comparisons,
// in fixed table order, unknowns last alphabetically.
func columnsFor(comparisons []ComparisonResult) []string {
	seen := make(map[string]bool)
	for _, comp := range comparisons {
		for name := range comp.Backends {
			seen[name] = true
		}
	}

	var columns []string
	for _, name := range backendOrder {
		if seen[name] {
			columns = append(columns, name)
			delete(seen, name)
		}
	}

	var rest []string
	for name := range seen {
		rest = append(rest, name)
	}
	sort.Strings(rest)

	return append(columns, rest...)
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backend Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Summary statistics
	wins := make(map[string]int)
	beatBaseline := 0
	comparable := 0

	for _, comp := range comparisons {
		if len(comp.Backends) < 2 {
			continue
		}
		comparable++
		wins[comp.Best]++
		if comp.Best != comp.Baseline {
			beatBaseline++
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total rows**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Comparable** (two or more backends): %d\n", comparable))
	if comparable > 0 {
		sb.WriteString(fmt.Sprintf("- **Baseline beaten**: %d (%.1f%%)\n",
			beatBaseline, float64(beatBaseline)/float64(comparable)*100))
	}

	var winners []string
	for name := range wins {
		winners = append(winners, name)
	}
	sort.Strings(winners)
	for _, name := range winners {
		sb.WriteString(fmt.Sprintf("  - %s fastest: %d rows\n", name, wins[name]))
	}
	sb.WriteString("\n")

	// Detailed results table
	columns := columnsFor(comparisons)

	sb.WriteString("## Detailed Results (ns/op)\n\n")
	sb.WriteString("| Operation | Size |")
	for _, name := range columns {
		sb.WriteString(fmt.Sprintf(" %s |", name))
	}
	sb.WriteString(" Best |\n")

	sb.WriteString("|-----------|------|")
	for range columns {
		sb.WriteString("------|")
	}
	sb.WriteString("------|\n")

	for _, comp := range comparisons {
		size := comp.Size
		if size == "" {
			size = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |", comp.Operation, size))

		baseline, hasBaseline := comp.Backends[comp.Baseline]
		for _, name := range columns {
			r, ok := comp.Backends[name]
			switch {
			case !ok:
				sb.WriteString(" *N/A* |")
			case name == comp.Baseline || !hasBaseline:
				sb.WriteString(fmt.Sprintf(" %s |", formatNumber(r.NsPerOp)))
			default:
				// Speedup > 1.0 means faster than the baseline.
				sb.WriteString(fmt.Sprintf(" %s (%.2fx) |",
					formatNumber(r.NsPerOp), baseline.NsPerOp/r.NsPerOp))
			}
		}

		sb.WriteString(fmt.Sprintf(" **%s** |\n", comp.Best))
	}

	sb.WriteString("\n")

	// Allocation overhead table
	sb.WriteString("## Go Heap Overhead (B/op, allocs/op)\n\n")
	sb.WriteString("| Operation | Size |")
	for _, name := range columns {
		sb.WriteString(fmt.Sprintf(" %s |", name))
	}
	sb.WriteString("\n")

	sb.WriteString("|-----------|------|")
	for range columns {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	for _, comp := range comparisons {
		size := comp.Size
		if size == "" {
			size = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |", comp.Operation, size))
		for _, name := range columns {
			r, ok := comp.Backends[name]
			if !ok {
				sb.WriteString(" *N/A* |")
				continue
			}
			sb.WriteString(fmt.Sprintf(" %s, %d |", formatBytes(r.BytesPerOp), r.AllocsPerOp))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	// Category summaries
	sb.WriteString("## Performance by Category\n\n")

	for _, category := range []string{"Lifecycle", "Zeroing", "Resizing", "Dispatch"} {
		var speedups []float64
		for _, comp := range comparisons {
			if categorize(comp.Operation) != category {
				continue
			}
			baseline, ok := comp.Backends[comp.Baseline]
			best, okBest := comp.Backends[comp.Best]
			if !ok || !okBest || comp.Best == comp.Baseline {
				continue
			}
			speedups = append(speedups, baseline.NsPerOp/best.NsPerOp)
		}
		if len(speedups) == 0 {
			continue
		}
		total := 0.0
		for _, s := range speedups {
			total += s
		}
		sb.WriteString(fmt.Sprintf("- **%s**: best backend averages %.2fx over the baseline\n",
			category, total/float64(len(speedups))))
	}

	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: faster than the baseline backend\n")
	sb.WriteString("- **B/op, allocs/op**: Go heap traffic per operation; off-heap backends should be near zero\n")
	sb.WriteString("- **arena rows**: include amortized Reset cost, releases reclaim nothing\n")
	sb.WriteString("- Run with: `go test -bench . -benchmem ./tests/benchmarks/comparison | go run scripts/benchmark_parser.go`\n")

	return sb.String()
}

// categorize buckets operations for the category summary.
func categorize(operation string) string {
	op := strings.ToLower(operation)
	switch {
	case strings.Contains(op, "zero"):
		return "Zeroing"
	case strings.Contains(op, "realloc"):
		return "Resizing"
	case strings.Contains(op, "dispatch") || strings.Contains(op, "bridge"):
		return "Dispatch"
	default:
		return "Lifecycle"
	}
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
