package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var classesConfig string

func init() {
	cmd := newClassesCmd()
	cmd.Flags().StringVar(&classesConfig, "config", "balanced",
		"Pool configuration (balanced, fine, coarse)")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Show the size class table of a pool configuration",
		Long: `The classes command prints every buffer capacity a pool configuration
produces, in ascending order. Allocations round up to the next class;
requests beyond the largest class go to the pool's fallback backend.

Example:
  memctl classes
  memctl classes --config fine
  memctl classes --config coarse --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
	return cmd
}

type ClassTable struct {
	Config  string
	Count   int
	Classes []int
}

func runClasses() error {
	cfg, err := poolConfigByName(classesConfig)
	if err != nil {
		return err
	}

	classes := cfg.Classes()
	table := ClassTable{
		Config:  cfg.Name,
		Count:   len(classes),
		Classes: classes,
	}

	if jsonOut {
		return printJSON(table)
	}

	printInfo("\nSize Classes: %s\n", table.Config)
	printInfo("%s\n\n", strings.Repeat("═", 40))

	for i, size := range classes {
		printInfo("  %3d  %10s  (%d bytes)\n", i, formatBytes(int64(size)), size)
	}

	printInfo("\n  %d classes, largest %s\n", table.Count, formatBytes(int64(classes[len(classes)-1])))
	return nil
}
