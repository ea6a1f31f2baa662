// The gcbench tool drives a live tracegc runtime with a small in-process
// Lisp workload. Run "gcbench help" for a list of commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "gcbench",
	Short: "Drive a tracegc runtime with an in-process Lisp workload",
	Long: `gcbench runs a small Lisp mutator against one of tracegc's three
collector backends (mark-sweep, copying, generational) and reports on
what happened: final result, collector statistics, or a live heap
snapshot.`,
}

func init() {
	rootCmd.PersistentFlags().String("backend", "mark-sweep", "collector backend: mark-sweep, copying, generational")
	rootCmd.PersistentFlags().Uint64("heap-bytes", 0, "override the backend's initial heap/semispace/tenured size (0 = backend default)")
	rootCmd.PersistentFlags().Int("iterations", 500, "number of (set! sum (+ sum 1)) steps the workload performs")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
