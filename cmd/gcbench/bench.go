package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the workload against all three backends and compare them",
	RunE: func(cmd *cobra.Command, args []string) error {
		heapBytes, _ := cmd.Flags().GetUint64("heap-bytes")
		iterations, _ := cmd.Flags().GetInt("iterations")

		type row struct {
			backend     string
			collections uint64
			totalGCMs   float64
			maxPauseMs  float64
			survival    float64
		}
		var rows []row
		for _, backend := range []string{"mark-sweep", "copying", "generational"} {
			rt, _, _, err := runWorkload(backend, heapBytes, iterations)
			if err != nil {
				return fmt.Errorf("backend %s: %w", backend, err)
			}
			s := rt.Stats()
			rows = append(rows, row{
				backend:     rt.BackendName(),
				collections: s.Collections,
				totalGCMs:   s.TotalGCTimeMs,
				maxPauseMs:  s.MaxGCPauseMs,
				survival:    s.SurvivalRate,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].totalGCMs < rows[j].totalGCMs })

		t := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(t, "backend\tcollections\ttotal GC (ms)\tmax pause (ms)\tsurvival\n")
		for _, r := range rows {
			fmt.Fprintf(t, "%s\t%d\t%.3f\t%.3f\t%.2f%%\n", r.backend, r.collections, r.totalGCMs, r.maxPauseMs, r.survival*100)
		}
		t.Flush()
		return nil
	},
}
