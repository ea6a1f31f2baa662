package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run the workload and print the collector's cumulative statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := cmd.Flags().GetString("backend")
		heapBytes, _ := cmd.Flags().GetUint64("heap-bytes")
		iterations, _ := cmd.Flags().GetInt("iterations")

		rt, _, result, err := runWorkload(backend, heapBytes, iterations)
		if err != nil {
			return err
		}
		s := rt.Stats()

		t := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(t, "backend\t%s\n", rt.BackendName())
		fmt.Fprintf(t, "result\t%v\n", result)
		fmt.Fprintf(t, "collections\t%d\n", s.Collections)
		fmt.Fprintf(t, "allocated bytes\t%d\n", s.AllocatedBytes)
		fmt.Fprintf(t, "freed bytes\t%d\n", s.FreedBytes)
		fmt.Fprintf(t, "current bytes\t%d\n", s.CurrentBytes)
		fmt.Fprintf(t, "objects scanned\t%d\n", s.ObjectsScanned)
		fmt.Fprintf(t, "objects copied\t%d\n", s.ObjectsCopied)
		fmt.Fprintf(t, "objects promoted\t%d\n", s.ObjectsPromoted)
		fmt.Fprintf(t, "survival rate\t%.2f%%\n", s.SurvivalRate*100)
		fmt.Fprintf(t, "last pause (ms)\t%.3f\n", s.LastGCPauseMs)
		fmt.Fprintf(t, "avg pause (ms)\t%.3f\n", s.AvgGCPauseMs)
		fmt.Fprintf(t, "max pause (ms)\t%.3f\n", s.MaxGCPauseMs)
		fmt.Fprintf(t, "total GC time (ms)\t%.3f\n", s.TotalGCTimeMs)
		if s.FragmentationIndex > 0 || s.LargestFreeBlock > 0 {
			fmt.Fprintf(t, "largest free block\t%d\n", s.LargestFreeBlock)
			fmt.Fprintf(t, "total free memory\t%d\n", s.TotalFreeMemory)
			fmt.Fprintf(t, "free blocks\t%d\n", s.FreeBlocksCount)
			fmt.Fprintf(t, "fragmentation index\t%.4f\n", s.FragmentationIndex)
		}
		t.Flush()
		return nil
	},
}
