package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the accumulator workload once and print its result",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := cmd.Flags().GetString("backend")
		heapBytes, _ := cmd.Flags().GetUint64("heap-bytes")
		iterations, _ := cmd.Flags().GetInt("iterations")

		_, it, result, err := runWorkload(backend, heapBytes, iterations)
		if err != nil {
			return err
		}
		fmt.Printf("backend=%s iterations=%d result=%v\n", it.RT.BackendName(), iterations, result)
		return nil
	},
}
