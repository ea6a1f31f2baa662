package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tracegc/tracegc/internal/gc"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run the workload, force a collection, and list the live heap",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _ := cmd.Flags().GetString("backend")
		heapBytes, _ := cmd.Flags().GetUint64("heap-bytes")
		iterations, _ := cmd.Flags().GetInt("iterations")

		rt, _, _, err := runWorkload(backend, heapBytes, iterations)
		if err != nil {
			return err
		}
		rt.Collect()

		// Grow the snapshot buffer until it holds every live record: the
		// façade's HeapSnapshot (like gocore.Process.ForEachObject in the
		// teacher) fills as much of a caller-sized buffer as it can and
		// reports how many records it used.
		buf := make([]gc.SnapshotRecord, 256)
		n := rt.HeapSnapshot(buf)
		for n == len(buf) {
			buf = make([]gc.SnapshotRecord, len(buf)*2)
			n = rt.HeapSnapshot(buf)
		}

		t := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', tabwriter.AlignRight)
		fmt.Fprintf(t, "addr\tsize\tgeneration\ttag\n")
		for _, rec := range buf[:n] {
			fmt.Fprintf(t, "%x\t%d\t%s\t%s\n", rec.Addr, rec.Size, generationName(rec.Generation), tagName(rec.Tag))
		}
		t.Flush()
		fmt.Fprintf(os.Stderr, "%d live objects\n", n)
		return nil
	},
}

func generationName(g gc.Generation) string {
	switch g {
	case gc.GenNursery:
		return "nursery"
	case gc.GenOld:
		return "old"
	default:
		return "-"
	}
}

func tagName(tag gc.Tag) string {
	switch tag {
	case gc.TagNumber:
		return "number"
	case gc.TagSymbol:
		return "symbol"
	case gc.TagString:
		return "string"
	case gc.TagPair:
		return "pair"
	case gc.TagLambda:
		return "closure"
	case gc.TagBuiltin:
		return "builtin"
	case gc.TagEnv:
		return "env"
	case gc.TagBinding:
		return "binding"
	default:
		return "unknown"
	}
}
