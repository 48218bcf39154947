package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/engine"
)

var (
	runRoot        string
	runGranularity int
	runLimitMB     float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full pipeline cycle",
	Long: `Execute one complete cycle: scan, snapshot, forecast, evaluate and,
when the forecast demands it, FIFO cleanup.

Examples:
  lakereaper run
  lakereaper run --root /data/recordings --limit-mb 500000`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runRoot, "root", "", "tree root (default: scan.root from config)")
	runCmd.Flags().IntVar(&runGranularity, "granularity", -1, "aggregation level 0-2 (default: from config)")
	runCmd.Flags().Float64Var(&runLimitMB, "limit-mb", -1, "capacity ceiling in MB (default: from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	root := cfg.Scan.Root
	if runRoot != "" {
		root = runRoot
	}
	granularity := cfg.Scan.Granularity
	if runGranularity >= 0 {
		granularity = runGranularity
	}
	limitMB := cfg.Capacity.LimitMB
	if runLimitMB >= 0 {
		limitMB = runLimitMB
	}

	result, err := eng.ExecuteFull(context.Background(), root, granularity, limitMB, cfg.Capacity.TargetPct)
	if errors.Is(err, engine.ErrNoData) {
		fmt.Println("No schema-valid files found under", root)
		return nil
	}
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Current usage:\t%s\n", formatMB(result.CurrentMB))
	fmt.Fprintf(w, "Predicted tomorrow:\t%s\n", formatMB(result.PredictedMB))
	fmt.Fprintf(w, "Growth rate:\t%+.2f MB/day\n", result.GrowthRate)
	fmt.Fprintf(w, "Capacity ceiling:\t%s\n", formatMB(result.LimitMB))
	fmt.Fprintf(w, "Current usage of ceiling:\t%.1f%%\n", result.UsagePct)
	fmt.Fprintf(w, "Action:\t%s\n", result.Action)
	fmt.Fprintf(w, "History days:\t%d\n", result.HistoryDays)
	if result.FilesDeleted > 0 {
		fmt.Fprintf(w, "Files deleted:\t%d\n", result.FilesDeleted)
		fmt.Fprintf(w, "Space freed:\t%s\n", formatMB(result.MBFreed))
	}
	return w.Flush()
}
