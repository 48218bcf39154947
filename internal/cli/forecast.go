package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/engine"
	"github.com/lakeops/lakereaper/internal/policy"
)

var (
	forecastRoot    string
	forecastLimitMB float64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast tomorrow's occupancy",
	Long: `Scan the tree, forecast tomorrow's total occupancy from recent history,
and evaluate it against the capacity ceiling.

Examples:
  lakereaper forecast
  lakereaper forecast --root /data/recordings --limit-mb 500000`,
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&forecastRoot, "root", "", "tree root (default: scan.root from config)")
	forecastCmd.Flags().Float64Var(&forecastLimitMB, "limit-mb", -1, "capacity ceiling in MB (default: from config)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	root := cfg.Scan.Root
	if forecastRoot != "" {
		root = forecastRoot
	}
	limitMB := cfg.Capacity.LimitMB
	if forecastLimitMB >= 0 {
		limitMB = forecastLimitMB
	}

	ctx := context.Background()
	if root != "" {
		// Bring the cached scan up to date; an empty tree still forecasts
		// from history alone.
		if _, err := eng.Scan(ctx, root, cfg.Scan.Granularity); err != nil && !errors.Is(err, engine.ErrNoData) {
			return fmt.Errorf("scan failed: %w", err)
		}
	}

	data, err := eng.Forecast(ctx)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}
	ev := eng.Evaluate(limitMB)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Current usage:\t%s\n", formatMB(data.CurrentMB))
	fmt.Fprintf(w, "Predicted tomorrow:\t%s\n", formatMB(data.PredictedMB))
	fmt.Fprintf(w, "Growth rate:\t%+.2f MB/day\n", data.GrowthRate)
	fmt.Fprintf(w, "History days:\t%d\n", data.DaysAvailable)
	if limitMB > 0 {
		fmt.Fprintf(w, "Projected usage:\t%.1f%%\n", ev.ProjectedPct)
		fmt.Fprintf(w, "Action:\t%s\n", ev.Action)
		if ev.Action == policy.ActionCleanup {
			fmt.Fprintf(w, "Would reclaim:\t%s\n", formatMB(ev.AmountToDeleteMB))
		}
	}
	return w.Flush()
}
