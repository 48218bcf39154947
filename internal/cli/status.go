package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/scanner"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler state and storage metrics",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := context.Background()
	info, err := eng.Status(ctx)
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	days, err := eng.HistoryDayCount(ctx)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Database:\t%s\n", cfg.Database.Path)
	fmt.Fprintf(w, "Schedule:\t%02d:%02d daily\n", info.Hour, info.Minute)
	if info.LastRun != "" {
		fmt.Fprintf(w, "Last run:\t%s\n", info.LastRun)
	} else {
		fmt.Fprintf(w, "Last run:\tnever\n")
	}
	fmt.Fprintf(w, "History days:\t%d\n", days)
	if cfg.Scan.Root != "" {
		if free, total, err := scanner.DiskUsage(cfg.Scan.Root); err == nil {
			fmt.Fprintf(w, "Disk free:\t%s of %s\n", formatMB(free), formatMB(total))
		}
	}
	return w.Flush()
}
