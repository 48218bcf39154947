package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show 14-day per-entity averages",
	RunE:  runWeights,
}

func runWeights(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	weights, err := eng.Weights(context.Background())
	if err != nil {
		return fmt.Errorf("querying weights: %w", err)
	}

	if len(weights) == 0 {
		fmt.Println("No history recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tINDEX\tCATEGORY\tAVG/DAY\tTOTAL\tDAYS")
	fmt.Fprintln(w, "-----\t-----\t--------\t-------\t-----\t----")

	for _, wt := range weights {
		index := "*"
		if wt.Index >= 0 {
			index = fmt.Sprintf("%d", wt.Index)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			wt.Asset, index, wt.Category, formatMB(wt.AvgMB), formatMB(wt.TotalMB), wt.DayCount)
	}
	return w.Flush()
}
