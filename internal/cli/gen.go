package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	genSizeGB    float64
	genDayMB     float64
	genDayOffset int
	genOneDay    bool
	genQuiet     bool
)

var genCmd = &cobra.Command{
	Use:   "gen <root>",
	Short: "Generate synthetic test data",
	Long: `Generate a synthetic 14-day recording tree with matching history rows.

Examples:
  lakereaper gen /tmp/lake --size-gb 1.0
  lakereaper gen /tmp/lake --one-day --day-mb 200 --day-offset 0`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func init() {
	genCmd.Flags().Float64Var(&genSizeGB, "size-gb", 1.0, "approximate total size of the generated tree")
	genCmd.Flags().BoolVar(&genOneDay, "one-day", false, "generate a single day instead of the full tree")
	genCmd.Flags().Float64Var(&genDayMB, "day-mb", 100, "approximate size of the generated day (with --one-day)")
	genCmd.Flags().IntVar(&genDayOffset, "day-offset", 0, "day offset from today (with --one-day)")
	genCmd.Flags().BoolVar(&genQuiet, "quiet", false, "suppress progress output")
}

func runGen(cmd *cobra.Command, args []string) error {
	root := args[0]

	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	progress := func(percent int, message string) {
		if !genQuiet {
			fmt.Printf("\r[%3d%%] %-60s", percent, message)
		}
	}

	ctx := context.Background()
	if genOneDay {
		err = eng.GenerateOneDay(ctx, root, genDayMB, genDayOffset, progress)
	} else {
		err = eng.GenerateTestData(ctx, root, genSizeGB, progress)
	}
	if !genQuiet {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("generating test data: %w", err)
	}
	return nil
}
