package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/engine"
	"github.com/lakeops/lakereaper/internal/scanner"
)

var (
	scanGranularity int
	scanFormat      string
)

var scanCmd = &cobra.Command{
	Use:   "scan <root>",
	Short: "Scan the recording tree and store today's snapshot",
	Long: `Walk the ASSET/INDEX/CATEGORY/YYYY/MM/DD tree under root, print the
per-entity roll-up, and append it to history as today's snapshot.

Examples:
  lakereaper scan /data/recordings
  lakereaper scan /data/recordings --granularity 0
  lakereaper scan /data/recordings --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanGranularity, "granularity", scanner.GranularityEntity, "aggregation level (0=asset, 1=asset+index, 2=full entity)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "text", "output format (text, json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := args[0]

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("accessing root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	result, err := eng.Scan(context.Background(), root, scanGranularity)
	if errors.Is(err, engine.ErrNoData) {
		fmt.Println("No schema-valid files found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	switch scanFormat {
	case "json":
		return outputScanJSON(result)
	default:
		return outputScanText(result)
	}
}

func outputScanText(result scanner.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tINDEX\tCATEGORY\tSIZE\tFILES")
	fmt.Fprintln(w, "-----\t-----\t--------\t----\t-----")

	for _, e := range result.Entries {
		index := "*"
		if e.Index >= 0 {
			index = fmt.Sprintf("%d", e.Index)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			e.Asset, index, e.Category, formatMB(e.SizeMB), e.FileCount)
	}
	fmt.Fprintf(w, "\nTotal:\t%s in %d files\n", formatMB(result.TotalMB), result.TotalFiles)
	if result.UnreadableDirs > 0 {
		fmt.Fprintf(w, "Unreadable directories:\t%d\n", result.UnreadableDirs)
	}
	return w.Flush()
}

type scanJSONEntry struct {
	Asset     string  `json:"asset"`
	Index     int     `json:"index"`
	Category  string  `json:"category"`
	Date      string  `json:"date"`
	SizeMB    float64 `json:"size_mb"`
	FileCount int     `json:"file_count"`
}

type scanJSONResult struct {
	TotalMB        float64         `json:"total_mb"`
	TotalFiles     int             `json:"total_files"`
	UnreadableDirs int             `json:"unreadable_dirs"`
	Entries        []scanJSONEntry `json:"entries"`
}

func outputScanJSON(result scanner.Result) error {
	out := scanJSONResult{
		TotalMB:        result.TotalMB,
		TotalFiles:     result.TotalFiles,
		UnreadableDirs: result.UnreadableDirs,
		Entries:        make([]scanJSONEntry, len(result.Entries)),
	}
	for i, e := range result.Entries {
		out.Entries[i] = scanJSONEntry{
			Asset:     e.Asset,
			Index:     e.Index,
			Category:  e.Category.String(),
			Date:      e.Date,
			SizeMB:    e.SizeMB,
			FileCount: e.FileCount,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
