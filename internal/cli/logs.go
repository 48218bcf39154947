package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/store"
)

var (
	logsLimit  int
	logsFormat string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the deletion audit log",
	Long: `Show files deleted by predictive cleanup, most recent first.

Examples:
  lakereaper logs
  lakereaper logs --limit 20 --format json`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&logsLimit, "limit", 100, "maximum number of entries to show")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "output format (text, json)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	eng, _, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.DeletionLogs(context.Background(), logsLimit)
	if err != nil {
		return fmt.Errorf("querying deletion log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No deletions recorded")
		return nil
	}

	switch logsFormat {
	case "json":
		return outputLogsJSON(entries)
	default:
		return outputLogsText(entries)
	}
}

func outputLogsText(entries []store.DeletionEntry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DELETED AT\tASSET\tSIZE\tPATH")
	fmt.Fprintln(w, "----------\t-----\t----\t----")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.DeletedAt, e.Asset, formatMB(e.SizeMB), e.FilePath)
	}
	return w.Flush()
}

type logJSONEntry struct {
	FilePath  string  `json:"file_path"`
	Asset     string  `json:"asset"`
	SizeMB    float64 `json:"size_mb"`
	Reason    string  `json:"reason"`
	DeletedAt string  `json:"deleted_at"`
}

func outputLogsJSON(entries []store.DeletionEntry) error {
	out := make([]logJSONEntry, len(entries))
	for i, e := range entries {
		out[i] = logJSONEntry{
			FilePath:  e.FilePath,
			Asset:     e.Asset,
			SizeMB:    e.SizeMB,
			Reason:    e.Reason,
			DeletedAt: e.DeletedAt,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
