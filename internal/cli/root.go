package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/config"
	"github.com/lakeops/lakereaper/internal/engine"
	"github.com/lakeops/lakereaper/internal/reaper"
)

var (
	cfgFile  string
	logLevel string
	rootCmd  *cobra.Command
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "lakereaper",
		Short: "Predictive storage manager for recording data lakes",
		Long: `lakereaper monitors a hierarchically organized recording tree, forecasts
tomorrow's occupancy from daily snapshots, and reclaims space by deleting the
oldest recordings first when the forecast crosses the capacity ceiling.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: lakereaper.yaml searched in /etc/lakereaper, $HOME/.config/lakereaper, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogger creates a logger based on the configured level.
func setupLogger(level string, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// openEngine loads configuration and opens an engine against the configured
// database. The caller owns the returned engine and must Close it.
func openEngine(cmd *cobra.Command) (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	eng, err := engine.New(cfg.Database.Path, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening engine: %w", err)
	}

	eng.SetReaperOptions(reaper.Options{
		MinRetentionHours: cfg.Retention.MinHours,
		MaxDeletions:      cfg.Retention.MaxDeletions,
	})

	return eng, cfg, nil
}

// formatMB formats a megabyte count as a human-readable size.
func formatMB(mb float64) string {
	switch {
	case mb >= 1024*1024:
		return fmt.Sprintf("%.2f TiB", mb/(1024*1024))
	case mb >= 1024:
		return fmt.Sprintf("%.2f GiB", mb/1024)
	default:
		return fmt.Sprintf("%.2f MiB", mb)
	}
}
