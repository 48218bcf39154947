package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lakeops/lakereaper/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler daemon",
	Long:  `Start the lakereaper daemon. This is typically invoked by systemd.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, cfg, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	if cfg.Scan.Root == "" {
		return fmt.Errorf("scan.root must be configured for serve")
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting lakereaper daemon",
		"config", cfgFile,
		"db", cfg.Database.Path,
		"root", cfg.Scan.Root,
		"limit_mb", cfg.Capacity.LimitMB,
		"interval", cfg.Schedule.Interval,
	)

	if cfg.Metrics.Listen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		logger.Info("metrics listener started", "addr", cfg.Metrics.Listen)
	}

	if cfg.Schedule.Interval > 0 {
		err = eng.ScheduleStartInterval(cfg.Scan.Root, cfg.Scan.Granularity,
			cfg.Capacity.LimitMB, cfg.Capacity.TargetPct, cfg.Schedule.Interval)
	} else {
		err = eng.ScheduleStart(cfg.Scan.Root, cfg.Scan.Granularity,
			cfg.Capacity.LimitMB, cfg.Capacity.TargetPct,
			cfg.Schedule.Hour, cfg.Schedule.Minute)
	}
	if err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received signal, initiating graceful shutdown", "signal", sig)

	if err := eng.ScheduleStop(); err != nil {
		logger.Error("stopping scheduler", "error", err)
	}

	logger.Info("daemon stopped")
	return nil
}
