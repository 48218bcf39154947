// Package engine binds the store, scanner, forecaster, policy, reaper and
// scheduler behind a single thread-safe entry point.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lakeops/lakereaper/internal/datagen"
	"github.com/lakeops/lakereaper/internal/forecast"
	"github.com/lakeops/lakereaper/internal/metrics"
	"github.com/lakeops/lakereaper/internal/policy"
	"github.com/lakeops/lakereaper/internal/reaper"
	"github.com/lakeops/lakereaper/internal/scanner"
	"github.com/lakeops/lakereaper/internal/scheduler"
	"github.com/lakeops/lakereaper/internal/store"
)

const lastRunFormat = "2006-01-02 15:04:05"

// CleanupResult summarizes an explicit cleanup invocation.
type CleanupResult struct {
	FilesDeleted int
	MBFreed      float64
	NewUsageMB   float64
	NewUsagePct  float64
}

// FullResult summarizes one full pipeline cycle.
type FullResult struct {
	CurrentMB    float64
	PredictedMB  float64
	GrowthRate   float64
	LimitMB      float64
	UsagePct     float64
	Action       policy.Action
	FilesDeleted int
	MBFreed      float64
	HistoryDays  int
}

// StatusInfo is the snapshot returned by Status.
type StatusInfo struct {
	Scheduled   bool
	Hour        int
	Minute      int
	LastRun     string
	NextRun     string
	CurrentMB   float64
	PredictedMB float64
	DiskFreeMB  float64
	DiskTotalMB float64
}

// Engine is the process entry point for the predictive storage pipeline. One
// exclusive lock serializes every operation, including scheduled cycles; the
// system is low-frequency and the lock's simplicity is part of the
// correctness argument.
type Engine struct {
	logger *slog.Logger
	sched  *scheduler.Scheduler

	mu           sync.Mutex
	store        store.Store
	root         string // last scanned or scheduled root, for the disk probe
	lastScan     *scanner.Result
	lastForecast *forecast.Data
	reapOpts     reaper.Options
}

// New opens (creating if necessary) the store at dbPath and returns a ready
// engine.
func New(dbPath string, logger *slog.Logger) (*Engine, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrPath)
	}

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDB, err)
	}
	if err := st.Initialize(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: %v", ErrDB, err)
	}

	return &Engine{
		logger:   logger,
		sched:    scheduler.New(logger),
		store:    st,
		reapOpts: reaper.DefaultOptions(),
	}, nil
}

// Close stops the scheduler and closes the store.
func (e *Engine) Close() error {
	e.sched.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// SetReaperOptions overrides the cleanup safety parameters.
func (e *Engine) SetReaperOptions(opts reaper.Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reapOpts = opts
}

// Scan walks the tree under root, caches the result and persists today's
// snapshot rows. A tree with zero schema-valid files yields ErrNoData and
// nothing is written.
func (e *Engine) Scan(ctx context.Context, root string, granularity int) (scanner.Result, error) {
	if root == "" {
		return scanner.Result{}, fmt.Errorf("%w: empty root", ErrPath)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return scanner.Result{}, ErrDB
	}

	result := scanner.Scan(root, granularity)
	e.root = root
	e.lastScan = &result
	metrics.CurrentMB.Set(result.TotalMB)

	if result.TotalFiles == 0 {
		return result, ErrNoData
	}

	if err := e.persistScan(ctx, result); err != nil {
		return result, err
	}

	e.logger.Info("scan completed",
		"root", root,
		"total_mb", result.TotalMB,
		"total_files", result.TotalFiles,
		"entries", len(result.Entries),
		"unreadable_dirs", result.UnreadableDirs,
	)
	return result, nil
}

// Forecast computes and persists the next-day prediction from the cached scan
// total and recent history.
func (e *Engine) Forecast(ctx context.Context) (forecast.Data, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return forecast.Data{}, ErrDB
	}

	var current float64
	if e.lastScan != nil {
		current = e.lastScan.TotalMB
	}

	data, err := forecast.Compute(ctx, e.store, current)
	if err != nil {
		return data, fmt.Errorf("%w: %v", ErrDB, err)
	}
	if err := forecast.Save(ctx, e.store, data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrDB, err)
	}

	e.lastForecast = &data
	metrics.PredictedMB.Set(data.PredictedMB)
	return data, nil
}

// Evaluate maps the cached forecast against the ceiling. Pure; safe without a
// prior forecast (predicted 0 evaluates SAFE).
func (e *Engine) Evaluate(limitMB float64) policy.Evaluation {
	e.mu.Lock()
	defer e.mu.Unlock()

	var predicted float64
	if e.lastForecast != nil {
		predicted = e.lastForecast.PredictedMB
	}
	return policy.Evaluate(predicted, limitMB)
}

// Cleanup reclaims space from the cached scan until usage reaches
// limitMB * targetPct, files are exhausted, or a safety bound stops it.
func (e *Engine) Cleanup(ctx context.Context, limitMB, targetPct float64) (CleanupResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return CleanupResult{}, ErrDB
	}

	var total float64
	var files []scanner.File
	if e.lastScan != nil {
		total = e.lastScan.TotalMB
		files = e.lastScan.AllFiles
	}

	amount := total - limitMB*targetPct
	result := CleanupResult{NewUsageMB: total}
	if amount > 0 {
		stats := reaper.Execute(ctx, e.store, files, amount, e.reapOpts, e.logger)
		result.FilesDeleted = stats.FilesDeleted
		result.MBFreed = stats.MBFreed
		result.NewUsageMB = total - stats.MBFreed
		metrics.FilesDeletedTotal.Add(float64(stats.FilesDeleted))
		metrics.MBFreedTotal.Add(stats.MBFreed)
	}
	if limitMB > 0 {
		result.NewUsagePct = result.NewUsageMB / limitMB * 100.0
	}

	return result, nil
}

// ExecuteFull runs one complete pipeline cycle: scan, snapshot, forecast,
// evaluate, cleanup when demanded, and last-run bookkeeping. The reclaim
// amount is the evaluator's, which drives usage to its fixed target; the
// targetPct parameter is not used by the cycle.
func (e *Engine) ExecuteFull(ctx context.Context, root string, granularity int, limitMB, targetPct float64) (FullResult, error) {
	if root == "" {
		return FullResult{}, fmt.Errorf("%w: empty root", ErrPath)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return FullResult{}, ErrDB
	}

	cycleID := uuid.New().String()
	logger := e.logger.With("cycle_id", cycleID)

	// Phase 1: scan
	scanRes := scanner.Scan(root, granularity)
	e.root = root
	e.lastScan = &scanRes
	metrics.CurrentMB.Set(scanRes.TotalMB)
	if scanRes.TotalFiles == 0 {
		metrics.CyclesTotal.WithLabelValues("nodata").Inc()
		return FullResult{}, ErrNoData
	}
	if err := e.persistScan(ctx, scanRes); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return FullResult{}, err
	}

	// Phase 2: forecast
	fc, err := forecast.Compute(ctx, e.store, scanRes.TotalMB)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return FullResult{}, fmt.Errorf("%w: %v", ErrDB, err)
	}
	if err := forecast.Save(ctx, e.store, fc); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return FullResult{}, fmt.Errorf("%w: %v", ErrDB, err)
	}
	e.lastForecast = &fc
	metrics.PredictedMB.Set(fc.PredictedMB)

	// Phase 3: evaluate
	ev := policy.Evaluate(fc.PredictedMB, limitMB)

	// Phase 4: cleanup when demanded
	var stats reaper.Stats
	if ev.Action == policy.ActionCleanup && ev.AmountToDeleteMB > 0 {
		stats = reaper.Execute(ctx, e.store, scanRes.AllFiles, ev.AmountToDeleteMB, e.reapOpts, logger)
		metrics.FilesDeletedTotal.Add(float64(stats.FilesDeleted))
		metrics.MBFreedTotal.Add(stats.MBFreed)
	}

	// Phase 5: record the run
	now := time.Now().Format(lastRunFormat)
	if err := e.store.RecordLastRun(ctx, now); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return FullResult{}, fmt.Errorf("%w: %v", ErrDB, err)
	}
	if err := e.store.SetConfig(ctx, "last_cycle_id", cycleID); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return FullResult{}, fmt.Errorf("%w: %v", ErrDB, err)
	}

	metrics.CyclesTotal.WithLabelValues("ok").Inc()

	result := FullResult{
		CurrentMB:    scanRes.TotalMB,
		PredictedMB:  fc.PredictedMB,
		GrowthRate:   fc.GrowthRate,
		LimitMB:      limitMB,
		Action:       ev.Action,
		FilesDeleted: stats.FilesDeleted,
		MBFreed:      stats.MBFreed,
		HistoryDays:  fc.DaysAvailable,
	}
	if limitMB > 0 {
		result.UsagePct = scanRes.TotalMB / limitMB * 100.0
	}

	logger.Info("cycle completed",
		"current_mb", result.CurrentMB,
		"predicted_mb", result.PredictedMB,
		"action", result.Action.String(),
		"files_deleted", result.FilesDeleted,
		"mb_freed", result.MBFreed,
	)
	return result, nil
}

// GenerateTestData builds a synthetic 14-day recording tree under root with
// matching history rows, reporting progress per generated entity-day.
func (e *Engine) GenerateTestData(ctx context.Context, root string, sizeGB float64, progress datagen.Progress) error {
	if root == "" {
		return fmt.Errorf("%w: empty root", ErrPath)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrDB
	}
	if err := datagen.Generate(ctx, e.store, root, sizeGB, progress); err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	return nil
}

// GenerateOneDay adds one synthetic day at the given offset from today.
func (e *Engine) GenerateOneDay(ctx context.Context, root string, dayMB float64, dayOffset int, progress datagen.Progress) error {
	if root == "" {
		return fmt.Errorf("%w: empty root", ErrPath)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrDB
	}
	if err := datagen.GenerateOneDay(ctx, e.store, root, dayMB, dayOffset, progress); err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	return nil
}

// Weights returns the 14-day per-entity averages.
func (e *Engine) Weights(ctx context.Context) ([]store.Weight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil, ErrDB
	}

	weights, err := e.store.AverageWeights(ctx, forecast.HistoryWindowDays)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDB, err)
	}
	return weights, nil
}

// HistoryDayCount returns the number of distinct days in history.
func (e *Engine) HistoryDayCount(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0, ErrDB
	}
	return e.store.HistoryDayCount(ctx)
}

// DeletionLogs returns up to limit audit rows, most recent first.
func (e *Engine) DeletionLogs(ctx context.Context, limit int) ([]store.DeletionEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil, ErrDB
	}

	logs, err := e.store.DeletionLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDB, err)
	}
	return logs, nil
}

// ScheduleStart starts the daily-mode scheduler. ErrBusy when already running.
func (e *Engine) ScheduleStart(root string, granularity int, limitMB, targetPct float64, hour, minute int) error {
	return e.scheduleStart(root, granularity, limitMB, targetPct, scheduler.Config{Hour: hour, Minute: minute})
}

// ScheduleStartInterval starts the fixed-interval scheduler.
func (e *Engine) ScheduleStartInterval(root string, granularity int, limitMB, targetPct float64, interval time.Duration) error {
	return e.scheduleStart(root, granularity, limitMB, targetPct, scheduler.Config{Interval: interval})
}

func (e *Engine) scheduleStart(root string, granularity int, limitMB, targetPct float64, cfg scheduler.Config) error {
	if root == "" {
		return fmt.Errorf("%w: empty root", ErrPath)
	}

	run := func() {
		if _, err := e.ExecuteFull(context.Background(), root, granularity, limitMB, targetPct); err != nil {
			// A failing cycle never kills the worker
			e.logger.Error("scheduled cycle failed", "error", err)
		}
	}

	if err := e.sched.Start(cfg, run); err != nil {
		return ErrBusy
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.root = root
	if e.store == nil {
		return ErrDB
	}
	if err := e.store.SaveSchedule(context.Background(), cfg.Hour, cfg.Minute, true); err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	return nil
}

// ScheduleStop cancels the worker and joins it. The cancellation itself does
// not touch the engine lock, so a long cycle cannot deadlock shutdown; the
// enabled flag is persisted only after the worker has exited.
func (e *Engine) ScheduleStop() error {
	e.sched.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	sched, err := e.store.GetSchedule(context.Background())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	if err := e.store.SaveSchedule(context.Background(), sched.Hour, sched.Minute, false); err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	return nil
}

// ScheduleRunning reports whether the background worker is up.
func (e *Engine) ScheduleRunning() bool {
	return e.sched.IsRunning()
}

// Status returns the current cached metrics and scheduling state.
func (e *Engine) Status(ctx context.Context) (StatusInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := StatusInfo{
		Scheduled: e.sched.IsRunning(),
		NextRun:   e.sched.NextRun(),
	}
	if e.lastScan != nil {
		info.CurrentMB = e.lastScan.TotalMB
	}
	if e.lastForecast != nil {
		info.PredictedMB = e.lastForecast.PredictedMB
	}

	if e.store != nil {
		if sched, err := e.store.GetSchedule(ctx); err == nil {
			info.Hour = sched.Hour
			info.Minute = sched.Minute
		}
		if lastRun, err := e.store.GetConfig(ctx, "last_run", ""); err == nil {
			info.LastRun = lastRun
		}
	}

	if e.root != "" {
		if free, total, err := scanner.DiskUsage(e.root); err == nil {
			info.DiskFreeMB = free
			info.DiskTotalMB = total
		}
	}

	return info, nil
}

// SetConfig upserts a configuration key.
func (e *Engine) SetConfig(ctx context.Context, key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return ErrDB
	}
	if err := e.store.SetConfig(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrDB, err)
	}
	return nil
}

// GetConfig reads a configuration key, returning def when absent.
func (e *Engine) GetConfig(ctx context.Context, key, def string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return def, ErrDB
	}
	value, err := e.store.GetConfig(ctx, key, def)
	if err != nil {
		return def, fmt.Errorf("%w: %v", ErrDB, err)
	}
	return value, nil
}

// persistScan writes the aggregated entries of a scan as today's snapshot.
func (e *Engine) persistScan(ctx context.Context, result scanner.Result) error {
	for _, entry := range result.Entries {
		snap := store.Snapshot{
			EntityRef: entry.EntityRef,
			Date:      entry.Date,
			SizeMB:    entry.SizeMB,
			FileCount: entry.FileCount,
		}
		if err := e.store.InsertSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("%w: %v", ErrDB, err)
		}
	}
	return nil
}
