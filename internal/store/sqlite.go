package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL with normal synchronous durability
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS storage_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			asset TEXT NOT NULL,
			index_val INTEGER NOT NULL DEFAULT -1,
			category TEXT NOT NULL DEFAULT '*',
			measurement_date TEXT NOT NULL,
			size_mb REAL NOT NULL,
			file_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT (datetime('now','localtime'))
		);

		CREATE TABLE IF NOT EXISTS storage_forecast (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			forecast_date TEXT NOT NULL,
			predicted_mb REAL NOT NULL,
			created_at TEXT DEFAULT (datetime('now','localtime'))
		);

		CREATE TABLE IF NOT EXISTS deletion_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			asset TEXT NOT NULL,
			size_mb REAL NOT NULL,
			reason TEXT NOT NULL DEFAULT 'PREDICTIVE_CLEANUP',
			deleted_at TEXT DEFAULT (datetime('now','localtime'))
		);

		CREATE TABLE IF NOT EXISTS scheduler_config (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			schedule_hour INTEGER NOT NULL DEFAULT 3,
			schedule_minute INTEGER NOT NULL DEFAULT 0,
			last_run TEXT,
			is_enabled INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_hist_date ON storage_history(measurement_date);
		CREATE INDEX IF NOT EXISTS idx_hist_asset ON storage_history(asset, index_val, category);
		CREATE INDEX IF NOT EXISTS idx_del_date ON deletion_log(deleted_at);

		INSERT OR IGNORE INTO scheduler_config(id, schedule_hour, schedule_minute, is_enabled)
		VALUES(1, 3, 0, 0);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertSnapshot appends one history row.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO storage_history (asset, index_val, category, measurement_date, size_mb, file_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Asset, snap.Index, snap.Category.String(), snap.Date, snap.SizeMB, snap.FileCount,
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	return nil
}

// History returns snapshots in the window, date ascending. Wildcard filter
// fields match everything.
func (s *SQLiteStore) History(ctx context.Context, days int, filter EntityRef) ([]Snapshot, error) {
	query := fmt.Sprintf(
		`SELECT asset, index_val, category, measurement_date, size_mb, file_count
		 FROM storage_history
		 WHERE measurement_date >= date('now','localtime','-%d days')`, days)
	args := []interface{}{}

	if filter.Asset != "" {
		query += " AND asset = ?"
		args = append(args, filter.Asset)
	}
	if filter.Index != AnyIndex {
		query += " AND index_val = ?"
		args = append(args, filter.Index)
	}
	if filter.Category != CategoryAny {
		query += " AND category = ?"
		args = append(args, filter.Category.String())
	}

	query += " ORDER BY measurement_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var cat string
		if err := rows.Scan(&snap.Asset, &snap.Index, &cat, &snap.Date, &snap.SizeMB, &snap.FileCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if snap.Category, err = ParseCategory(cat); err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return snaps, nil
}

// TotalCurrentMB sums size_mb over today's snapshots.
func (s *SQLiteStore) TotalCurrentMB(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(size_mb), 0) FROM storage_history
		 WHERE measurement_date = date('now','localtime')`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("querying current total: %w", err)
	}

	return total, nil
}

// AverageWeights groups the window by entity.
func (s *SQLiteStore) AverageWeights(ctx context.Context, days int) ([]Weight, error) {
	query := fmt.Sprintf(
		`SELECT asset, index_val, category,
		        AVG(size_mb) AS avg_mb, SUM(size_mb) AS total_mb,
		        COUNT(DISTINCT measurement_date) AS day_count
		 FROM storage_history
		 WHERE measurement_date >= date('now','localtime','-%d days')
		 GROUP BY asset, index_val, category
		 ORDER BY asset, index_val, category`, days)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying weights: %w", err)
	}
	defer rows.Close()

	var weights []Weight
	for rows.Next() {
		var w Weight
		var cat string
		if err := rows.Scan(&w.Asset, &w.Index, &cat, &w.AvgMB, &w.TotalMB, &w.DayCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if w.Category, err = ParseCategory(cat); err != nil {
			return nil, fmt.Errorf("reading weight row: %w", err)
		}
		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return weights, nil
}

// HistoryDayCount returns the number of distinct dates in history.
func (s *SQLiteStore) HistoryDayCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT measurement_date) FROM storage_history`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("querying day count: %w", err)
	}

	return count, nil
}

// InsertForecast appends a forecast row.
func (s *SQLiteStore) InsertForecast(ctx context.Context, date string, predictedMB float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO storage_forecast (forecast_date, predicted_mb) VALUES (?, ?)`,
		date, predictedMB,
	)
	if err != nil {
		return fmt.Errorf("inserting forecast: %w", err)
	}

	return nil
}

// LatestForecast returns the newest prediction, or 0 when none exist.
func (s *SQLiteStore) LatestForecast(ctx context.Context) (float64, error) {
	var predicted float64
	err := s.db.QueryRowContext(ctx,
		`SELECT predicted_mb FROM storage_forecast ORDER BY id DESC LIMIT 1`,
	).Scan(&predicted)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying latest forecast: %w", err)
	}

	return predicted, nil
}

// LogDeletion appends one audit row.
func (s *SQLiteStore) LogDeletion(ctx context.Context, entry DeletionEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deletion_log (file_path, asset, size_mb, reason) VALUES (?, ?, ?, ?)`,
		entry.FilePath, entry.Asset, entry.SizeMB, entry.Reason,
	)
	if err != nil {
		return fmt.Errorf("logging deletion: %w", err)
	}

	return nil
}

// DeletionLogs returns audit rows, most recent first.
func (s *SQLiteStore) DeletionLogs(ctx context.Context, limit int) ([]DeletionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_path, asset, size_mb, reason, deleted_at
		 FROM deletion_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying deletion log: %w", err)
	}
	defer rows.Close()

	var entries []DeletionEntry
	for rows.Next() {
		var e DeletionEntry
		var deletedAt sql.NullString
		if err := rows.Scan(&e.FilePath, &e.Asset, &e.SizeMB, &e.Reason, &deletedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.DeletedAt = deletedAt.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return entries, nil
}

// SetConfig upserts a key-value pair.
func (s *SQLiteStore) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO configuration (key, value) VALUES (?, ?)`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting config %q: %w", key, err)
	}

	return nil
}

// GetConfig returns the value for key, or def when absent.
func (s *SQLiteStore) GetConfig(ctx context.Context, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM configuration WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("getting config %q: %w", key, err)
	}

	return value, nil
}

// SaveSchedule updates the singleton scheduler row.
func (s *SQLiteStore) SaveSchedule(ctx context.Context, hour, minute int, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduler_config SET schedule_hour = ?, schedule_minute = ?, is_enabled = ? WHERE id = 1`,
		hour, minute, boolToInt(enabled),
	)
	if err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}

	return nil
}

// GetSchedule reads the singleton scheduler row.
func (s *SQLiteStore) GetSchedule(ctx context.Context) (Schedule, error) {
	var sched Schedule
	var lastRun sql.NullString
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT schedule_hour, schedule_minute, last_run, is_enabled FROM scheduler_config WHERE id = 1`,
	).Scan(&sched.Hour, &sched.Minute, &lastRun, &enabled)
	if err != nil {
		return Schedule{}, fmt.Errorf("reading schedule: %w", err)
	}
	sched.LastRun = lastRun.String
	sched.Enabled = enabled != 0

	return sched, nil
}

// RecordLastRun stamps the completion of a pipeline cycle in both the
// configuration table and the scheduler row.
func (s *SQLiteStore) RecordLastRun(ctx context.Context, timestamp string) error {
	if err := s.SetConfig(ctx, "last_run", timestamp); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scheduler_config SET last_run = ? WHERE id = 1`, timestamp,
	); err != nil {
		return fmt.Errorf("recording last run: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
