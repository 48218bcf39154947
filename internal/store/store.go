package store

import (
	"context"
	"fmt"
)

// AnyIndex matches every recorder index when used in an EntityRef filter
// or aggregation key.
const AnyIndex = -1

// Category identifies the recording category of an entity.
// The zero value matches any category.
type Category uint8

const (
	CategoryAny Category = iota
	CategoryE
	CategoryF
)

// String returns the single-character form stored in the database.
func (c Category) String() string {
	switch c {
	case CategoryE:
		return "E"
	case CategoryF:
		return "F"
	default:
		return "*"
	}
}

// ParseCategory converts the stored single-character form back to a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "E":
		return CategoryE, nil
	case "F":
		return CategoryF, nil
	case "*", "":
		return CategoryAny, nil
	}
	return CategoryAny, fmt.Errorf("invalid category %q", s)
}

// EntityRef identifies an entity of the recording taxonomy, or an aggregation
// over it. Asset "" / Index AnyIndex / CategoryAny each mean "any" at that level.
type EntityRef struct {
	Asset    string
	Index    int
	Category Category
}

// AnyEntity is the filter that matches every history row.
var AnyEntity = EntityRef{Index: AnyIndex}

// Snapshot is one day's aggregated occupancy for one entity (or aggregation).
// Snapshots are append-only; a repeated (entity, date) insert adds a row.
type Snapshot struct {
	EntityRef
	Date      string // YYYY-MM-DD, local calendar day
	SizeMB    float64
	FileCount int
}

// Weight is the per-entity aggregate over a history window.
type Weight struct {
	EntityRef
	AvgMB    float64
	TotalMB  float64
	DayCount int
}

// DeletionEntry is one row of the append-only deletion audit.
type DeletionEntry struct {
	FilePath  string
	Asset     string
	SizeMB    float64
	Reason    string
	DeletedAt string
}

// Schedule is the singleton scheduler configuration row.
type Schedule struct {
	Hour    int
	Minute  int
	LastRun string
	Enabled bool
}

// Store defines the interface for the embedded persistence layer. The store is
// the single authority for calendar-day arithmetic in persisted queries; all
// day comparisons happen in SQL against the local-time calendar day.
type Store interface {
	// Initialize prepares the storage (creates tables and indexes).
	Initialize(ctx context.Context) error

	// Close releases the underlying database handle.
	Close() error

	// InsertSnapshot appends one history row.
	InsertSnapshot(ctx context.Context, snap Snapshot) error

	// History returns all snapshots with date >= today-days, date ascending.
	// Wildcard fields in the filter match all rows.
	History(ctx context.Context, days int, filter EntityRef) ([]Snapshot, error)

	// TotalCurrentMB sums size_mb over snapshots recorded for today.
	TotalCurrentMB(ctx context.Context) (float64, error)

	// AverageWeights groups the window by entity and returns mean, sum and
	// distinct day count per entity.
	AverageWeights(ctx context.Context, days int) ([]Weight, error)

	// HistoryDayCount returns the number of distinct dates in history.
	HistoryDayCount(ctx context.Context) (int, error)

	// InsertForecast appends a forecast row for the given target date.
	InsertForecast(ctx context.Context, date string, predictedMB float64) error

	// LatestForecast returns the most recently inserted prediction, or 0.
	LatestForecast(ctx context.Context) (float64, error)

	// LogDeletion appends one audit row.
	LogDeletion(ctx context.Context, entry DeletionEntry) error

	// DeletionLogs returns up to limit audit rows, most recent first.
	DeletionLogs(ctx context.Context, limit int) ([]DeletionEntry, error)

	// SetConfig upserts a key-value pair.
	SetConfig(ctx context.Context, key, value string) error

	// GetConfig returns the value for key, or def when absent.
	GetConfig(ctx context.Context, key, def string) (string, error)

	// SaveSchedule updates the singleton scheduler row.
	SaveSchedule(ctx context.Context, hour, minute int, enabled bool) error

	// GetSchedule reads the singleton scheduler row.
	GetSchedule(ctx context.Context) (Schedule, error)

	// RecordLastRun stamps the completion of a pipeline cycle.
	RecordLastRun(ctx context.Context, timestamp string) error
}
