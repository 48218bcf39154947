package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func daysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format("2006-01-02")
}

func TestInitializeIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Initialize(context.Background()))
}

func TestInsertAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snaps := []Snapshot{
		{EntityRef: EntityRef{Asset: "PUMP_A", Index: 1, Category: CategoryE}, Date: daysAgo(2), SizeMB: 100, FileCount: 10},
		{EntityRef: EntityRef{Asset: "PUMP_A", Index: 1, Category: CategoryF}, Date: daysAgo(1), SizeMB: 50, FileCount: 5},
		{EntityRef: EntityRef{Asset: "PUMP_B", Index: 2, Category: CategoryE}, Date: daysAgo(1), SizeMB: 25, FileCount: 2},
	}
	for _, snap := range snaps {
		require.NoError(t, s.InsertSnapshot(ctx, snap))
	}

	all, err := s.History(ctx, 14, AnyEntity)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ascending by date
	assert.Equal(t, daysAgo(2), all[0].Date)
	assert.Equal(t, "PUMP_A", all[0].Asset)
	assert.Equal(t, CategoryE, all[0].Category)

	// Asset filter
	byAsset, err := s.History(ctx, 14, EntityRef{Asset: "PUMP_A", Index: AnyIndex})
	require.NoError(t, err)
	assert.Len(t, byAsset, 2)

	// Full entity filter
	byEntity, err := s.History(ctx, 14, EntityRef{Asset: "PUMP_A", Index: 1, Category: CategoryF})
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.Equal(t, 50.0, byEntity[0].SizeMB)
}

func TestHistoryWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := Snapshot{EntityRef: EntityRef{Asset: "A", Index: 1, Category: CategoryE}, Date: daysAgo(30), SizeMB: 1}
	recent := Snapshot{EntityRef: EntityRef{Asset: "A", Index: 1, Category: CategoryE}, Date: daysAgo(3), SizeMB: 2}
	require.NoError(t, s.InsertSnapshot(ctx, old))
	require.NoError(t, s.InsertSnapshot(ctx, recent))

	snaps, err := s.History(ctx, 14, AnyEntity)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 2.0, snaps[0].SizeMB)
}

func TestDuplicateDayAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := Snapshot{EntityRef: EntityRef{Asset: "A", Index: 1, Category: CategoryE}, Date: daysAgo(0), SizeMB: 10, FileCount: 1}
	require.NoError(t, s.InsertSnapshot(ctx, snap))
	require.NoError(t, s.InsertSnapshot(ctx, snap))

	snaps, err := s.History(ctx, 1, AnyEntity)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestTotalCurrentMB(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total, err := s.TotalCurrentMB(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, snap := range []Snapshot{
		{EntityRef: EntityRef{Asset: "A", Index: 1, Category: CategoryE}, Date: daysAgo(0), SizeMB: 10},
		{EntityRef: EntityRef{Asset: "B", Index: 2, Category: CategoryF}, Date: daysAgo(0), SizeMB: 15},
		{EntityRef: EntityRef{Asset: "C", Index: 3, Category: CategoryE}, Date: daysAgo(1), SizeMB: 99},
	} {
		require.NoError(t, s.InsertSnapshot(ctx, snap))
	}

	total, err = s.TotalCurrentMB(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.0, total)
}

func TestForecastLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestForecast(ctx)
	require.NoError(t, err)
	assert.Zero(t, latest)

	require.NoError(t, s.InsertForecast(ctx, daysAgo(-1), 100))
	require.NoError(t, s.InsertForecast(ctx, daysAgo(-1), 250))

	latest, err = s.LatestForecast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250.0, latest)
}

func TestDeletionLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := DeletionEntry{
			FilePath: filepath.Join("/lake", "f", string(rune('a'+i))),
			Asset:    "A",
			SizeMB:   float64(i),
			Reason:   "PREDICTIVE_CLEANUP",
		}
		require.NoError(t, s.LogDeletion(ctx, entry))
	}

	logs, err := s.DeletionLogs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	// Most recent first
	assert.Equal(t, 4.0, logs[0].SizeMB)
	assert.Equal(t, 2.0, logs[2].SizeMB)
	assert.NotEmpty(t, logs[0].DeletedAt)
}

func TestConfigUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	value, err := s.GetConfig(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", value)

	require.NoError(t, s.SetConfig(ctx, "limit_mb", "1000"))
	require.NoError(t, s.SetConfig(ctx, "limit_mb", "2000"))

	value, err = s.GetConfig(ctx, "limit_mb", "")
	require.NoError(t, err)
	assert.Equal(t, "2000", value)
}

func TestAverageWeights(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entity := EntityRef{Asset: "A", Index: 1, Category: CategoryE}
	for _, snap := range []Snapshot{
		{EntityRef: entity, Date: daysAgo(2), SizeMB: 100, FileCount: 1},
		{EntityRef: entity, Date: daysAgo(1), SizeMB: 200, FileCount: 1},
		{EntityRef: EntityRef{Asset: "B", Index: 2, Category: CategoryF}, Date: daysAgo(1), SizeMB: 50, FileCount: 1},
	} {
		require.NoError(t, s.InsertSnapshot(ctx, snap))
	}

	weights, err := s.AverageWeights(ctx, 14)
	require.NoError(t, err)
	require.Len(t, weights, 2)

	assert.Equal(t, "A", weights[0].Asset)
	assert.Equal(t, 150.0, weights[0].AvgMB)
	assert.Equal(t, 300.0, weights[0].TotalMB)
	assert.Equal(t, 2, weights[0].DayCount)

	assert.Equal(t, "B", weights[1].Asset)
	assert.Equal(t, 1, weights[1].DayCount)
}

func TestHistoryDayCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.HistoryDayCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	entity := EntityRef{Asset: "A", Index: 1, Category: CategoryE}
	for _, date := range []string{daysAgo(2), daysAgo(1), daysAgo(1), daysAgo(0)} {
		require.NoError(t, s.InsertSnapshot(ctx, Snapshot{EntityRef: entity, Date: date, SizeMB: 1}))
	}

	count, err = s.HistoryDayCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSchedule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seeded default row
	sched, err := s.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sched.Hour)
	assert.Equal(t, 0, sched.Minute)
	assert.False(t, sched.Enabled)
	assert.Empty(t, sched.LastRun)

	require.NoError(t, s.SaveSchedule(ctx, 4, 30, true))
	require.NoError(t, s.RecordLastRun(ctx, "2026-08-06 04:30:00"))

	sched, err = s.GetSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, sched.Hour)
	assert.Equal(t, 30, sched.Minute)
	assert.True(t, sched.Enabled)
	assert.Equal(t, "2026-08-06 04:30:00", sched.LastRun)

	lastRun, err := s.GetConfig(ctx, "last_run", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-06 04:30:00", lastRun)
}

func TestParseCategory(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Category
	}{
		{"E", CategoryE},
		{"F", CategoryF},
		{"*", CategoryAny},
		{"", CategoryAny},
	} {
		got, err := ParseCategory(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseCategory("X")
	assert.Error(t, err)
}
