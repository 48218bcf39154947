package datagen

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeops/lakereaper/internal/scanner"
	"github.com/lakeops/lakereaper/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestGenerateOneDay(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	ctx := context.Background()

	var percents []int
	progress := func(percent int, message string) {
		percents = append(percents, percent)
		assert.NotEmpty(t, message)
	}

	require.NoError(t, GenerateOneDay(ctx, st, root, 50, 0, progress))

	// 3 assets x 5 indices x 2 categories = 30 files
	result := scanner.Scan(root, scanner.GranularityEntity)
	assert.Equal(t, 30, result.TotalFiles)
	assert.Len(t, result.Entries, 30)

	// Matching history rows for today
	snaps, err := st.History(ctx, 1, store.AnyEntity)
	require.NoError(t, err)
	assert.Len(t, snaps, 30)

	// Progress is monotone and ends at 100
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}

func TestGenerateFullTree(t *testing.T) {
	st := newTestStore(t)
	root := t.TempDir()
	ctx := context.Background()

	require.NoError(t, Generate(ctx, st, root, 0.001, nil))

	// 30 entities x 14 days, one file each
	result := scanner.Scan(root, scanner.GranularityEntity)
	assert.Equal(t, 420, result.TotalFiles)

	days, err := st.HistoryDayCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, days)

	// The growth ramp makes the newest day the largest
	day1 := filepath.Join(root, "ASSET_01", "1", "E",
		time.Now().AddDate(0, 0, -13).Format("2006"),
		time.Now().AddDate(0, 0, -13).Format("01"),
		time.Now().AddDate(0, 0, -13).Format("02"))
	dayN := filepath.Join(root, "ASSET_01", "1", "E",
		time.Now().Format("2006"), time.Now().Format("01"), time.Now().Format("02"))

	oldest := dirSize(t, day1)
	newest := dirSize(t, dayN)
	assert.Greater(t, newest, oldest)
}

func dirSize(t *testing.T, dir string) int64 {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var total int64
	for _, e := range entries {
		info, err := e.Info()
		require.NoError(t, err)
		total += info.Size()
	}
	return total
}
