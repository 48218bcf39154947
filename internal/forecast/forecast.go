// Package forecast predicts the next day's total occupancy from recent
// history using a moving average plus a linear growth trend.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lakeops/lakereaper/internal/store"
)

// HistoryWindowDays is the history window the forecast reads.
const HistoryWindowDays = 14

// movingAvgWindow is the maximum number of trailing days averaged.
const movingAvgWindow = 7

// Data is the result of one forecast computation.
type Data struct {
	CurrentMB     float64
	PredictedMB   float64
	GrowthRate    float64 // MB per day
	DaysAvailable int
}

// Compute reads the last 14 days of history and predicts tomorrow's total.
// The history is collapsed to system-wide daily totals first, so the result
// is independent of the granularity used at scan time. The prediction is the
// mean of the trailing min(7, n) daily totals plus the first-to-last secant
// slope, clamped to zero.
func Compute(ctx context.Context, st store.Store, currentMB float64) (Data, error) {
	data := Data{CurrentMB: currentMB}

	history, err := st.History(ctx, HistoryWindowDays, store.AnyEntity)
	if err != nil {
		return data, fmt.Errorf("reading history: %w", err)
	}

	// Collapse to one total per date; duplicate rows for a day sum together.
	dailyTotals := make(map[string]float64)
	for _, snap := range history {
		dailyTotals[snap.Date] += snap.SizeMB
	}

	dates := make([]string, 0, len(dailyTotals))
	for date := range dailyTotals {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	n := len(dates)
	data.DaysAvailable = n

	if n <= 1 {
		// No trend to extract
		data.PredictedMB = currentMB
		return data, nil
	}

	window := movingAvgWindow
	if n < window {
		window = n
	}
	var sum float64
	for _, date := range dates[n-window:] {
		sum += dailyTotals[date]
	}
	movingAvg := sum / float64(window)

	first := dailyTotals[dates[0]]
	last := dailyTotals[dates[n-1]]
	data.GrowthRate = (last - first) / float64(n)

	data.PredictedMB = movingAvg + data.GrowthRate
	if data.PredictedMB < 0 {
		data.PredictedMB = 0
	}

	return data, nil
}

// Save persists the prediction for tomorrow's calendar day.
func Save(ctx context.Context, st store.Store, data Data) error {
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	if err := st.InsertForecast(ctx, tomorrow, data.PredictedMB); err != nil {
		return fmt.Errorf("saving forecast: %w", err)
	}
	return nil
}
