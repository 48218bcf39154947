// Package datagen creates synthetic recording trees and matching history
// rows for exercising the pipeline.
package datagen

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/lakeops/lakereaper/internal/store"
)

// Progress receives (percent 0..100, message) at entity-boundary granularity.
type Progress func(percent int, message string)

var assets = []string{"ASSET_01", "ASSET_02", "ASSET_03"}

const (
	numIndices = 5
	numDays    = 14
)

var categories = []store.Category{store.CategoryE, store.CategoryF}

const bytesPerMB = 1024 * 1024

// Generate builds a 14-day tree of 3 assets x 5 indices x 2 categories with a
// linear growth ramp (day 1 at 70% of the per-file average, day 14 at 130%),
// totalling approximately sizeGB. A per-day snapshot row is inserted for every
// entity so the forecaster has history to work with.
func Generate(ctx context.Context, st store.Store, root string, sizeGB float64, progress Progress) error {
	totalFolders := len(assets) * numIndices * len(categories) * numDays
	totalBytes := int64(sizeGB * 1024 * bytesPerMB)
	bytesPerFile := totalBytes / int64(totalFolders)
	if bytesPerFile < 1024 {
		bytesPerFile = 1024
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	folder := 0

	for _, asset := range assets {
		for idx := 1; idx <= numIndices; idx++ {
			for _, cat := range categories {
				for d := 0; d < numDays; d++ {
					day := now.AddDate(0, 0, -(numDays - 1 - d))
					growth := 0.7 + 0.6*float64(d)/float64(numDays-1)
					fileBytes := int64(float64(bytesPerFile) * growth)

					if err := writeDayFile(rng, root, asset, idx, cat, day, fileBytes); err != nil {
						return fmt.Errorf("writing test file: %w", err)
					}

					folder++
					if progress != nil {
						progress(folder*100/totalFolders, fmt.Sprintf("Generating %s/%d/%s day %d/%d",
							asset, idx, cat, d+1, numDays))
					}
				}

				// Matching history rows, one per day
				for d := 0; d < numDays; d++ {
					day := now.AddDate(0, 0, -(numDays - 1 - d))
					growth := 0.7 + 0.6*float64(d)/float64(numDays-1)
					fileMB := float64(bytesPerFile) * growth / bytesPerMB

					snap := store.Snapshot{
						EntityRef: store.EntityRef{Asset: asset, Index: idx, Category: cat},
						Date:      day.Format("2006-01-02"),
						SizeMB:    fileMB,
						FileCount: 1,
					}
					if err := st.InsertSnapshot(ctx, snap); err != nil {
						return fmt.Errorf("inserting snapshot: %w", err)
					}
				}
			}
		}
	}

	if progress != nil {
		progress(100, "Test data generation complete")
	}
	return nil
}

// GenerateOneDay adds one day's files (offset in days from today, negative for
// the past) totalling approximately daySizeMB across all entities, with +-20%
// per-entity jitter, and inserts the matching history rows.
func GenerateOneDay(ctx context.Context, st store.Store, root string, daySizeMB float64, dayOffset int, progress Progress) error {
	totalEntities := len(assets) * numIndices * len(categories)
	totalBytes := int64(daySizeMB * bytesPerMB)
	bytesPerFile := totalBytes / int64(totalEntities)
	if bytesPerFile < 1024 {
		bytesPerFile = 1024
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	day := time.Now().AddDate(0, 0, dayOffset)
	date := day.Format("2006-01-02")
	entity := 0

	for _, asset := range assets {
		for idx := 1; idx <= numIndices; idx++ {
			for _, cat := range categories {
				variation := 0.8 + rng.Float64()*0.4
				fileBytes := int64(float64(bytesPerFile) * variation)

				if err := writeDayFile(rng, root, asset, idx, cat, day, fileBytes); err != nil {
					return fmt.Errorf("writing test file: %w", err)
				}

				snap := store.Snapshot{
					EntityRef: store.EntityRef{Asset: asset, Index: idx, Category: cat},
					Date:      date,
					SizeMB:    float64(fileBytes) / bytesPerMB,
					FileCount: 1,
				}
				if err := st.InsertSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("inserting snapshot: %w", err)
				}

				entity++
				if progress != nil {
					progress(entity*100/totalEntities, fmt.Sprintf("Day %s: %s/%d/%s", date, asset, idx, cat))
				}
			}
		}
	}

	if progress != nil {
		progress(100, "One day of data generated")
	}
	return nil
}

// writeDayFile creates the schema path for one (entity, day) and fills a
// single file with pseudo-random bytes.
func writeDayFile(rng *rand.Rand, root, asset string, idx int, cat store.Category, day time.Time, size int64) error {
	dir := filepath.Join(root, asset, fmt.Sprintf("%d", idx), cat.String(),
		day.Format("2006"), day.Format("01"), day.Format("02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_%d_%s_%s.dat", asset, idx, cat, day.Format("2006-01-02"))
	buf := make([]byte, size)
	rng.Read(buf)
	return os.WriteFile(filepath.Join(dir, name), buf, 0644)
}
