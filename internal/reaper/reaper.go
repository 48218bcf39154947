// Package reaper reclaims space by deleting the oldest scanned files in FIFO
// order, subject to retention and survivor-count safety constraints.
package reaper

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/lakeops/lakereaper/internal/scanner"
	"github.com/lakeops/lakereaper/internal/store"
)

// DeletionReason is the audit reason recorded for every reaped file.
const DeletionReason = "PREDICTIVE_CLEANUP"

// minSurvivors is the number of files that must remain in every
// (asset, index, category) entity after a cycle.
const minSurvivors = 5

// Default safety parameters.
const (
	DefaultMinRetentionHours = 24
	DefaultMaxDeletions      = 500
)

// Options are the per-cycle safety parameters.
type Options struct {
	MinRetentionHours int
	MaxDeletions      int
}

// DefaultOptions returns the standard safety parameters.
func DefaultOptions() Options {
	return Options{
		MinRetentionHours: DefaultMinRetentionHours,
		MaxDeletions:      DefaultMaxDeletions,
	}
}

// Stats summarizes one cleanup cycle.
type Stats struct {
	FilesDeleted int
	MBFreed      float64
}

// Execute deletes candidate files oldest-first until the byte budget is
// reached, the hard deletion cap is hit, or candidates are exhausted. Files
// younger than the retention floor are never deleted, and every entity keeps
// at least minSurvivors files. Each successful deletion is audited; a failed
// physical deletion is skipped without audit and without decrementing the
// entity's survivor counter.
func Execute(ctx context.Context, st store.Store, files []scanner.File, amountMB float64, opts Options, logger *slog.Logger) Stats {
	var stats Stats
	if amountMB <= 0 || len(files) == 0 {
		return stats
	}
	if opts.MinRetentionHours <= 0 {
		opts.MinRetentionHours = DefaultMinRetentionHours
	}
	if opts.MaxDeletions <= 0 {
		opts.MaxDeletions = DefaultMaxDeletions
	}

	cutoff := time.Now().Unix() - int64(opts.MinRetentionHours)*3600

	// Sort a copy so the caller's cached scan keeps its order. Ties on mtime
	// break by path to keep the order total.
	candidates := append([]scanner.File(nil), files...)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedTime != candidates[j].CreatedTime {
			return candidates[i].CreatedTime < candidates[j].CreatedTime
		}
		return candidates[i].FullPath < candidates[j].FullPath
	})

	counts := make(map[store.EntityRef]int)
	for _, f := range candidates {
		counts[entityOf(f)]++
	}

	for _, f := range candidates {
		if stats.MBFreed >= amountMB || stats.FilesDeleted >= opts.MaxDeletions {
			break
		}

		// Retention floor
		if f.CreatedTime > cutoff {
			continue
		}

		// Survivor floor
		key := entityOf(f)
		if counts[key] <= minSurvivors {
			continue
		}

		if err := os.Remove(f.FullPath); err != nil {
			// Vanished or externally held; skip and move on
			logger.Debug("skipping undeletable file", "path", f.FullPath, "error", err)
			continue
		}

		entry := store.DeletionEntry{
			FilePath: f.FullPath,
			Asset:    f.Asset,
			SizeMB:   f.SizeMB,
			Reason:   DeletionReason,
		}
		if err := st.LogDeletion(ctx, entry); err != nil {
			logger.Warn("failed to audit deletion", "path", f.FullPath, "error", err)
		}

		stats.MBFreed += f.SizeMB
		stats.FilesDeleted++
		counts[key]--
	}

	return stats
}

func entityOf(f scanner.File) store.EntityRef {
	return store.EntityRef{Asset: f.Asset, Index: f.Index, Category: f.Category}
}
