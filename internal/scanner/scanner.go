package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/lakeops/lakereaper/internal/store"
)

// Granularity selects the aggregation key for snapshot entries.
const (
	GranularityAsset      = 0 // (asset, *, *)
	GranularityAssetIndex = 1 // (asset, index, *)
	GranularityEntity     = 2 // (asset, index, category)
)

const bytesPerMB = 1024 * 1024

// File is a single scanned file at leaf granularity. Files live only for the
// duration of one pipeline cycle; the reaper consumes them in the same cycle.
type File struct {
	FullPath    string
	SizeMB      float64
	CreatedTime int64 // mtime, Unix seconds
	Asset       string
	Index       int
	Category    store.Category
	Date        string // YYYY-MM-DD from the path
}

// Entry is a per-aggregation-key roll-up, tagged with today's date.
type Entry struct {
	store.EntityRef
	Date      string
	SizeMB    float64
	FileCount int
}

// Result is the output of one tree scan.
type Result struct {
	TotalMB        float64
	TotalFiles     int
	Entries        []Entry
	AllFiles       []File // always at leaf granularity, for the reaper
	UnreadableDirs int
}

// Scan traverses the six-level ASSET/INDEX/CATEGORY/YYYY/MM/DD schema under
// root and aggregates occupancy at the requested granularity. Entries that do
// not match the schema are skipped silently. Directories that cannot be
// enumerated are treated as empty and counted in UnreadableDirs.
func Scan(root string, granularity int) Result {
	var result Result
	agg := make(map[store.EntityRef]*Entry)

	// Level 1: asset directories
	for _, assetEnt := range listDir(root, &result) {
		if !assetEnt.IsDir() {
			continue
		}
		asset := assetEnt.Name()
		assetPath := filepath.Join(root, asset)

		// Level 2: recorder index
		for _, idxEnt := range listDir(assetPath, &result) {
			if !idxEnt.IsDir() || !isNumber(idxEnt.Name()) {
				continue
			}
			index, err := strconv.Atoi(idxEnt.Name())
			if err != nil {
				continue
			}
			idxPath := filepath.Join(assetPath, idxEnt.Name())

			// Level 3: category E or F
			for _, catEnt := range listDir(idxPath, &result) {
				if !catEnt.IsDir() {
					continue
				}
				var category store.Category
				switch catEnt.Name() {
				case "E":
					category = store.CategoryE
				case "F":
					category = store.CategoryF
				default:
					continue
				}
				catPath := filepath.Join(idxPath, catEnt.Name())

				// Level 4: year
				for _, yearEnt := range listDir(catPath, &result) {
					if !yearEnt.IsDir() || !isNumber(yearEnt.Name()) || len(yearEnt.Name()) != 4 {
						continue
					}
					yearPath := filepath.Join(catPath, yearEnt.Name())

					// Level 5: month
					for _, monthEnt := range listDir(yearPath, &result) {
						if !monthEnt.IsDir() || !isNumber(monthEnt.Name()) || len(monthEnt.Name()) != 2 {
							continue
						}
						monthPath := filepath.Join(yearPath, monthEnt.Name())

						// Level 6: day
						for _, dayEnt := range listDir(monthPath, &result) {
							if !dayEnt.IsDir() || !isNumber(dayEnt.Name()) || len(dayEnt.Name()) != 2 {
								continue
							}
							dayPath := filepath.Join(monthPath, dayEnt.Name())
							date := yearEnt.Name() + "-" + monthEnt.Name() + "-" + dayEnt.Name()

							scanDayDir(dayPath, asset, index, category, date, granularity, agg, &result)
						}
					}
				}
			}
		}
	}

	today := time.Now().Format("2006-01-02")
	for _, e := range agg {
		e.Date = today
		result.Entries = append(result.Entries, *e)
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if a.Asset != b.Asset {
			return a.Asset < b.Asset
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Category < b.Category
	})

	return result
}

// scanDayDir collects the regular files of one day directory.
func scanDayDir(dayPath, asset string, index int, category store.Category, date string,
	granularity int, agg map[store.EntityRef]*Entry, result *Result) {

	for _, fileEnt := range listDir(dayPath, result) {
		if !fileEnt.Type().IsRegular() {
			continue
		}
		info, err := fileEnt.Info()
		if err != nil {
			// File vanished between readdir and stat
			continue
		}
		sizeMB := float64(info.Size()) / bytesPerMB

		result.AllFiles = append(result.AllFiles, File{
			FullPath:    filepath.Join(dayPath, fileEnt.Name()),
			SizeMB:      sizeMB,
			CreatedTime: info.ModTime().Unix(),
			Asset:       asset,
			Index:       index,
			Category:    category,
			Date:        date,
		})

		result.TotalMB += sizeMB
		result.TotalFiles++

		key := store.EntityRef{Asset: asset, Index: store.AnyIndex, Category: store.CategoryAny}
		if granularity >= GranularityAssetIndex {
			key.Index = index
		}
		if granularity >= GranularityEntity {
			key.Category = category
		}

		e, ok := agg[key]
		if !ok {
			e = &Entry{EntityRef: key}
			agg[key] = e
		}
		e.SizeMB += sizeMB
		e.FileCount++
	}
}

// listDir enumerates a directory, treating failures as "directory is empty".
func listDir(path string, result *Result) []os.DirEntry {
	entries, err := os.ReadDir(path)
	if err != nil {
		result.UnreadableDirs++
		return nil
	}
	return entries
}

// isNumber reports whether s is a nonempty string of decimal digits.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
