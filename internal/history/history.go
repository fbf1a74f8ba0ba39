// Package history implements the Historical Driver: replaying the
// Pipeline Driver over a date range, skipping days whose output
// already exists.
package history

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/pricehist/internal/pipeline"
)

// DefaultStartDate is the earliest date worth backfilling: the date
// the price-transparency law this system tracks took effect.
var DefaultStartDate = time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)

// DayResult records the outcome of one day in a range.
type DayResult struct {
	Date    time.Time
	Skipped bool
	Result  pipeline.Result
	Err     error
}

// RunRange iterates [start, end] inclusive, one day at a time. A day
// is skipped if root/<date>/ or root/<date>.zip already exists.
// Per-day failures are logged and never abort the range.
func RunRange(ctx context.Context, driver *pipeline.Driver, root string, start, end time.Time, chainSlugs []string) []DayResult {
	var results []DayResult

	for d := truncateToDay(start); !d.After(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		if alreadyExists(root, d) {
			log.Info().Time("date", d).Msg("output already exists, skipping")
			results = append(results, DayResult{Date: d, Skipped: true})
			continue
		}

		res, err := driver.Run(ctx, root, d, chainSlugs, false)
		if err != nil {
			log.Error().Time("date", d).Err(err).Msg("day failed")
			results = append(results, DayResult{Date: d, Err: err})
			continue
		}
		results = append(results, DayResult{Date: d, Result: res})
	}

	return results
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func alreadyExists(root string, date time.Time) bool {
	dateDir := filepath.Join(root, date.Format("2006-01-02"))
	if _, err := os.Stat(dateDir); err == nil {
		return true
	}
	zipPath := dateDir + ".zip"
	if _, err := os.Stat(zipPath); err == nil {
		return true
	}
	return false
}
