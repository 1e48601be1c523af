package casualty

import (
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/alg/stats"
)

// Summary holds the headline counters of a series.
type Summary struct {
	FirstDate     time.Time        `json:"first_date" yaml:"first_date"`
	LastDate      time.Time        `json:"last_date" yaml:"last_date"`
	Categories    map[Category]int `json:"categories" yaml:"categories"`
	Killed        int              `json:"killed" yaml:"killed"`
	Days          int              `json:"days" yaml:"days"`
	Reconstructed int              `json:"reconstructed" yaml:"reconstructed"`
	PeakDaily     int              `json:"peak_daily" yaml:"peak_daily"`
	MeanDaily     float64          `json:"mean_daily" yaml:"mean_daily"`
	MedianDaily   float64          `json:"median_daily" yaml:"median_daily"`
	StdDevDaily   float64          `json:"stddev_daily" yaml:"stddev_daily"`
}

// Summarize derives the counters shown on the landing page. Killed is the
// latest published running total, or the sum of deltas when that is larger
// (explicit daily counts may run ahead of a stale cumulative field).
// Category counters are the latest value seen for each category.
func Summarize(records []DailyRecord, deltas []DeltaRecord) Summary {
	summary := Summary{
		Categories: make(map[Category]int),
		Days:       len(deltas),
	}

	if len(deltas) == 0 {
		return summary
	}

	summary.FirstDate = deltas[0].Date
	summary.LastDate = deltas[len(deltas)-1].Date

	killed := make([]int, len(deltas))
	daily := make([]float64, len(deltas))

	for i, d := range deltas {
		killed[i] = d.Killed
		daily[i] = float64(d.Killed)

		if d.WasReconstructed {
			summary.Reconstructed++
		}
	}

	var latestCum int

	for _, rec := range records {
		if rec.Killed != nil {
			if cum, ok := rec.Killed.CumulativeValue(); ok {
				latestCum = cum
			}
		}

		for cat, val := range rec.Cumulative {
			summary.Categories[cat] = val
		}
	}

	summary.Killed = max(latestCum, stats.Sum(killed))
	summary.PeakDaily = stats.Max(killed)
	summary.MeanDaily, summary.StdDevDaily = stats.MeanStdDev(daily)
	summary.MedianDaily = stats.Median(daily)

	return summary
}
