// Package peaks selects the deadliest days of a series while keeping the
// selection spread over time.
package peaks

import (
	"cmp"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

const (
	secondsPerDay = 24 * 60 * 60
	daysPerWeek   = 7
	// epochMondayOffset shifts day 0 (Thursday 1970-01-01) onto a Monday boundary.
	epochMondayOffset = 3
)

// PeakEntry is one selected day.
type PeakEntry struct {
	Date      time.Time `json:"date" yaml:"date"`
	Value     int       `json:"value" yaml:"value"`
	PeriodKey int       `json:"period_key" yaml:"period_key"`
}

// PeriodKey returns the Monday-aligned week index of t since the Unix epoch.
func PeriodKey(t time.Time) int {
	days := floorDiv(t.Unix(), secondsPerDay)

	return int(floorDiv(days+epochMondayOffset, daysPerWeek))
}

// TopPeaks selects up to count peak days by killed count. See TopPeaksBy.
func TopPeaks(deltas []casualty.DeltaRecord, count, adjacencyWindow int) []PeakEntry {
	return TopPeaksBy(deltas, casualty.MetricKilled, count, adjacencyWindow)
}

// TopPeaksBy walks the days from highest to lowest metric value and accepts a
// day only when every already accepted day lies at least adjacencyWindow
// period buckets away. A window of 0 disables de-duplication. Days with a
// non-positive value are never selected. Equal values keep date order. The
// result is sorted chronologically and is empty when nothing qualifies.
func TopPeaksBy(deltas []casualty.DeltaRecord, metric casualty.Category, count, adjacencyWindow int) []PeakEntry {
	if count <= 0 || len(deltas) == 0 {
		return nil
	}

	candidates := make([]PeakEntry, 0, len(deltas))

	for _, d := range deltas {
		value := d.Value(metric)
		if value <= 0 {
			continue
		}

		candidates = append(candidates, PeakEntry{Date: d.Date, Value: value, PeriodKey: PeriodKey(d.Date)})
	}

	slices.SortStableFunc(candidates, func(a, b PeakEntry) int {
		return a.Date.Compare(b.Date)
	})

	slices.SortStableFunc(candidates, func(a, b PeakEntry) int {
		return cmp.Compare(b.Value, a.Value)
	})

	accepted := make([]PeakEntry, 0, min(count, len(candidates)))

	for _, candidate := range candidates {
		if len(accepted) == count {
			break
		}

		if tooClose(accepted, candidate, adjacencyWindow) {
			continue
		}

		accepted = append(accepted, candidate)
	}

	slices.SortStableFunc(accepted, func(a, b PeakEntry) int {
		return a.Date.Compare(b.Date)
	})

	return accepted
}

func tooClose(accepted []PeakEntry, candidate PeakEntry, window int) bool {
	for _, a := range accepted {
		if abs(a.PeriodKey-candidate.PeriodKey) < window {
			return true
		}
	}

	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
