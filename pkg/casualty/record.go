// Package casualty models the daily casualty series and reconstructs per-day
// deltas from sources that mix explicit daily counts with running totals.
package casualty

import (
	"time"
)

// Category identifies a cumulative sub-series reported alongside the killed total.
type Category string

// Known categories, in presentation order.
const (
	CategoryChildren     Category = "children"
	CategoryWomen        Category = "women"
	CategoryMedical      Category = "medical"
	CategoryPress        Category = "press"
	CategoryCivilDefence Category = "civil_defence"
	CategoryInjured      Category = "injured"
)

// MetricKilled selects the killed total wherever a Category is used as a metric.
// It is not a cumulative sub-series and never appears in Categories.
const MetricKilled Category = "killed"

// Categories lists every known category in presentation order.
func Categories() []Category {
	return []Category{
		CategoryChildren,
		CategoryWomen,
		CategoryMedical,
		CategoryPress,
		CategoryCivilDefence,
		CategoryInjured,
	}
}

// Valid reports whether c is one of the known categories or MetricKilled.
func (c Category) Valid() bool {
	if c == MetricKilled {
		return true
	}

	for _, known := range Categories() {
		if c == known {
			return true
		}
	}

	return false
}

// KilledCount is the killed figure of a DailyRecord. It is either ExplicitDaily
// or CumulativeOnly; no other implementations exist.
type KilledCount interface {
	// CumulativeValue returns the running total carried by the record, if any.
	CumulativeValue() (int, bool)

	killedCount()
}

// ExplicitDaily is a record whose source published the day's count directly.
type ExplicitDaily struct {
	Daily      int
	Cumulative *int
}

// CumulativeValue implements KilledCount.
func (e ExplicitDaily) CumulativeValue() (int, bool) {
	if e.Cumulative == nil {
		return 0, false
	}

	return *e.Cumulative, true
}

func (ExplicitDaily) killedCount() {}

// CumulativeOnly is a record whose source published only the running total.
// A nil Cumulative means the field was absent altogether.
type CumulativeOnly struct {
	Cumulative *int
}

// CumulativeValue implements KilledCount.
func (c CumulativeOnly) CumulativeValue() (int, bool) {
	if c.Cumulative == nil {
		return 0, false
	}

	return *c.Cumulative, true
}

func (CumulativeOnly) killedCount() {}

// DailyRecord is one report day of the raw series.
type DailyRecord struct {
	Date       time.Time
	Killed     KilledCount
	Cumulative map[Category]int
}

// DeltaRecord is the reconstructed per-day view of a DailyRecord.
type DeltaRecord struct {
	Date             time.Time        `json:"date" yaml:"date"`
	CategoryDeltas   map[Category]int `json:"category_deltas,omitempty" yaml:"category_deltas,omitempty"`
	Killed           int              `json:"killed" yaml:"killed"`
	WasReconstructed bool             `json:"was_reconstructed" yaml:"was_reconstructed"`
}

// Value returns the delta for the given metric: the killed count for
// MetricKilled or an empty metric, otherwise the delta of that category.
func (d DeltaRecord) Value(metric Category) int {
	if metric == "" || metric == MetricKilled {
		return d.Killed
	}

	return d.CategoryDeltas[metric]
}
