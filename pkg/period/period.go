// Package period rolls daily deltas up into weeks, weekdays and months.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

// Granularity selects how days are bucketed.
type Granularity string

// Granularities.
const (
	// WeekOfWar buckets by whole weeks since the war start date.
	WeekOfWar Granularity = "week_of_war"
	// Weekday buckets by day of week across the whole series.
	Weekday Granularity = "weekday"
	// CalendarWeek buckets by ISO week.
	CalendarWeek Granularity = "calendar_week"
	// CalendarMonth buckets by calendar month.
	CalendarMonth Granularity = "calendar_month"
)

const (
	daysPerWeek   = 7
	hoursPerDay   = 24
	monthsPerYear = 12
)

// Sentinel errors.
var (
	// ErrUnknownGranularity is returned for an unsupported granularity.
	ErrUnknownGranularity = errors.New("unknown period granularity")
	// ErrBeforeWarStart is returned by WeekOfWar for a record dated before
	// Options.WarStart.
	ErrBeforeWarStart = errors.New("record predates war start")
)

// Granularities lists every supported granularity.
func Granularities() []Granularity {
	return []Granularity{WeekOfWar, Weekday, CalendarWeek, CalendarMonth}
}

// ParseGranularity converts a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	for _, g := range Granularities() {
		if string(g) == s {
			return g, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Options parameterise GroupByPeriod.
type Options struct {
	// WarStart anchors WeekOfWar. Zero means the first record's date.
	WarStart time.Time
	// Metric selects the summed value. Empty means killed.
	Metric casualty.Category
}

// PeriodTotal is the sum of one bucket.
type PeriodTotal struct {
	Key   string    `json:"key" yaml:"key"`
	Index int       `json:"index" yaml:"index"`
	Start time.Time `json:"start,omitzero" yaml:"start,omitempty"`
	Total int       `json:"total" yaml:"total"`
	// Days counts the records that fell into the bucket.
	Days int `json:"days" yaml:"days"`
}

// GroupByPeriod sums deltas per bucket. WeekOfWar rejects records dated
// before Options.WarStart with ErrBeforeWarStart. WeekOfWar, CalendarWeek and
// CalendarMonth return a dense run of buckets between the first and last
// record, zero-filled where no record exists. Weekday always returns seven
// buckets, Sunday first. Empty input yields an empty result.
func GroupByPeriod(deltas []casualty.DeltaRecord, g Granularity, opts Options) ([]PeriodTotal, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	switch g {
	case WeekOfWar:
		return groupWeekOfWar(deltas, opts)
	case Weekday:
		return groupWeekday(deltas, opts), nil
	case CalendarWeek:
		return groupCalendarWeek(deltas, opts), nil
	case CalendarMonth:
		return groupCalendarMonth(deltas, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
}

func groupWeekOfWar(deltas []casualty.DeltaRecord, opts Options) ([]PeriodTotal, error) {
	start := opts.WarStart
	if start.IsZero() {
		start = deltas[0].Date
	}

	start = truncateDay(start)

	var totals []PeriodTotal

	for _, d := range deltas {
		days := daysBetween(start, d.Date)
		if days < 0 {
			return nil, fmt.Errorf("%w: %s is before %s",
				ErrBeforeWarStart, casualty.FormatDate(d.Date), casualty.FormatDate(start))
		}

		idx := days / daysPerWeek
		for len(totals) <= idx {
			i := len(totals)
			totals = append(totals, PeriodTotal{
				Key:   "W" + strconv.Itoa(i+1),
				Index: i,
				Start: start.AddDate(0, 0, i*daysPerWeek),
			})
		}

		totals[idx].Total += d.Value(opts.Metric)
		totals[idx].Days++
	}

	return totals, nil
}

func groupWeekday(deltas []casualty.DeltaRecord, opts Options) []PeriodTotal {
	totals := make([]PeriodTotal, daysPerWeek)
	for i := range totals {
		totals[i] = PeriodTotal{Key: time.Weekday(i).String(), Index: i}
	}

	for _, d := range deltas {
		wd := d.Date.Weekday()
		totals[wd].Total += d.Value(opts.Metric)
		totals[wd].Days++
	}

	return totals
}

func groupCalendarWeek(deltas []casualty.DeltaRecord, opts Options) []PeriodTotal {
	first := mondayOf(deltas[0].Date)
	last := mondayOf(deltas[len(deltas)-1].Date)
	count := daysBetween(first, last)/daysPerWeek + 1

	totals := make([]PeriodTotal, count)
	for i := range totals {
		monday := first.AddDate(0, 0, i*daysPerWeek)
		year, week := monday.ISOWeek()
		totals[i] = PeriodTotal{Key: fmt.Sprintf("%04d-W%02d", year, week), Index: i, Start: monday}
	}

	for _, d := range deltas {
		idx := daysBetween(first, mondayOf(d.Date)) / daysPerWeek
		totals[idx].Total += d.Value(opts.Metric)
		totals[idx].Days++
	}

	return totals
}

func groupCalendarMonth(deltas []casualty.DeltaRecord, opts Options) []PeriodTotal {
	first := monthOf(deltas[0].Date)
	last := monthOf(deltas[len(deltas)-1].Date)
	count := monthsBetween(first, last) + 1

	totals := make([]PeriodTotal, count)
	for i := range totals {
		month := first.AddDate(0, i, 0)
		totals[i] = PeriodTotal{Key: month.Format("2006-01"), Index: i, Start: month}
	}

	for _, d := range deltas {
		idx := monthsBetween(first, monthOf(d.Date))
		totals[idx].Total += d.Value(opts.Metric)
		totals[idx].Days++
	}

	return totals
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(truncateDay(to).Sub(truncateDay(from)).Hours()) / hoursPerDay
}

func mondayOf(t time.Time) time.Time {
	day := truncateDay(t)
	offset := (int(day.Weekday()) + daysPerWeek - int(time.Monday)) % daysPerWeek

	return day.AddDate(0, 0, -offset)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*monthsPerYear + int(to.Month()) - int(from.Month())
}
