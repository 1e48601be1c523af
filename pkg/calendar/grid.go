// Package calendar builds the day-of-month by month heat-map grid and the
// statistics that anchor its colour scale.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

// DaysPerColumn is the fixed number of rows of every grid.
const DaysPerColumn = 31

// ErrInvalidRange is returned when the month range is empty or reversed.
var ErrInvalidRange = errors.New("invalid month range")

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}

	return YearMonthOf(t), nil
}

// String renders the month as "YYYY-MM".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	t := time.Date(ym.Year, ym.Month+1, 1, 0, 0, 0, 0, time.UTC)

	return YearMonthOf(t)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}

	return ym.Month < other.Month
}

func (ym YearMonth) valid() bool {
	return ym.Month >= time.January && ym.Month <= time.December
}

// Date returns the given day of the month at midnight UTC.
func (ym YearMonth) Date(day int) time.Time {
	return time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween enumerates the inclusive range [start, end].
func MonthsBetween(start, end YearMonth) ([]YearMonth, error) {
	if !start.valid() || !end.valid() || end.Before(start) {
		return nil, fmt.Errorf("%w: %s..%s", ErrInvalidRange, start, end)
	}

	var months []YearMonth

	for ym := start; !end.Before(ym); ym = ym.Next() {
		months = append(months, ym)
	}

	return months, nil
}

// CellKind discriminates the three cell variants.
type CellKind int

const (
	// CellNonexistent marks a day beyond the month's length (e.g. 31 February).
	CellNonexistent CellKind = iota
	// CellMissing marks a real day with no record in the series.
	CellMissing
	// CellPresent marks a day with a record.
	CellPresent
)

// String returns the lowercase variant name.
func (k CellKind) String() string {
	switch k {
	case CellNonexistent:
		return "nonexistent"
	case CellMissing:
		return "missing"
	case CellPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Cell is one grid position. Value and WasReconstructed are meaningful only
// for CellPresent.
type Cell struct {
	Kind             CellKind
	Value            int
	WasReconstructed bool
}

// Grid is a DaysPerColumn by len(Months) matrix; Rows[d-1][m] is day d of Months[m].
type Grid struct {
	Metric casualty.Category
	Months []YearMonth
	Rows   [DaysPerColumn][]Cell
}

// Cell returns the cell for day (1-based) in month column m.
func (g *Grid) Cell(day, m int) Cell {
	return g.Rows[day-1][m]
}

// BuildGrid lays the series out as a calendar for the given metric.
// Nonexistent days are decided by the calendar alone, independent of data.
// When several records share a date the last one wins.
func BuildGrid(deltas []casualty.DeltaRecord, start, end YearMonth, metric casualty.Category) (*Grid, error) {
	months, err := MonthsBetween(start, end)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]casualty.DeltaRecord, len(deltas))
	for _, d := range deltas {
		byDate[casualty.FormatDate(d.Date)] = d
	}

	grid := &Grid{Metric: metric, Months: months}

	for day := 1; day <= DaysPerColumn; day++ {
		row := make([]Cell, len(months))

		for m, ym := range months {
			row[m] = cellFor(byDate, ym, day, metric)
		}

		grid.Rows[day-1] = row
	}

	return grid, nil
}

// BuildGridForSeries spans the grid over the months covered by deltas.
// An empty series yields an empty grid.
func BuildGridForSeries(deltas []casualty.DeltaRecord, metric casualty.Category) (*Grid, error) {
	if len(deltas) == 0 {
		return &Grid{Metric: metric}, nil
	}

	return BuildGrid(deltas, YearMonthOf(deltas[0].Date), YearMonthOf(deltas[len(deltas)-1].Date), metric)
}

func cellFor(byDate map[string]casualty.DeltaRecord, ym YearMonth, day int, metric casualty.Category) Cell {
	if day > ym.Days() {
		return Cell{Kind: CellNonexistent}
	}

	rec, ok := byDate[casualty.FormatDate(ym.Date(day))]
	if !ok {
		return Cell{Kind: CellMissing}
	}

	return Cell{
		Kind:             CellPresent,
		Value:            rec.Value(metric),
		WasReconstructed: rec.WasReconstructed,
	}
}
