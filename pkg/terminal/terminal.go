// Package terminal renders derived views as tables for interactive use.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

const (
	barLength = 30
	dateShort = "2006-01-02"
	noData    = "No data available"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = true

	return tbl
}

func rightAlign(cols ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		out[i] = table.ColumnConfig{Number: c, Align: text.AlignRight, AlignFooter: text.AlignRight}
	}

	return out
}

func heading(w io.Writer, title string) {
	color.New(color.Bold).Fprintf(w, "=== %s ===\n", strings.ToUpper(title))
}

// Summary prints the headline counters.
func Summary(w io.Writer, s views.SummaryView) {
	heading(w, "summary")

	if s.Days == 0 {
		fmt.Fprintln(w, noData)

		return
	}

	fmt.Fprintf(w, "%s to %s (%d days, %d reconstructed)\n",
		s.FirstDate.Format(dateShort), s.LastDate.Format(dateShort), s.Days, s.Reconstructed)

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Metric", "Count"})
	tbl.SetColumnConfigs(rightAlign(2))
	tbl.AppendRow(table.Row{"killed", s.FormattedKilled})

	for _, cat := range casualty.Categories() {
		if n, ok := s.Categories[cat]; ok {
			tbl.AppendRow(table.Row{string(cat), humanize.Comma(int64(n))})
		}
	}

	tbl.AppendFooter(table.Row{"daily mean / median / peak",
		fmt.Sprintf("%.1f / %.1f / %s", s.MeanDaily, s.MedianDaily, humanize.Comma(int64(s.PeakDaily)))})
	tbl.Render()

	if s.Comparison != nil {
		fmt.Fprintln(w)
		Comparison(w, s.Comparison)
	}
}

// Comparison prints one benchmark comparison sentence with its numbers.
func Comparison(w io.Writer, c *views.ComparisonView) {
	if c == nil {
		color.New(color.FgYellow).Fprintln(w, "No benchmark is comparable to this magnitude.")

		return
	}

	color.New(color.FgCyan).Fprintln(w, c.Sentence)
	fmt.Fprintf(w, "  benchmark: %s (%s, %s)  ratio: %.3f\n",
		c.BenchmarkID, humanize.Commaf(c.BenchmarkValue), unitOrDash(c.Unit), c.Ratio)

	if c.Context != "" {
		fmt.Fprintf(w, "  %s\n", c.Context)
	}
}

func unitOrDash(unit string) string {
	if unit == "" {
		return "-"
	}

	return unit
}

// Calendar prints per-month totals and the colour scale anchors.
func Calendar(w io.Writer, c *views.CalendarView) {
	heading(w, "calendar: "+string(c.Metric))

	if len(c.Months) == 0 {
		fmt.Fprintln(w, noData)

		return
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Month", "Total", "Present", "Missing", "Reconstructed", "Max day"})
	tbl.SetColumnConfigs(rightAlign(2, 3, 4, 5))

	for _, m := range c.Months {
		var present, missing, reconstructed int

		peak := views.CellView{}

		for _, cell := range m.Cells {
			switch cell.Kind {
			case "present":
				present++
			case "missing":
				missing++
			}

			if cell.Reconstructed {
				reconstructed++
			}

			if cell.Value > peak.Value {
				peak = cell
			}
		}

		maxDay := "-"
		if peak.Value > 0 {
			maxDay = fmt.Sprintf("%s (%s)", humanize.Comma(int64(peak.Value)), peak.Date)
		}

		tbl.AppendRow(table.Row{m.Month, humanize.Comma(int64(m.Total)), present, missing, reconstructed, maxDay})
	}

	tbl.Render()
	fmt.Fprintf(w, "scale: min %.0f, p95 %.0f over %d days\n", c.Stats.MinPositive, c.Stats.P95, c.Stats.PresentCount)
}

// Peaks prints the peak-day cards as rows.
func Peaks(w io.Writer, list []views.PeakView) {
	heading(w, "peaks")

	if len(list) == 0 {
		fmt.Fprintln(w, noData)

		return
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Date", "Value", "Comparison", "Notes"})
	tbl.SetColumnConfigs(rightAlign(2))

	for _, p := range list {
		sentence := ""
		if p.Comparison != nil {
			sentence = p.Comparison.Sentence
		}

		tbl.AppendRow(table.Row{p.Date, p.Formatted, sentence, strings.Join(p.Annotations, "; ")})
	}

	tbl.Render()
}

// Periods prints period totals with a proportional bar.
func Periods(w io.Writer, p *views.PeriodsView) {
	heading(w, fmt.Sprintf("%s: %s", p.Granularity, p.Metric))

	if len(p.Periods) == 0 {
		fmt.Fprintln(w, noData)

		return
	}

	var peak, sum int
	for _, t := range p.Periods {
		peak = max(peak, t.Total)
		sum += t.Total
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Period", "Total", "Days", ""})
	tbl.SetColumnConfigs(rightAlign(2, 3))

	for _, t := range p.Periods {
		tbl.AppendRow(table.Row{t.Key, humanize.Comma(int64(t.Total)), t.Days, bar(t.Total, peak)})
	}

	tbl.AppendFooter(table.Row{"Total", humanize.Comma(int64(sum)), "", ""})
	tbl.Render()
}

func bar(value, peak int) string {
	if peak <= 0 {
		return ""
	}

	filled := value * barLength / peak

	return strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)
}

// Trend prints the regression with a coloured direction badge.
func Trend(w io.Writer, t *views.TrendView) {
	heading(w, "trend: "+string(t.Metric))

	if t.Points == 0 {
		fmt.Fprintln(w, noData)

		return
	}

	badge := color.New(color.FgYellow)

	switch t.Direction {
	case period.Increasing:
		badge = color.New(color.FgRed, color.Bold)
	case period.Decreasing:
		badge = color.New(color.FgGreen)
	case period.Stable:
	}

	badge.Fprintf(w, "%s", t.Direction)
	fmt.Fprintf(w, " %+.2f per day over %d days (%s to %s)\n",
		t.Slope, t.Points, t.Start.Format(dateShort), t.End.Format(dateShort))
}

// Timeline prints the daily series beside its moving average.
func Timeline(w io.Writer, t *views.TimelineView) {
	heading(w, fmt.Sprintf("timeline: %s (%d-day average)", t.Metric, t.Window))

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Date", "Value", "Average", ""})
	tbl.SetColumnConfigs(rightAlign(2, 3))

	for _, p := range t.Points {
		mark := ""
		if p.Reconstructed {
			mark = "reconstructed"
		}

		tbl.AppendRow(table.Row{p.Date, humanize.Comma(int64(p.Value)), fmt.Sprintf("%.1f", p.Average), mark})
	}

	tbl.Render()
}

// Validation prints a schema verdict. It returns true when the document is valid.
func Validation(w io.Writer, label string, report *dataset.ValidationReport) bool {
	if report.Valid {
		color.New(color.FgGreen).Fprintf(w, "%s is a valid %s dataset\n", label, report.Kind)

		return true
	}

	color.New(color.FgRed).Fprintf(w, "%s failed %s validation (%d issues)\n", label, report.Kind, len(report.Issues))

	for _, issue := range report.Issues {
		color.New(color.FgRed).Fprintf(w, "  - %s: %s\n", issue.Field, issue.Description)
	}

	return false
}

// Merge prints the outcome of a catalogue merge.
func Merge(w io.Writer, result relatability.MergeResult, showDiffs bool) {
	heading(w, "benchmark merge")

	for i, n := range result.Loaded {
		fmt.Fprintf(w, "catalogue %d: %d benchmarks\n", i+1, n)
	}

	fmt.Fprintf(w, "merged: %d unique, %d duplicates skipped\n", len(result.Benchmarks), len(result.Duplicates))

	for _, d := range result.Duplicates {
		if !d.Conflicting() {
			fmt.Fprintf(w, "  duplicate %s in catalogue %d (identical)\n", d.ID, d.Source+1)

			continue
		}

		color.New(color.FgYellow).Fprintf(w, "  conflicting duplicate %s in catalogue %d\n", d.ID, d.Source+1)

		if showDiffs {
			fmt.Fprint(w, indent(d.Diff(), "    "))
		}
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Category", "Benchmarks"})
	tbl.SetColumnConfigs(rightAlign(2))

	for _, c := range relatability.CategoryDistribution(result.Benchmarks) {
		tbl.AppendRow(table.Row{c.Category, c.Count})
	}

	tbl.Render()
}

func indent(s, prefix string) string {
	var b strings.Builder

	for line := range strings.Lines(s) {
		b.WriteString(prefix)
		b.WriteString(line)
	}

	return b.String()
}

// CacheStats prints the dataset cache footprint.
func CacheStats(w io.Writer, dir string, stats dataset.Stats) {
	fmt.Fprintf(w, "cache %s: %d entries, %s\n", dir, stats.Entries, humanize.Bytes(uint64(max(stats.Bytes, 0))))
}

// Benchmarks lists a catalogue.
func Benchmarks(w io.Writer, list []relatability.Benchmark, scaleFor func(relatability.Benchmark) string) {
	heading(w, "benchmarks")

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"ID", "Label", "Value", "Unit", "Category", "Scales"})
	tbl.SetColumnConfigs(rightAlign(3))

	for _, b := range list {
		tbl.AppendRow(table.Row{b.ID, b.Label.EN, humanize.Commaf(b.Value), b.Unit, b.Category, scaleFor(b)})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d benchmarks", len(list))})
	tbl.Render()
}
