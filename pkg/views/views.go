// Package views derives the presentation models shared by the CLI, the HTTP
// API, the MCP tools and the HTML report from one loaded dataset bundle.
package views

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/tallymark/pkg/alg/lru"
	"github.com/Sumatoshi-tech/tallymark/pkg/calendar"
	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/peaks"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
)

const (
	tracerName  = "tallymark/views"
	memoEntries = 64
)

// Defaults applied by DefaultOptions.
const (
	DefaultPeakCount     = 10
	DefaultPeakWindow    = 1
	DefaultTrendWindow   = 28
	DefaultMovingAverage = 7

	// MaxPeakCount caps PeaksRequest.Count.
	MaxPeakCount = 100
)

// Sentinel errors.
var (
	ErrNilBundle     = errors.New("dataset bundle is nil")
	ErrInvalidMetric = errors.New("unknown metric")
	ErrNonPositive   = errors.New("magnitude must be positive")
	ErrNotFinite     = errors.New("magnitude must be finite")
	ErrPeakCount     = errors.New("peak count out of range")
)

// Options parameterise every derived view.
type Options struct {
	WarStart      time.Time
	Metric        casualty.Category
	PeakCount     int
	PeakWindow    int
	TrendWindow   int
	MovingAverage int
	Matcher       relatability.Matcher
	Lang          locale.Lang
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Metric:        casualty.MetricKilled,
		PeakCount:     DefaultPeakCount,
		PeakWindow:    DefaultPeakWindow,
		TrendWindow:   DefaultTrendWindow,
		MovingAverage: DefaultMovingAverage,
		Matcher:       relatability.DefaultMatcher(),
		Lang:          locale.English,
	}
}

// Service derives views from an immutable bundle. It is safe for concurrent use.
type Service struct {
	bundle  *dataset.Bundle
	opts    Options
	metrics *observability.DataMetrics
	tracer  trace.Tracer
	memo    *lru.Cache[memoKey, any]
}

// memoKey identifies one derived view. Views that depend only on the bundle
// and these fields are computed once and shared; callers must not mutate them.
type memoKey struct {
	view   string
	metric casualty.Category
	lang   locale.Lang
	param  string
}

func memoized[V any](s *Service, key memoKey, compute func() (V, error)) (V, error) {
	v, err := s.memo.GetOrCompute(key, func() (any, error) { return compute() })
	if err != nil {
		var zero V

		return zero, err
	}

	view, _ := v.(V)

	return view, nil
}

// NewService binds opts to bundle. metrics may be nil.
func NewService(bundle *dataset.Bundle, opts Options, metrics *observability.DataMetrics) (*Service, error) {
	if bundle == nil {
		return nil, ErrNilBundle
	}

	if opts.Metric == "" {
		opts.Metric = casualty.MetricKilled
	}

	if !opts.Metric.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, opts.Metric)
	}

	if opts.Lang == "" {
		opts.Lang = locale.English
	}

	return &Service{
		bundle:  bundle,
		opts:    opts,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		memo:    lru.New[memoKey, any](memoEntries),
	}, nil
}

// MemoStats reports hits and misses of the derived-view memo.
func (s *Service) MemoStats() lru.Stats { return s.memo.Stats() }

// Bundle returns the underlying dataset.
func (s *Service) Bundle() *dataset.Bundle { return s.bundle }

// Options returns the bound options.
func (s *Service) Options() Options { return s.opts }

func (s *Service) metric(m casualty.Category) (casualty.Category, error) {
	if m == "" {
		return s.opts.Metric, nil
	}

	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, m)
	}

	return m, nil
}

func (s *Service) lang(l locale.Lang) locale.Lang {
	if l == "" {
		return s.opts.Lang
	}

	return l
}

// ComparisonView is a matched benchmark rendered for display.
type ComparisonView struct {
	Magnitude        float64            `json:"magnitude" yaml:"magnitude"`
	Scale            relatability.Scale `json:"scale" yaml:"scale"`
	BenchmarkID      string             `json:"benchmark_id" yaml:"benchmark_id"`
	Label            string             `json:"label" yaml:"label"`
	Unit             string             `json:"unit,omitempty" yaml:"unit,omitempty"`
	Category         string             `json:"category,omitempty" yaml:"category,omitempty"`
	BenchmarkValue   float64            `json:"benchmark_value" yaml:"benchmark_value"`
	Ratio            float64            `json:"ratio" yaml:"ratio"`
	DisplayMagnitude int                `json:"display_magnitude" yaml:"display_magnitude"`
	Kind             relatability.Kind  `json:"kind" yaml:"kind"`
	Sentence         string             `json:"sentence" yaml:"sentence"`
	Context          string             `json:"context,omitempty" yaml:"context,omitempty"`
	Lang             locale.Lang        `json:"lang" yaml:"lang"`
}

// CompareRequest selects a comparison. A nil Rand picks the best match.
type CompareRequest struct {
	Magnitude float64
	Scale     relatability.Scale
	Lang      locale.Lang
	Rand      *rand.Rand
}

// Compare matches a magnitude against the benchmark catalogue. It returns
// nil without error when no benchmark qualifies.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*ComparisonView, error) {
	if math.IsInf(req.Magnitude, 0) || math.IsNaN(req.Magnitude) {
		return nil, fmt.Errorf("%w: %v", ErrNotFinite, req.Magnitude)
	}

	if req.Magnitude <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrNonPositive, req.Magnitude)
	}

	if req.Scale == "" {
		req.Scale = relatability.ScaleDaily
	}

	_, span := s.tracer.Start(ctx, "tallymark.views.compare", trace.WithAttributes(
		attribute.Float64("comparison.magnitude", req.Magnitude),
		attribute.String("comparison.scale", string(req.Scale)),
		attribute.Bool("comparison.random", req.Rand != nil),
	))
	defer span.End()

	var c *relatability.Comparison
	if req.Rand != nil {
		c = s.opts.Matcher.RandomComparison(req.Magnitude, s.bundle.Benchmarks, req.Scale, req.Rand)
	} else {
		c = s.opts.Matcher.FindBestComparison(req.Magnitude, s.bundle.Benchmarks, req.Scale)
	}

	if c == nil {
		span.SetAttributes(attribute.Bool("comparison.matched", false))

		return nil, nil //nolint:nilnil // no match is a soft outcome.
	}

	span.SetAttributes(
		attribute.Bool("comparison.matched", true),
		attribute.String("comparison.benchmark", c.Benchmark.ID),
	)

	if s.metrics != nil {
		s.metrics.RecordComparison(ctx, string(req.Scale), c.Benchmark.Category, c.Ratio)
	}

	return s.comparisonView(*c, req.Scale, s.lang(req.Lang)), nil
}

func (s *Service) comparisonView(c relatability.Comparison, scale relatability.Scale, lang locale.Lang) *ComparisonView {
	return &ComparisonView{
		Magnitude:        c.Magnitude,
		Scale:            scale,
		BenchmarkID:      c.Benchmark.ID,
		Label:            c.Benchmark.Label.In(lang),
		Unit:             c.Benchmark.Unit,
		Category:         c.Benchmark.Category,
		BenchmarkValue:   c.Benchmark.Value,
		Ratio:            c.Ratio,
		DisplayMagnitude: c.DisplayMagnitude,
		Kind:             c.Kind,
		Sentence:         relatability.FormatComparison(c, c.Magnitude, lang),
		Context:          c.Benchmark.Context.In(lang),
		Lang:             lang,
	}
}

// SummaryView is the landing-page counter block.
type SummaryView struct {
	casualty.Summary `yaml:",inline"`

	FormattedKilled string          `json:"formatted_killed" yaml:"formatted_killed"`
	Comparison      *ComparisonView `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// Summary returns the headline counters and the best cumulative comparison
// of the killed total.
func (s *Service) Summary(ctx context.Context, lang locale.Lang) (SummaryView, error) {
	lang = s.lang(lang)
	summary := s.bundle.Summary()
	view := SummaryView{Summary: summary, FormattedKilled: locale.FormatInt(lang, int64(summary.Killed))}

	if summary.Killed <= 0 {
		return view, nil
	}

	comparison, err := s.Compare(ctx, CompareRequest{
		Magnitude: float64(summary.Killed),
		Scale:     relatability.ScaleCumulative,
		Lang:      lang,
	})
	if err != nil {
		return SummaryView{}, err
	}

	view.Comparison = comparison

	return view, nil
}

// Annotations returns the notes pinned to an ISO date, or every note when
// date is empty.
func (s *Service) Annotations(date string) []dataset.Annotation {
	if date == "" {
		return s.bundle.Annotations.All()
	}

	return s.bundle.Annotations.Lookup(date)
}

func (s *Service) annotationTexts(date string, lang locale.Lang) []string {
	notes := s.bundle.Annotations.Lookup(date)
	if len(notes) == 0 {
		return nil
	}

	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Text.In(lang)
	}

	return out
}

// CellView is one calendar day.
type CellView struct {
	Day           int      `json:"day" yaml:"day"`
	Date          string   `json:"date" yaml:"date"`
	Kind          string   `json:"kind" yaml:"kind"`
	Value         int      `json:"value" yaml:"value"`
	Reconstructed bool     `json:"reconstructed,omitempty" yaml:"reconstructed,omitempty"`
	Color         string   `json:"color" yaml:"color"`
	Annotations   []string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// MonthView is one calendar column. Cells holds only the days the month has.
type MonthView struct {
	Month string     `json:"month" yaml:"month"`
	Total int        `json:"total" yaml:"total"`
	Cells []CellView `json:"cells" yaml:"cells"`
}

// StatsView exposes the colour scale anchors.
type StatsView struct {
	MinPositive  float64 `json:"min_positive" yaml:"min_positive"`
	P95          float64 `json:"p95" yaml:"p95"`
	PresentCount int     `json:"present_count" yaml:"present_count"`
}

// CalendarView is the heat-map calendar of one metric.
type CalendarView struct {
	Metric casualty.Category `json:"metric" yaml:"metric"`
	Stats  StatsView         `json:"stats" yaml:"stats"`
	Months []MonthView       `json:"months" yaml:"months"`
}

// Calendar builds the heat-map calendar for metric, or the default metric
// when empty.
func (s *Service) Calendar(metric casualty.Category, lang locale.Lang) (*CalendarView, error) {
	metric, err := s.metric(metric)
	if err != nil {
		return nil, err
	}

	lang = s.lang(lang)

	return memoized(s, memoKey{view: "calendar", metric: metric, lang: lang}, func() (*CalendarView, error) {
		return s.calendar(metric, lang)
	})
}

func (s *Service) calendar(metric casualty.Category, lang locale.Lang) (*CalendarView, error) {
	grid, err := calendar.BuildGridForSeries(s.bundle.Deltas, metric)
	if err != nil {
		return nil, fmt.Errorf("build calendar: %w", err)
	}

	gs := calendar.ComputeStatistics(grid)
	palette := calendar.DefaultPalette()

	view := &CalendarView{
		Metric: metric,
		Stats:  StatsView{MinPositive: gs.MinPositive, P95: gs.P95, PresentCount: gs.PresentCount},
		Months: make([]MonthView, len(grid.Months)),
	}

	for m, ym := range grid.Months {
		month := MonthView{Month: ym.String(), Cells: make([]CellView, 0, ym.Days())}

		for day := 1; day <= ym.Days(); day++ {
			cell := grid.Cell(day, m)
			date := casualty.FormatDate(ym.Date(day))

			month.Cells = append(month.Cells, CellView{
				Day:           day,
				Date:          date,
				Kind:          cell.Kind.String(),
				Value:         cell.Value,
				Reconstructed: cell.WasReconstructed,
				Color:         calendar.CellColor(cell, gs, palette),
				Annotations:   s.annotationTexts(date, lang),
			})

			month.Total += cell.Value
		}

		view.Months[m] = month
	}

	return view, nil
}

// PeakView is one peak-day card.
type PeakView struct {
	Date        string          `json:"date" yaml:"date"`
	Value       int             `json:"value" yaml:"value"`
	Formatted   string          `json:"formatted" yaml:"formatted"`
	Week        int             `json:"week" yaml:"week"`
	Annotations []string        `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Comparison  *ComparisonView `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// PeaksRequest selects peak days. Zero fields fall back to Options.
type PeaksRequest struct {
	Metric casualty.Category
	// Count is at most MaxPeakCount.
	Count int
	// Window is the adjacency window in weeks. Negative uses Options.PeakWindow.
	Window int
	Lang   locale.Lang
}

// Peaks returns the top days in chronological order, each with its best
// daily comparison.
func (s *Service) Peaks(ctx context.Context, req PeaksRequest) ([]PeakView, error) {
	metric, err := s.metric(req.Metric)
	if err != nil {
		return nil, err
	}

	if req.Count < 0 || req.Count > MaxPeakCount {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrPeakCount, req.Count, MaxPeakCount)
	}

	count := req.Count
	if count == 0 {
		count = s.opts.PeakCount
	}

	window := req.Window
	if window < 0 {
		window = s.opts.PeakWindow
	}

	lang := s.lang(req.Lang)
	entries := peaks.TopPeaksBy(s.bundle.Deltas, metric, count, window)
	out := make([]PeakView, 0, len(entries))

	for _, e := range entries {
		date := casualty.FormatDate(e.Date)
		view := PeakView{
			Date:        date,
			Value:       e.Value,
			Formatted:   locale.FormatInt(lang, int64(e.Value)),
			Week:        e.PeriodKey,
			Annotations: s.annotationTexts(date, lang),
		}

		comparison, cmpErr := s.Compare(ctx, CompareRequest{
			Magnitude: float64(e.Value),
			Scale:     relatability.ScaleDaily,
			Lang:      lang,
		})
		if cmpErr != nil {
			return nil, cmpErr
		}

		view.Comparison = comparison
		out = append(out, view)
	}

	return out, nil
}

// PeriodsView is a roll-up at one granularity.
type PeriodsView struct {
	Granularity period.Granularity   `json:"granularity" yaml:"granularity"`
	Metric      casualty.Category    `json:"metric" yaml:"metric"`
	Periods     []period.PeriodTotal `json:"periods" yaml:"periods"`
}

// Periods groups the series at granularity g.
func (s *Service) Periods(g period.Granularity, metric casualty.Category) (*PeriodsView, error) {
	metric, err := s.metric(metric)
	if err != nil {
		return nil, err
	}

	return memoized(s, memoKey{view: "periods", metric: metric, param: string(g)}, func() (*PeriodsView, error) {
		totals, groupErr := period.GroupByPeriod(s.bundle.Deltas, g, period.Options{WarStart: s.opts.WarStart, Metric: metric})
		if groupErr != nil {
			return nil, fmt.Errorf("group by %s: %w", g, groupErr)
		}

		return &PeriodsView{Granularity: g, Metric: metric, Periods: totals}, nil
	})
}

// TrendView is the regression over a trailing window.
type TrendView struct {
	period.Trend `yaml:",inline"`

	Metric casualty.Category `json:"metric" yaml:"metric"`
	Window int               `json:"window" yaml:"window"`
}

// Trend fits the trailing window days of metric. A window of zero uses
// Options.TrendWindow; a negative window fits the whole series.
func (s *Service) Trend(metric casualty.Category, window int) (*TrendView, error) {
	metric, err := s.metric(metric)
	if err != nil {
		return nil, err
	}

	if window == 0 {
		window = s.opts.TrendWindow
	}

	return &TrendView{
		Trend:  period.LinearRegressionSlopeBy(s.bundle.Deltas, metric, window),
		Metric: metric,
		Window: window,
	}, nil
}

// TimelinePoint is one day of the timeline chart.
type TimelinePoint struct {
	Date          string  `json:"date" yaml:"date"`
	Value         int     `json:"value" yaml:"value"`
	Average       float64 `json:"average" yaml:"average"`
	Reconstructed bool    `json:"reconstructed,omitempty" yaml:"reconstructed,omitempty"`
}

// TimelineView is the daily series with its moving average.
type TimelineView struct {
	Metric casualty.Category `json:"metric" yaml:"metric"`
	Window int               `json:"window" yaml:"window"`
	Points []TimelinePoint   `json:"points" yaml:"points"`
}

// Timeline pairs every daily value with its moving average. A window of zero
// uses Options.MovingAverage.
func (s *Service) Timeline(metric casualty.Category, window int) (*TimelineView, error) {
	metric, err := s.metric(metric)
	if err != nil {
		return nil, err
	}

	if window == 0 {
		window = s.opts.MovingAverage
	}

	return memoized(s, memoKey{view: "timeline", metric: metric, param: strconv.Itoa(window)}, func() (*TimelineView, error) {
		deltas := s.bundle.Deltas
		averages := period.MovingAverage(period.Values(deltas, metric), window)
		points := make([]TimelinePoint, len(deltas))

		for i, d := range deltas {
			points[i] = TimelinePoint{
				Date:          casualty.FormatDate(d.Date),
				Value:         d.Value(metric),
				Average:       averages[i],
				Reconstructed: d.WasReconstructed,
			}
		}

		return &TimelineView{Metric: metric, Window: window, Points: points}, nil
	})
}
