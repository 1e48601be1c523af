package report

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

// IndexFile is the page written by WriteDir.
const IndexFile = "index.html"

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Options configures Build.
type Options struct {
	Title       string
	Description string
	Theme       Theme
	Lang        locale.Lang
	// Now stamps the footer. Zero uses the current time.
	Now time.Time
}

var text = struct {
	summary, calendar, timeline, weekly, weekday, monthly, peaks, benchmarks, annotations locale.Text
	killed, days, reconstructed, meanDaily, trend, minPositive, p95, total                locale.Text
	generated, noComparisons, noAnnotations                                               locale.Text
	calendarHint, timelineHint                                                            locale.Text
}{
	summary:     locale.Text{EN: "Summary", AR: "ملخص"},
	calendar:    locale.Text{EN: "Calendar", AR: "التقويم"},
	timeline:    locale.Text{EN: "Daily timeline", AR: "الخط الزمني اليومي"},
	weekly:      locale.Text{EN: "Weeks of war", AR: "أسابيع الحرب"},
	weekday:     locale.Text{EN: "Day of week", AR: "أيام الأسبوع"},
	monthly:     locale.Text{EN: "Months", AR: "الأشهر"},
	peaks:       locale.Text{EN: "Deadliest days", AR: "الأيام الأكثر دموية"},
	benchmarks:  locale.Text{EN: "Comparisons used", AR: "المقارنات المستخدمة"},
	annotations: locale.Text{EN: "Events", AR: "الأحداث"},

	killed:        locale.Text{EN: "Killed", AR: "الشهداء"},
	days:          locale.Text{EN: "Days reported", AR: "أيام التقارير"},
	reconstructed: locale.Text{EN: "Reconstructed days", AR: "أيام مُعاد بناؤها"},
	meanDaily:     locale.Text{EN: "Daily mean", AR: "المتوسط اليومي"},
	trend:         locale.Text{EN: "Trend", AR: "الاتجاه"},
	minPositive:   locale.Text{EN: "Lowest day", AR: "أدنى يوم"},
	p95:           locale.Text{EN: "95th percentile", AR: "المئين ٩٥"},
	total:         locale.Text{EN: "Total", AR: "المجموع"},

	generated:     locale.Text{EN: "Generated", AR: "أُنشئ في"},
	noComparisons: locale.Text{EN: "No comparisons matched.", AR: "لا توجد مقارنات مطابقة."},
	noAnnotations: locale.Text{EN: "No events recorded.", AR: "لا توجد أحداث مسجلة."},

	calendarHint: locale.Text{
		EN: "Colour intensity grows with the square root of the daily count. Dashed cells have no report.",
		AR: "تزداد شدة اللون مع الجذر التربيعي للعدد اليومي. الخلايا المتقطعة بلا تقرير.",
	},
	timelineHint: locale.Text{
		EN: "Diamond markers are days whose values were reconstructed from cumulative totals.",
		AR: "العلامات المعينية أيام أعيد بناء قيمها من المجاميع التراكمية.",
	},
}

// Build assembles the report page from svc.
func Build(ctx context.Context, svc *views.Service, o Options) (*Page, error) {
	ctx, span := otel.Tracer("tallymark/report").Start(ctx, "tallymark.report.build")
	defer span.End()

	page, err := build(ctx, svc, o)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("render.sections", len(page.Sections)))

	return page, nil
}

func build(ctx context.Context, svc *views.Service, o Options) (*Page, error) {
	lang := o.Lang
	if lang == "" {
		lang = svc.Options().Lang
	}

	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}

	theme := GetThemeConfig(o.Theme)
	cOpts := NewChartOpts(o.Theme)

	page := &Page{
		Title:       o.Title,
		Description: o.Description,
		Generated:   fmt.Sprintf("%s %s", text.generated.In(lang), now.UTC().Format(time.RFC3339)),
		Lang:        string(lang),
		RTL:         lang.IsRTL(),
		Theme:       o.Theme,
	}

	summary, err := svc.Summary(ctx, lang)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	trend, err := svc.Trend("", 0)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}

	page.Add(Section{ID: "summary", Title: text.summary.In(lang), Chart: fragment{"summary.html", summaryFragment(summary, trend, lang)}})

	cal, err := svc.Calendar("", lang)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	page.Add(Section{
		ID:       "calendar",
		Title:    text.calendar.In(lang),
		Subtitle: string(cal.Metric),
		Hint:     []string{text.calendarHint.In(lang)},
		Chart:    fragment{"calendar.html", calendarFragment(cal, lang)},
	})

	timeline, err := svc.Timeline("", 0)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}

	page.Add(Section{
		ID:       "timeline",
		Title:    text.timeline.In(lang),
		Subtitle: fmt.Sprintf("%s, %d-day moving average", timeline.Metric, timeline.Window),
		Hint:     []string{text.timelineHint.In(lang)},
		Chart:    TimelineChart(cOpts, timeline, theme.Daily, theme.Average),
	})

	for _, g := range []struct {
		granularity period.Granularity
		title       locale.Text
	}{
		{period.WeekOfWar, text.weekly},
		{period.Weekday, text.weekday},
		{period.CalendarMonth, text.monthly},
	} {
		periods, periodErr := svc.Periods(g.granularity, "")
		if periodErr != nil {
			return nil, fmt.Errorf("periods %s: %w", g.granularity, periodErr)
		}

		page.Add(Section{
			ID:    string(g.granularity),
			Title: g.title.In(lang),
			Chart: PeriodChart(cOpts, periods, theme.Bars),
		})
	}

	peakList, err := svc.Peaks(ctx, views.PeaksRequest{Window: -1, Lang: lang})
	if err != nil {
		return nil, fmt.Errorf("peaks: %w", err)
	}

	page.Add(
		Section{ID: "peaks", Title: text.peaks.In(lang), Chart: fragment{"peaks.html", peakFragment(peakList, lang)}},
		Section{ID: "benchmarks", Title: text.benchmarks.In(lang), Chart: fragment{"table.html", comparisonTable(summary, peakList, lang)}},
		Section{ID: "annotations", Title: text.annotations.In(lang), Chart: fragment{"table.html", annotationTable(svc, lang)}},
	)

	return page, nil
}

func summaryFragment(s views.SummaryView, trend *views.TrendView, lang locale.Lang) summaryData {
	data := summaryData{
		Stats: []statData{
			{
				Label: text.killed.In(lang),
				Value: s.FormattedKilled,
				Note:  fmt.Sprintf("%s – %s", casualty.FormatDate(s.FirstDate), casualty.FormatDate(s.LastDate)),
			},
			{Label: text.days.In(lang), Value: locale.FormatInt(lang, int64(s.Days))},
			{Label: text.reconstructed.In(lang), Value: locale.FormatInt(lang, int64(s.Reconstructed))},
			{Label: text.meanDaily.In(lang), Value: locale.FormatInt(lang, int64(s.MeanDaily+0.5))},
		},
	}

	for _, cat := range casualty.Categories() {
		if n, ok := s.Categories[cat]; ok {
			data.Stats = append(data.Stats, statData{Label: string(cat), Value: locale.FormatInt(lang, int64(n))})
		}
	}

	if trend != nil && trend.Points > 0 {
		data.Stats = append(data.Stats, statData{
			Label: text.trend.In(lang),
			Value: string(trend.Direction),
			Note:  fmt.Sprintf("%+.1f/day over %d days", trend.Slope, trend.Points),
		})
	}

	if s.Comparison != nil {
		data.Sentence = s.Comparison.Sentence
		data.Context = s.Comparison.Context
	}

	return data
}

func calendarFragment(c *views.CalendarView, lang locale.Lang) calendarData {
	const maxDays = 31

	data := calendarData{
		Months: make([]string, len(c.Months)),
		Totals: make([]string, len(c.Months)),
		Rows:   make([]calendarRow, maxDays),
		Legend: []statData{
			{Label: text.minPositive.In(lang), Value: locale.FormatInt(lang, int64(c.Stats.MinPositive))},
			{Label: text.p95.In(lang), Value: locale.FormatInt(lang, int64(c.Stats.P95))},
			{Label: text.days.In(lang), Value: locale.FormatInt(lang, int64(c.Stats.PresentCount))},
		},
	}

	for day := range maxDays {
		data.Rows[day] = calendarRow{Day: day + 1, Cells: make([]calendarCell, len(c.Months))}
	}

	for m, month := range c.Months {
		data.Months[m] = month.Month
		data.Totals[m] = locale.FormatInt(lang, int64(month.Total))

		for day := range maxDays {
			if day >= len(month.Cells) {
				data.Rows[day].Cells[m] = calendarCell{Class: "nonexistent"}

				continue
			}

			data.Rows[day].Cells[m] = cellFragment(month.Cells[day], lang)
		}
	}

	return data
}

func cellFragment(cell views.CellView, lang locale.Lang) calendarCell {
	out := calendarCell{Class: cell.Kind}

	if cell.Color != "" {
		out.Style = template.CSS("background-color: " + cell.Color) //nolint:gosec // colour computed by the calendar package.
	}

	if cell.Reconstructed {
		out.Class += " reconstructed"
	}

	if len(cell.Annotations) > 0 {
		out.Class += " annotated"
	}

	out.Title = cell.Date
	if cell.Kind == "present" {
		out.Title += ": " + locale.FormatInt(lang, int64(cell.Value))
	}

	for _, note := range cell.Annotations {
		out.Title += "\n" + note
	}

	return out
}

func peakFragment(list []views.PeakView, lang locale.Lang) []peakCard {
	cards := make([]peakCard, len(list))

	for i, p := range list {
		cards[i] = peakCard{
			Date:        p.Date,
			Value:       p.Formatted,
			Week:        "W" + locale.FormatInt(lang, int64(p.Week)),
			Annotations: p.Annotations,
		}

		if p.Comparison != nil {
			cards[i].Sentence = p.Comparison.Sentence
		}
	}

	return cards
}

// comparisonTable counts how often each benchmark was matched across the
// summary and the peak cards.
func comparisonTable(s views.SummaryView, list []views.PeakView, lang locale.Lang) tableData {
	type usage struct {
		label, category string
		count           int
		maxRatio        float64
	}

	var (
		order []string
		seen  = make(map[string]*usage)
	)

	add := func(c *views.ComparisonView) {
		if c == nil {
			return
		}

		u, ok := seen[c.BenchmarkID]
		if !ok {
			u = &usage{label: c.Label, category: c.Category}
			seen[c.BenchmarkID] = u
			order = append(order, c.BenchmarkID)
		}

		u.count++
		u.maxRatio = max(u.maxRatio, c.Ratio)
	}

	add(s.Comparison)

	for _, p := range list {
		add(p.Comparison)
	}

	data := tableData{
		Headers: []string{"benchmark", "category", "matches", "max ratio"},
		Empty:   text.noComparisons.In(lang),
	}

	for _, id := range order {
		u := seen[id]
		data.Rows = append(data.Rows, []string{
			u.label, u.category, locale.FormatInt(lang, int64(u.count)), fmt.Sprintf("%.2f", u.maxRatio),
		})
	}

	return data
}

func annotationTable(svc *views.Service, lang locale.Lang) tableData {
	data := tableData{Headers: []string{"date", "event"}, Empty: text.noAnnotations.In(lang)}

	for _, a := range svc.Annotations("") {
		data.Rows = append(data.Rows, []string{a.Date, a.Text.In(lang)})
	}

	return data
}

// WriteDir renders page into dir/index.html, creating dir when needed, and
// returns the written path.
func WriteDir(dir string, page *Page) (string, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, IndexFile)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	renderErr := page.Render(f)
	closeErr := f.Close()

	if renderErr != nil {
		return "", renderErr
	}

	if closeErr != nil {
		return "", fmt.Errorf("close %s: %w", path, closeErr)
	}

	return path, nil
}
