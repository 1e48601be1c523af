package report

import (
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

const (
	chartWidth    = "100%"
	chartHeight   = "420px"
	averageDigits = 10
	barOpacity    = 0.15
	rotatedLabels = 45
)

// TimelineChart plots the daily series with its moving average.
func TimelineChart(cOpts *ChartOpts, t *views.TimelineView, daily, average string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init(chartWidth, chartHeight)),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithDataZoomOpts(cOpts.DataZoom()...),
		charts.WithGridOpts(cOpts.Grid()),
		charts.WithXAxisOpts(cOpts.XAxis(0)),
		charts.WithYAxisOpts(cOpts.YAxis(string(t.Metric))),
		charts.WithLegendOpts(cOpts.Legend()),
	)

	labels := make([]string, len(t.Points))
	values := make([]opts.LineData, len(t.Points))
	averages := make([]opts.LineData, len(t.Points))

	for i, p := range t.Points {
		labels[i] = p.Date
		values[i] = opts.LineData{Value: p.Value, Name: p.Date}
		averages[i] = opts.LineData{Value: math.Round(p.Average*averageDigits) / averageDigits}

		if p.Reconstructed {
			values[i].Symbol = "diamond"
			values[i].SymbolSize = 8
		}
	}

	line.SetXAxis(labels)
	line.AddSeries("daily", values,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: daily}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: daily}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(barOpacity)}),
	)
	line.AddSeries("moving average", averages,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: average}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: average}),
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
	)

	return line
}

// PeriodChart draws one bar per period total.
func PeriodChart(cOpts *ChartOpts, p *views.PeriodsView, color string) *charts.Bar {
	bar := charts.NewBar()

	rotate := 0.0
	if len(p.Periods) > 12 { //nolint:mnd // more labels than fit horizontally.
		rotate = rotatedLabels
	}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(cOpts.Init(chartWidth, chartHeight)),
		charts.WithTooltipOpts(cOpts.Tooltip("axis")),
		charts.WithGridOpts(cOpts.Grid()),
		charts.WithXAxisOpts(cOpts.XAxis(rotate)),
		charts.WithYAxisOpts(cOpts.YAxis(string(p.Metric))),
	)

	if len(p.Periods) > 12 { //nolint:mnd // zoom only when labels are rotated.
		bar.SetGlobalOptions(charts.WithDataZoomOpts(cOpts.DataZoom()...))
	}

	labels := make([]string, len(p.Periods))
	data := make([]opts.BarData, len(p.Periods))

	for i, t := range p.Periods {
		labels[i] = t.Key
		data[i] = opts.BarData{Value: t.Total, Name: t.Key}
	}

	bar.SetXAxis(labels)
	bar.AddSeries(string(p.Granularity), data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))

	return bar
}
