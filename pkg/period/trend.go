package period

import (
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/alg/stats"
	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

// Direction classifies a trend slope.
type Direction string

// Trend directions.
const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// TrendThreshold is the slope magnitude, in units per day, above which a
// trend stops being stable.
const TrendThreshold = 0.5

// Trend is an ordinary least squares fit over a trailing window of days.
type Trend struct {
	Slope     float64   `json:"slope" yaml:"slope"`
	Intercept float64   `json:"intercept" yaml:"intercept"`
	Direction Direction `json:"direction" yaml:"direction"`
	Start     time.Time `json:"start,omitzero" yaml:"start,omitempty"`
	End       time.Time `json:"end,omitzero" yaml:"end,omitempty"`
	Points    int       `json:"points" yaml:"points"`
}

// Classify maps a slope onto a direction using TrendThreshold.
func Classify(slope float64) Direction {
	switch {
	case slope > TrendThreshold:
		return Increasing
	case slope < -TrendThreshold:
		return Decreasing
	default:
		return Stable
	}
}

// LinearRegressionSlope fits killed counts over the trailing windowDays.
// See LinearRegressionSlopeBy.
func LinearRegressionSlope(deltas []casualty.DeltaRecord, windowDays int) Trend {
	return LinearRegressionSlopeBy(deltas, casualty.MetricKilled, windowDays)
}

// LinearRegressionSlopeBy fits metric over the records whose date lies within
// windowDays of the last record, using day offsets from the window start as
// x. A non-positive window uses the whole series. With fewer than two points
// the trend is flat and stable.
func LinearRegressionSlopeBy(deltas []casualty.DeltaRecord, metric casualty.Category, windowDays int) Trend {
	if len(deltas) == 0 {
		return Trend{Direction: Stable}
	}

	window := deltas
	if windowDays > 0 {
		cutoff := truncateDay(deltas[len(deltas)-1].Date).AddDate(0, 0, -(windowDays - 1))

		first := len(deltas)
		for i, d := range deltas {
			if !truncateDay(d.Date).Before(cutoff) {
				first = i

				break
			}
		}

		window = deltas[first:]
	}

	start := window[0].Date
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))

	for i, d := range window {
		xs[i] = float64(daysBetween(start, d.Date))
		ys[i] = float64(d.Value(metric))
	}

	slope, intercept := stats.LinearRegression(xs, ys)

	return Trend{
		Slope:     slope,
		Intercept: intercept,
		Direction: Classify(slope),
		Start:     start,
		End:       window[len(window)-1].Date,
		Points:    len(window),
	}
}

// MovingAverage smooths values with a trailing mean of width window. The
// first window-1 values pass through unchanged. A window of 1 or less
// returns a copy of values.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)

		return out
	}

	var sum float64

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i < window-1 {
			out[i] = v

			continue
		}

		out[i] = sum / float64(window)
	}

	return out
}

// Values extracts metric from deltas as a float series.
func Values(deltas []casualty.DeltaRecord, metric casualty.Category) []float64 {
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		out[i] = float64(d.Value(metric))
	}

	return out
}
