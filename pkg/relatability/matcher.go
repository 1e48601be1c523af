package relatability

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Kind says how a magnitude relates to its benchmark.
type Kind string

// Comparison kinds.
const (
	// KindMultiple is "N times the benchmark".
	KindMultiple Kind = "multiple"
	// KindPercentage is "N% of the benchmark".
	KindPercentage Kind = "percentage"
)

// Scale selects the benchmark ceiling applied before matching.
type Scale string

// Magnitude scales.
const (
	ScaleDaily      Scale = "daily"
	ScaleCumulative Scale = "cumulative"
)

// ErrUnknownScale is returned by ParseScale.
var ErrUnknownScale = errors.New("unknown comparison scale")

// ParseScale converts a scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(s) {
	case ScaleDaily, ScaleCumulative:
		return Scale(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScale, s)
	}
}

const (
	// MinRatio is the exclusive lower bound on ratios worth reporting.
	MinRatio = 0.05
	// DefaultDailyCeiling keeps daily comparisons to modestly sized benchmarks.
	DefaultDailyCeiling = 10000
	percentScale        = 100
)

// Comparison is a scored match between a magnitude and a benchmark.
type Comparison struct {
	Benchmark        Benchmark `json:"benchmark" yaml:"benchmark"`
	Magnitude        float64   `json:"magnitude" yaml:"magnitude"`
	Ratio            float64   `json:"ratio" yaml:"ratio"`
	DisplayMagnitude int       `json:"display_magnitude" yaml:"display_magnitude"`
	Kind             Kind      `json:"kind" yaml:"kind"`
}

// Matcher holds per-scale benchmark ceilings. A ceiling of 0 is unbounded.
type Matcher struct {
	DailyCeiling      float64
	CumulativeCeiling float64
}

// DefaultMatcher returns the ceilings used when nothing is configured.
func DefaultMatcher() Matcher {
	return Matcher{DailyCeiling: DefaultDailyCeiling}
}

func (m Matcher) ceiling(scale Scale) float64 {
	if scale == ScaleDaily {
		return m.DailyCeiling
	}

	return m.CumulativeCeiling
}

// Candidates returns the benchmarks eligible for scale, in catalogue order.
func (m Matcher) Candidates(benchmarks []Benchmark, scale Scale) []Benchmark {
	limit := m.ceiling(scale)
	out := make([]Benchmark, 0, len(benchmarks))

	for _, b := range benchmarks {
		if b.Value <= 0 {
			continue
		}

		if limit > 0 && b.Value > limit {
			continue
		}

		out = append(out, b)
	}

	return out
}

// FindBestComparison scores every eligible benchmark and returns the best
// one. Multiples score by closeness to a whole number, percentages by the
// ratio itself, and ratios at or below MinRatio are dropped. The first
// benchmark in catalogue order wins a tie. Nil means nothing qualified.
func (m Matcher) FindBestComparison(magnitude float64, benchmarks []Benchmark, scale Scale) *Comparison {
	if magnitude <= 0 {
		return nil
	}

	var (
		best      *Comparison
		bestScore float64
	)

	for _, b := range m.Candidates(benchmarks, scale) {
		ratio := magnitude / b.Value

		score, ok := Score(ratio)
		if !ok {
			continue
		}

		if best == nil || score > bestScore {
			c := newComparison(b, magnitude, ratio)
			best = &c
			bestScore = score
		}
	}

	return best
}

// RandomComparison picks an eligible benchmark uniformly at random without
// scoring. Nil means the filtered catalogue is empty.
func (m Matcher) RandomComparison(magnitude float64, benchmarks []Benchmark, scale Scale, rng *rand.Rand) *Comparison {
	candidates := m.Candidates(benchmarks, scale)
	if len(candidates) == 0 || magnitude <= 0 {
		return nil
	}

	b := candidates[rng.IntN(len(candidates))]
	c := newComparison(b, magnitude, magnitude/b.Value)

	return &c
}

// Score rates a ratio. The boolean is false when the ratio is too small to report.
// An exact whole multiple scores +Inf.
func Score(ratio float64) (float64, bool) {
	switch {
	case ratio >= 1:
		return 1 / math.Abs(ratio-math.Round(ratio)), true
	case ratio > MinRatio:
		return ratio, true
	default:
		return 0, false
	}
}

// DisplayMagnitude is the whole number shown to readers: the rounded multiple,
// or a percentage floored at 1.
func DisplayMagnitude(ratio float64) (int, Kind) {
	if ratio >= 1 {
		return int(math.Round(ratio)), KindMultiple
	}

	return max(1, int(math.Round(ratio*percentScale))), KindPercentage
}

func newComparison(b Benchmark, magnitude, ratio float64) Comparison {
	display, kind := DisplayMagnitude(ratio)

	return Comparison{
		Benchmark:        b,
		Magnitude:        magnitude,
		Ratio:            ratio,
		DisplayMagnitude: display,
		Kind:             kind,
	}
}
