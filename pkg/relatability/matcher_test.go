package relatability_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
)

func bench(id string, value float64) relatability.Benchmark {
	return relatability.Benchmark{ID: id, Value: value}
}

func TestFindBestComparison_MultipleBeatsPercentage(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{bench("arena", 145000), bench("stadium", 50000)}

	got := relatability.DefaultMatcher().FindBestComparison(63633, catalogue, relatability.ScaleCumulative)

	require.NotNil(t, got)
	assert.Equal(t, "stadium", got.Benchmark.ID)
	assert.InDelta(t, 1.27266, got.Ratio, 0.0001)
	assert.Equal(t, 1, got.DisplayMagnitude)
	assert.Equal(t, relatability.KindMultiple, got.Kind)
}

func TestFindBestComparison_PercentageOnly(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{bench("city", 1000000), bench("town", 50000)}

	got := relatability.DefaultMatcher().FindBestComparison(22000, catalogue, relatability.ScaleCumulative)

	require.NotNil(t, got)
	assert.Equal(t, "town", got.Benchmark.ID)
	assert.Equal(t, relatability.KindPercentage, got.Kind)
	assert.Equal(t, 44, got.DisplayMagnitude)
}

func TestFindBestComparison_TieKeepsCatalogueOrder(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{bench("first", 100), bench("second", 100), bench("third", 150)}

	got := relatability.DefaultMatcher().FindBestComparison(300, catalogue, relatability.ScaleDaily)

	require.NotNil(t, got)
	assert.Equal(t, "first", got.Benchmark.ID)
	assert.Equal(t, 3, got.DisplayMagnitude)
}

func TestFindBestComparison_NoMatch(t *testing.T) {
	t.Parallel()

	m := relatability.DefaultMatcher()

	assert.Nil(t, m.FindBestComparison(10, nil, relatability.ScaleDaily))
	assert.Nil(t, m.FindBestComparison(10, []relatability.Benchmark{bench("huge", 5000)}, relatability.ScaleDaily))
	assert.Nil(t, m.FindBestComparison(0, []relatability.Benchmark{bench("one", 1)}, relatability.ScaleDaily))
}

func TestFindBestComparison_DailyCeiling(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{bench("stadium", 50000), bench("school", 120)}

	daily := relatability.DefaultMatcher().FindBestComparison(300, catalogue, relatability.ScaleDaily)
	require.NotNil(t, daily)
	assert.Equal(t, "school", daily.Benchmark.ID)

	unbounded := relatability.Matcher{}
	assert.Len(t, unbounded.Candidates(catalogue, relatability.ScaleDaily), 2)
}

func TestFindBestComparison_NeverBelowThreshold(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{
		bench("a", 37), bench("b", 420), bench("c", 1900), bench("d", 8200),
		bench("e", 31000), bench("f", 145000), bench("g", 2200000),
	}
	m := relatability.Matcher{}

	for _, magnitude := range []float64{1, 2, 9, 40, 311, 1024, 5000, 63633, 250000, 4e6} {
		got := m.FindBestComparison(magnitude, catalogue, relatability.ScaleCumulative)
		if got == nil {
			continue
		}

		assert.Greater(t, got.Ratio, relatability.MinRatio, "magnitude %v", magnitude)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ratio    float64
		expected float64
		ok       bool
	}{
		{name: "near_whole", ratio: 1.27, expected: 1 / 0.27, ok: true},
		{name: "round_up", ratio: 2.9, expected: 10, ok: true},
		{name: "percentage", ratio: 0.439, expected: 0.439, ok: true},
		{name: "threshold_excluded", ratio: 0.05, ok: false},
		{name: "tiny", ratio: 0.001, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			score, ok := relatability.Score(tt.ratio)

			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, score, 0.0001)
		})
	}

	exact, ok := relatability.Score(3)
	assert.True(t, ok)
	assert.True(t, math.IsInf(exact, 1))
}

func TestDisplayMagnitude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ratio   float64
		display int
		kind    relatability.Kind
	}{
		{name: "multiple_rounds_down", ratio: 1.27, display: 1, kind: relatability.KindMultiple},
		{name: "multiple_rounds_up", ratio: 2.6, display: 3, kind: relatability.KindMultiple},
		{name: "percentage", ratio: 0.439, display: 44, kind: relatability.KindPercentage},
		{name: "percentage_floor", ratio: 0.001, display: 1, kind: relatability.KindPercentage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			display, kind := relatability.DisplayMagnitude(tt.ratio)

			assert.Equal(t, tt.display, display)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRandomComparison(t *testing.T) {
	t.Parallel()

	catalogue := []relatability.Benchmark{bench("a", 10), bench("b", 20), bench("c", 40), bench("big", 1e9)}
	m := relatability.Matcher{DailyCeiling: 100}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		got := m.RandomComparison(80, catalogue, relatability.ScaleDaily, rng)

		require.NotNil(t, got)
		assert.NotEqual(t, "big", got.Benchmark.ID)
		assert.InDelta(t, 80/got.Benchmark.Value, got.Ratio, 1e-9)
		assert.Equal(t, relatability.KindMultiple, got.Kind)
	}

	assert.Nil(t, m.RandomComparison(80, nil, relatability.ScaleDaily, rng))
}

func TestParseScale(t *testing.T) {
	t.Parallel()

	scale, err := relatability.ParseScale("daily")
	require.NoError(t, err)
	assert.Equal(t, relatability.ScaleDaily, scale)

	_, err = relatability.ParseScale("weekly")
	require.ErrorIs(t, err, relatability.ErrUnknownScale)
}
