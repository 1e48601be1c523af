package peaks_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/peaks"
)

// monday is the first day of an ISO week.
var monday = time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)

func series(start time.Time, values ...int) []casualty.DeltaRecord {
	out := make([]casualty.DeltaRecord, len(values))
	for i, v := range values {
		out[i] = casualty.DeltaRecord{Date: start.AddDate(0, 0, i), Killed: v}
	}

	return out
}

func TestPeriodKey(t *testing.T) {
	t.Parallel()

	key := peaks.PeriodKey(monday)

	for i := range 7 {
		assert.Equal(t, key, peaks.PeriodKey(monday.AddDate(0, 0, i)), "day %d", i)
	}

	assert.Equal(t, key-1, peaks.PeriodKey(monday.AddDate(0, 0, -1)))
	assert.Equal(t, key+1, peaks.PeriodKey(monday.AddDate(0, 0, 7)))
	assert.Equal(t, 0, peaks.PeriodKey(time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, peaks.PeriodKey(time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)))
}

func TestTopPeaks_SameBucketScenario(t *testing.T) {
	t.Parallel()

	deltas := series(monday, 500, 480, 50, 490, 10)

	got := peaks.TopPeaks(deltas, 2, 1)

	require.Len(t, got, 1)
	assert.Equal(t, 500, got[0].Value)
	assert.Equal(t, monday, got[0].Date)
}

func TestTopPeaks_ChronologicalOutput(t *testing.T) {
	t.Parallel()

	// One value per week, decreasing then increasing.
	var deltas []casualty.DeltaRecord
	for i, v := range []int{90, 10, 70, 20, 100} {
		deltas = append(deltas, casualty.DeltaRecord{Date: monday.AddDate(0, 0, 7*i), Killed: v})
	}

	got := peaks.TopPeaks(deltas, 3, 1)

	require.Len(t, got, 3)
	assert.Equal(t, []int{90, 70, 100}, []int{got[0].Value, got[1].Value, got[2].Value})

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date))
	}
}

func TestTopPeaks_WindowSpansWeeks(t *testing.T) {
	t.Parallel()

	var deltas []casualty.DeltaRecord
	for i, v := range []int{100, 95, 90, 85, 80} {
		deltas = append(deltas, casualty.DeltaRecord{Date: monday.AddDate(0, 0, 7*i), Killed: v})
	}

	got := peaks.TopPeaks(deltas, 5, 2)

	require.Len(t, got, 3)
	assert.Equal(t, []int{100, 90, 80}, []int{got[0].Value, got[1].Value, got[2].Value})
}

func TestTopPeaks_ZeroWindowKeepsAdjacentDays(t *testing.T) {
	t.Parallel()

	got := peaks.TopPeaks(series(monday, 5, 9, 7), 2, 0)

	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].Value)
	assert.Equal(t, 7, got[1].Value)
}

func TestTopPeaks_TiesKeepDateOrder(t *testing.T) {
	t.Parallel()

	deltas := []casualty.DeltaRecord{
		{Date: monday.AddDate(0, 0, 14), Killed: 50},
		{Date: monday, Killed: 50},
	}

	got := peaks.TopPeaks(deltas, 1, 1)

	require.Len(t, got, 1)
	assert.Equal(t, monday, got[0].Date)
}

func TestTopPeaks_EmptyAndZero(t *testing.T) {
	t.Parallel()

	assert.Empty(t, peaks.TopPeaks(nil, 3, 1))
	assert.Empty(t, peaks.TopPeaks(series(monday, 0, 0), 3, 1))
	assert.Empty(t, peaks.TopPeaks(series(monday, 4), 0, 1))
}

func TestTopPeaks_CountBeyondCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
	}{
		{name: "slightly larger", count: 5},
		{name: "int32 range", count: 2_000_000_000},
		{name: "near max int", count: 1 << 62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := peaks.TopPeaks(series(monday, 500, 480), tt.count, 1)
			require.Len(t, got, 1)
			assert.Equal(t, 500, got[0].Value)
		})
	}
}

func TestTopPeaksBy_Category(t *testing.T) {
	t.Parallel()

	deltas := []casualty.DeltaRecord{
		{Date: monday, Killed: 100, CategoryDeltas: map[casualty.Category]int{casualty.CategoryChildren: 5}},
		{Date: monday.AddDate(0, 0, 7), Killed: 10, CategoryDeltas: map[casualty.Category]int{casualty.CategoryChildren: 8}},
	}

	got := peaks.TopPeaksBy(deltas, casualty.CategoryChildren, 1, 1)

	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Value)
}

func TestTopPeaks_Diversity(t *testing.T) {
	t.Parallel()

	values := []int{3, 80, 12, 45, 91, 7, 66, 23, 54, 88, 19, 72, 30, 61, 5, 99, 41, 77, 15, 83, 58}
	deltas := series(monday, values...)

	for window := 0; window <= 3; window++ {
		got := peaks.TopPeaks(deltas, 10, window)

		for i := range got {
			for j := i + 1; j < len(got); j++ {
				diff := got[i].PeriodKey - got[j].PeriodKey
				if diff < 0 {
					diff = -diff
				}

				assert.GreaterOrEqual(t, diff, window)
			}
		}
	}
}
