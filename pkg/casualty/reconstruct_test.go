package casualty_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

var day0 = time.Date(2023, time.October, 7, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func intPtr(v int) *int {
	return &v
}

func cumOnly(n, cum int) casualty.DailyRecord {
	return casualty.DailyRecord{
		Date:   dayN(n),
		Killed: casualty.CumulativeOnly{Cumulative: intPtr(cum)},
	}
}

func killedOf(deltas []casualty.DeltaRecord) []int {
	out := make([]int, len(deltas))
	for i, d := range deltas {
		out[i] = d.Killed
	}

	return out
}

func TestReconstruct_CumulativeOnlyScenario(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{cumOnly(0, 10), cumOnly(1, 10), cumOnly(2, 25)}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	assert.Equal(t, []int{10, 0, 15}, killedOf(deltas))

	for _, d := range deltas {
		assert.True(t, d.WasReconstructed)
	}
}

func TestReconstruct_ExplicitDailyAdvancesBaseline(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{
		{Date: dayN(0), Killed: casualty.ExplicitDaily{Daily: 7, Cumulative: intPtr(100)}},
		cumOnly(1, 130),
		{Date: dayN(2), Killed: casualty.ExplicitDaily{Daily: 4}},
		cumOnly(3, 140),
	}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	assert.Equal(t, []int{7, 30, 4, 10}, killedOf(deltas))
	assert.False(t, deltas[0].WasReconstructed)
	assert.True(t, deltas[1].WasReconstructed)
	assert.False(t, deltas[2].WasReconstructed)
}

func TestReconstruct_DownwardRevisionClampsToZero(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{cumOnly(0, 50), cumOnly(1, 40), cumOnly(2, 45)}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 0, 5}, killedOf(deltas))
}

func TestReconstruct_MissingCumulativeKeepsBaseline(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{
		cumOnly(0, 20),
		{Date: dayN(1), Killed: casualty.CumulativeOnly{}},
		cumOnly(2, 26),
	}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	assert.Equal(t, []int{20, 0, 6}, killedOf(deltas))
	assert.True(t, deltas[1].WasReconstructed)
}

func TestReconstruct_CategoryDeltas(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{
		{
			Date:       dayN(0),
			Killed:     casualty.CumulativeOnly{Cumulative: intPtr(10)},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: 4, casualty.CategoryPress: 1},
		},
		{
			Date:       dayN(1),
			Killed:     casualty.CumulativeOnly{Cumulative: intPtr(20)},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: 9},
		},
		{
			Date:       dayN(2),
			Killed:     casualty.CumulativeOnly{Cumulative: intPtr(30)},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: 8, casualty.CategoryPress: 3},
		},
	}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	assert.Equal(t, 4, deltas[0].CategoryDeltas[casualty.CategoryChildren])
	assert.Equal(t, 5, deltas[1].CategoryDeltas[casualty.CategoryChildren])
	assert.Equal(t, 0, deltas[2].CategoryDeltas[casualty.CategoryChildren])
	assert.Equal(t, 2, deltas[2].CategoryDeltas[casualty.CategoryPress])
	assert.Equal(t, 5, deltas[1].Value(casualty.CategoryChildren))
	assert.Equal(t, 10, deltas[1].Value(casualty.MetricKilled))

	_, present := deltas[1].CategoryDeltas[casualty.CategoryPress]
	assert.False(t, present)
}

func TestReconstruct_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []casualty.DailyRecord
		wantErr error
	}{
		{
			name:    "zero_date",
			records: []casualty.DailyRecord{{Killed: casualty.CumulativeOnly{}}},
			wantErr: casualty.ErrMissingDate,
		},
		{
			name:    "out_of_order",
			records: []casualty.DailyRecord{cumOnly(3, 1), cumOnly(2, 2)},
			wantErr: casualty.ErrDateOrder,
		},
		{
			name:    "nil_variant",
			records: []casualty.DailyRecord{{Date: dayN(0)}},
			wantErr: casualty.ErrUnknownVariant,
		},
		{
			name:    "negative_explicit",
			records: []casualty.DailyRecord{{Date: dayN(0), Killed: casualty.ExplicitDaily{Daily: -1}}},
			wantErr: casualty.ErrNegativeCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := casualty.Reconstruct(tt.records)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, casualty.ErrDataFormat)

			var dfe *casualty.DataFormatError
			require.ErrorAs(t, err, &dfe)
		})
	}
}

func TestReconstruct_Empty(t *testing.T) {
	t.Parallel()

	deltas, err := casualty.Reconstruct(nil)
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestReconstruct_Idempotence(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{cumOnly(0, 3), cumOnly(1, 1), cumOnly(2, 9), cumOnly(3, 30)}

	first, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	second, err := casualty.Reconstruct(casualty.AsExplicit(first))
	require.NoError(t, err)

	assert.Equal(t, killedOf(first), killedOf(second))

	for i := range first {
		assert.Equal(t, first[i].Date, second[i].Date)
	}
}

func TestReconstruct_NonNegativeAndConservation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cums      []int
		monotonic bool
	}{
		{name: "monotonic", cums: []int{5, 9, 9, 17, 40, 41}, monotonic: true},
		{name: "revisions", cums: []int{5, 3, 9, 2, 40, 38}, monotonic: false},
		{name: "flat", cums: []int{0, 0, 0}, monotonic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records := make([]casualty.DailyRecord, len(tt.cums))
			for i, c := range tt.cums {
				records[i] = cumOnly(i, c)
			}

			deltas, err := casualty.Reconstruct(records)
			require.NoError(t, err)

			for _, d := range deltas {
				assert.GreaterOrEqual(t, d.Killed, 0)
			}

			if !tt.monotonic {
				return
			}

			// Conservation over [1, end]: the first record's delta is measured from zero.
			var sum int
			for _, d := range deltas[1:] {
				sum += d.Killed
			}

			assert.Equal(t, tt.cums[len(tt.cums)-1]-tt.cums[0], sum)
		})
	}
}
