package casualty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []casualty.DailyRecord{
		{
			Date:       dayN(0),
			Killed:     casualty.CumulativeOnly{Cumulative: intPtr(10)},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: 3},
		},
		{
			Date:       dayN(1),
			Killed:     casualty.CumulativeOnly{Cumulative: intPtr(30)},
			Cumulative: map[casualty.Category]int{casualty.CategoryChildren: 8},
		},
		{Date: dayN(2), Killed: casualty.ExplicitDaily{Daily: 30}},
	}

	deltas, err := casualty.Reconstruct(records)
	require.NoError(t, err)

	summary := casualty.Summarize(records, deltas)

	assert.Equal(t, 60, summary.Killed)
	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, 2, summary.Reconstructed)
	assert.Equal(t, 8, summary.Categories[casualty.CategoryChildren])
	assert.Equal(t, 30, summary.PeakDaily)
	assert.InDelta(t, 20.0, summary.MeanDaily, 0.0001)
	assert.InDelta(t, 20.0, summary.MedianDaily, 0.0001)
	assert.Equal(t, dayN(0), summary.FirstDate)
	assert.Equal(t, dayN(2), summary.LastDate)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	summary := casualty.Summarize(nil, nil)

	assert.Zero(t, summary.Killed)
	assert.Zero(t, summary.Days)
	assert.Zero(t, summary.PeakDaily)
	assert.Empty(t, summary.Categories)
}
