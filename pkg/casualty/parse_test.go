package casualty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

func TestParseDailyRecords_Variants(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"report_date": "2023-10-07", "killed": 232, "killed_cum": 232, "killed_children_cum": 20},
		{"report_date": "2023-10-08", "killed_cum": 413, "press_killed_cum": 2},
		{"report_date": "2023-10-09"}
	]`)

	records, err := casualty.ParseDailyRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 3)

	explicit, ok := records[0].Killed.(casualty.ExplicitDaily)
	require.True(t, ok)
	assert.Equal(t, 232, explicit.Daily)
	assert.Equal(t, 20, records[0].Cumulative[casualty.CategoryChildren])

	cumulative, ok := records[1].Killed.(casualty.CumulativeOnly)
	require.True(t, ok)

	value, known := cumulative.CumulativeValue()
	assert.True(t, known)
	assert.Equal(t, 413, value)
	assert.Equal(t, 2, records[1].Cumulative[casualty.CategoryPress])

	missing, ok := records[2].Killed.(casualty.CumulativeOnly)
	require.True(t, ok)

	_, known = missing.CumulativeValue()
	assert.False(t, known)
	assert.Equal(t, "2023-10-09", casualty.FormatDate(records[2].Date))
}

func TestParseDailyRecords_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantErr   error
		wantField string
	}{
		{name: "invalid_json", data: `{`, wantErr: casualty.ErrInvalidJSON},
		{name: "missing_date", data: `[{"killed_cum": 1}]`, wantErr: casualty.ErrMissingDate, wantField: "report_date"},
		{name: "bad_date", data: `[{"report_date": "07/10/2023"}]`, wantErr: casualty.ErrInvalidDate, wantField: "report_date"},
		{name: "negative_daily", data: `[{"report_date": "2023-10-07", "killed": -4}]`, wantErr: casualty.ErrNegativeCount, wantField: "killed"},
		{
			name:      "negative_category",
			data:      `[{"report_date": "2023-10-07", "killed_women_cum": -1}]`,
			wantErr:   casualty.ErrNegativeCount,
			wantField: "killed_women_cum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := casualty.ParseDailyRecords([]byte(tt.data))
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, casualty.ErrDataFormat)

			if tt.wantField == "" {
				return
			}

			var dfe *casualty.DataFormatError
			require.ErrorAs(t, err, &dfe)
			assert.Equal(t, tt.wantField, dfe.Field)
		})
	}
}

func TestCategoryValid(t *testing.T) {
	t.Parallel()

	assert.True(t, casualty.CategoryChildren.Valid())
	assert.True(t, casualty.MetricKilled.Valid())
	assert.False(t, casualty.Category("cats").Valid())
	assert.Equal(t, "med_killed_cum", casualty.CategoryField(casualty.CategoryMedical))
}
