package relatability_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
)

func TestParseBenchmarks(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"id": "yankee", "label": "Yankee Stadium", "value": 46537, "unit": "seats", "category": "sports"},
		{"id": "school", "label": {"en": "a school", "ar": "مدرسة"}, "value": 900, "unit": "children",
		 "context": {"en": "average UNRWA school"}}
	]`)

	got, err := relatability.ParseBenchmarks(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Yankee Stadium", got[0].Label.In(locale.Arabic))
	assert.Equal(t, "مدرسة", got[1].Label.In(locale.Arabic))
	assert.Equal(t, "average UNRWA school", got[1].Context.In(locale.English))
	assert.InDelta(t, 46537.0, got[0].Value, 0)
}

func TestParseBenchmarks_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "not_json", data: `{`, want: relatability.ErrInvalidCatalogue},
		{name: "missing_id", data: `[{"label": "x", "value": 3}]`, want: relatability.ErrMissingID},
		{name: "zero_value", data: `[{"id": "x", "label": "x", "value": 0}]`, want: relatability.ErrNonPositive},
		{name: "bad_label", data: `[{"id": "x", "label": 5, "value": 1}]`, want: relatability.ErrInvalidCatalogue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := relatability.ParseBenchmarks([]byte(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func entries(t *testing.T, data string) []relatability.Entry {
	t.Helper()

	list, err := relatability.ParseEntries([]byte(data))
	require.NoError(t, err)

	return list
}

func TestParseEntries(t *testing.T) {
	t.Parallel()

	got := entries(t, `[
		{"id": "a", "label": "Stadium", "value": 0, "source": "wiki", "category": "sports"},
		{"id": "b", "label": {"en": "B"}, "value": -3, "category": 7}
	]`)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "sports", got[0].Category)
	assert.Empty(t, got[1].Category)
	assert.JSONEq(t, `{"id": "a", "label": "Stadium", "value": 0, "source": "wiki", "category": "sports"}`, string(got[0].Raw))
}

func TestParseEntries_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "not_json", data: `{`, want: relatability.ErrInvalidCatalogue},
		{name: "not_array", data: `{"id": "a"}`, want: relatability.ErrInvalidCatalogue},
		{name: "missing_id", data: `[{"label": "x"}]`, want: relatability.ErrMissingID},
		{name: "non_string_id", data: `[{"id": 4}]`, want: relatability.ErrInvalidCatalogue},
		{name: "scalar_entry", data: `["a"]`, want: relatability.ErrInvalidCatalogue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := relatability.ParseEntries([]byte(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	current := entries(t, `[
		{"id": "a", "label": "A", "value": 10, "category": "sports"},
		{"id": "b", "label": "B", "value": 20, "category": "education"}
	]`)
	incoming := entries(t, `[
		{"id": "b", "label": "B", "value": 25, "category": "education"},
		{"id": "c", "label": "C", "value": 30}
	]`)
	again := entries(t, `[{"category": "sports", "value": 10, "label": "A", "id": "a"}]`)

	result := relatability.Merge(current, incoming, again)

	require.Len(t, result.Benchmarks, 3)
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{result.Benchmarks[0].ID, result.Benchmarks[1].ID, result.Benchmarks[2].ID})
	assert.JSONEq(t, `{"id": "b", "label": "B", "value": 20, "category": "education"}`, string(result.Benchmarks[1].Raw))
	assert.Equal(t, []int{2, 2, 1}, result.Loaded)

	require.Len(t, result.Duplicates, 2)

	conflict := result.Duplicates[0]
	assert.Equal(t, "b", conflict.ID)
	assert.Equal(t, 1, conflict.Source)
	assert.True(t, conflict.Conflicting())
	assert.Contains(t, conflict.Diff(), `-   "value": 20,`)
	assert.Contains(t, conflict.Diff(), `+   "value": 25,`)

	identical := result.Duplicates[1]
	assert.Equal(t, 2, identical.Source)
	assert.False(t, identical.Conflicting())
	assert.Empty(t, identical.Diff())
}

func TestWriteEntries_KeepsEntriesVerbatim(t *testing.T) {
	t.Parallel()

	first := entries(t, `[{"id": "a", "label": "Stadium", "value": 0, "source": "wiki <en>"}]`)
	second := entries(t, `[{"id": "b", "label": "ملعب & ساحة", "context": "plain", "value": -1, "extra": {"n": 1.50}}]`)

	var buf bytes.Buffer

	require.NoError(t, relatability.WriteEntries(&buf, relatability.Merge(first, second).Benchmarks))

	out := buf.String()
	assert.Contains(t, out, `"source": "wiki <en>"`)
	assert.Contains(t, out, `"label": "Stadium"`)
	assert.Contains(t, out, `"label": "ملعب & ساحة"`)
	assert.Contains(t, out, `"context": "plain"`)
	assert.Contains(t, out, `"value": -1`)
	assert.Contains(t, out, `"n": 1.50`)
	assert.JSONEq(t, `[
		{"id": "a", "label": "Stadium", "value": 0, "source": "wiki <en>"},
		{"id": "b", "label": "ملعب & ساحة", "context": "plain", "value": -1, "extra": {"n": 1.50}}
	]`, out)

	reparsed := entries(t, out)
	require.Len(t, reparsed, 2)
	assert.Equal(t, "b", reparsed[1].ID)
}

func TestWriteEntries_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, relatability.WriteEntries(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestCategoryDistribution(t *testing.T) {
	t.Parallel()

	got := relatability.CategoryDistribution(entries(t, `[
		{"id": "1", "category": "sports"},
		{"id": "2", "category": "education"},
		{"id": "3", "category": "sports"},
		{"id": "4"}
	]`))

	assert.Equal(t, []relatability.CategoryCount{
		{Category: "education", Count: 1},
		{Category: "sports", Count: 2},
		{Category: "unknown", Count: 1},
	}, got)
	assert.Empty(t, relatability.CategoryDistribution(nil))
}
