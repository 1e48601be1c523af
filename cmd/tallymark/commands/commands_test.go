package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/tallymark/internal/fixture"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/report"
)

type env struct {
	dir    string
	config string
	files  fixture.Files
}

func newEnv(t *testing.T) env {
	t.Helper()

	dir := t.TempDir()
	files := fixture.WriteFiles(t, dir)

	cfg := fmt.Sprintf(`data:
  casualties: %q
  benchmarks: %q
  annotations: %q
  cache_enabled: false
  cache_dir: %q
analysis:
  peak_window: 0
render:
  output_dir: %q
`, files.Casualties, files.Benchmarks, files.Annotations,
		filepath.Join(dir, "cache"), filepath.Join(dir, "report"))

	path := filepath.Join(dir, "tallymark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	return env{dir: dir, config: path, files: files}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.config}, args...))

	err := root.Execute()

	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "table",
			args: []string{"summary"},
			want: []string{"=== SUMMARY ===", "10,900", "2023-10-07 to 2023-10-20"},
		},
		{
			name: "json",
			args: []string{"summary", "--format", "json"},
			want: []string{`"formatted_killed": "10,900"`},
		},
		{
			name: "yaml",
			args: []string{"summary", "--format", "yaml"},
			want: []string{"formatted_killed:", "10,900"},
		},
		{
			name: "arabic",
			args: []string{"summary", "--lang", "ar", "--format", "json"},
			want: []string{`"lang": "ar"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := e.run(t, tt.args...)
			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := newEnv(t).run(t, "summary", "--format", "xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestViewCommands(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "calendar", args: []string{"calendar"}, want: "1,800 (2023-10-20)"},
		{name: "calendar children", args: []string{"calendar", "-m", "children"}, want: "CALENDAR: CHILDREN"},
		{name: "peaks", args: []string{"peaks", "-n", "2"}, want: fixture.PeakDate},
		{name: "periods", args: []string{"periods"}, want: "W2"},
		{name: "weekday", args: []string{"periods", "-g", "weekday"}, want: "WEEKDAY: KILLED"},
		{name: "trend", args: []string{"trend", "-w", "-1"}, want: "increasing"},
		{name: "timeline", args: []string{"trend", "--timeline", "--smooth", "3"}, want: "3-DAY AVERAGE"},
		{name: "compare", args: []string{"compare", "1,800"}, want: "2 times the number of children in a school"},
		{name: "compare no match", args: []string{"compare", "1"}, want: "No benchmark is comparable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := e.run(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestViewCommands_Errors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown metric", args: []string{"calendar", "-m", "elderly"}},
		{name: "unknown granularity", args: []string{"periods", "-g", "fortnight"}},
		{name: "unknown scale", args: []string{"compare", "10", "-s", "yearly"}},
		{name: "bad magnitude", args: []string{"compare", "many"}},
		{name: "non-positive magnitude", args: []string{"compare", "0"}},
		{name: "missing magnitude", args: []string{"compare"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := e.run(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestCompareCommand_RandomJSON(t *testing.T) {
	t.Parallel()

	out, err := newEnv(t).run(t, "compare", "1800", "--random", "--seed", "7", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Matched    bool `json:"matched"`
		Comparison struct {
			BenchmarkID string `json:"benchmark_id"`
		} `json:"comparison"`
	}

	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Matched)
	assert.Contains(t, []string{"school", "bus"}, resp.Comparison.BenchmarkID)
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	out, err := e.run(t, "render", "--theme", "dark", "--title", "Names, not numbers")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(e.dir, "report", report.IndexFile), path)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Names, not numbers")
	assert.Contains(t, string(html), "#0c0a09")

	_, err = e.run(t, "render", "--theme", "sepia", "-o", filepath.Join(e.dir, "other"))
	require.ErrorIs(t, err, report.ErrUnknownTheme)
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	out, err := e.run(t, "validate", e.files.Casualties)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid casualties dataset")

	out, err = e.run(t, "validate", "-k", "benchmarks", e.files.Casualties)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out, "failed benchmarks validation")

	_, err = e.run(t, "validate", "-k", "weather", e.files.Casualties)
	require.Error(t, err)
}

func TestBenchmarksCommands(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	out, err := e.run(t, "benchmarks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "stadium")
	assert.Contains(t, out, "daily, cumulative")

	out, err = e.run(t, "benchmarks", "list", "-s", "daily", "--format", "yaml")
	require.NoError(t, err)

	var daily []relatability.Benchmark
	require.NoError(t, yaml.Unmarshal([]byte(out), &daily))

	ids := make([]string, 0, len(daily))
	for _, b := range daily {
		ids = append(ids, b.ID)
	}

	assert.Equal(t, []string{"school", "bus"}, ids)

	extra := filepath.Join(e.dir, "extra.json")
	require.NoError(t, os.WriteFile(extra, []byte(
		`[{"id":"bus","label":"a bus","value":60,"unit":"passengers"},`+
			`{"id":"ferry","label":"a ferry","value":300,"unit":"passengers"}]`), 0o600))

	merged := filepath.Join(e.dir, "merged.json")

	out, err = e.run(t, "benchmarks", "merge", e.files.Benchmarks, extra, "-o", merged, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "merged: 4 unique, 1 duplicates skipped")
	assert.Contains(t, out, "conflicting duplicate bus")

	data, err := os.ReadFile(merged)
	require.NoError(t, err)

	list, err := relatability.ParseBenchmarks(data)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	lossy := filepath.Join(e.dir, "lossy.json")
	require.NoError(t, os.WriteFile(lossy, []byte(
		`[{"id":"field","label":"a field & pitch","value":0,"source":"wiki"},`+
			`{"id":"ferry","label":"another ferry","value":-5}]`), 0o600))

	verbatim := filepath.Join(e.dir, "verbatim.json")

	out, err = e.run(t, "benchmarks", "merge", lossy, extra, "-o", verbatim)
	require.NoError(t, err)
	assert.Contains(t, out, "merged: 3 unique, 1 duplicates skipped")

	data, err = os.ReadFile(verbatim)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id": "field", "label": "a field & pitch", "value": 0, "source": "wiki"},
		{"id": "ferry", "label": "another ferry", "value": -5},
		{"id": "bus", "label": "a bus", "value": 60, "unit": "passengers"}
	]`, string(data))
	assert.Contains(t, string(data), `"label": "a field & pitch"`)

	_, err = e.run(t, "benchmarks", "merge", lossy, "--validate")
	require.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestCacheCommands(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	cacheDir := filepath.Join(e.dir, "cache")

	out, err := e.run(t, "cache", "stats")
	require.NoError(t, err)
	assert.Equal(t, "cache "+cacheDir+": 0 entries, 0 B\n", out)

	require.NoError(t, os.MkdirAll(cacheDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "x.json.lz4"), []byte("payload"), 0o600))

	out, err = e.run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cache entries")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := newEnv(t).run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tallymark "))
}

func TestMissingConfigFile(t *testing.T) {
	t.Parallel()

	e := env{config: filepath.Join(t.TempDir(), "absent.yaml")}

	_, err := e.run(t, "summary")
	require.Error(t, err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{
		"summary", "calendar", "peaks", "periods", "trend", "compare",
		"render", "validate", "benchmarks", "cache", "serve", "mcp", "version",
	} {
		assert.Contains(t, names, want)
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("port"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}
