package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".tallymark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultCasualties, cfg.Data.Casualties)
	assert.Equal(t, config.DefaultBenchmarks, cfg.Data.Benchmarks)
	assert.Equal(t, config.DefaultCacheTTL, cfg.Data.CacheTTL)
	assert.Equal(t, config.DefaultFetchTimeout, cfg.Data.FetchTimeout)
	assert.True(t, cfg.Data.CacheEnabled)
	assert.True(t, cfg.Data.ValidateSchema)

	assert.Equal(t, config.DefaultWarStart, cfg.Analysis.WarStart)
	assert.Equal(t, casualty.MetricKilled, cfg.Analysis.Category())
	assert.Equal(t, config.DefaultPeakCount, cfg.Analysis.PeakCount)
	assert.Equal(t, config.DefaultPeakWindow, cfg.Analysis.PeakWindow)
	assert.Equal(t, config.DefaultTrendWindow, cfg.Analysis.TrendWindow)
	assert.Equal(t, config.DefaultMovingAverage, cfg.Analysis.MovingAverage)
	assert.InDelta(t, config.DefaultDailyCeiling, cfg.Analysis.DailyCeiling, 0)
	assert.Zero(t, cfg.Analysis.CumulativeCeiling)
	assert.Equal(t, "en", cfg.Analysis.Language)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, config.DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, config.DefaultOutputDir, cfg.Render.OutputDir)
	assert.Equal(t, config.DefaultTheme, cfg.Render.Theme)
	assert.Equal(t, config.LogFormatText, cfg.Logging.Format)
	assert.True(t, cfg.Observability.Prometheus)
	assert.InDelta(t, 1.0, cfg.Observability.SampleRatio, 0)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `data:
  casualties: https://example.org/casualties.json
  cache_ttl: 30m
  validate_schema: false
analysis:
  war_start: "2023-10-08"
  metric: children
  peak_count: 5
  peak_window: 2
  language: ar
server:
  port: 9090
logging:
  format: json
  level: debug
observability:
  otlp_endpoint: localhost:4317
  sample_ratio: 0.25
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/casualties.json", cfg.Data.Casualties)
	assert.Equal(t, 30*time.Minute, cfg.Data.CacheTTL)
	assert.False(t, cfg.Data.ValidateSchema)
	assert.Equal(t, time.Date(2023, 10, 8, 0, 0, 0, 0, time.UTC), cfg.Analysis.WarStartDate())
	assert.Equal(t, casualty.CategoryChildren, cfg.Analysis.Category())
	assert.Equal(t, 5, cfg.Analysis.PeakCount)
	assert.Equal(t, 2, cfg.Analysis.PeakWindow)
	assert.Equal(t, "ar", cfg.Analysis.Language)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "localhost:4317", cfg.Observability.OTLPEndpoint)
	assert.InDelta(t, 0.25, cfg.Observability.SampleRatio, 1e-9)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TALLYMARK_ANALYSIS_PEAK_COUNT", "3")
	t.Setenv("TALLYMARK_SERVER_HOST", "0.0.0.0")

	cfg, err := config.LoadConfig(writeConfig(t, "analysis:\n  peak_count: 7\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Analysis.PeakCount)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "bad war start", content: "analysis:\n  war_start: 7 Oct\n", want: config.ErrInvalidWarStart},
		{name: "unknown metric", content: "analysis:\n  metric: elderly\n", want: config.ErrInvalidMetric},
		{name: "zero peaks", content: "analysis:\n  peak_count: 0\n", want: config.ErrInvalidPeakCount},
		{name: "negative window", content: "analysis:\n  trend_window: -1\n", want: config.ErrInvalidWindow},
		{name: "negative ceiling", content: "analysis:\n  daily_ceiling: -5\n", want: config.ErrInvalidCeiling},
		{name: "language", content: "analysis:\n  language: fr\n", want: config.ErrInvalidLanguage},
		{name: "port", content: "server:\n  port: 70000\n", want: config.ErrInvalidPort},
		{name: "theme", content: "render:\n  theme: sepia\n", want: config.ErrInvalidTheme},
		{name: "log format", content: "logging:\n  format: xml\n", want: config.ErrInvalidLogFormat},
		{name: "sample ratio", content: "observability:\n  sample_ratio: 2\n", want: config.ErrInvalidSampleRatio},
		{name: "no casualties", content: "data:\n  casualties: \"\"\n", want: config.ErrNoCasualties},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "data: [unclosed\n"))
	require.Error(t, err)
}

func TestDataConfig_ResolvedCacheDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/var/cache/x", config.DataConfig{CacheDir: "/var/cache/x"}.ResolvedCacheDir())
	assert.Equal(t, "tallymark", filepath.Base(config.DataConfig{}.ResolvedCacheDir()))
}
