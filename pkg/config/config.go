// Package config loads tallymark settings from .tallymark.yaml, TALLYMARK_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	maxPort     = 65535
	cacheSubdir = "tallymark"
)

// Sentinel validation errors.
var (
	ErrNoCasualties       = errors.New("data.casualties must be set")
	ErrInvalidWarStart    = errors.New("analysis.war_start must be an ISO date")
	ErrInvalidMetric      = errors.New("analysis.metric is not a known category")
	ErrInvalidPeakCount   = errors.New("analysis.peak_count must be positive")
	ErrInvalidWindow      = errors.New("analysis window must not be negative")
	ErrInvalidCeiling     = errors.New("benchmark ceiling must not be negative")
	ErrInvalidLanguage    = errors.New("analysis.language must be en or ar")
	ErrInvalidTheme       = errors.New("render.theme must be light or dark")
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidLogFormat   = errors.New("logging.format must be text or json")
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be within [0, 1]")
)

// Config is the full tallymark configuration.
type Config struct {
	Data          DataConfig          `mapstructure:"data"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Server        ServerConfig        `mapstructure:"server"`
	Render        RenderConfig        `mapstructure:"render"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// DataConfig locates the datasets and controls the fetch cache.
type DataConfig struct {
	Casualties     string        `mapstructure:"casualties"`
	Benchmarks     string        `mapstructure:"benchmarks"`
	Annotations    string        `mapstructure:"annotations"`
	CacheDir       string        `mapstructure:"cache_dir"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	CacheEnabled   bool          `mapstructure:"cache_enabled"`
	ValidateSchema bool          `mapstructure:"validate_schema"`
}

// ResolvedCacheDir returns CacheDir, or the per-user cache directory when empty.
func (d DataConfig) ResolvedCacheDir() string {
	if d.CacheDir != "" {
		return d.CacheDir
	}

	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}

	return filepath.Join(base, cacheSubdir)
}

// AnalysisConfig holds parameters for the derived views.
type AnalysisConfig struct {
	WarStart          string  `mapstructure:"war_start"`
	Metric            string  `mapstructure:"metric"`
	Language          string  `mapstructure:"language"`
	PeakCount         int     `mapstructure:"peak_count"`
	PeakWindow        int     `mapstructure:"peak_window"`
	TrendWindow       int     `mapstructure:"trend_window"`
	MovingAverage     int     `mapstructure:"moving_average"`
	DailyCeiling      float64 `mapstructure:"daily_ceiling"`
	CumulativeCeiling float64 `mapstructure:"cumulative_ceiling"`
}

// WarStartDate parses WarStart. Call after Validate.
func (a AnalysisConfig) WarStartDate() time.Time {
	t, err := casualty.ParseDate(a.WarStart)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Category returns Metric as a casualty metric.
func (a AnalysisConfig) Category() casualty.Category {
	return casualty.Category(a.Metric)
}

// ServerConfig configures tallymark serve.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RenderConfig configures the HTML report.
type RenderConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Title     string `mapstructure:"title"`
	Theme     string `mapstructure:"theme"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig configures OTLP export and the Prometheus endpoint.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Data.Casualties == "" {
		return ErrNoCasualties
	}

	_, dateErr := casualty.ParseDate(c.Analysis.WarStart)
	if dateErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidWarStart, c.Analysis.WarStart)
	}

	if !c.Analysis.Category().Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMetric, c.Analysis.Metric)
	}

	if c.Analysis.PeakCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPeakCount, c.Analysis.PeakCount)
	}

	for name, window := range map[string]int{
		"peak_window":    c.Analysis.PeakWindow,
		"trend_window":   c.Analysis.TrendWindow,
		"moving_average": c.Analysis.MovingAverage,
	} {
		if window < 0 {
			return fmt.Errorf("%w: analysis.%s=%d", ErrInvalidWindow, name, window)
		}
	}

	if c.Analysis.DailyCeiling < 0 || c.Analysis.CumulativeCeiling < 0 {
		return ErrInvalidCeiling
	}

	if !slices.Contains([]locale.Lang{locale.English, locale.Arabic}, locale.Lang(c.Analysis.Language)) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, c.Analysis.Language)
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Render.Theme != "light" && c.Render.Theme != "dark" {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, c.Render.Theme)
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}
