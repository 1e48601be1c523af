package config

import (
	"time"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
)

// Data defaults.
const (
	DefaultCasualties     = "data/casualties_daily.json"
	DefaultBenchmarks     = "data/benchmarks.json"
	DefaultAnnotations    = ""
	DefaultCacheEnabled   = true
	DefaultCacheTTL       = 6 * time.Hour
	DefaultValidateSchema = true
	DefaultFetchTimeout   = 30 * time.Second
)

// Analysis defaults.
const (
	DefaultWarStart          = "2023-10-07"
	DefaultMetric            = string(casualty.MetricKilled)
	DefaultPeakCount         = 10
	DefaultPeakWindow        = 1
	DefaultTrendWindow       = 28
	DefaultMovingAverage     = 7
	DefaultDailyCeiling      = 10000
	DefaultCumulativeCeiling = 0
	DefaultLanguage          = "en"
)

// Server defaults.
const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// Render defaults.
const (
	DefaultOutputDir = "report"
	DefaultTitle     = "Gaza casualties"
	DefaultTheme     = "light"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
	DefaultPrometheus   = true
)
