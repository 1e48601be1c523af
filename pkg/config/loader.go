package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".tallymark"
	configType      = "yaml"
	envPrefix       = "TALLYMARK"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars and defaults.
// A non-empty configPath must exist. Otherwise .tallymark.yaml is searched
// in CWD and $HOME, and a missing file leaves the defaults in place.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("data.casualties", DefaultCasualties)
	viperCfg.SetDefault("data.benchmarks", DefaultBenchmarks)
	viperCfg.SetDefault("data.annotations", DefaultAnnotations)
	viperCfg.SetDefault("data.cache_dir", "")
	viperCfg.SetDefault("data.cache_enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("data.cache_ttl", DefaultCacheTTL)
	viperCfg.SetDefault("data.validate_schema", DefaultValidateSchema)
	viperCfg.SetDefault("data.fetch_timeout", DefaultFetchTimeout)

	viperCfg.SetDefault("analysis.war_start", DefaultWarStart)
	viperCfg.SetDefault("analysis.metric", DefaultMetric)
	viperCfg.SetDefault("analysis.language", DefaultLanguage)
	viperCfg.SetDefault("analysis.peak_count", DefaultPeakCount)
	viperCfg.SetDefault("analysis.peak_window", DefaultPeakWindow)
	viperCfg.SetDefault("analysis.trend_window", DefaultTrendWindow)
	viperCfg.SetDefault("analysis.moving_average", DefaultMovingAverage)
	viperCfg.SetDefault("analysis.daily_ceiling", DefaultDailyCeiling)
	viperCfg.SetDefault("analysis.cumulative_ceiling", DefaultCumulativeCeiling)

	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultIdleTimeout)

	viperCfg.SetDefault("render.output_dir", DefaultOutputDir)
	viperCfg.SetDefault("render.title", DefaultTitle)
	viperCfg.SetDefault("render.theme", DefaultTheme)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("observability.prometheus", DefaultPrometheus)
}
