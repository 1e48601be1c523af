// Package commands implements the tallymark CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/config"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/version"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

// Globals are the persistent root flags shared by every subcommand.
type Globals struct {
	ConfigPath string
	Format     string
	Lang       string
	Debug      bool
}

// app is the bootstrapped runtime of one command invocation.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	metrics   *observability.DataMetrics
	loader    *dataset.Loader
	lang      locale.Lang
}

// newApp loads configuration, starts telemetry and prepares the dataset
// loader. Callers must defer close.
func newApp(cmd *cobra.Command, g *Globals, mode observability.AppMode) (*app, error) {
	cfg, err := config.LoadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg, err := observabilityConfig(cfg, g, mode)
	if err != nil {
		return nil, err
	}

	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewDataMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())

		return nil, fmt.Errorf("register data metrics: %w", err)
	}

	loader := &dataset.Loader{
		Sources: dataset.Sources{
			Casualties:  cfg.Data.Casualties,
			Benchmarks:  cfg.Data.Benchmarks,
			Annotations: cfg.Data.Annotations,
		},
		Client:         &http.Client{Timeout: cfg.Data.FetchTimeout},
		ValidateSchema: cfg.Data.ValidateSchema,
		Logger:         providers.Logger,
		Metrics:        metrics,
	}

	if cfg.Data.CacheEnabled {
		loader.Cache = dataset.NewCache(cfg.Data.ResolvedCacheDir(), cfg.Data.CacheTTL)
	}

	lang := locale.Lang(cfg.Analysis.Language)
	if g.Lang != "" {
		lang = locale.Parse(g.Lang)
	}

	return &app{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		metrics:   metrics,
		loader:    loader,
		lang:      lang,
	}, nil
}

func observabilityConfig(cfg *config.Config, g *Globals, mode observability.AppMode) (observability.Config, error) {
	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, fmt.Errorf("logging.level: %w", err)
	}

	if g.Debug {
		level = slog.LevelDebug
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.Prometheus = mode == observability.ModeServe && cfg.Observability.Prometheus
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON || mode == observability.ModeMCP

	return obsCfg, nil
}

func (a *app) close() {
	err := a.providers.Shutdown(context.Background())
	if err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}
}

// viewOptions maps the analysis section onto the view layer.
func (a *app) viewOptions() views.Options {
	an := a.cfg.Analysis

	return views.Options{
		WarStart:      an.WarStartDate(),
		Metric:        an.Category(),
		PeakCount:     an.PeakCount,
		PeakWindow:    an.PeakWindow,
		TrendWindow:   an.TrendWindow,
		MovingAverage: an.MovingAverage,
		Matcher: relatability.Matcher{
			DailyCeiling:      an.DailyCeiling,
			CumulativeCeiling: an.CumulativeCeiling,
		},
		Lang: a.lang,
	}
}

// service loads the datasets and binds the view options.
func (a *app) service(ctx context.Context) (*views.Service, error) {
	bundle, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "datasets loaded",
		"records", len(bundle.Records),
		"benchmarks", len(bundle.Benchmarks),
		"annotations", bundle.Annotations.Len(),
	)

	return views.NewService(bundle, a.viewOptions(), a.metrics)
}

// withService bootstraps an app and a loaded service for the duration of fn.
func withService(cmd *cobra.Command, g *Globals, fn func(ctx context.Context, a *app, svc *views.Service) error) error {
	a, err := newApp(cmd, g, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	return fn(ctx, a, svc)
}
