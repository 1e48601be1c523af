// Package dataset fetches, validates, caches and decodes the static JSON
// inputs, and bundles them with the reconstructed daily series.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
)

const (
	tracerName           = "tallymark/dataset"
	filePrefix           = "file://"
	defaultMaxRemoteSize = 64 << 20
)

// Sentinel errors for loading.
var (
	ErrNoCasualties = errors.New("casualty source is not configured")
	ErrFetch        = errors.New("fetch dataset")
	ErrTooLarge     = errors.New("payload exceeds size limit")
)

// Sources holds the location of each dataset: a file path, a file:// URL or
// an http(s) URL. Benchmarks and Annotations are optional.
type Sources struct {
	Casualties  string
	Benchmarks  string
	Annotations string
}

// Bundle is an immutable snapshot of every dataset plus derived deltas.
type Bundle struct {
	Records     []casualty.DailyRecord
	Deltas      []casualty.DeltaRecord
	Benchmarks  []relatability.Benchmark
	Annotations *Annotations
	LoadedAt    time.Time
}

// Summary derives the headline counters of the bundle.
func (b *Bundle) Summary() casualty.Summary {
	return casualty.Summarize(b.Records, b.Deltas)
}

// Loader fetches and decodes the datasets.
type Loader struct {
	Sources Sources
	// Cache holds remote payloads. Nil disables caching.
	Cache *Cache
	// Client fetches remote sources. Nil uses http.DefaultClient.
	Client *http.Client
	// ValidateSchema checks every payload against its embedded schema before decoding.
	ValidateSchema bool
	Logger         *slog.Logger
	// Metrics records fetch outcomes and cache lookups. Nil disables them.
	Metrics *observability.DataMetrics
	// MaxRemoteSize bounds a remote body in bytes. Zero means 64 MiB.
	MaxRemoteSize int64
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}

	return l.Logger
}

func (l *Loader) client() *http.Client {
	if l.Client == nil {
		return http.DefaultClient
	}

	return l.Client
}

func (l *Loader) maxRemoteSize() int64 {
	if l.MaxRemoteSize <= 0 {
		return defaultMaxRemoteSize
	}

	return l.MaxRemoteSize
}

// Load fetches the datasets concurrently, decodes them and reconstructs the
// daily deltas. Any failure aborts the whole load.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	if l.Sources.Casualties == "" {
		return nil, ErrNoCasualties
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "tallymark.dataset.load")
	defer span.End()

	var (
		records     []casualty.DailyRecord
		benchmarks  []relatability.Benchmark
		annotations *Annotations
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.fetchKind(gctx, KindCasualties, l.Sources.Casualties, func(data []byte) (err error) {
			records, err = casualty.ParseDailyRecords(data)
			if err != nil {
				return fmt.Errorf("decode casualties: %w", err)
			}

			return nil
		})
	})

	if l.Sources.Benchmarks != "" {
		g.Go(func() error {
			return l.fetchKind(gctx, KindBenchmarks, l.Sources.Benchmarks, func(data []byte) (err error) {
				benchmarks, err = relatability.ParseBenchmarks(data)
				if err != nil {
					return fmt.Errorf("decode benchmarks: %w", err)
				}

				return nil
			})
		})
	}

	if l.Sources.Annotations != "" {
		g.Go(func() error {
			return l.fetchKind(gctx, KindAnnotations, l.Sources.Annotations, func(data []byte) (err error) {
				annotations, err = ParseAnnotations(data)
				if err != nil {
					return fmt.Errorf("decode annotations: %w", err)
				}

				return nil
			})
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, waitErr.Error())

		return nil, waitErr
	}

	deltas, err := casualty.Reconstruct(records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("reconstruct deltas: %w", err)
	}

	span.SetAttributes(
		attribute.Int("dataset.records", len(records)),
		attribute.Int("dataset.benchmarks", len(benchmarks)),
		attribute.Int("dataset.annotations", annotations.Len()),
	)

	l.logger().InfoContext(ctx, "datasets loaded",
		"records", len(records),
		"benchmarks", len(benchmarks),
		"annotations", annotations.Len(),
	)

	if annotations == nil {
		annotations = NewAnnotations(nil)
	}

	if l.Metrics != nil {
		l.Metrics.RecordRecords(ctx, string(KindCasualties), len(records))
		l.Metrics.RecordRecords(ctx, string(KindBenchmarks), len(benchmarks))
		l.Metrics.RecordRecords(ctx, string(KindAnnotations), annotations.Len())
	}

	return &Bundle{
		Records:     records,
		Deltas:      deltas,
		Benchmarks:  benchmarks,
		Annotations: annotations,
		LoadedAt:    time.Now().UTC(),
	}, nil
}

// fetchKind fetches location, validates and decodes it. A fresh remote
// payload is written to the cache only once decode has accepted it.
func (l *Loader) fetchKind(ctx context.Context, kind Kind, location string, decode func([]byte) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tallymark.dataset.fetch",
		trace.WithAttributes(
			attribute.String("dataset.kind", string(kind)),
			attribute.String("dataset.location", location),
		))
	defer span.End()

	data, cached, err := l.fetch(ctx, location)
	if l.Metrics != nil {
		l.Metrics.RecordLoad(ctx, string(kind), err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return fmt.Errorf("%s: %w", kind, err)
	}

	span.SetAttributes(
		attribute.Int("dataset.bytes", len(data)),
		attribute.Bool("dataset.cached", cached),
	)

	if l.ValidateSchema {
		report, validateErr := Validate(kind, data)
		if validateErr != nil {
			return validateErr
		}

		reportErr := report.Err()
		if reportErr != nil {
			span.SetStatus(codes.Error, reportErr.Error())

			return reportErr
		}
	}

	err = decode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return err
	}

	if !cached && isRemote(location) {
		l.store(ctx, location, data)
	}

	return nil
}

// Fetch reads location. Remote payloads are served from the cache when one
// is set, but Fetch never writes to it: only Load caches a payload, and only
// after it has decoded.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, _, err := l.fetch(ctx, location)

	return data, err
}

func (l *Loader) fetch(ctx context.Context, location string) (data []byte, cached bool, err error) {
	if !isRemote(location) {
		data, err = os.ReadFile(strings.TrimPrefix(location, filePrefix))
		if err != nil {
			return nil, false, fmt.Errorf("%w: %w", ErrFetch, err)
		}

		return data, false, nil
	}

	if l.Cache != nil {
		hit, cacheErr := l.Cache.Get(location)
		if l.Metrics != nil {
			l.Metrics.RecordCacheLookup(ctx, cacheErr == nil)
		}

		if cacheErr == nil {
			l.logger().DebugContext(ctx, "dataset cache hit", "location", location)

			return hit, true, nil
		}

		if !errors.Is(cacheErr, ErrCacheMiss) {
			l.logger().WarnContext(ctx, "dataset cache read failed", "location", location, "error", cacheErr)
		}
	}

	data, err = l.fetchRemote(ctx, location)
	if err != nil {
		return nil, false, err
	}

	return data, false, nil
}

func (l *Loader) store(ctx context.Context, location string, data []byte) {
	if l.Cache == nil {
		return
	}

	err := l.Cache.Put(location, data)
	if err != nil {
		l.logger().WarnContext(ctx, "dataset cache write failed", "location", location, "error", err)
	}
}

func (l *Loader) fetchRemote(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := l.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrFetch, location, resp.StatusCode)
	}

	limit := l.maxRemoteSize()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s: %w (limit %d bytes)", ErrFetch, location, ErrTooLarge, limit)
	}

	return data, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
