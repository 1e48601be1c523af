package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
)

func newManualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByAttr(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64

	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key(key)); found && v.AsString() == value {
			total += dp.Value
		}
	}

	return total
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	done := red.TrackInflight(ctx, "/api/summary")

	red.RecordRequest(ctx, "/api/summary", observability.StatusOK, 20*time.Millisecond)
	red.RecordRequest(ctx, "/api/compare", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(rm, "tallymark.requests.total"), "status", "ok"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(rm, "tallymark.errors.total"), "op", "/api/compare"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(rm, "tallymark.inflight.requests"), "op", "/api/summary"))

	hist := findMetric(rm, "tallymark.request.duration.seconds")
	require.NotNil(t, hist)

	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, data.DataPoints, 2)

	done()

	rm = collectMetrics(t, reader)
	assert.Zero(t, sumByAttr(t, findMetric(rm, "tallymark.inflight.requests"), "op", "/api/summary"))
}

func TestDataMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := newManualMeter(t)

	dm, err := observability.NewDataMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	dm.RecordLoad(ctx, "casualties", nil)
	dm.RecordLoad(ctx, "benchmarks", errors.New("boom"))
	dm.RecordRecords(ctx, "casualties", 42)
	dm.RecordCacheLookup(ctx, true)
	dm.RecordCacheLookup(ctx, false)
	dm.RecordCacheLookup(ctx, false)
	dm.RecordComparison(ctx, "daily", "sports", 1.5)

	rm := collectMetrics(t, reader)

	loads := findMetric(rm, "tallymark.dataset.loads.total")
	assert.Equal(t, int64(1), sumByAttr(t, loads, "status", "ok"))
	assert.Equal(t, int64(1), sumByAttr(t, loads, "status", "error"))

	cache := findMetric(rm, "tallymark.dataset.cache.lookups.total")
	assert.Equal(t, int64(1), sumByAttr(t, cache, "result", "hit"))
	assert.Equal(t, int64(2), sumByAttr(t, cache, "result", "miss"))

	assert.Equal(t, int64(1), sumByAttr(t, findMetric(rm, "tallymark.comparisons.total"), "category", "sports"))

	gauge := findMetric(rm, "tallymark.dataset.records")
	require.NotNil(t, gauge)

	points, ok := gauge.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, points.DataPoints, 1)
	assert.Equal(t, int64(42), points.DataPoints[0].Value)
}
