package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "tallymark.requests.total"
	metricRequestDuration  = "tallymark.request.duration.seconds"
	metricErrorsTotal      = "tallymark.errors.total"
	metricInflightRequests = "tallymark.inflight.requests"

	metricDatasetLoads    = "tallymark.dataset.loads.total"
	metricDatasetRecords  = "tallymark.dataset.records"
	metricCacheLookups    = "tallymark.dataset.cache.lookups.total"
	metricComparisons     = "tallymark.comparisons.total"
	metricComparisonRatio = "tallymark.comparison.ratio"

	attrOp       = "op"
	attrStatus   = "status"
	attrSource   = "source"
	attrResult   = "result"
	attrScale    = "scale"
	attrCategory = "category"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries spans in-memory API lookups up to remote dataset fetches.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var ratioBucketBoundaries = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 50, 100, 1000}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// DataMetrics counts dataset loads, cache behaviour and comparison outcomes.
type DataMetrics struct {
	loads       metric.Int64Counter
	records     metric.Int64Gauge
	cache       metric.Int64Counter
	comparisons metric.Int64Counter
	ratio       metric.Float64Histogram
}

// NewDataMetrics creates the domain instruments from the given meter.
func NewDataMetrics(mt metric.Meter) (*DataMetrics, error) {
	loads, err := mt.Int64Counter(metricDatasetLoads,
		metric.WithDescription("Dataset fetches by source and outcome"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDatasetLoads, err)
	}

	records, err := mt.Int64Gauge(metricDatasetRecords,
		metric.WithDescription("Records held by the most recent dataset load"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDatasetRecords, err)
	}

	cache, err := mt.Int64Counter(metricCacheLookups,
		metric.WithDescription("Dataset cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheLookups, err)
	}

	comparisons, err := mt.Int64Counter(metricComparisons,
		metric.WithDescription("Relatability comparisons by scale and benchmark category"),
		metric.WithUnit("{comparison}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComparisons, err)
	}

	ratio, err := mt.Float64Histogram(metricComparisonRatio,
		metric.WithDescription("Magnitude to benchmark ratio of selected comparisons"),
		metric.WithExplicitBucketBoundaries(ratioBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComparisonRatio, err)
	}

	return &DataMetrics{loads: loads, records: records, cache: cache, comparisons: comparisons, ratio: ratio}, nil
}

// RecordLoad counts one fetch of source with its outcome.
func (dm *DataMetrics) RecordLoad(ctx context.Context, source string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}

	dm.loads.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	))
}

// RecordRecords sets the record gauge for source.
func (dm *DataMetrics) RecordRecords(ctx context.Context, source string, n int) {
	dm.records.Record(ctx, int64(n), metric.WithAttributes(attribute.String(attrSource, source)))
}

// RecordCacheLookup counts a cache hit or miss.
func (dm *DataMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	dm.cache.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordComparison counts a selected comparison and its ratio.
func (dm *DataMetrics) RecordComparison(ctx context.Context, scale, category string, ratio float64) {
	attrs := metric.WithAttributes(
		attribute.String(attrScale, scale),
		attribute.String(attrCategory, category),
	)

	dm.comparisons.Add(ctx, 1, attrs)
	dm.ratio.Record(ctx, ratio, attrs)
}
