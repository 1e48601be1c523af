package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
)

func newSyncTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp.Tracer("test"), exporter
}

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	tracer, exporter := newSyncTracer(t)
	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/peaks/{metric}", func(rw http.ResponseWriter, hr *http.Request) {
		assert.True(t, trace.SpanContextFromContext(hr.Context()).IsValid())
		rw.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tracer, red, mux).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/peaks/killed", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/peaks/{metric}", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	assert.Equal(t, "GET /api/peaks/{metric}", spanAttrMap(spans[0])["http.route"])

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(rm, "tallymark.requests.total"), "op", "GET /api/peaks/{metric}"))
}

func TestHTTPMiddleware_UnmatchedPathsShareOneLabel(t *testing.T) {
	t.Parallel()

	tracer, _ := newSyncTracer(t)
	mp, reader := newManualMeter(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/summary", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	handler := observability.HTTPMiddleware(tracer, red, mux)

	for _, target := range []string{"/a", "/b/c", "/api/summary/x", "/api/summary"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, http.NoBody))
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/summary", http.NoBody))

	rm := collectMetrics(t, reader)
	requests := findMetric(rm, "tallymark.requests.total")
	assert.Equal(t, int64(4), sumByAttr(t, requests, "op", observability.UnmatchedOperation))
	assert.Equal(t, int64(1), sumByAttr(t, requests, "op", "GET /api/summary"))
	assert.Zero(t, sumByAttr(t, requests, "op", "/a"))
	assert.Zero(t, sumByAttr(t, requests, "op", "/b/c"))

	inflight := findMetric(rm, "tallymark.inflight.requests")
	assert.Zero(t, sumByAttr(t, inflight, "op", observability.UnmatchedOperation))
	assert.Zero(t, sumByAttr(t, inflight, "op", "/a"))

	data, ok := inflight.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	for _, dp := range data.DataPoints {
		op, _ := dp.Attributes.Value("op")
		assert.Contains(t, []string{observability.UnmatchedOperation, "GET /api/summary"}, op.AsString())
	}
}

func TestHTTPMiddleware_ServerErrorMarksSpan(t *testing.T) {
	t.Parallel()

	tracer, exporter := newSyncTracer(t)

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tracer, nil, handler).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/summary", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, int64(http.StatusInternalServerError), spanAttrMap(spans[0])["http.response.status_code"])
}

func TestHTTPMiddleware_ImplicitOK(t *testing.T) {
	t.Parallel()

	tracer, exporter := newSyncTracer(t)

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tracer, nil, handler).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, int64(http.StatusOK), spanAttrMap(spans[0])["http.response.status_code"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}
