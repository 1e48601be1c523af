// Package api serves the derived views as a read-only JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/locale"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

// Sentinel errors.
var (
	ErrMissingParam = errors.New("missing query parameter")
	ErrInvalidParam = errors.New("invalid query parameter")
)

// Deps holds the collaborators of the API handler.
type Deps struct {
	Service *views.Service
	Tracer  trace.Tracer
	RED     *observability.REDMetrics
	Logger  *slog.Logger
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
	Ready          []observability.ReadyCheck
}

type handler struct {
	svc    *views.Service
	logger *slog.Logger
}

// NewHandler returns the API mux wrapped in tracing and RED middleware. A nil
// Tracer uses the global provider.
func NewHandler(deps Deps) http.Handler {
	h := &handler{svc: deps.Service, logger: deps.Logger}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/summary", h.summary)
	mux.HandleFunc("GET /api/calendar", h.calendar)
	mux.HandleFunc("GET /api/peaks", h.peaks)
	mux.HandleFunc("GET /api/periods", h.periods)
	mux.HandleFunc("GET /api/trend", h.trend)
	mux.HandleFunc("GET /api/timeline", h.timeline)
	mux.HandleFunc("GET /api/compare", h.compare)
	mux.HandleFunc("GET /api/annotations", h.annotations)
	mux.HandleFunc("GET /api/benchmarks", h.benchmarks)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(deps.Ready...))

	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("tallymark/api")
	}

	return observability.HTTPMiddleware(tracer, deps.RED, mux)
}

type errorBody struct {
	Error string `json:"error"`
}

// CompareResponse wraps a comparison that may have no match.
type CompareResponse struct {
	Matched    bool                  `json:"matched" yaml:"matched"`
	Comparison *views.ComparisonView `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

func (h *handler) writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode JSON response", "error", err)

		code = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_, writeErr := rw.Write(append(body, '\n'))
	if writeErr != nil {
		h.logger.DebugContext(ctx, "failed to write JSON response", "error", writeErr)
	}
}

func (h *handler) fail(rw http.ResponseWriter, hr *http.Request, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, ErrMissingParam),
		errors.Is(err, ErrInvalidParam),
		errors.Is(err, views.ErrInvalidMetric),
		errors.Is(err, views.ErrNonPositive),
		errors.Is(err, views.ErrNotFinite),
		errors.Is(err, views.ErrPeakCount),
		errors.Is(err, period.ErrUnknownGranularity),
		errors.Is(err, relatability.ErrUnknownScale):
		code = http.StatusBadRequest
	default:
		h.logger.ErrorContext(hr.Context(), "request failed", "path", hr.URL.Path, "error", err)
	}

	h.writeJSON(hr.Context(), rw, code, errorBody{Error: err.Error()})
}

// lang reads ?lang= and falls back to Accept-Language negotiation.
func lang(hr *http.Request) locale.Lang {
	if v := hr.URL.Query().Get("lang"); v != "" {
		return locale.Parse(v)
	}

	if v := hr.Header.Get("Accept-Language"); v != "" {
		return locale.Parse(v)
	}

	return ""
}

func metric(hr *http.Request) casualty.Category {
	return casualty.Category(hr.URL.Query().Get("metric"))
}

// intParam parses an optional integer; absent yields def.
func intParam(hr *http.Request, name string, def int) (int, error) {
	raw := hr.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}

	return n, nil
}

func (h *handler) summary(rw http.ResponseWriter, hr *http.Request) {
	view, err := h.svc.Summary(hr.Context(), lang(hr))
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (h *handler) calendar(rw http.ResponseWriter, hr *http.Request) {
	view, err := h.svc.Calendar(metric(hr), lang(hr))
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (h *handler) peaks(rw http.ResponseWriter, hr *http.Request) {
	count, err := intParam(hr, "count", 0)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	if hr.URL.Query().Has("count") && (count < 1 || count > views.MaxPeakCount) {
		h.fail(rw, hr, fmt.Errorf("%w: count=%d (want 1..%d)", ErrInvalidParam, count, views.MaxPeakCount))

		return
	}

	window, err := intParam(hr, "window", -1)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	list, err := h.svc.Peaks(hr.Context(), views.PeaksRequest{
		Metric: metric(hr),
		Count:  count,
		Window: window,
		Lang:   lang(hr),
	})
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, list)
}

func (h *handler) periods(rw http.ResponseWriter, hr *http.Request) {
	g := period.Granularity(hr.URL.Query().Get("granularity"))
	if g == "" {
		g = period.WeekOfWar
	}

	view, err := h.svc.Periods(g, metric(hr))
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (h *handler) trend(rw http.ResponseWriter, hr *http.Request) {
	window, err := intParam(hr, "window", 0)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	view, err := h.svc.Trend(metric(hr), window)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (h *handler) timeline(rw http.ResponseWriter, hr *http.Request) {
	window, err := intParam(hr, "window", 0)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	view, err := h.svc.Timeline(metric(hr), window)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, view)
}

func (h *handler) compare(rw http.ResponseWriter, hr *http.Request) {
	query := hr.URL.Query()

	raw := query.Get("magnitude")
	if raw == "" {
		h.fail(rw, hr, fmt.Errorf("%w: magnitude", ErrMissingParam))

		return
	}

	magnitude, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.fail(rw, hr, fmt.Errorf("%w: magnitude=%q", ErrInvalidParam, raw))

		return
	}

	scale := relatability.ScaleDaily
	if v := query.Get("scale"); v != "" {
		scale, err = relatability.ParseScale(v)
		if err != nil {
			h.fail(rw, hr, err)

			return
		}
	}

	req := views.CompareRequest{Magnitude: magnitude, Scale: scale, Lang: lang(hr)}

	if random, _ := strconv.ParseBool(query.Get("random")); random {
		seed, seedErr := intParam(hr, "seed", 0)
		if seedErr != nil {
			h.fail(rw, hr, seedErr)

			return
		}

		req.Rand = newRand(uint64(seed)) //nolint:gosec // seed sign is irrelevant.
	}

	view, err := h.svc.Compare(hr.Context(), req)
	if err != nil {
		h.fail(rw, hr, err)

		return
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, CompareResponse{Matched: view != nil, Comparison: view})
}

// newRand seeds a generator; zero draws a fresh seed.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}

	return rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // selection variety, not security.
}

func (h *handler) annotations(rw http.ResponseWriter, hr *http.Request) {
	list := h.svc.Annotations(hr.URL.Query().Get("date"))
	if list == nil {
		list = []dataset.Annotation{}
	}

	h.writeJSON(hr.Context(), rw, http.StatusOK, list)
}

func (h *handler) benchmarks(rw http.ResponseWriter, hr *http.Request) {
	h.writeJSON(hr.Context(), rw, http.StatusOK, h.svc.Bundle().Benchmarks)
}
