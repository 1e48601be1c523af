package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// exportedPrefixes lists the attribute namespaces tallymark spans may carry.
var exportedPrefixes = []string{
	"tallymark.",
	"dataset.",
	"cache.",
	"comparison.",
	"period.",
	"peaks.",
	"render.",
	"http.",
	"mcp.",
	"error.",
}

// strippedKeys never leave the process, whatever their prefix.
var strippedKeys = map[string]bool{
	"http.request.header.authorization": true,
	"http.request.body":                 true,
	"http.response.body":                true,
	"dataset.auth_token":                true,
}

// attributeFilter is a SpanProcessor that drops span attributes outside the
// tallymark namespaces before they reach the exporter. Source URLs may embed
// credentials, so only explicitly namespaced keys are exported.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate. A non-nil logger receives a debug line
// for each dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

// OnStart implements [sdktrace.SpanProcessor].
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd implements [sdktrace.SpanProcessor].
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, keep: f.exported})
}

// Shutdown implements [sdktrace.SpanProcessor].
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush implements [sdktrace.SpanProcessor].
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) exported(key attribute.Key) bool {
	name := string(key)

	if !strippedKeys[name] && (name == "error" || hasExportedPrefix(name)) {
		return true
	}

	if f.logger != nil {
		f.logger.Debug("span attribute dropped", "key", name)
	}

	return false
}

func hasExportedPrefix(name string) bool {
	for _, prefix := range exportedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	keep func(attribute.Key) bool
}

// Attributes returns the exported subset of the span's attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	out := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.keep(kv.Key) {
			out = append(out, kv)
		}
	}

	return out
}
