package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

// RecordPluginExecution does nothing.
func (NoopMetrics) RecordPluginExecution(context.Context, string, time.Duration, bool, error) {}

// RecordEvent does nothing.
func (NoopMetrics) RecordEvent(context.Context, string, bool) {}

// RecordDataset does nothing.
func (NoopMetrics) RecordDataset(context.Context, string, bool, time.Duration) {}

// RecordFlush does nothing.
func (NoopMetrics) RecordFlush(context.Context, string, int64) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartRunSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRunSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartDatasetSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartDatasetSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartFileSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartFileSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
