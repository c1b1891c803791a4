package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("eventflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
//
// Spans are opened per run, per dataset and per file. Events are far too
// numerous for a span each; rejections and faults surface as span events
// and errors instead.
type SpanManager interface {
	// StartRunSpan starts the root span of a run.
	StartRunSpan(ctx context.Context, runID string, datasets int) (context.Context, trace.Span)

	// StartDatasetSpan starts a span for one dataset, child of the run span.
	StartDatasetSpan(ctx context.Context, datasetID string, files int) (context.Context, trace.Span)

	// StartFileSpan starts a span for one input file, child of the dataset span.
	StartFileSpan(ctx context.Context, path string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	provider trace.TracerProvider
}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// NewSpanManagerWithProvider returns a SpanManager that starts spans from tp
// instead of the global provider.
func NewSpanManagerWithProvider(tp trace.TracerProvider) SpanManager {
	return &otelSpanManager{provider: tp}
}

func (m *otelSpanManager) tracer() trace.Tracer {
	if m.provider == nil {
		return tracer
	}
	return m.provider.Tracer("eventflow")
}

func (m *otelSpanManager) StartRunSpan(ctx context.Context, runID string, datasets int) (context.Context, trace.Span) {
	return m.tracer().Start(ctx, "eventflow.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.datasets", datasets),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartDatasetSpan(ctx context.Context, datasetID string, files int) (context.Context, trace.Span) {
	return m.tracer().Start(ctx, "eventflow.dataset",
		trace.WithAttributes(
			attribute.String("dataset.id", datasetID),
			attribute.Int("dataset.files", files),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartFileSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return m.tracer().Start(ctx, "eventflow.file",
		trace.WithAttributes(attribute.String("file.path", path)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
