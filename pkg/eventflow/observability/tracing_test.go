package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory exporter for the test.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("eventflow")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("eventflow")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanHierarchy(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, runSpan := sm.StartRunSpan(context.Background(), "run-1", 2)
	dsCtx, dsSpan := sm.StartDatasetSpan(ctx, "ttbar", 3)
	fileCtx, fileSpan := sm.StartFileSpan(dsCtx, "/store/ttbar_1.root")
	sm.AddSpanEvent(fileCtx, "event.rejected", attribute.String("plugin", "jet_filter"))
	sm.EndSpanWithError(fileSpan, nil)
	sm.EndSpanWithError(dsSpan, errors.New("plugin failed"))
	sm.EndSpanWithError(runSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	byName := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		byName[s.Name] = s
	}

	run := byName["eventflow.run"]
	ds := byName["eventflow.dataset"]
	file := byName["eventflow.file"]

	v, ok := attrValue(run.Attributes, "run.id")
	require.True(t, ok)
	assert.Equal(t, "run-1", v.AsString())

	v, ok = attrValue(ds.Attributes, "dataset.id")
	require.True(t, ok)
	assert.Equal(t, "ttbar", v.AsString())

	assert.Equal(t, run.SpanContext.SpanID(), ds.Parent.SpanID())
	assert.Equal(t, ds.SpanContext.SpanID(), file.Parent.SpanID())

	require.Len(t, file.Events, 1)
	assert.Equal(t, "event.rejected", file.Events[0].Name)
	assert.Equal(t, codes.Ok, file.Status.Code)

	assert.Equal(t, codes.Error, ds.Status.Code)
	assert.Equal(t, "plugin failed", ds.Status.Description)
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndSpanWithError(nil, errors.New("x"))
	})
}

func TestAddSpanEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().AddSpanEvent(context.Background(), "nothing")
	})
}
