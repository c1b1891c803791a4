package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPluginExecution records one plugin invocation for one event.
	// rejected is true when the plugin returned FilterFailed.
	RecordPluginExecution(ctx context.Context, plugin string, duration time.Duration, rejected bool, err error)

	// RecordEvent records an event that went through the whole chain (accepted)
	// or was stopped by a filter.
	RecordEvent(ctx context.Context, datasetID string, accepted bool)

	// RecordDataset records a finished dataset.
	RecordDataset(ctx context.Context, datasetID string, success bool, duration time.Duration)

	// RecordFlush records a result snapshot written to the store.
	RecordFlush(ctx context.Context, datasetID string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	pluginExecutions metric.Int64Counter
	pluginLatency    metric.Float64Histogram
	pluginErrors     metric.Int64Counter
	pluginRejections metric.Int64Counter
	events           metric.Int64Counter
	datasets         metric.Int64Counter
	datasetLatency   metric.Float64Histogram
	flushSize        metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventflow")
	m := &otelMetrics{}
	var err error

	if m.pluginExecutions, err = meter.Int64Counter("eventflow.plugin.executions",
		metric.WithDescription("Number of plugin invocations"),
	); err != nil {
		return nil, err
	}
	if m.pluginLatency, err = meter.Float64Histogram("eventflow.plugin.latency_ms",
		metric.WithDescription("Plugin invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.pluginErrors, err = meter.Int64Counter("eventflow.plugin.errors",
		metric.WithDescription("Number of plugin faults"),
	); err != nil {
		return nil, err
	}
	if m.pluginRejections, err = meter.Int64Counter("eventflow.plugin.rejections",
		metric.WithDescription("Number of events rejected by a plugin"),
	); err != nil {
		return nil, err
	}
	if m.events, err = meter.Int64Counter("eventflow.events",
		metric.WithDescription("Number of events processed"),
	); err != nil {
		return nil, err
	}
	if m.datasets, err = meter.Int64Counter("eventflow.dataset.runs",
		metric.WithDescription("Number of datasets processed"),
	); err != nil {
		return nil, err
	}
	if m.datasetLatency, err = meter.Float64Histogram("eventflow.dataset.latency_ms",
		metric.WithDescription("Dataset processing latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.flushSize, err = meter.Int64Histogram("eventflow.results.size_bytes",
		metric.WithDescription("Flushed result snapshot size in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordPluginExecution(ctx context.Context, plugin string, duration time.Duration, rejected bool, err error) {
	attrs := metric.WithAttributes(attribute.String("plugin", plugin))

	m.pluginExecutions.Add(ctx, 1, attrs)
	m.pluginLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if rejected {
		m.pluginRejections.Add(ctx, 1, attrs)
	}
	if err != nil {
		m.pluginErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordEvent(ctx context.Context, datasetID string, accepted bool) {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dataset", datasetID),
		attribute.Bool("accepted", accepted),
	))
}

func (m *otelMetrics) RecordDataset(ctx context.Context, datasetID string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("dataset", datasetID),
		attribute.Bool("success", success),
	)
	m.datasets.Add(ctx, 1, attrs)
	m.datasetLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordFlush(ctx context.Context, datasetID string, sizeBytes int64) {
	m.flushSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("dataset", datasetID)))
}
