package eventflow

import (
	"log/slog"

	"github.com/randalmurphal/eventflow/pkg/eventflow/observability"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
	"go.opentelemetry.io/otel/trace"
)

// runConfig holds configuration shared by Processor and RunManager.
type runConfig struct {
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	metricsEnabled bool
	tracingEnabled bool

	runID   string
	store   results.Store
	resume  bool
	workers int

	splitFiles bool
	rebuild    bool
	maxEvents  int64
}

func defaultRunConfig() runConfig {
	return runConfig{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		workers: 1,
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RunOption configures processing behavior.
type RunOption func(*runConfig)

// WithLogger enables structured logging. Plugins receive the logger through
// Context.Logger, enriched with run_id, dataset, file and plugin.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	proc := eventflow.NewProcessor(compiled, src, eventflow.WithLogger(logger))
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// Metrics go to the global MeterProvider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		c.metricsEnabled = enabled
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables or disables OpenTelemetry tracing.
// Spans go to the global TracerProvider: one per run, dataset and file.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithTracerProvider enables tracing with spans started from tp rather than
// the global TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = tp != nil
		if tp != nil {
			c.spans = observability.NewSpanManagerWithProvider(tp)
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithRunID sets the run identifier. Required with WithResume.
// A UUID is generated when unset.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithResultStore flushes one results.Record per completed unit of work.
func WithResultStore(store results.Store) RunOption {
	return func(c *runConfig) {
		c.store = store
	}
}

// WithResume skips units whose record is already in the result store for the
// run ID and merges the stored cut-flow instead.
func WithResume() RunOption {
	return func(c *runConfig) {
		c.resume = true
	}
}

// WithWorkers sets the number of concurrent pipeline instances.
// Default: 1. Values below 1 make RunManager.Run fail.
func WithWorkers(n int) RunOption {
	return func(c *runConfig) {
		c.workers = n
	}
}

// WithSplitFiles makes every file of a dataset its own unit of work.
func WithSplitFiles() RunOption {
	return func(c *runConfig) {
		c.splitFiles = true
	}
}

// WithRebuildPerDataset builds a fresh pipeline for every unit of work instead
// of one per worker.
func WithRebuildPerDataset() RunOption {
	return func(c *runConfig) {
		c.rebuild = true
	}
}

// WithMaxEvents stops each dataset after n events. Zero means no limit.
func WithMaxEvents(n int64) RunOption {
	return func(c *runConfig) {
		if n >= 0 {
			c.maxEvents = n
		}
	}
}
