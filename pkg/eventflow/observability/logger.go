// Package observability provides the logging, metrics and tracing hooks of an
// eventflow run.
//
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything is opt-in. Loggers may be nil, and NoopMetrics / NoopSpanManager
// stand in when metrics or tracing are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run and dataset identifiers to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "ttbar")
//	enriched.Info("opening file") // includes run_id, dataset
func EnrichLogger(logger *slog.Logger, runID, datasetID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("dataset", datasetID),
	)
}

// LogRunStart logs the start of a run.
func LogRunStart(logger *slog.Logger, runID string, datasets, workers int) {
	if logger == nil {
		return
	}
	logger.Info("run starting",
		slog.String("run_id", runID),
		slog.Int("datasets", datasets),
		slog.Int("workers", workers),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, events, accepted int64) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int64("events", events),
		slog.Int64("accepted", accepted),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDatasetStart logs the start of a dataset.
func LogDatasetStart(logger *slog.Logger, datasetID string, files int) {
	if logger == nil {
		return
	}
	logger.Info("dataset starting",
		slog.String("dataset", datasetID),
		slog.Int("files", files),
	)
}

// LogDatasetComplete logs a finished dataset.
func LogDatasetComplete(logger *slog.Logger, datasetID string, events, accepted int64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("dataset completed",
		slog.String("dataset", datasetID),
		slog.Int64("events", events),
		slog.Int64("accepted", accepted),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDatasetError logs a dataset that aborted.
func LogDatasetError(logger *slog.Logger, datasetID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("dataset failed",
		slog.String("dataset", datasetID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDatasetSkipped logs a dataset whose results were already flushed by an
// earlier attempt of the same run.
func LogDatasetSkipped(logger *slog.Logger, datasetID string) {
	if logger == nil {
		return
	}
	logger.Info("dataset already flushed, skipping",
		slog.String("dataset", datasetID),
	)
}

// LogFileStart logs the opening of an input file.
func LogFileStart(logger *slog.Logger, path string, index int) {
	if logger == nil {
		return
	}
	logger.Debug("file starting",
		slog.String("file", path),
		slog.Int("file_index", index),
	)
}

// LogPluginError logs a plugin fault that aborts the run.
func LogPluginError(logger *slog.Logger, plugin string, eventIndex int64, err error) {
	if logger == nil {
		return
	}
	logger.Error("plugin failed",
		slog.String("plugin", plugin),
		slog.Int64("event_index", eventIndex),
		slog.String("error", err.Error()),
	)
}

// LogFlush logs a result snapshot written to the store.
func LogFlush(logger *slog.Logger, datasetID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("results flushed",
		slog.String("dataset", datasetID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
