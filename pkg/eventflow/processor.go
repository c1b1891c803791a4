package eventflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	"github.com/randalmurphal/eventflow/pkg/eventflow/observability"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
	"go.opentelemetry.io/otel/attribute"
)

// Processor drives the event loop of one compiled pipeline.
// It is not safe for concurrent use.
type Processor struct {
	cp    *CompiledPipeline
	src   Source
	cfg   runConfig
	runID string
}

// Summary describes one processed dataset.
type Summary struct {
	DatasetID string
	Files     []string
	// Events counts events read; Accepted counts events no plugin rejected.
	Events   int64
	Accepted int64
	// Cutflow holds the counts added while processing this dataset.
	Cutflow  results.Cutflow
	Duration time.Duration
}

// NewProcessor creates a processor reading events from src.
func NewProcessor(cp *CompiledPipeline, src Source, opts ...RunOption) *Processor {
	return newProcessor(cp, src, newRunConfig(opts))
}

func newProcessor(cp *CompiledPipeline, src Source, cfg runConfig) *Processor {
	runID := cfg.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Processor{cp: cp, src: src, cfg: cfg, runID: runID}
}

// RunID returns the run identifier used in logs and contexts.
func (p *Processor) RunID() string {
	return p.runID
}

// ProcessDataset runs every event of every file of ds through the pipeline.
//
// Execution flow:
//  1. BeginDataset on every DatasetHook plugin, in order
//  2. For each file: refresh dataset-scoped services, BeginFile, open
//  3. For each event: check cancellation, ResetEvent on every plugin, then
//     run plugins in order until one returns FilterFailed
//  4. EndDataset in reverse order, then drop dataset-scoped services
//
// On error the summary holds what was processed up to the failure.
func (p *Processor) ProcessDataset(ctx context.Context, ds *dataset.Dataset) (summary *Summary, err error) {
	if ds == nil {
		return nil, &DatasetError{Message: "nil dataset"}
	}

	start := time.Now()
	id := ds.SourceID()
	summary = &Summary{DatasetID: id}
	before := p.cp.Cutflow()

	logger := observability.EnrichLogger(p.cfg.logger, p.runID, id)
	observability.LogDatasetStart(logger, id, ds.NumFiles())

	dsCtx, span := p.cfg.spans.StartDatasetSpan(ctx, id, ds.NumFiles())
	defer func() {
		p.cfg.spans.EndSpanWithError(span, err)
	}()

	base := logger
	if base == nil {
		base = slog.Default().With(slog.String("run_id", p.runID), slog.String("dataset", id))
	}
	ec := &eventContext{
		Context:   dsCtx,
		logger:    base,
		runID:     p.runID,
		ds:        ds,
		fileIndex: -1,
		eventIdx:  -1,
		services:  p.cp.services,
	}

	begun, err := p.beginDataset(ec, base)
	if err == nil {
		err = p.processFiles(ec, base, summary)
	}
	if endErr := p.endDataset(ec, base, begun); endErr != nil {
		if err == nil {
			err = endErr
		} else {
			err = errors.Join(err, endErr)
		}
	}
	p.cp.services.ResetDataset()

	summary.Cutflow = p.cp.Cutflow().Since(before)
	summary.Duration = time.Since(start)
	p.cfg.metrics.RecordDataset(ctx, id, err == nil, summary.Duration)

	if err != nil {
		observability.LogDatasetError(logger, id, err, float64(summary.Duration.Milliseconds()))
		return summary, err
	}
	observability.LogDatasetComplete(logger, id, summary.Events, summary.Accepted, float64(summary.Duration.Milliseconds()))
	return summary, nil
}

// beginDataset returns the schedule positions whose BeginDataset succeeded.
func (p *Processor) beginDataset(ec *eventContext, base *slog.Logger) ([]int, error) {
	begun := make([]int, 0, len(p.cp.datasetHooks))
	for _, pos := range p.cp.datasetHooks {
		pl := p.cp.order[pos]
		hook := pl.(DatasetHook)
		ec.logger = base.With(slog.String("plugin", pl.Name()))
		if err := invoke(pl.Name(), "begin_dataset", ec.position, func() error { return hook.BeginDataset(ec) }); err != nil {
			return begun, err
		}
		begun = append(begun, pos)
	}
	return begun, nil
}

func (p *Processor) endDataset(ec *eventContext, base *slog.Logger, begun []int) error {
	var errs []error
	for i := len(begun) - 1; i >= 0; i-- {
		pl := p.cp.order[begun[i]]
		hook := pl.(DatasetHook)
		ec.logger = base.With(slog.String("plugin", pl.Name()))
		if err := invoke(pl.Name(), "end_dataset", ec.position, func() error { return hook.EndDataset(ec) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Processor) processFiles(ec *eventContext, base *slog.Logger, summary *Summary) error {
	for i, f := range ec.ds.Files() {
		if p.limitReached(summary) {
			return nil
		}
		if err := ec.Context.Err(); err != nil {
			return &CancellationError{Position: ec.position(), Cause: err}
		}

		ec.file, ec.fileIndex = f, i
		ec.event, ec.eventIdx = Record{}, -1
		summary.Files = append(summary.Files, f.Path)
		if err := p.processFile(ec, base, summary); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processFile(ec *eventContext, base *slog.Logger, summary *Summary) (err error) {
	dsCtx := ec.Context
	fileCtx, span := p.cfg.spans.StartFileSpan(dsCtx, ec.file.Path)
	ec.Context = fileCtx
	defer func() {
		ec.Context = dsCtx
		p.cfg.spans.EndSpanWithError(span, err)
	}()

	fileLogger := base.With(slog.String("file", ec.file.Path))
	observability.LogFileStart(p.logTo(fileLogger), ec.file.Path, ec.fileIndex)

	if err := p.cp.services.Refresh(fileCtx, ec.ds, ec.file); err != nil {
		return fmt.Errorf("refresh services at %s: %w", ec.position(), err)
	}

	loggers := make([]*slog.Logger, len(p.cp.order))
	for i, pl := range p.cp.order {
		loggers[i] = fileLogger.With(slog.String("plugin", pl.Name()))
	}

	for _, pos := range p.cp.fileHooks {
		pl := p.cp.order[pos]
		hook := pl.(FileHook)
		ec.logger = loggers[pos]
		if err := invoke(pl.Name(), "begin_file", ec.position, func() error { return hook.BeginFile(ec) }); err != nil {
			return err
		}
	}

	reader, err := p.src.Open(fileCtx, ec.file)
	if err != nil {
		return &SourceError{Position: ec.position(), Err: err}
	}
	defer reader.Close()

	for {
		if p.limitReached(summary) {
			return nil
		}
		// Cancellation is honoured between events only.
		if cerr := fileCtx.Err(); cerr != nil {
			return &CancellationError{Position: ec.position(), Cause: cerr}
		}

		rec, rerr := reader.Next(fileCtx)
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			if cerr := fileCtx.Err(); cerr != nil {
				return &CancellationError{Position: ec.position(), Cause: cerr}
			}
			return &SourceError{Position: ec.position(), Err: rerr}
		}

		ec.event = rec
		ec.eventIdx = summary.Events
		summary.Events++

		accepted, perr := p.processEvent(ec, loggers)
		if perr != nil {
			return perr
		}
		if accepted {
			summary.Accepted++
		}
		p.cfg.metrics.RecordEvent(fileCtx, summary.DatasetID, accepted)
	}
}

// logTo returns l when logging is configured, nil otherwise. Plugin loggers
// fall back to slog.Default but the processor's own records do not.
func (p *Processor) logTo(l *slog.Logger) *slog.Logger {
	if p.cfg.logger == nil {
		return nil
	}
	return l
}

func (p *Processor) limitReached(summary *Summary) bool {
	return p.cfg.maxEvents > 0 && summary.Events >= p.cfg.maxEvents
}

// processEvent runs the chain for the current event and reports whether it
// reached the end without a FilterFailed.
func (p *Processor) processEvent(ec *eventContext, loggers []*slog.Logger) (bool, error) {
	for _, r := range p.cp.resetters {
		r.ResetEvent()
	}

	for i, pl := range p.cp.order {
		ec.logger = loggers[i]

		var start time.Time
		if p.cfg.metricsEnabled {
			start = time.Now()
		}
		out, err := p.runPlugin(ec, pl)
		if p.cfg.metricsEnabled {
			p.cfg.metrics.RecordPluginExecution(ec.Context, pl.Name(), time.Since(start), out == FilterFailed, err)
		}

		if err != nil {
			observability.LogPluginError(p.logTo(loggers[i]), pl.Name(), ec.eventIdx, err)
			p.spanEvent(ec, "event.fault", pl)
			return false, err
		}
		if out == FilterFailed {
			p.spanEvent(ec, "event.rejected", pl)
			return false, nil
		}
	}
	return true, nil
}

// spanEvent marks the current file span with the event and the plugin that
// ended its chain.
func (p *Processor) spanEvent(ec *eventContext, name string, pl Plugin) {
	if !p.cfg.tracingEnabled {
		return
	}
	p.cfg.spans.AddSpanEvent(ec.Context, name,
		attribute.String("plugin", pl.Name()),
		attribute.String("event.id", ec.event.ID.String()),
		attribute.Int64("event.index", ec.eventIdx),
	)
}

func (p *Processor) runPlugin(ec *eventContext, pl Plugin) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Success
			err = &PanicError{
				Plugin:   pl.Name(),
				Op:       "process",
				Position: ec.position(),
				Value:    r,
				Stack:    string(debug.Stack()),
			}
		}
	}()

	out, err = pl.ProcessEvent(ec)
	if err == nil {
		err = mustOutcome(out)
	}
	if err != nil {
		return Success, &PluginError{Plugin: pl.Name(), Op: "process", Position: ec.position(), Err: err}
	}
	return out, nil
}
