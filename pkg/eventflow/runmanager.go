package eventflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/randalmurphal/eventflow/pkg/eventflow/observability"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
	"golang.org/x/sync/errgroup"
)

// ErrRunIDRequired indicates resume was requested without a run ID.
var ErrRunIDRequired = errors.New("run ID required for resume")

// ErrStoreRequired indicates resume was requested without a result store.
var ErrStoreRequired = errors.New("result store required for resume")

// PipelineFactory builds a fresh, uncompiled pipeline. ds is the first unit
// of work the pipeline will process; with WithRebuildPerDataset it is called
// for every unit.
type PipelineFactory func(ds *dataset.Dataset) (*Pipeline, error)

// RunManager processes many datasets on a pool of workers. Each worker owns
// an independent pipeline built by the factory, so no state is shared inside
// the event loop.
type RunManager struct {
	factory PipelineFactory
	src     Source
	cfg     runConfig
}

// UnitResult is the outcome of one unit of work: a dataset, or one file of
// it with WithSplitFiles.
type UnitResult struct {
	Unit      string
	DatasetID string
	Files     []string
	Events    int64
	Accepted  int64
	Cutflow   results.Cutflow
	// Resumed is set when the result was loaded from the store.
	Resumed bool
}

// Result is the merged outcome of a run.
type Result struct {
	RunID    string
	Events   int64
	Accepted int64
	Cutflow  results.Cutflow
	// Units are in input order.
	Units []UnitResult
}

// NewRunManager creates a run manager.
func NewRunManager(factory PipelineFactory, src Source, opts ...RunOption) *RunManager {
	return &RunManager{factory: factory, src: src, cfg: newRunConfig(opts)}
}

type unit struct {
	key string
	ds  *dataset.Dataset
}

// Run processes datasets and merges their cut-flows.
//
// Units are handed to workers through a channel; a fault in any unit cancels
// the others and is returned. Units flushed to the result store before the
// fault stay flushed, so a later run with WithResume continues from there.
func (m *RunManager) Run(ctx context.Context, datasets []*dataset.Dataset) (res *Result, runErr error) {
	if m.factory == nil {
		return nil, eferrors.Invalidf("", "factory", "pipeline factory is nil")
	}
	if m.cfg.workers < 1 {
		return nil, eferrors.Invalidf("", "workers", "must be at least 1, got %d", m.cfg.workers)
	}
	if m.cfg.resume && m.cfg.store == nil {
		return nil, ErrStoreRequired
	}
	if m.cfg.resume && m.cfg.runID == "" {
		return nil, ErrRunIDRequired
	}

	cfg := m.cfg
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}

	units, err := m.units(datasets)
	if err != nil {
		return nil, err
	}

	res = &Result{RunID: cfg.runID, Units: make([]UnitResult, len(units))}
	pending, err := m.resume(cfg, units, res)
	if err != nil {
		return nil, err
	}

	workers := min(cfg.workers, max(len(pending), 1))
	start := time.Now()
	observability.LogRunStart(cfg.logger, cfg.runID, len(units), workers)

	runCtx, span := cfg.spans.StartRunSpan(ctx, cfg.runID, len(units))
	defer func() {
		cfg.spans.EndSpanWithError(span, runErr)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for _, idx := range pending {
			select {
			case jobs <- idx:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			return m.work(gctx, cfg, units, jobs, res)
		})
	}

	if err := g.Wait(); err != nil {
		observability.LogRunError(cfg.logger, cfg.runID, err, float64(time.Since(start).Milliseconds()))
		return nil, err
	}

	for _, u := range res.Units {
		res.Events += u.Events
		res.Accepted += u.Accepted
		res.Cutflow = res.Cutflow.Merge(u.Cutflow)
	}
	observability.LogRunComplete(cfg.logger, cfg.runID, float64(time.Since(start).Milliseconds()), res.Events, res.Accepted)
	return res, nil
}

// units expands datasets into units of work with unique keys.
func (m *RunManager) units(datasets []*dataset.Dataset) ([]unit, error) {
	var out []unit
	seen := make(map[string]struct{})
	add := func(key string, ds *dataset.Dataset) error {
		if _, dup := seen[key]; dup {
			return &DuplicateNameError{Name: key, Scope: "unit"}
		}
		seen[key] = struct{}{}
		out = append(out, unit{key: key, ds: ds})
		return nil
	}

	for _, ds := range datasets {
		if ds == nil {
			return nil, &DatasetError{Message: "nil dataset"}
		}
		if !m.cfg.splitFiles {
			if err := add(ds.SourceID(), ds); err != nil {
				return nil, err
			}
			continue
		}
		for i, part := range ds.Split() {
			if err := add(fmt.Sprintf("%s#%d", ds.SourceID(), i), part); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// resume fills res with units already flushed for the run and returns the
// indices still to process.
func (m *RunManager) resume(cfg runConfig, units []unit, res *Result) ([]int, error) {
	done := make(map[string]*results.Record)
	if cfg.resume {
		recs, err := results.LoadRun(cfg.store, cfg.runID)
		if err != nil {
			return nil, fmt.Errorf("resume run %s: %w", cfg.runID, err)
		}
		for _, rec := range recs {
			done[rec.Unit] = rec
		}
	}

	var pending []int
	for i, u := range units {
		rec, ok := done[u.key]
		if !ok {
			pending = append(pending, i)
			continue
		}
		observability.LogDatasetSkipped(cfg.logger, u.key)
		res.Units[i] = UnitResult{
			Unit:      u.key,
			DatasetID: rec.DatasetID,
			Files:     rec.Files,
			Events:    rec.Events,
			Accepted:  rec.Accepted,
			Cutflow:   rec.Cutflow,
			Resumed:   true,
		}
	}
	return pending, nil
}

// work is one worker: it pulls units until the channel closes, building its
// pipeline lazily and writing only to its own slots of res.
func (m *RunManager) work(ctx context.Context, cfg runConfig, units []unit, jobs <-chan int, res *Result) error {
	var proc *Processor
	for idx := range jobs {
		u := units[idx]
		if proc == nil || cfg.rebuild {
			cp, err := m.build(u)
			if err != nil {
				return err
			}
			proc = newProcessor(cp, m.src, cfg)
		}

		sum, err := proc.ProcessDataset(ctx, u.ds)
		if err != nil {
			return err
		}

		ur := UnitResult{
			Unit:      u.key,
			DatasetID: sum.DatasetID,
			Files:     sum.Files,
			Events:    sum.Events,
			Accepted:  sum.Accepted,
			Cutflow:   sum.Cutflow,
		}
		if cfg.store != nil {
			if err := flush(ctx, cfg, ur); err != nil {
				return err
			}
		}
		res.Units[idx] = ur
	}
	return nil
}

func (m *RunManager) build(u unit) (*CompiledPipeline, error) {
	p, err := m.factory(u.ds)
	if err != nil {
		return nil, fmt.Errorf("build pipeline for %s: %w", u.key, err)
	}
	if p == nil {
		return nil, eferrors.Invalidf("", "factory", "pipeline factory returned nil for %s", u.key)
	}
	cp, err := p.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile pipeline for %s: %w", u.key, err)
	}
	return cp, nil
}

// flush writes one unit's record. A failed flush aborts the run.
func flush(ctx context.Context, cfg runConfig, ur UnitResult) error {
	rec := results.NewRecord(cfg.runID, ur.Unit, ur.DatasetID)
	rec.Files = ur.Files
	rec.Events = ur.Events
	rec.Accepted = ur.Accepted
	rec.Cutflow = ur.Cutflow

	size, err := results.Flush(cfg.store, rec)
	if err != nil {
		return fmt.Errorf("flush results for %s: %w", ur.Unit, err)
	}
	observability.LogFlush(cfg.logger, ur.Unit, size)
	cfg.metrics.RecordFlush(ctx, ur.DatasetID, int64(size))
	return nil
}
