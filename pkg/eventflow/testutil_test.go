package eventflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
	"github.com/stretchr/testify/require"
)

// calls records plugin and hook invocations in order.
type calls struct {
	log []string
}

func (c *calls) add(format string, args ...any) {
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

// tracked returns a plugin that records "name" for every event.
func tracked(name string, deps []string, c *calls) Plugin {
	return Func(name, deps, func(ctx Context) (Outcome, error) {
		c.add("%s", name)
		return Success, nil
	})
}

// rejecting returns a plugin that records its call and rejects events for
// which reject returns true.
func rejecting(name string, deps []string, c *calls, reject func(ctx Context) bool) Plugin {
	return Func(name, deps, func(ctx Context) (Outcome, error) {
		c.add("%s", name)
		if reject(ctx) {
			return FilterFailed, nil
		}
		return Success, nil
	})
}

// oddEvents rejects events with an odd event number.
func oddEvents(ctx Context) bool {
	return ctx.Event().ID.Event%2 == 1
}

// lifecycle implements every optional capability and records each hook.
type lifecycle struct {
	name string
	deps []string
	c    *calls

	bound   int
	resets  int
	passed  int64
	failEnd error
}

func (l *lifecycle) Name() string           { return l.name }
func (l *lifecycle) Dependencies() []string { return l.deps }

func (l *lifecycle) Bind(Resolver) error {
	l.bound++
	return nil
}

func (l *lifecycle) BeginDataset(ctx Context) error {
	l.c.add("%s.begin_dataset(%s)", l.name, ctx.Dataset().SourceID())
	return nil
}

func (l *lifecycle) EndDataset(ctx Context) error {
	l.c.add("%s.end_dataset", l.name)
	return l.failEnd
}

func (l *lifecycle) BeginFile(ctx Context) error {
	l.c.add("%s.begin_file(%d)", l.name, ctx.FileIndex())
	return nil
}

func (l *lifecycle) ResetEvent() { l.resets++ }

func (l *lifecycle) ProcessEvent(ctx Context) (Outcome, error) {
	l.passed++
	return Success, nil
}

func (l *lifecycle) Snapshot() results.Counter {
	return results.Counter{Label: l.name, Seen: int64(l.resets), Passed: l.passed}
}

// newDataset builds a dataset whose files are named id_<i>.root.
func newDataset(t *testing.T, id string, files int) *dataset.Dataset {
	t.Helper()
	ds := dataset.New(dataset.ProcessTTbar, dataset.WithSourceID(id))
	for i := range files {
		require.NoError(t, ds.AddFile(fmt.Sprintf("/store/%s_%d.root", id, i), 1, 100))
	}
	return ds
}

// fill adds n events per file of ds, numbered globally from 0 across the
// dataset's files, with an "n" field equal to the event number.
func fill(src *MemorySource, ds *dataset.Dataset, n int) *MemorySource {
	next := uint64(0)
	for _, f := range ds.Files() {
		for range n {
			src.Add(f.Path, Record{
				ID:     EventID{Run: 1, Lumi: 1, Event: next},
				Fields: map[string]any{"n": int(next)},
			})
			next++
		}
	}
	return src
}

func compile(t *testing.T, p *Pipeline) *CompiledPipeline {
	t.Helper()
	cp, err := p.Compile()
	require.NoError(t, err)
	return cp
}

func testCtx() context.Context {
	return context.Background()
}
