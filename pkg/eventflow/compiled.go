package eventflow

import (
	"cmp"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/randalmurphal/eventflow/pkg/eventflow/registry"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
)

// CompiledPipeline is a validated, ordered and bound plugin chain.
//
// Plugins carry per-event and per-run state, so a CompiledPipeline belongs to
// one goroutine. Run several instances to process in parallel.
type CompiledPipeline struct {
	order    []Plugin
	plugins  *registry.Registry[string, Plugin]
	position map[string]int
	deps     map[string][]string
	dependts map[string][]string
	services *registry.Services

	// Capability sets in schedule order, computed once.
	resetters    []EventResetter
	fileHooks    []int
	datasetHooks []int
	snapshotters []Snapshotter
}

func newCompiledPipeline(p *Pipeline, order []int, dependents [][]int) *CompiledPipeline {
	cp := &CompiledPipeline{
		order:    make([]Plugin, len(order)),
		plugins:  registry.New[string, Plugin]("plugin"),
		position: make(map[string]int, len(order)),
		deps:     make(map[string][]string, len(order)),
		dependts: make(map[string][]string, len(order)),
		services: p.services,
	}

	for pos, idx := range order {
		pl := p.plugins[idx]
		cp.order[pos] = pl
		cp.position[pl.Name()] = pos
		// Names were checked unique by the builder.
		_ = cp.plugins.Register(pl.Name(), pl)
		cp.deps[pl.Name()] = pl.Dependencies()

		if r, ok := pl.(EventResetter); ok {
			cp.resetters = append(cp.resetters, r)
		}
		if _, ok := pl.(FileHook); ok {
			cp.fileHooks = append(cp.fileHooks, pos)
		}
		if _, ok := pl.(DatasetHook); ok {
			cp.datasetHooks = append(cp.datasetHooks, pos)
		}
		if s, ok := pl.(Snapshotter); ok {
			cp.snapshotters = append(cp.snapshotters, s)
		}
	}

	for _, idx := range order {
		name := p.plugins[idx].Name()
		for _, d := range dependents[idx] {
			cp.dependts[name] = append(cp.dependts[name], p.plugins[d].Name())
		}
		slices.SortFunc(cp.dependts[name], func(a, b string) int {
			return cmp.Compare(cp.position[a], cp.position[b])
		})
	}
	return cp
}

// bind calls Bind on every Binder plugin in schedule order.
func (cp *CompiledPipeline) bind() error {
	var errs []error
	for _, pl := range cp.order {
		b, ok := pl.(Binder)
		if !ok {
			continue
		}
		r := newResolver(cp, pl)
		if err := invoke(pl.Name(), "bind", noPosition, func() error { return b.Bind(r) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Order returns plugin names in execution order.
func (cp *CompiledPipeline) Order() []string {
	out := make([]string, len(cp.order))
	for i, pl := range cp.order {
		out[i] = pl.Name()
	}
	return out
}

// Plugins returns the plugins in execution order.
func (cp *CompiledPipeline) Plugins() []Plugin {
	return append([]Plugin(nil), cp.order...)
}

// Plugin returns the plugin registered under name.
func (cp *CompiledPipeline) Plugin(name string) (Plugin, bool) {
	return cp.plugins.Get(name)
}

// Position returns the index of name in the execution order, or -1.
func (cp *CompiledPipeline) Position(name string) int {
	if pos, ok := cp.position[name]; ok {
		return pos
	}
	return -1
}

// Dependencies returns the names a plugin declared, plugins and services alike.
func (cp *CompiledPipeline) Dependencies(name string) []string {
	return append([]string(nil), cp.deps[name]...)
}

// Dependents returns the plugins that declared name as a dependency, in
// execution order.
func (cp *CompiledPipeline) Dependents(name string) []string {
	return append([]string(nil), cp.dependts[name]...)
}

// Services returns the pipeline's service registry.
func (cp *CompiledPipeline) Services() *registry.Services {
	return cp.services
}

// Len returns the number of plugins.
func (cp *CompiledPipeline) Len() int {
	return len(cp.order)
}

// Cutflow snapshots every Snapshotter plugin in execution order.
func (cp *CompiledPipeline) Cutflow() results.Cutflow {
	counters := make([]results.Counter, len(cp.snapshotters))
	for i, s := range cp.snapshotters {
		counters[i] = s.Snapshot()
	}
	return results.NewCutflow(counters...)
}

// noPosition is the position of work done outside any dataset.
var noPosition = func() Position {
	return Position{FileIndex: -1, EventIndex: -1}
}

// invoke runs one plugin hook, wrapping errors and recovering panics with
// the position at the time of the call.
func invoke(plugin, op string, pos func() Position, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Plugin:   plugin,
				Op:       op,
				Position: pos(),
				Value:    r,
				Stack:    string(debug.Stack()),
			}
		}
	}()

	if ferr := fn(); ferr != nil {
		return &PluginError{Plugin: plugin, Op: op, Position: pos(), Err: ferr}
	}
	return nil
}

// mustOutcome rejects outcomes outside the declared set.
func mustOutcome(o Outcome) error {
	switch o {
	case Success, FilterFailed:
		return nil
	}
	return fmt.Errorf("invalid outcome %v", o)
}
