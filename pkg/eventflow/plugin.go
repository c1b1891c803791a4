package eventflow

import (
	"fmt"

	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
)

// Outcome is the result of running one plugin for one event.
type Outcome int

const (
	// Success lets the event continue to the next plugin.
	Success Outcome = iota
	// FilterFailed stops the chain for the current event.
	FilterFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case FilterFailed:
		return "filter_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Plugin is a unit of per-event work.
//
// Dependencies names the plugins and services the plugin reads. Every name
// must resolve when the pipeline is compiled, and each plugin named runs
// before this one for every event.
type Plugin interface {
	Name() string
	Dependencies() []string
	ProcessEvent(ctx Context) (Outcome, error)
}

// Binder is implemented by plugins that cache handles to their dependencies.
// Bind is called once per compiled pipeline, in schedule order, so handles to
// upstream plugins are already bound when a downstream plugin binds.
type Binder interface {
	Bind(r Resolver) error
}

// DatasetHook is implemented by plugins that act at dataset boundaries.
// EndDataset runs in reverse schedule order and is attempted for every plugin
// whose BeginDataset succeeded, even when processing failed.
type DatasetHook interface {
	BeginDataset(ctx Context) error
	EndDataset(ctx Context) error
}

// FileHook is implemented by plugins that act when a new file is opened.
// Dataset-scoped services have already been refreshed when BeginFile runs.
type FileHook interface {
	BeginFile(ctx Context) error
}

// EventResetter is implemented by plugins holding per-event scratch state.
// ResetEvent is called on every plugin before the chain runs for an event,
// including plugins a filter will later skip.
type EventResetter interface {
	ResetEvent()
}

// Snapshotter is implemented by plugins that contribute a cut-flow counter.
type Snapshotter interface {
	Snapshot() results.Counter
}

// Producer is implemented by plugins that publish named per-event quantities
// for downstream plugins.
type Producer interface {
	Quantity(key string) (any, bool)
}

// ProcessFunc is the per-event operation of a Func plugin.
type ProcessFunc func(ctx Context) (Outcome, error)

type funcPlugin struct {
	name string
	deps []string
	fn   ProcessFunc
}

// Func adapts a function into a Plugin.
//
// Example:
//
//	p := eventflow.Func("trigger", []string{"event"}, func(ctx eventflow.Context) (eventflow.Outcome, error) {
//		if ctx.Event().Fields["trigger"] != true {
//			return eventflow.FilterFailed, nil
//		}
//		return eventflow.Success, nil
//	})
func Func(name string, deps []string, fn ProcessFunc) Plugin {
	return &funcPlugin{name: name, deps: deps, fn: fn}
}

func (p *funcPlugin) Name() string           { return p.name }
func (p *funcPlugin) Dependencies() []string { return p.deps }

func (p *funcPlugin) ProcessEvent(ctx Context) (Outcome, error) {
	if p.fn == nil {
		return Success, nil
	}
	return p.fn(ctx)
}
