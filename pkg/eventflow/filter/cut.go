package filter

import (
	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/randalmurphal/eventflow/pkg/eventflow/expr"
)

// CutFilter accepts events for which a boolean expression holds. Identifiers
// in the expression are "plugin.key" references to upstream quantities; the
// referenced plugins become the filter's dependencies.
//
// Example:
//
//	f, err := filter.NewCutFilter("met", "event.met > 30 and not event.is_noisy")
type CutFilter struct {
	name string
	prog *expr.Program
	deps []string
	in   eventflow.Inputs
}

// NewCutFilter compiles the expression.
func NewCutFilter(name, expression string, opts ...expr.Option) (*CutFilter, error) {
	if name == "" {
		return nil, eferrors.Invalidf("", "name", "filter name is empty")
	}
	prog, err := expr.New(opts...).Compile(expression)
	if err != nil {
		return nil, eferrors.Invalidf(name, "expression", "%v", err)
	}

	var deps []string
	seen := make(map[string]struct{})
	for _, id := range prog.Identifiers() {
		plugin, _, ok := eventflow.SplitRef(id)
		if !ok {
			return nil, eferrors.Invalidf(name, "expression", "identifier %q is not of the form plugin.key", id)
		}
		if _, dup := seen[plugin]; !dup {
			seen[plugin] = struct{}{}
			deps = append(deps, plugin)
		}
	}
	if len(deps) == 0 {
		return nil, eferrors.Invalidf(name, "expression", "%q reads no quantities", expression)
	}
	return &CutFilter{name: name, prog: prog, deps: deps}, nil
}

// Name implements eventflow.Plugin.
func (f *CutFilter) Name() string { return f.name }

// Dependencies implements eventflow.Plugin.
func (f *CutFilter) Dependencies() []string { return f.deps }

// Expression returns the compiled expression text.
func (f *CutFilter) Expression() string { return f.prog.String() }

// Bind implements eventflow.Binder.
func (f *CutFilter) Bind(r eventflow.Resolver) error {
	in, err := eventflow.BindInputs(r, f.deps...)
	if err != nil {
		return err
	}
	f.in = in
	return nil
}

// ProcessEvent implements eventflow.Plugin. A quantity missing for the
// current event is a fault, not a rejection.
func (f *CutFilter) ProcessEvent(ctx eventflow.Context) (eventflow.Outcome, error) {
	ok, err := f.prog.Eval(f.in)
	if err != nil {
		return eventflow.Success, err
	}
	if !ok {
		return eventflow.FilterFailed, nil
	}
	return eventflow.Success, nil
}
