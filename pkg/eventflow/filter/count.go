package filter

import (
	"fmt"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// CountFilter accepts events whose object counts fall in its selection bins.
//
// Each axis is a "plugin.key" reference to an integer quantity published by
// an upstream Producer. Bins hold one range per axis.
//
// Example:
//
//	// at least two jets and exactly one lepton, or three+ jets and no lepton
//	twoJ, _ := filter.NewBin("2j1l", filter.Range{Min: 2, Max: 99}, filter.Exact(1))
//	threeJ, _ := filter.NewBin("3j0l", filter.Range{Min: 3, Max: 99}, filter.Exact(0))
//	f, err := filter.NewCountFilter("selection", []string{"jets.n", "leptons.n"}, filter.ModeAny, twoJ, threeJ)
type CountFilter struct {
	name string
	axes []string
	deps []string
	mode BinMode
	bins []SelectionBin

	in      eventflow.Inputs
	counts  []int
	matched []string
}

// NewCountFilter validates the axes, mode and bins.
func NewCountFilter(name string, axes []string, mode BinMode, bins ...SelectionBin) (*CountFilter, error) {
	if name == "" {
		return nil, eferrors.Invalidf("", "name", "filter name is empty")
	}
	if len(axes) == 0 {
		return nil, eferrors.Invalidf(name, "axes", "at least one axis is required")
	}
	if !mode.Valid() {
		return nil, eferrors.Invalidf(name, "mode", "bin mode must be set explicitly (any, exactly_one, all)")
	}
	if len(bins) == 0 {
		return nil, eferrors.Invalidf(name, "bins", "at least one bin is required")
	}

	var deps []string
	seen := make(map[string]struct{})
	for _, ax := range axes {
		plugin, _, ok := eventflow.SplitRef(ax)
		if !ok {
			return nil, eferrors.Invalidf(name, "axes", "axis %q is not of the form plugin.key", ax)
		}
		if _, dup := seen[plugin]; !dup {
			seen[plugin] = struct{}{}
			deps = append(deps, plugin)
		}
	}

	for _, b := range bins {
		if err := b.validate(); err != nil {
			return nil, fmt.Errorf("filter %q: %w", name, err)
		}
		if len(b.Ranges) != len(axes) {
			return nil, eferrors.Invalidf(name, "bins", "bin %s has %d ranges for %d axes", b, len(b.Ranges), len(axes))
		}
	}

	return &CountFilter{
		name:   name,
		axes:   append([]string(nil), axes...),
		deps:   deps,
		mode:   mode,
		bins:   append([]SelectionBin(nil), bins...),
		counts: make([]int, len(axes)),
	}, nil
}

// Name implements eventflow.Plugin.
func (f *CountFilter) Name() string { return f.name }

// Dependencies implements eventflow.Plugin.
func (f *CountFilter) Dependencies() []string { return f.deps }

// Mode returns the bin combination mode.
func (f *CountFilter) Mode() BinMode { return f.mode }

// Bind implements eventflow.Binder.
func (f *CountFilter) Bind(r eventflow.Resolver) error {
	in, err := eventflow.BindInputs(r, f.deps...)
	if err != nil {
		return err
	}
	f.in = in
	return nil
}

// ResetEvent implements eventflow.EventResetter.
func (f *CountFilter) ResetEvent() {
	f.matched = f.matched[:0]
}

// ProcessEvent implements eventflow.Plugin.
func (f *CountFilter) ProcessEvent(ctx eventflow.Context) (eventflow.Outcome, error) {
	for i, ax := range f.axes {
		n, err := f.in.Int(ax)
		if err != nil {
			return eventflow.Success, err
		}
		f.counts[i] = n
	}

	for _, b := range f.bins {
		if b.Contains(f.counts...) {
			f.matched = append(f.matched, b.String())
		}
	}
	if !f.mode.Accept(len(f.matched), len(f.bins)) {
		return eventflow.FilterFailed, nil
	}
	return eventflow.Success, nil
}

// Quantity implements eventflow.Producer. "bin" is the first matching bin,
// "matches" the number of matching bins.
func (f *CountFilter) Quantity(key string) (any, bool) {
	switch key {
	case "bin":
		if len(f.matched) == 0 {
			return nil, false
		}
		return f.matched[0], true
	case "matches":
		return len(f.matched), true
	}
	return nil, false
}
