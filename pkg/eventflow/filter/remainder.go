package filter

import (
	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// RemainderFilter sub-samples events deterministically by event number: an
// event passes when its number modulo Denominator is at most MaxRemainder.
// With invert set the complement passes, so a pair of filters with the same
// parameters splits a dataset into disjoint halves.
type RemainderFilter struct {
	name         string
	maxRemainder uint64
	denominator  uint64
	invert       bool
}

// NewRemainderFilter keeps (maxRemainder+1)/denominator of the events.
func NewRemainderFilter(name string, maxRemainder, denominator uint64, invert bool) (*RemainderFilter, error) {
	if name == "" {
		return nil, eferrors.Invalidf("", "name", "filter name is empty")
	}
	if denominator == 0 {
		return nil, eferrors.Invalidf(name, "denominator", "must be positive")
	}
	if maxRemainder >= denominator {
		return nil, eferrors.Invalidf(name, "max_remainder", "%d keeps every event for denominator %d", maxRemainder, denominator)
	}
	return &RemainderFilter{name: name, maxRemainder: maxRemainder, denominator: denominator, invert: invert}, nil
}

// Name implements eventflow.Plugin.
func (f *RemainderFilter) Name() string { return f.name }

// Dependencies implements eventflow.Plugin.
func (f *RemainderFilter) Dependencies() []string { return nil }

// Keeps reports whether the filter passes the event with the given ID.
func (f *RemainderFilter) Keeps(id eventflow.EventID) bool {
	return (id.Event%f.denominator <= f.maxRemainder) != f.invert
}

// ProcessEvent implements eventflow.Plugin.
func (f *RemainderFilter) ProcessEvent(ctx eventflow.Context) (eventflow.Outcome, error) {
	if !f.Keeps(ctx.Event().ID) {
		return eventflow.FilterFailed, nil
	}
	return eventflow.Success, nil
}
