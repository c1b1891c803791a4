package filter

import (
	"fmt"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// ListMode selects what an EventIDFilter does with listed events.
type ListMode int

const (
	listUnset ListMode = iota
	// RejectListed drops listed events and keeps the rest.
	RejectListed
	// KeepListed keeps only listed events.
	KeepListed
)

// String returns the configuration name of the mode.
func (m ListMode) String() string {
	switch m {
	case RejectListed:
		return "reject"
	case KeepListed:
		return "keep"
	default:
		return fmt.Sprintf("list_mode(%d)", int(m))
	}
}

// ParseListMode parses "reject" or "keep".
func ParseListMode(s string) (ListMode, error) {
	switch s {
	case "reject":
		return RejectListed, nil
	case "keep":
		return KeepListed, nil
	}
	return listUnset, eferrors.Invalidf("", "mode", "unknown list mode %q", s)
}

// EventIDFilter selects events by ID using a list per input file. Lists are
// keyed by file base name (without extension); the list for the current file
// is switched in at every file boundary. A file without a list behaves as an
// empty list.
type EventIDFilter struct {
	name  string
	mode  ListMode
	lists map[string]map[eventflow.EventID]struct{}

	current map[eventflow.EventID]struct{}
}

// NewEventIDFilter creates a filter from per-file event lists.
func NewEventIDFilter(name string, mode ListMode, lists map[string][]eventflow.EventID) (*EventIDFilter, error) {
	if name == "" {
		return nil, eferrors.Invalidf("", "name", "filter name is empty")
	}
	if mode != RejectListed && mode != KeepListed {
		return nil, eferrors.Invalidf(name, "mode", "list mode must be set explicitly (reject, keep)")
	}
	f := &EventIDFilter{name: name, mode: mode, lists: make(map[string]map[eventflow.EventID]struct{}, len(lists))}
	for file, ids := range lists {
		set := make(map[eventflow.EventID]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		f.lists[file] = set
	}
	return f, nil
}

// Name implements eventflow.Plugin.
func (f *EventIDFilter) Name() string { return f.name }

// Dependencies implements eventflow.Plugin.
func (f *EventIDFilter) Dependencies() []string { return nil }

// BeginFile implements eventflow.FileHook.
func (f *EventIDFilter) BeginFile(ctx eventflow.Context) error {
	f.current = f.lists[ctx.File().BaseName()]
	ctx.Logger().Debug("event list loaded", "events", len(f.current), "mode", f.mode.String())
	return nil
}

// ProcessEvent implements eventflow.Plugin.
func (f *EventIDFilter) ProcessEvent(ctx eventflow.Context) (eventflow.Outcome, error) {
	_, listed := f.current[ctx.Event().ID]
	if listed == (f.mode == RejectListed) {
		return eventflow.FilterFailed, nil
	}
	return eventflow.Success, nil
}
