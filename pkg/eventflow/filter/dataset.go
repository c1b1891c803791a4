package filter

import (
	"regexp"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// DatasetSelector rejects every event of datasets whose source ID matches
// none of its masks. With invert set it rejects the matching datasets
// instead.
type DatasetSelector struct {
	name     string
	masks    []*regexp.Regexp
	invert   bool
	selected bool
}

// NewDatasetSelector compiles the masks. Masks are regular expressions
// matched against the whole source ID.
func NewDatasetSelector(name string, masks []string, invert bool) (*DatasetSelector, error) {
	if name == "" {
		return nil, eferrors.Invalidf("", "name", "filter name is empty")
	}
	if len(masks) == 0 {
		return nil, eferrors.Invalidf(name, "masks", "at least one mask is required")
	}
	s := &DatasetSelector{name: name, invert: invert}
	for _, m := range masks {
		re, err := regexp.Compile("^(?:" + m + ")$")
		if err != nil {
			return nil, eferrors.Invalidf(name, "masks", "mask %q: %v", m, err)
		}
		s.masks = append(s.masks, re)
	}
	return s, nil
}

// Name implements eventflow.Plugin.
func (s *DatasetSelector) Name() string { return s.name }

// Dependencies implements eventflow.Plugin.
func (s *DatasetSelector) Dependencies() []string { return nil }

// Selects reports whether the selector keeps events of the dataset id.
func (s *DatasetSelector) Selects(id string) bool {
	matched := false
	for _, re := range s.masks {
		if re.MatchString(id) {
			matched = true
			break
		}
	}
	return matched != s.invert
}

// BeginDataset implements eventflow.DatasetHook.
func (s *DatasetSelector) BeginDataset(ctx eventflow.Context) error {
	id := ctx.Dataset().SourceID()
	s.selected = s.Selects(id)
	if !s.selected {
		ctx.Logger().Info("dataset not selected, rejecting all events")
	}
	return nil
}

// EndDataset implements eventflow.DatasetHook.
func (s *DatasetSelector) EndDataset(eventflow.Context) error {
	s.selected = false
	return nil
}

// ProcessEvent implements eventflow.Plugin.
func (s *DatasetSelector) ProcessEvent(eventflow.Context) (eventflow.Outcome, error) {
	if !s.selected {
		return eventflow.FilterFailed, nil
	}
	return eventflow.Success, nil
}
