package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	"github.com/randalmurphal/eventflow/pkg/eventflow/config"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// BinsFromConfig reads a bin mode and selection bins:
//
//	mode: any                 # any | exactly_one | all (required)
//	bins:
//	  - name: 2j1l
//	    ranges:
//	      - {min: 2, max: 99}   # first axis
//	      - {exact: 1}          # second axis
func BinsFromConfig(cfg config.Config) (BinMode, []SelectionBin, error) {
	if !cfg.Has("mode") {
		return modeUnset, nil, eferrors.Invalidf("", cfg.Key("mode"), "bin mode is required")
	}
	mode, err := ParseBinMode(cfg.String("mode", ""))
	if err != nil {
		return modeUnset, nil, fmt.Errorf("%s: %w", cfg.Key("mode"), err)
	}

	entries, err := cfg.List("bins")
	if err != nil {
		return modeUnset, nil, eferrors.Invalidf("", "bins", "%v", err)
	}
	bins := make([]SelectionBin, 0, len(entries))
	for _, entry := range entries {
		b, err := binFromConfig(entry)
		if err != nil {
			return modeUnset, nil, fmt.Errorf("%s: %w", entry.Path(), err)
		}
		bins = append(bins, b)
	}
	return mode, bins, nil
}

func binFromConfig(entry config.Config) (SelectionBin, error) {
	items, err := entry.List("ranges")
	if err != nil {
		return SelectionBin{}, eferrors.Invalidf("", "ranges", "%v", err)
	}
	ranges := make([]Range, 0, len(items))
	for _, item := range items {
		var r Range
		switch {
		case item.Has("exact"):
			r = Exact(item.Int("exact", -1))
		case item.Has("min") || item.Has("max"):
			r = Range{Min: item.Int("min", 0), Max: item.Int("max", math.MaxInt)}
		default:
			return SelectionBin{}, eferrors.Invalidf("", item.Path(), "range needs exact or min/max")
		}
		ranges = append(ranges, r)
	}
	return NewBin(entry.String("name", ""), ranges...)
}

// CountFilterFromConfig builds a CountFilter from axes plus the keys read by
// BinsFromConfig:
//
//	axes: [jets.n, leptons.n]
//	mode: any
//	bins: [...]
func CountFilterFromConfig(name string, cfg config.Config) (*CountFilter, error) {
	mode, bins, err := BinsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	return NewCountFilter(name, cfg.StringSlice("axes", nil), mode, bins...)
}

// CutFilterFromConfig reads the "expression" key.
func CutFilterFromConfig(name string, cfg config.Config) (*CutFilter, error) {
	return NewCutFilter(name, cfg.String("expression", ""))
}

// DatasetSelectorFromConfig reads "masks" and "invert".
func DatasetSelectorFromConfig(name string, cfg config.Config) (*DatasetSelector, error) {
	return NewDatasetSelector(name, cfg.StringSlice("masks", nil), cfg.Bool("invert", false))
}

// RemainderFilterFromConfig reads:
//
//	max_remainder: 0
//	denominator: 2
//	invert: false
func RemainderFilterFromConfig(name string, cfg config.Config) (*RemainderFilter, error) {
	if !cfg.Has("denominator") {
		return nil, eferrors.Invalidf(name, cfg.Key("denominator"), "is required")
	}
	maxRemainder := cfg.Int("max_remainder", 0)
	if maxRemainder < 0 {
		return nil, eferrors.Invalidf(name, cfg.Key("max_remainder"), "must not be negative")
	}
	denominator := cfg.Int("denominator", 0)
	if denominator < 0 {
		return nil, eferrors.Invalidf(name, cfg.Key("denominator"), "must be positive")
	}
	return NewRemainderFilter(name, uint64(maxRemainder), uint64(denominator), cfg.Bool("invert", false))
}

// EventIDFilterFromConfig reads a mode and event lists keyed by file base
// name:
//
//	mode: reject
//	lists:
//	  ttbar_1: ["1:10:1234", "1:10:1240"]
func EventIDFilterFromConfig(name string, cfg config.Config) (*EventIDFilter, error) {
	mode, err := ParseListMode(cfg.String("mode", ""))
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}

	sub, _ := cfg.Sub("lists")
	files := make([]string, 0, len(sub.Raw()))
	for file := range sub.Raw() {
		files = append(files, file)
	}
	sort.Strings(files)

	lists := make(map[string][]eventflow.EventID, len(files))
	for _, file := range files {
		raw := sub.StringSlice(file, nil)
		if raw == nil {
			return nil, eferrors.Invalidf(name, sub.Key(file), "expected a list of run:lumi:event strings")
		}
		ids := make([]eventflow.EventID, 0, len(raw))
		for _, s := range raw {
			id, err := eventflow.ParseEventID(s)
			if err != nil {
				return nil, eferrors.Invalidf(name, sub.Key(file), "%v", err)
			}
			ids = append(ids, id)
		}
		lists[file] = ids
	}
	return NewEventIDFilter(name, mode, lists)
}
