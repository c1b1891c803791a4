package dataset

import (
	"fmt"

	"github.com/randalmurphal/eventflow/pkg/eventflow/config"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// FromConfig builds datasets from the "datasets" list of a manifest:
//
//	datasets:
//	  - id: ttbar
//	    process: ttbar            # or processes: [ttbar, ttbar_semilep]
//	    generator: powheg
//	    shower: pythia
//	    flags: [top_pt_reweight]
//	    files:
//	      - {path: /data/ttbar_1.root, cross_section: 831.76, events: 77229341}
//	      - {path: /data/ttbar_2.root, cross_section: 831.76, events: 77229341, mean_weight: 0.98}
//
// The first malformed entry aborts the build with an error wrapping
// ErrInvalidDataset and naming the entry's location in the manifest.
func FromConfig(cfg config.Config) ([]*Dataset, error) {
	entries, err := cfg.List("datasets")
	if err != nil {
		return nil, &eferrors.DatasetError{Message: err.Error()}
	}

	out := make([]*Dataset, 0, len(entries))
	for _, entry := range entries {
		d, err := fromEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Path(), err)
		}
		out = append(out, d)
	}
	return out, nil
}

func fromEntry(entry config.Config) (*Dataset, error) {
	var opts []Option
	if id := entry.String("id", ""); id != "" {
		opts = append(opts, WithSourceID(id))
	}
	if name := entry.String("generator", ""); name != "" {
		g, err := ParseGenerator(name)
		if err != nil {
			return nil, &eferrors.DatasetError{Message: err.Error()}
		}
		opts = append(opts, WithGenerator(g))
	}
	if name := entry.String("shower", ""); name != "" {
		s, err := ParseShowerGenerator(name)
		if err != nil {
			return nil, &eferrors.DatasetError{Message: err.Error()}
		}
		opts = append(opts, WithShowerGenerator(s))
	}

	names := entry.StringSlice("processes", nil)
	if p := entry.String("process", ""); p != "" {
		names = append(names, p)
	}
	if len(names) == 0 {
		return nil, &eferrors.DatasetError{Dataset: entry.String("id", ""), Message: "no process given"}
	}
	codes := make([]Process, 0, len(names))
	for _, name := range names {
		p, err := ParseProcess(name)
		if err != nil {
			return nil, &eferrors.DatasetError{Message: err.Error()}
		}
		codes = append(codes, p)
	}

	d, err := NewMulti(codes, opts...)
	if err != nil {
		return nil, err
	}

	for _, flag := range entry.StringSlice("flags", nil) {
		if err := d.SetFlag(flag); err != nil {
			return nil, err
		}
	}

	files, err := entry.List("files")
	if err != nil {
		return nil, &eferrors.DatasetError{Dataset: d.SourceID(), Message: err.Error()}
	}
	for _, f := range files {
		numEvents := f.Int("events", 0)
		if err := d.AddWeightedFile(
			f.String("path", ""),
			f.Float("cross_section", 0),
			int64(numEvents),
			f.Float("mean_weight", 1),
		); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path(), err)
		}
	}
	if d.NumFiles() == 0 {
		return nil, &eferrors.DatasetError{Dataset: d.SourceID(), Message: "no files"}
	}
	return d, nil
}
