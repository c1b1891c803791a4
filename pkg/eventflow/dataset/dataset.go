// Package dataset describes the input units of an eventflow run.
//
// A Dataset is a list of files that share the same physics content, plus the
// normalisation of each file (cross-section, number of generated events, mean
// generator weight) and a few tags used by plugins to adapt their behaviour.
// Datasets are built once before the run and only read afterwards.
package dataset

import (
	"math"
	"path"
	"regexp"
	"slices"
	"strings"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// File is one input file of a dataset together with its normalisation.
type File struct {
	// Path locates the file. Its interpretation belongs to the event source.
	Path string
	// CrossSection is the cross-section of the source sample, in pb. Zero for data.
	CrossSection float64
	// NumEvents is the number of generated events before any selection.
	NumEvents int64
	// MeanWeight is the mean generator-level weight before any selection.
	MeanWeight float64
}

// BaseName returns the file name without directory and extension.
func (f File) BaseName() string {
	base := path.Base(f.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// DirName returns the directory part of the path, with a trailing slash.
func (f File) DirName() string {
	dir, _ := path.Split(f.Path)
	if dir == "" {
		return "./"
	}
	return dir
}

// Weight returns the per-event weight that normalises this file to an
// integrated luminosity of 1/pb: CrossSection / (MeanWeight * NumEvents).
// It returns 0 when the file carries no event count.
func (f File) Weight() float64 {
	if f.NumEvents == 0 || f.MeanWeight == 0 {
		return 0
	}
	return f.CrossSection / (f.MeanWeight * float64(f.NumEvents))
}

func (f File) validate() error {
	switch {
	case f.Path == "":
		return &eferrors.DatasetError{Message: "empty file path"}
	case math.IsNaN(f.CrossSection) || math.IsInf(f.CrossSection, 0):
		return &eferrors.DatasetError{Path: f.Path, Message: "cross-section is not finite"}
	case f.CrossSection < 0:
		return &eferrors.DatasetError{Path: f.Path, Message: "negative cross-section"}
	case f.NumEvents < 0:
		return &eferrors.DatasetError{Path: f.Path, Message: "negative event count"}
	case math.IsNaN(f.MeanWeight) || math.IsInf(f.MeanWeight, 0) || f.MeanWeight <= 0:
		return &eferrors.DatasetError{Path: f.Path, Message: "mean weight must be finite and positive"}
	}
	return nil
}

// Dataset groups files with identical physics content.
type Dataset struct {
	files           []File
	processCodes    []Process
	generator       Generator
	showerGenerator ShowerGenerator
	sourceID        string
	flags           map[string]struct{}
}

// Option configures a Dataset at construction.
type Option func(*Dataset)

// WithGenerator sets the matrix-element generator tag.
func WithGenerator(g Generator) Option {
	return func(d *Dataset) { d.generator = g }
}

// WithShowerGenerator sets the parton-shower tag.
func WithShowerGenerator(s ShowerGenerator) Option {
	return func(d *Dataset) { d.showerGenerator = s }
}

// WithSourceID sets the label of the source dataset.
// When unset it is derived from the first file added.
func WithSourceID(id string) Option {
	return func(d *Dataset) { d.sourceID = id }
}

// New creates an empty dataset classified by a single process code.
func New(process Process, opts ...Option) *Dataset {
	return newDataset([]Process{process}, opts)
}

// NewMulti creates an empty dataset classified by several process codes,
// for example {ProcessTTbar, ProcessTTbarSemiLep}. Codes are sorted; the
// largest is the main process.
func NewMulti(codes []Process, opts ...Option) (*Dataset, error) {
	if len(codes) == 0 {
		return nil, &eferrors.DatasetError{Message: "at least one process code is required"}
	}
	return newDataset(codes, opts), nil
}

func newDataset(codes []Process, opts []Option) *Dataset {
	d := &Dataset{
		processCodes: slices.Clone(codes),
		flags:        make(map[string]struct{}),
	}
	slices.Sort(d.processCodes)
	d.processCodes = slices.Compact(d.processCodes)

	for _, opt := range opts {
		opt(d)
	}

	if !d.IsMC() {
		if d.generator == GeneratorUndefined {
			d.generator = GeneratorNature
		}
		if d.showerGenerator == ShowerUndefined {
			d.showerGenerator = ShowerNature
		}
	}
	return d
}

// AddFile appends a file with mean weight 1.
func (d *Dataset) AddFile(path string, crossSection float64, numEvents int64) error {
	return d.AddWeightedFile(path, crossSection, numEvents, 1)
}

// AddWeightedFile appends a file with an explicit mean generator weight.
// Malformed entries are rejected with an InvalidDatasetError and leave the
// dataset unchanged.
func (d *Dataset) AddWeightedFile(path string, crossSection float64, numEvents int64, meanWeight float64) error {
	f := File{Path: path, CrossSection: crossSection, NumEvents: numEvents, MeanWeight: meanWeight}
	if err := f.validate(); err != nil {
		if de, ok := err.(*eferrors.DatasetError); ok {
			de.Dataset = d.sourceID
		}
		return err
	}
	d.files = append(d.files, f)
	if d.sourceID == "" {
		d.sourceID = deriveSourceID(f)
	}
	return nil
}

// Files returns a copy of the file list.
func (d *Dataset) Files() []File {
	return slices.Clone(d.files)
}

// NumFiles returns the number of files.
func (d *Dataset) NumFiles() int {
	return len(d.files)
}

// SourceID returns the label of the source dataset.
func (d *Dataset) SourceID() string {
	return d.sourceID
}

// Process returns the main process code.
func (d *Dataset) Process() Process {
	return d.processCodes[len(d.processCodes)-1]
}

// ProcessCodes returns all process codes, sorted.
func (d *Dataset) ProcessCodes() []Process {
	return slices.Clone(d.processCodes)
}

// TestProcess reports whether code is one of the dataset's process codes.
func (d *Dataset) TestProcess(code Process) bool {
	return slices.Contains(d.processCodes, code)
}

// IsMC reports whether the dataset is simulation. The decision uses the
// smallest process code, so an undefined classification counts as simulation.
func (d *Dataset) IsMC() bool {
	return !d.processCodes[0].IsData()
}

// Generator returns the matrix-element generator tag.
func (d *Dataset) Generator() Generator {
	return d.generator
}

// ShowerGenerator returns the parton-shower tag.
func (d *Dataset) ShowerGenerator() ShowerGenerator {
	return d.showerGenerator
}

// SetFlag sets a user flag. Setting a flag twice is an error, which catches
// two pieces of configuration claiming the same flag.
func (d *Dataset) SetFlag(name string) error {
	if _, ok := d.flags[name]; ok {
		return &eferrors.DatasetError{Dataset: d.sourceID, Message: "flag " + name + " already set"}
	}
	d.flags[name] = struct{}{}
	return nil
}

// UnsetFlag clears a flag. Unknown flags are ignored.
func (d *Dataset) UnsetFlag(name string) {
	delete(d.flags, name)
}

// TestFlag reports whether a flag is set.
func (d *Dataset) TestFlag(name string) bool {
	_, ok := d.flags[name]
	return ok
}

// CopyParameters returns a dataset with the same classification, tags, flags
// and source ID but no files.
func (d *Dataset) CopyParameters() *Dataset {
	c := &Dataset{
		processCodes:    slices.Clone(d.processCodes),
		generator:       d.generator,
		showerGenerator: d.showerGenerator,
		sourceID:        d.sourceID,
		flags:           make(map[string]struct{}, len(d.flags)),
	}
	for f := range d.flags {
		c.flags[f] = struct{}{}
	}
	return c
}

// Split returns one single-file dataset per file, sharing this dataset's
// parameters. Used to spread the files of a large dataset across workers.
func (d *Dataset) Split() []*Dataset {
	out := make([]*Dataset, 0, len(d.files))
	for _, f := range d.files {
		part := d.CopyParameters()
		part.files = []File{f}
		out = append(out, part)
	}
	return out
}

var partSuffix = regexp.MustCompile(`_(p|part)?[0-9]+$`)

// deriveSourceID strips an optional part-number suffix from the file name,
// so "ttbar_p3.root" and "ttbar_4.root" both belong to "ttbar".
func deriveSourceID(f File) string {
	base := f.BaseName()
	if id := partSuffix.ReplaceAllString(base, ""); id != "" {
		return id
	}
	return base
}
