package aggregate

import (
	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// StaticWeight contributes the same factor to every event.
type StaticWeight struct {
	name string
	c    Contribution
}

// NewStaticWeight creates a provider named name. An empty c.Name defaults
// to name.
func NewStaticWeight(name string, c Contribution) *StaticWeight {
	if c.Name == "" {
		c.Name = name
	}
	return &StaticWeight{name: name, c: c}
}

// Name implements eventflow.Plugin.
func (w *StaticWeight) Name() string { return w.name }

// Dependencies implements eventflow.Plugin.
func (w *StaticWeight) Dependencies() []string { return nil }

// ProcessEvent implements eventflow.Plugin.
func (w *StaticWeight) ProcessEvent(eventflow.Context) (eventflow.Outcome, error) {
	return eventflow.Success, nil
}

// Contribute implements WeightProvider.
func (w *StaticWeight) Contribute(rec *WeightRecord) error {
	return rec.Add(w.c)
}

// DatasetWeight normalises simulated events to an integrated luminosity:
// lumi * xsec / (meanWeight * nEvents) of the current file. Events of real
// data weigh 1.
type DatasetWeight struct {
	name   string
	lumi   float64
	weight float64
}

// NewDatasetWeight creates a provider for an integrated luminosity in 1/pb.
func NewDatasetWeight(name string, lumi float64) *DatasetWeight {
	return &DatasetWeight{name: name, lumi: lumi, weight: 1}
}

// Name implements eventflow.Plugin.
func (w *DatasetWeight) Name() string { return w.name }

// Dependencies implements eventflow.Plugin.
func (w *DatasetWeight) Dependencies() []string { return nil }

// BeginFile implements eventflow.FileHook.
func (w *DatasetWeight) BeginFile(ctx eventflow.Context) error {
	if !ctx.Dataset().IsMC() {
		w.weight = 1
		return nil
	}
	w.weight = w.lumi * ctx.File().Weight()
	ctx.Logger().Debug("dataset weight", "weight", w.weight)
	return nil
}

// ProcessEvent implements eventflow.Plugin.
func (w *DatasetWeight) ProcessEvent(eventflow.Context) (eventflow.Outcome, error) {
	return eventflow.Success, nil
}

// Contribute implements WeightProvider.
func (w *DatasetWeight) Contribute(rec *WeightRecord) error {
	return rec.Add(Contribution{Name: w.name, Nominal: w.weight})
}

// Weight returns the factor applied to events of the current file.
func (w *DatasetWeight) Weight() float64 { return w.weight }

// FieldWeight reads an event weight published by an upstream producer, such
// as a generator weight stored with each record.
type FieldWeight struct {
	name   string
	ref    string
	source string
	vars   [][2]string

	in       eventflow.Inputs
	nominal  float64
	up, down []float64
}

// NewFieldWeight creates a provider reading source.key, where source is a
// producer plugin such as eventflow.Fields.
func NewFieldWeight(name, source, key string) *FieldWeight {
	return &FieldWeight{name: name, source: source, ref: source + "." + key}
}

// WithVariation adds a systematic pair read from the upKey and downKey
// quantities of the same source.
func (w *FieldWeight) WithVariation(upKey, downKey string) *FieldWeight {
	w.vars = append(w.vars, [2]string{w.source + "." + upKey, w.source + "." + downKey})
	return w
}

// Name implements eventflow.Plugin.
func (w *FieldWeight) Name() string { return w.name }

// Dependencies implements eventflow.Plugin.
func (w *FieldWeight) Dependencies() []string { return []string{w.source} }

// Bind implements eventflow.Binder.
func (w *FieldWeight) Bind(r eventflow.Resolver) error {
	if w.source == "" {
		return eferrors.Invalidf(w.name, "source", "weight source is empty")
	}
	in, err := eventflow.BindInputs(r, w.source)
	if err != nil {
		return err
	}
	w.in = in
	w.up = make([]float64, len(w.vars))
	w.down = make([]float64, len(w.vars))
	return nil
}

// ProcessEvent implements eventflow.Plugin. A missing or non-numeric weight
// is a fault.
func (w *FieldWeight) ProcessEvent(eventflow.Context) (eventflow.Outcome, error) {
	var err error
	if w.nominal, err = w.in.Float(w.ref); err != nil {
		return eventflow.Success, err
	}
	for i, v := range w.vars {
		if w.up[i], err = w.in.Float(v[0]); err != nil {
			return eventflow.Success, err
		}
		if w.down[i], err = w.in.Float(v[1]); err != nil {
			return eventflow.Success, err
		}
	}
	return eventflow.Success, nil
}

// Contribute implements WeightProvider.
func (w *FieldWeight) Contribute(rec *WeightRecord) error {
	return rec.Add(Contribution{Name: w.name, Nominal: w.nominal, Up: w.up, Down: w.down})
}
