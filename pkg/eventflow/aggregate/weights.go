package aggregate

import (
	"fmt"
	"slices"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// Contribution is one multiplicative factor of an event weight. Up and Down
// hold paired systematic variations of Nominal.
type Contribution struct {
	Name    string
	Nominal float64
	Up      []float64
	Down    []float64
}

// NumVariations returns the number of up/down pairs.
func (c Contribution) NumVariations() int {
	return len(c.Up)
}

func (c Contribution) validate() error {
	if c.Name == "" {
		return eferrors.Invalidf("", "weight", "contribution name is empty")
	}
	if len(c.Up) != len(c.Down) {
		return eferrors.Invalidf("", "weight", "contribution %q has %d up and %d down variations",
			c.Name, len(c.Up), len(c.Down))
	}
	return nil
}

// WeightRecord holds the contributions published for one event, in the
// order they were added. The combined weight is their product; an empty
// record weighs 1.
type WeightRecord struct {
	contribs []Contribution
}

// Add appends a contribution. A name already added since the last Reset
// yields a DuplicateWeightError.
func (r *WeightRecord) Add(c Contribution) error {
	if err := c.validate(); err != nil {
		return err
	}
	if r.index(c.Name) >= 0 {
		return &eferrors.DuplicateWeightError{Name: c.Name}
	}
	c.Up = slices.Clone(c.Up)
	c.Down = slices.Clone(c.Down)
	r.contribs = append(r.contribs, c)
	return nil
}

// Reset drops all contributions.
func (r *WeightRecord) Reset() {
	r.contribs = r.contribs[:0]
}

// Len returns the number of contributions.
func (r *WeightRecord) Len() int { return len(r.contribs) }

// Names returns contribution names in insertion order.
func (r *WeightRecord) Names() []string {
	out := make([]string, len(r.contribs))
	for i, c := range r.contribs {
		out[i] = c.Name
	}
	return out
}

// Get returns the named contribution.
func (r *WeightRecord) Get(name string) (Contribution, bool) {
	if i := r.index(name); i >= 0 {
		return r.contribs[i], true
	}
	return Contribution{}, false
}

// Nominal returns the product of all nominal factors.
func (r *WeightRecord) Nominal() float64 {
	w := 1.0
	for _, c := range r.contribs {
		w *= c.Nominal
	}
	return w
}

// Up returns the combined weight with the named contribution replaced by its
// i-th up variation.
func (r *WeightRecord) Up(name string, i int) (float64, error) {
	return r.shifted(name, i, func(c Contribution) float64 { return c.Up[i] })
}

// Down returns the combined weight with the named contribution replaced by
// its i-th down variation.
func (r *WeightRecord) Down(name string, i int) (float64, error) {
	return r.shifted(name, i, func(c Contribution) float64 { return c.Down[i] })
}

func (r *WeightRecord) shifted(name string, i int, pick func(Contribution) float64) (float64, error) {
	at := r.index(name)
	if at < 0 {
		return 0, fmt.Errorf("weight %q not in record", name)
	}
	if i < 0 || i >= r.contribs[at].NumVariations() {
		return 0, fmt.Errorf("weight %q: variation %d out of range [0,%d)", name, i, r.contribs[at].NumVariations())
	}

	w := 1.0
	for j, c := range r.contribs {
		if j == at {
			w *= pick(c)
		} else {
			w *= c.Nominal
		}
	}
	return w, nil
}

func (r *WeightRecord) index(name string) int {
	return slices.IndexFunc(r.contribs, func(c Contribution) bool { return c.Name == name })
}
