package aggregate

import (
	"fmt"
	"slices"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// WeightProvider is a plugin that publishes weight contributions for the
// current event.
type WeightProvider interface {
	eventflow.Plugin
	// Contribute adds this event's contributions to rec.
	Contribute(rec *WeightRecord) error
}

// WeightCollector combines the contributions of its providers into one
// per-event weight. Providers are its dependencies, so they run first.
type WeightCollector struct {
	name      string
	names     []string
	providers []WeightProvider
	rec       WeightRecord

	systName string
	syst     *Systematics
	active   Variation
	weight   float64
}

// NewWeightCollector creates a collector over the named providers.
func NewWeightCollector(name string, providers ...string) *WeightCollector {
	return &WeightCollector{name: name, names: providers, weight: 1}
}

// WithSystematics makes Weight follow the variation requested from the
// named Systematics service. A requested directional label that matches a
// contribution name swaps in that contribution's first up or down factor.
func (c *WeightCollector) WithSystematics(service string) *WeightCollector {
	c.systName = service
	return c
}

// Name implements eventflow.Plugin.
func (c *WeightCollector) Name() string { return c.name }

// Dependencies implements eventflow.Plugin.
func (c *WeightCollector) Dependencies() []string {
	if c.systName == "" {
		return c.names
	}
	return append(slices.Clone(c.names), c.systName)
}

// Bind implements eventflow.Binder. Every provider must be a WeightProvider.
func (c *WeightCollector) Bind(r eventflow.Resolver) error {
	if len(c.names) == 0 {
		return eferrors.Invalidf(c.name, "providers", "at least one weight provider is required")
	}
	c.providers = c.providers[:0]
	for _, n := range c.names {
		p, err := eventflow.ResolvePlugin[WeightProvider](r, n)
		if err != nil {
			return err
		}
		c.providers = append(c.providers, p)
	}
	if c.systName != "" {
		syst, err := eventflow.ResolveService[*Systematics](r, c.systName)
		if err != nil {
			return err
		}
		c.syst = syst
	}
	return nil
}

// ResetEvent implements eventflow.EventResetter.
func (c *WeightCollector) ResetEvent() {
	c.rec.Reset()
	c.active = Variation{}
	c.weight = 1
}

// ProcessEvent implements eventflow.Plugin.
func (c *WeightCollector) ProcessEvent(eventflow.Context) (eventflow.Outcome, error) {
	for _, p := range c.providers {
		if err := p.Contribute(&c.rec); err != nil {
			return eventflow.Success, fmt.Errorf("weights from %s: %w", p.Name(), err)
		}
	}
	w, err := c.combine()
	if err != nil {
		return eventflow.Success, err
	}
	c.weight = w
	return eventflow.Success, nil
}

// combine applies at most one requested directional variation whose label
// names a contribution.
func (c *WeightCollector) combine() (float64, error) {
	if c.syst == nil {
		return c.rec.Nominal(), nil
	}
	for _, v := range c.syst.Requested() {
		if v.Direction == NoDirection {
			continue
		}
		if _, ok := c.rec.Get(v.Label); !ok {
			continue
		}
		if c.active.Label != "" {
			return 0, fmt.Errorf("systematics %s and %s both vary the weight", c.active, v)
		}
		c.active = v
	}

	switch c.active.Direction {
	case Up:
		return c.rec.Up(c.active.Label, 0)
	case Down:
		return c.rec.Down(c.active.Label, 0)
	default:
		return c.rec.Nominal(), nil
	}
}

// Weight returns the combined weight of the current event, with the
// requested systematic variation applied.
func (c *WeightCollector) Weight() float64 { return c.weight }

// Variation returns the variation applied to the current event, if any.
func (c *WeightCollector) Variation() (Variation, bool) {
	return c.active, c.active.Label != ""
}

// WeightUp returns the combined weight with the i-th up variation of the
// named contribution.
func (c *WeightCollector) WeightUp(name string, i int) (float64, error) { return c.rec.Up(name, i) }

// WeightDown returns the combined weight with the i-th down variation of the
// named contribution.
func (c *WeightCollector) WeightDown(name string, i int) (float64, error) { return c.rec.Down(name, i) }

// Record returns the current event's contributions. It is overwritten by
// the next event.
func (c *WeightCollector) Record() *WeightRecord { return &c.rec }

// Quantity implements eventflow.Producer, publishing "weight".
func (c *WeightCollector) Quantity(key string) (any, bool) {
	if key == "weight" {
		return c.weight, true
	}
	return nil, false
}
