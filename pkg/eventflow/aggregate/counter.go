package aggregate

import (
	"slices"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	"github.com/randalmurphal/eventflow/pkg/eventflow/results"
)

// CounterOption configures an EventCounter.
type CounterOption func(*EventCounter)

// WithLabel sets the cut-flow label. It defaults to the plugin name.
func WithLabel(label string) CounterOption {
	return func(c *EventCounter) { c.label = label }
}

// WithDescription sets a free-text description of the selection step.
func WithDescription(desc string) CounterOption {
	return func(c *EventCounter) { c.desc = desc }
}

// WithWeights sums the nominal weight of the named WeightCollector over
// passed events. Without it every event weighs 1.
func WithWeights(collector string) CounterOption {
	return func(c *EventCounter) { c.collector = collector }
}

// WithEventIDs records the ID of every passed event.
func WithEventIDs() CounterOption {
	return func(c *EventCounter) { c.recordIDs = true }
}

// EventCounter counts the events that reach it. Seen counts every event
// started in the pipeline; Passed counts events for which it ran, so
// placing it after a filter counts the events the filter accepted. It never
// rejects an event.
type EventCounter struct {
	name      string
	deps      []string
	label     string
	desc      string
	collector string
	recordIDs bool

	weights *WeightCollector
	state   results.Counter
}

// NewEventCounter creates a counter running after deps.
func NewEventCounter(name string, deps []string, opts ...CounterOption) *EventCounter {
	c := &EventCounter{name: name, label: name}
	for _, opt := range opts {
		opt(c)
	}
	c.deps = slices.Clone(deps)
	if c.collector != "" && !slices.Contains(c.deps, c.collector) {
		c.deps = append(c.deps, c.collector)
	}
	c.state = results.Counter{Label: c.label, Description: c.desc}
	return c
}

// Name implements eventflow.Plugin.
func (c *EventCounter) Name() string { return c.name }

// Dependencies implements eventflow.Plugin.
func (c *EventCounter) Dependencies() []string { return c.deps }

// Label returns the cut-flow label.
func (c *EventCounter) Label() string { return c.label }

// Bind implements eventflow.Binder.
func (c *EventCounter) Bind(r eventflow.Resolver) error {
	if c.collector == "" {
		return nil
	}
	w, err := eventflow.ResolvePlugin[*WeightCollector](r, c.collector)
	if err != nil {
		return err
	}
	c.weights = w
	return nil
}

// ResetEvent implements eventflow.EventResetter.
func (c *EventCounter) ResetEvent() {
	c.state.Seen++
}

// ProcessEvent implements eventflow.Plugin.
func (c *EventCounter) ProcessEvent(ctx eventflow.Context) (eventflow.Outcome, error) {
	c.state.Passed++
	if c.weights != nil {
		c.state.SumWeights += c.weights.Weight()
	} else {
		c.state.SumWeights++
	}
	if c.recordIDs {
		c.state.EventIDs = append(c.state.EventIDs, ctx.Event().ID.String())
	}
	return eventflow.Success, nil
}

// Snapshot implements eventflow.Snapshotter.
func (c *EventCounter) Snapshot() results.Counter {
	s := c.state
	s.EventIDs = slices.Clone(c.state.EventIDs)
	return s
}
