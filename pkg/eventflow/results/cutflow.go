package results

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// Counter is the frozen state of one event counter.
type Counter struct {
	Label       string   `msgpack:"label"`
	Description string   `msgpack:"description,omitempty"`
	Seen        int64    `msgpack:"seen"`
	Passed      int64    `msgpack:"passed"`
	SumWeights  float64  `msgpack:"sum_weights"`
	EventIDs    []string `msgpack:"event_ids,omitempty"`
}

// Efficiency returns Passed/Seen, or 0 when nothing was seen.
func (c Counter) Efficiency() float64 {
	if c.Seen == 0 {
		return 0
	}
	return float64(c.Passed) / float64(c.Seen)
}

func (c Counter) merge(o Counter) Counter {
	c.Seen += o.Seen
	c.Passed += o.Passed
	c.SumWeights += o.SumWeights
	if c.Description == "" {
		c.Description = o.Description
	}
	if len(o.EventIDs) > 0 {
		c.EventIDs = append(slices.Clone(c.EventIDs), o.EventIDs...)
	}
	return c
}

// Cutflow is an ordered list of counters, one per label.
// The zero value is an empty cut-flow.
type Cutflow struct {
	Counters []Counter `msgpack:"counters"`
}

// NewCutflow builds a cut-flow from counters in schedule order. Counters
// sharing a label are merged.
func NewCutflow(counters ...Counter) Cutflow {
	var c Cutflow
	for _, ctr := range counters {
		c = c.add(ctr)
	}
	return c
}

// Merge returns the union of both cut-flows. Counts of a shared label are
// summed; labels keep their first-seen order, labels only in o are appended.
// Neither operand is modified.
func (c Cutflow) Merge(o Cutflow) Cutflow {
	out := Cutflow{Counters: slices.Clone(c.Counters)}
	for _, ctr := range o.Counters {
		out = out.add(ctr)
	}
	return out
}

func (c Cutflow) add(ctr Counter) Cutflow {
	for i := range c.Counters {
		if c.Counters[i].Label == ctr.Label {
			c.Counters[i] = c.Counters[i].merge(ctr)
			return c
		}
	}
	ctr.EventIDs = slices.Clone(ctr.EventIDs)
	c.Counters = append(c.Counters, ctr)
	return c
}

// Since returns the counts accumulated after earlier was taken. Both
// cut-flows must come from the same counters; labels missing from earlier
// count from zero.
func (c Cutflow) Since(earlier Cutflow) Cutflow {
	out := Cutflow{Counters: make([]Counter, len(c.Counters))}
	for i, ctr := range c.Counters {
		if prev, ok := earlier.Get(ctr.Label); ok {
			ctr.Seen -= prev.Seen
			ctr.Passed -= prev.Passed
			ctr.SumWeights -= prev.SumWeights
			if n := len(prev.EventIDs); n <= len(ctr.EventIDs) {
				ctr.EventIDs = ctr.EventIDs[n:]
			}
		}
		ctr.EventIDs = slices.Clone(ctr.EventIDs)
		out.Counters[i] = ctr
	}
	return out
}

// Get returns the counter with the given label.
func (c Cutflow) Get(label string) (Counter, bool) {
	for _, ctr := range c.Counters {
		if ctr.Label == label {
			return ctr, true
		}
	}
	return Counter{}, false
}

// Labels returns the counter labels in order.
func (c Cutflow) Labels() []string {
	out := make([]string, len(c.Counters))
	for i, ctr := range c.Counters {
		out[i] = ctr.Label
	}
	return out
}

// WriteTable renders the cut-flow as an aligned text table. The relative
// column is each step's passed count over the previous step's passed count.
func (c Cutflow) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "label\tpassed\tweighted\tabsolute\trelative\t")

	var first, prev int64
	for i, ctr := range c.Counters {
		if i == 0 {
			first, prev = ctr.Passed, ctr.Passed
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%s\t%s\t\n",
			ctr.Label, ctr.Passed, ctr.SumWeights, ratio(ctr.Passed, first), ratio(ctr.Passed, prev))
		prev = ctr.Passed
	}
	return tw.Flush()
}

func ratio(num, den int64) string {
	if den == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", 100*float64(num)/float64(den))
}
