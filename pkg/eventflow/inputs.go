package eventflow

import (
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/randalmurphal/eventflow/pkg/eventflow/expr"
)

// Inputs reads quantities published by upstream Producer plugins through
// "plugin.key" references. It satisfies expr.Env.
type Inputs struct {
	producers map[string]Producer
}

var _ expr.Env = Inputs{}

// BindInputs resolves each named plugin as a Producer.
func BindInputs(r Resolver, names ...string) (Inputs, error) {
	in := Inputs{producers: make(map[string]Producer, len(names))}
	for _, name := range names {
		p, err := ResolvePlugin[Producer](r, name)
		if err != nil {
			return Inputs{}, err
		}
		in.producers[name] = p
	}
	return in, nil
}

// SplitRef splits "plugin.key" at the first dot.
func SplitRef(ref string) (plugin, key string, ok bool) {
	plugin, key, ok = strings.Cut(ref, ".")
	if !ok || plugin == "" || key == "" {
		return "", "", false
	}
	return plugin, key, true
}

// Lookup returns the quantity behind ref for the current event.
func (in Inputs) Lookup(ref string) (any, bool) {
	plugin, key, ok := SplitRef(ref)
	if !ok {
		return nil, false
	}
	p, ok := in.producers[plugin]
	if !ok {
		return nil, false
	}
	return p.Quantity(key)
}

// Get returns the quantity behind ref or an error naming it.
func (in Inputs) Get(ref string) (any, error) {
	v, ok := in.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("quantity %q not available", ref)
	}
	return v, nil
}

// Int returns the quantity behind ref as an int.
func (in Inputs) Int(ref string) (int, error) {
	v, err := in.Get(ref)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		if n > math.MaxInt {
			return 0, fmt.Errorf("quantity %q: %d overflows int", ref, n)
		}
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, fmt.Errorf("quantity %q: %d overflows int", ref, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("quantity %q: expected integer, got %T", ref, v)
	}
}

// Float returns the quantity behind ref as a float64.
func (in Inputs) Float(ref string) (float64, error) {
	v, err := in.Get(ref)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int, int32, int64, uint, uint32, uint64:
		return expr.ToFloat64(n), nil
	default:
		return 0, fmt.Errorf("quantity %q: expected number, got %T", ref, v)
	}
}

// ComputeFunc derives quantities for one event. Values written to out are
// published under the plugin's name.
type ComputeFunc func(ctx Context, in Inputs, out map[string]any) error

// Compute is a Producer plugin built from a function.
type Compute struct {
	name   string
	inputs []string
	fn     ComputeFunc

	in  Inputs
	out map[string]any
}

// NewCompute creates a Compute plugin reading the named upstream producers.
//
// Example:
//
//	nJets := eventflow.NewCompute("jets", []string{"event"},
//		func(ctx eventflow.Context, in eventflow.Inputs, out map[string]any) error {
//			pts, _ := in.Get("event.jet_pt")
//			out["n"] = countAbove(pts, 30)
//			return nil
//		})
func NewCompute(name string, inputs []string, fn ComputeFunc) *Compute {
	return &Compute{name: name, inputs: inputs, fn: fn, out: make(map[string]any)}
}

// Name implements Plugin.
func (c *Compute) Name() string { return c.name }

// Dependencies implements Plugin.
func (c *Compute) Dependencies() []string { return c.inputs }

// Bind implements Binder.
func (c *Compute) Bind(r Resolver) error {
	in, err := BindInputs(r, c.inputs...)
	if err != nil {
		return err
	}
	c.in = in
	return nil
}

// ResetEvent implements EventResetter.
func (c *Compute) ResetEvent() {
	clear(c.out)
}

// ProcessEvent implements Plugin.
func (c *Compute) ProcessEvent(ctx Context) (Outcome, error) {
	if c.fn == nil {
		return Success, nil
	}
	if err := c.fn(ctx, c.in, c.out); err != nil {
		return Success, err
	}
	return Success, nil
}

// Quantity implements Producer.
func (c *Compute) Quantity(key string) (any, bool) {
	v, ok := c.out[key]
	return v, ok
}

// Values returns a copy of the quantities published for the current event.
func (c *Compute) Values() map[string]any {
	return maps.Clone(c.out)
}

// Fields publishes the fields of the current input record.
type Fields struct {
	name   string
	fields map[string]any
}

// NewFields creates a plugin exposing record fields under name.
func NewFields(name string) *Fields {
	return &Fields{name: name}
}

// Name implements Plugin.
func (f *Fields) Name() string { return f.name }

// Dependencies implements Plugin.
func (f *Fields) Dependencies() []string { return nil }

// ResetEvent implements EventResetter.
func (f *Fields) ResetEvent() { f.fields = nil }

// ProcessEvent implements Plugin.
func (f *Fields) ProcessEvent(ctx Context) (Outcome, error) {
	f.fields = ctx.Event().Fields
	return Success, nil
}

// Quantity implements Producer.
func (f *Fields) Quantity(key string) (any, bool) {
	v, ok := f.fields[key]
	return v, ok
}
