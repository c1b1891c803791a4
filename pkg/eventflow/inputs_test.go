package eventflow

import (
	"errors"
	"math"
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRef(t *testing.T) {
	tests := []struct {
		ref         string
		plugin, key string
		ok          bool
	}{
		{"jets.n", "jets", "n", true},
		{"jets.pt.lead", "jets", "pt.lead", true},
		{"jets", "", "", false},
		{".n", "", "", false},
		{"jets.", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			plugin, key, ok := SplitRef(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.plugin, plugin)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestCompute_PublishesQuantities(t *testing.T) {
	var got []int
	sum := NewCompute("sum", []string{"event"}, func(ctx Context, in Inputs, out map[string]any) error {
		n, err := in.Int("event.n")
		if err != nil {
			return err
		}
		out["n2"] = n * 2
		out["half"] = float64(n) / 2
		return nil
	})
	check := NewCompute("check", []string{"sum"}, func(ctx Context, in Inputs, out map[string]any) error {
		n2, err := in.Int("sum.n2")
		if err != nil {
			return err
		}
		half, err := in.Float("sum.half")
		if err != nil {
			return err
		}
		got = append(got, n2+int(half*2))
		return nil
	})

	cp := compile(t, NewPipeline().AddPlugin(check).AddPlugin(sum).AddPlugin(NewFields("event")))
	assert.Equal(t, []string{"event", "sum", "check"}, cp.Order())

	ds := newDataset(t, "ttbar", 1)
	_, err := NewProcessor(cp, fill(NewMemorySource(), ds, 3)).ProcessDataset(testCtx(), ds)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, got)
	assert.Equal(t, map[string]any{"n2": 4, "half": 1.0}, sum.Values())
}

func TestCompute_ResetClearsQuantities(t *testing.T) {
	c := NewCompute("c", nil, func(ctx Context, in Inputs, out map[string]any) error {
		out["x"] = 1
		return nil
	})
	_, err := c.ProcessEvent(NewContext(testCtx()))
	require.NoError(t, err)
	_, ok := c.Quantity("x")
	assert.True(t, ok)

	c.ResetEvent()
	_, ok = c.Quantity("x")
	assert.False(t, ok)
}

func TestCompute_ErrorPropagates(t *testing.T) {
	sentinel := errors.New("bad input")
	c := NewCompute("c", nil, func(Context, Inputs, map[string]any) error { return sentinel })
	cp := compile(t, NewPipeline().AddPlugin(c))

	ds := newDataset(t, "ttbar", 1)
	_, err := NewProcessor(cp, fill(NewMemorySource(), ds, 1)).ProcessDataset(testCtx(), ds)
	assert.ErrorIs(t, err, sentinel)
}

func TestBindInputs_RequiresProducer(t *testing.T) {
	_, err := NewPipeline().
		AddPlugin(noop("plain")).
		AddPlugin(NewCompute("c", []string{"plain"}, nil)).
		Compile()
	require.ErrorIs(t, err, ErrUnresolvedDependency)
	assert.ErrorContains(t, err, "not eventflow.Producer")
}

func TestInputs_Conversions(t *testing.T) {
	fields := NewFields("event")
	fields.fields = map[string]any{
		"i64":  int64(4),
		"u32":  uint32(5),
		"u64":  uint64(math.MaxUint64),
		"uint": uint(math.MaxInt) + 1,
		"f32":  float32(1.5),
		"text": "x",
	}
	in := Inputs{producers: map[string]Producer{"event": fields}}

	n, err := in.Int("event.i64")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = in.Int("event.u32")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = in.Int("event.u64")
	assert.ErrorContains(t, err, "overflows int")
	_, err = in.Int("event.uint")
	assert.ErrorContains(t, err, "overflows int")

	f, err := in.Float("event.f32")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-9)

	f, err = in.Float("event.i64")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, f, 1e-9)

	_, err = in.Int("event.text")
	assert.ErrorContains(t, err, "expected integer, got string")
	_, err = in.Float("event.text")
	assert.ErrorContains(t, err, "expected number")
	_, err = in.Int("event.missing")
	assert.ErrorContains(t, err, `quantity "event.missing" not available`)
	_, err = in.Get("other.n")
	assert.Error(t, err)
}

func TestInputs_AsExpressionEnv(t *testing.T) {
	fields := NewFields("event")
	fields.fields = map[string]any{"njets": 4, "trigger": true}
	in := Inputs{producers: map[string]Producer{"event": fields}}

	prog, err := expr.Compile("event.njets >= 4 and event.trigger")
	require.NoError(t, err)
	ok, err := prog.Eval(in)
	require.NoError(t, err)
	assert.True(t, ok)
}
