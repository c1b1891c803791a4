package expr

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_Comparisons(t *testing.T) {
	vars := map[string]any{
		"jets.n":    4,
		"jets.tags": int64(1),
		"met.pt":    42.5,
		"ds.id":     "TTJets_madgraph",
		"flag":      true,
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"jets.n == 4", true},
		{"jets.n == 4.0", true},
		{"jets.n != 4", false},
		{"jets.n >= 4", true},
		{"jets.n > 4", false},
		{"jets.n <= 3", false},
		{"jets.n < 5", true},
		{"met.pt>40", true},
		{"jets.tags == jets.n", false},
		{"ds.id == 'TTJets_madgraph'", true},
		{`ds.id == "WJets"`, false},
		{"ds.id contains 'madgraph'", true},
		{"flag == true", true},
		{"flag", true},
		{"!flag", false},
		{"not flag", false},
		{"0", false},
		{"''", false},
		{"null", false},
		{"-1 < 0", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_LogicAndPrecedence(t *testing.T) {
	vars := map[string]any{"a": true, "b": false, "c": true, "n": 3}

	tests := []struct {
		expr string
		want bool
	}{
		{"a and b", false},
		{"a or b", true},
		{"b or b and a", false},
		{"a or b and b", true},
		{"(a or b) and b", false},
		{"not b and a", true},
		{"not (a and c)", false},
		{"(n > 2) and (n < 4)", true},
		{"((a))", true},
		{"a and 'x or y' == 'x or y'", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"(a and b",
		"a and b)",
		"name == 'open",
		"a and",
		"jets.n >= ",
		"two words",
		"1abc == 2",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			assert.Error(t, err)
		})
	}
}

func TestProgram_Identifiers(t *testing.T) {
	p, err := Compile("jets.n >= 2 and (met.pt > 30 or jets.n == 5) and leptons.tight")
	require.NoError(t, err)
	assert.Equal(t, []string{"jets.n", "leptons.tight", "met.pt"}, p.Identifiers())
	assert.Equal(t, "jets.n >= 2 and (met.pt > 30 or jets.n == 5) and leptons.tight", p.String())
}

func TestProgram_UnknownIdentifier(t *testing.T) {
	p, err := Compile("jets.n > 2")
	require.NoError(t, err)

	_, err = p.Eval(Vars{})
	var unknown *UnknownIdentifierError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "jets.n", unknown.Name)

	_, err = p.Eval(nil)
	assert.Error(t, err)
}

func TestProgram_ShortCircuit(t *testing.T) {
	p, err := Compile("gate and missing.value")
	require.NoError(t, err)

	got, err := p.Eval(Vars{"gate": false})
	require.NoError(t, err)
	assert.False(t, got)

	p, err = Compile("gate or missing.value")
	require.NoError(t, err)
	got, err = p.Eval(Vars{"gate": true})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestProgram_ReusedAcrossEnvs(t *testing.T) {
	p, err := Compile("n >= 2 and n <= 3")
	require.NoError(t, err)

	for n, want := range map[int]bool{0: false, 1: false, 2: true, 3: true, 4: false} {
		calls := 0
		env := EnvFunc(func(name string) (any, bool) {
			calls++
			return n, name == "n"
		})
		got, err := p.Eval(env)
		require.NoError(t, err)
		assert.Equal(t, want, got, "n=%d", n)
		assert.Positive(t, calls)
	}
}

func TestCustomOperator(t *testing.T) {
	c := New(WithCustomOperator("matches", func(left, right any) bool {
		ok, _ := regexp.MatchString(fmt.Sprint(right), fmt.Sprint(left))
		return ok
	}))

	p, err := c.Compile("ds.id matches '^TT' and n > 0")
	require.NoError(t, err)

	got, err := p.Eval(Vars{"ds.id": "TTJets", "n": 1})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = p.Eval(Vars{"ds.id": "WJets", "n": 1})
	require.NoError(t, err)
	assert.False(t, got)

	// Without the option the operator is not recognised.
	_, err = Compile("ds.id matches '^TT'")
	assert.Error(t, err)
}

func TestValueHelpers(t *testing.T) {
	assert.True(t, IsTruthy(uint(3)))
	assert.False(t, IsTruthy(float32(0)))
	assert.True(t, IsTruthy(struct{}{}))
	assert.InDelta(t, 2.5, ToFloat64("2.5"), 1e-12)
	assert.InDelta(t, 0.0, ToFloat64([]int{1}), 1e-12)
	assert.True(t, equals(int64(2), 2.0))
	assert.False(t, equals("2", "2.0"))
}
