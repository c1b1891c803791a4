package eventflow

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(name string, deps ...string) Plugin {
	return Func(name, deps, nil)
}

func TestCompile_Order(t *testing.T) {
	tests := []struct {
		name    string
		plugins []Plugin
		want    []string
	}{
		{
			name:    "independent plugins keep declaration order",
			plugins: []Plugin{noop("a"), noop("b"), noop("c")},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "dependency declared later moves ahead",
			plugins: []Plugin{noop("filter", "jets"), noop("jets")},
			want:    []string{"jets", "filter"},
		},
		{
			name: "ties broken by declaration index",
			plugins: []Plugin{
				noop("weights", "event"),
				noop("counter"),
				noop("event"),
				noop("jets", "event"),
			},
			want: []string{"counter", "event", "weights", "jets"},
		},
		{
			name: "diamond",
			plugins: []Plugin{
				noop("sink", "left", "right"),
				noop("right", "src"),
				noop("left", "src"),
				noop("src"),
			},
			want: []string{"src", "right", "left", "sink"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline()
			for _, pl := range tt.plugins {
				p.AddPlugin(pl)
			}
			cp := compile(t, p)
			assert.Equal(t, tt.want, cp.Order())
		})
	}
}

func TestCompile_OrderIsDeterministicAndRespectsEdges(t *testing.T) {
	for trial := range 50 {
		build := func() *Pipeline {
			r := rand.New(rand.NewPCG(uint64(trial), 3))
			n := 2 + r.IntN(12)
			p := NewPipeline()
			for i := range n {
				// Depend only on plugins declared later: acyclic, and every
				// edge forces a reordering.
				var deps []string
				for j := i + 1; j < n; j++ {
					if r.IntN(3) == 0 {
						deps = append(deps, fmt.Sprintf("p%d", j))
					}
				}
				p.AddPlugin(noop(fmt.Sprintf("p%d", i), deps...))
			}
			return p
		}

		first := compile(t, build())
		second := compile(t, build())
		require.Equal(t, first.Order(), second.Order(), "trial %d", trial)

		for _, name := range first.Order() {
			for _, dep := range first.Dependencies(name) {
				assert.Less(t, first.Position(dep), first.Position(name),
					"trial %d: %s must run after %s", trial, name, dep)
			}
		}
	}
}

func TestCompile_DuplicateNames(t *testing.T) {
	t.Run("plugin twice", func(t *testing.T) {
		_, err := NewPipeline().AddPlugin(noop("jets")).AddPlugin(noop("jets")).Compile()
		require.ErrorIs(t, err, ErrDuplicateName)

		var dup *DuplicateNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "jets", dup.Name)
		assert.Equal(t, "plugin", dup.Scope)
	})

	t.Run("service shares plugin name", func(t *testing.T) {
		_, err := NewPipeline().
			AddPlugin(noop("jets")).
			AddService("jets", struct{}{}, registry.LifetimeRun).
			Compile()
		require.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("plugin shares service name", func(t *testing.T) {
		_, err := NewPipeline().
			AddService("corrector", struct{}{}, registry.LifetimeRun).
			AddPlugin(noop("corrector")).
			Compile()
		require.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("service twice in one lifetime", func(t *testing.T) {
		_, err := NewPipeline().
			AddService("corrector", 1, registry.LifetimeDataset).
			AddService("corrector", 2, registry.LifetimeDataset).
			Compile()
		require.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("service in both lifetimes", func(t *testing.T) {
		cp, err := NewPipeline().
			AddService("corrector", 1, registry.LifetimeRun).
			AddService("corrector", 2, registry.LifetimeDataset).
			Compile()
		require.NoError(t, err)
		svc, err := cp.Services().Lookup("corrector")
		require.NoError(t, err)
		assert.Equal(t, 2, svc)
	})
}

func TestCompile_InvalidNames(t *testing.T) {
	_, err := NewPipeline().
		AddPlugin(noop("")).
		AddPlugin(noop("two words")).
		AddService(" ", 1, registry.LifetimeRun).
		Compile()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 3)
}

func TestCompile_NilPluginPanics(t *testing.T) {
	assert.Panics(t, func() { NewPipeline().AddPlugin(nil) })
}

func TestCompile_UnresolvedDependency(t *testing.T) {
	_, err := NewPipeline().
		AddPlugin(noop("jets", "event")).
		AddPlugin(noop("filter", "jets", "corrector")).
		AddService("event", struct{}{}, registry.LifetimeRun).
		Compile()
	require.ErrorIs(t, err, ErrUnresolvedDependency)

	var ue *UnresolvedDependencyError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "filter", ue.Plugin)
	assert.Equal(t, "corrector", ue.Dependency)
	assert.Contains(t, err.Error(), `plugin "filter" depends on "corrector"`)
}

func TestCompile_Cycles(t *testing.T) {
	tests := []struct {
		name    string
		plugins []Plugin
		path    []string
	}{
		{
			name:    "two plugins",
			plugins: []Plugin{noop("a", "b"), noop("b", "a")},
			path:    []string{"a", "b", "a"},
		},
		{
			name:    "self dependency",
			plugins: []Plugin{noop("x"), noop("a", "a")},
			path:    []string{"a", "a"},
		},
		{
			name:    "three plugins behind an acyclic prefix",
			plugins: []Plugin{noop("src"), noop("a", "src", "c"), noop("b", "a"), noop("c", "b")},
			path:    []string{"a", "c", "b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 3 {
				p := NewPipeline()
				for _, pl := range tt.plugins {
					p.AddPlugin(pl)
				}
				_, err := p.Compile()
				require.ErrorIs(t, err, ErrCyclicDependency)

				var ce *CyclicDependencyError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.path, ce.Path)
			}
		})
	}
}

func TestCompile_JoinsAllErrors(t *testing.T) {
	_, err := NewPipeline().
		AddPlugin(noop("a", "b")).
		AddPlugin(noop("b", "a")).
		AddPlugin(noop("a")).
		AddPlugin(noop("c", "missing")).
		Compile()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.ErrorIs(t, err, ErrUnresolvedDependency)
}

func TestCompiledPipeline_Introspection(t *testing.T) {
	cp := compile(t, NewPipeline().
		AddService("corrector", "v1", registry.LifetimeRun).
		AddPlugin(noop("filter", "jets", "leptons")).
		AddPlugin(noop("leptons", "event")).
		AddPlugin(noop("jets", "event", "corrector")).
		AddPlugin(noop("event")))

	assert.Equal(t, []string{"event", "leptons", "jets", "filter"}, cp.Order())
	assert.Equal(t, 4, cp.Len())
	assert.Equal(t, 0, cp.Position("event"))
	assert.Equal(t, -1, cp.Position("nope"))
	assert.Equal(t, []string{"event", "corrector"}, cp.Dependencies("jets"))
	assert.Equal(t, []string{"leptons", "jets"}, cp.Dependents("event"))
	assert.Empty(t, cp.Dependents("filter"))

	pl, ok := cp.Plugin("jets")
	require.True(t, ok)
	assert.Equal(t, "jets", pl.Name())
	_, ok = cp.Plugin("corrector")
	assert.False(t, ok)
	assert.True(t, cp.Services().Has("corrector"))
}

// binding resolves its dependencies with the given function.
type binding struct {
	name string
	deps []string
	bind func(r Resolver) error
}

func (b *binding) Name() string                          { return b.name }
func (b *binding) Dependencies() []string                { return b.deps }
func (b *binding) ProcessEvent(Context) (Outcome, error) { return Success, nil }
func (b *binding) Bind(r Resolver) error                 { return b.bind(r) }

func TestCompile_Bind(t *testing.T) {
	type corrector struct{ version string }

	t.Run("resolves plugins and services", func(t *testing.T) {
		var gotPlugin *Fields
		var gotService *corrector
		_, err := NewPipeline().
			AddService("corrector", &corrector{version: "v2"}, registry.LifetimeRun).
			AddPlugin(&binding{name: "jets", deps: []string{"event", "corrector"}, bind: func(r Resolver) error {
				var err error
				if gotPlugin, err = ResolvePlugin[*Fields](r, "event"); err != nil {
					return err
				}
				gotService, err = ResolveService[*corrector](r, "corrector")
				return err
			}}).
			AddPlugin(NewFields("event")).
			Compile()
		require.NoError(t, err)
		assert.Equal(t, "event", gotPlugin.Name())
		assert.Equal(t, "v2", gotService.version)
	})

	t.Run("undeclared dependency", func(t *testing.T) {
		_, err := NewPipeline().
			AddPlugin(NewFields("event")).
			AddPlugin(&binding{name: "jets", bind: func(r Resolver) error {
				_, err := r.Plugin("event")
				return err
			}}).
			Compile()
		require.ErrorIs(t, err, ErrUnresolvedDependency)
		assert.ErrorContains(t, err, "not declared as a dependency")

		var pe *PluginError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "jets", pe.Plugin)
		assert.Equal(t, "bind", pe.Op)
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := NewPipeline().
			AddService("corrector", "not a corrector", registry.LifetimeRun).
			AddPlugin(&binding{name: "jets", deps: []string{"corrector"}, bind: func(r Resolver) error {
				_, err := ResolveService[*corrector](r, "corrector")
				return err
			}}).
			Compile()
		require.ErrorIs(t, err, ErrUnresolvedDependency)
		assert.ErrorContains(t, err, "service is string")

		var ue *UnresolvedDependencyError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "jets", ue.Plugin)
	})

	t.Run("service resolved as plugin", func(t *testing.T) {
		_, err := NewPipeline().
			AddService("corrector", 1, registry.LifetimeRun).
			AddPlugin(&binding{name: "jets", deps: []string{"corrector"}, bind: func(r Resolver) error {
				_, err := r.Plugin("corrector")
				return err
			}}).
			Compile()
		assert.ErrorContains(t, err, "not a plugin")
	})

	t.Run("panic", func(t *testing.T) {
		_, err := NewPipeline().
			AddPlugin(&binding{name: "jets", bind: func(Resolver) error { panic("boom") }}).
			Compile()
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "bind", pe.Op)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("all failures reported", func(t *testing.T) {
		fail := func(Resolver) error { return errors.New("nope") }
		_, err := NewPipeline().
			AddPlugin(&binding{name: "a", bind: fail}).
			AddPlugin(&binding{name: "b", bind: fail}).
			Compile()
		assert.ErrorContains(t, err, "plugin a: bind: nope")
		assert.ErrorContains(t, err, "plugin b: bind: nope")
	})
}
