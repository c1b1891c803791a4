package registry

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// Lifetime selects how long a service instance stays valid.
type Lifetime int

const (
	// LifetimeRun services persist across dataset and file boundaries.
	LifetimeRun Lifetime = iota
	// LifetimeDataset services are refreshed at every file boundary and
	// dropped when the dataset ends.
	LifetimeDataset
)

// String returns the scope label used in error messages.
func (l Lifetime) String() string {
	switch l {
	case LifetimeRun:
		return "run"
	case LifetimeDataset:
		return "dataset"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// Factory builds a dataset-scoped service for the file about to be read.
type Factory func(ds *dataset.Dataset, f dataset.File) (any, error)

// Refresher is implemented by services that update themselves in place at a
// file boundary instead of being rebuilt.
type Refresher interface {
	Refresh(ctx context.Context, ds *dataset.Dataset, f dataset.File) error
}

// Services is the named service registry of one pipeline instance.
type Services struct {
	run       *Registry[string, any]
	dataset   *Registry[string, any]
	factories *Registry[string, Factory]

	generation atomic.Uint64
}

// NewServices creates an empty service registry.
func NewServices() *Services {
	return &Services{
		run:       New[string, any](LifetimeRun.String()),
		dataset:   New[string, any](LifetimeDataset.String()),
		factories: New[string, Factory](LifetimeDataset.String()),
	}
}

// Register binds a service instance under name. A name may be bound once per
// lifetime; a second binding in the same lifetime fails with DuplicateNameError.
func (s *Services) Register(name string, svc any, lifetime Lifetime) error {
	switch lifetime {
	case LifetimeRun:
		return s.run.Register(name, svc)
	case LifetimeDataset:
		if s.factories.Has(name) {
			return &eferrors.DuplicateNameError{Name: name, Scope: LifetimeDataset.String()}
		}
		return s.dataset.Register(name, svc)
	default:
		return eferrors.Invalidf("", "lifetime", "unknown lifetime %d for service %q", int(lifetime), name)
	}
}

// RegisterFactory binds a dataset-scoped service built by f at each file
// boundary. The name shares the dataset scope with Register.
func (s *Services) RegisterFactory(name string, f Factory) error {
	if f == nil {
		return eferrors.Invalidf("", "factory", "nil factory for service %q", name)
	}
	if s.dataset.Has(name) {
		return &eferrors.DuplicateNameError{Name: name, Scope: LifetimeDataset.String()}
	}
	return s.factories.Register(name, f)
}

// Lookup returns the service bound to name. Dataset-scoped entries shadow
// run-scoped ones. A factory service that has not been built yet, or a name
// that was never registered, fails with UnresolvedDependencyError.
func (s *Services) Lookup(name string) (any, error) {
	if svc, ok := s.dataset.Get(name); ok {
		return svc, nil
	}
	if svc, ok := s.run.Get(name); ok {
		return svc, nil
	}
	if s.factories.Has(name) {
		return nil, &eferrors.UnresolvedDependencyError{Dependency: name, Reason: "dataset service not built yet"}
	}
	return nil, &eferrors.UnresolvedDependencyError{Dependency: name}
}

// Has reports whether name is registered in any scope, including factories
// that have not been built yet.
func (s *Services) Has(name string) bool {
	return s.dataset.Has(name) || s.run.Has(name) || s.factories.Has(name)
}

// Lifetime returns the scope name is registered in.
func (s *Services) Lifetime(name string) (Lifetime, bool) {
	switch {
	case s.dataset.Has(name), s.factories.Has(name):
		return LifetimeDataset, true
	case s.run.Has(name):
		return LifetimeRun, true
	}
	return 0, false
}

// Names returns every registered name: run scope first, then dataset scope,
// each in registration order. A name bound in both scopes appears once.
func (s *Services) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	add(s.run.Keys())
	add(s.dataset.Keys())
	add(s.factories.Keys())
	return out
}

// Refresh prepares dataset-scoped services for file f of ds: factories are
// re-run and services implementing Refresher are refreshed in place.
// Handles obtained before Refresh must be resolved again afterwards.
func (s *Services) Refresh(ctx context.Context, ds *dataset.Dataset, f dataset.File) error {
	var err error
	s.factories.Range(func(name string, build Factory) bool {
		var svc any
		svc, err = build(ds, f)
		if err != nil {
			err = fmt.Errorf("build service %q: %w", name, err)
			return false
		}
		s.dataset.Replace(name, svc)
		return true
	})
	if err != nil {
		return err
	}

	s.dataset.Range(func(name string, svc any) bool {
		r, ok := svc.(Refresher)
		if !ok {
			return true
		}
		if rerr := r.Refresh(ctx, ds, f); rerr != nil {
			err = fmt.Errorf("refresh service %q: %w", name, rerr)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	s.generation.Add(1)
	return nil
}

// ResetDataset drops the instances built by factories. Lookups of those
// names fail until the next Refresh.
func (s *Services) ResetDataset() {
	for _, name := range s.factories.Keys() {
		s.dataset.Delete(name)
	}
	s.generation.Add(1)
}

// Generation increases every time dataset-scoped handles are invalidated.
// A handle cached at generation g is valid while Generation() == g.
func (s *Services) Generation() uint64 {
	return s.generation.Load()
}
