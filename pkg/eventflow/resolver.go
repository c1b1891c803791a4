package eventflow

import (
	"errors"
	"fmt"
	"reflect"
)

// Resolver hands out dependency handles while a plugin binds.
// Only names the plugin declared in Dependencies can be resolved.
type Resolver interface {
	// Owner returns the name of the plugin being bound.
	Owner() string
	// Plugin returns the upstream plugin registered under name.
	Plugin(name string) (Plugin, error)
	// Service returns the service registered under name.
	Service(name string) (any, error)
}

type resolver struct {
	cp       *CompiledPipeline
	owner    string
	declared map[string]struct{}
}

func newResolver(cp *CompiledPipeline, pl Plugin) *resolver {
	declared := make(map[string]struct{})
	for _, d := range pl.Dependencies() {
		declared[d] = struct{}{}
	}
	return &resolver{cp: cp, owner: pl.Name(), declared: declared}
}

func (r *resolver) Owner() string { return r.owner }

func (r *resolver) Plugin(name string) (Plugin, error) {
	if err := r.checkDeclared(name); err != nil {
		return nil, err
	}
	pl, ok := r.cp.plugins.Get(name)
	if !ok {
		return nil, &UnresolvedDependencyError{Plugin: r.owner, Dependency: name, Reason: "not a plugin"}
	}
	return pl, nil
}

func (r *resolver) Service(name string) (any, error) {
	if err := r.checkDeclared(name); err != nil {
		return nil, err
	}
	svc, err := r.cp.services.Lookup(name)
	if err != nil {
		var ue *UnresolvedDependencyError
		if errors.As(err, &ue) {
			ue.Plugin = r.owner
		}
		return nil, err
	}
	return svc, nil
}

func (r *resolver) checkDeclared(name string) error {
	if _, ok := r.declared[name]; !ok {
		return &UnresolvedDependencyError{Plugin: r.owner, Dependency: name, Reason: "not declared as a dependency"}
	}
	return nil
}

// ResolvePlugin resolves an upstream plugin and asserts its type.
//
// Example:
//
//	func (f *JetFilter) Bind(r eventflow.Resolver) error {
//		jets, err := eventflow.ResolvePlugin[*JetBuilder](r, "jets")
//		if err != nil {
//			return err
//		}
//		f.jets = jets
//		return nil
//	}
func ResolvePlugin[T any](r Resolver, name string) (T, error) {
	var zero T
	pl, err := r.Plugin(name)
	if err != nil {
		return zero, err
	}
	t, ok := pl.(T)
	if !ok {
		return zero, &UnresolvedDependencyError{
			Plugin:     r.Owner(),
			Dependency: name,
			Reason:     fmt.Sprintf("plugin is %T, not %s", pl, reflect.TypeFor[T]()),
		}
	}
	return t, nil
}

// ResolveService resolves a service and asserts its type.
func ResolveService[T any](r Resolver, name string) (T, error) {
	var zero T
	svc, err := r.Service(name)
	if err != nil {
		return zero, err
	}
	t, ok := svc.(T)
	if !ok {
		return zero, &UnresolvedDependencyError{
			Plugin:     r.Owner(),
			Dependency: name,
			Reason:     fmt.Sprintf("service is %T, not %s", svc, reflect.TypeFor[T]()),
		}
	}
	return t, nil
}

// ContextService fetches a service from ctx and asserts its type. Use it in
// BeginFile for dataset-scoped services.
func ContextService[T any](ctx Context, name string) (T, error) {
	var zero T
	svc, err := ctx.Service(name)
	if err != nil {
		return zero, err
	}
	t, ok := svc.(T)
	if !ok {
		return zero, &UnresolvedDependencyError{
			Dependency: name,
			Reason:     fmt.Sprintf("service is %T, not %s", svc, reflect.TypeFor[T]()),
		}
	}
	return t, nil
}
