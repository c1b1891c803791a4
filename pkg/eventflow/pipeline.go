package eventflow

import (
	"strings"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/randalmurphal/eventflow/pkg/eventflow/registry"
)

// Pipeline is a mutable builder for a plugin chain.
// Add plugins and services by name, then call Compile.
//
// Pipeline is not safe for concurrent use. Each worker builds its own.
//
// Example:
//
//	compiled, err := eventflow.NewPipeline().
//	    AddService("corrector", corr, registry.LifetimeRun).
//	    AddPlugin(jets).
//	    AddPlugin(jetFilter).
//	    Compile()
type Pipeline struct {
	plugins  []Plugin
	index    map[string]int
	services *registry.Services
	errs     []error
}

// NewPipeline creates an empty pipeline builder.
func NewPipeline() *Pipeline {
	return &Pipeline{
		index:    make(map[string]int),
		services: registry.NewServices(),
	}
}

// AddPlugin appends a plugin. Declaration order breaks ties in the schedule.
// Naming problems are reported by Compile.
//
// Panics if p is nil.
func (p *Pipeline) AddPlugin(pl Plugin) *Pipeline {
	if pl == nil {
		panic("eventflow: plugin cannot be nil")
	}
	name := pl.Name()
	switch {
	case !validName(name):
		p.errs = append(p.errs, eferrors.Invalidf(name, "name", "plugin name must be non-empty and contain no whitespace"))
		return p
	case p.hasPlugin(name):
		p.errs = append(p.errs, &eferrors.DuplicateNameError{Name: name, Scope: "plugin"})
		return p
	case p.services.Has(name):
		p.errs = append(p.errs, &eferrors.DuplicateNameError{Name: name, Scope: "pipeline"})
		return p
	}
	p.index[name] = len(p.plugins)
	p.plugins = append(p.plugins, pl)
	return p
}

// AddService registers a service instance under name.
func (p *Pipeline) AddService(name string, svc any, lifetime registry.Lifetime) *Pipeline {
	if err := p.checkServiceName(name); err != nil {
		p.errs = append(p.errs, err)
		return p
	}
	if err := p.services.Register(name, svc, lifetime); err != nil {
		p.errs = append(p.errs, err)
	}
	return p
}

// AddServiceFactory registers a dataset-scoped service rebuilt by f for every
// file.
func (p *Pipeline) AddServiceFactory(name string, f registry.Factory) *Pipeline {
	if err := p.checkServiceName(name); err != nil {
		p.errs = append(p.errs, err)
		return p
	}
	if err := p.services.RegisterFactory(name, f); err != nil {
		p.errs = append(p.errs, err)
	}
	return p
}

// Len returns the number of plugins added so far.
func (p *Pipeline) Len() int {
	return len(p.plugins)
}

func (p *Pipeline) checkServiceName(name string) error {
	if !validName(name) {
		return eferrors.Invalidf("", "service", "service name %q must be non-empty and contain no whitespace", name)
	}
	if p.hasPlugin(name) {
		return &eferrors.DuplicateNameError{Name: name, Scope: "pipeline"}
	}
	return nil
}

func (p *Pipeline) hasPlugin(name string) bool {
	_, ok := p.index[name]
	return ok
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\n\r")
}
