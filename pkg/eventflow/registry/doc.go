// Package registry provides the name-keyed stores used to assemble a pipeline.
//
// Registry is a generic, insertion-ordered map that refuses to rebind a key:
//
//	r := registry.New[string, int]("plugin")
//	_ = r.Register("jets", 1)
//	err := r.Register("jets", 2) // DuplicateNameError, scope "plugin"
//
// Services layers two lifetimes over it. Run-scoped services live as long as
// the pipeline instance; dataset-scoped services are rebuilt by their factory
// (or refreshed in place) at every file boundary:
//
//	svcs := registry.NewServices()
//	_ = svcs.Register("lumi", lumiDB, registry.LifetimeRun)
//	_ = svcs.RegisterFactory("corrector", func(ds *dataset.Dataset, f dataset.File) (any, error) {
//	    return jec.ForEra(ds.SourceID())
//	})
//
//	// once per file, driven by the processor
//	_ = svcs.Refresh(ctx, ds, file)
//	corr, err := svcs.Lookup("corrector")
//
// A dataset-scoped entry shadows a run-scoped entry of the same name. Plugins
// resolve services at bind time and cache the handle, so per-event execution
// never goes through Lookup.
//
// Both types are scoped to one pipeline instance; parallel workers each own
// their own.
package registry
