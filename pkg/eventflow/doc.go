// Package eventflow runs chains of analysis plugins over event datasets.
//
// A Pipeline declares plugins and services by name. Compile resolves every
// dependency name, orders the plugins so each runs after the plugins it reads,
// and binds cached handles. A Processor then drives the event loop for one
// dataset at a time: for every event, plugins run in order until one returns
// FilterFailed.
//
// Basic usage:
//
//	p := eventflow.NewPipeline().
//		AddPlugin(eventflow.NewFields("event")).
//		AddPlugin(aggregate.NewEventCounter("all")).
//		AddPlugin(jetFilter).
//		AddPlugin(aggregate.NewEventCounter("jets"))
//
//	compiled, err := p.Compile()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proc := eventflow.NewProcessor(compiled, source)
//	summary, err := proc.ProcessDataset(ctx, ds)
//
// For many datasets, RunManager runs independent pipeline instances on a pool
// of workers and merges their cut-flows.
//
// # Error Handling
//
// Assembly problems (duplicate names, unresolved dependencies, cycles, invalid
// plugin settings) are joined and returned from Compile before any event is
// read. A plugin error or panic aborts the run; the returned PluginError or
// PanicError carries the dataset, file and event that were being processed.
// FilterFailed is an outcome, never an error.
package eventflow
