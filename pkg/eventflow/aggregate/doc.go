// Package aggregate provides plugins that observe the events reaching them:
// cut-flow counters and event weights.
//
// An EventCounter placed after a filter counts the events that filter
// accepted. A WeightCollector multiplies the contributions of its weight
// providers into one per-event weight, with up and down variations for
// systematic uncertainties:
//
//	p := eventflow.NewPipeline().
//		AddPlugin(eventflow.NewFields("event")).
//		AddPlugin(aggregate.NewDatasetWeight("xsec", 41.5)).
//		AddPlugin(aggregate.NewFieldWeight("gen", "event", "gen_weight")).
//		AddPlugin(aggregate.NewWeightCollector("weights", "xsec", "gen")).
//		AddPlugin(aggregate.NewEventCounter("all", nil, aggregate.WithWeights("weights"))).
//		AddPlugin(jetSelection).
//		AddPlugin(aggregate.NewEventCounter("jets", []string{"selection"}, aggregate.WithWeights("weights")))
package aggregate
