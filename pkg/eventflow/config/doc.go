/*
Package config provides tolerant, typed access to YAML and JSON documents.

Pipelines are usually described in a small YAML file: the datasets to read,
the selection bins of each filter, the cut expressions. config turns the
decoded document into a Config whose accessors return defaults instead of
failing, and lets packages like dataset and filter walk nested sections:

	cfg, err := config.FromFile("analysis.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	jets, _ := cfg.Sub("jet_filter")
	minPt := jets.Float("min_pt", 30)
	bins, err := jets.List("bins")

Every section remembers its dotted path (Path, Key), so validation errors can
point at "jet_filter.bins[1]" rather than at a bare value.

Numbers are coerced the way YAML and JSON decoders produce them: JSON yields
float64 for everything, so Int accepts a float64 without a fractional part.
*/
package config
