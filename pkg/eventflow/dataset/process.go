package dataset

import (
	"fmt"
	"strings"
)

// Process classifies the physics content of a dataset.
// Codes are ordered: a dataset with several codes sorts them ascending, and
// the most specific (largest) code is the dataset's main process.
type Process int

// Process codes. Data codes come first so that a sorted code list starts with
// a data code whenever the dataset is collision data.
const (
	ProcessUndefined Process = iota
	ProcessData
	ProcessData13TeV
	ProcessTTbar
	ProcessTTbarSemiLep
	ProcessTTbarDiLep
	ProcessSingleTop
	ProcessSingleTopTChan
	ProcessSingleTopTW
	ProcessWJets
	ProcessZJets
	ProcessDiboson
	ProcessQCD
	ProcessHiggs
)

var processNames = map[Process]string{
	ProcessUndefined:      "undefined",
	ProcessData:           "data",
	ProcessData13TeV:      "data_13tev",
	ProcessTTbar:          "ttbar",
	ProcessTTbarSemiLep:   "ttbar_semilep",
	ProcessTTbarDiLep:     "ttbar_dilep",
	ProcessSingleTop:      "single_top",
	ProcessSingleTopTChan: "single_top_tchan",
	ProcessSingleTopTW:    "single_top_tw",
	ProcessWJets:          "wjets",
	ProcessZJets:          "zjets",
	ProcessDiboson:        "diboson",
	ProcessQCD:            "qcd",
	ProcessHiggs:          "higgs",
}

// String returns the configuration name of the process.
func (p Process) String() string {
	if s, ok := processNames[p]; ok {
		return s
	}
	return fmt.Sprintf("process(%d)", int(p))
}

// IsData reports whether the code denotes collision data.
func (p Process) IsData() bool {
	return p == ProcessData || p == ProcessData13TeV
}

// ParseProcess maps a configuration name to a Process code.
func ParseProcess(s string) (Process, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range processNames {
		if name == want {
			return p, nil
		}
	}
	return ProcessUndefined, fmt.Errorf("unknown process %q", s)
}

// Generator identifies the matrix-element generator of a simulated dataset.
type Generator int

// Generators. Nature marks collision data.
const (
	GeneratorUndefined Generator = iota
	GeneratorNature
	GeneratorMadGraph
	GeneratorAMCatNLO
	GeneratorPowheg
	GeneratorPythia
	GeneratorSherpa
)

var generatorNames = map[Generator]string{
	GeneratorUndefined: "undefined",
	GeneratorNature:    "nature",
	GeneratorMadGraph:  "madgraph",
	GeneratorAMCatNLO:  "amcatnlo",
	GeneratorPowheg:    "powheg",
	GeneratorPythia:    "pythia",
	GeneratorSherpa:    "sherpa",
}

// String returns the configuration name of the generator.
func (g Generator) String() string {
	if s, ok := generatorNames[g]; ok {
		return s
	}
	return fmt.Sprintf("generator(%d)", int(g))
}

// ParseGenerator maps a configuration name to a Generator.
func ParseGenerator(s string) (Generator, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for g, name := range generatorNames {
		if name == want {
			return g, nil
		}
	}
	return GeneratorUndefined, fmt.Errorf("unknown generator %q", s)
}

// ShowerGenerator identifies the parton-shower program of a simulated dataset.
type ShowerGenerator int

// Shower generators. Nature marks collision data.
const (
	ShowerUndefined ShowerGenerator = iota
	ShowerNature
	ShowerPythia
	ShowerHerwig
)

var showerNames = map[ShowerGenerator]string{
	ShowerUndefined: "undefined",
	ShowerNature:    "nature",
	ShowerPythia:    "pythia",
	ShowerHerwig:    "herwig",
}

// String returns the configuration name of the shower generator.
func (s ShowerGenerator) String() string {
	if name, ok := showerNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shower(%d)", int(s))
}

// ParseShowerGenerator maps a configuration name to a ShowerGenerator.
func ParseShowerGenerator(s string) (ShowerGenerator, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for sg, name := range showerNames {
		if name == want {
			return sg, nil
		}
	}
	return ShowerUndefined, fmt.Errorf("unknown shower generator %q", s)
}
