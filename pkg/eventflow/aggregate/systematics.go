package aggregate

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
	"github.com/randalmurphal/eventflow/pkg/eventflow/registry"
)

// Direction is the direction of a requested systematic variation.
type Direction int

const (
	// NoDirection is used by systematics that are switched on or off.
	NoDirection Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case NoDirection:
		return "none"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// NominalLabel is registered by NewSystematics and requested by default.
const NominalLabel = "none"

// Variation names one requested systematic.
type Variation struct {
	Label     string
	Direction Direction
}

func (v Variation) String() string {
	if v.Direction == NoDirection {
		return v.Label
	}
	return v.Label + ":" + v.Direction.String()
}

// ParseVariation parses "label" or "label:up" / "label:down".
func ParseVariation(s string) (Variation, error) {
	label, dir, found := strings.Cut(s, ":")
	if label == "" {
		return Variation{}, eferrors.Invalidf("", "variation", "empty label in %q", s)
	}
	if !found {
		return Variation{Label: label}, nil
	}
	switch dir {
	case "up":
		return Variation{Label: label, Direction: Up}, nil
	case "down":
		return Variation{Label: label, Direction: Down}, nil
	default:
		return Variation{}, eferrors.Invalidf("", "variation", "unknown direction %q in %q", dir, s)
	}
}

// Systematics is a run-scoped service telling plugins which systematic
// variation the run evaluates. Labels are registered first, with a flag
// saying whether they take a direction; Set then requests some of them.
//
// Register it on the pipeline under a name and let plugins resolve it:
//
//	syst := aggregate.NewSystematics()
//	_ = syst.Register("gen", true)
//	_ = syst.Set(aggregate.Variation{Label: "gen", Direction: aggregate.Up})
//	p.AddService("systematics", syst, registry.LifetimeRun)
type Systematics struct {
	allowed *registry.Registry[string, bool]

	mu        sync.RWMutex
	requested map[string]Direction
}

// NewSystematics registers NominalLabel and requests it.
func NewSystematics() *Systematics {
	s := &Systematics{allowed: registry.New[string, bool]("systematics")}
	_ = s.allowed.Register(NominalLabel, false)
	s.requested = map[string]Direction{NominalLabel: NoDirection}
	return s
}

// Register adds a systematic label. Registering a label twice is an error
// wrapping ErrDuplicateName.
func (s *Systematics) Register(label string, hasDirection bool) error {
	if label == "" {
		return eferrors.Invalidf("", "systematic", "empty label")
	}
	return s.allowed.Register(label, hasDirection)
}

// Set replaces the requested variations. Every label must be registered,
// carry a direction exactly when it was registered with one, and appear
// once. On error the previous request is kept.
func (s *Systematics) Set(vars ...Variation) error {
	next := make(map[string]Direction, len(vars))
	for _, v := range vars {
		hasDirection, ok := s.allowed.Get(v.Label)
		switch {
		case !ok:
			return eferrors.Invalidf("", "systematic", "%q is not registered", v.Label)
		case hasDirection && v.Direction == NoDirection:
			return eferrors.Invalidf("", "systematic", "%q requires a direction", v.Label)
		case !hasDirection && v.Direction != NoDirection:
			return eferrors.Invalidf("", "systematic", "%q does not take a direction", v.Label)
		case v.Direction != NoDirection && v.Direction != Up && v.Direction != Down:
			return eferrors.Invalidf("", "systematic", "%q: %s", v.Label, v.Direction)
		}
		if _, dup := next[v.Label]; dup {
			return eferrors.Invalidf("", "systematic", "%q requested twice", v.Label)
		}
		next[v.Label] = v.Direction
	}

	s.mu.Lock()
	s.requested = next
	s.mu.Unlock()
	return nil
}

// Test reports whether label is requested and in which direction. Asking
// about an unregistered label is an error.
func (s *Systematics) Test(label string) (bool, Direction, error) {
	if !s.allowed.Has(label) {
		return false, NoDirection, eferrors.Invalidf("", "systematic", "%q is not registered", label)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir, ok := s.requested[label]
	return ok, dir, nil
}

// Requested returns the requested variations sorted by label.
func (s *Systematics) Requested() []Variation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Variation, 0, len(s.requested))
	for label, dir := range s.requested {
		out = append(out, Variation{Label: label, Direction: dir})
	}
	slices.SortFunc(out, func(a, b Variation) int { return strings.Compare(a.Label, b.Label) })
	return out
}
