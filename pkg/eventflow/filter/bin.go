package filter

import (
	"fmt"
	"strings"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// Range is an inclusive [Min, Max] interval of counts.
type Range struct {
	Min int
	Max int
}

// NewRange validates and returns [lo, hi].
func NewRange(lo, hi int) (Range, error) {
	r := Range{Min: lo, Max: hi}
	if err := r.validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Exact returns the range [n, n].
func Exact(n int) Range {
	return Range{Min: n, Max: n}
}

// Contains reports whether Min <= n <= Max.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// String returns "[min,max]", or "n" for an exact range.
func (r Range) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

func (r Range) validate() error {
	switch {
	case r.Min < 0:
		return &eferrors.ConfigurationError{Field: "range", Message: fmt.Sprintf("min %d is negative", r.Min)}
	case r.Min > r.Max:
		return &eferrors.ConfigurationError{Field: "range", Message: fmt.Sprintf("min %d exceeds max %d", r.Min, r.Max)}
	}
	return nil
}

// SelectionBin accepts a tuple of counts when every count lies in the range
// of its axis.
type SelectionBin struct {
	Name   string
	Ranges []Range
}

// NewBin validates a bin with one range per axis.
func NewBin(name string, ranges ...Range) (SelectionBin, error) {
	b := SelectionBin{Name: name, Ranges: ranges}
	if err := b.validate(); err != nil {
		return SelectionBin{}, err
	}
	return b, nil
}

// Contains reports whether counts fall in the bin. A tuple of the wrong
// length never matches.
func (b SelectionBin) Contains(counts ...int) bool {
	if len(counts) != len(b.Ranges) {
		return false
	}
	for i, r := range b.Ranges {
		if !r.Contains(counts[i]) {
			return false
		}
	}
	return true
}

// String returns the bin name, or its ranges when unnamed.
func (b SelectionBin) String() string {
	if b.Name != "" {
		return b.Name
	}
	parts := make([]string, len(b.Ranges))
	for i, r := range b.Ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, "x")
}

func (b SelectionBin) validate() error {
	if len(b.Ranges) == 0 {
		return &eferrors.ConfigurationError{Field: "bin", Message: fmt.Sprintf("bin %q has no ranges", b.Name)}
	}
	for _, r := range b.Ranges {
		if err := r.validate(); err != nil {
			return fmt.Errorf("bin %q: %w", b.Name, err)
		}
	}
	return nil
}

// BinMode decides how matches across several bins combine. The zero value
// is invalid: every filter must choose a mode.
type BinMode int

const (
	modeUnset BinMode = iota
	// ModeAny accepts when at least one bin matches.
	ModeAny
	// ModeExactlyOne accepts when exactly one bin matches.
	ModeExactlyOne
	// ModeAll accepts when every bin matches.
	ModeAll
)

var modeNames = map[BinMode]string{
	ModeAny:        "any",
	ModeExactlyOne: "exactly_one",
	ModeAll:        "all",
}

// String returns the configuration name of the mode.
func (m BinMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the declared modes.
func (m BinMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseBinMode parses "any", "exactly_one" or "all".
func ParseBinMode(s string) (BinMode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return modeUnset, &eferrors.ConfigurationError{Field: "mode", Message: fmt.Sprintf("unknown bin mode %q", s)}
}

// Accept applies the mode to the number of matching bins out of total.
func (m BinMode) Accept(matched, total int) bool {
	switch m {
	case ModeAny:
		return matched > 0
	case ModeExactlyOne:
		return matched == 1
	case ModeAll:
		return total > 0 && matched == total
	default:
		return false
	}
}
