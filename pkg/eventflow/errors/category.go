// Package errors provides the error taxonomy shared by every eventflow package.
//
// Errors fall into two categories:
//   - Assembly: raised while a pipeline is being built or a dataset is being
//     described. Always fatal, always reported before the first event.
//   - Runtime: any failure inside a plugin while events are processed. Fatal
//     for the whole run; there is no per-event recovery.
//
// Rejecting an event is not an error at all. Filters return an outcome.
package errors

import (
	"errors"
)

// Category classifies an error by the phase that produced it.
type Category int

const (
	// CategoryRuntime covers faults raised while processing events.
	CategoryRuntime Category = iota

	// CategoryAssembly covers configuration, registration and ordering errors.
	CategoryAssembly
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRuntime:
		return "runtime"
	case CategoryAssembly:
		return "assembly"
	default:
		return "unknown"
	}
}

var assemblySentinels = []error{
	ErrDuplicateName,
	ErrUnresolvedDependency,
	ErrCyclicDependency,
	ErrInvalidConfiguration,
	ErrInvalidDataset,
}

// Categorize reports which phase an error belongs to.
// Anything that is not a known assembly error is treated as a runtime fault,
// including ErrDuplicateWeight, which can only happen while an event is processed.
func Categorize(err error) Category {
	if err == nil {
		return CategoryRuntime
	}
	for _, s := range assemblySentinels {
		if errors.Is(err, s) {
			return CategoryAssembly
		}
	}
	return CategoryRuntime
}

// IsAssembly reports whether err was raised before any event was processed.
func IsAssembly(err error) bool {
	return err != nil && Categorize(err) == CategoryAssembly
}
