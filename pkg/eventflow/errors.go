package eventflow

import (
	"fmt"
	"strings"

	eferrors "github.com/randalmurphal/eventflow/pkg/eventflow/errors"
)

// Assembly sentinels, re-exported so callers need only this package.
var (
	ErrDuplicateName        = eferrors.ErrDuplicateName
	ErrUnresolvedDependency = eferrors.ErrUnresolvedDependency
	ErrCyclicDependency     = eferrors.ErrCyclicDependency
	ErrInvalidConfiguration = eferrors.ErrInvalidConfiguration
	ErrInvalidDataset       = eferrors.ErrInvalidDataset
	ErrDuplicateWeight      = eferrors.ErrDuplicateWeight
)

// Typed assembly errors.
type (
	DuplicateNameError        = eferrors.DuplicateNameError
	UnresolvedDependencyError = eferrors.UnresolvedDependencyError
	CyclicDependencyError     = eferrors.CyclicDependencyError
	ConfigurationError        = eferrors.ConfigurationError
	DatasetError              = eferrors.DatasetError
	DuplicateWeightError      = eferrors.DuplicateWeightError
)

// Position locates the event loop when a fault occurred.
type Position struct {
	// Dataset is the source dataset ID.
	Dataset string
	// File is the path being read; empty before the first file is opened.
	File string
	// FileIndex is the index of File within the dataset, or -1.
	FileIndex int
	// EventIndex counts events from the start of the dataset, or -1 outside
	// the event loop.
	EventIndex int64
	// EventID is the identifier of the event being processed.
	EventID EventID
}

// String renders the non-empty parts of the position.
func (p Position) String() string {
	var parts []string
	if p.Dataset != "" {
		parts = append(parts, "dataset "+p.Dataset)
	}
	if p.File != "" {
		parts = append(parts, "file "+p.File)
	}
	if p.EventIndex >= 0 {
		parts = append(parts, fmt.Sprintf("event #%d (%s)", p.EventIndex, p.EventID))
	}
	return strings.Join(parts, ", ")
}

// PluginError wraps an error returned by a plugin with where it happened.
type PluginError struct {
	// Plugin is the name of the failing plugin.
	Plugin string
	// Op is the hook that failed ("bind", "begin_dataset", "begin_file",
	// "process", "end_dataset").
	Op string
	// Position is where the event loop was.
	Position Position
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	if pos := e.Position.String(); pos != "" {
		return fmt.Sprintf("plugin %s: %s at %s: %v", e.Plugin, e.Op, pos, e.Err)
	}
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a plugin.
type PanicError struct {
	// Plugin is the name of the plugin that panicked.
	Plugin string
	// Op is the hook that was running.
	Op string
	// Position is where the event loop was.
	Position Position
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if pos := e.Position.String(); pos != "" {
		return fmt.Sprintf("plugin %s panicked during %s at %s: %v", e.Plugin, e.Op, pos, e.Value)
	}
	return fmt.Sprintf("plugin %s panicked during %s: %v", e.Plugin, e.Op, e.Value)
}

// SourceError wraps a failure to open or read an input file.
type SourceError struct {
	Position Position
	Err      error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("read input at %s: %v", e.Position, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// CancellationError reports a run stopped between events.
type CancellationError struct {
	// Position is the last event fully processed, or the boundary reached.
	Position Position
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if pos := e.Position.String(); pos != "" {
		return fmt.Sprintf("cancelled at %s: %v", pos, e.Cause)
	}
	return fmt.Sprintf("cancelled: %v", e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
