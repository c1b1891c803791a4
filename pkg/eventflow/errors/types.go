package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for pipeline assembly. Every typed error below unwraps to
// exactly one of these, so callers can match with errors.Is.
var (
	// ErrDuplicateName indicates a plugin or service name is already bound.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnresolvedDependency indicates a name that is neither a plugin nor a service.
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrCyclicDependency indicates the plugin dependency graph contains a cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrInvalidConfiguration indicates a plugin was constructed with invalid settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidDataset indicates a malformed dataset or file descriptor.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrDuplicateWeight indicates a weight name was published twice in one event.
	ErrDuplicateWeight = errors.New("duplicate weight")
)

// DuplicateNameError reports a name collision within a registry scope.
type DuplicateNameError struct {
	// Name is the colliding name.
	Name string
	// Scope is the registry scope ("plugin", "run", "dataset").
	Scope string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already registered in %s scope", ErrDuplicateName, e.Name, e.Scope)
}

// Unwrap returns ErrDuplicateName.
func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// UnresolvedDependencyError reports a dependency name that could not be resolved.
type UnresolvedDependencyError struct {
	// Plugin is the plugin that declared the dependency. Empty for direct lookups.
	Plugin string
	// Dependency is the missing name.
	Dependency string
	// Reason is set when the name exists but has the wrong shape.
	Reason string
}

// Error implements the error interface.
func (e *UnresolvedDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(ErrUnresolvedDependency.Error())
	if e.Plugin != "" {
		fmt.Fprintf(&b, ": plugin %q", e.Plugin)
		fmt.Fprintf(&b, " depends on %q", e.Dependency)
	} else {
		fmt.Fprintf(&b, ": %q", e.Dependency)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Unwrap returns ErrUnresolvedDependency.
func (e *UnresolvedDependencyError) Unwrap() error { return ErrUnresolvedDependency }

// CyclicDependencyError reports one deterministic cycle in the dependency graph.
type CyclicDependencyError struct {
	// Path lists plugin names along the cycle; the first name is repeated at the end.
	Path []string
}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicDependency.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCyclicDependency.
func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// ConfigurationError reports an invalid plugin setting.
type ConfigurationError struct {
	// Plugin is the plugin being configured, if known.
	Plugin string
	// Field is the offending setting.
	Field string
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	prefix := ErrInvalidConfiguration.Error()
	if e.Plugin != "" {
		prefix = fmt.Sprintf("%s: plugin %q", prefix, e.Plugin)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// DatasetError reports a malformed dataset or file entry.
type DatasetError struct {
	// Dataset is the source dataset ID, if already known.
	Dataset string
	// Path is the file path being added, if any.
	Path string
	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *DatasetError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("%s: file %q: %s", ErrInvalidDataset, e.Path, e.Message)
	case e.Dataset != "":
		return fmt.Sprintf("%s: dataset %q: %s", ErrInvalidDataset, e.Dataset, e.Message)
	default:
		return fmt.Sprintf("%s: %s", ErrInvalidDataset, e.Message)
	}
}

// Unwrap returns ErrInvalidDataset.
func (e *DatasetError) Unwrap() error { return ErrInvalidDataset }

// DuplicateWeightError reports a weight name published twice in one event.
type DuplicateWeightError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateWeightError) Error() string {
	return fmt.Sprintf("%s: %q already published for this event", ErrDuplicateWeight, e.Name)
}

// Unwrap returns ErrDuplicateWeight.
func (e *DuplicateWeightError) Unwrap() error { return ErrDuplicateWeight }

// Invalidf builds a ConfigurationError for the given plugin.
func Invalidf(plugin, field, format string, args ...any) error {
	return &ConfigurationError{Plugin: plugin, Field: field, Message: fmt.Sprintf(format, args...)}
}
