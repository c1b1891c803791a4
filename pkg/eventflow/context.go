package eventflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
	"github.com/randalmurphal/eventflow/pkg/eventflow/registry"
)

// Context is handed to plugins for every hook and event.
// It extends context.Context with the position of the event loop.
//
// A Context is only valid for the duration of the call it was passed to;
// plugins must not retain it.
type Context interface {
	context.Context

	// Logger returns a logger enriched with run, dataset, file and plugin.
	// Never returns nil.
	Logger() *slog.Logger

	// RunID returns the identifier of the run.
	RunID() string

	// Dataset returns the dataset being processed.
	Dataset() *dataset.Dataset

	// File returns the file being read. Zero before the first file.
	File() dataset.File

	// FileIndex returns the index of File within the dataset, or -1.
	FileIndex() int

	// Event returns the current event. Zero outside ProcessEvent.
	Event() Record

	// EventIndex returns the index of the current event within the dataset,
	// or -1 outside ProcessEvent.
	EventIndex() int64

	// Service looks up a service by name. Prefer resolving handles in Bind
	// or BeginFile over calling this per event.
	Service(name string) (any, error)
}

// eventContext is reused across plugins and events of one processor.
type eventContext struct {
	context.Context

	logger    *slog.Logger
	runID     string
	ds        *dataset.Dataset
	file      dataset.File
	fileIndex int
	event     Record
	eventIdx  int64
	services  *registry.Services
}

func (c *eventContext) Logger() *slog.Logger      { return c.logger }
func (c *eventContext) RunID() string             { return c.runID }
func (c *eventContext) Dataset() *dataset.Dataset { return c.ds }
func (c *eventContext) File() dataset.File        { return c.file }
func (c *eventContext) FileIndex() int            { return c.fileIndex }
func (c *eventContext) Event() Record             { return c.event }
func (c *eventContext) EventIndex() int64         { return c.eventIdx }

func (c *eventContext) Service(name string) (any, error) {
	if c.services == nil {
		return nil, &UnresolvedDependencyError{Dependency: name}
	}
	return c.services.Lookup(name)
}

// position captures where the event loop currently is.
func (c *eventContext) position() Position {
	pos := Position{FileIndex: c.fileIndex, EventIndex: c.eventIdx}
	if c.ds != nil {
		pos.Dataset = c.ds.SourceID()
	}
	if c.fileIndex >= 0 {
		pos.File = c.file.Path
		pos.EventID = c.event.ID
	}
	return pos
}

// ContextOption configures a standalone Context.
type ContextOption func(*eventContext)

// WithContextLogger sets the logger.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *eventContext) {
		c.logger = logger
	}
}

// WithContextRunID sets the run identifier. A UUID is generated when unset.
func WithContextRunID(id string) ContextOption {
	return func(c *eventContext) {
		c.runID = id
	}
}

// WithContextDataset sets the dataset.
func WithContextDataset(ds *dataset.Dataset) ContextOption {
	return func(c *eventContext) {
		c.ds = ds
	}
}

// WithContextFile sets the file and its index within the dataset.
func WithContextFile(f dataset.File, index int) ContextOption {
	return func(c *eventContext) {
		c.file = f
		c.fileIndex = index
	}
}

// WithContextEvent sets the current event and its index.
func WithContextEvent(rec Record, index int64) ContextOption {
	return func(c *eventContext) {
		c.event = rec
		c.eventIdx = index
	}
}

// WithContextServices sets the registry used by Service.
func WithContextServices(s *registry.Services) ContextOption {
	return func(c *eventContext) {
		c.services = s
	}
}

// NewContext builds a Context outside a processor, for driving plugins
// directly in tests and tools.
func NewContext(parent context.Context, opts ...ContextOption) Context {
	c := &eventContext{
		Context:   parent,
		fileIndex: -1,
		eventIdx:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.runID == "" {
		c.runID = uuid.New().String()
	}
	return c
}
