// Package results holds the immutable outcome of processing one unit of work
// (a dataset, or one file of a split dataset) and the stores that persist it.
//
// Workers never share aggregator state. Each flushes a Record once its unit
// is complete; the run merges records by reduction. A unit is flushed in a
// single Save, so a store never holds a partially written record, and a run
// resumed after cancellation can trust every record it finds.
package results

import (
	"errors"
	"time"
)

// Store persists flushed records, keyed by run ID and unit key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the encoded record of a unit.
	// Overwrites if a record for (runID, unit) already exists.
	Save(runID, unit string, data []byte) error

	// Load retrieves a record.
	// Returns ErrNotFound if it doesn't exist.
	Load(runID, unit string) ([]byte, error)

	// List returns metadata of all records of a run, in flush order.
	// Returns an empty slice (not error) if the run has none.
	List(runID string) ([]Info, error)

	// Delete removes one record. Returns nil if it doesn't exist.
	Delete(runID, unit string) error

	// DeleteRun removes all records of a run.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes a stored record without loading it.
type Info struct {
	RunID     string
	Unit      string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("result not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("result store closed")
)
