package eventflow

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/randalmurphal/eventflow/pkg/eventflow/dataset"
)

// EventID identifies an event within its run.
type EventID struct {
	Run   uint64
	Lumi  uint64
	Event uint64
}

// String returns "run:lumi:event".
func (id EventID) String() string {
	return fmt.Sprintf("%d:%d:%d", id.Run, id.Lumi, id.Event)
}

// ParseEventID parses "run:lumi:event".
func ParseEventID(s string) (EventID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return EventID{}, fmt.Errorf("event ID %q: expected run:lumi:event", s)
	}
	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return EventID{}, fmt.Errorf("event ID %q: %w", s, err)
		}
		nums[i] = n
	}
	return EventID{Run: nums[0], Lumi: nums[1], Event: nums[2]}, nil
}

// Record is one event as read from a file.
type Record struct {
	ID     EventID
	Fields map[string]any
}

// Source opens the files of a dataset for reading.
type Source interface {
	Open(ctx context.Context, f dataset.File) (Reader, error)
}

// Reader iterates the events of one file. Next returns io.EOF after the last
// event.
type Reader interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// MemorySource serves events held in memory, keyed by file path.
// It is safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]Record
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{files: make(map[string][]Record)}
}

// Add appends events to the file at path.
func (s *MemorySource) Add(path string, records ...Record) *MemorySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append(s.files[path], records...)
	return s
}

// Open implements Source.
func (s *MemorySource) Open(_ context.Context, f dataset.File) (Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.files[f.Path]
	if !ok {
		return nil, fmt.Errorf("open %s: file not found", f.Path)
	}
	return &memoryReader{records: recs}, nil
}

type memoryReader struct {
	records []Record
	next    int
}

func (r *memoryReader) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if r.next >= len(r.records) {
		return Record{}, io.EOF
	}
	rec := r.records[r.next]
	r.next++
	return rec, nil
}

func (r *memoryReader) Close() error { return nil }
