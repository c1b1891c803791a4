package results

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Version is the current record format version.
// Increment when making breaking changes to Record.
const Version = 1

// Record is the flushed outcome of one unit of work.
type Record struct {
	Version   int       `msgpack:"version"`
	RunID     string    `msgpack:"run_id"`
	Unit      string    `msgpack:"unit"`
	DatasetID string    `msgpack:"dataset_id"`
	Files     []string  `msgpack:"files"`
	Flushed   time.Time `msgpack:"flushed"`

	Events   int64   `msgpack:"events"`
	Accepted int64   `msgpack:"accepted"`
	Cutflow  Cutflow `msgpack:"cutflow"`
}

// NewRecord creates a record stamped with the current version and time.
func NewRecord(runID, unit, datasetID string) *Record {
	return &Record{
		Version:   Version,
		RunID:     runID,
		Unit:      unit,
		DatasetID: datasetID,
		Flushed:   time.Now().UTC(),
	}
}

// Marshal encodes the record with MessagePack.
func (r *Record) Marshal() ([]byte, error) {
	return msgpack.Marshal(r)
}

// Unmarshal decodes a record written by Marshal.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if r.Version != Version {
		return nil, fmt.Errorf("decode result: unsupported version %d", r.Version)
	}
	return &r, nil
}

// Flush encodes rec and saves it under its run ID and unit.
// It returns the encoded size.
func Flush(s Store, rec *Record) (int, error) {
	data, err := rec.Marshal()
	if err != nil {
		return 0, fmt.Errorf("encode result: %w", err)
	}
	if err := s.Save(rec.RunID, rec.Unit, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// LoadRun decodes every record flushed for runID, in flush order.
func LoadRun(s Store, runID string) ([]*Record, error) {
	infos, err := s.List(runID)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(infos))
	for _, info := range infos {
		data, err := s.Load(runID, info.Unit)
		if err != nil {
			return nil, fmt.Errorf("load result %q: %w", info.Unit, err)
		}
		rec, err := Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("load result %q: %w", info.Unit, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
