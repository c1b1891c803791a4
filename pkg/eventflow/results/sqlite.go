package results

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists records to SQLite.
// Several workers of one process may flush concurrently.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens or creates a store at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serialises writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []struct{ what, sql string }{
		{"enable WAL mode", `PRAGMA journal_mode=WAL`},
		{"create table", `
			CREATE TABLE IF NOT EXISTS results (
				run_id    TEXT    NOT NULL,
				unit      TEXT    NOT NULL,
				sequence  INTEGER NOT NULL,
				flushed   TEXT    NOT NULL,
				data      BLOB    NOT NULL,
				PRIMARY KEY (run_id, unit)
			)`},
		{"create index", `CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`},
	} {
		if _, err := db.Exec(stmt.sql); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", stmt.what, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(runID, unit string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO results (run_id, unit, sequence, flushed, data)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM results WHERE run_id = ?), 0) + 1,
			?, ?
		)
		ON CONFLICT(run_id, unit) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM results WHERE run_id = excluded.run_id) + 1,
			flushed = excluded.flushed,
			data = excluded.data
	`, runID, unit, runID, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(runID, unit string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM results WHERE run_id = ? AND unit = ?`, runID, unit).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(runID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT unit, sequence, flushed, LENGTH(data)
		FROM results
		WHERE run_id = ?
		ORDER BY sequence
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		info := Info{RunID: runID}
		var flushed string
		if err := rows.Scan(&info.Unit, &info.Sequence, &flushed, &info.Size); err != nil {
			return nil, fmt.Errorf("scan result info: %w", err)
		}
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, flushed)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(runID, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`DELETE FROM results WHERE run_id = ? AND unit = ?`, runID, unit); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`DELETE FROM results WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run results: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
