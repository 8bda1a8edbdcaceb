// Package history persists a lightweight audit log of plugin dispatches
// and relay deliveries in a local sqlite database. All writes are
// best-effort; a broken history store must never interfere with message
// handling.
package history

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trace_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	plugin TEXT NOT NULL,
	trigger_token TEXT NOT NULL,
	ok INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_dispatches_trace ON dispatches(trace_id);
CREATE TABLE IF NOT EXISTS relays (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_room TEXT NOT NULL,
	target_room TEXT NOT NULL,
	kind TEXT NOT NULL,
	ok INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the history database. A nil *Store is valid and records
// nothing.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RecordDispatch logs one plugin invocation.
func (s *Store) RecordDispatch(traceID, roomID, sender, pluginID, trigger string, ok bool) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO dispatches (trace_id, room_id, sender, plugin, trigger_token, ok) VALUES (?, ?, ?, ?, ?, ?)`,
		traceID, roomID, sender, pluginID, trigger, boolInt(ok),
	)
	return err
}

// RecordRelay logs one relay delivery attempt to a single destination.
func (s *Store) RecordRelay(sourceRoom, targetRoom, kind string, ok bool) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO relays (source_room, target_room, kind, ok) VALUES (?, ?, ?, ?)`,
		sourceRoom, targetRoom, kind, boolInt(ok),
	)
	return err
}

// Counts summarizes recorded activity.
type Counts struct {
	Dispatches       int
	DispatchFailures int
	Relays           int
	RelayFailures    int
}

// Counts returns total and failed dispatch/relay counts.
func (s *Store) Counts() (Counts, error) {
	var c Counts
	if s == nil {
		return c, nil
	}
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(1 - ok), 0) FROM dispatches`)
	if err := row.Scan(&c.Dispatches, &c.DispatchFailures); err != nil {
		return c, err
	}
	row = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(1 - ok), 0) FROM relays`)
	if err := row.Scan(&c.Relays, &c.RelayFailures); err != nil {
		return c, err
	}
	return c, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
