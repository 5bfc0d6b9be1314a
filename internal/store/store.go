package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	ended_at       TEXT,
	config_json    TEXT,
	received       INTEGER NOT NULL DEFAULT 0,
	dropped        INTEGER NOT NULL DEFAULT 0,
	decode_errors  INTEGER NOT NULL DEFAULT 0,
	disconnects    INTEGER NOT NULL DEFAULT 0,
	log_dropped    INTEGER NOT NULL DEFAULT 0,
	frames         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS switch_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	switched_at  TEXT NOT NULL,
	from_id      TEXT,
	to_id        TEXT NOT NULL,
	trigger_val  TEXT,
	reason       TEXT NOT NULL,
	params_json  TEXT,
	UNIQUE (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`

// #endregion schema

// #region store-struct
// Store persists sessions and their switch events in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region sessions
// CreateSession starts a new session row with a fresh id.
func (s *Store) CreateSession(startedAt time.Time, configJSON string) (Session, error) {
	sess := Session{
		ID:         uuid.New().String(),
		StartedAt:  startedAt.UTC(),
		ConfigJSON: configJSON,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, started_at, config_json) VALUES (?, ?, ?)`,
		sess.ID, sess.StartedAt.Format(time.RFC3339Nano), nullIfEmpty(configJSON),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// EndSession records the end time and final counters.
func (s *Store) EndSession(id string, endedAt time.Time, stats SessionStats) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, received = ?, dropped = ?, decode_errors = ?,
		 disconnects = ?, log_dropped = ?, frames = ? WHERE session_id = ?`,
		endedAt.UTC().Format(time.RFC3339Nano),
		stats.Received, stats.Dropped, stats.DecodeErrors, stats.Disconnects, stats.LogDropped, stats.Frames,
		id,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// GetSession reads one session.
func (s *Store) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, started_at, ended_at, config_json, received, dropped,
		 decode_errors, disconnects, log_dropped, frames
		 FROM sessions WHERE session_id = ?`, id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns the most recent sessions first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session_id, started_at, ended_at, config_json, received, dropped,
		 decode_errors, disconnects, log_dropped, frames
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var sess Session
	var startedStr string
	var endedStr, configJSON sql.NullString
	err := sc.Scan(&sess.ID, &startedStr, &endedStr, &configJSON,
		&sess.Stats.Received, &sess.Stats.Dropped, &sess.Stats.DecodeErrors,
		&sess.Stats.Disconnects, &sess.Stats.LogDropped, &sess.Stats.Frames)
	if err != nil {
		return Session{}, err
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if endedStr.Valid {
		sess.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr.String)
	}
	if configJSON.Valid {
		sess.ConfigJSON = configJSON.String
	}
	return sess, nil
}

// #endregion sessions

// #region switches
// InsertSwitch appends one switch event.
func (s *Store) InsertSwitch(row SwitchRow) error {
	_, err := s.db.Exec(
		`INSERT INTO switch_events (session_id, seq, switched_at, from_id, to_id, trigger_val, reason, params_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID, row.Seq, row.Time.UTC().Format(time.RFC3339Nano),
		nullIfEmpty(row.From), row.To, nullIfEmpty(row.Trigger), row.Reason, nullIfEmpty(row.ParamsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert switch: %w", err)
	}
	return nil
}

// ListSwitches returns a session's switch events in sequence order.
func (s *Store) ListSwitches(sessionID string) ([]SwitchRow, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, switched_at, from_id, to_id, trigger_val, reason, params_json
		 FROM switch_events WHERE session_id = ? ORDER BY seq`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list switches: %w", err)
	}
	defer rows.Close()

	var out []SwitchRow
	for rows.Next() {
		var r SwitchRow
		var at string
		var from, trigger, params sql.NullString
		if err := rows.Scan(&r.SessionID, &r.Seq, &at, &from, &r.To, &trigger, &r.Reason, &params); err != nil {
			return nil, fmt.Errorf("scan switch: %w", err)
		}
		r.Time, _ = time.Parse(time.RFC3339Nano, at)
		r.From = from.String
		r.Trigger = trigger.String
		r.ParamsJSON = params.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion switches

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
