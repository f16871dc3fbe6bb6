// Package runlog persists a journal of compute runs to SQLite. The journal
// feeds the status screen's history view and survives restarts, which makes
// slow or flapping recomputes diagnosable after the fact.
package runlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ampdesk/ampdesk/pkg/bus"
)

// Run ids restart at one every process, so rows are keyed by their own id and
// run_id is plain data. One journal holds the runs of many sessions.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       INTEGER NOT NULL,
	section      TEXT    NOT NULL,
	reason       TEXT    NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Entry is one journaled compute run.
type Entry struct {
	RunID       uint64
	Section     string
	Reason      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Completed reports whether the run committed. A run that was dispatched but
// never committed (stale, failed, or interrupted by shutdown) stays open.
func (e Entry) Completed() bool {
	return e.CompletedAt != nil
}

// Journal records compute runs in a SQLite database.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at path, creating parent
// directories as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Attach subscribes the journal to compute lifecycle events. Inserts and
// updates are best-effort; a journal write failure must never stall a run.
func (j *Journal) Attach(b *bus.Bus) {
	bus.Subscribe(b, func(ev bus.ComputeStarted) {
		j.RecordStart(ev.RunID, ev.Section.String(), ev.Reason, ev.At)
	})
	bus.Subscribe(b, func(ev bus.Computed) {
		j.RecordCommit(ev.RunID, ev.At)
	})
}

// RecordStart journals a dispatched run.
func (j *Journal) RecordStart(runID uint64, section, reason string, at time.Time) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (run_id, section, reason, started_at) VALUES (?, ?, ?, ?)`,
		runID, section, reason, at,
	)
	return err
}

// RecordCommit marks a run as committed. The same run id recurs across
// sessions, so the newest open row wins.
func (j *Journal) RecordCommit(runID uint64, at time.Time) error {
	_, err := j.db.Exec(
		`UPDATE runs SET completed_at = ?
		 WHERE id = (SELECT id FROM runs WHERE run_id = ? AND completed_at IS NULL
		             ORDER BY id DESC LIMIT 1)`,
		at, runID,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(
		`SELECT run_id, section, reason, started_at, completed_at
		 FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completed sql.NullTime
		if err := rows.Scan(&e.RunID, &e.Section, &e.Reason, &e.StartedAt, &completed); err != nil {
			continue
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return entries, nil
}

// CountRuns returns the total number of journaled runs.
func (j *Journal) CountRuns() (int, error) {
	var count int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Prune deletes runs older than cutoff and returns how many were removed.
func (j *Journal) Prune(cutoff time.Time) (int64, error) {
	res, err := j.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
