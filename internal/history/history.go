// Package history provides a SQLite-backed run journal and per-note
// extraction cache.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/sirimal/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	notes_scanned   INTEGER NOT NULL DEFAULT 0,
	notes_extracted INTEGER NOT NULL DEFAULT 0,
	notes_failed    INTEGER NOT NULL DEFAULT 0,
	notes_skipped   INTEGER NOT NULL DEFAULT 0,
	todo_count      INTEGER NOT NULL DEFAULT 0,
	followup_count  INTEGER NOT NULL DEFAULT 0,
	papers_count    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS note_extractions (
	path         TEXT PRIMARY KEY,
	checksum     TEXT NOT NULL,
	extracted_at DATETIME NOT NULL
);
`

// RunRecord is one journaled pipeline run.
type RunRecord struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	NotesScanned   int       `json:"notes_scanned"`
	NotesExtracted int       `json:"notes_extracted"`
	NotesFailed    int       `json:"notes_failed"`
	NotesSkipped   int       `json:"notes_skipped"`

	Counts map[models.Section]int `json:"counts"`
}

// Journal is the interface the pipeline and API depend on. Consumers use
// it rather than the concrete *DB so tests can substitute mocks.
type Journal interface {
	RecordRun(r RunRecord) (int64, error)
	ListRuns(limit int) ([]RunRecord, error)
	LastChecksum(path string) (string, error)
	MarkExtracted(path, checksum string, at time.Time) error
	Close() error
}

// Verify *DB satisfies Journal at compile time.
var _ Journal = (*DB)(nil)

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordRun inserts a run record and returns its id.
func (db *DB) RecordRun(r RunRecord) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (started_at, finished_at, notes_scanned, notes_extracted,
			notes_failed, notes_skipped, todo_count, followup_count, papers_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.StartedAt, r.FinishedAt, r.NotesScanned, r.NotesExtracted,
		r.NotesFailed, r.NotesSkipped,
		r.Counts[models.SectionToDo], r.Counts[models.SectionFollowUp], r.Counts[models.SectionPapers])
	if err != nil {
		return 0, fmt.Errorf("history: record run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, notes_scanned, notes_extracted,
			notes_failed, notes_skipped, todo_count, followup_count, papers_count
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var todo, followup, papers int
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.NotesScanned,
			&r.NotesExtracted, &r.NotesFailed, &r.NotesSkipped,
			&todo, &followup, &papers); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.Counts = map[models.Section]int{
			models.SectionToDo:     todo,
			models.SectionFollowUp: followup,
			models.SectionPapers:   papers,
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastChecksum returns the content checksum recorded at the note's last
// successful extraction, or empty string when the note was never
// extracted.
func (db *DB) LastChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM note_extractions WHERE path = ?`, path).Scan(&cs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("history: last checksum: %w", err)
	}
	return cs, nil
}

// MarkExtracted upserts the cache entry after a successful extraction.
func (db *DB) MarkExtracted(path, checksum string, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO note_extractions (path, checksum, extracted_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum     = excluded.checksum,
			extracted_at = excluded.extracted_at
	`, path, checksum, at)
	if err != nil {
		return fmt.Errorf("history: mark extracted: %w", err)
	}
	return nil
}
