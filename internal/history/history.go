// Package history provides a SQLite-backed log of sync operations so
// clients can show what each scan brought into the vault.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sync_history (
	id            TEXT PRIMARY KEY,
	week          TEXT NOT NULL,
	new_tasks     INTEGER NOT NULL DEFAULT 0,
	total_tasks   INTEGER NOT NULL DEFAULT 0,
	remote_synced INTEGER NOT NULL DEFAULT 0,
	message       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_history_week ON sync_history(week);
CREATE INDEX IF NOT EXISTS idx_sync_history_created ON sync_history(created_at);
`

// Entry is one recorded sync operation.
type Entry struct {
	ID           string    `json:"id"`
	Week         string    `json:"week"`
	NewTasks     int       `json:"new_tasks"`
	TotalTasks   int       `json:"total_tasks"`
	RemoteSynced bool      `json:"remote_synced"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// DB wraps a sql.DB with history operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
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

// Record inserts a sync entry, assigning an id and timestamp when absent.
func (db *DB) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO sync_history (id, week, new_tasks, total_tasks, remote_synced, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Week, e.NewTasks, e.TotalTasks, boolInt(e.RemoteSynced), e.Message, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("history: record: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, week, new_tasks, total_tasks, remote_synced, message, created_at
		FROM sync_history
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForWeek returns all entries recorded for one week, newest first.
func (db *DB) ForWeek(weekID string) ([]Entry, error) {
	rows, err := db.conn.Query(`
		SELECT id, week, new_tasks, total_tasks, remote_synced, message, created_at
		FROM sync_history
		WHERE week = ?
		ORDER BY created_at DESC, id
	`, weekID)
	if err != nil {
		return nil, fmt.Errorf("history: for week: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	out := []Entry{}
	for rows.Next() {
		var e Entry
		var remote int
		if err := rows.Scan(&e.ID, &e.Week, &e.NewTasks, &e.TotalTasks, &remote, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		e.RemoteSynced = remote != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
