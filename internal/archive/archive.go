// Package archive keeps a history of written snapshots in sqlite so an
// operator can inspect or restore earlier states of the task store.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	task_count INTEGER NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

type Archive struct {
	*sql.DB
}

// Entry describes one archived snapshot.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TaskCount int       `json:"task_count"`
}

// Open opens (and if necessary creates) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &Archive{DB: db}, nil
}

// Record stores one snapshot. It counts the task records in the payload so
// listings can show the store size without re-parsing every payload.
func (a *Archive) Record(ctx context.Context, snapshot []byte) error {
	var doc struct {
		Tasks map[string]json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return fmt.Errorf("failed to parse snapshot for archiving: %w", err)
	}

	query := `INSERT INTO snapshots (id, created_at, task_count, payload) VALUES (?, ?, ?, ?)`
	_, err := a.ExecContext(ctx, query, uuid.New().String(), time.Now().UTC(), len(doc.Tasks), snapshot)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// List returns the newest entries, most recent first. limit <= 0 means all.
func (a *Archive) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, created_at, task_count FROM snapshots ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.TaskCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

// Get returns the payload of one archived snapshot, or nil if absent.
func (a *Archive) Get(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM snapshots WHERE id = ?`
	err := a.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return payload, nil
}

// Latest returns the most recent entry, or nil if the archive is empty.
func (a *Archive) Latest(ctx context.Context) (*Entry, error) {
	e := &Entry{}
	query := `SELECT id, created_at, task_count FROM snapshots ORDER BY created_at DESC LIMIT 1`
	err := a.QueryRowContext(ctx, query).Scan(&e.ID, &e.CreatedAt, &e.TaskCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return e, nil
}

// Prune deletes everything but the newest keep entries.
func (a *Archive) Prune(ctx context.Context, keep int) error {
	query := `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC LIMIT ?
		)
	`
	if _, err := a.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
