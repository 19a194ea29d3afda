// Package store keeps small durable pipeline state in SQLite: the pull
// checkpoint and an optional index of classified post IDs for fast resume.
// The classified log itself stays a plain JSONL file; this index is
// additive and the file scan remains the source of truth.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the pipeline's SQLite state database.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS cursors (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS classified (
	  post_id TEXT PRIMARY KEY,
	  author TEXT NOT NULL,
	  classified_at INTEGER NOT NULL
	);
	`)
	return err
}

// SaveCursor stores an opaque cursor value under key.
func (d *DB) SaveCursor(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO cursors(key, value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// LoadCursor returns the cursor stored under key, or sql.ErrNoRows.
func (d *DB) LoadCursor(ctx context.Context, key string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE key=?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}

// PullState is the collector's checkpoint: how far the paginated pull got.
type PullState struct {
	Offset      int    `json:"offset"`
	TotalPulled int    `json:"total_pulled"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

const pullStateKey = "pull:state"

// SavePullState checkpoints the pull offset and count.
func (d *DB) SavePullState(ctx context.Context, st PullState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return d.SaveCursor(ctx, pullStateKey, string(b))
}

// LoadPullState returns the saved checkpoint, or a fresh zero state when
// none exists yet.
func (d *DB) LoadPullState(ctx context.Context) (PullState, error) {
	v, err := d.LoadCursor(ctx, pullStateKey)
	if err == sql.ErrNoRows {
		return PullState{StartedAt: time.Now().UTC().Format(time.RFC3339)}, nil
	}
	if err != nil {
		return PullState{}, err
	}
	var st PullState
	if err := json.Unmarshal([]byte(v), &st); err != nil {
		return PullState{}, err
	}
	return st, nil
}

// MarkClassified records post IDs in the resume index. Re-marking an ID is
// a no-op.
func (d *DB) MarkClassified(ctx context.Context, ids map[string]string) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Unix()
	for id, author := range ids {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO classified(post_id, author, classified_at) VALUES(?,?,?)`, id, author, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadClassifiedIDs returns every indexed post ID.
func (d *DB) LoadClassifiedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT post_id FROM classified`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
