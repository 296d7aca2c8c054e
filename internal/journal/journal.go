// Package journal persists activity records that could not be appended to
// the log table, so the audit trail survives store outages.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS pending_activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    payload TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    next_retry_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pending_activity_status ON pending_activity(status, next_retry_at);
`

// Entry is one journaled activity record with its retry bookkeeping.
type Entry struct {
	ID       int64
	Record   models.ActivityRecord
	Attempts int
}

type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database and ensures the schema.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Enqueue stores a record for later delivery.
func (j *Journal) Enqueue(ctx context.Context, rec models.ActivityRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	query := `INSERT INTO pending_activity (payload, status, attempts, created_at) VALUES (?, 'pending', 0, ?)`
	if _, err := j.db.ExecContext(ctx, query, string(payload), time.Now()); err != nil {
		return fmt.Errorf("enqueue activity record: %w", err)
	}
	return nil
}

// Pending returns up to limit deliverable entries, oldest first.
func (j *Journal) Pending(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, payload, attempts FROM pending_activity
              WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("load pending entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload string
		if err := rows.Scan(&e.ID, &payload, &e.Attempts); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Record); err != nil {
			return nil, fmt.Errorf("unmarshal entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkDelivered removes a successfully flushed entry.
func (j *Journal) MarkDelivered(ctx context.Context, id int64) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM pending_activity WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark entry %d delivered: %w", id, err)
	}
	return nil
}

// MarkRetry bumps the attempt count and schedules the next try.
func (j *Journal) MarkRetry(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := `UPDATE pending_activity SET attempts = attempts + 1, last_error = ?, next_retry_at = ? WHERE id = ?`
	if _, err := j.db.ExecContext(ctx, query, errMsg, nextRetryAt, id); err != nil {
		return fmt.Errorf("mark entry %d for retry: %w", id, err)
	}
	return nil
}

// MarkDead parks an entry that exhausted its retries. Dead entries are
// kept for inspection, never dropped.
func (j *Journal) MarkDead(ctx context.Context, id int64, errMsg string) error {
	query := `UPDATE pending_activity SET status = 'dead', last_error = ? WHERE id = ?`
	if _, err := j.db.ExecContext(ctx, query, errMsg, id); err != nil {
		return fmt.Errorf("mark entry %d dead: %w", id, err)
	}
	return nil
}

// Depth counts undelivered entries, dead ones included.
func (j *Journal) Depth(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_activity`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}
