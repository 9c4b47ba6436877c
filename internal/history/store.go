package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"intake/internal/queue"
)

// Entry is one journal row describing a finished ingest.
type Entry struct {
	ID           int64
	ItemID       string
	FileName     string
	DocumentType string
	Outcome      string
	ClaimNumber  string
	ErrorMessage string
	RetryCount   int
	FinishedAt   time.Time
}

// Outcomes recorded in the journal.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Store wraps the SQLite journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the
// schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS ingest_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	document_type TEXT NOT NULL,
	outcome TEXT NOT NULL,
	claim_number TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	retry_count INTEGER NOT NULL DEFAULT 0,
	finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingest_history_finished_at ON ingest_history(finished_at);
CREATE INDEX IF NOT EXISTS idx_ingest_history_claim ON ingest_history(claim_number);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply history schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record journals one finished item. The outcome is derived from the item's
// terminal status; non-terminal items are rejected.
func (s *Store) Record(ctx context.Context, item queue.Item) error {
	var outcome string
	switch item.Status {
	case queue.StatusCompleted:
		outcome = OutcomeCompleted
	case queue.StatusFailed:
		outcome = OutcomeFailed
	default:
		return fmt.Errorf("history: item %s is not terminal (%s)", item.ID, item.Status)
	}

	claimNumber := ""
	if item.Claim != nil {
		claimNumber = item.Claim.ClaimNumber
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO ingest_history (item_id, file_name, document_type, outcome, claim_number, error_message, retry_count, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.FileName,
		string(item.DocumentType),
		outcome,
		claimNumber,
		item.ErrorMessage,
		item.RetryCount,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

// ListOptions filters List results. Zero values mean "no filter".
type ListOptions struct {
	ClaimNumber string
	Outcome     string
	Limit       int
}

// List returns journal entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `
SELECT id, item_id, file_name, document_type, outcome, claim_number, error_message, retry_count, finished_at
FROM ingest_history`
	var conditions []string
	var args []any
	if opts.ClaimNumber != "" {
		conditions = append(conditions, "claim_number = ?")
		args = append(args, opts.ClaimNumber)
	}
	if opts.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, opts.Outcome)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var finishedAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.ItemID,
			&entry.FileName,
			&entry.DocumentType,
			&entry.Outcome,
			&entry.ClaimNumber,
			&entry.ErrorMessage,
			&entry.RetryCount,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, finishedAt); parseErr == nil {
			entry.FinishedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the retention window and returns the
// number removed. A zero or negative retention keeps everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	result, err := s.db.ExecContext(ctx, "DELETE FROM ingest_history WHERE finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history rows affected: %w", err)
	}
	return removed, nil
}
