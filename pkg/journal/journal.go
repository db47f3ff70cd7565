// Package journal records every file moved to the trash in a SQLite
// database so that a run can be inspected and undone later.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the journal database name inside the trash root
const FileName = "journal.db"

// Entry is one trash move
type Entry struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	OriginalPath string     `json:"original_path"`
	TrashPath    string     `json:"trash_path"`
	Reason       string     `json:"reason"`
	Kind         string     `json:"kind"`
	MovedAt      time.Time  `json:"moved_at"`
	RestoredAt   *time.Time `json:"restored_at,omitempty"`
}

// Restored reports whether the entry has been moved back
func (e *Entry) Restored() bool {
	return e.RestoredAt != nil
}

// Filter narrows a listing
type Filter struct {
	RunID string

	// Pending keeps only entries that were not restored yet
	Pending bool

	Limit int
}

// Journal wraps the SQLite connection
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal at path
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{db: db}

	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		original_path TEXT NOT NULL,
		trash_path TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		moved_at DATETIME NOT NULL,
		restored_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_moves_run_id ON moves(run_id);
	CREATE INDEX IF NOT EXISTS idx_moves_restored_at ON moves(restored_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record stores a trash move and returns its ID
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.MovedAt.IsZero() {
		e.MovedAt = time.Now()
	}

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO moves (run_id, original_path, trash_path, reason, kind, moved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.RunID, e.OriginalPath, e.TrashPath, e.Reason, e.Kind, e.MovedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to record move: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// List returns the entries matching filter, oldest first
func (j *Journal) List(ctx context.Context, filter Filter) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var (
		conditions []string
		args       []interface{}
	)

	if filter.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Pending {
		conditions = append(conditions, "restored_at IS NULL")
	}

	query := `SELECT id, run_id, original_path, trash_path, reason, kind, moved_at, restored_at FROM moves`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e        Entry
			restored sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.OriginalPath, &e.TrashPath, &e.Reason, &e.Kind, &e.MovedAt, &restored); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if restored.Valid {
			t := restored.Time
			e.RestoredAt = &t
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// MarkRestored flags an entry as moved back to its original location
func (j *Journal) MarkRestored(ctx context.Context, id int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	result, err := j.db.ExecContext(ctx,
		`UPDATE moves SET restored_at = ? WHERE id = ? AND restored_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark entry %d restored: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark entry %d restored: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("entry %d not found or already restored", id)
	}
	return nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}
