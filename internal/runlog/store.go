package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quill/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; run history is disposable, so users delete the database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Run outcomes recorded in the runs table.
const (
	OutcomeRunning   = "running"
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Store persists run history backed by SQLite. The sheet remains the source
// of truth for what is transcribed; this history only serves inspection.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// BeginRun records a run that has started but not yet finished.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	return s.execWithRetry(ctx,
		"INSERT INTO runs (id, started_at, outcome) VALUES (?, ?, ?)",
		id, startedAt.UTC().Format(time.RFC3339), OutcomeRunning,
	)
}

// FinishRun records the outcome, counts, and per-item records of a finished
// run. runErr carries the fatal error text when outcome is OutcomeFailed.
func (s *Store) FinishRun(ctx context.Context, run *report.Run, outcome string, runErr error) error {
	counts := run.Counts()
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, outcome = ?, transcribed = ?, skipped = ?, failed = ?, error = ? WHERE id = ?",
		finished.UTC().Format(time.RFC3339), outcome, counts.Transcribed, counts.Skipped, counts.Failed, errText, run.ID,
	); err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}

	for _, record := range run.Records() {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO run_items (run_id, entry_id, slot, status, detail) VALUES (?, ?, ?, ?, ?)",
			run.ID, record.EntryID, record.Slot, string(record.Status), record.Detail,
		); err != nil {
			return fmt.Errorf("record item %s/%s: %w", record.EntryID, record.Slot, err)
		}
	}
	return tx.Commit()
}

// RunRow is one row of run history.
type RunRow struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     string
	Transcribed int
	Skipped     int
	Failed      int
	Error       string
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, transcribed, skipped, failed, error FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			row      RunRow
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&row.ID, &started, &finished, &row.Outcome, &row.Transcribed, &row.Skipped, &row.Failed, &row.Error); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		row.StartedAt = parseStoredTime(started)
		if finished.Valid {
			row.FinishedAt = parseStoredTime(finished.String)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ItemRow is one per-item record of a stored run.
type ItemRow struct {
	EntryID string
	Slot    string
	Status  string
	Detail  string
}

// RunItems returns the per-item records of a run ordered by entry and slot
// as they were stored.
func (s *Store) RunItems(ctx context.Context, runID string) ([]ItemRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry_id, slot, status, detail FROM run_items WHERE run_id = ? ORDER BY entry_id, slot",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()

	var out []ItemRow
	for rows.Next() {
		var row ItemRow
		if err := rows.Scan(&row.EntryID, &row.Slot, &row.Status, &row.Detail); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func parseStoredTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
