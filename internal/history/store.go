// Package history keeps a sqlite record of verification runs and the
// report of every document tested in them.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/goodread/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// DefaultLimit is the number of entries Recent returns for a non-positive limit.
const DefaultLimit = 20

// Run is one invocation of the verifier.
type Run struct {
	ID        string
	Mode      string // "test" or "sync"
	StartedAt time.Time
}

// Entry is one stored document report.
type Entry struct {
	RunID      string
	Mode       string
	Path       string
	Report     models.Report
	RecordedAt time.Time
}

// Store manages the SQLite run history
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens or creates the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun inserts a new run with a fresh uuid.
func (s *Store) StartRun(ctx context.Context, mode string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Mode, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stores the end time and overall outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, success bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, success = ? WHERE id = ?`,
		time.Now().UTC(), success, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run: unknown run %s", runID)
	}
	return nil
}

// RecordReport stores the report of one document tested in runID.
func (s *Store) RecordReport(ctx context.Context, runID, path string, report models.Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, path, valid, passed, failed, skipped, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, path, report.Valid, report.Passed, report.Failed, report.Skipped, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Recent returns up to limit stored reports, newest first. A non-empty path
// restricts the result to that document.
func (s *Store) Recent(ctx context.Context, path string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT r.run_id, runs.mode, r.path, r.valid, r.passed, r.failed, r.skipped, r.recorded_at
		FROM reports r JOIN runs ON runs.id = r.run_id`
	args := []interface{}{}
	if path != "" {
		query += ` WHERE r.path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY r.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Mode, &e.Path,
			&e.Report.Valid, &e.Report.Passed, &e.Report.Failed, &e.Report.Skipped,
			&e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return entries, nil
}
