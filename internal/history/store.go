// Package history persists a durable record of past runs in SQLite. Writes
// happen best-effort after reporting; reads serve the history CLI command.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"webrunner/internal/engine"
)

// Store is the run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Entry is one recorded run.
type Entry struct {
	ExecutionID string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      string
	Total       int
	Passed      int
	Failed      int
	ReportPath  string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db, dbPath: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		execution_id TEXT PRIMARY KEY,
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL,
		status       TEXT NOT NULL,
		total        INTEGER NOT NULL,
		passed       INTEGER NOT NULL,
		failed       INTEGER NOT NULL,
		report_path  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one finished run. Re-recording the same execution id
// overwrites the earlier row.
func (s *Store) Record(run *engine.RunOutcome, reportPath string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO runs
			(execution_id, started_at, finished_at, status, total, passed, failed, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ExecutionID,
		run.StartTime.UTC().Format(time.RFC3339Nano),
		run.EndTime.UTC().Format(time.RFC3339Nano),
		string(run.Status),
		run.TotalScenarios,
		run.PassedScenarios,
		run.FailedScenarios,
		reportPath,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT execution_id, started_at, finished_at, status, total, passed, failed, report_path
		FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, finished string
		if err := rows.Scan(&e.ExecutionID, &started, &finished, &e.Status,
			&e.Total, &e.Passed, &e.Failed, &e.ReportPath); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}
