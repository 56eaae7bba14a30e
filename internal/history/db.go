// Package history provides SQLite-backed storage of reconciliation run
// reports. It is purely observational: the reconciliation itself keeps no
// state between runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vineelsai26/ghnotion/internal/sync"
)

// DB is a SQLite database of past run reports.
type DB struct {
	path string
	conn *sql.DB
}

// Run is a stored run summary.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	ReposScanned   int
	IssuesFound    int
	Created        int
	Updated        int
	SkippedRecords int
	FailureCount   int
}

// Failure is a stored per-unit failure.
type Failure struct {
	RunID string
	Stage string // "collection" or "reconciliation"
	Unit  string // repo name or issue URL
	Error string
}

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    repos_scanned INTEGER DEFAULT 0,
    issues_found INTEGER DEFAULT 0,
    created_rows INTEGER DEFAULT 0,
    updated_rows INTEGER DEFAULT 0,
    skipped_records INTEGER DEFAULT 0
);
`

const createFailuresTableSQL = `
CREATE TABLE IF NOT EXISTS run_failures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    unit TEXT NOT NULL,
    error TEXT NOT NULL
);
`

// InitDB creates or opens a SQLite database at the given path and
// initializes the schema.
func InitDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer; one connection prevents
	// "database is locked" errors.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec(createRunsTableSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := conn.Exec(createFailuresTableSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create run_failures table: %w", err)
	}

	return &DB{path: path, conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// SaveReport stores a run report and its itemized failures.
func (db *DB) SaveReport(report *sync.Report) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, repos_scanned, issues_found, created_rows, updated_rows, skipped_records)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.Format(time.RFC3339),
		report.FinishedAt.Format(time.RFC3339),
		report.ReposScanned,
		report.IssuesFound,
		report.Created,
		report.Updated,
		report.SkippedRecords,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, f := range report.FailedRepos {
		if _, err := tx.Exec(`
			INSERT INTO run_failures (run_id, stage, unit, error) VALUES (?, ?, ?, ?)`,
			report.RunID, "collection", f.Repo, f.Err.Error()); err != nil {
			return fmt.Errorf("failed to insert repo failure: %w", err)
		}
	}
	for _, f := range report.FailedIssues {
		if _, err := tx.Exec(`
			INSERT INTO run_failures (run_id, stage, unit, error) VALUES (?, ?, ?, ?)`,
			report.RunID, "reconciliation", f.URL, f.Err.Error()); err != nil {
			return fmt.Errorf("failed to insert issue failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT r.id, r.started_at, r.finished_at, r.repos_scanned, r.issues_found,
		       r.created_rows, r.updated_rows, r.skipped_records,
		       (SELECT COUNT(*) FROM run_failures f WHERE f.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.ReposScanned, &run.IssuesFound,
			&run.Created, &run.Updated, &run.SkippedRecords, &run.FailureCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Failures returns the itemized failures recorded for a run.
func (db *DB) Failures(runID string) ([]Failure, error) {
	rows, err := db.conn.Query(`
		SELECT run_id, stage, unit, error FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.Stage, &f.Unit, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
