// Package sqlite persists per-run placement diagnostics. The engine
// itself is stateless; this store is a caller-side sink used for
// observability and later analysis of why findings were skipped.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kmorrill/review-placer/internal/domain"
)

// Store implements diagnostics persistence using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One row per placement run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		commit_sha TEXT NOT NULL,
		comments INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	-- One row per skipped finding, for skip-reason analysis
	CREATE TABLE IF NOT EXISTS skipped_findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		source TEXT NOT NULL,
		rule_id TEXT NOT NULL,
		file TEXT NOT NULL,
		desired_line INTEGER NOT NULL,
		side TEXT NOT NULL,
		severity TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_skipped_run ON skipped_findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_skipped_reason ON skipped_findings(reason);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// RunRecord summarizes one stored placement run.
type RunRecord struct {
	RunID      string
	Timestamp  time.Time
	Repository string
	CommitSHA  string
	Comments   int
	Skipped    int
}

// SaveRun records a batch's outcome and returns the generated run id.
// The full skipped list is stored row by row inside one transaction.
func (s *Store) SaveRun(ctx context.Context, repository string, batch domain.ReviewBatch) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, timestamp, repository, commit_sha, comments, skipped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().Unix(), repository, batch.CommitSHA, len(batch.Comments), len(batch.Skipped),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, sk := range batch.Skipped {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO skipped_findings (run_id, reason, source, rule_id, file, desired_line, side, severity)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(sk.Reason), string(sk.Finding.Source), sk.Finding.RuleID,
			sk.Finding.File, sk.Finding.DesiredLine, string(sk.Finding.Side), string(sk.Finding.Severity),
		)
		if err != nil {
			return "", fmt.Errorf("insert skipped finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return runID, nil
}

// GetRun loads one run's summary.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	var rec RunRecord
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, timestamp, repository, commit_sha, comments, skipped FROM runs WHERE run_id = ?`,
		runID,
	).Scan(&rec.RunID, &ts, &rec.Repository, &rec.CommitSHA, &rec.Comments, &rec.Skipped)
	if err != nil {
		return RunRecord{}, fmt.Errorf("query run %s: %w", runID, err)
	}
	rec.Timestamp = time.Unix(ts, 0)
	return rec, nil
}

// SkipCounts returns the number of skipped findings per reason for one run.
func (s *Store) SkipCounts(ctx context.Context, runID string) (map[domain.SkipReason]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reason, COUNT(*) FROM skipped_findings WHERE run_id = ? GROUP BY reason`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query skip counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SkipReason]int)
	for rows.Next() {
		var reason string
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("scan skip count: %w", err)
		}
		counts[domain.SkipReason(reason)] = count
	}
	return counts, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
