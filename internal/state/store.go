// Package state persists harness run history in SQLite, so past runs can
// be inspected with `rulebench history`.
package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded harness run.
type Run struct {
	ID        string
	Source    string
	Rule      string
	Engine    string
	Status    string // "ok" or "failed"
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	TimedOut  int
	Skipped   int
}

// CaseRow is one recorded case result within a run.
type CaseRow struct {
	Name    string
	Mode    string
	Status  string
	Detail  string
	Elapsed time.Duration
}

// RunRecord is the input for RecordRun.
type RunRecord struct {
	Source    string
	Rule      string
	Engine    string
	StartedAt time.Time
	Duration  time.Duration
	Cases     []CaseRow
}

// Store is a SQLite-backed run history store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and initializes) the store at path. Use ":memory:" for an
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists a run and its case results in one transaction,
// returning the new run ID.
func (s *Store) RecordRun(rec RunRecord) (string, error) {
	id := uuid.New().String()

	status := "ok"
	var passed, failed, timedOut, skipped int
	for _, c := range rec.Cases {
		switch c.Status {
		case "passed":
			passed++
		case "failed":
			failed++
		case "timeout":
			timedOut++
		case "skipped":
			skipped++
		}
		if c.Status != "passed" {
			status = "failed"
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (id, source, rule, engine, status, started_at, duration_ms, passed, failed, timed_out, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Source, rec.Rule, rec.Engine, status, rec.StartedAt.UTC(),
		rec.Duration.Milliseconds(), passed, failed, timedOut, skipped,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, c := range rec.Cases {
		_, err = tx.Exec(
			`INSERT INTO case_results (run_id, position, name, mode, status, detail, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, c.Name, c.Mode, c.Status, c.Detail, c.Elapsed.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert case result %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, source, rule, engine, status, started_at, duration_ms, passed, failed, timed_out, skipped
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Source, &r.Rule, &r.Engine, &r.Status, &r.StartedAt,
			&durationMS, &r.Passed, &r.Failed, &r.TimedOut, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CaseResults returns the case results of a run in declaration order.
func (s *Store) CaseResults(runID string) ([]CaseRow, error) {
	rows, err := s.db.Query(
		`SELECT name, mode, status, detail, elapsed_ms
		 FROM case_results WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query case results: %w", err)
	}
	defer rows.Close()

	var cases []CaseRow
	for rows.Next() {
		var c CaseRow
		var elapsedMS int64
		if err := rows.Scan(&c.Name, &c.Mode, &c.Status, &c.Detail, &elapsedMS); err != nil {
			return nil, fmt.Errorf("failed to scan case result: %w", err)
		}
		c.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
