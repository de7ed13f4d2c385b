// Package store archives report runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/meenmo/bondrisk/portfolio"
)

// ErrRunNotFound is returned by LoadReport for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const dateLayout = "2006-01-02"

// Store is a run archive backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	RunID      string
	ReportDate time.Time
	CreatedAt  time.Time
	Positions  int
	Analyzed   int
	Failed     int
}

// Open opens (creating if needed) the archive at path. ":memory:" gives a
// private in-memory archive.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		report_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		positions INTEGER NOT NULL,
		analyzed INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bond_analytics (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		security_id TEXT NOT NULL,
		settlement TEXT NOT NULL,
		tenor INTEGER NOT NULL,
		ytm REAL NOT NULL,
		macaulay REAL NOT NULL,
		modified REAL NOT NULL,
		dv01 REAL NOT NULL,
		simple REAL NOT NULL,
		clean_price REAL NOT NULL,
		dirty_price REAL NOT NULL,
		accrued REAL NOT NULL,
		notional TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS buckets (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		bucket INTEGER NOT NULL,
		dv01 REAL NOT NULL,
		accrued REAL NOT NULL,
		notional TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, bucket)
	);

	CREATE TABLE IF NOT EXISTS scenarios (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		shift_bp REAL NOT NULL,
		profit REAL NOT NULL,
		loss REAL NOT NULL,
		PRIMARY KEY (run_id, shift_bp)
	);

	CREATE TABLE IF NOT EXISTS failures (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		security_id TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveReport stores rep in one transaction and returns its run id.
func (s *Store) SaveReport(ctx context.Context, rep *portfolio.Report) (string, error) {
	if rep == nil || rep.RunID == "" {
		return "", fmt.Errorf("SaveReport: report has no run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("SaveReport: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, report_date, created_at, positions, analyzed, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.ReportDate.Format(dateLayout), rep.CreatedAt.UTC().Format(time.RFC3339Nano),
		rep.Positions, len(rep.Analytics), len(rep.Failures),
	); err != nil {
		return "", fmt.Errorf("SaveReport: insert run: %w", err)
	}

	for i, a := range rep.Analytics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bond_analytics (run_id, seq, security_id, settlement, tenor, ytm, macaulay, modified, dv01, simple, clean_price, dirty_price, accrued, notional)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID, i, a.SecurityID, a.Settlement.Format(dateLayout), a.Tenor, a.YTM, a.Macaulay, a.Modified,
			a.DV01, a.Simple, a.CleanPrice, a.DirtyPrice, a.AccruedInterest, a.Notional.String(),
		); err != nil {
			return "", fmt.Errorf("SaveReport: insert analytics %s: %w", a.SecurityID, err)
		}
	}

	for _, b := range rep.Buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO buckets (run_id, bucket, dv01, accrued, notional, count) VALUES (?, ?, ?, ?, ?, ?)`,
			rep.RunID, b.Bucket, b.DV01, b.AccruedInterest, b.Notional.String(), b.Count,
		); err != nil {
			return "", fmt.Errorf("SaveReport: insert bucket %d: %w", b.Bucket, err)
		}
	}

	for _, sc := range rep.Scenarios {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenarios (run_id, shift_bp, profit, loss) VALUES (?, ?, ?, ?)`,
			rep.RunID, sc.ShiftBp, sc.Profit, sc.Loss,
		); err != nil {
			return "", fmt.Errorf("SaveReport: insert scenario %vbp: %w", sc.ShiftBp, err)
		}
	}

	for i, f := range rep.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, seq, security_id, message) VALUES (?, ?, ?, ?)`,
			rep.RunID, i, f.SecurityID, f.Err.Error(),
		); err != nil {
			return "", fmt.Errorf("SaveReport: insert failure %s: %w", f.SecurityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("SaveReport: commit: %w", err)
	}
	return rep.RunID, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_date, created_at, positions, analyzed, failed FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var reportDate, createdAt string
		if err := rows.Scan(&r.RunID, &reportDate, &createdAt, &r.Positions, &r.Analyzed, &r.Failed); err != nil {
			return nil, fmt.Errorf("ListRuns: %w", err)
		}
		if r.ReportDate, err = time.Parse(dateLayout, reportDate); err != nil {
			return nil, fmt.Errorf("ListRuns: run %s: %w", r.RunID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("ListRuns: run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadReport rebuilds an archived report. Per-bond shock rows are not
// archived, so BondAnalytics.Shocks is empty; failures come back with
// their message only.
func (s *Store) LoadReport(ctx context.Context, runID string) (*portfolio.Report, error) {
	rep := &portfolio.Report{RunID: runID}
	var reportDate, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT report_date, created_at, positions FROM runs WHERE id = ?`, runID,
	).Scan(&reportDate, &createdAt, &rep.Positions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LoadReport: %w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	if rep.ReportDate, err = time.Parse(dateLayout, reportDate); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	if rep.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}

	if err := s.loadAnalytics(ctx, rep); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	if err := s.loadBuckets(ctx, rep); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	if err := s.loadScenarios(ctx, rep); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	if err := s.loadFailures(ctx, rep); err != nil {
		return nil, fmt.Errorf("LoadReport: %w", err)
	}
	return rep, nil
}

func (s *Store) loadAnalytics(ctx context.Context, rep *portfolio.Report) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT security_id, settlement, tenor, ytm, macaulay, modified, dv01, simple, clean_price, dirty_price, accrued, notional
		 FROM bond_analytics WHERE run_id = ? ORDER BY seq`, rep.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a portfolio.BondAnalytics
		var settlement, notional string
		if err := rows.Scan(&a.SecurityID, &settlement, &a.Tenor, &a.YTM, &a.Macaulay, &a.Modified, &a.DV01,
			&a.Simple, &a.CleanPrice, &a.DirtyPrice, &a.AccruedInterest, &notional); err != nil {
			return err
		}
		if a.Settlement, err = time.Parse(dateLayout, settlement); err != nil {
			return err
		}
		if a.Notional, err = decimal.NewFromString(notional); err != nil {
			return fmt.Errorf("analytics %s: %w", a.SecurityID, err)
		}
		rep.Analytics = append(rep.Analytics, a)
	}
	return rows.Err()
}

func (s *Store) loadBuckets(ctx context.Context, rep *portfolio.Report) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bucket, dv01, accrued, notional, count FROM buckets WHERE run_id = ? ORDER BY bucket`, rep.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b portfolio.AggregateBucket
		var notional string
		if err := rows.Scan(&b.Bucket, &b.DV01, &b.AccruedInterest, &notional, &b.Count); err != nil {
			return err
		}
		if b.Notional, err = decimal.NewFromString(notional); err != nil {
			return fmt.Errorf("bucket %d: %w", b.Bucket, err)
		}
		rep.Buckets = append(rep.Buckets, b)
	}
	return rows.Err()
}

func (s *Store) loadScenarios(ctx context.Context, rep *portfolio.Report) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT shift_bp, profit, loss FROM scenarios WHERE run_id = ? ORDER BY shift_bp`, rep.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sc portfolio.ScenarioPnL
		if err := rows.Scan(&sc.ShiftBp, &sc.Profit, &sc.Loss); err != nil {
			return err
		}
		rep.Scenarios = append(rep.Scenarios, sc)
	}
	return rows.Err()
}

func (s *Store) loadFailures(ctx context.Context, rep *portfolio.Report) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT security_id, message FROM failures WHERE run_id = ? ORDER BY seq`, rep.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, msg string
		if err := rows.Scan(&id, &msg); err != nil {
			return err
		}
		rep.Failures = append(rep.Failures, portfolio.PositionError{SecurityID: id, Err: errors.New(msg)})
	}
	return rows.Err()
}
