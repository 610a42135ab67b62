package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lamarrr/tensorflow/internal/diag"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded scenario execution.
type Run struct {
	ID                 string    `json:"id"`
	Scenario           string    `json:"scenario"`
	Dialect            string    `json:"dialect"`
	Version            string    `json:"version,omitempty"`
	CatalogFingerprint string    `json:"catalog_fingerprint"`
	ReportFingerprint  string    `json:"report_fingerprint"`
	Pass               bool      `json:"pass"`
	Instances          int       `json:"instances"`
	Diagnostics        int       `json:"diagnostics"`
	EngineVersion      string    `json:"engine_version"`
	CreatedAt          time.Time `json:"created_at"`
}

// DiagnosticRecord is a stored diagnostic with its position in the run.
type DiagnosticRecord struct {
	RunID   string `json:"run_id"`
	Ordinal int    `json:"ordinal"`
	// Build is true for a result-type inference failure.
	Build bool `json:"build,omitempty"`
	diag.Diagnostic
}

const runColumns = `id, scenario, dialect, version, catalog_fingerprint, report_fingerprint,
	pass, instances, diagnostics, engine_version, created_at`

// ListRuns returns the most recent runs first. A limit of zero or less returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ReadDiagnostics returns the diagnostics of a run in report order.
// Returns an empty slice (not nil) if the run recorded none.
func (s *Store) ReadDiagnostics(ctx context.Context, runID string) ([]DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, ordinal, location, op, kind, build, slots, types, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	records := []DiagnosticRecord{}
	for rows.Next() {
		var (
			rec          DiagnosticRecord
			kind         string
			build        int
			slots, types string
		)
		if err := rows.Scan(&rec.RunID, &rec.Ordinal, &rec.Location, &rec.Op, &kind, &build, &slots, &types, &rec.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		rec.Kind = diag.Kind(kind)
		rec.Build = build != 0
		if rec.Slots, err = unmarshalStrings(slots); err != nil {
			return nil, err
		}
		if rec.Types, err = unmarshalStrings(types); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return records, nil
}

// CountByKind returns the number of diagnostics of each kind recorded for a run.
func (s *Store) CountByKind(ctx context.Context, runID string) (map[diag.Kind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM diagnostics WHERE run_id = ? GROUP BY kind ORDER BY kind
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count diagnostics: %w", err)
	}
	defer rows.Close()

	counts := make(map[diag.Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[diag.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		pass      int
		createdAt string
	)
	err := row.Scan(
		&run.ID,
		&run.Scenario,
		&run.Dialect,
		&run.Version,
		&run.CatalogFingerprint,
		&run.ReportFingerprint,
		&pass,
		&run.Instances,
		&run.Diagnostics,
		&run.EngineVersion,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Pass = pass != 0
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("scan run %s: created_at: %w", run.ID, err)
	}
	return run, nil
}
