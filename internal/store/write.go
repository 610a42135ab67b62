package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/harness"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// WriteRun records report as a new run with all of its diagnostics, in one
// transaction. Build failures are stored as diagnostics flagged build.
func (s *Store) WriteRun(ctx context.Context, report *harness.Report) (Run, error) {
	fp, err := report.Fingerprint()
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	run := Run{
		ID:                 s.ids.Generate(),
		Scenario:           report.Scenario,
		Dialect:            report.Dialect,
		Version:            report.Version,
		CatalogFingerprint: report.CatalogFingerprint,
		ReportFingerprint:  fp,
		Pass:               report.Pass,
		Instances:          len(report.Instances),
		Diagnostics:        report.DiagnosticCount(),
		EngineVersion:      ir.EngineVersion,
		CreatedAt:          s.clock.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, dialect, version, catalog_fingerprint, report_fingerprint,
		 pass, instances, diagnostics, engine_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		run.Dialect,
		run.Version,
		run.CatalogFingerprint,
		run.ReportFingerprint,
		boolToInt(run.Pass),
		run.Instances,
		run.Diagnostics,
		run.EngineVersion,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	ordinal := 0
	insert := func(location string, d diag.Diagnostic, build bool) error {
		slots, err := marshalStrings(d.Slots)
		if err != nil {
			return err
		}
		types, err := marshalStrings(d.Types)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO diagnostics
			(run_id, ordinal, location, op, kind, build, slots, types, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, ordinal, location, d.Op, string(d.Kind), boolToInt(build), slots, types, d.Message)
		ordinal++
		return err
	}

	for _, inst := range report.Instances {
		if inst.BuildError != nil {
			if err := insert(inst.Location, *inst.BuildError, true); err != nil {
				return Run{}, fmt.Errorf("write run: build error at %s: %w", inst.Location, err)
			}
		}
		for _, d := range inst.Diagnostics {
			if err := insert(inst.Location, d, false); err != nil {
				return Run{}, fmt.Errorf("write run: diagnostic at %s: %w", inst.Location, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
