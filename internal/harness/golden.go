package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// Canonical returns the report as a map for canonical JSON serialization.
// Fingerprints and messages are omitted; diagnostics keep kind, slots and types.
func (r *Report) Canonical() map[string]any {
	instances := make([]any, len(r.Instances))
	for i, inst := range r.Instances {
		instances[i] = inst.canonical()
	}
	out := map[string]any{
		"scenario":  r.Scenario,
		"dialect":   r.Dialect,
		"pass":      r.Pass,
		"instances": instances,
	}
	if r.Version != "" {
		out["version"] = r.Version
	}
	if len(r.Errors) > 0 {
		out["errors"] = r.Errors
	}
	return out
}

func (inst *InstanceReport) canonical() map[string]any {
	diags := make([]any, len(inst.Diagnostics))
	for i, d := range inst.Diagnostics {
		entry := map[string]any{"kind": string(d.Kind)}
		if len(d.Slots) > 0 {
			entry["slots"] = d.Slots
			entry["types"] = d.Types
		}
		diags[i] = entry
	}

	out := map[string]any{
		"kind":        inst.Kind,
		"location":    inst.Location,
		"pass":        inst.Pass,
		"diagnostics": diags,
	}
	if len(inst.Derived) > 0 {
		out["derived"] = inst.Derived
	}
	if len(inst.DeriveErrors) > 0 {
		out["derive_errors"] = ir.SortedKeys(inst.DeriveErrors)
	}
	if len(inst.Inferred) > 0 {
		out["inferred"] = inst.Inferred
	}
	if inst.BuildError != nil {
		out["build_error"] = string(inst.BuildError.Kind)
	}
	if len(inst.Errors) > 0 {
		out["errors"] = inst.Errors
	}
	return out
}

// MarshalCanonical encodes the canonical form of the report.
func (r *Report) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(r.Canonical())
}

// Fingerprint hashes the canonical report.
func (r *Report) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainReport, r.Canonical())
}

// RunWithGolden executes a scenario and compares the report against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	report, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, report)
}

// AssertGolden compares the canonical form of report against a golden file.
func AssertGolden(t *testing.T, name string, report *Report) error {
	t.Helper()

	data, err := report.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
