package harness

import (
	"fmt"

	"github.com/lamarrr/tensorflow/internal/diag"
)

// Report is the outcome of a scenario execution.
type Report struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Dialect and Version identify the catalog the scenario ran against.
	Dialect string `json:"dialect"`
	Version string `json:"version,omitempty"`

	// CatalogFingerprint is the frozen catalog's content hash.
	CatalogFingerprint string `json:"catalog_fingerprint"`

	// Pass is true if every instance met its expectations.
	Pass bool `json:"pass"`

	// Instances holds one entry per scenario instance, in order.
	Instances []InstanceReport `json:"instances"`

	// Errors collects expectation failures as "<location>: <message>".
	Errors []string `json:"errors,omitempty"`
}

// InstanceReport is the outcome of one instance.
type InstanceReport struct {
	Kind     string `json:"kind"`
	Location string `json:"location"`
	Pass     bool   `json:"pass"`

	// Diagnostics are the verification findings, in verification order.
	Diagnostics diag.List `json:"diagnostics"`

	// Derived maps derived attribute names to their notation.
	Derived map[string]string `json:"derived,omitempty"`

	// DeriveErrors maps derived attributes that could not be computed to the reason.
	DeriveErrors map[string]string `json:"derive_errors,omitempty"`

	// Inferred lists "<slot>: <type>" for results computed by a builder.
	Inferred []string `json:"inferred,omitempty"`

	// BuildError is set when result-type inference failed; no operation exists then.
	BuildError *diag.Diagnostic `json:"build_error,omitempty"`

	// Errors lists expectation failures.
	Errors []string `json:"errors,omitempty"`
}

// NewReport creates a new passing report.
func NewReport(scenario string) *Report {
	return &Report{
		Scenario:  scenario,
		Pass:      true,
		Instances: []InstanceReport{},
	}
}

// AddInstance appends inst and folds its failures into the report.
func (r *Report) AddInstance(inst InstanceReport) {
	inst.Pass = len(inst.Errors) == 0
	for _, e := range inst.Errors {
		r.AddError(fmt.Sprintf("%s: %s", inst.Location, e))
	}
	r.Instances = append(r.Instances, inst)
}

// AddError adds an expectation failure and marks the report as failed.
func (r *Report) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// DiagnosticCount returns the number of diagnostics across all instances,
// build failures included.
func (r *Report) DiagnosticCount() int {
	n := 0
	for _, inst := range r.Instances {
		n += len(inst.Diagnostics)
		if inst.BuildError != nil {
			n++
		}
	}
	return n
}
