package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lamarrr/tensorflow/internal/builder"
	"github.com/lamarrr/tensorflow/internal/compiler"
	"github.com/lamarrr/tensorflow/internal/derive"
	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// Harness executes scenarios against a frozen catalog.
type Harness struct {
	catalog *dialect.Catalog
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a harness over cat.
func New(cat *dialect.Catalog, opts ...Option) *Harness {
	h := &Harness{
		catalog: cat,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run loads the scenario's descriptors and executes it.
//
// Execution flow:
// 1. Compile every spec directory and merge the ops into one dialect
// 2. Register the ops available at the scenario's dialect version and freeze
// 3. Build, verify and derive each instance
// 4. Compare each outcome with its expectations
func Run(scenario *Scenario, opts ...Option) (*Report, error) {
	h := New(nil, opts...)
	cat, err := LoadCatalog(scenario, dialect.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	h.catalog = cat
	return h.Execute(scenario)
}

// LoadCatalog compiles and registers the scenario's spec directories.
// All directories must declare the same dialect; the first version found wins
// unless the scenario overrides it.
func LoadCatalog(scenario *Scenario, opts ...dialect.Option) (*dialect.Catalog, error) {
	var merged *compiler.Dialect
	for _, dir := range scenario.Specs {
		v, err := compiler.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("spec %s: %w", dir, err)
		}
		d, errs := compiler.CompileDialect(v)
		if len(errs) > 0 {
			return nil, fmt.Errorf("spec %s: %w", dir, errs[0])
		}
		if merged == nil {
			merged = d
			continue
		}
		if d.Name != merged.Name {
			return nil, fmt.Errorf("spec %s: dialect %q differs from %q", dir, d.Name, merged.Name)
		}
		if merged.Version == "" {
			merged.Version = d.Version
		}
		merged.Ops = append(merged.Ops, d.Ops...)
	}

	cat, _, errs := compiler.Build(merged, scenario.DialectVersion, opts...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("register %s: %w", merged.Name, errs[0])
	}
	return cat, nil
}

// Execute runs every instance of scenario against the harness catalog.
// Malformed instances (unknown kinds, slots or type notation) are errors;
// unmet expectations are recorded in the report.
func (h *Harness) Execute(scenario *Scenario) (*Report, error) {
	report := NewReport(scenario.Name)
	report.Dialect = h.catalog.Dialect()
	report.Version = h.catalog.Version()
	report.CatalogFingerprint = h.catalog.Fingerprint()

	for i, inst := range scenario.Instances {
		res, err := h.executeInstance(inst)
		if err != nil {
			return nil, fmt.Errorf("instances[%d] (%s): %w", i, inst.Location, err)
		}
		res.Errors = checkExpectations(res, inst.Expect)
		report.AddInstance(*res)

		h.logger.Debug("instance executed",
			"kind", inst.Kind,
			"location", inst.Location,
			"diagnostics", len(res.Diagnostics),
			"pass", len(res.Errors) == 0,
		)
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"instances", len(report.Instances),
		"pass", report.Pass,
	)
	return report, nil
}

func (h *Harness) executeInstance(inst Instance) (*InstanceReport, error) {
	kind, ok := h.catalog.Lookup(inst.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dialect.ErrUnknownKind, inst.Kind)
	}
	out := &InstanceReport{Kind: inst.Kind, Location: inst.Location, Diagnostics: diag.List{}}

	operands, err := bindSlots(inst.Location, kind.Operands(), inst.Operands, "operands")
	if err != nil {
		return nil, err
	}
	attrs, err := convertAttrs(inst.Attrs)
	if err != nil {
		return nil, err
	}

	var op *dialect.Operation
	if inst.Build != "" {
		infer, ok := builder.Lookup(inst.Build)
		if !ok {
			return nil, fmt.Errorf("build: unknown builder %q", inst.Build)
		}
		op, err = builder.Build(kind, inst.Location, operands, attrs, infer)
		if err != nil {
			if diag.KindOf(err) == "" {
				return nil, err
			}
			d := asDiagnostic(err)
			out.BuildError = &d
			return out, nil
		}
		for _, sv := range op.ResultValues() {
			out.Inferred = append(out.Inferred, sv.Label()+": "+sv.Value.Type().String())
		}
	} else {
		results, err := bindSlots(inst.Location, kind.Results(), inst.Results, "results")
		if err != nil {
			return nil, err
		}
		op, err = dialect.NewOperation(kind, inst.Location, operands, results, attrs)
		if err != nil {
			return nil, err
		}
	}

	out.Diagnostics = append(out.Diagnostics, h.catalog.Verify(op)...)
	for _, r := range derive.All(op) {
		if r.Err != nil {
			if out.DeriveErrors == nil {
				out.DeriveErrors = make(map[string]string)
			}
			out.DeriveErrors[r.Name] = r.Err.Error()
			continue
		}
		if out.Derived == nil {
			out.Derived = make(map[string]string)
		}
		out.Derived[r.Name] = r.Value.String()
	}
	return out, nil
}

// bindSlots orders the types of byName along specs and parses them. Values are
// named "<location>/<label>". Unknown slot names are errors.
func bindSlots(location string, specs []dialect.SlotSpec, byName map[string][]string, field string) ([][]ir.Value, error) {
	known := make(map[string]bool, len(specs))
	groups := make([][]ir.Value, len(specs))
	for i, spec := range specs {
		known[spec.Name] = true
		for j, notation := range byName[spec.Name] {
			t, err := ir.ParseType(notation)
			if err != nil {
				return nil, fmt.Errorf("%s.%s[%d]: %w", field, spec.Name, j, err)
			}
			sv := ir.SlotValue{Slot: spec.Name, Index: j, Variadic: spec.Variadic}
			groups[i] = append(groups[i], ir.NewValue(location+"/"+sv.Label(), t))
		}
	}
	for _, name := range ir.SortedKeys(byName) {
		if !known[name] {
			return nil, fmt.Errorf("%s: unknown slot %q", field, name)
		}
	}
	return groups, nil
}

// convertAttrs converts YAML-decoded attribute values.
func convertAttrs(attrs map[string]any) (map[string]ir.AttrValue, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.AttrValue, len(attrs))
	for key, val := range attrs {
		a, err := ir.AttrFromAny(val)
		if err != nil {
			return nil, fmt.Errorf("attrs.%s: %w", key, err)
		}
		out[key] = a
	}
	return out, nil
}

// asDiagnostic returns the diagnostic carried by err, wrapping typed errors
// that carry only a kind.
func asDiagnostic(err error) diag.Diagnostic {
	var d *diag.Diagnostic
	if errors.As(err, &d) {
		return *d
	}
	return diag.Newf(diag.KindOf(err), "", "", "%v", err)
}
