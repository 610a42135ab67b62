package dialect

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/effect"
	"github.com/lamarrr/tensorflow/internal/ir"
	"github.com/lamarrr/tensorflow/internal/predicate"
	"github.com/lamarrr/tensorflow/internal/trait"
)

// Registry collects operation kinds during initialization.
//
// The registry is the single writer of kind metadata. Freeze hands an
// immutable Catalog to verification readers; any Register call after that
// is a configuration error. The mutex only serializes accidental concurrent
// registration, the contract is a single-threaded setup phase.
type Registry struct {
	mu      sync.Mutex
	dialect string
	version *semver.Version
	traits  trait.Table
	kinds   map[string]*Kind
	order   []string
	catalog *Catalog
	logger  *slog.Logger
	pending []trait.Trait
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry, the kinds it registers and the
// catalogs it freezes.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithTrait adds a dialect-specific trait to the registry's trait table.
// A name that collides with a built-in trait makes NewRegistry fail.
func WithTrait(tr trait.Trait) Option {
	return func(r *Registry) {
		r.pending = append(r.pending, tr)
	}
}

// NewRegistry creates an empty registry for the named dialect.
//
// version is the dialect's semantic version; descriptors with an "available"
// constraint are checked against it. An empty version disables the check.
func NewRegistry(dialect, version string, opts ...Option) (*Registry, error) {
	if dialect == "" {
		return nil, &diag.ConfigError{Op: "<dialect>", Field: "name", Message: "dialect name is required"}
	}
	r := &Registry{
		dialect: dialect,
		traits:  trait.Standard(),
		kinds:   make(map[string]*Kind),
		logger:  slog.Default(),
	}
	if version != "" {
		v, err := semver.NewVersion(version)
		if err != nil {
			return nil, &diag.ConfigError{Op: "<dialect>", Field: "version", Message: fmt.Sprintf("invalid version %q: %v", version, err)}
		}
		r.version = v
	}

	for _, opt := range opts {
		opt(r)
	}
	for _, tr := range r.pending {
		if err := r.traits.Add(tr); err != nil {
			return nil, &diag.ConfigError{Op: "<dialect>", Field: "traits", Message: err.Error()}
		}
	}
	r.pending = nil
	return r, nil
}

// Register validates desc and adds it to the registry.
//
// Every problem is a *diag.ConfigError reported eagerly, here, never at
// verification time: empty or duplicate names, unknown trait or constraint
// names, malformed effects, duplicate slot/attribute names, derived attributes
// of unknown kind or pointing at unknown slots, and availability constraints
// that are invalid or exclude the dialect version.
func (r *Registry) Register(desc Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return &diag.ConfigError{Op: desc.Name, Message: "registry is frozen"}
	}
	if desc.Name == "" {
		return &diag.ConfigError{Op: "<unnamed>", Field: "name", Message: "operation kind name is required"}
	}
	if _, exists := r.kinds[desc.Name]; exists {
		return &diag.ConfigError{Op: desc.Name, Field: "name", Message: "duplicate operation kind"}
	}

	k, err := r.build(desc)
	if err != nil {
		return err
	}
	r.kinds[k.name] = k
	r.order = append(r.order, k.name)

	r.logger.Debug("operation kind registered",
		"dialect", r.dialect,
		"op", k.name,
		"traits", len(k.traits),
		"effects", len(k.effects),
	)
	return nil
}

func (r *Registry) build(desc Descriptor) (*Kind, error) {
	name := desc.Name
	cfgErr := func(field, format string, args ...any) error {
		return &diag.ConfigError{Op: name, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	if desc.Available != "" {
		c, err := semver.NewConstraint(desc.Available)
		if err != nil {
			return nil, cfgErr("available", "invalid constraint %q: %v", desc.Available, err)
		}
		if r.version != nil && !c.Check(r.version) {
			return nil, cfgErr("available", "%q excludes dialect version %s", desc.Available, r.version)
		}
	}

	k := &Kind{name: name, desc: desc.clone(), logger: r.logger}
	seen := make(map[string]string)

	resolveSlots := func(field string, slots []SlotDesc) ([]SlotSpec, error) {
		out := make([]SlotSpec, 0, len(slots))
		for i, s := range slots {
			at := fmt.Sprintf("%s[%d]", field, i)
			if s.Name == "" {
				return nil, cfgErr(at, "slot name is required")
			}
			if prev, dup := seen[s.Name]; dup {
				return nil, cfgErr(at, "name %q already used by %s", s.Name, prev)
			}
			seen[s.Name] = at
			c, ok := predicate.LookupTensor(s.Type)
			if !ok {
				return nil, cfgErr(at, "unknown type constraint %q", s.Type)
			}
			out = append(out, SlotSpec{Name: s.Name, ConstraintName: s.Type, Constraint: c, Variadic: s.Variadic})
		}
		return out, nil
	}

	var err error
	if k.operands, err = resolveSlots("operands", desc.Operands); err != nil {
		return nil, err
	}
	if k.results, err = resolveSlots("results", desc.Results); err != nil {
		return nil, err
	}

	for i, a := range desc.Attrs {
		at := fmt.Sprintf("attrs[%d]", i)
		if a.Name == "" {
			return nil, cfgErr(at, "attribute name is required")
		}
		if prev, dup := seen[a.Name]; dup {
			return nil, cfgErr(at, "name %q already used by %s", a.Name, prev)
		}
		seen[a.Name] = at
		if len(a.Enum) == 0 {
			return nil, cfgErr(at, "attribute %q declares no enum cases", a.Name)
		}
		cases := slices.Clone(a.Enum)
		slices.Sort(cases)
		if len(slices.Compact(cases)) != len(a.Enum) {
			return nil, cfgErr(at, "attribute %q repeats an enum case", a.Name)
		}
		k.attrs = append(k.attrs, AttrSpec{
			Name:     a.Name,
			Enum:     predicate.StrEnum{Name: a.Name, Cases: slices.Clone(a.Enum)},
			Optional: a.Optional,
		})
	}

	if k.traits, err = r.traits.Resolve(name, desc.Traits); err != nil {
		return nil, err
	}

	for i, s := range desc.Effects {
		e, err := effect.Parse(s)
		if err != nil {
			return nil, cfgErr(fmt.Sprintf("effects[%d]", i), "%v", err)
		}
		if slices.Contains(k.effects, e) {
			return nil, cfgErr(fmt.Sprintf("effects[%d]", i), "duplicate effect %s", e)
		}
		k.effects = append(k.effects, e)
	}

	for i, d := range desc.Derived {
		at := fmt.Sprintf("derived[%d]", i)
		if d.Name == "" {
			return nil, cfgErr(at, "derived attribute name is required")
		}
		if prev, dup := seen[d.Name]; dup {
			return nil, cfgErr(at, "name %q already used by %s", d.Name, prev)
		}
		seen[d.Name] = at
		dk := DerivedKind(d.Kind)
		if !slices.Contains(DerivedKinds, dk) {
			return nil, cfgErr(at, "unknown derived kind %q", d.Kind)
		}
		switch {
		case dk == DerivedOperandCount && k.OperandIndex(d.Slot) < 0:
			return nil, cfgErr(at, "%s needs an operand slot, %q is not one", dk, d.Slot)
		case dk == DerivedResultCount && k.ResultIndex(d.Slot) < 0:
			return nil, cfgErr(at, "%s needs a result slot, %q is not one", dk, d.Slot)
		case k.OperandIndex(d.Slot) < 0 && k.ResultIndex(d.Slot) < 0:
			return nil, cfgErr(at, "unknown slot %q", d.Slot)
		}
		k.derived = append(k.derived, DerivedSpec{Name: d.Name, Kind: dk, Slot: d.Slot})
	}

	fp, err := ir.Fingerprint(ir.DomainKind, k.desc.canonical())
	if err != nil {
		return nil, cfgErr("", "fingerprint: %v", err)
	}
	k.fingerprint = fp
	return k, nil
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

// Freeze ends the registration phase and returns the immutable catalog.
// Calling Freeze again returns the same catalog.
func (r *Registry) Freeze() (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return r.catalog, nil
	}

	c := &Catalog{
		dialect: r.dialect,
		kinds:   make(map[string]*Kind, len(r.kinds)),
		names:   slices.Sorted(slices.Values(r.order)),
		logger:  r.logger,
	}
	if r.version != nil {
		c.version = r.version.String()
	}
	kindPrints := make(map[string]any, len(r.kinds))
	for name, k := range r.kinds {
		c.kinds[name] = k
		kindPrints[name] = k.fingerprint
	}
	fp, err := ir.Fingerprint(ir.DomainCatalog, map[string]any{
		"dialect": c.dialect,
		"version": c.version,
		"kinds":   kindPrints,
	})
	if err != nil {
		return nil, fmt.Errorf("freeze %s: %w", r.dialect, err)
	}
	c.fingerprint = fp
	r.catalog = c

	r.logger.Info("dialect frozen",
		"dialect", c.dialect,
		"version", c.version,
		"kinds", len(c.names),
		"fingerprint", fp[:12],
	)
	return c, nil
}
