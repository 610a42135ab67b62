package dialect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/effect"
	"github.com/lamarrr/tensorflow/internal/ir"
	"github.com/lamarrr/tensorflow/internal/trait"
)

// ErrUnknownKind is returned by catalog queries for a name that was never registered.
var ErrUnknownKind = errors.New("unknown operation kind")

// Catalog is the frozen set of kinds of one dialect.
// It is never mutated after Freeze and is safe for concurrent readers.
type Catalog struct {
	dialect     string
	version     string
	kinds       map[string]*Kind
	names       []string
	fingerprint string
	logger      *slog.Logger
}

// Dialect returns the dialect name.
func (c *Catalog) Dialect() string { return c.dialect }

// Version returns the dialect version, or "" when none was given.
func (c *Catalog) Version() string { return c.version }

// Fingerprint returns a stable hash over every registered kind.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Len returns the number of kinds.
func (c *Catalog) Len() int { return len(c.names) }

// Lookup returns the kind with the given name.
func (c *Catalog) Lookup(name string) (*Kind, bool) {
	k, ok := c.kinds[name]
	return k, ok
}

// Kinds returns every kind name in sorted order.
func (c *Catalog) Kinds() []string { return append([]string(nil), c.names...) }

// Descriptors returns the descriptors of every kind, sorted by name.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.names))
	for i, name := range c.names {
		out[i] = c.kinds[name].Descriptor()
	}
	return out
}

func (c *Catalog) kind(name string) (*Kind, error) {
	k, ok := c.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", c.dialect, name, ErrUnknownKind)
	}
	return k, nil
}

// TraitsOf returns the trait names declared by the kind.
func (c *Catalog) TraitsOf(name string) ([]string, error) {
	k, err := c.kind(name)
	if err != nil {
		return nil, err
	}
	return k.TraitNames(), nil
}

// EffectsOf returns a copy of the resource effects declared by the kind.
func (c *Catalog) EffectsOf(name string) (effect.List, error) {
	k, err := c.kind(name)
	if err != nil {
		return nil, err
	}
	return k.Effects(), nil
}

// Conflicts reports whether instances of kinds a and b touch a common resource
// class with at least one non-read access, so a scheduler must keep their order.
func (c *Catalog) Conflicts(a, b string) (bool, error) {
	ka, err := c.kind(a)
	if err != nil {
		return false, err
	}
	kb, err := c.kind(b)
	if err != nil {
		return false, err
	}
	return ka.effects.Conflicts(kb.effects), nil
}

// Verify checks op against its kind and returns every diagnostic found.
//
// Checks run in a fixed order and never stop early:
//  1. slot arity (fixed slots bind exactly one value)
//  2. slot type constraints
//  3. explicit attributes (required, enum membership, undeclared names)
//  4. every declared trait, in declaration order
//
// An empty list means the instance is well-formed.
func (c *Catalog) Verify(op *Operation) diag.List {
	if op == nil || op.kind == nil {
		return diag.List{diag.Newf(diag.KindConfiguration, "", "", "nil operation")}
	}
	k := op.kind
	if registered, ok := c.kinds[k.name]; !ok || registered != k {
		return diag.List{diag.Newf(diag.KindConfiguration, k.name, op.location,
			"operation kind is not registered in dialect %s", c.dialect)}
	}

	var out diag.List
	out = append(out, c.verifyArity(op)...)
	out = append(out, c.verifyConstraints(op)...)
	out = append(out, c.verifyAttrs(op)...)
	out = append(out, trait.VerifyAll(op, k.traits)...)

	if len(out) > 0 {
		c.logger.Debug("verification failed",
			"op", k.name,
			"location", op.location,
			"diagnostics", len(out),
		)
	}
	return out
}

func (c *Catalog) verifyArity(op *Operation) []diag.Diagnostic {
	var out []diag.Diagnostic
	check := func(role string, specs []SlotSpec, groups [][]ir.Value) {
		for i, spec := range specs {
			if spec.Variadic || len(groups[i]) == 1 {
				continue
			}
			out = append(out, diag.Newf(diag.KindArityMismatch, op.kind.name, op.location,
				"%s %q expects exactly 1 value, got %d", role, spec.Name, len(groups[i])))
		}
	}
	check("operand", op.kind.operands, op.operands)
	check("result", op.kind.results, op.results)
	return out
}

func (c *Catalog) verifyConstraints(op *Operation) []diag.Diagnostic {
	var out []diag.Diagnostic
	check := func(result bool, specs []SlotSpec) {
		for i, spec := range specs {
			for _, sv := range op.slotValues(result, i) {
				if spec.Constraint.Accepts(sv.Value.Type()) {
					continue
				}
				out = append(out, diag.New(diag.KindConstraintViolation, op.kind.name, op.location,
					fmt.Sprintf("%s must be %s", sv.Label(), spec.Constraint.Desc), sv))
			}
		}
	}
	check(false, op.kind.operands)
	check(true, op.kind.results)
	return out
}

func (c *Catalog) verifyAttrs(op *Operation) []diag.Diagnostic {
	k := op.kind
	var out []diag.Diagnostic
	violation := func(format string, args ...any) {
		out = append(out, diag.Newf(diag.KindConstraintViolation, k.name, op.location, format, args...))
	}

	for _, spec := range k.attrs {
		v, ok := op.attrs[spec.Name]
		if !ok {
			if !spec.Optional {
				violation("missing required attribute %q", spec.Name)
			}
			continue
		}
		s, isString := v.(ir.StringAttr)
		if !isString {
			violation("attribute %q must be a string, got %s", spec.Name, v)
			continue
		}
		if !spec.Enum.Contains(string(s)) {
			violation("attribute %q = %q is not one of %s", spec.Name, string(s), spec.Enum)
		}
	}

	for _, name := range ir.SortedKeys(op.attrs) {
		if _, declared := k.Attr(name); declared {
			continue
		}
		if _, derived := k.DerivedAttr(name); derived {
			violation("attribute %q is derived and cannot be set explicitly", name)
			continue
		}
		violation("undeclared attribute %q", name)
	}
	return out
}
