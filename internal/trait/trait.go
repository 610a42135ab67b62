// Package trait provides named, stateless operation verifiers.
//
// An operation kind declares trait names; they are resolved against a Table
// when the kind is registered and ANDed at verification time.
package trait

import (
	"fmt"
	"slices"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// Op is the read-only view of an operation instance that traits verify.
type Op interface {
	KindName() string
	Location() string
	// OperandValues flattens every operand slot in declaration order.
	OperandValues() []ir.SlotValue
	// ResultValues flattens every result slot in declaration order.
	ResultValues() []ir.SlotValue
}

// Trait is a named verifier. Verify returns nil when the instance satisfies the trait.
type Trait interface {
	Name() string
	Verify(op Op) []diag.Diagnostic
}

// Marker is implemented by traits that carry metadata for other passes and never fail.
type Marker interface {
	Trait
	IsMarker()
}

type funcTrait struct {
	name string
	fn   func(Op) []diag.Diagnostic
}

func (t funcTrait) Name() string                   { return t.name }
func (t funcTrait) Verify(op Op) []diag.Diagnostic { return t.fn(op) }

// Func builds a Trait from a verification function.
func Func(name string, fn func(Op) []diag.Diagnostic) Trait {
	return funcTrait{name: name, fn: fn}
}

type markerTrait struct{ name string }

func (t markerTrait) Name() string              { return t.name }
func (markerTrait) Verify(Op) []diag.Diagnostic { return nil }
func (markerTrait) IsMarker()                   {}

// NewMarker builds a marker trait with no structural check.
func NewMarker(name string) Trait {
	return markerTrait{name: name}
}

// Table maps trait names to traits.
type Table map[string]Trait

// Standard returns a fresh table holding the built-in traits.
func Standard() Table {
	t := make(Table, len(standard))
	for _, tr := range standard {
		t[tr.Name()] = tr
	}
	return t
}

// Add registers tr, failing if the name is already taken.
func (t Table) Add(tr Trait) error {
	if _, exists := t[tr.Name()]; exists {
		return fmt.Errorf("trait %q already registered", tr.Name())
	}
	t[tr.Name()] = tr
	return nil
}

// Lookup returns the trait with the given name.
func (t Table) Lookup(name string) (Trait, bool) {
	tr, ok := t[name]
	return tr, ok
}

// Names returns every registered name in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve maps names to traits in order. An unknown name is a ConfigError naming op.
func (t Table) Resolve(op string, names []string) ([]Trait, error) {
	out := make([]Trait, 0, len(names))
	for i, name := range names {
		tr, ok := t[name]
		if !ok {
			return nil, &diag.ConfigError{
				Op:      op,
				Field:   fmt.Sprintf("traits[%d]", i),
				Message: fmt.Sprintf("unknown trait %q", name),
			}
		}
		out = append(out, tr)
	}
	return out, nil
}

// Lookup finds a built-in trait by name.
func Lookup(name string) (Trait, bool) {
	for _, tr := range standard {
		if tr.Name() == name {
			return tr, true
		}
	}
	return nil, false
}

// Names returns the built-in trait names in sorted order.
func Names() []string {
	return Standard().Names()
}

// VerifyAll runs every trait against op and concatenates their diagnostics in order.
func VerifyAll(op Op, traits []Trait) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, tr := range traits {
		out = append(out, tr.Verify(op)...)
	}
	return out
}
