// Package diag defines the diagnostics and typed errors reported by
// registration, verification and attribute derivation.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// Kind categorizes a diagnostic.
type Kind string

const (
	// KindConfiguration indicates a malformed operation-kind descriptor.
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindTypeMismatch indicates a failed cross-value type relation or trait.
	KindTypeMismatch Kind = "TYPE_MISMATCH"

	// KindNonBroadcastable indicates that no broadcast shape exists.
	KindNonBroadcastable Kind = "NON_BROADCASTABLE"

	// KindDerivation indicates a derived attribute could not be computed.
	KindDerivation Kind = "DERIVATION_ERROR"

	// KindConstraintViolation indicates a slot value or attribute outside its declared constraint.
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"

	// KindArityMismatch indicates a fixed slot bound to other than exactly one value.
	KindArityMismatch Kind = "ARITY_MISMATCH"
)

// Kinds lists every diagnostic kind.
var Kinds = []Kind{
	KindConfiguration,
	KindTypeMismatch,
	KindNonBroadcastable,
	KindDerivation,
	KindConstraintViolation,
	KindArityMismatch,
}

// ParseKind returns the Kind with the given name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown diagnostic kind %q", s)
}

// Diagnostic is one verification finding attached to an operation instance.
type Diagnostic struct {
	// Kind identifies the finding category.
	Kind Kind `json:"kind"`

	// Op is the operation kind name, e.g. "tf.AddV2".
	Op string `json:"op"`

	// Location is the host graph location of the instance.
	Location string `json:"location,omitempty"`

	// Slots are the labels of the values involved, e.g. "x" or "values[1]".
	Slots []string `json:"slots,omitempty"`

	// Types are the concrete types of the involved values, parallel to Slots.
	Types []string `json:"types,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Op)
	if d.Location != "" {
		fmt.Fprintf(&b, " at %s", d.Location)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	if len(d.Slots) > 0 {
		pairs := make([]string, len(d.Slots))
		for i, s := range d.Slots {
			if i < len(d.Types) {
				pairs[i] = s + ": " + d.Types[i]
			} else {
				pairs[i] = s
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
	}
	return b.String()
}

// New builds a diagnostic naming the given slot values.
func New(kind Kind, op, location, message string, vals ...ir.SlotValue) Diagnostic {
	d := Diagnostic{Kind: kind, Op: op, Location: location, Message: message}
	for _, v := range vals {
		d.Slots = append(d.Slots, v.Label())
		d.Types = append(d.Types, v.Value.Type().String())
	}
	return d
}

// Newf is like New with a formatted message and no slot values.
func Newf(kind Kind, op, location, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Op: op, Location: location, Message: fmt.Sprintf(format, args...)}
}

// List is an ordered collection of diagnostics from a single verification pass.
type List []Diagnostic

// Count returns the number of diagnostics of the given kind.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the kind of each diagnostic in order.
func (l List) Kinds() []Kind {
	out := make([]Kind, len(l))
	for i, d := range l {
		out[i] = d.Kind
	}
	return out
}

// Err joins all diagnostics into one error, or returns nil when the list is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	errs := make([]error, len(l))
	for i := range l {
		errs[i] = &l[i]
	}
	return errors.Join(errs...)
}
