// Package predicate provides composable element-type and container-type
// constraints, and the named catalog descriptors refer to them by.
//
// Predicates are values holding a pure function. They are immutable and
// safe for concurrent use.
package predicate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// Element is a predicate over a single scalar type.
type Element struct {
	Desc  string
	match func(ir.ScalarType) bool
}

// NewElement wraps a match function as an Element.
func NewElement(desc string, match func(ir.ScalarType) bool) Element {
	return Element{Desc: desc, match: match}
}

// Accepts reports whether t satisfies the predicate. The zero Element rejects everything.
func (p Element) Accepts(t ir.ScalarType) bool {
	if p.match == nil {
		return false
	}
	return p.match(t)
}

func (p Element) String() string { return p.Desc }

// valueKind accepts non-reference types of the given kind whose width is in widths.
// An empty widths list accepts every width.
func valueKind(desc string, kind ir.ScalarKind, widths []int) Element {
	ws := slices.Clone(widths)
	return Element{Desc: desc, match: func(t ir.ScalarType) bool {
		if t.IsRef() || t.Kind() != kind {
			return false
		}
		return len(ws) == 0 || slices.Contains(ws, t.Width())
	}}
}

func widthDesc(widths []int, noun string) string {
	if len(widths) == 0 {
		return noun
	}
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = fmt.Sprint(w)
	}
	return strings.Join(parts, "/") + "-bit " + noun
}

// SignedIntOfWidths accepts signed integers of the listed widths.
func SignedIntOfWidths(widths ...int) Element {
	return valueKind(widthDesc(widths, "signed integer"), ir.KindSignedInt, widths)
}

// UnsignedIntOfWidths accepts unsigned integers of the listed widths.
func UnsignedIntOfWidths(widths ...int) Element {
	return valueKind(widthDesc(widths, "unsigned integer"), ir.KindUnsignedInt, widths)
}

// FloatOfWidths accepts IEEE floats of the listed widths. bfloat16 is not an IEEE float.
func FloatOfWidths(widths ...int) Element {
	return valueKind(widthDesc(widths, "float"), ir.KindFloat, widths)
}

// BFloat16 accepts the brain-float type.
func BFloat16() Element { return valueKind("bfloat16", ir.KindBFloat16, nil) }

// String accepts the string type.
func String() Element { return valueKind("string", ir.KindString, nil) }

// Variant accepts variant types with any subtypes.
func Variant() Element { return valueKind("variant", ir.KindVariant, nil) }

// Resource accepts resource handle types with any subtypes.
func Resource() Element { return valueKind("resource", ir.KindResource, nil) }

// Bool accepts the boolean type.
func Bool() Element { return valueKind("bool", ir.KindBool, nil) }

// ComplexOf accepts complex types whose component float type satisfies component.
// complex64 has component f32.
func ComplexOf(component Element) Element {
	return Element{
		Desc: "complex with " + component.Desc + " elements",
		match: func(t ir.ScalarType) bool {
			if t.IsRef() {
				return false
			}
			c, ok := t.Component()
			return ok && component.Accepts(c)
		},
	}
}

// QuantizedOf accepts quantized integers of the given family and widths.
func QuantizedOf(kind ir.QuantKind, widths ...int) Element {
	inner := valueKind("", ir.KindQuantized, widths)
	return Element{
		Desc: widthDesc(widths, kind.String()),
		match: func(t ir.ScalarType) bool {
			return t.QuantKind() == kind && inner.Accepts(t)
		},
	}
}

// HasCapability accepts dialect-specific opaque types that implement capability.
func HasCapability(capability string) Element {
	return Element{
		Desc: "type implementing " + capability,
		match: func(t ir.ScalarType) bool {
			return !t.IsRef() && t.Kind() == ir.KindOpaque && t.HasCapability(capability)
		},
	}
}

// AnyOf is logical OR with short-circuit on the first match. AnyOf() rejects everything.
func AnyOf(ps ...Element) Element {
	ps = slices.Clone(ps)
	return Element{
		Desc: joinDesc(ps, " or ", "nothing"),
		match: func(t ir.ScalarType) bool {
			for _, p := range ps {
				if p.Accepts(t) {
					return true
				}
			}
			return false
		},
	}
}

// AllOf is logical AND. AllOf() accepts everything.
func AllOf(ps ...Element) Element {
	ps = slices.Clone(ps)
	return Element{
		Desc: joinDesc(ps, " and ", "anything"),
		match: func(t ir.ScalarType) bool {
			for _, p := range ps {
				if !p.Accepts(t) {
					return false
				}
			}
			return true
		},
	}
}

// RefOf accepts only reference types whose resolved type satisfies p.
func RefOf(p Element) Element {
	return Element{
		Desc: p.Desc + " reference",
		match: func(t ir.ScalarType) bool {
			return t.IsRef() && p.Accepts(t.Resolve())
		},
	}
}

// OrRef accepts t when p accepts it directly or through a reference.
func OrRef(p Element) Element {
	return Element{
		Desc: p.Desc + " or reference",
		match: func(t ir.ScalarType) bool {
			return p.Accepts(t.Resolve())
		},
	}
}

func joinDesc(ps []Element, sep, empty string) string {
	if len(ps) == 0 {
		return empty
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Desc
	}
	return strings.Join(parts, sep)
}
