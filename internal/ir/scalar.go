package ir

import (
	"fmt"
	"slices"
	"strings"
)

// ScalarKind identifies the variant of a ScalarType.
type ScalarKind uint8

// Supported scalar kinds.
const (
	KindInvalid ScalarKind = iota
	KindSignedInt
	KindUnsignedInt
	KindFloat
	KindBFloat16
	KindComplex
	KindQuantized
	KindString
	KindVariant
	KindResource
	KindBool
	KindOpaque
)

// String returns a human-readable name for the kind.
func (k ScalarKind) String() string {
	switch k {
	case KindSignedInt:
		return "signed_int"
	case KindUnsignedInt:
		return "unsigned_int"
	case KindFloat:
		return "float"
	case KindBFloat16:
		return "bfloat16"
	case KindComplex:
		return "complex"
	case KindQuantized:
		return "quantized"
	case KindString:
		return "string"
	case KindVariant:
		return "variant"
	case KindResource:
		return "resource"
	case KindBool:
		return "bool"
	case KindOpaque:
		return "opaque"
	default:
		return "invalid"
	}
}

// QuantKind distinguishes signed from unsigned quantized integers.
type QuantKind uint8

// Quantized integer families.
const (
	QInt QuantKind = iota + 1
	QUInt
)

// String returns the TensorFlow spelling of the quantized family.
func (q QuantKind) String() string {
	switch q {
	case QInt:
		return "qint"
	case QUInt:
		return "quint"
	default:
		return "invalid"
	}
}

// ScalarType is an immutable element type. The zero value is invalid.
//
// Width is the bit width for integer, float and quantized kinds, and the
// component width for complex kinds (complex64 has width 32).
type ScalarType struct {
	kind     ScalarKind
	width    int
	quant    QuantKind
	ref      bool
	subtypes []TensorType
	dialect  string
	name     string
	caps     []string
}

// SignedInt returns a signed integer type of the given width.
func SignedInt(width int) ScalarType { return ScalarType{kind: KindSignedInt, width: width} }

// UnsignedInt returns an unsigned integer type of the given width.
func UnsignedInt(width int) ScalarType { return ScalarType{kind: KindUnsignedInt, width: width} }

// Float returns an IEEE float type of the given width.
func Float(width int) ScalarType { return ScalarType{kind: KindFloat, width: width} }

// BFloat16 returns the brain-float type.
func BFloat16() ScalarType { return ScalarType{kind: KindBFloat16, width: 16} }

// Complex returns a complex type whose real and imaginary parts have componentWidth bits.
func Complex(componentWidth int) ScalarType {
	return ScalarType{kind: KindComplex, width: componentWidth}
}

// Quantized returns a quantized integer type.
func Quantized(kind QuantKind, width int) ScalarType {
	return ScalarType{kind: KindQuantized, quant: kind, width: width}
}

// String returns the opaque string element type.
func String() ScalarType { return ScalarType{kind: KindString} }

// Bool returns the boolean element type.
func Bool() ScalarType { return ScalarType{kind: KindBool, width: 1} }

// Variant returns a variant type carrying the given subtypes.
func Variant(subtypes ...TensorType) ScalarType {
	return ScalarType{kind: KindVariant, subtypes: slices.Clone(subtypes)}
}

// Resource returns a resource handle type carrying the given subtypes.
func Resource(subtypes ...TensorType) ScalarType {
	return ScalarType{kind: KindResource, subtypes: slices.Clone(subtypes)}
}

// Opaque returns a dialect-specific scalar type that implements the given capabilities.
func Opaque(dialect, name string, capabilities ...string) ScalarType {
	caps := slices.Clone(capabilities)
	slices.Sort(caps)
	return ScalarType{kind: KindOpaque, dialect: dialect, name: name, caps: slices.Compact(caps)}
}

// Kind returns the scalar kind.
func (t ScalarType) Kind() ScalarKind { return t.kind }

// Width returns the bit width (component width for complex types).
func (t ScalarType) Width() int { return t.width }

// QuantKind returns the quantized family, or zero for non-quantized types.
func (t ScalarType) QuantKind() QuantKind { return t.quant }

// IsRef reports whether t is a mutable-cell reference type.
func (t ScalarType) IsRef() bool { return t.ref }

// IsValid reports whether t was built by one of the constructors.
func (t ScalarType) IsValid() bool { return t.kind != KindInvalid }

// Subtypes returns a copy of the resource or variant subtypes.
func (t ScalarType) Subtypes() []TensorType { return slices.Clone(t.subtypes) }

// NumSubtypes returns the number of declared subtypes.
func (t ScalarType) NumSubtypes() int { return len(t.subtypes) }

// Dialect returns the owning dialect of an opaque type.
func (t ScalarType) Dialect() string { return t.dialect }

// Name returns the type name of an opaque type.
func (t ScalarType) Name() string { return t.name }

// HasCapability reports whether an opaque type declares the capability.
func (t ScalarType) HasCapability(capability string) bool {
	_, found := slices.BinarySearch(t.caps, capability)
	return found
}

// Ref returns the reference variant of t. Ref of a reference type is itself.
func (t ScalarType) Ref() ScalarType {
	r := t
	r.ref = true
	return r
}

// Resolve returns the underlying value type of a reference type and t otherwise.
func (t ScalarType) Resolve() ScalarType {
	r := t
	r.ref = false
	return r
}

// Component returns the float type of the real and imaginary parts of a complex type.
func (t ScalarType) Component() (ScalarType, bool) {
	if t.kind != KindComplex {
		return ScalarType{}, false
	}
	return Float(t.width), true
}

// Equal reports whether t and o denote the same type, including the reference flag.
func (t ScalarType) Equal(o ScalarType) bool {
	if t.kind != o.kind || t.width != o.width || t.quant != o.quant || t.ref != o.ref {
		return false
	}
	if t.dialect != o.dialect || t.name != o.name || !slices.Equal(t.caps, o.caps) {
		return false
	}
	return slices.EqualFunc(t.subtypes, o.subtypes, TensorType.Equal)
}

// String returns the type notation, e.g. "f32", "!tf.f32ref" or "!tf.resource<tensor<4xf32>>".
func (t ScalarType) String() string {
	if t.ref {
		return "!" + refName(t)
	}
	switch t.kind {
	case KindBool:
		return "i1"
	case KindSignedInt:
		return fmt.Sprintf("i%d", t.width)
	case KindUnsignedInt:
		return fmt.Sprintf("ui%d", t.width)
	case KindFloat:
		return fmt.Sprintf("f%d", t.width)
	case KindBFloat16:
		return "bf16"
	case KindComplex:
		return fmt.Sprintf("complex%d", 2*t.width)
	case KindQuantized:
		return fmt.Sprintf("!tf.%s%d", t.quant, t.width)
	case KindString:
		return "!tf.string"
	case KindVariant:
		return "!tf.variant" + subtypeSuffix(t.subtypes)
	case KindResource:
		return "!tf.resource" + subtypeSuffix(t.subtypes)
	case KindOpaque:
		return "!" + t.dialect + "." + t.name + capSuffix(t.caps)
	default:
		return "<invalid>"
	}
}

// MarshalText encodes the type notation.
func (t ScalarType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("cannot encode invalid scalar type")
	}
	return []byte(t.String()), nil
}

func subtypeSuffix(subtypes []TensorType) string {
	if len(subtypes) == 0 {
		return ""
	}
	parts := make([]string, len(subtypes))
	for i, st := range subtypes {
		parts[i] = st.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// capSuffix renders opaque capabilities as "{a,b}".
func capSuffix(caps []string) string {
	if len(caps) == 0 {
		return ""
	}
	return "{" + strings.Join(caps, ",") + "}"
}

// refName returns the dialect-qualified name of a reference type without the leading "!".
func refName(t ScalarType) string {
	var base string
	switch t.kind {
	case KindBool:
		base = "bool"
	case KindSignedInt:
		base = fmt.Sprintf("int%d", t.width)
	case KindUnsignedInt:
		base = fmt.Sprintf("uint%d", t.width)
	case KindFloat:
		base = fmt.Sprintf("f%d", t.width)
	case KindBFloat16:
		base = "bfloat16"
	case KindComplex:
		base = fmt.Sprintf("complex%d", 2*t.width)
	case KindQuantized:
		base = fmt.Sprintf("%s%d", t.quant, t.width)
	case KindString:
		base = "string"
	case KindVariant:
		return "tf.variantref" + subtypeSuffix(t.subtypes)
	case KindResource:
		return "tf.resourceref" + subtypeSuffix(t.subtypes)
	case KindOpaque:
		return t.dialect + "." + t.name + "ref" + capSuffix(t.caps)
	default:
		base = "invalid"
	}
	return "tf." + base + "ref"
}
