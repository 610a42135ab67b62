package predicate

import (
	"slices"
	"strconv"
	"strings"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// elements is the named element-predicate table. It is built once and never mutated.
var elements = buildElements()

func buildElements() map[string]Element {
	m := map[string]Element{
		"TF_Int8":       SignedIntOfWidths(8),
		"TF_Int16":      SignedIntOfWidths(16),
		"TF_Int32":      SignedIntOfWidths(32),
		"TF_Int64":      SignedIntOfWidths(64),
		"TF_Uint8":      UnsignedIntOfWidths(8),
		"TF_Uint16":     UnsignedIntOfWidths(16),
		"TF_Uint32":     UnsignedIntOfWidths(32),
		"TF_Uint64":     UnsignedIntOfWidths(64),
		"TF_Float16":    FloatOfWidths(16),
		"TF_Float32":    FloatOfWidths(32),
		"TF_Float64":    FloatOfWidths(64),
		"TF_Bfloat16":   BFloat16(),
		"TF_Complex64":  ComplexOf(FloatOfWidths(32)),
		"TF_Complex128": ComplexOf(FloatOfWidths(64)),
		"TF_Qint8":      QuantizedOf(ir.QInt, 8),
		"TF_Qint16":     QuantizedOf(ir.QInt, 16),
		"TF_Qint32":     QuantizedOf(ir.QInt, 32),
		"TF_Quint8":     QuantizedOf(ir.QUInt, 8),
		"TF_Quint16":    QuantizedOf(ir.QUInt, 16),
		"TF_Str":        String(),
		"TF_Variant":    Variant(),
		"TF_Resource":   Resource(),
		"TF_Bool":       Bool(),
	}

	m["TF_SInt"] = SignedIntOfWidths(8, 16, 32, 64)
	m["TF_UInt"] = UnsignedIntOfWidths(8, 16, 32, 64)
	m["TF_Int"] = named("integer", AnyOf(m["TF_SInt"], m["TF_UInt"]))
	m["TF_I32OrI64"] = SignedIntOfWidths(32, 64)
	m["TF_Float"] = named("floating-point", AnyOf(FloatOfWidths(16, 32, 64), BFloat16()))
	m["TF_Complex"] = ComplexOf(FloatOfWidths(32, 64))
	m["TF_FloatOrComplex"] = named("floating-point or complex", AnyOf(m["TF_Float"], m["TF_Complex"]))
	m["TF_Quantized"] = named("quantized", AnyOf(QuantizedOf(ir.QInt, 8, 16, 32), QuantizedOf(ir.QUInt, 8, 16)))
	m["TF_NumberNotQuantized"] = named("non-quantized number", AnyOf(m["TF_Int"], m["TF_Float"], m["TF_Complex"]))
	m["TF_Number"] = named("number", AnyOf(m["TF_Int"], m["TF_Float"], m["TF_Quantized"], m["TF_Complex"]))
	m["TF_IntOrFloat"] = named("integer or floating-point", AnyOf(m["TF_Int"], m["TF_Float"]))
	m["TF_ElementType"] = named("any element type",
		AnyOf(m["TF_Number"], m["TF_Bool"], m["TF_Str"], m["TF_Resource"], m["TF_Variant"]))
	return m
}

func named(desc string, p Element) Element {
	p.Desc = desc
	return p
}

// LookupElement resolves a named element predicate. Besides the base names,
// "<name>Ref" resolves to RefOf(<name>) and "<name>OrRef" to OrRef(<name>).
func LookupElement(name string) (Element, bool) {
	if p, ok := elements[name]; ok {
		return p, true
	}
	if base, ok := strings.CutSuffix(name, "OrRef"); ok {
		if p, ok := elements[base]; ok {
			return OrRef(p), true
		}
	}
	if base, ok := strings.CutSuffix(name, "Ref"); ok {
		if p, ok := elements[base]; ok {
			return RefOf(p), true
		}
	}
	return Element{}, false
}

// ElementNames returns the base element names in sorted order.
func ElementNames() []string {
	names := make([]string, 0, len(elements))
	for name := range elements {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupTensor resolves a named tensor constraint. Accepted forms:
//
//	TF_Tensor                 any tensor
//	TF_<Elem>Tensor           TensorOf(TF_<Elem>), e.g. TF_Int32Tensor, TF_Float32RefTensor
//	TensorOf<A, B>            TensorOf(AnyOf(A, B)) over element names
//	<N>DTensorOf<A, B>        ranked form, e.g. 0DTensorOf<TF_Int32>
func LookupTensor(name string) (Tensor, bool) {
	if name == "TF_Tensor" {
		return AnyTensor(), true
	}
	if inner, ok := cutGeneric(name, "TensorOf"); ok {
		p, ok := lookupElementList(inner)
		if !ok {
			return Tensor{}, false
		}
		c := TensorOf(p)
		c.Desc = name
		return c, true
	}
	if i := strings.Index(name, "DTensorOf<"); i > 0 {
		rank, err := strconv.Atoi(name[:i])
		if err != nil || rank < 0 {
			return Tensor{}, false
		}
		inner, ok := cutGeneric(name[i+1:], "TensorOf")
		if !ok {
			return Tensor{}, false
		}
		p, ok := lookupElementList(inner)
		if !ok {
			return Tensor{}, false
		}
		c := RankedTensorOf(p, rank)
		c.Desc = name
		return c, true
	}
	if base, ok := strings.CutSuffix(name, "Tensor"); ok {
		if p, ok := LookupElement(base); ok {
			c := TensorOf(p)
			c.Desc = name
			return c, true
		}
	}
	return Tensor{}, false
}

// cutGeneric splits "Head<a, b>" into "a, b".
func cutGeneric(name, head string) (string, bool) {
	rest, ok := strings.CutPrefix(name, head+"<")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ">")
}

func lookupElementList(list string) (Element, bool) {
	var ps []Element
	for _, part := range strings.Split(list, ",") {
		p, ok := LookupElement(strings.TrimSpace(part))
		if !ok {
			return Element{}, false
		}
		ps = append(ps, p)
	}
	if len(ps) == 1 {
		return ps[0], true
	}
	return AnyOf(ps...), true
}
