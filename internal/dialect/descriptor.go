// Package dialect holds operation kinds, their registry and the frozen
// catalog that verifies operation instances.
//
// Registration is a single-writer initialization phase:
//
//	reg, _ := dialect.NewRegistry("tf", "2.15.0")
//	_ = reg.Register(desc)
//	cat, _ := reg.Freeze()
//
// A Catalog is immutable and safe for concurrent readers.
package dialect

// Descriptor is the declarative record of one operation kind.
type Descriptor struct {
	Name      string        `json:"name"`
	Summary   string        `json:"summary,omitempty"`
	Available string        `json:"available,omitempty"` // semver constraint on the dialect version
	Operands  []SlotDesc    `json:"operands"`
	Results   []SlotDesc    `json:"results"`
	Attrs     []AttrDesc    `json:"attrs,omitempty"`
	Traits    []string      `json:"traits,omitempty"`
	Effects   []string      `json:"effects,omitempty"` // "Variable.Read" form
	Derived   []DerivedDesc `json:"derived,omitempty"`
}

// SlotDesc declares an operand or result slot.
type SlotDesc struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // tensor constraint name, e.g. "TF_NumberTensor"
	Variadic bool   `json:"variadic,omitempty"`
}

// AttrDesc declares an explicit string attribute restricted to Enum.
type AttrDesc struct {
	Name     string   `json:"name"`
	Enum     []string `json:"enum"`
	Optional bool     `json:"optional,omitempty"`
}

// DerivedDesc declares an attribute computed from the instance's operands or results.
type DerivedDesc struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // one of the DerivedKind values
	Slot string `json:"slot"` // operand or result slot name
}

// DerivedKind names a derived-attribute computation.
type DerivedKind string

const (
	DerivedOperandCount      DerivedKind = "operand_count"
	DerivedResultCount       DerivedKind = "result_count"
	DerivedElementType       DerivedKind = "element_type"
	DerivedElementTypeList   DerivedKind = "element_type_list"
	DerivedShapeList         DerivedKind = "shape_list"
	DerivedHandleElementType DerivedKind = "handle_element_type"
	DerivedHandleShape       DerivedKind = "handle_shape"
)

// DerivedKinds lists every supported derived-attribute kind.
var DerivedKinds = []DerivedKind{
	DerivedOperandCount,
	DerivedResultCount,
	DerivedElementType,
	DerivedElementTypeList,
	DerivedShapeList,
	DerivedHandleElementType,
	DerivedHandleShape,
}

// clone returns a deep copy so callers cannot mutate registered metadata.
func (d Descriptor) clone() Descriptor {
	out := d
	out.Operands = append([]SlotDesc(nil), d.Operands...)
	out.Results = append([]SlotDesc(nil), d.Results...)
	out.Attrs = make([]AttrDesc, len(d.Attrs))
	for i, a := range d.Attrs {
		a.Enum = append([]string(nil), a.Enum...)
		out.Attrs[i] = a
	}
	if d.Attrs == nil {
		out.Attrs = nil
	}
	out.Traits = append([]string(nil), d.Traits...)
	out.Effects = append([]string(nil), d.Effects...)
	out.Derived = append([]DerivedDesc(nil), d.Derived...)
	return out
}

// canonical returns the fingerprint document of the descriptor.
func (d Descriptor) canonical() map[string]any {
	slots := func(ss []SlotDesc) []any {
		out := make([]any, len(ss))
		for i, s := range ss {
			out[i] = map[string]any{"name": s.Name, "type": s.Type, "variadic": s.Variadic}
		}
		return out
	}
	attrs := make([]any, len(d.Attrs))
	for i, a := range d.Attrs {
		attrs[i] = map[string]any{"name": a.Name, "enum": a.Enum, "optional": a.Optional}
	}
	derived := make([]any, len(d.Derived))
	for i, dd := range d.Derived {
		derived[i] = map[string]any{"name": dd.Name, "kind": dd.Kind, "slot": dd.Slot}
	}
	return map[string]any{
		"name":      d.Name,
		"available": d.Available,
		"operands":  slots(d.Operands),
		"results":   slots(d.Results),
		"attrs":     attrs,
		"traits":    append([]string{}, d.Traits...),
		"effects":   append([]string{}, d.Effects...),
		"derived":   derived,
	}
}
