package dialect

import (
	"fmt"
	"maps"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// Operation is a concrete use of a Kind. It references its operand and result
// values and owns only its explicit attributes.
type Operation struct {
	kind     *Kind
	location string
	operands [][]ir.Value
	results  [][]ir.Value
	attrs    map[string]ir.AttrValue
}

// NewOperation binds values to the kind's slots, one inner slice per declared slot.
// It fails only when the number of slot groups does not match the kind;
// value counts and typing are left to Catalog.Verify.
func NewOperation(kind *Kind, location string, operands, results [][]ir.Value, attrs map[string]ir.AttrValue) (*Operation, error) {
	if kind == nil {
		return nil, fmt.Errorf("new operation at %s: nil kind", location)
	}
	if len(operands) != len(kind.operands) {
		return nil, fmt.Errorf("new operation %s at %s: got %d operand slots, kind declares %d",
			kind.name, location, len(operands), len(kind.operands))
	}
	if len(results) != len(kind.results) {
		return nil, fmt.Errorf("new operation %s at %s: got %d result slots, kind declares %d",
			kind.name, location, len(results), len(kind.results))
	}
	op := &Operation{
		kind:     kind,
		location: location,
		operands: copyGroups(operands),
		results:  copyGroups(results),
		attrs:    maps.Clone(attrs),
	}
	if op.attrs == nil {
		op.attrs = map[string]ir.AttrValue{}
	}
	return op, nil
}

func copyGroups(groups [][]ir.Value) [][]ir.Value {
	out := make([][]ir.Value, len(groups))
	for i, g := range groups {
		out[i] = append([]ir.Value(nil), g...)
	}
	return out
}

// Kind returns the operation kind.
func (o *Operation) Kind() *Kind { return o.kind }

// KindName returns the kind's name.
func (o *Operation) KindName() string { return o.kind.name }

// Location returns the diagnostic location handle.
func (o *Operation) Location() string { return o.location }

// NumOperandSlots returns the number of operand slots.
func (o *Operation) NumOperandSlots() int { return len(o.operands) }

// NumResultSlots returns the number of result slots.
func (o *Operation) NumResultSlots() int { return len(o.results) }

// Operand returns the values bound to operand slot i.
func (o *Operation) Operand(i int) []ir.Value { return append([]ir.Value(nil), o.operands[i]...) }

// Result returns the values bound to result slot i.
func (o *Operation) Result(i int) []ir.Value { return append([]ir.Value(nil), o.results[i]...) }

// SlotValues returns the values bound to the named operand or result slot.
func (o *Operation) SlotValues(name string) ([]ir.Value, bool) {
	ref, ok := o.kind.Slot(name)
	if !ok {
		return nil, false
	}
	if ref.Result {
		return o.Result(ref.Index), true
	}
	return o.Operand(ref.Index), true
}

// Attr returns the explicit attribute with the given name.
func (o *Operation) Attr(name string) (ir.AttrValue, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

// Attrs returns a copy of the explicit attributes.
func (o *Operation) Attrs() map[string]ir.AttrValue { return maps.Clone(o.attrs) }

// OperandValues flattens every operand slot in declaration order.
func (o *Operation) OperandValues() []ir.SlotValue { return flatten(o.kind.operands, o.operands) }

// ResultValues flattens every result slot in declaration order.
func (o *Operation) ResultValues() []ir.SlotValue { return flatten(o.kind.results, o.results) }

// slotValues labels the values of one operand or result slot.
func (o *Operation) slotValues(result bool, i int) []ir.SlotValue {
	specs, groups := o.kind.operands, o.operands
	if result {
		specs, groups = o.kind.results, o.results
	}
	return label(specs[i], groups[i])
}

func flatten(specs []SlotSpec, groups [][]ir.Value) []ir.SlotValue {
	var out []ir.SlotValue
	for i, spec := range specs {
		out = append(out, label(spec, groups[i])...)
	}
	return out
}

func label(spec SlotSpec, vals []ir.Value) []ir.SlotValue {
	out := make([]ir.SlotValue, len(vals))
	for j, v := range vals {
		out[j] = ir.SlotValue{Slot: spec.Name, Index: j, Variadic: spec.Variadic, Value: v}
	}
	return out
}
