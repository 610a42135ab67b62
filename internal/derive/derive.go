// Package derive computes derived attributes from an operation's current
// operand and result values.
//
// Nothing is cached or stored: every call recomputes from the values the
// operation references, and no call mutates them. Callers that need to reuse
// a result may cache it themselves.
package derive

import (
	"fmt"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// Evaluate computes the derived attribute declared by op's kind under name.
func Evaluate(op *dialect.Operation, name string) (ir.AttrValue, error) {
	spec, ok := op.Kind().DerivedAttr(name)
	if !ok {
		return nil, derivationError(op, name, "no derived attribute with this name")
	}
	return evaluate(op, spec)
}

func evaluate(op *dialect.Operation, spec dialect.DerivedSpec) (ir.AttrValue, error) {
	vals, ok := op.SlotValues(spec.Slot)
	if !ok {
		// Registration guarantees the slot exists.
		return nil, derivationError(op, spec.Name, fmt.Sprintf("unknown slot %q", spec.Slot))
	}

	switch spec.Kind {
	case dialect.DerivedOperandCount, dialect.DerivedResultCount:
		return ir.IntAttr(len(vals)), nil
	case dialect.DerivedElementType:
		return elementType(op, spec.Name, spec.Slot, vals)
	case dialect.DerivedElementTypeList:
		return elementTypeList(vals), nil
	case dialect.DerivedShapeList:
		return shapeList(vals), nil
	case dialect.DerivedHandleElementType:
		sub, err := handleSubtype(op, spec.Name, spec.Slot, vals)
		if err != nil {
			return nil, err
		}
		return ir.TypeAttr{Type: sub.Elem}, nil
	case dialect.DerivedHandleShape:
		sub, err := handleSubtype(op, spec.Name, spec.Slot, vals)
		if err != nil {
			return nil, err
		}
		return ir.ShapeAttr{Shape: sub.Shape}, nil
	default:
		return nil, derivationError(op, spec.Name, fmt.Sprintf("unsupported derived kind %q", spec.Kind))
	}
}

// Result pairs a derived attribute with its value or error.
type Result struct {
	Name  string
	Value ir.AttrValue
	Err   error
}

// All evaluates every derived attribute of op in declaration order.
// A failing attribute does not stop the others.
func All(op *dialect.Operation) []Result {
	specs := op.Kind().Derived()
	out := make([]Result, len(specs))
	for i, spec := range specs {
		v, err := evaluate(op, spec)
		out[i] = Result{Name: spec.Name, Value: v, Err: err}
	}
	return out
}

// OperandCount returns the number of values bound to operand slot idx.
func OperandCount(op *dialect.Operation, idx int) (int, error) {
	if idx < 0 || idx >= op.NumOperandSlots() {
		return 0, derivationError(op, "operand_count", fmt.Sprintf("operand slot %d out of range", idx))
	}
	return len(op.Operand(idx)), nil
}

// ResultCount returns the number of values bound to result slot idx.
func ResultCount(op *dialect.Operation, idx int) (int, error) {
	if idx < 0 || idx >= op.NumResultSlots() {
		return 0, derivationError(op, "result_count", fmt.Sprintf("result slot %d out of range", idx))
	}
	return len(op.Result(idx)), nil
}

// ElementType returns the element type of the first value in the named slot.
// An empty slot is a DerivationError.
func ElementType(op *dialect.Operation, slot string) (ir.ScalarType, error) {
	vals, err := slotValues(op, "element_type", slot)
	if err != nil {
		return ir.ScalarType{}, err
	}
	attr, err := elementType(op, "element_type", slot, vals)
	if err != nil {
		return ir.ScalarType{}, err
	}
	return attr.(ir.TypeAttr).Type, nil
}

// ElementTypeList returns one element type per value in the named slot, in slot order.
func ElementTypeList(op *dialect.Operation, slot string) ([]ir.ScalarType, error) {
	vals, err := slotValues(op, "element_type_list", slot)
	if err != nil {
		return nil, err
	}
	out := make([]ir.ScalarType, len(vals))
	for i, v := range vals {
		out[i] = v.Type().Elem
	}
	return out, nil
}

// ShapeList returns one shape per value in the named slot, in slot order.
func ShapeList(op *dialect.Operation, slot string) ([]ir.Shape, error) {
	vals, err := slotValues(op, "shape_list", slot)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Shape, len(vals))
	for i, v := range vals {
		out[i] = v.Type().Shape.Clone()
	}
	return out, nil
}

// HandleElementType returns the element type of the resource subtype carried
// by the named slot's value.
func HandleElementType(op *dialect.Operation, slot string) (ir.ScalarType, error) {
	vals, err := slotValues(op, "handle_element_type", slot)
	if err != nil {
		return ir.ScalarType{}, err
	}
	sub, err := handleSubtype(op, "handle_element_type", slot, vals)
	if err != nil {
		return ir.ScalarType{}, err
	}
	return sub.Elem, nil
}

// HandleShape returns the shape of the resource subtype carried by the named slot's value.
func HandleShape(op *dialect.Operation, slot string) (ir.Shape, error) {
	vals, err := slotValues(op, "handle_shape", slot)
	if err != nil {
		return ir.Shape{}, err
	}
	sub, err := handleSubtype(op, "handle_shape", slot, vals)
	if err != nil {
		return ir.Shape{}, err
	}
	return sub.Shape.Clone(), nil
}

func slotValues(op *dialect.Operation, attr, slot string) ([]ir.Value, error) {
	vals, ok := op.SlotValues(slot)
	if !ok {
		return nil, derivationError(op, attr, fmt.Sprintf("unknown slot %q", slot))
	}
	return vals, nil
}

func elementType(op *dialect.Operation, attr, slot string, vals []ir.Value) (ir.AttrValue, error) {
	if len(vals) == 0 {
		return nil, derivationError(op, attr, fmt.Sprintf("slot %q is empty", slot))
	}
	return ir.TypeAttr{Type: vals[0].Type().Elem}, nil
}

func elementTypeList(vals []ir.Value) ir.AttrValue {
	out := make(ir.ArrayAttr, len(vals))
	for i, v := range vals {
		out[i] = ir.TypeAttr{Type: v.Type().Elem}
	}
	return out
}

func shapeList(vals []ir.Value) ir.AttrValue {
	out := make(ir.ArrayAttr, len(vals))
	for i, v := range vals {
		out[i] = ir.ShapeAttr{Shape: v.Type().Shape.Clone()}
	}
	return out
}

// handleSubtype returns the first subtype of the resource held by the slot's
// first value. Resource types conventionally carry a single subtype; when more
// are present only the first is used.
func handleSubtype(op *dialect.Operation, attr, slot string, vals []ir.Value) (ir.TensorType, error) {
	if len(vals) == 0 {
		return ir.TensorType{}, derivationError(op, attr, fmt.Sprintf("slot %q is empty", slot))
	}
	elem := vals[0].Type().Elem.Resolve()
	if elem.Kind() != ir.KindResource {
		return ir.TensorType{}, derivationError(op, attr,
			fmt.Sprintf("slot %q holds %s, not a resource", slot, vals[0].Type()))
	}
	subs := elem.Subtypes()
	if len(subs) == 0 {
		return ir.TensorType{}, derivationError(op, attr,
			fmt.Sprintf("resource in slot %q declares no subtype", slot))
	}
	if len(subs) > 1 {
		op.Kind().Logger().Debug("resource carries several subtypes, using the first",
			"op", op.KindName(),
			"location", op.Location(),
			"attr", attr,
			"subtypes", len(subs),
		)
	}
	return subs[0], nil
}

func derivationError(op *dialect.Operation, attr, msg string) error {
	return &diag.DerivationError{Op: op.KindName(), Attr: attr, Message: msg}
}
