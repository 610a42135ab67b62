package relation

import (
	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// CheckCastCompatible returns a TypeMismatch naming every value unless all are
// cast-compatible with the first.
func CheckCastCompatible(op, location string, vals []ir.SlotValue) *diag.Diagnostic {
	if AreCastCompatible(ir.Types(vals)...) {
		return nil
	}
	d := diag.New(diag.KindTypeMismatch, op, location,
		"requires all operands and results to have compatible types", vals...)
	return &d
}

// CheckElementTypesMatch returns a TypeMismatch naming every value unless all element
// types are equal after resolving references.
func CheckElementTypesMatch(op, location string, vals []ir.SlotValue) *diag.Diagnostic {
	if len(vals) < 2 {
		return nil
	}
	first := vals[0].Value.Type().Elem.Resolve()
	for _, v := range vals[1:] {
		if !v.Value.Type().Elem.Resolve().Equal(first) {
			d := diag.New(diag.KindTypeMismatch, op, location,
				"requires the same element type for all operands and results", vals...)
			return &d
		}
	}
	return nil
}

// CheckSameTypes returns a TypeMismatch unless every type is identical, references included.
func CheckSameTypes(op, location string, vals []ir.SlotValue) *diag.Diagnostic {
	if len(vals) < 2 {
		return nil
	}
	first := vals[0].Value.Type()
	for _, v := range vals[1:] {
		if !v.Value.Type().Equal(first) {
			d := diag.New(diag.KindTypeMismatch, op, location,
				"requires all operands and results to have the same type", vals...)
			return &d
		}
	}
	return nil
}

// CheckBroadcastCompatible returns a TypeMismatch naming every value unless their
// shapes broadcast together.
func CheckBroadcastCompatible(op, location string, vals []ir.SlotValue) *diag.Diagnostic {
	shapes := make([]ir.Shape, len(vals))
	for i, v := range vals {
		shapes[i] = v.Value.Type().Shape
	}
	if _, err := BroadcastAll(shapes...); err != nil {
		d := diag.New(diag.KindTypeMismatch, op, location, err.Error(), vals...)
		return &d
	}
	return nil
}

// CheckBroadcastableTo returns a TypeMismatch unless the broadcast of the operand shapes
// is shape-compatible with the result.
func CheckBroadcastableTo(op, location string, result ir.SlotValue, operands []ir.SlotValue) *diag.Diagnostic {
	if Broadcastable(result.Value.Type(), ir.Types(operands)...) {
		return nil
	}
	vals := append(append([]ir.SlotValue{}, operands...), result)
	d := diag.New(diag.KindTypeMismatch, op, location,
		"operands do not broadcast to the result shape", vals...)
	return &d
}
