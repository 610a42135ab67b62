package trait

import (
	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/ir"
	"github.com/lamarrr/tensorflow/internal/relation"
)

// Built-in trait names.
const (
	SameOperandsAndResultTypeOrRef             = "SameOperandsAndResultTypeOrRef"
	SameOperandsAndResultElementTypeResolveRef = "SameOperandsAndResultElementTypeResolveRef"
	SameOperandsAndResultType                  = "SameOperandsAndResultType"
	CwiseBinary                                = "CwiseBinary"
	CwiseUnary                                 = "CwiseUnary"
	OperandsBroadcastableToResult              = "OperandsBroadcastableToResult"
	LayoutAgnostic                             = "LayoutAgnostic"
	CannotDuplicate                            = "CannotDuplicate"
	NoSideEffect                               = "NoSideEffect"
	Commutative                                = "Commutative"
)

var standard = []Trait{
	Func(SameOperandsAndResultTypeOrRef, func(op Op) []diag.Diagnostic {
		return wrap(relation.CheckCastCompatible(op.KindName(), op.Location(), allValues(op)))
	}),
	Func(SameOperandsAndResultElementTypeResolveRef, func(op Op) []diag.Diagnostic {
		return wrap(relation.CheckElementTypesMatch(op.KindName(), op.Location(), allValues(op)))
	}),
	Func(SameOperandsAndResultType, func(op Op) []diag.Diagnostic {
		return wrap(relation.CheckSameTypes(op.KindName(), op.Location(), allValues(op)))
	}),
	Func(CwiseBinary, func(op Op) []diag.Diagnostic {
		if d := checkArity(op, CwiseBinary, 2, 1); d != nil {
			return wrap(d)
		}
		// The broadcast of x and y must also broadcast with the result.
		return wrap(relation.CheckBroadcastCompatible(op.KindName(), op.Location(), allValues(op)))
	}),
	Func(CwiseUnary, func(op Op) []diag.Diagnostic {
		if d := checkArity(op, CwiseUnary, 1, 1); d != nil {
			return wrap(d)
		}
		return wrap(relation.CheckBroadcastCompatible(op.KindName(), op.Location(), allValues(op)))
	}),
	Func(OperandsBroadcastableToResult, func(op Op) []diag.Diagnostic {
		var out []diag.Diagnostic
		for _, r := range op.ResultValues() {
			if d := relation.CheckBroadcastableTo(op.KindName(), op.Location(), r, op.OperandValues()); d != nil {
				out = append(out, *d)
			}
		}
		return out
	}),
	NewMarker(LayoutAgnostic),
	NewMarker(CannotDuplicate),
	NewMarker(NoSideEffect),
	NewMarker(Commutative),
}

func allValues(op Op) []ir.SlotValue {
	vals := append([]ir.SlotValue{}, op.OperandValues()...)
	return append(vals, op.ResultValues()...)
}

func wrap(d *diag.Diagnostic) []diag.Diagnostic {
	if d == nil {
		return nil
	}
	return []diag.Diagnostic{*d}
}

func checkArity(op Op, name string, operands, results int) *diag.Diagnostic {
	nOps, nRes := len(op.OperandValues()), len(op.ResultValues())
	if nOps == operands && nRes == results {
		return nil
	}
	d := diag.Newf(diag.KindTypeMismatch, op.KindName(), op.Location(),
		"%s requires %d operands and %d result, got %d operands and %d results",
		name, operands, results, nOps, nRes)
	return &d
}
