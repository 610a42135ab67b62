// Package builder picks result types for broadcasting binary operations and
// constructs operation instances from them.
//
// Inference runs before verification. A failed inference is a hard
// construction failure: no operation is created.
package builder

import (
	"errors"
	"fmt"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/ir"
	"github.com/lamarrr/tensorflow/internal/relation"
)

// Infer computes the result type of a binary operation from its operands.
type Infer func(x, y ir.Value) (ir.TensorType, error)

// Inference names accepted by Lookup.
const (
	InferBroadcastBinary  = "broadcast_binary"
	InferBroadcastCompare = "broadcast_compare"
)

// Lookup returns the inference function with the given name.
func Lookup(name string) (Infer, bool) {
	switch name {
	case InferBroadcastBinary:
		return BroadcastBinOp, true
	case InferBroadcastCompare:
		return BroadcastCmpOp, true
	}
	return nil, false
}

// BroadcastBinOp returns the broadcast of x and y with x's element type,
// references resolved. When no broadcast shape exists the error is a
// *diag.Diagnostic of kind NonBroadcastable.
func BroadcastBinOp(x, y ir.Value) (ir.TensorType, error) {
	shape, err := broadcast(x, y)
	if err != nil {
		return ir.TensorType{}, err
	}
	return ir.TensorType{Elem: x.Type().Elem.Resolve(), Shape: shape}, nil
}

// BroadcastCmpOp infers the shape like BroadcastBinOp but always yields a bool
// element type. An unranked operand yields tensor<*xi1>.
func BroadcastCmpOp(x, y ir.Value) (ir.TensorType, error) {
	if !x.Type().Shape.IsRanked() || !y.Type().Shape.IsRanked() {
		return ir.UnrankedTensor(ir.Bool()), nil
	}
	shape, err := broadcast(x, y)
	if err != nil {
		return ir.TensorType{}, err
	}
	return ir.TensorType{Elem: ir.Bool(), Shape: shape}, nil
}

func broadcast(x, y ir.Value) (ir.Shape, error) {
	shape, err := relation.BroadcastShapes(x.Type().Shape, y.Type().Shape)
	if err != nil {
		d := diag.New(diag.KindNonBroadcastable, "", "", err.Error(),
			ir.SlotValue{Slot: "x", Value: x},
			ir.SlotValue{Slot: "y", Value: y},
		)
		return ir.Shape{}, &d
	}
	return shape, nil
}

// Build infers the single result of a two-operand kind and creates the operation.
//
// The kind must declare exactly two fixed operand slots and one fixed result
// slot. The result value is named "<loc>#0". An inference failure is returned
// as a *diag.Diagnostic carrying the kind name and loc; no operation is created.
func Build(kind *dialect.Kind, loc string, operands [][]ir.Value, attrs map[string]ir.AttrValue, infer Infer) (*dialect.Operation, error) {
	if infer == nil {
		return nil, fmt.Errorf("build %s at %s: no result inference", kind.Name(), loc)
	}
	if err := checkShape(kind, operands); err != nil {
		return nil, err
	}

	x, y := operands[0][0], operands[1][0]
	resultType, err := infer(x, y)
	if err != nil {
		var d *diag.Diagnostic
		if errors.As(err, &d) {
			out := *d
			out.Op = kind.Name()
			out.Location = loc
			slots := kind.Operands()
			if len(out.Slots) == 2 {
				out.Slots = []string{slots[0].Name, slots[1].Name}
			}
			return nil, &out
		}
		return nil, fmt.Errorf("build %s at %s: %w", kind.Name(), loc, err)
	}

	result := ir.NewValue(loc+"#0", resultType)
	return dialect.NewOperation(kind, loc, operands, [][]ir.Value{{result}}, attrs)
}

func checkShape(kind *dialect.Kind, operands [][]ir.Value) error {
	ops, res := kind.Operands(), kind.Results()
	if len(ops) != 2 || len(res) != 1 || ops[0].Variadic || ops[1].Variadic || res[0].Variadic {
		return fmt.Errorf("build %s: needs two fixed operand slots and one fixed result slot", kind.Name())
	}
	if len(operands) != 2 || len(operands[0]) != 1 || len(operands[1]) != 1 {
		return fmt.Errorf("build %s: needs exactly one value in each operand slot", kind.Name())
	}
	return nil
}
