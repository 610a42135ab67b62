// Package relation implements the cross-value type relations shared by
// traits and builders: reference resolution, cast compatibility and
// NumPy-style broadcasting.
//
// Every function is pure and safe for concurrent use. Failures are returned,
// never panicked.
package relation

import (
	"errors"
	"fmt"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// ErrNonBroadcastable is wrapped by BroadcastShapes when no result shape exists.
var ErrNonBroadcastable = errors.New("shapes are not broadcast-compatible")

// ResolveRef replaces a reference element type by its value type.
func ResolveRef(t ir.TensorType) ir.TensorType {
	return t.WithElem(t.Elem.Resolve())
}

// ShapesCastCompatible reports whether two shapes can describe the same runtime tensor:
// either is unranked, or the ranks match and every dimension pair is equal or has an
// unknown side.
func ShapesCastCompatible(a, b ir.Shape) bool {
	if !a.IsRanked() || !b.IsRanked() {
		return true
	}
	if a.Rank() != b.Rank() {
		return false
	}
	for i := 0; i < a.Rank(); i++ {
		da, db := a.Dim(i), b.Dim(i)
		if da != db && da != ir.DynamicDim && db != ir.DynamicDim {
			return false
		}
	}
	return true
}

// CastCompatible reports whether a and b are cast-compatible after resolving references.
// Element types must always be identical.
func CastCompatible(a, b ir.TensorType) bool {
	a, b = ResolveRef(a), ResolveRef(b)
	if !a.Elem.Equal(b.Elem) {
		return false
	}
	return ShapesCastCompatible(a.Shape, b.Shape)
}

// AreCastCompatible reports whether every type is cast-compatible with the first.
// Fewer than two types are trivially compatible.
func AreCastCompatible(ts ...ir.TensorType) bool {
	for i := 1; i < len(ts); i++ {
		if !CastCompatible(ts[0], ts[i]) {
			return false
		}
	}
	return true
}

// BroadcastShapes computes the NumPy broadcast of two shapes. Shapes are aligned at the
// trailing dimension. A pair is compatible when equal, when either side is 1, or when
// either side is unknown. An unknown paired with a size greater than 1 yields that size,
// paired with 0 it yields 0, otherwise it stays unknown. An unranked operand yields an unranked result.
func BroadcastShapes(a, b ir.Shape) (ir.Shape, error) {
	if !a.IsRanked() || !b.IsRanked() {
		return ir.Unranked(), nil
	}

	rank := max(a.Rank(), b.Rank())
	out := make([]int64, rank)
	for i := 1; i <= rank; i++ {
		da, db := trailingDim(a, i), trailingDim(b, i)
		d, ok := broadcastDim(da, db)
		if !ok {
			return ir.Shape{}, fmt.Errorf("%w: [%s] and [%s] differ at trailing dimension %d (%d vs %d)",
				ErrNonBroadcastable, a, b, i, da, db)
		}
		out[rank-i] = d
	}
	return ir.RankedShape(out...), nil
}

// trailingDim returns the i-th dimension counted from the end (1-based), or 1 past the rank.
func trailingDim(s ir.Shape, i int) int64 {
	if i > s.Rank() {
		return 1
	}
	return s.Dim(s.Rank() - i)
}

func broadcastDim(a, b int64) (int64, bool) {
	switch {
	case a == ir.DynamicDim || b == ir.DynamicDim:
		switch {
		case a > 1:
			return a, true
		case b > 1:
			return b, true
		case a == 1:
			return b, true
		case b == 1:
			return a, true
		case a == 0 || b == 0:
			return 0, true
		}
		return ir.DynamicDim, true
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	}
	return 0, false
}

// BroadcastAll folds BroadcastShapes over shapes. No shapes broadcast to rank 0.
func BroadcastAll(shapes ...ir.Shape) (ir.Shape, error) {
	out := ir.RankedShape()
	for _, s := range shapes {
		var err error
		if out, err = BroadcastShapes(out, s); err != nil {
			return ir.Shape{}, err
		}
	}
	return out, nil
}

// BroadcastCompatible reports whether a broadcast shape exists for a and b.
func BroadcastCompatible(a, b ir.TensorType) bool {
	_, err := BroadcastShapes(a.Shape, b.Shape)
	return err == nil
}

// Broadcastable reports whether the broadcast of the from shapes is shape-compatible
// with to. It is the relation behind TF_OpIsBroadcastableToRes.
func Broadcastable(to ir.TensorType, from ...ir.TensorType) bool {
	shapes := make([]ir.Shape, len(from))
	for i, t := range from {
		shapes[i] = t.Shape
	}
	s, err := BroadcastAll(shapes...)
	if err != nil {
		return false
	}
	return ShapesCastCompatible(s, to.Shape)
}
