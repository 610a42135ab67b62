package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DynamicDim marks a dimension whose size is unknown until run time.
const DynamicDim int64 = -1

// Shape is either unranked or an ordered sequence of dimension sizes.
// The zero value is the rank-0 (scalar) shape.
type Shape struct {
	unranked bool
	dims     []int64
}

// Unranked returns the shape of a tensor whose rank is unknown.
func Unranked() Shape {
	return Shape{unranked: true}
}

// RankedShape returns a ranked shape. Use DynamicDim for unknown sizes.
func RankedShape(dims ...int64) Shape {
	return Shape{dims: slices.Clone(dims)}
}

// IsRanked reports whether the rank is known.
func (s Shape) IsRanked() bool { return !s.unranked }

// Rank returns the number of dimensions, or -1 when unranked.
func (s Shape) Rank() int {
	if s.unranked {
		return -1
	}
	return len(s.dims)
}

// Dims returns a copy of the dimension sizes. Unranked shapes return nil.
func (s Shape) Dims() []int64 {
	return slices.Clone(s.dims)
}

// Dim returns the size of dimension i.
func (s Shape) Dim(i int) int64 {
	return s.dims[i]
}

// IsStatic reports whether the shape is ranked and every size is known.
func (s Shape) IsStatic() bool {
	if s.unranked {
		return false
	}
	return !slices.Contains(s.dims, DynamicDim)
}

// NumElements returns the total number of elements, or -1 if it is not static.
func (s Shape) NumElements() int64 {
	if !s.IsStatic() {
		return -1
	}
	n := int64(1) // Scalar has 1 element
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// Validate checks that every ranked dimension is non-negative or DynamicDim.
func (s Shape) Validate() error {
	for i, d := range s.dims {
		if d < 0 && d != DynamicDim {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0 or dynamic)", i, d)
		}
	}
	return nil
}

// Equal checks if two shapes are identical, treating unknown sizes as plain values.
func (s Shape) Equal(other Shape) bool {
	if s.unranked != other.unranked {
		return false
	}
	return slices.Equal(s.dims, other.dims)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{unranked: s.unranked, dims: slices.Clone(s.dims)}
}

// String returns "*" for unranked shapes and "2x?x3" style otherwise.
// The rank-0 shape is the empty string.
func (s Shape) String() string {
	if s.unranked {
		return "*"
	}
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		if d == DynamicDim {
			parts[i] = "?"
		} else {
			parts[i] = strconv.FormatInt(d, 10)
		}
	}
	return strings.Join(parts, "x")
}

// MarshalText encodes the shape as bracketed notation, e.g. "[2x?]" or "[*]".
func (s Shape) MarshalText() ([]byte, error) {
	return []byte("[" + s.String() + "]"), nil
}
