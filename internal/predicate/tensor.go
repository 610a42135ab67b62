package predicate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lamarrr/tensorflow/internal/ir"
)

// Tensor is a constraint over a tensor type.
type Tensor struct {
	Desc  string
	match func(ir.TensorType) bool
}

// Accepts reports whether t satisfies the constraint. The zero Tensor rejects everything.
func (c Tensor) Accepts(t ir.TensorType) bool {
	if c.match == nil {
		return false
	}
	return c.match(t)
}

func (c Tensor) String() string { return c.Desc }

// TensorOf accepts tensors of any rank whose element type satisfies p.
func TensorOf(p Element) Tensor {
	return Tensor{
		Desc: "tensor of " + p.Desc + " values",
		match: func(t ir.TensorType) bool {
			return p.Accepts(t.Elem)
		},
	}
}

// AnyTensor accepts every tensor.
func AnyTensor() Tensor {
	return Tensor{Desc: "tensor of any type values", match: func(ir.TensorType) bool { return true }}
}

// RankedTensorOf accepts ranked tensors whose rank is in ranks and whose element type satisfies p.
func RankedTensorOf(p Element, ranks ...int) Tensor {
	rs := slices.Clone(ranks)
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%dD", r)
	}
	return Tensor{
		Desc: strings.Join(parts, "/") + " tensor of " + p.Desc + " values",
		match: func(t ir.TensorType) bool {
			return t.Shape.IsRanked() && slices.Contains(rs, t.Shape.Rank()) && p.Accepts(t.Elem)
		},
	}
}

// AnyTensorOf accepts t when any constraint does. AnyTensorOf() rejects everything.
func AnyTensorOf(cs ...Tensor) Tensor {
	cs = slices.Clone(cs)
	descs := make([]string, len(cs))
	for i, c := range cs {
		descs[i] = c.Desc
	}
	desc := "nothing"
	if len(cs) > 0 {
		desc = strings.Join(descs, " or ")
	}
	return Tensor{
		Desc: desc,
		match: func(t ir.TensorType) bool {
			for _, c := range cs {
				if c.Accepts(t) {
					return true
				}
			}
			return false
		},
	}
}

// List is a constraint over the values bound to a variadic slot.
type List struct {
	Elem Tensor
}

// ListOf returns a list constraint whose every member must satisfy c.
func ListOf(c Tensor) List {
	return List{Elem: c}
}

// Accepts reports whether every type satisfies the element constraint. Empty lists are accepted.
func (l List) Accepts(ts []ir.TensorType) bool {
	return l.FirstRejected(ts) < 0
}

// FirstRejected returns the index of the first type that fails, or -1.
func (l List) FirstRejected(ts []ir.TensorType) int {
	for i, t := range ts {
		if !l.Elem.Accepts(t) {
			return i
		}
	}
	return -1
}

func (l List) String() string { return "variadic " + l.Elem.Desc }

// StrEnum is a string attribute restricted to a finite set of cases.
type StrEnum struct {
	Name  string
	Cases []string
}

// Contains reports whether s is one of the cases.
func (e StrEnum) Contains(s string) bool {
	return slices.Contains(e.Cases, s)
}

func (e StrEnum) String() string {
	return e.Name + "{" + strings.Join(e.Cases, ", ") + "}"
}
