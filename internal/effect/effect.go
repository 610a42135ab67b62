// Package effect models the declared resource effects of stateful operation kinds.
//
// Effects are metadata for side-effect analysis and scheduling collaborators.
// Nothing here enforces ordering or takes locks.
package effect

import (
	"fmt"
	"slices"
	"strings"
)

// Resource is the class of runtime resource an operation touches.
type Resource string

const (
	Variable    Resource = "Variable"
	Stack       Resource = "Stack"
	TensorArray Resource = "TensorArray"
)

// Access is the kind of access an operation performs on a resource.
type Access string

const (
	Read  Access = "Read"
	Write Access = "Write"
	Alloc Access = "Alloc"
)

var (
	resources = []Resource{Variable, Stack, TensorArray}
	accesses  = []Access{Read, Write, Alloc}
)

// Effect is a single (resource, access) declaration.
type Effect struct {
	Resource Resource
	Access   Access
}

// String returns the textual form, e.g. "Variable.Read".
func (e Effect) String() string {
	return string(e.Resource) + "." + string(e.Access)
}

// MarshalText encodes the textual form.
func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Parse reads the textual form "Resource.Access".
func Parse(s string) (Effect, error) {
	res, acc, ok := strings.Cut(s, ".")
	if !ok {
		return Effect{}, fmt.Errorf("effect %q: expected Resource.Access", s)
	}
	if !slices.Contains(resources, Resource(res)) {
		return Effect{}, fmt.Errorf("effect %q: unknown resource %q (want one of %v)", s, res, resources)
	}
	if !slices.Contains(accesses, Access(acc)) {
		return Effect{}, fmt.Errorf("effect %q: unknown access %q (want one of %v)", s, acc, accesses)
	}
	return Effect{Resource: Resource(res), Access: Access(acc)}, nil
}

// List is an ordered set of effects declared by one operation kind.
type List []Effect

func (l List) filter(a Access) List {
	var out List
	for _, e := range l {
		if e.Access == a {
			out = append(out, e)
		}
	}
	return out
}

// Reads returns the read effects.
func (l List) Reads() List { return l.filter(Read) }

// Writes returns the write effects.
func (l List) Writes() List { return l.filter(Write) }

// Allocs returns the alloc effects.
func (l List) Allocs() List { return l.filter(Alloc) }

// Touches reports whether any effect names the resource.
func (l List) Touches(r Resource) bool {
	return slices.ContainsFunc(l, func(e Effect) bool { return e.Resource == r })
}

// Pure reports whether the list declares no effects.
func (l List) Pure() bool { return len(l) == 0 }

// Conflicts reports whether l and other cannot be reordered: one side writes or
// allocates a resource class the other side touches. Two readers never conflict.
func (l List) Conflicts(other List) bool {
	for _, a := range l {
		for _, b := range other {
			if a.Resource != b.Resource {
				continue
			}
			if a.Access != Read || b.Access != Read {
				return true
			}
		}
	}
	return false
}

// Strings returns the textual form of every effect.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.String()
	}
	return out
}
