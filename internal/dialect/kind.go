package dialect

import (
	"log/slog"

	"github.com/lamarrr/tensorflow/internal/effect"
	"github.com/lamarrr/tensorflow/internal/predicate"
	"github.com/lamarrr/tensorflow/internal/trait"
)

// Kind is a registered, immutable operation kind.
type Kind struct {
	name        string
	desc        Descriptor
	operands    []SlotSpec
	results     []SlotSpec
	attrs       []AttrSpec
	traits      []trait.Trait
	effects     effect.List
	derived     []DerivedSpec
	fingerprint string
	logger      *slog.Logger
}

// SlotSpec is a resolved operand or result slot.
type SlotSpec struct {
	Name           string
	ConstraintName string
	Constraint     predicate.Tensor
	Variadic       bool
}

// AttrSpec is a resolved explicit attribute.
type AttrSpec struct {
	Name     string
	Enum     predicate.StrEnum
	Optional bool
}

// DerivedSpec is a resolved derived attribute.
type DerivedSpec struct {
	Name string
	Kind DerivedKind
	Slot string
}

// Name returns the fully qualified kind name, e.g. "tf.AddV2".
func (k *Kind) Name() string { return k.name }

// Logger returns the logger of the registry the kind was registered with.
func (k *Kind) Logger() *slog.Logger { return k.logger }

// Summary returns the one-line description.
func (k *Kind) Summary() string { return k.desc.Summary }

// Descriptor returns a copy of the descriptor the kind was registered from.
func (k *Kind) Descriptor() Descriptor { return k.desc.clone() }

// Operands returns the operand slots in declaration order.
func (k *Kind) Operands() []SlotSpec { return append([]SlotSpec(nil), k.operands...) }

// Results returns the result slots in declaration order.
func (k *Kind) Results() []SlotSpec { return append([]SlotSpec(nil), k.results...) }

// Attrs returns the explicit attributes.
func (k *Kind) Attrs() []AttrSpec { return append([]AttrSpec(nil), k.attrs...) }

// Traits returns the resolved traits in declaration order.
func (k *Kind) Traits() []trait.Trait { return append([]trait.Trait(nil), k.traits...) }

// TraitNames returns the declared trait names.
func (k *Kind) TraitNames() []string {
	out := make([]string, len(k.traits))
	for i, tr := range k.traits {
		out[i] = tr.Name()
	}
	return out
}

// HasTrait reports whether the kind declares the named trait.
func (k *Kind) HasTrait(name string) bool {
	for _, tr := range k.traits {
		if tr.Name() == name {
			return true
		}
	}
	return false
}

// Effects returns a copy of the declared resource effects.
func (k *Kind) Effects() effect.List { return append(effect.List(nil), k.effects...) }

// Derived returns the derived attribute declarations.
func (k *Kind) Derived() []DerivedSpec { return append([]DerivedSpec(nil), k.derived...) }

// Fingerprint returns the content hash of the kind's descriptor.
func (k *Kind) Fingerprint() string { return k.fingerprint }

// DerivedAttr finds a derived attribute by name.
func (k *Kind) DerivedAttr(name string) (DerivedSpec, bool) {
	for _, d := range k.derived {
		if d.Name == name {
			return d, true
		}
	}
	return DerivedSpec{}, false
}

// Attr finds an explicit attribute by name.
func (k *Kind) Attr(name string) (AttrSpec, bool) {
	for _, a := range k.attrs {
		if a.Name == name {
			return a, true
		}
	}
	return AttrSpec{}, false
}

// SlotRef locates a slot by name.
type SlotRef struct {
	Result bool
	Index  int
	Spec   SlotSpec
}

// Slot finds an operand or result slot by name. Operands are searched first.
func (k *Kind) Slot(name string) (SlotRef, bool) {
	if i := slotIndex(k.operands, name); i >= 0 {
		return SlotRef{Index: i, Spec: k.operands[i]}, true
	}
	if i := slotIndex(k.results, name); i >= 0 {
		return SlotRef{Result: true, Index: i, Spec: k.results[i]}, true
	}
	return SlotRef{}, false
}

// OperandIndex returns the index of the named operand slot or -1.
func (k *Kind) OperandIndex(name string) int { return slotIndex(k.operands, name) }

// ResultIndex returns the index of the named result slot or -1.
func (k *Kind) ResultIndex(name string) int { return slotIndex(k.results, name) }

func slotIndex(slots []SlotSpec, name string) int {
	for i, s := range slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}
