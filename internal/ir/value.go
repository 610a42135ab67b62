package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is the host graph's operand/result abstraction. The engine only reads it.
type Value interface {
	ID() string
	Type() TensorType
}

type value struct {
	id  string
	typ TensorType
}

func (v value) ID() string       { return v.id }
func (v value) Type() TensorType { return v.typ }

// NewValue returns an immutable Value.
func NewValue(id string, t TensorType) Value {
	return value{id: id, typ: t}
}

// SlotValue is a value addressed by its position in an operation signature.
type SlotValue struct {
	Slot     string
	Index    int
	Variadic bool
	Value    Value
}

// Label names the value for diagnostics: "x" for fixed slots, "values[1]" for variadic ones.
func (s SlotValue) Label() string {
	if s.Variadic {
		return fmt.Sprintf("%s[%d]", s.Slot, s.Index)
	}
	return s.Slot
}

// Types returns the tensor types of vals in order.
func Types(vals []SlotValue) []TensorType {
	out := make([]TensorType, len(vals))
	for i, v := range vals {
		out[i] = v.Value.Type()
	}
	return out
}

// AttrValue is a sealed interface over attribute values.
// Only StringAttr, IntAttr, BoolAttr, FloatAttr, TypeAttr, ShapeAttr and ArrayAttr implement it.
type AttrValue interface {
	attrValue()
	String() string
}

// StringAttr is a string attribute.
type StringAttr string

func (StringAttr) attrValue()       {}
func (a StringAttr) String() string { return string(a) }

// IntAttr is an integer attribute.
type IntAttr int64

func (IntAttr) attrValue()       {}
func (a IntAttr) String() string { return strconv.FormatInt(int64(a), 10) }

// BoolAttr is a boolean attribute.
type BoolAttr bool

func (BoolAttr) attrValue()       {}
func (a BoolAttr) String() string { return strconv.FormatBool(bool(a)) }

// FloatAttr is a floating-point attribute. It cannot take part in canonical encoding.
type FloatAttr float64

func (FloatAttr) attrValue()       {}
func (a FloatAttr) String() string { return strconv.FormatFloat(float64(a), 'g', -1, 64) }

// TypeAttr carries an element type.
type TypeAttr struct {
	Type ScalarType
}

func (TypeAttr) attrValue()       {}
func (a TypeAttr) String() string { return a.Type.String() }

// MarshalJSON encodes the type notation as a JSON string.
func (a TypeAttr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Type.String())
}

// ShapeAttr carries a shape.
type ShapeAttr struct {
	Shape Shape
}

func (ShapeAttr) attrValue()       {}
func (a ShapeAttr) String() string { return "[" + a.Shape.String() + "]" }

// MarshalJSON encodes the bracketed shape notation as a JSON string.
func (a ShapeAttr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// ArrayAttr is an ordered list of attributes.
type ArrayAttr []AttrValue

func (ArrayAttr) attrValue() {}

func (a ArrayAttr) String() string {
	parts := make([]string, len(a))
	for i, elem := range a {
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AttrEqual reports whether two attribute values are structurally equal.
func AttrEqual(a, b AttrValue) bool {
	switch av := a.(type) {
	case TypeAttr:
		bv, ok := b.(TypeAttr)
		return ok && av.Type.Equal(bv.Type)
	case ShapeAttr:
		bv, ok := b.(ShapeAttr)
		return ok && av.Shape.Equal(bv.Shape)
	case ArrayAttr:
		bv, ok := b.(ArrayAttr)
		return ok && slices.EqualFunc(av, bv, AttrEqual)
	default:
		return a == b
	}
}

// AttrFromAny converts a decoded YAML or JSON value into an AttrValue.
func AttrFromAny(v any) (AttrValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null attribute values are not allowed")
	case AttrValue:
		return val, nil
	case string:
		return StringAttr(val), nil
	case int:
		return IntAttr(val), nil
	case int64:
		return IntAttr(val), nil
	case bool:
		return BoolAttr(val), nil
	case float64:
		return FloatAttr(val), nil
	case []any:
		arr := make(ArrayAttr, len(val))
		for i, elem := range val {
			a, err := AttrFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = a
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value type: %T", v)
	}
}

// SortedKeys returns map keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for supplementary characters.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
