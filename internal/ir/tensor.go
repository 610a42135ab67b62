package ir

import "fmt"

// TensorType pairs an element type with a shape.
type TensorType struct {
	Elem  ScalarType
	Shape Shape
}

// Tensor returns a ranked tensor type. With no dims it is rank 0.
func Tensor(elem ScalarType, dims ...int64) TensorType {
	return TensorType{Elem: elem, Shape: RankedShape(dims...)}
}

// UnrankedTensor returns a tensor type of unknown rank.
func UnrankedTensor(elem ScalarType) TensorType {
	return TensorType{Elem: elem, Shape: Unranked()}
}

// WithElem returns a copy of t with a different element type.
func (t TensorType) WithElem(elem ScalarType) TensorType {
	return TensorType{Elem: elem, Shape: t.Shape.Clone()}
}

// WithShape returns a copy of t with a different shape.
func (t TensorType) WithShape(s Shape) TensorType {
	return TensorType{Elem: t.Elem, Shape: s.Clone()}
}

// Equal reports whether both element type and shape are identical.
func (t TensorType) Equal(o TensorType) bool {
	return t.Elem.Equal(o.Elem) && t.Shape.Equal(o.Shape)
}

// String returns "tensor<2x3xf32>", "tensor<*xf32>" or "tensor<f32>" for rank 0.
func (t TensorType) String() string {
	if t.Shape.IsRanked() && t.Shape.Rank() == 0 {
		return fmt.Sprintf("tensor<%s>", t.Elem)
	}
	return fmt.Sprintf("tensor<%sx%s>", t.Shape, t.Elem)
}

// MarshalText encodes the type notation.
func (t TensorType) MarshalText() ([]byte, error) {
	if !t.Elem.IsValid() {
		return nil, fmt.Errorf("cannot encode tensor with invalid element type")
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes the type notation.
func (t *TensorType) UnmarshalText(data []byte) error {
	parsed, err := ParseType(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
