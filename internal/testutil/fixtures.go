package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/ir"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Value builds a value from type notation, e.g. Value("x", "tensor<4xf32>").
func Value(id, typ string) ir.Value {
	return ir.NewValue(id, ir.MustParseType(typ))
}

// Values builds one slot group, naming values id0, id1, ...
func Values(id string, types ...string) []ir.Value {
	out := make([]ir.Value, len(types))
	for i, typ := range types {
		out[i] = Value(id+string(rune('0'+i)), typ)
	}
	return out
}

// Slots wraps single values into fixed-slot groups.
func Slots(vals ...ir.Value) [][]ir.Value {
	out := make([][]ir.Value, len(vals))
	for i, v := range vals {
		out[i] = []ir.Value{v}
	}
	return out
}

// Descriptors returns a small, representative set of TF operation kinds:
// broadcasting arithmetic and comparison, a variadic sum, resource variable
// access, stack and tensor-array handles, and a padded convolution.
func Descriptors() []dialect.Descriptor {
	return []dialect.Descriptor{
		{
			Name:     "tf.AddV2",
			Summary:  "Returns x + y element-wise.",
			Operands: []dialect.SlotDesc{{Name: "x", Type: "TF_NumberOrRefTensor"}, {Name: "y", Type: "TF_NumberOrRefTensor"}},
			Results:  []dialect.SlotDesc{{Name: "z", Type: "TF_NumberTensor"}},
			Traits:   []string{"SameOperandsAndResultElementTypeResolveRef", "CwiseBinary", "Commutative", "NoSideEffect"},
			Derived:  []dialect.DerivedDesc{{Name: "T", Kind: "element_type", Slot: "x"}},
		},
		{
			Name:     "tf.Less",
			Summary:  "Returns the truth value of (x < y) element-wise.",
			Operands: []dialect.SlotDesc{{Name: "x", Type: "TF_IntOrFloatTensor"}, {Name: "y", Type: "TF_IntOrFloatTensor"}},
			Results:  []dialect.SlotDesc{{Name: "z", Type: "TF_BoolTensor"}},
			Traits:   []string{"OperandsBroadcastableToResult", "NoSideEffect"},
			Derived:  []dialect.DerivedDesc{{Name: "T", Kind: "element_type", Slot: "x"}},
		},
		{
			Name:     "tf.Neg",
			Operands: []dialect.SlotDesc{{Name: "x", Type: "TF_NumberTensor"}},
			Results:  []dialect.SlotDesc{{Name: "y", Type: "TF_NumberTensor"}},
			Traits:   []string{"SameOperandsAndResultTypeOrRef", "CwiseUnary", "LayoutAgnostic"},
		},
		{
			Name:     "tf.AddN",
			Summary:  "Adds all input tensors element-wise.",
			Operands: []dialect.SlotDesc{{Name: "inputs", Type: "TF_NumberTensor", Variadic: true}},
			Results:  []dialect.SlotDesc{{Name: "sum", Type: "TF_NumberTensor"}},
			Traits:   []string{"SameOperandsAndResultTypeOrRef", "Commutative"},
			Derived: []dialect.DerivedDesc{
				{Name: "N", Kind: "operand_count", Slot: "inputs"},
				{Name: "T", Kind: "element_type", Slot: "inputs"},
			},
		},
		{
			Name:     "tf.IdentityN",
			Operands: []dialect.SlotDesc{{Name: "input", Type: "TF_Tensor", Variadic: true}},
			Results:  []dialect.SlotDesc{{Name: "output", Type: "TF_Tensor", Variadic: true}},
			Derived: []dialect.DerivedDesc{
				{Name: "T", Kind: "element_type_list", Slot: "input"},
				{Name: "shapes", Kind: "shape_list", Slot: "output"},
				{Name: "num_out", Kind: "result_count", Slot: "output"},
			},
		},
		{
			Name:     "tf.ReadVariableOp",
			Operands: []dialect.SlotDesc{{Name: "resource", Type: "TF_ResourceTensor"}},
			Results:  []dialect.SlotDesc{{Name: "value", Type: "TF_Tensor"}},
			Effects:  []string{"Variable.Read"},
			Derived: []dialect.DerivedDesc{
				{Name: "dtype", Kind: "handle_element_type", Slot: "resource"},
				{Name: "shape", Kind: "handle_shape", Slot: "resource"},
			},
		},
		{
			Name:     "tf.AssignVariableOp",
			Operands: []dialect.SlotDesc{{Name: "resource", Type: "TF_ResourceTensor"}, {Name: "value", Type: "TF_Tensor"}},
			Effects:  []string{"Variable.Write"},
			Derived:  []dialect.DerivedDesc{{Name: "dtype", Kind: "element_type", Slot: "value"}},
		},
		{
			Name:    "tf.VarHandleOp",
			Results: []dialect.SlotDesc{{Name: "resource", Type: "TF_ResourceTensor"}},
			Effects: []string{"Variable.Alloc"},
			Traits:  []string{"CannotDuplicate"},
		},
		{
			Name:     "tf.StackPushV2",
			Operands: []dialect.SlotDesc{{Name: "handle", Type: "TF_ResourceTensor"}, {Name: "elem", Type: "TF_Tensor"}},
			Results:  []dialect.SlotDesc{{Name: "output", Type: "TF_Tensor"}},
			Effects:  []string{"Stack.Read", "Stack.Write"},
		},
		{
			Name:     "tf.TensorArrayV3",
			Operands: []dialect.SlotDesc{{Name: "size", Type: "TF_Int32Tensor"}},
			Results:  []dialect.SlotDesc{{Name: "handle", Type: "TF_ResourceTensor"}, {Name: "flow", Type: "TF_Float32Tensor"}},
			Effects:  []string{"TensorArray.Alloc"},
			Attrs:    []dialect.AttrDesc{{Name: "element_shape_except0", Enum: []string{"known", "unknown"}, Optional: true}},
		},
		{
			Name:     "tf.Conv2D",
			Operands: []dialect.SlotDesc{{Name: "input", Type: "TF_FloatTensor"}, {Name: "filter", Type: "TF_FloatTensor"}},
			Results:  []dialect.SlotDesc{{Name: "output", Type: "TF_FloatTensor"}},
			Attrs: []dialect.AttrDesc{
				{Name: "padding", Enum: []string{"SAME", "VALID", "EXPLICIT"}},
				{Name: "data_format", Enum: []string{"NHWC", "NCHW"}, Optional: true},
			},
			Traits:  []string{"NoSideEffect"},
			Derived: []dialect.DerivedDesc{{Name: "T", Kind: "element_type", Slot: "input"}},
		},
	}
}

// Catalog registers Descriptors into a frozen "tf" catalog at version 2.15.0.
func Catalog(t testing.TB) *dialect.Catalog {
	t.Helper()
	reg, err := dialect.NewRegistry("tf", "2.15.0", dialect.WithLogger(DiscardLogger()))
	require.NoError(t, err)
	for _, d := range Descriptors() {
		require.NoError(t, reg.Register(d), d.Name)
	}
	cat, err := reg.Freeze()
	require.NoError(t, err)
	return cat
}

// Kind looks up a kind in cat, failing the test if it is missing.
func Kind(t testing.TB, cat *dialect.Catalog, name string) *dialect.Kind {
	t.Helper()
	k, ok := cat.Lookup(name)
	require.True(t, ok, "kind %s", name)
	return k
}

// Operation builds an instance of the named kind at location "loc0".
func Operation(t testing.TB, cat *dialect.Catalog, name string, operands, results [][]ir.Value, attrs map[string]ir.AttrValue) *dialect.Operation {
	t.Helper()
	op, err := dialect.NewOperation(Kind(t, cat, name), "loc0", operands, results, attrs)
	require.NoError(t, err)
	return op
}
