package trait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/ir"
)

type fakeOp struct {
	operands []ir.SlotValue
	results  []ir.SlotValue
}

func (fakeOp) KindName() string                { return "tf.Fake" }
func (fakeOp) Location() string                { return "fake0" }
func (o fakeOp) OperandValues() []ir.SlotValue { return o.operands }
func (o fakeOp) ResultValues() []ir.SlotValue  { return o.results }

func values(slot string, types ...string) []ir.SlotValue {
	out := make([]ir.SlotValue, len(types))
	for i, typ := range types {
		out[i] = ir.SlotValue{Slot: slot, Index: i, Variadic: len(types) > 1, Value: ir.NewValue(slot, ir.MustParseType(typ))}
	}
	return out
}

func binary(x, y, z string) fakeOp {
	return fakeOp{
		operands: append(values("x", x), values("y", y)...),
		results:  values("z", z),
	}
}

func mustLookup(t *testing.T, name string) Trait {
	t.Helper()
	tr, ok := Lookup(name)
	require.True(t, ok, name)
	return tr
}

func TestStandardTraits(t *testing.T) {
	tests := []struct {
		trait string
		op    fakeOp
		kinds []diag.Kind
	}{
		{SameOperandsAndResultTypeOrRef, binary("tensor<4xf32>", "tensor<4x!tf.f32ref>", "tensor<?xf32>"), nil},
		{SameOperandsAndResultTypeOrRef, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<5xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{SameOperandsAndResultTypeOrRef, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<4xf64>"), []diag.Kind{diag.KindTypeMismatch}},
		{SameOperandsAndResultElementTypeResolveRef, binary("tensor<4xf32>", "tensor<2x!tf.f32ref>", "tensor<*xf32>"), nil},
		{SameOperandsAndResultElementTypeResolveRef, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<4xf64>"), []diag.Kind{diag.KindTypeMismatch}},
		{SameOperandsAndResultType, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<4xf32>"), nil},
		{SameOperandsAndResultType, binary("tensor<4xf32>", "tensor<4x!tf.f32ref>", "tensor<4xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{CwiseBinary, binary("tensor<1x4xf32>", "tensor<3x1xf32>", "tensor<3x4xf32>"), nil},
		{CwiseBinary, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<4xf64>"), nil},
		{CwiseBinary, binary("tensor<2x4xf32>", "tensor<3x4xf32>", "tensor<3x4xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{CwiseBinary, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<3xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{CwiseBinary, fakeOp{operands: values("x", "tensor<4xf32>"), results: values("z", "tensor<4xf32>")}, []diag.Kind{diag.KindTypeMismatch}},
		{CwiseUnary, fakeOp{operands: values("x", "tensor<4xf32>"), results: values("y", "tensor<4xf32>")}, nil},
		{CwiseUnary, fakeOp{operands: values("x", "tensor<4xf32>"), results: values("y", "tensor<5xf32>")}, []diag.Kind{diag.KindTypeMismatch}},
		{CwiseUnary, binary("tensor<4xf32>", "tensor<4xf32>", "tensor<4xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{OperandsBroadcastableToResult, binary("tensor<1x4xf32>", "tensor<3x1xf32>", "tensor<3x4xf32>"), nil},
		{OperandsBroadcastableToResult, binary("tensor<1x4xf32>", "tensor<3x1xf32>", "tensor<4xf32>"), []diag.Kind{diag.KindTypeMismatch}},
		{LayoutAgnostic, binary("tensor<2xf32>", "tensor<3xi8>", "tensor<4xf64>"), nil},
		{CannotDuplicate, binary("tensor<2xf32>", "tensor<3xi8>", "tensor<4xf64>"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.trait, func(t *testing.T) {
			diags := mustLookup(t, tt.trait).Verify(tt.op)
			if len(tt.kinds) == 0 {
				assert.Empty(t, diags)
			} else {
				assert.Equal(t, tt.kinds, diag.List(diags).Kinds(), "diagnostics: %v", diags)
			}
			for _, d := range diags {
				assert.Equal(t, "tf.Fake", d.Op)
				assert.Equal(t, "fake0", d.Location)
			}
		})
	}
}

func TestMismatchNamesEverySlot(t *testing.T) {
	op := fakeOp{
		operands: values("values", "tensor<2xf32>", "tensor<2xf64>"),
		results:  values("out", "tensor<2xf32>"),
	}
	diags := mustLookup(t, SameOperandsAndResultElementTypeResolveRef).Verify(op)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"values[0]", "values[1]", "out"}, diags[0].Slots)
	assert.Equal(t, []string{"tensor<2xf32>", "tensor<2xf64>", "tensor<2xf32>"}, diags[0].Types)
}

func TestTraitCompositionWithReferenceOperand(t *testing.T) {
	traits, err := Standard().Resolve("tf.AddV2", []string{SameOperandsAndResultElementTypeResolveRef, CwiseBinary})
	require.NoError(t, err)

	ok := binary("tensor<4xf32>", "tensor<4x!tf.f32ref>", "tensor<4xf32>")
	assert.Empty(t, VerifyAll(ok, traits))

	bad := binary("tensor<4xf32>", "tensor<4x!tf.f32ref>", "tensor<4xf64>")
	diags := VerifyAll(bad, traits)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindTypeMismatch, diags[0].Kind)
}

func TestTableResolve(t *testing.T) {
	table := Standard()

	_, err := table.Resolve("tf.AddV2", []string{CwiseBinary, "NoSuchTrait"})
	require.Error(t, err)
	assert.True(t, diag.IsConfigError(err))
	assert.Contains(t, err.Error(), "traits[1]")
	assert.Contains(t, err.Error(), "NoSuchTrait")

	traits, err := table.Resolve("tf.AddV2", nil)
	require.NoError(t, err)
	assert.Empty(t, traits)
}

func TestTableAdd(t *testing.T) {
	table := Standard()
	custom := Func("AlwaysFails", func(op Op) []diag.Diagnostic {
		return []diag.Diagnostic{diag.Newf(diag.KindTypeMismatch, op.KindName(), op.Location(), "always")}
	})

	require.NoError(t, table.Add(custom))
	assert.Error(t, table.Add(custom), "duplicate names are rejected")
	assert.Error(t, table.Add(NewMarker(CwiseBinary)))

	got, ok := table.Lookup("AlwaysFails")
	require.True(t, ok)
	assert.Len(t, got.Verify(fakeOp{}), 1)

	_, ok = Standard().Lookup("AlwaysFails")
	assert.False(t, ok, "Standard returns an independent table")
}

func TestNamesAndMarkers(t *testing.T) {
	names := Names()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, SameOperandsAndResultTypeOrRef)
	assert.Len(t, names, 10)

	for _, name := range []string{LayoutAgnostic, CannotDuplicate, NoSideEffect, Commutative} {
		_, isMarker := mustLookup(t, name).(Marker)
		assert.True(t, isMarker, name)
	}
	_, isMarker := mustLookup(t, CwiseBinary).(Marker)
	assert.False(t, isMarker)

	_, ok := Lookup("nope")
	assert.False(t, ok)
}
