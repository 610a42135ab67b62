package derive

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/dialect"
	"github.com/lamarrr/tensorflow/internal/ir"
	"github.com/lamarrr/tensorflow/internal/testutil"
)

func addN(t *testing.T, types ...string) *dialect.Operation {
	t.Helper()
	cat := testutil.Catalog(t)
	return testutil.Operation(t, cat, "tf.AddN",
		[][]ir.Value{testutil.Values("in", types...)},
		testutil.Slots(testutil.Value("sum", "tensor<2xi32>")), nil)
}

func readVariable(t *testing.T, handle string) *dialect.Operation {
	t.Helper()
	cat := testutil.Catalog(t)
	return testutil.Operation(t, cat, "tf.ReadVariableOp",
		testutil.Slots(testutil.Value("h", handle)),
		testutil.Slots(testutil.Value("v", "tensor<*xf32>")), nil)
}

func TestVariadicSlotDerivation(t *testing.T) {
	op := addN(t, "tensor<2xi32>", "tensor<2xi32>", "tensor<2xi32>")

	n, err := Evaluate(op, "N")
	require.NoError(t, err)
	assert.Equal(t, ir.IntAttr(3), n)

	elem, err := Evaluate(op, "T")
	require.NoError(t, err)
	assert.Equal(t, ir.TypeAttr{Type: ir.SignedInt(32)}, elem)

	count, err := OperandCount(op, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	st, err := ElementType(op, "inputs")
	require.NoError(t, err)
	assert.True(t, st.Equal(ir.SignedInt(32)))
}

func TestEmptyVariadicSlot(t *testing.T) {
	op := addN(t)

	n, err := Evaluate(op, "N")
	require.NoError(t, err)
	assert.Equal(t, ir.IntAttr(0), n)

	_, err = Evaluate(op, "T")
	require.Error(t, err)
	assert.True(t, diag.IsDerivationError(err))
	assert.Contains(t, err.Error(), "tf.AddN.T")

	_, err = ElementType(op, "inputs")
	assert.True(t, diag.IsDerivationError(err))
}

func TestListDerivations(t *testing.T) {
	cat := testutil.Catalog(t)
	op := testutil.Operation(t, cat, "tf.IdentityN",
		[][]ir.Value{testutil.Values("in", "tensor<2xi32>", "tensor<*xf32>", "tensor<!tf.string>")},
		[][]ir.Value{testutil.Values("out", "tensor<2xi32>", "tensor<?x3xf32>")}, nil)

	types, err := Evaluate(op, "T")
	require.NoError(t, err)
	assert.Equal(t, "[i32, f32, !tf.string]", types.String())

	shapes, err := Evaluate(op, "shapes")
	require.NoError(t, err)
	assert.Equal(t, "[[2], [?x3]]", shapes.String())

	numOut, err := Evaluate(op, "num_out")
	require.NoError(t, err)
	assert.Equal(t, ir.IntAttr(2), numOut)

	elems, err := ElementTypeList(op, "input")
	require.NoError(t, err)
	require.Len(t, elems, 3)
	assert.Equal(t, ir.KindString, elems[2].Kind())

	shapeList, err := ShapeList(op, "input")
	require.NoError(t, err)
	assert.False(t, shapeList[1].IsRanked())
	assert.Equal(t, 0, shapeList[2].Rank())

	count, err := ResultCount(op, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = ResultCount(op, 1)
	assert.True(t, diag.IsDerivationError(err))
	_, err = OperandCount(op, -1)
	assert.True(t, diag.IsDerivationError(err))
	_, err = ShapeList(op, "nope")
	assert.True(t, diag.IsDerivationError(err))
}

func TestEmptyListDerivations(t *testing.T) {
	cat := testutil.Catalog(t)
	op := testutil.Operation(t, cat, "tf.IdentityN", [][]ir.Value{nil}, [][]ir.Value{nil}, nil)

	types, err := Evaluate(op, "T")
	require.NoError(t, err)
	assert.Equal(t, ir.ArrayAttr{}, types)
}

func TestHandleDerivations(t *testing.T) {
	tests := []struct {
		name   string
		handle string
		dtype  string
		shape  string
		errMsg string
	}{
		{name: "single subtype", handle: "tensor<!tf.resource<tensor<4x?xf32>>>", dtype: "f32", shape: "[4x?]"},
		{name: "first of several", handle: "tensor<!tf.resource<tensor<2xi64>, tensor<*xf32>>>", dtype: "i64", shape: "[2]"},
		{name: "unranked subtype", handle: "tensor<!tf.resource<tensor<*xi8>>>", dtype: "i8", shape: "[*]"},
		{name: "reference handle", handle: "tensor<!tf.resourceref<tensor<3xf16>>>", dtype: "f16", shape: "[3]"},
		{name: "no subtypes", handle: "tensor<!tf.resource>", errMsg: "no subtype"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := readVariable(t, tt.handle)

			dtype, err := Evaluate(op, "dtype")
			shape, shapeErr := Evaluate(op, "shape")
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.True(t, diag.IsDerivationError(err))
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.True(t, diag.IsDerivationError(shapeErr))
				return
			}
			require.NoError(t, err)
			require.NoError(t, shapeErr)
			assert.Equal(t, tt.dtype, dtype.String())
			assert.Equal(t, tt.shape, shape.String())
		})
	}
}

func TestHandleSeveralSubtypesLogsToRegistryLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg, err := dialect.NewRegistry("tf", "2.15.0", dialect.WithLogger(logger))
	require.NoError(t, err)
	for _, d := range testutil.Descriptors() {
		if d.Name == "tf.ReadVariableOp" {
			require.NoError(t, reg.Register(d))
		}
	}
	cat, err := reg.Freeze()
	require.NoError(t, err)

	op := testutil.Operation(t, cat, "tf.ReadVariableOp",
		testutil.Slots(testutil.Value("h", "tensor<!tf.resource<tensor<2xi64>, tensor<*xf32>>>")),
		testutil.Slots(testutil.Value("v", "tensor<*xf32>")), nil)

	buf.Reset()
	dtype, err := Evaluate(op, "dtype")
	require.NoError(t, err)
	assert.Equal(t, "i64", dtype.String())
	assert.Contains(t, buf.String(), "resource carries several subtypes, using the first")
	assert.Contains(t, buf.String(), "subtypes=2")

	buf.Reset()
	single := testutil.Operation(t, cat, "tf.ReadVariableOp",
		testutil.Slots(testutil.Value("h", "tensor<!tf.resource<tensor<2xi64>>>")),
		testutil.Slots(testutil.Value("v", "tensor<*xi64>")), nil)
	_, err = Evaluate(single, "dtype")
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestHandleOnNonResource(t *testing.T) {
	cat := testutil.Catalog(t)
	op := testutil.Operation(t, cat, "tf.AddV2",
		testutil.Slots(testutil.Value("a", "tensor<4xf32>"), testutil.Value("b", "tensor<4xf32>")),
		testutil.Slots(testutil.Value("c", "tensor<4xf32>")), nil)

	_, err := HandleElementType(op, "x")
	require.Error(t, err)
	assert.True(t, diag.IsDerivationError(err))
	assert.Contains(t, err.Error(), "not a resource")

	_, err = HandleShape(op, "x")
	assert.True(t, diag.IsDerivationError(err))
}

func TestHandleDirectFunctions(t *testing.T) {
	op := readVariable(t, "tensor<!tf.resource<tensor<2x3xf64>>>")

	elem, err := HandleElementType(op, "resource")
	require.NoError(t, err)
	assert.True(t, elem.Equal(ir.Float(64)))

	shape, err := HandleShape(op, "resource")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, shape.Dims())
}

func TestEvaluateUnknownName(t *testing.T) {
	op := addN(t, "tensor<2xi32>")
	_, err := Evaluate(op, "dtype")
	require.Error(t, err)
	assert.True(t, diag.IsDerivationError(err))
}

func TestAllCollectsPerAttributeErrors(t *testing.T) {
	op := readVariable(t, "tensor<!tf.resource>")
	results := All(op)
	require.Len(t, results, 2)
	assert.Equal(t, "dtype", results[0].Name)
	assert.Equal(t, "shape", results[1].Name)
	for _, r := range results {
		assert.Nil(t, r.Value)
		assert.True(t, diag.IsDerivationError(r.Err))
	}

	ok := All(addN(t, "tensor<2xi32>", "tensor<2xi32>"))
	require.Len(t, ok, 2)
	assert.Equal(t, ir.IntAttr(2), ok[0].Value)
	assert.NoError(t, ok[1].Err)
}

func TestDerivationDoesNotMutateValues(t *testing.T) {
	op := testutil.Operation(t, testutil.Catalog(t), "tf.IdentityN",
		[][]ir.Value{testutil.Values("in", "tensor<2x3xi32>")},
		[][]ir.Value{testutil.Values("out", "tensor<2x3xi32>")}, nil)

	shapes, err := ShapeList(op, "output")
	require.NoError(t, err)
	shapes[0] = ir.Unranked()

	again, err := ShapeList(op, "output")
	require.NoError(t, err)
	assert.Equal(t, "2x3", again[0].String())
	assert.Equal(t, "tensor<2x3xi32>", op.Result(0)[0].Type().String())
}
