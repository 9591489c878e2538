package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func newFrontendContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	fn.Register(ctx)
	scf.Register(ctx)
	plier.Register(ctx)
	return ctx
}

func firstFunc(t *testing.T, mod *ir.Operation) *ir.Operation {
	t.Helper()
	for _, op := range ir.Body(mod).Entry().Operations() {
		if op.Name == fn.Func {
			return op
		}
	}
	t.Fatal("no func.func found in lowered module")
	return nil
}

func TestLowerArithmeticFunctionVerifies(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def add(a, b):\n    return a + b * 2\n")
	require.NoError(t, err)

	mod, err := Lower(ctx, astMod)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(ctx, mod))

	f := firstFunc(t, mod)
	name, _ := f.Attr(ir.SymNameAttr)
	assert.Equal(t, "add", name.(*ir.StringAttr).Value)

	ops := f.Regions()[0].Entry().Operations()
	var sawBin, sawRet bool
	for _, op := range ops {
		if op.Name == plier.BinOp {
			sawBin = true
		}
		if op.Name == fn.Return {
			sawRet = true
		}
	}
	assert.True(t, sawBin)
	assert.True(t, sawRet)
}

func TestLowerComparisonProducesI1TypedBinOp(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def cmp(a, b):\n    return a < b\n")
	require.NoError(t, err)

	mod, err := Lower(ctx, astMod)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(ctx, mod))

	f := firstFunc(t, mod)
	for _, op := range f.Regions()[0].Entry().Operations() {
		if op.Name == plier.BinOp {
			it, ok := op.Result(0).Type().(*ir.IntegerType)
			require.True(t, ok)
			assert.Equal(t, 1, it.Width)
			assert.True(t, it.IsSignless())
		}
	}
}

func TestLowerValueMergingIfBuildsScfIfWithResults(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def f(a):\n    if a > 0:\n        x = 1\n    else:\n        x = 2\n    return x\n")
	require.NoError(t, err)

	mod, err := Lower(ctx, astMod)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(ctx, mod))

	f := firstFunc(t, mod)
	var ifOp *ir.Operation
	for _, op := range f.Regions()[0].Entry().Operations() {
		if op.Name == scf.If {
			ifOp = op
		}
	}
	require.NotNil(t, ifOp)
	assert.Len(t, ifOp.Results(), 1)
	assert.Len(t, ifOp.Regions(), 2)
}

func TestLowerReturningIfBuildsScfIfAndReturnsItsResult(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def f(a):\n    if a > 0:\n        return 1\n    else:\n        return 2\n")
	require.NoError(t, err)

	mod, err := Lower(ctx, astMod)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(ctx, mod))

	f := firstFunc(t, mod)
	ops := f.Regions()[0].Entry().Operations()
	require.Len(t, ops, 4, "condition const and binop, then scf.if, then func.return")
	assert.Equal(t, scf.If, ops[2].Name)
	assert.Equal(t, fn.Return, ops[3].Name)
	assert.Equal(t, ops[2].Result(0), ops[3].Operand(0))
}

func TestLowerRejectsNonComparisonCondition(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def f(a):\n    if a:\n        x = 1\n    else:\n        x = 2\n    return x\n")
	require.NoError(t, err)

	_, err = Lower(ctx, astMod)
	assert.Error(t, err)
}

func TestLowerFunctionWithNoExplicitReturnGetsOne(t *testing.T) {
	ctx := newFrontendContext()
	astMod, err := Parse("def f(a):\n    x = a + 1\n")
	require.NoError(t, err)

	mod, err := Lower(ctx, astMod)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(ctx, mod))

	f := firstFunc(t, mod)
	ops := f.Regions()[0].Entry().Operations()
	last := ops[len(ops)-1]
	assert.Equal(t, fn.Return, last.Name)
}
