package plierstd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

func unop(b *ir.Builder, operator string, operand *ir.Value, resultType ir.Type) *ir.Operation {
	return b.Create(plier.UnOp, []*ir.Value{operand}, []ir.Type{resultType}, map[string]ir.Attribute{
		plier.OperatorAttr: b.Context().InternAttr(&ir.StringAttr{Value: operator}),
	})
}

func TestUnOpNegateSignlessIntIsZeroMinusX(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	x := intConst(b, ctx, 5, i32)
	unop(b, "-", x, i32)

	runOn(t, ctx, mod, Config{})

	sub := firstOpOfKind(entry.Operations(), arith.SubI)
	require.NotNil(t, sub)
	zero, ok := sub.Operand(0).DefiningOp().Attr("value")
	require.True(t, ok)
	assert.Equal(t, int64(0), zero.(*ir.IntegerAttr).Value)
}

func TestUnOpNegateFloat(t *testing.T) {
	ctx := newPlierstdContext()
	f64 := ctx.FloatType(64)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	x := floatConst(b, ctx, 1.25, f64)
	unop(b, "-", x, f64)

	runOn(t, ctx, mod, Config{})

	assert.NotNil(t, firstOpOfKind(entry.Operations(), arith.NegF))
}

func TestUnOpInvertBoolZeroExtendsThenXors(t *testing.T) {
	ctx := newPlierstdContext()
	i1 := ctx.IntegerType(1, ir.Signless)
	i64 := ctx.IntegerType(64, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	x := intConst(b, ctx, 1, i1)
	unop(b, "~", x, i64)

	runOn(t, ctx, mod, Config{})

	ext := firstOpOfKind(entry.Operations(), arith.ExtUI)
	require.NotNil(t, ext, "bool must be zero-extended to 64-bit before the xor")
	xorOp := firstOpOfKind(entry.Operations(), arith.XorI)
	require.NotNil(t, xorOp)
	assert.Equal(t, i64, xorOp.Result(0).Type())
}

func TestUnOpNotComparesToZero(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	i1 := ctx.IntegerType(1, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	x := intConst(b, ctx, 0, i32)
	unop(b, "not", x, i1)

	runOn(t, ctx, mod, Config{})

	// The i32 -> i1 cast emits its own cmpi ne first; the not's compare
	// is the last cmpi in the block.
	var cmp *ir.Operation
	for _, op := range entry.Operations() {
		if op.Name == arith.CmpI {
			cmp = op
		}
	}
	require.NotNil(t, cmp)
	predAttr, ok := cmp.Attr("predicate")
	require.True(t, ok)
	assert.Equal(t, string(arith.CmpIEq), predAttr.(*ir.StringAttr).Value)
}
