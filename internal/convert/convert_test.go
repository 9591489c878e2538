package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/ir"
)

const (
	srcConst ir.OpKind = "test.src_const"
	dstConst ir.OpKind = "test.dst_const"
	useOp    ir.OpKind = "test.use"
)

func newConvertContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(srcConst)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(dstConst)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(useOp)})
	return ctx
}

// srcToDstPattern rewrites test.src_const -> test.dst_const, legalizing
// the op that the target declares illegal for this converter's source
// type.
type srcToDstPattern struct{ dst ir.Type }

func (srcToDstPattern) RootKind() ir.OpKind { return srcConst }
func (srcToDstPattern) Benefit() int        { return 1 }
func (p srcToDstPattern) MatchAndRewrite(op *ir.Operation, rw *Rewriter) (bool, error) {
	newVal := rw.CreateOne(dstConst, nil, p.dst, nil)
	rw.ReplaceOp(op, []*ir.Value{newVal})
	return true, nil
}

func TestApplyLegalizesMatchedOp(t *testing.T) {
	ctx := newConvertContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	i64 := ctx.IntegerType(64, ir.Signless)

	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.CreateOne(srcConst, nil, i32, nil)

	target := NewConversionTarget()
	target.AddIllegalOp(srcConst)
	target.AddLegalOp(dstConst)

	converter := NewTypeConverter()
	converter.AddConversion(func(t ir.Type) (ir.Type, bool) {
		if t == i32 {
			return i64, true
		}
		return t, false
	})

	patterns := NewSet(srcToDstPattern{dst: i64})

	err := Apply(ctx, ir.Body(mod), target, converter, patterns)
	require.NoError(t, err)

	ops := entry.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, dstConst, ops[0].Name)
}

func TestApplyFullModeRollsBackOnRemainingIllegalOp(t *testing.T) {
	ctx := newConvertContext()
	i32 := ctx.IntegerType(32, ir.Signless)

	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.CreateOne(srcConst, nil, i32, nil)

	target := NewConversionTarget()
	target.AddIllegalOp(srcConst) // no pattern registered to legalize it

	converter := NewTypeConverter()
	patterns := NewSet()

	err := Apply(ctx, ir.Body(mod), target, converter, patterns)
	require.Error(t, err)

	ops := entry.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, srcConst, ops[0].Name)
}

func TestApplyPartialModeKeepsWhateverLegalized(t *testing.T) {
	ctx := newConvertContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	i64 := ctx.IntegerType(64, ir.Signless)

	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.CreateOne(srcConst, nil, i32, nil)
	b.Create(useOp, nil, nil, nil) // left illegal, never matched

	target := NewConversionTarget()
	target.AddIllegalOp(srcConst)
	target.AddLegalOp(dstConst)
	target.AddIllegalOp(useOp)

	converter := NewTypeConverter()
	converter.AddConversion(func(t ir.Type) (ir.Type, bool) {
		if t == i32 {
			return i64, true
		}
		return t, false
	})
	patterns := NewSet(srcToDstPattern{dst: i64})

	err := ApplyPartial(ctx, ir.Body(mod), target, converter, patterns)
	require.NoError(t, err)

	ops := entry.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, dstConst, ops[0].Name)
	assert.Equal(t, useOp, ops[1].Name)
}

func TestConvertBlockArgsMaterializesSourceType(t *testing.T) {
	ctx := newConvertContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	i64 := ctx.IntegerType(64, ir.Signless)

	fn := ir.NewOp(ctx, "test.func", nil, nil, nil)
	r := fn.AddRegion()
	entry := ir.NewBlock(i32)
	r.AppendBlock(entry)
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.Create(useOp, []*ir.Value{entry.Arg(0)}, nil, nil)

	converter := NewTypeConverter()
	converter.AddConversion(func(t ir.Type) (ir.Type, bool) {
		if t == i32 {
			return i64, true
		}
		return t, false
	})
	// No registered source materialization: default falls back to
	// DoConvert's int-to-int cast, which synthesizes an arith.trunci.
	convertBlockArgs(ctx, r, converter)

	assert.Equal(t, i64, entry.Arg(0).Type())
	use := entry.Operations()[len(entry.Operations())-1]
	operand := use.Operand(0)
	require.NotSame(t, entry.Arg(0), operand)
	assert.Equal(t, i32, operand.Type())
	assert.Equal(t, arith.TruncI, operand.DefiningOp().Name)
}
