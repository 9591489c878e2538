package gpulower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/ir"
)

func TestFlattenMemrefsRewritesRank2Load(t *testing.T) {
	ctx := newGpulowerContext()
	f32 := ctx.FloatType(32)
	memTy := ctx.MemRefType([]int64{8, 8}, f32, ir.Layout{}, ir.SpaceGeneric)

	f := fn.NewFunc(ctx, "f", []ir.Type{memTy}, nil)
	entry := f.Regions()[0].Entry()

	launch := ir.NewOp(ctx, gpu.Launch, nil, nil, nil)
	ir.InsertAtEnd(entry, launch)
	region := launch.AddRegion()
	block := ir.NewBlock()
	captured := block.AddArg(memTy)
	region.AppendBlock(block)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(block)
	i0 := constIndexOp(b, ctx, 2)
	i1 := constIndexOp(b, ctx, 3)
	b.Create(memref.Load, []*ir.Value{captured, i0, i1}, []ir.Type{f32}, nil)
	b.Create(gpu.Terminator, nil, nil, nil)

	bEntry := ir.NewBuilder(ctx)
	bEntry.SetInsertionPointToEnd(entry)
	bEntry.Create(fn.Return, nil, nil, nil)

	FlattenMemrefs(ctx, f)

	cast := firstOpOfKind(block.Operations(), memref.ReinterpretCast)
	require.NotNil(t, cast)
	rank1Ty, ok := cast.Result(0).Type().(*ir.MemRefType)
	require.True(t, ok)
	assert.Equal(t, 1, rank1Ty.Rank())

	load := firstOpOfKind(block.Operations(), memref.Load)
	require.NotNil(t, load)
	assert.Equal(t, 2, load.NumOperands()) // flat memref + linear index
	assert.Equal(t, cast.Result(0), load.Operand(0))
	assert.Equal(t, 1, countOpsOfKind(block.Operations(), memref.Load))
}
