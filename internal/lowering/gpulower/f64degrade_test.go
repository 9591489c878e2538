package gpulower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
)

func TestDegradeF64RewritesAccessChainAndLoadStore(t *testing.T) {
	ctx := newGpulowerContext()
	f64 := ctx.FloatType(64)
	ptrTy := ctx.Intern(&ir.PointerType{Element: f64, Space: ir.SpaceGeneric}).(*ir.PointerType)

	f := fn.NewFunc(ctx, "f", nil, nil)
	entry := f.Regions()[0].Entry()

	launch := ir.NewOp(ctx, gpu.Launch, nil, nil, nil)
	ir.InsertAtEnd(entry, launch)
	region := launch.AddRegion()
	block := ir.NewBlock()
	base := block.AddArg(ptrTy)
	region.AppendBlock(block)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(block)
	chain := b.Create(spirvlike.AccessChain, []*ir.Value{base}, []ir.Type{ptrTy}, nil)
	load := b.Create(spirvlike.Load, []*ir.Value{chain.Result(0)}, []ir.Type{f64}, nil)
	b.Create(spirvlike.Store, []*ir.Value{chain.Result(0), load.Result(0)}, nil, nil)
	b.Create(gpu.Terminator, nil, nil, nil)

	bEntry := ir.NewBuilder(ctx)
	bEntry.SetInsertionPointToEnd(entry)
	bEntry.Create(fn.Return, nil, nil, nil)

	DegradeF64(ctx, f, false)

	vec2i32 := ctx.Intern(&ir.VectorType{Len: 2, Element: ctx.IntegerType(32, ir.Signless)})
	chainPtr, ok := chain.Result(0).Type().(*ir.PointerType)
	require.True(t, ok)
	assert.Equal(t, vec2i32, chainPtr.Element)

	unpack := firstOpOfKind(block.Operations(), spirvlike.UnpackF64)
	require.NotNil(t, unpack)
	assert.Equal(t, ctx.FloatType(32), unpack.Result(0).Type())

	store := firstOpOfKind(block.Operations(), spirvlike.Store)
	require.NotNil(t, store)
	packDef := store.Operand(1).DefiningOp()
	require.NotNil(t, packDef)
	assert.Equal(t, spirvlike.PackF64, packDef.Name)
}

func TestDegradeF64TruncatesLaunchArguments(t *testing.T) {
	ctx := newGpulowerContext()
	f64 := ctx.FloatType(64)
	idx := ctx.IndexType()

	f := fn.NewFunc(ctx, "f", []ir.Type{f64}, nil)
	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	dims := make([]*ir.Value, 6)
	for i := range dims {
		dims[i] = constIndexOp(b, ctx, 1)
	}
	operands := append(append([]*ir.Value{}, dims...), param)
	launch := b.Create(gpu.Launch, operands, nil, nil)
	region := launch.AddRegion()
	block := ir.NewBlock()
	for i := 0; i < 6; i++ {
		block.AddArg(idx)
	}
	capturedArg := block.AddArg(f64)
	region.AppendBlock(block)
	lb := ir.NewBuilder(ctx)
	lb.SetInsertionPointToEnd(block)
	lb.Create(gpu.Terminator, nil, nil, nil)

	b.Create(fn.Return, nil, nil, nil)

	DegradeF64(ctx, f, false)

	f32 := ctx.FloatType(32)
	assert.Equal(t, f32, capturedArg.Type())
	assert.Equal(t, f32, launch.Operand(6).Type())
	trunc := launch.Operand(6).DefiningOp()
	require.NotNil(t, trunc)
	assert.Equal(t, arith.TruncF, trunc.Name)
}

func TestDegradeF64NoopWhenHasF64(t *testing.T) {
	ctx := newGpulowerContext()
	f64 := ctx.FloatType(64)
	ptrTy := ctx.Intern(&ir.PointerType{Element: f64, Space: ir.SpaceGeneric}).(*ir.PointerType)

	f := fn.NewFunc(ctx, "f", nil, nil)
	entry := f.Regions()[0].Entry()

	launch := ir.NewOp(ctx, gpu.Launch, nil, nil, nil)
	ir.InsertAtEnd(entry, launch)
	region := launch.AddRegion()
	block := ir.NewBlock()
	base := block.AddArg(ptrTy)
	region.AppendBlock(block)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(block)
	chain := b.Create(spirvlike.AccessChain, []*ir.Value{base}, []ir.Type{ptrTy}, nil)
	b.Create(gpu.Terminator, nil, nil, nil)

	bEntry := ir.NewBuilder(ctx)
	bEntry.SetInsertionPointToEnd(entry)
	bEntry.Create(fn.Return, nil, nil, nil)

	DegradeF64(ctx, f, true)

	chainPtr, ok := chain.Result(0).Type().(*ir.PointerType)
	require.True(t, ok)
	assert.Equal(t, f64, chainPtr.Element)
}
