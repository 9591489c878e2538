package gpulower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func TestRunLowersParallelLoopEndToEnd(t *testing.T) {
	ctx := newGpulowerContext()
	f32 := ctx.FloatType(32)
	idx := ctx.IndexType()
	memTy := ctx.MemRefType([]int64{64}, f32, ir.Layout{}, ir.SpaceGeneric)

	mod := ir.NewModule(ctx)
	f := fn.NewFunc(ctx, "host", []ir.Type{memTy}, nil)
	ir.InsertAtEnd(ir.Body(mod).Entry(), f)

	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	upper := constIndexOp(b, ctx, 64)

	envOp, envBlk := gpu.NewEnvRegion(ctx, ctx.InternAttr(&ir.StringAttr{Value: "gpu0"}), nil)
	ir.InsertAtEnd(entry, envOp)

	eb := ir.NewBuilder(ctx)
	eb.SetInsertionPointToEnd(envBlk)
	zero := constIndexOp(eb, ctx, 0)
	one := constIndexOp(eb, ctx, 1)

	loop := eb.Create(gpu.Parallel, []*ir.Value{zero, upper, one}, nil, nil)
	loopRegion := loop.AddRegion()
	loopBlock := ir.NewBlock(idx)
	loopRegion.AppendBlock(loopBlock)

	lb := ir.NewBuilder(ctx)
	lb.SetInsertionPointToEnd(loopBlock)
	loadVal := lb.CreateOne(memref.Load, []*ir.Value{param, loopBlock.Arg(0)}, f32, nil)
	two := lb.CreateOne(arith.Constant, nil, f32, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.FloatAttr{Value: 2, Type: f32}),
	})
	doubled := lb.CreateOne(arith.MulF, []*ir.Value{loadVal, two}, f32, nil)
	lb.Create(memref.Store, []*ir.Value{doubled, param, loopBlock.Arg(0)}, nil, nil)
	lb.Create(gpu.Terminator, nil, nil, nil)

	eb.Create(scf.Yield, nil, nil, nil)
	b.Create(fn.Return, nil, nil, nil)

	require.NoError(t, Run(ctx, f, Config{HasF64: true}))

	var allOps []*ir.Operation
	ir.WalkRegion(f.Regions()[0], ir.PreOrder, func(op *ir.Operation) {
		allOps = append(allOps, op)
	})
	assert.Equal(t, 0, countOpsOfKind(allOps, gpu.Parallel))
	assert.Equal(t, 0, countOpsOfKind(allOps, gpu.Launch))
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.KernelLaunch))

	module := siblingModule(f)
	require.NotNil(t, module)
	moduleBlock := module.Regions()[0].Entry()
	kernel := firstOpOfKind(moduleBlock.Operations(), gpu.Func)
	require.NotNil(t, kernel)
	_, ok := kernel.Attr(gpu.EntryPointABIAttr)
	assert.True(t, ok)
}
