package gpulower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func buildOutlinableFunc(t *testing.T, ctx *ir.Context) *ir.Operation {
	t.Helper()
	f32 := ctx.FloatType(32)
	memTy := ctx.MemRefType([]int64{-1}, f32, ir.Layout{}, ir.SpaceGeneric)

	mod := ir.NewModule(ctx)
	f := fn.NewFunc(ctx, "f", []ir.Type{memTy}, nil)
	ir.InsertAtEnd(ir.Body(mod).Entry(), f)

	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	envOp, envBlk := gpu.NewEnvRegion(ctx, ctx.InternAttr(&ir.StringAttr{Value: "gpu0"}), nil)
	ir.InsertAtEnd(entry, envOp)

	launch := ir.NewOp(ctx, gpu.Launch, []*ir.Value{param}, nil, nil)
	ir.InsertAtEnd(envBlk, launch)
	region := launch.AddRegion()
	block := ir.NewBlock(memTy)
	region.AppendBlock(block)
	lb := ir.NewBuilder(ctx)
	lb.SetInsertionPointToEnd(block)
	lb.Create(gpu.Terminator, nil, nil, nil)

	eb := ir.NewBuilder(ctx)
	eb.SetInsertionPointToEnd(envBlk)
	eb.Create(scf.Yield, nil, nil, nil)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.Create(fn.Return, nil, nil, nil)

	return f
}

func TestOutlineKernelsProducesModuleAndDispatchSequence(t *testing.T) {
	ctx := newGpulowerContext()
	f := buildOutlinableFunc(t, ctx)

	OutlineKernels(ctx, f)

	sibling := nextOp(f)
	require.NotNil(t, sibling)
	assert.Equal(t, gpu.Module, sibling.Name)
	moduleBlock := sibling.Regions()[0].Entry()
	assert.Equal(t, 1, countOpsOfKind(moduleBlock.Operations(), gpu.Func))

	body := f.Regions()[0]
	var allOps []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		allOps = append(allOps, op)
	})
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.StreamCreate))
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.ModuleLoad))
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.KernelGet))
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.KernelLaunch))
	assert.Equal(t, 1, countOpsOfKind(allOps, gpu.StreamDestroy))
	assert.Equal(t, 0, countOpsOfKind(allOps, gpu.Launch))
}
