package gpulower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func TestClassifyBuffersParamIsHostReadWrite(t *testing.T) {
	ctx := newGpulowerContext()
	f32 := ctx.FloatType(32)
	memTy := ctx.MemRefType([]int64{8}, f32, ir.Layout{}, ir.SpaceGeneric)
	f := fn.NewFunc(ctx, "host", []ir.Type{memTy}, nil)
	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	b.Create(fn.Return, nil, nil, nil)

	buffers, err := ClassifyBuffers(ctx, f)
	require.NoError(t, err)

	access, ok := buffers[param]
	require.True(t, ok)
	assert.True(t, access.HostRead)
	assert.True(t, access.HostWrite)
	assert.True(t, access.HostShared())
}

func TestClassifyBuffersDeviceLoadMarksDeviceRead(t *testing.T) {
	ctx := newGpulowerContext()
	f32 := ctx.FloatType(32)
	memTy := ctx.MemRefType([]int64{8}, f32, ir.Layout{}, ir.SpaceGeneric)
	f := fn.NewFunc(ctx, "host", []ir.Type{memTy}, nil)
	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	i0 := constIndexOp(b, ctx, 0)

	envOp, envBlk := gpu.NewEnvRegion(ctx, ctx.InternAttr(&ir.StringAttr{Value: "gpu0"}), nil)
	ir.InsertAtEnd(entry, envOp)
	eb := ir.NewBuilder(ctx)
	eb.SetInsertionPointToEnd(envBlk)
	eb.Create(memref.Load, []*ir.Value{param, i0}, []ir.Type{f32}, nil)
	eb.Create(scf.Yield, nil, nil, nil)

	b.Create(fn.Return, nil, nil, nil)

	buffers, err := ClassifyBuffers(ctx, f)
	require.NoError(t, err)

	access := buffers[param]
	require.NotNil(t, access)
	assert.True(t, access.DeviceRead)
	assert.False(t, access.DeviceWrite)
}

func TestClassifyBuffersConflictingDevicesErrors(t *testing.T) {
	ctx := newGpulowerContext()
	f32 := ctx.FloatType(32)
	memTy := ctx.MemRefType([]int64{8}, f32, ir.Layout{}, ir.SpaceGeneric)
	f := fn.NewFunc(ctx, "host", []ir.Type{memTy}, nil)
	entry := f.Regions()[0].Entry()
	param := entry.Arg(0)

	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	i0 := constIndexOp(b, ctx, 0)

	envA, blkA := gpu.NewEnvRegion(ctx, ctx.InternAttr(&ir.StringAttr{Value: "gpu0"}), nil)
	ir.InsertAtEnd(entry, envA)
	ba := ir.NewBuilder(ctx)
	ba.SetInsertionPointToEnd(blkA)
	ba.Create(memref.Load, []*ir.Value{param, i0}, []ir.Type{f32}, nil)
	ba.Create(scf.Yield, nil, nil, nil)

	envB, blkB := gpu.NewEnvRegion(ctx, ctx.InternAttr(&ir.StringAttr{Value: "gpu1"}), nil)
	ir.InsertAtEnd(entry, envB)
	bb := ir.NewBuilder(ctx)
	bb.SetInsertionPointToEnd(blkB)
	bb.Create(memref.Load, []*ir.Value{param, i0}, []ir.Type{f32}, nil)
	bb.Create(scf.Yield, nil, nil, nil)

	b.Create(fn.Return, nil, nil, nil)

	_, err := ClassifyBuffers(ctx, f)
	assert.Error(t, err)
}
