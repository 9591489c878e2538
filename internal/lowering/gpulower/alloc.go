package gpulower

import (
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/ir"
)

// InsertAllocations rewrites every classified buffer per spec.md §4.6.2:
// a host memref.alloc becomes a gpu.alloc in place; a global fetch or
// parameter gets a gpu.alloc inserted after it, with host<->device
// copies and a trailing gpu.dealloc as its access pattern demands.
// Device-side uses are redirected to the device buffer; host-side uses
// keep referencing the original value.
func InsertAllocations(ctx *ir.Context, f *ir.Operation, buffers map[*ir.Value]*Access) {
	body := f.Regions()[0]
	entry := body.Entry()
	term := entry.Terminator()

	for v, access := range buffers {
		if def := v.DefiningOp(); def != nil && def.Name == memref.Alloc {
			replaceHostAllocWithDeviceAlloc(ctx, def, access)
			continue
		}
		insertDeviceAllocForExisting(ctx, v, access, term)
	}
}

func replaceHostAllocWithDeviceAlloc(ctx *ir.Context, alloc *ir.Operation, access *Access) {
	resultType := alloc.Result(0).Type()
	gpuAlloc := ir.NewOp(ctx, gpu.Alloc, alloc.Operands(), []ir.Type{resultType}, map[string]ir.Attribute{
		gpu.HostSharedAttr: ctx.InternAttr(&ir.BoolAttr{Value: access.HostShared()}),
	})
	ir.InsertAfter(alloc, gpuAlloc)
	ir.ReplaceAllUsesWith(alloc.Result(0), gpuAlloc.Result(0))
	ir.Erase(alloc)
}

func insertDeviceAllocForExisting(ctx *ir.Context, src *ir.Value, access *Access, term *ir.Operation) {
	memrefType, ok := src.Type().(*ir.MemRefType)
	if !ok {
		return
	}

	anchor := anchorFor(src)
	dynamicSizes := dynamicDimOps(ctx, src, memrefType, anchor)

	deviceAlloc := ir.NewOp(ctx, gpu.Alloc, dynamicSizes, []ir.Type{memrefType}, map[string]ir.Attribute{
		gpu.HostSharedAttr: ctx.InternAttr(&ir.BoolAttr{Value: access.HostShared()}),
	})
	ir.InsertAfter(anchor, deviceAlloc)
	deviceValue := deviceAlloc.Result(0)

	if access.HostWrite && access.DeviceRead {
		copyIn := ir.NewOp(ctx, memref.Copy, []*ir.Value{src, deviceValue}, nil, nil)
		ir.InsertAfter(deviceAlloc, copyIn)
	}

	var hostUsers []*ir.Operation
	for _, use := range src.Uses() {
		if use.User == deviceAlloc {
			continue
		}
		if !insideEnvRegion(use.User) {
			hostUsers = append(hostUsers, use.User)
		}
	}
	ir.ReplaceAllUsesWith(src, deviceValue, hostUsers...)

	if term != nil {
		if access.HostRead && access.DeviceWrite {
			copyOut := ir.NewOp(ctx, memref.Copy, []*ir.Value{deviceValue, src}, nil, nil)
			ir.InsertBefore(term, copyOut)
		}
		dealloc := ir.NewOp(ctx, gpu.Dealloc, []*ir.Value{deviceValue}, nil, nil)
		ir.InsertBefore(term, dealloc)
	}
}

// anchorFor returns the operation a new op should be inserted directly
// after: src's defining op for an alloc/get_global result, or the
// first operation of the entry block for a function parameter.
func anchorFor(src *ir.Value) *ir.Operation {
	if def := src.DefiningOp(); def != nil {
		return def
	}
	blk := src.DefiningBlock()
	ops := blk.Operations()
	if len(ops) == 0 {
		return nil
	}
	return ops[0]
}

func dynamicDimOps(ctx *ir.Context, src *ir.Value, t *ir.MemRefType, anchor *ir.Operation) []*ir.Value {
	idx := ctx.IndexType()
	var dims []*ir.Value
	for i, extent := range t.Shape {
		if extent >= 0 {
			continue
		}
		dimOp := ir.NewOp(ctx, memref.Dim, []*ir.Value{src}, []ir.Type{idx}, map[string]ir.Attribute{
			memref.IndexAttr: ctx.InternAttr(&ir.IntegerAttr{Value: int64(i), Type: idx}),
		})
		if anchor != nil {
			ir.InsertAfter(anchor, dimOp)
			anchor = dimOp
		}
		dims = append(dims, dimOp.Result(0))
	}
	return dims
}
