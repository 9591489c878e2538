package gpulower

import (
	"fmt"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/ir"
)

// OutlineKernels outlines every remaining gpu.launch region in f's body
// into a gpu.func kernel inside a freshly created gpu.module sibling of
// f, then rewrites each launch site into the create-stream/load-module/
// get-kernel/launch-kernel dispatch sequence, deduplicating the created
// stream per device and destroying every live stream immediately before
// each func.return (spec.md §4.6.7). FlattenMemrefs, ConvertToSpirvLike,
// and DegradeF64 must already have rewritten each launch's body to the
// op vocabulary a kernel.func is allowed to contain; OutlineKernels does
// not touch that body beyond swapping its terminator.
func OutlineKernels(ctx *ir.Context, f *ir.Operation) {
	body := f.Regions()[0]

	var launches []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == gpu.Launch {
			launches = append(launches, op)
		}
	})
	if len(launches) == 0 {
		return
	}

	name := symName(f)
	module := gpu.NewModule(ctx, name+"_kernels")
	ir.InsertAfter(f, module)
	moduleBlock := module.Regions()[0].Entry()

	anchor := firstOp(body.Entry())
	if anchor == nil {
		anchor = body.Entry().Terminator()
	}
	streams := map[string]*ir.Value{}
	var devices []string

	for i, launch := range launches {
		device := deviceKeyFor(launch)
		stream, ok := streams[device]
		if !ok {
			stream = createStream(ctx, anchor)
			streams[device] = stream
			devices = append(devices, device)
		}
		outlineOne(ctx, moduleBlock, launch, name, i, stream)
	}

	for _, ret := range returnsOf(body) {
		for _, device := range devices {
			destroy := ir.NewOp(ctx, gpu.StreamDestroy, []*ir.Value{streams[device]}, nil, nil)
			ir.InsertBefore(ret, destroy)
		}
	}
}

// outlineOne moves launch's body into a new gpu.func named
// "<fnName>_kernel_<idx>" appended to moduleBlock, then replaces launch
// with the module-load/kernel-get/kernel-launch sequence against stream.
func outlineOne(ctx *ir.Context, moduleBlock *ir.Block, launch *ir.Operation, fnName string, idx int, stream *ir.Value) {
	kernelName := fmt.Sprintf("%s_kernel_%d", fnName, idx)
	launchBlock := launch.Regions()[0].Entry()

	argTypes := make([]ir.Type, len(launchBlock.Args()))
	for i, a := range launchBlock.Args() {
		argTypes[i] = a.Type()
	}
	kernel := newKernelFunc(ctx, kernelName, argTypes)
	vmap := make(map[*ir.Value]*ir.Value)
	ir.CloneRegionInto(ctx, kernel.Regions()[0], launch.Regions()[0], vmap)
	terminatorsToReturn(ctx, kernel.Regions()[0])
	ir.InsertAtEnd(moduleBlock, kernel)

	moduleLoad := ir.NewOp(ctx, gpu.ModuleLoad, []*ir.Value{stream}, []ir.Type{gpu.ModuleHandleType(ctx)}, map[string]ir.Attribute{
		gpu.BlobAttr: ctx.InternAttr(&ir.StringAttr{Value: moduleNameOf(moduleBlock)}),
	})
	ir.InsertBefore(launch, moduleLoad)

	kernelGet := ir.NewOp(ctx, gpu.KernelGet, []*ir.Value{moduleLoad.Result(0)}, []ir.Type{gpu.KernelHandleType(ctx)}, map[string]ir.Attribute{
		gpu.KernelNameAttr: ctx.InternAttr(&ir.StringAttr{Value: kernelName}),
	})
	ir.InsertAfter(moduleLoad, kernelGet)

	dispatchOperands := append([]*ir.Value{stream, kernelGet.Result(0)}, launch.Operands()...)
	kernelLaunch := ir.NewOp(ctx, gpu.KernelLaunch, dispatchOperands, nil, nil)
	ir.InsertAfter(kernelGet, kernelLaunch)

	ir.Erase(launch)
}

// newKernelFunc builds a detached gpu.func carrying argTypes but no
// result and an empty region, left for the caller to populate by
// cloning into it (ir.CloneRegionInto requires an empty destination).
func newKernelFunc(ctx *ir.Context, name string, argTypes []ir.Type) *ir.Operation {
	fnType := ctx.FunctionType(argTypes, nil)
	op := ir.NewOp(ctx, gpu.Func, nil, nil, map[string]ir.Attribute{
		ir.SymNameAttr: ctx.InternAttr(&ir.StringAttr{Value: name}),
		"function_type": ctx.InternAttr(&ir.OpaqueAttr{Dialect: "func", Payload: fnType.String()}),
		gpu.KernelAttr:  ctx.InternAttr(&ir.UnitAttr{}),
	})
	op.AddRegion()
	return op
}

// terminatorsToReturn swaps every cloned gpu.terminator for a gpu.return,
// gpu.launch's block terminator having no meaning inside a standalone
// kernel function.
func terminatorsToReturn(ctx *ir.Context, region *ir.Region) {
	for _, b := range region.Blocks() {
		term := b.Terminator()
		if term == nil || term.Name != gpu.Terminator {
			continue
		}
		ret := ir.NewOp(ctx, gpu.Return, nil, nil, nil)
		ir.InsertAfter(term, ret)
		ir.Erase(term)
	}
}

func createStream(ctx *ir.Context, anchor *ir.Operation) *ir.Value {
	op := ir.NewOp(ctx, gpu.StreamCreate, nil, []ir.Type{gpu.StreamType(ctx)}, nil)
	ir.InsertBefore(anchor, op)
	return op.Result(0)
}

func deviceKeyFor(launch *ir.Operation) string {
	env := enclosingEnv(launch)
	if env == nil {
		return ""
	}
	if s, ok := env.(*ir.StringAttr); ok {
		return s.Value
	}
	return fmt.Sprint(env)
}

func returnsOf(body *ir.Region) []*ir.Operation {
	var rets []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == fn.Return {
			rets = append(rets, op)
		}
	})
	return rets
}

func symName(op *ir.Operation) string {
	a, ok := op.Attr(ir.SymNameAttr)
	if !ok {
		return "fn"
	}
	s, ok := a.(*ir.StringAttr)
	if !ok {
		return "fn"
	}
	return s.Value
}

func moduleNameOf(moduleBlock *ir.Block) string {
	module := moduleBlock.Region().Owner()
	return symName(module)
}

func firstOp(b *ir.Block) *ir.Operation {
	ops := b.Operations()
	if len(ops) == 0 {
		return nil
	}
	return ops[0]
}
