// Package gpu defines the host/device boundary op vocabulary GPU
// lowering (spec.md §4.6) produces and consumes: an environment region
// marking a host-function subtree that targets a device, a tiled
// parallel loop candidate for kernel outlining, device buffer
// lifetime ops, the outlined kernel module/function pair, and the
// stream/module/kernel dispatch sequence a launch site lowers to.
// Grounded on GpuToGpuRuntime.cpp's imex::util::EnvironmentRegionOp,
// mlir::gpu::{AllocOp,DeallocOp,LaunchOp,GPUFuncOp,LaunchFuncOp} and
// the create-stream/load-module/get-kernel/launch-kernel/destroy-stream
// sequence InsertGPUAllocs's sibling lowering emits at call sites.
package gpu

import "plierc/internal/ir"

const (
	// EnvRegion marks a single-region subtree whose "environment"
	// attribute names the device it must run on (spec.md §4.6.1); its
	// region's sole block is terminated by scf.Yield.
	EnvRegion ir.OpKind = "gpu.env_region"
	// Parallel is a multi-dimensional loop nest over NumDims axes: for
	// axis i, operands[3*i:3*i+3] are (lowerBound, upperBound, step),
	// all index-typed; the body region's block carries one induction-
	// variable argument per axis. A unit-step, zero-lowerBound Parallel
	// directly inside an EnvRegion is the tiling pass's (§4.6.3) match
	// target.
	Parallel ir.OpKind = "gpu.parallel"
	// Terminator ends a Parallel or Launch region with no values.
	Terminator ir.OpKind = "gpu.terminator"
	// Alloc allocates a device-resident buffer, "host_shared" BoolAttr
	// marking whether the host may also observe it directly (spec.md
	// §4.6.2 hostShared := hostRead ∨ hostWrite).
	Alloc ir.OpKind = "gpu.alloc"
	// Dealloc frees a buffer produced by Alloc.
	Dealloc ir.OpKind = "gpu.dealloc"
	// Launch is a not-yet-outlined kernel candidate: operands 0..2 are
	// grid dims, 3..5 are block dims (index-typed), followed by the
	// values captured from the tiled loop body; its region's entry
	// block carries six induction-style arguments (block x/y/z, thread
	// x/y/z) followed by one argument per captured operand, terminated
	// by Terminator. OutlineKernels (spec.md §4.6.7) consumes this op
	// and erases it.
	Launch ir.OpKind = "gpu.launch"
	// Module is a symbol-table, isolated-from-above region holding the
	// outlined Func kernel definitions for one compilation unit's device
	// code; after SPIR-V conversion (§4.6.5) and serialization (§4.6.8)
	// it carries a "spirv_blob" StringAttr.
	Module ir.OpKind = "gpu.module"
	// Func is an outlined kernel definition: "sym_name"/"function_type"
	// as fn.Func, plus an EntryPointABIAttr workgroup-size attribute
	// (§4.6.8) and the presence-only KernelAttr marker distinguishing it
	// from an ordinary device-side helper function.
	Func ir.OpKind = "gpu.func"
	// Return terminates a Func body with its result operands.
	Return ir.OpKind = "gpu.return"
	// StreamCreate opens a device command stream, deduplicated per
	// device by the outlining pass (§4.6.7); result is an opaque stream
	// handle.
	StreamCreate ir.OpKind = "gpu.stream_create"
	// StreamDestroy closes a stream opened by StreamCreate; emitted once
	// per live stream immediately before each return in the owning
	// function.
	StreamDestroy ir.OpKind = "gpu.stream_destroy"
	// ModuleLoad loads the kernel module named by its "blob" StringAttr
	// (the outlined gpu.module's symbol name) onto the stream named by
	// operand 0, producing an opaque module handle.
	ModuleLoad ir.OpKind = "gpu.module_load"
	// KernelGet resolves a kernel by name ("kernel" StringAttr) within a
	// loaded module (operand 0), producing an opaque kernel handle.
	KernelGet ir.OpKind = "gpu.kernel_get"
	// KernelLaunch dispatches a resolved kernel: operand 0 is the
	// stream, operand 1 the kernel handle, operands 2..4/5..7 are grid/
	// block dims, the remainder are the kernel's actual arguments.
	KernelLaunch ir.OpKind = "gpu.kernel_launch"
)

const (
	EnvironmentAttr    = "environment"
	HostSharedAttr     = "host_shared"
	EntryPointABIAttr  = "entry_point_abi"
	KernelAttr         = "kernel"
	SpirvBlobAttr      = "spirv_blob"
	BlobAttr           = "blob"
	KernelNameAttr     = "kernel"
	MappingAttr        = "mapping"
)

// Register installs every op kind's OpInfo into ctx.
func Register(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(EnvRegion)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Parallel)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Terminator), Trait: ir.TraitTerminator})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Alloc), Effects: func(op *ir.Operation) []ir.Effect {
		return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectAllocate, Resource: op.Result(0)}}
	}})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Dealloc), Effects: func(op *ir.Operation) []ir.Effect {
		return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectFree, Resource: op.Operand(0)}}
	}})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Launch)})
	ctx.RegisterOpKind(&ir.OpInfo{
		Name:  string(Module),
		Trait: ir.TraitIsolatedFromAbove | ir.TraitSymbolTable,
	})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Func), Trait: ir.TraitIsolatedFromAbove})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Return), Trait: ir.TraitTerminator})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(StreamCreate)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(StreamDestroy)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(ModuleLoad)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(KernelGet)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(KernelLaunch)})
}

// StreamType is the opaque handle type StreamCreate/ModuleLoad/
// KernelGet produce, one per ctx (an ir.OpaqueType, so it interns like
// any other leaf type).
func StreamType(ctx *ir.Context) *ir.OpaqueType { return ctx.OpaqueType("gpu", "stream") }

// ModuleHandleType is ModuleLoad's result type.
func ModuleHandleType(ctx *ir.Context) *ir.OpaqueType { return ctx.OpaqueType("gpu", "module_handle") }

// KernelHandleType is KernelGet's result type.
func KernelHandleType(ctx *ir.Context) *ir.OpaqueType { return ctx.OpaqueType("gpu", "kernel_handle") }

// NewEnvRegion builds a detached gpu.env_region naming device, with one
// empty block in its single region.
func NewEnvRegion(ctx *ir.Context, device ir.Attribute, resultTypes []ir.Type) (*ir.Operation, *ir.Block) {
	op := ir.NewOp(ctx, EnvRegion, nil, resultTypes, map[string]ir.Attribute{
		EnvironmentAttr: device,
	})
	r := op.AddRegion()
	blk := ir.NewBlock()
	r.AppendBlock(blk)
	return op, blk
}

// NewFunc builds a detached gpu.func with a single-block region whose
// entry block carries argTypes, mirroring fn.NewFunc.
func NewFunc(ctx *ir.Context, name string, argTypes, resultTypes []ir.Type) *ir.Operation {
	fnType := ctx.FunctionType(argTypes, resultTypes)
	op := ir.NewOp(ctx, Func, nil, nil, map[string]ir.Attribute{
		ir.SymNameAttr:    ctx.InternAttr(&ir.StringAttr{Value: name}),
		"function_type":   ctx.InternAttr(&ir.OpaqueAttr{Dialect: "func", Payload: fnType.String()}),
		KernelAttr:        ctx.InternAttr(&ir.UnitAttr{}),
	})
	r := op.AddRegion()
	entry := ir.NewBlock(argTypes...)
	r.AppendBlock(entry)
	return op
}

// NewModule builds a detached, empty gpu.module named name.
func NewModule(ctx *ir.Context, name string) *ir.Operation {
	op := ir.NewOp(ctx, Module, nil, nil, map[string]ir.Attribute{
		ir.SymNameAttr: ctx.InternAttr(&ir.StringAttr{Value: name}),
	})
	r := op.AddRegion()
	r.EnableSymbolTable()
	r.AppendBlock(ir.NewBlock())
	return op
}

// Processor names a hardware dispatch axis a loop dimension maps to
// (spec.md §4.6.3), mirroring GpuToGpuRuntime.cpp's getProcessor table.
type Processor int

const (
	BlockX Processor = iota
	BlockY
	BlockZ
	ThreadX
	ThreadY
	ThreadZ
	Sequential
)

// ProcessorFor maps a loop axis index to its dispatch processor: axes
// 0-2 drive the grid (block X/Y/Z), axes 3-5 drive the block (thread
// X/Y/Z), axes beyond that stay Sequential (spec.md §4.6.3).
func ProcessorFor(axis int) Processor {
	switch {
	case axis >= 0 && axis < 6:
		return []Processor{BlockX, BlockY, BlockZ, ThreadX, ThreadY, ThreadZ}[axis]
	default:
		return Sequential
	}
}
