// Package spirvlike defines the SPIR-V-flavored op vocabulary the GPU
// lowering's device-side conversion stage (spec.md §4.6.5) targets:
// pointer access chains backing rank-0/1 loads and stores, atomics,
// control/memory barriers, group-uniform reductions, and the packed-
// double wrapper the f64-degrade stage (§4.6.6) manually packs/unpacks
// bits through. Grounded on the SPIR-V conversion headers
// GpuToGpuRuntime.cpp includes (ArithToSPIRV, GPUToSPIRV, MathToSPIRV,
// SCFToSPIRV) and mlir::spirv::{AccessChainOp,LoadOp,StoreOp,
// AtomicIAddOp,ControlBarrierOp,MemoryBarrierOp,
// GroupNonUniformIAddOp}.
package spirvlike

import "plierc/internal/ir"

const (
	// AccessChain computes a pointer to one element of a buffer operand
	// given index operands, mirroring spirv.AccessChain.
	AccessChain ir.OpKind = "spirv.access_chain"
	// Load reads through a pointer operand ("alignment" IntegerAttr).
	Load ir.OpKind = "spirv.load"
	// Store writes operand 1 through pointer operand 0 ("alignment"
	// IntegerAttr).
	Store ir.OpKind = "spirv.store"
	// AtomicAdd atomically adds operand 1 to the location pointed to by
	// operand 0 with Device scope, producing the prior value.
	AtomicAdd ir.OpKind = "spirv.atomic_add"
	// AtomicSub is modeled as AtomicAdd of the negated operand for
	// floats (spec.md §4.6.5's documented quirk: this mishandles the
	// sign of a subtraction landing exactly on zero, carried forward
	// unresolved per spec.md §9).
	AtomicSub ir.OpKind = "spirv.atomic_sub"
	// ControlBarrier synchronizes control flow across a scope ("scope"
	// StringAttr, e.g. "Workgroup").
	ControlBarrier ir.OpKind = "spirv.control_barrier"
	// MemoryBarrier fences memory operations ("scope"/"semantics"
	// StringAttr, e.g. "SequentiallyConsistent|CrossWorkgroup").
	MemoryBarrier ir.OpKind = "spirv.memory_barrier"
	// GroupReduce performs a non-uniform group reduction ("kind"
	// StringAttr); only "add" is supported (spec.md §9's resolved Open
	// Question — any other kind is a semantic error raised by the
	// lowering pass, not by this op itself).
	GroupReduce ir.OpKind = "spirv.group_non_uniform_reduce"
	// PackF64 widens an f32 operand into the vector<2xi32> bit pattern
	// its value would have as a double, via manual sign/exponent/
	// mantissa manipulation (spec.md §4.6.6); denormals, NaN, and
	// infinities are unsupported and flush to zero.
	PackF64 ir.OpKind = "spirvlike.pack_f64"
	// UnpackF64 reconstructs the nearest f32 approximation of the double
	// a vector<2xi32> operand's bits encode (the inverse of PackF64),
	// with the same flush-to-zero caveat for denormals/NaN/infinity.
	UnpackF64 ir.OpKind = "spirvlike.unpack_f64"
)

const (
	AlignmentAttr = "alignment"
	ScopeAttr     = "scope"
	SemanticsAttr = "semantics"
	KindAttr      = "kind"
)

// ScopeDevice and ScopeWorkgroup name the atomic/barrier scope values
// this dialect's ops carry as ScopeAttr.
const (
	ScopeDevice    = "Device"
	ScopeWorkgroup = "Workgroup"
)

// SemanticsCrossWorkgroup and SemanticsWorkgroupMemory name the two
// MemoryBarrier semantics spec.md §4.6.5 distinguishes by fence flag,
// each implicitly ORed with "SequentiallyConsistent".
const (
	SemanticsCrossWorkgroup = "SequentiallyConsistent|CrossWorkgroup"
	SemanticsWorkgroupMemory = "SequentiallyConsistent|Workgroup"
)

// ReduceAdd is the only GroupReduce kind this package's lowering
// supports (spec.md §9).
const ReduceAdd = "add"

// DefaultCapabilities is the per-module SPIR-V capability set spec.md
// §4.6.8 attaches by default.
var DefaultCapabilities = []string{
	"Addresses", "Kernel", "Groups", "Float16", "Float64",
	"Int8", "Int16", "Int64", "AtomicFloat32AddEXT", "ExpectAssumeKHR",
}

// DefaultExtensions is the matching SPIR-V extension set.
var DefaultExtensions = []string{
	"SPV_EXT_shader_atomic_float_add",
	"SPV_KHR_expect_assume",
}

// Register installs every op kind's OpInfo into ctx.
func Register(ctx *ir.Context) {
	for _, kind := range []ir.OpKind{
		AccessChain, Load, Store, AtomicAdd, AtomicSub,
		ControlBarrier, MemoryBarrier, GroupReduce, PackF64, UnpackF64,
	} {
		ctx.RegisterOpKind(&ir.OpInfo{Name: string(kind)})
	}
}

// CapabilitiesAttr returns DefaultCapabilities as an ir.ArrayAttr of
// ir.StringAttr, interned against ctx.
func CapabilitiesAttr(ctx *ir.Context) *ir.ArrayAttr {
	return arrayOfStrings(ctx, DefaultCapabilities)
}

// ExtensionsAttr returns DefaultExtensions as an ir.ArrayAttr of
// ir.StringAttr, interned against ctx.
func ExtensionsAttr(ctx *ir.Context) *ir.ArrayAttr {
	return arrayOfStrings(ctx, DefaultExtensions)
}

func arrayOfStrings(ctx *ir.Context, values []string) *ir.ArrayAttr {
	elems := make([]ir.Attribute, len(values))
	for i, v := range values {
		elems[i] = ctx.InternAttr(&ir.StringAttr{Value: v})
	}
	return &ir.ArrayAttr{Elements: elems}
}
