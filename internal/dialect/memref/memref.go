// Package memref defines the buffer-level op vocabulary GPU lowering
// (spec.md §4.6) operates on: allocation, deallocation, host<->host or
// host<->device copy, global-buffer fetch, element load/store, rank
// queries, and the two reshaping ops (subview, reinterpret_cast) the
// memref-flattening stage (§4.6.4) rewrites against. Grounded on the
// mlir::memref dialect ops GpuToGpuRuntime.cpp pattern-matches on
// (memref::AllocOp, LoadOp, StoreOp, CopyOp, GetGlobalOp, DimOp,
// SubViewOp, ReinterpretCastOp, CastOp).
package memref

import "plierc/internal/ir"

const (
	// Alloc allocates a host-resident buffer of the result memref's
	// static shape, plus one index operand per dynamic dimension.
	Alloc ir.OpKind = "memref.alloc"
	// Dealloc frees a buffer produced by Alloc (or a device buffer
	// produced by gpu.alloc).
	Dealloc ir.OpKind = "memref.dealloc"
	// Load reads one element at the given index operands.
	Load ir.OpKind = "memref.load"
	// Store writes one element ("value" operand 0) into the buffer
	// (operand 1) at the given index operands (operands 2..).
	Store ir.OpKind = "memref.store"
	// Copy copies every element of its source operand into its
	// destination operand, which must share the source's shape.
	Copy ir.OpKind = "memref.copy"
	// GetGlobal fetches a module-level buffer declared elsewhere by
	// symbol name ("name" SymbolRefAttr).
	GetGlobal ir.OpKind = "memref.get_global"
	// Dim returns the extent of a dynamic dimension ("index" IntegerAttr)
	// as an index-typed result.
	Dim ir.OpKind = "memref.dim"
	// Subview produces a memref aliasing a rectangular slice of its
	// source ("offsets"/"sizes"/"strides" DenseIntArrayAttr triples, one
	// entry per source dimension; -1 marks a dynamic value carried as a
	// trailing operand instead — not exercised by the reference lowering
	// paths in this package, which only ever subview with all-static
	// bounds).
	Subview ir.OpKind = "memref.subview"
	// ReinterpretCast reinterprets its source buffer as a memref of a
	// different shape/layout over the same underlying storage ("offset"
	// IntegerAttr, "strides" DenseIntArrayAttr) — the op the memref-
	// flattening stage rewrites a rank>1 access against (spec.md §4.6.4).
	ReinterpretCast ir.OpKind = "memref.reinterpret_cast"
)

const (
	NameAttr    = "name"
	IndexAttr   = "index"
	OffsetAttr  = "offset"
	StridesAttr = "strides"
)

// Register installs every op kind's OpInfo into ctx.
func Register(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Alloc), Effects: allocEffects})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Dealloc), Effects: deallocEffects(0)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Load), Effects: readEffects(0)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Store), Effects: writeEffects(1)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Copy), Effects: copyEffects})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(GetGlobal), Effects: allocEffects})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Dim)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Subview)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(ReinterpretCast)})
}

func allocEffects(op *ir.Operation) []ir.Effect {
	return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectAllocate, Resource: op.Result(0)}}
}

func deallocEffects(operand int) func(*ir.Operation) []ir.Effect {
	return func(op *ir.Operation) []ir.Effect {
		return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectFree, Resource: op.Operand(operand)}}
	}
}

func readEffects(operand int) func(*ir.Operation) []ir.Effect {
	return func(op *ir.Operation) []ir.Effect {
		return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectRead, Resource: op.Operand(operand)}}
	}
}

func writeEffects(operand int) func(*ir.Operation) []ir.Effect {
	return func(op *ir.Operation) []ir.Effect {
		return []ir.Effect{ir.ResourceEffect{Kind: ir.EffectWrite, Resource: op.Operand(operand)}}
	}
}

func copyEffects(op *ir.Operation) []ir.Effect {
	return []ir.Effect{
		ir.ResourceEffect{Kind: ir.EffectRead, Resource: op.Operand(0)},
		ir.ResourceEffect{Kind: ir.EffectWrite, Resource: op.Operand(1)},
	}
}

// NewAlloc builds a detached memref.alloc producing a value of type t.
func NewAlloc(ctx *ir.Context, t *ir.MemRefType, dynamicSizes []*ir.Value) *ir.Operation {
	return ir.NewOp(ctx, Alloc, dynamicSizes, []ir.Type{t}, nil)
}

// Rank reports how many index operands a Load/Store against t needs.
func Rank(t *ir.MemRefType) int { return t.Rank() }

// EffectiveStrides returns t's per-dimension strides: its explicit
// layout strides if non-identity, or the canonical row-major strides
// for its declared shape otherwise.
func EffectiveStrides(t *ir.MemRefType) []int64 {
	if t.Layout.Strides != nil {
		return t.Layout.Strides
	}
	return ir.IdentityStrides(t.Shape)
}
