// Package scf defines the structured-control-flow ops the force-inline
// engine wraps call sites in: an execute_region producing values from
// whatever its single region yields, mirroring MLIR's
// scf.execute_region/scf.yield pair used by InlineUtils.cpp to give an
// inlined callee body a scoped home at the call site.
package scf

import "plierc/internal/ir"

const (
	// ExecuteRegion is a region-with-results op: its one region runs
	// unconditionally once, and Yield's operands become its results.
	ExecuteRegion ir.OpKind = "scf.execute_region"
	// Yield terminates a block within an ExecuteRegion's region, handing
	// its operands out as that op's results.
	Yield ir.OpKind = "scf.yield"
	// If is a two-region conditional: operand 0 is an i1 predicate; the
	// "then" region (index 0) always exists, the "else" region (index 1)
	// is present only when NumRegions() == 2. Used by GPU lowering's
	// parallel-loop tiling (spec.md §4.6.3) to guard a tiled kernel body
	// against the padded grid/block iteration.
	If ir.OpKind = "scf.if"
)

func Register(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(ExecuteRegion)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Yield), Trait: ir.TraitTerminator})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(If)})
}

// NewIf builds a detached scf.if over predicate, with a "then" region
// containing one empty block and, if withElse is set, a matching "else"
// region, producing resultTypes.
func NewIf(ctx *ir.Context, predicate *ir.Value, resultTypes []ir.Type, withElse bool) (op *ir.Operation, then, els *ir.Block) {
	op = ir.NewOp(ctx, If, []*ir.Value{predicate}, resultTypes, nil)
	thenRegion := op.AddRegion()
	then = ir.NewBlock()
	thenRegion.AppendBlock(then)
	if withElse {
		elseRegion := op.AddRegion()
		els = ir.NewBlock()
		elseRegion.AppendBlock(els)
	}
	return op, then, els
}

// NewExecuteRegion builds a detached scf.execute_region with one empty
// block (no arguments) in its single region, producing resultTypes.
func NewExecuteRegion(ctx *ir.Context, resultTypes []ir.Type) (*ir.Operation, *ir.Block) {
	op := ir.NewOp(ctx, ExecuteRegion, nil, resultTypes, nil)
	r := op.AddRegion()
	blk := ir.NewBlock()
	r.AppendBlock(blk)
	return op, blk
}
