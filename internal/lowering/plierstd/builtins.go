package plierstd

import "plierc/internal/ir"

const (
	// RangeOp is the tier-1 built-in lowering of a Python range(...)
	// call: a (start, stop, step) descriptor of index-typed operands,
	// consumed by the structured-control-flow stage this pass's jump
	// marker asks the pipeline to revisit.
	RangeOp ir.OpKind = "plierstd.range"
	// SliceOp is the tier-1 built-in lowering of a Python slice(...)
	// call, with the same (start, stop, step) shape as RangeOp.
	SliceOp ir.OpKind = "plierstd.slice"
)

// Register installs every op kind plierstd's patterns produce — the
// tier-1 builtins and the legal tuple vocabulary — into ctx. Call once
// per Context before Run.
func Register(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(RangeOp)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(SliceOp)})
	registerTupleOps(ctx)
}

// JumpMarkersAttr names the module-level ArrayAttr of pending pipeline
// stage names a lowering pass wants revisited, mirroring
// numba::addPipelineJumpMarker's module-level bookkeeping (spec.md §4.5
// "re-runs an earlier structured-control-flow pipeline stage").
const JumpMarkersAttr = "pipeline.jump_markers"

// AddPipelineJumpMarker appends marker to mod's jump-marker list if not
// already present, for internal/pipeline's stage scheduler (component
// G) to consume and act on.
func AddPipelineJumpMarker(ctx *ir.Context, mod *ir.Operation, marker string) {
	var elements []ir.Attribute
	if existing, ok := mod.Attr(JumpMarkersAttr); ok {
		if arr, ok := existing.(*ir.ArrayAttr); ok {
			for _, e := range arr.Elements {
				if s, ok := e.(*ir.StringAttr); ok {
					if s.Value == marker {
						return
					}
					elements = append(elements, e)
				}
			}
		}
	}
	elements = append(elements, ctx.InternAttr(&ir.StringAttr{Value: marker}))
	mod.SetAttr(JumpMarkersAttr, ctx.InternAttr(&ir.ArrayAttr{Elements: elements}))
}
