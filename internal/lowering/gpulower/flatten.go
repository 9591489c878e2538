package gpulower

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/ir"
)

// FlattenMemrefs rewrites every memref.load/store/subview inside a
// gpu.launch region whose memref operand has rank > 1 or a non-identity
// layout against a rank-1 memref.reinterpret_cast of the same buffer,
// with the access's linear index computed from the original layout's
// offset+strides formula (spec.md §4.6.4). Strides here are always
// compile-time constants (ir.Layout carries no dynamic stride values),
// so unlike the pattern this is grounded on, no runtime metadata
// extraction is needed to fold a flat index.
func FlattenMemrefs(ctx *ir.Context, f *ir.Operation) {
	body := f.Regions()[0]

	var loads, stores, subviews []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if enclosingLaunch(op) == nil {
			return
		}
		switch op.Name {
		case memref.Load:
			if needsFlatten(op.Operand(0)) {
				loads = append(loads, op)
			}
		case memref.Store:
			if needsFlatten(op.Operand(1)) {
				stores = append(stores, op)
			}
		case memref.Subview:
			if needsFlatten(op.Operand(0)) {
				subviews = append(subviews, op)
			}
		}
	})

	for _, op := range loads {
		flattenLoad(ctx, op)
	}
	for _, op := range stores {
		flattenStore(ctx, op)
	}
	for _, op := range subviews {
		flattenSubview(ctx, op)
	}
}

func needsFlatten(v *ir.Value) bool {
	t, ok := v.Type().(*ir.MemRefType)
	if !ok {
		return false
	}
	return !t.Layout.IsIdentity() || t.Rank() > 1
}

func enclosingLaunch(op *ir.Operation) *ir.Operation {
	for cur := op.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Name == gpu.Launch {
			return cur
		}
	}
	return nil
}

func flattenLoad(ctx *ir.Context, op *ir.Operation) {
	memrefVal := op.Operand(0)
	t := memrefVal.Type().(*ir.MemRefType)
	flatIdx := buildFlatIndex(ctx, op, t, op.Operands()[1:])
	flat := buildFlatMemref(ctx, op, memrefVal)
	newLoad := ir.NewOp(ctx, memref.Load, []*ir.Value{flat, flatIdx}, []ir.Type{op.Result(0).Type()}, nil)
	ir.InsertBefore(op, newLoad)
	ir.ReplaceAllUsesWith(op.Result(0), newLoad.Result(0))
	ir.Erase(op)
}

func flattenStore(ctx *ir.Context, op *ir.Operation) {
	value := op.Operand(0)
	memrefVal := op.Operand(1)
	t := memrefVal.Type().(*ir.MemRefType)
	flatIdx := buildFlatIndex(ctx, op, t, op.Operands()[2:])
	flat := buildFlatMemref(ctx, op, memrefVal)
	newStore := ir.NewOp(ctx, memref.Store, []*ir.Value{value, flat, flatIdx}, nil, nil)
	ir.InsertBefore(op, newStore)
	ir.Erase(op)
}

// flattenSubview folds the subview's static per-dimension offsets
// against the source's strides into one linear offset, then
// reinterpret-casts the flat buffer directly to the subview's own
// result type carrying the original strides — skipping the
// intermediate flat-subview step the op this is grounded on needs,
// since reinterpret_cast already lets a single op assert an arbitrary
// shape/offset/strides triple over the flat buffer.
func flattenSubview(ctx *ir.Context, op *ir.Operation) {
	src := op.Operand(0)
	t := src.Type().(*ir.MemRefType)
	offsetsAttr, _ := op.Attr(memref.OffsetAttr)
	stridesAttr, _ := op.Attr(memref.StridesAttr)
	offsets := offsetsAttr.(*ir.DenseIntArrayAttr).Values
	srcStrides := memref.EffectiveStrides(t)

	flatOffset := t.Layout.Offset
	for i, o := range offsets {
		flatOffset += o * srcStrides[i]
	}

	flat := buildFlatMemref(ctx, op, src)
	cast := ir.NewOp(ctx, memref.ReinterpretCast, []*ir.Value{flat}, []ir.Type{op.Result(0).Type()}, map[string]ir.Attribute{
		memref.OffsetAttr:  ctx.InternAttr(&ir.IntegerAttr{Value: flatOffset, Type: ctx.IndexType()}),
		memref.StridesAttr: stridesAttr,
	})
	ir.InsertBefore(op, cast)
	ir.ReplaceAllUsesWith(op.Result(0), cast.Result(0))
	ir.Erase(op)
}

// buildFlatIndex emits arith ops computing offset + Σ indices[i]*stride[i]
// as an index value, each inserted immediately before anchor in
// creation order — InsertBefore(anchor, op) always lands op right
// before anchor's current position, so chaining it in creation order
// naturally keeps every def ahead of its use.
func buildFlatIndex(ctx *ir.Context, anchor *ir.Operation, t *ir.MemRefType, indices []*ir.Value) *ir.Value {
	idx := ctx.IndexType()
	strides := memref.EffectiveStrides(t)

	constIdx := func(v int64) *ir.Value {
		c := ir.NewOp(ctx, arith.Constant, nil, []ir.Type{idx}, map[string]ir.Attribute{
			"value": ctx.InternAttr(&ir.IntegerAttr{Value: v, Type: idx}),
		})
		ir.InsertBefore(anchor, c)
		return c.Result(0)
	}
	addTo := func(acc, term *ir.Value) *ir.Value {
		if acc == nil {
			return term
		}
		add := ir.NewOp(ctx, arith.AddI, []*ir.Value{acc, term}, []ir.Type{idx}, nil)
		ir.InsertBefore(anchor, add)
		return add.Result(0)
	}

	var acc *ir.Value
	for i, iv := range indices {
		stride := strides[i]
		if stride == 1 {
			acc = addTo(acc, iv)
			continue
		}
		mul := ir.NewOp(ctx, arith.MulI, []*ir.Value{iv, constIdx(stride)}, []ir.Type{idx}, nil)
		ir.InsertBefore(anchor, mul)
		acc = addTo(acc, mul.Result(0))
	}
	if t.Layout.Offset != 0 {
		acc = addTo(acc, constIdx(t.Layout.Offset))
	}
	if acc == nil {
		acc = constIdx(0)
	}
	return acc
}

// buildFlatMemref reinterpret-casts src to a dynamically-sized rank-1
// memref of the same element type and memory space over the same
// storage, offset 0 and unit stride, inserted immediately before
// anchor.
func buildFlatMemref(ctx *ir.Context, anchor *ir.Operation, src *ir.Value) *ir.Value {
	t := src.Type().(*ir.MemRefType)
	resultType := ctx.MemRefType([]int64{-1}, t.Element, ir.Layout{}, t.Space)
	cast := ir.NewOp(ctx, memref.ReinterpretCast, []*ir.Value{src}, []ir.Type{resultType}, map[string]ir.Attribute{
		memref.OffsetAttr:  ctx.InternAttr(&ir.IntegerAttr{Value: 0, Type: ctx.IndexType()}),
		memref.StridesAttr: &ir.DenseIntArrayAttr{Values: []int64{1}},
	})
	ir.InsertBefore(anchor, cast)
	return cast.Result(0)
}
