package gpulower

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/scf"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
)

func newGpulowerContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	fn.Register(ctx)
	scf.Register(ctx)
	gpu.Register(ctx)
	memref.Register(ctx)
	spirvlike.Register(ctx)
	return ctx
}

func constIndexOp(b *ir.Builder, ctx *ir.Context, v int64) *ir.Value {
	idx := ctx.IndexType()
	return b.CreateOne(arith.Constant, nil, idx, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: v, Type: idx}),
	})
}

func firstOpOfKind(ops []*ir.Operation, kind ir.OpKind) *ir.Operation {
	for _, op := range ops {
		if op.Name == kind {
			return op
		}
	}
	return nil
}

func countOpsOfKind(ops []*ir.Operation, kind ir.OpKind) int {
	n := 0
	for _, op := range ops {
		if op.Name == kind {
			n++
		}
	}
	return n
}
