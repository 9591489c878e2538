package plierstd

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func newPlierstdContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	fn.Register(ctx)
	scf.Register(ctx)
	plier.Register(ctx)
	Register(ctx)
	return ctx
}

// intConst builds a plier.const of an integer literal at resultType.
func intConst(b *ir.Builder, ctx *ir.Context, value int64, resultType ir.Type) *ir.Value {
	return b.CreateOne(plier.Const, nil, resultType, map[string]ir.Attribute{
		plier.ValueAttr: ctx.InternAttr(&ir.IntegerAttr{Value: value, Type: resultType}),
	})
}

func floatConst(b *ir.Builder, ctx *ir.Context, value float64, resultType ir.Type) *ir.Value {
	return b.CreateOne(plier.Const, nil, resultType, map[string]ir.Attribute{
		plier.ValueAttr: ctx.InternAttr(&ir.FloatAttr{Value: value, Type: resultType}),
	})
}

func binop(b *ir.Builder, operator string, lhs, rhs *ir.Value, resultType ir.Type) *ir.Operation {
	return b.Create(plier.BinOp, []*ir.Value{lhs, rhs}, []ir.Type{resultType}, map[string]ir.Attribute{
		plier.OperatorAttr: b.Context().InternAttr(&ir.StringAttr{Value: operator}),
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
