package convert

import "plierc/internal/ir"

// Rewriter is the sole mutation surface a conversion Pattern may use.
// It wraps the same primitives pattern.Rewriter does, plus access to
// the active TypeConverter so a pattern can materialize a cast at a
// conversion boundary instead of hand-rolling one.
type Rewriter struct {
	ctx       *ir.Context
	builder   *ir.Builder
	converter *TypeConverter
	enqueue   func(op *ir.Operation)
}

func newRewriter(ctx *ir.Context, converter *TypeConverter, enqueue func(op *ir.Operation)) *Rewriter {
	return &Rewriter{ctx: ctx, builder: ir.NewBuilder(ctx), converter: converter, enqueue: enqueue}
}

func (rw *Rewriter) Context() *ir.Context          { return rw.ctx }
func (rw *Rewriter) TypeConverter() *TypeConverter { return rw.converter }

func (rw *Rewriter) SetInsertionPointBefore(op *ir.Operation) { rw.builder.SetInsertionPointBefore(op) }
func (rw *Rewriter) SetInsertionPointToEnd(b *ir.Block)       { rw.builder.SetInsertionPointToEnd(b) }

func (rw *Rewriter) Create(name ir.OpKind, operands []*ir.Value, resultTypes []ir.Type, attrs map[string]ir.Attribute) *ir.Operation {
	op := rw.builder.Create(name, operands, resultTypes, attrs)
	rw.enqueue(op)
	return op
}

func (rw *Rewriter) CreateOne(name ir.OpKind, operands []*ir.Value, resultType ir.Type, attrs map[string]ir.Attribute) *ir.Value {
	return rw.Create(name, operands, []ir.Type{resultType}, attrs).Result(0)
}

// ConvertOperand converts v to dst via the active converter's target
// materialization, falling back to the default cast table — the helper
// a pattern calls when it needs an operand of a different type than
// the one it was given.
func (rw *Rewriter) ConvertOperand(v *ir.Value, dst ir.Type) *ir.Value {
	if v.Type() == dst {
		return v
	}
	return rw.converter.materializeTarget(rw.builder, dst, []*ir.Value{v}, v.Type())
}

func (rw *Rewriter) ReplaceAllUsesWith(from, to *ir.Value) {
	for _, use := range from.Uses() {
		rw.enqueue(use.User)
	}
	ir.ReplaceAllUsesWith(from, to)
}

func (rw *Rewriter) ReplaceOp(op *ir.Operation, newResults []*ir.Value) {
	for i, oldResult := range op.Results() {
		rw.ReplaceAllUsesWith(oldResult, newResults[i])
	}
	ir.Erase(op)
}

func (rw *Rewriter) EraseOp(op *ir.Operation) {
	ir.Erase(op)
}

func (rw *Rewriter) SetOperand(op *ir.Operation, i int, v *ir.Value) {
	op.SetOperand(i, v)
	rw.enqueue(op)
}
