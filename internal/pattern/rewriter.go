package pattern

import "plierc/internal/ir"

// Rewriter is the sole mutation surface a Pattern may use (spec.md
// §4.2's "Rewriter contract"): it wraps the IR core's structural
// mutation helpers and re-enqueues every op whose operands or uses
// change, so the driver converges without patterns needing to know
// about the worklist.
type Rewriter struct {
	ctx     *ir.Context
	builder *ir.Builder
	enqueue func(op *ir.Operation)
}

func newRewriter(ctx *ir.Context, enqueue func(op *ir.Operation)) *Rewriter {
	return &Rewriter{ctx: ctx, builder: ir.NewBuilder(ctx), enqueue: enqueue}
}

func (rw *Rewriter) Context() *ir.Context { return rw.ctx }

// Enqueue schedules op for matching/folding on a later worklist
// iteration, for patterns that splice in a subtree through means other
// than Create (e.g. cloning a callee's body in whole).
func (rw *Rewriter) Enqueue(op *ir.Operation) { rw.enqueue(op) }

// SetInsertionPointBefore/SetInsertionPointToEnd position where Create
// places new operations; patterns call one of these before Create.
func (rw *Rewriter) SetInsertionPointBefore(op *ir.Operation) { rw.builder.SetInsertionPointBefore(op) }
func (rw *Rewriter) SetInsertionPointToEnd(b *ir.Block)       { rw.builder.SetInsertionPointToEnd(b) }

// Create builds a new operation at the current insertion point and
// enqueues it for matching, since a freshly created op may itself be
// foldable or match another pattern.
func (rw *Rewriter) Create(name ir.OpKind, operands []*ir.Value, resultTypes []ir.Type, attrs map[string]ir.Attribute) *ir.Operation {
	op := rw.builder.Create(name, operands, resultTypes, attrs)
	rw.enqueue(op)
	return op
}

func (rw *Rewriter) CreateOne(name ir.OpKind, operands []*ir.Value, resultType ir.Type, attrs map[string]ir.Attribute) *ir.Value {
	return rw.Create(name, operands, []ir.Type{resultType}, attrs).Result(0)
}

// ReplaceAllUsesWith rewires from's uses to to and enqueues every
// formerly-downstream op, since their operand just changed type or
// identity.
func (rw *Rewriter) ReplaceAllUsesWith(from, to *ir.Value) {
	for _, use := range from.Uses() {
		rw.enqueue(use.User)
	}
	ir.ReplaceAllUsesWith(from, to)
}

// ReplaceOp replaces every result of op, one-for-one, with newResults
// and erases op. newResults must have the same length as op.Results().
func (rw *Rewriter) ReplaceOp(op *ir.Operation, newResults []*ir.Value) {
	for i, oldResult := range op.Results() {
		rw.ReplaceAllUsesWith(oldResult, newResults[i])
	}
	ir.Erase(op)
}

// EraseOp removes a now-useless op from its block.
func (rw *Rewriter) EraseOp(op *ir.Operation) {
	ir.Erase(op)
}

// SetOperand replaces one operand of op and enqueues op for re-matching.
func (rw *Rewriter) SetOperand(op *ir.Operation, i int, v *ir.Value) {
	op.SetOperand(i, v)
	rw.enqueue(op)
}
