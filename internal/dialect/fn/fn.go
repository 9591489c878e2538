// Package fn defines the function-like op vocabulary every other
// component anchors on: an isolated-from-above function definition
// registered in its enclosing module's symbol table, a call
// referencing a callee by symbol, and the terminator that exits a
// function body with result values.
package fn

import "plierc/internal/ir"

const (
	// Func is a function definition: a single isolated-from-above region,
	// a "sym_name" StringAttr, and a "function_type" type attribute.
	Func ir.OpKind = "func.func"
	// Call invokes a function definition named by its "callee"
	// SymbolRefAttr, passing operands positionally as arguments.
	Call ir.OpKind = "func.call"
	// Return exits the enclosing function body with its operands as the
	// function's result values.
	Return ir.OpKind = "func.return"
)

// FunctionTypeAttr and CalleeAttr name the attributes Func/Call carry;
// sym_name is ir.SymNameAttr, reused rather than redeclared here.
const (
	FunctionTypeAttr = "function_type"
	CalleeAttr       = "callee"
)

// Register installs Func/Call/Return's OpInfo into ctx.
func Register(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{
		Name:  string(Func),
		Trait: ir.TraitIsolatedFromAbove,
	})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Call)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(Return), Trait: ir.TraitTerminator})
}

// NewFunc builds a detached func.func op with an empty, symbol-table-
// enabled, single-block region whose entry block carries argTypes.
func NewFunc(ctx *ir.Context, name string, argTypes, resultTypes []ir.Type) *ir.Operation {
	fnType := ctx.FunctionType(argTypes, resultTypes)
	op := ir.NewOp(ctx, Func, nil, nil, map[string]ir.Attribute{
		ir.SymNameAttr:   ctx.InternAttr(&ir.StringAttr{Value: name}),
		FunctionTypeAttr: ctx.InternAttr(&ir.OpaqueAttr{Dialect: "func", Payload: fnType.String()}),
	})
	r := op.AddRegion()
	entry := ir.NewBlock(argTypes...)
	r.AppendBlock(entry)
	return op
}

// Callee returns call's target symbol name.
func Callee(call *ir.Operation) string {
	a, ok := call.Attr(CalleeAttr)
	if !ok {
		return ""
	}
	ref, ok := a.(*ir.SymbolRefAttr)
	if !ok {
		return ""
	}
	return ref.Name
}
