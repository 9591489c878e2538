package inline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func newInlineContext() *ir.Context {
	ctx := ir.NewContext()
	fn.Register(ctx)
	scf.Register(ctx)
	arith.Register(ctx)
	return ctx
}

// buildModuleWithCallee builds a module containing:
//
//	func.func @callee(%a: i32, %b: i32) -> i32 {
//	  %s = arith.addi %a, %b
//	  func.return %s
//	}
//	func.func @caller(%x: i32, %y: i32) -> i32 {
//	  %r = func.call @callee(%x, %y) {force_inline}
//	  func.return %r
//	}
//
// and returns (module, caller's call op).
func buildModuleWithCallee(t *testing.T, ctx *ir.Context, markOnCall bool) (*ir.Operation, *ir.Operation) {
	t.Helper()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	body := ir.Body(mod)

	callee := fn.NewFunc(ctx, "callee", []ir.Type{i32, i32}, []ir.Type{i32})
	calleeEntry := callee.Regions()[0].Entry()
	cb := ir.NewBuilder(ctx)
	cb.SetInsertionPointToEnd(calleeEntry)
	sum := cb.CreateOne(arith.AddI, []*ir.Value{calleeEntry.Arg(0), calleeEntry.Arg(1)}, i32, nil)
	cb.Create(fn.Return, []*ir.Value{sum}, nil, nil)
	if !markOnCall {
		callee.SetAttr(Marker, ctx.InternAttr(&ir.UnitAttr{}))
	}
	ir.InsertAtEnd(body.Entry(), callee)

	caller := fn.NewFunc(ctx, "caller", []ir.Type{i32, i32}, []ir.Type{i32})
	callerEntry := caller.Regions()[0].Entry()
	callAttrs := map[string]ir.Attribute{fn.CalleeAttr: ctx.InternAttr(&ir.SymbolRefAttr{Name: "callee"})}
	if markOnCall {
		callAttrs[Marker] = ctx.InternAttr(&ir.UnitAttr{})
	}
	cb2 := ir.NewBuilder(ctx)
	cb2.SetInsertionPointToEnd(callerEntry)
	call := cb2.Create(fn.Call, []*ir.Value{callerEntry.Arg(0), callerEntry.Arg(1)}, []ir.Type{i32}, callAttrs)
	cb2.Create(fn.Return, []*ir.Value{call.Result(0)}, nil, nil)
	ir.InsertAtEnd(body.Entry(), caller)

	return mod, call
}

func TestRunInlinesMarkedCallIntoScopedRegion(t *testing.T) {
	ctx := newInlineContext()
	mod, _ := buildModuleWithCallee(t, ctx, true)

	require.NoError(t, Run(ctx, mod))

	var caller *ir.Operation
	for _, op := range ir.Body(mod).Entry().Operations() {
		if op.Name == fn.Func {
			caller = op
		}
	}
	require.NotNil(t, caller, "caller function survives inlining")

	entry := caller.Regions()[0].Entry()
	ops := entry.Operations()
	require.Len(t, ops, 2, "execute_region followed by func.return")
	execOp := ops[0]
	assert.Equal(t, scf.ExecuteRegion, execOp.Name)
	require.Equal(t, 1, execOp.NumResults())

	ret := ops[1]
	assert.Equal(t, fn.Return, ret.Name)
	assert.Same(t, execOp.Result(0), ret.Operand(0))

	require.Len(t, execOp.Regions(), 1)
	innerBlocks := execOp.Regions()[0].Blocks()
	require.Len(t, innerBlocks, 1)
	innerOps := innerBlocks[0].Operations()
	require.Len(t, innerOps, 2, "cloned addi followed by a yield")
	assert.Equal(t, arith.AddI, innerOps[0].Name)
	assert.Equal(t, scf.Yield, innerOps[1].Name)

	// Parameters were substituted with the call's actual operands, not
	// left as fresh unreachable block arguments.
	assert.Same(t, entry.Arg(0), innerOps[0].Operand(0))
	assert.Same(t, entry.Arg(1), innerOps[0].Operand(1))
}

func TestRunInlinesWhenMarkerIsOnCallee(t *testing.T) {
	ctx := newInlineContext()
	mod, _ := buildModuleWithCallee(t, ctx, false)
	require.NoError(t, Run(ctx, mod))

	var names []ir.OpKind
	ir.Walk(mod, ir.PreOrder, func(op *ir.Operation) { names = append(names, op.Name) })
	assert.NotContains(t, names, fn.Call, "call was rewritten away")
}

func TestRunRemovesDeadCalleeAfterInlining(t *testing.T) {
	ctx := newInlineContext()
	mod, _ := buildModuleWithCallee(t, ctx, true)
	require.NoError(t, Run(ctx, mod))

	for _, op := range ir.Body(mod).Entry().Operations() {
		if op.Name != fn.Func {
			continue
		}
		name, ok := op.Attr(ir.SymNameAttr)
		require.True(t, ok)
		assert.NotEqual(t, "callee", name.(*ir.StringAttr).Value, "inlined-away callee was erased")
	}
}

func TestRunLeavesUnmarkedCallsUntouched(t *testing.T) {
	ctx := newInlineContext()
	mod, call := buildModuleWithCallee(t, ctx, true)
	call.RemoveAttr(Marker)
	for _, op := range ir.Body(mod).Entry().Operations() {
		if op.Name == fn.Func {
			op.RemoveAttr(Marker)
		}
	}

	require.NoError(t, Run(ctx, mod))

	var sawCall bool
	ir.Walk(mod, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == fn.Call {
			sawCall = true
		}
	})
	assert.True(t, sawCall, "an unmarked call is left alone")
}

func TestRunFailsOnSelfRecursiveMarkedCall(t *testing.T) {
	ctx := newInlineContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	body := ir.Body(mod)

	rec := fn.NewFunc(ctx, "rec", []ir.Type{i32}, []ir.Type{i32})
	entry := rec.Regions()[0].Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	call := b.Create(fn.Call, []*ir.Value{entry.Arg(0)}, []ir.Type{i32}, map[string]ir.Attribute{
		fn.CalleeAttr: ctx.InternAttr(&ir.SymbolRefAttr{Name: "rec"}),
		Marker:        ctx.InternAttr(&ir.UnitAttr{}),
	})
	b.Create(fn.Return, []*ir.Value{call.Result(0)}, nil, nil)
	ir.InsertAtEnd(body.Entry(), rec)

	// A self-recursive marked call can never converge: each rewrite
	// splices in a fresh copy of the body carrying another marked call
	// to the same callee, so the pattern engine's iteration cap (not the
	// post-convergence "unresolved marker" check) is what actually fires
	// first.
	err := Run(ctx, mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline:")
}
