package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/grammar"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

func newGrammarContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	scf.Register(ctx)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.tagged"})
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})
	return ctx
}

// roundTrip prints mod, reparses the text, and rebuilds it against the
// same Context (so interned scalar types compare pointer-equal to the
// originals), returning the rebuilt module.
func roundTrip(t *testing.T, ctx *ir.Context, mod *ir.Operation) *ir.Operation {
	t.Helper()
	text := grammar.Print(mod)
	parsed, err := grammar.Parse(text)
	require.NoError(t, err, "parsing printed text:\n%s", text)
	rebuilt, err := grammar.Build(ctx, parsed)
	require.NoError(t, err)
	return rebuilt
}

func TestRoundTripsAnIntegerConstant(t *testing.T) {
	ctx := newGrammarContext()
	i64 := ctx.IntegerType(64, ir.Signed)
	mod := ir.NewModule(ctx)
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(ir.Body(mod).Entry())

	b.CreateOne(arith.Constant, nil, i64, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: -7, Type: i64}),
	})

	rebuilt := roundTrip(t, ctx, mod)
	ops := ir.Body(rebuilt).Entry().Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, arith.Constant, ops[0].Name)
	require.Len(t, ops[0].Results(), 1)
	assert.Same(t, i64, ops[0].Result(0).Type())
	value, ok := ops[0].Attr("value")
	require.True(t, ok)
	assert.Equal(t, &ir.IntegerAttr{Value: -7, Type: i64}, value)
	require.NoError(t, ir.Verify(ctx, rebuilt))
}

func TestRoundTripsACompareAndSelect(t *testing.T) {
	ctx := newGrammarContext()
	f32 := ctx.FloatType(32)
	i1 := ctx.IntegerType(1, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	a := b.CreateOne(arith.Constant, nil, f32, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.FloatAttr{Value: 1, Type: f32}),
	})
	x := b.CreateOne(arith.Constant, nil, f32, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.FloatAttr{Value: 2, Type: f32}),
	})
	cond := b.CreateOne(arith.CmpF, []*ir.Value{a, x}, i1, map[string]ir.Attribute{
		"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(arith.CmpFOGE)}),
	})
	b.CreateOne(arith.Select, []*ir.Value{cond, a, x}, f32, nil)

	rebuilt := roundTrip(t, ctx, mod)
	ops := ir.Body(rebuilt).Entry().Operations()
	require.Len(t, ops, 4)
	assert.Equal(t, arith.CmpF, ops[2].Name)
	assert.Equal(t, arith.Select, ops[3].Name)
	require.NoError(t, ir.Verify(ctx, rebuilt))
}

func TestRoundTripsAnIfWithThenAndElseRegions(t *testing.T) {
	ctx := newGrammarContext()
	i64 := ctx.IntegerType(64, ir.Signed)
	i1 := ctx.IntegerType(1, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	pred := b.CreateOne(arith.Constant, nil, i1, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: 1, Type: i1}),
	})
	ifOp, then, els := scf.NewIf(ctx, pred, []ir.Type{i64}, true)
	ir.InsertAtEnd(entry, ifOp)

	thenB := ir.NewBuilder(ctx)
	thenB.SetInsertionPointToEnd(then)
	thenVal := thenB.CreateOne(arith.Constant, nil, i64, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: 10, Type: i64}),
	})
	thenB.Create(scf.Yield, []*ir.Value{thenVal}, nil, nil)

	elsB := ir.NewBuilder(ctx)
	elsB.SetInsertionPointToEnd(els)
	elsVal := elsB.CreateOne(arith.Constant, nil, i64, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: 20, Type: i64}),
	})
	elsB.Create(scf.Yield, []*ir.Value{elsVal}, nil, nil)

	rebuilt := roundTrip(t, ctx, mod)
	ops := ir.Body(rebuilt).Entry().Operations()
	require.Len(t, ops, 2)
	ifRebuilt := ops[1]
	assert.Equal(t, scf.If, ifRebuilt.Name)
	require.Len(t, ifRebuilt.Regions(), 2)
	require.Len(t, ifRebuilt.Regions()[0].Entry().Operations(), 2)
	require.Len(t, ifRebuilt.Regions()[1].Entry().Operations(), 2)
	assert.Equal(t, scf.Yield, ifRebuilt.Regions()[0].Entry().Terminator().Name)
	require.NoError(t, ir.Verify(ctx, rebuilt))
}

func TestRoundTripsStringSymbolUnitBoolAndArrayAttributes(t *testing.T) {
	ctx := newGrammarContext()
	i64 := ctx.IntegerType(64, ir.Signed)
	mod := ir.NewModule(ctx)
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(ir.Body(mod).Entry())

	b.Create("test.tagged", nil, nil, map[string]ir.Attribute{
		"name":   ctx.InternAttr(&ir.StringAttr{Value: "hello \"world\""}),
		"target": ctx.InternAttr(&ir.SymbolRefAttr{Name: "some_fn"}),
		"marker": ctx.InternAttr(&ir.UnitAttr{}),
		"flag":   ctx.InternAttr(&ir.BoolAttr{Value: true}),
		"dims": ctx.InternAttr(&ir.ArrayAttr{Elements: []ir.Attribute{
			ctx.InternAttr(&ir.IntegerAttr{Value: 1, Type: i64}),
			ctx.InternAttr(&ir.IntegerAttr{Value: 2, Type: i64}),
		}}),
	})

	rebuilt := roundTrip(t, ctx, mod)
	op := ir.Body(rebuilt).Entry().Operations()[0]
	name, _ := op.Attr("name")
	assert.Equal(t, &ir.StringAttr{Value: "hello \"world\""}, name)
	target, _ := op.Attr("target")
	assert.Equal(t, &ir.SymbolRefAttr{Name: "some_fn"}, target)
	_, hasMarker := op.Attr("marker")
	assert.True(t, hasMarker)
	flag, _ := op.Attr("flag")
	assert.Equal(t, &ir.BoolAttr{Value: true}, flag)
	dims, _ := op.Attr("dims")
	arr, ok := dims.(*ir.ArrayAttr)
	require.True(t, ok)
	require.Len(t, arr.Elements, 2)
}

func TestTypeExprOutsideGrammarScopeFailsToBuild(t *testing.T) {
	ctx := newGrammarContext()
	parsed, err := grammar.Parse(`"arith.constant"() {value = 3 : i64} : () -> memref<f32>` + "\n")
	require.NoError(t, err)
	_, err = grammar.Build(ctx, parsed)
	require.Error(t, err)
}
