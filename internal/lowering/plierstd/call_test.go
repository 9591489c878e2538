package plierstd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/convert"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

func call(b *ir.Builder, callee string, operands []*ir.Value, resultType ir.Type) *ir.Operation {
	return b.Create(plier.Call, operands, []ir.Type{resultType}, map[string]ir.Attribute{
		plier.CalleeAttr: b.Context().InternAttr(&ir.StringAttr{Value: callee}),
	})
}

func jumpMarkers(t *testing.T, mod *ir.Operation) []string {
	t.Helper()
	a, ok := mod.Attr(JumpMarkersAttr)
	if !ok {
		return nil
	}
	arr, ok := a.(*ir.ArrayAttr)
	require.True(t, ok)
	var names []string
	for _, e := range arr.Elements {
		s, ok := e.(*ir.StringAttr)
		require.True(t, ok)
		names = append(names, s.Value)
	}
	return names
}

func TestCallRangeResolvesToRangeOpAndSchedulesJumpMarker(t *testing.T) {
	ctx := newPlierstdContext()
	idx := ctx.IndexType()
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	start := b.CreateOne("test.idx", nil, idx, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.idx"})
	c := call(b, "range", []*ir.Value{start}, idx)
	b.Create("test.use", c.Results(), nil, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})

	runOn(t, ctx, mod, Config{})

	assert.NotNil(t, firstOpOfKind(entry.Operations(), RangeOp))
	assert.Contains(t, jumpMarkers(t, mod), "plier-to-scf")
}

func TestCallLibraryResolverPreservesResultCount(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	a := intConst(b, ctx, 4, i32)
	c := call(b, "my_library.double", []*ir.Value{a}, i32)
	b.Create("test.use", c.Results(), nil, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})

	library := func(rw *convert.Rewriter, callee string, operands []*ir.Value, resultTypes []ir.Type) ([]*ir.Value, bool) {
		if callee != "my_library.double" {
			return nil, false
		}
		doubled := rw.CreateOne("test.double_of", operands, resultTypes[0], nil)
		return []*ir.Value{doubled}, true
	}
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.double_of"})

	runOn(t, ctx, mod, Config{Library: library})

	assert.NotNil(t, firstOpOfKind(entry.Operations(), "test.double_of"))
	assert.Contains(t, jumpMarkers(t, mod), "plier-to-scf")
}

func TestCallExternalResolverDeclaresCalleeAndEmitsFnCall(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	a := intConst(b, ctx, 1, i32)
	c := call(b, "sqrt", []*ir.Value{a}, i32)
	b.Create("test.use", c.Results(), nil, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})

	external := func(callee string, operandTypes []ir.Type) (string, bool) {
		if callee != "sqrt" {
			return "", false
		}
		return "_plier_sqrt_i32", true
	}

	runOn(t, ctx, mod, Config{External: external})

	fnCall := firstOpOfKind(entry.Operations(), fn.Call)
	require.NotNil(t, fnCall)
	assert.Equal(t, "_plier_sqrt_i32", fn.Callee(fnCall))

	decl := ir.Symbols(mod).Lookup("_plier_sqrt_i32")
	require.NotNil(t, decl)
	assert.Equal(t, fn.Func, decl.Name)
}

func TestCallWithNoMatchingTierLeavesModeFullAnError(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)

	a := intConst(b, ctx, 1, i32)
	call(b, "unknown_fn", []*ir.Value{a}, i32)

	err := Run(ctx, mod, Config{})
	require.Error(t, err)
}
