package plierstd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

func global(b *ir.Builder, name string, resultType ir.Type) *ir.Value {
	return b.CreateOne(plier.Global, nil, resultType, map[string]ir.Attribute{
		plier.NameAttr: b.Context().InternAttr(&ir.StringAttr{Value: name}),
	})
}

func TestGlobalMathPiLowersToFloatConstant(t *testing.T) {
	ctx := newPlierstdContext()
	f64 := ctx.FloatType(64)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	g := global(b, "math.pi", f64)
	b.Create("test.use", []*ir.Value{g}, nil, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})

	runOn(t, ctx, mod, Config{})

	cst := firstOpOfKind(entry.Operations(), arith.Constant)
	require.NotNil(t, cst)
	v, ok := cst.Attr("value")
	require.True(t, ok)
	assert.InDelta(t, 3.14159265, v.(*ir.FloatAttr).Value, 1e-6)
}

func TestGlobalFallsThroughToResolver(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	g := global(b, "MAX_WIDGETS", i32)
	b.Create("test.use", []*ir.Value{g}, nil, nil)
	ctx.RegisterOpKind(&ir.OpInfo{Name: "test.use"})

	resolved := false
	resolver := func(rw *convert.Rewriter, name string, resultType ir.Type) (*ir.Value, bool) {
		if name != "MAX_WIDGETS" {
			return nil, false
		}
		resolved = true
		return rw.CreateOne(arith.Constant, nil, resultType, map[string]ir.Attribute{
			"value": rw.Context().InternAttr(&ir.IntegerAttr{Value: 64, Type: resultType}),
		}), true
	}

	runOn(t, ctx, mod, Config{Global: resolver})

	assert.True(t, resolved)
	cst := firstOpOfKind(entry.Operations(), arith.Constant)
	require.NotNil(t, cst)
}

func TestUnknownGlobalWithNoResolverStaysIllegal(t *testing.T) {
	ctx := newPlierstdContext()
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	global(b, "mystery", i32)

	err := Run(ctx, mod, Config{})
	require.Error(t, err)
}
