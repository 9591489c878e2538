package plierstd

import (
	"math"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// GlobalResolver resolves a plier.global load that isn't one of the
// hard-coded names GlobalPattern already knows, letting a caller wire
// in module-level constants its own front end defines. It returns
// ok=false to decline, leaving the op illegal.
type GlobalResolver func(rw *convert.Rewriter, name string, resultType ir.Type) (*ir.Value, bool)

// GlobalPattern lowers plier.global, mirroring LowerGlobals: a small
// hard-coded table of well-known names (math.pi, math.e) is tried
// first, then Resolver (if set) for anything else.
type GlobalPattern struct {
	Resolver GlobalResolver
}

func (GlobalPattern) RootKind() ir.OpKind { return plier.Global }
func (GlobalPattern) Benefit() int        { return 1 }

func (p GlobalPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	a, ok := op.Attr(plier.NameAttr)
	if !ok {
		return false, nil
	}
	name, ok := a.(*ir.StringAttr)
	if !ok {
		return false, nil
	}

	resultType := op.Result(0).Type()
	if v := lowerWellKnownGlobal(rw, name.Value, resultType); v != nil {
		rw.ReplaceOp(op, []*ir.Value{v})
		return true, nil
	}

	if p.Resolver != nil {
		if v, ok := p.Resolver(rw, name.Value, resultType); ok {
			rw.ReplaceOp(op, []*ir.Value{v})
			return true, nil
		}
	}
	return false, nil
}

func lowerWellKnownGlobal(rw *convert.Rewriter, name string, resultType ir.Type) *ir.Value {
	var value float64
	switch name {
	case "math.pi":
		value = math.Pi
	case "math.e":
		value = math.E
	default:
		return nil
	}
	ctx := rw.Context()
	f64 := ctx.FloatType(64)
	c := rw.CreateOne(arith.Constant, nil, f64, map[string]ir.Attribute{
		plier.ValueAttr: ctx.InternAttr(&ir.FloatAttr{Value: value, Type: f64}),
	})
	return rw.ConvertOperand(c, resultType)
}
