package plierstd

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// ConstPattern lowers plier.const (spec.md §4.5 "Constants"): an
// ordinary literal becomes a signless arith.constant sign-cast to its
// declared type when that type isn't already signless; a None literal
// or a TypeVarAttr literal becomes an arith.undef of the declared
// result type. Grounded on PlierToStd.cpp's ConstOpLowering and
// LiteralLowering.
type ConstPattern struct{}

func (ConstPattern) RootKind() ir.OpKind { return plier.Const }
func (ConstPattern) Benefit() int        { return 1 }

func (ConstPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	resultType := op.Result(0).Type()
	valueAttr, hasValue := op.Attr(plier.ValueAttr)

	if !hasValue || isUndefLiteral(valueAttr) {
		result := rw.CreateOne(arith.Undef, nil, resultType, nil)
		rw.ReplaceOp(op, []*ir.Value{result})
		return true, nil
	}

	ctx := rw.Context()
	it, isInt := resultType.(*ir.IntegerType)
	if isInt && !it.IsSignless() {
		signless := convert.MakeSignless(ctx, it)
		lit, err := literalFor(ctx, valueAttr, signless)
		if err != nil {
			return false, err
		}
		c := rw.CreateOne(arith.Constant, nil, signless, map[string]ir.Attribute{plier.ValueAttr: lit})
		result := rw.ConvertOperand(c, resultType)
		rw.ReplaceOp(op, []*ir.Value{result})
		return true, nil
	}

	lit, err := literalFor(ctx, valueAttr, resultType)
	if err != nil {
		return false, err
	}
	c := rw.CreateOne(arith.Constant, nil, resultType, map[string]ir.Attribute{plier.ValueAttr: lit})
	rw.ReplaceOp(op, []*ir.Value{c})
	return true, nil
}

// UndefPattern lowers plier.undef directly to arith.undef of the same
// result type, mirroring UndefOpLowering.
type UndefPattern struct{}

func (UndefPattern) RootKind() ir.OpKind { return plier.Undef }
func (UndefPattern) Benefit() int        { return 1 }

func (UndefPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	result := rw.CreateOne(arith.Undef, nil, op.Result(0).Type(), nil)
	rw.ReplaceOp(op, []*ir.Value{result})
	return true, nil
}

func isUndefLiteral(a ir.Attribute) bool {
	switch a.(type) {
	case *ir.UnitAttr, plier.TypeVarAttr:
		return true
	default:
		return false
	}
}

// literalFor rebuilds valueAttr against target's concrete (usually
// signless) type, following whichever literal kind the front end
// produced.
func literalFor(ctx *ir.Context, valueAttr ir.Attribute, target ir.Type) (ir.Attribute, error) {
	switch a := valueAttr.(type) {
	case *ir.IntegerAttr:
		return ctx.InternAttr(&ir.IntegerAttr{Value: a.Value, Type: target}), nil
	case *ir.FloatAttr:
		return ctx.InternAttr(&ir.FloatAttr{Value: a.Value, Type: target}), nil
	case *ir.BoolAttr:
		v := int64(0)
		if a.Value {
			v = 1
		}
		return ctx.InternAttr(&ir.IntegerAttr{Value: v, Type: target}), nil
	default:
		return nil, fmt.Errorf("plierstd: unsupported constant literal %s for type %s", valueAttr, target)
	}
}
