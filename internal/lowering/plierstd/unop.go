package plierstd

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// UnOpPattern lowers plier.unop per spec.md §4.5: `+` is identity, `-`
// negates, `not` compares to zero, `~` XORs with all-ones (zero-
// extending a bool operand to 64 bits first). Grounded on
// PlierToStd.cpp's unaryPlus/negate/unaryNot/unaryInvert.
type UnOpPattern struct{}

func (UnOpPattern) RootKind() ir.OpKind { return plier.UnOp }
func (UnOpPattern) Benefit() int        { return 1 }

func (UnOpPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	operator := operatorOf(op)
	arg := op.Operand(0)
	resultType := op.Result(0).Type()

	var result *ir.Value
	var err error
	switch operator {
	case "+":
		result = rw.ConvertOperand(arg, resultType)
	case "-":
		result, err = negate(rw, arg, resultType)
	case "not":
		result, err = unaryNot(rw, arg)
	case "~":
		result, err = unaryInvert(rw, arg, resultType)
	default:
		return false, fmt.Errorf("plierstd: unsupported unary operator %q", operator)
	}
	if err != nil {
		return false, err
	}
	rw.ReplaceOp(op, []*ir.Value{result})
	return true, nil
}

func negate(rw *convert.Rewriter, arg *ir.Value, resultType ir.Type) (*ir.Value, error) {
	ctx := rw.Context()
	val := rw.ConvertOperand(arg, resultType)
	switch t := resultType.(type) {
	case *ir.IntegerType:
		signless := convert.MakeSignless(ctx, t)
		val = rw.ConvertOperand(val, signless)
		zero := rw.CreateOne(arith.Constant, nil, signless, map[string]ir.Attribute{
			"value": ctx.InternAttr(&ir.IntegerAttr{Value: 0, Type: signless}),
		})
		res := rw.CreateOne(arith.SubI, []*ir.Value{zero, val}, signless, nil)
		return rw.ConvertOperand(res, resultType), nil
	case *ir.FloatType:
		return rw.CreateOne(arith.NegF, []*ir.Value{val}, resultType, nil), nil
	case *ir.ComplexType:
		return rw.CreateOne(arith.ComplexNeg, []*ir.Value{val}, resultType, nil), nil
	default:
		return nil, fmt.Errorf("plierstd: unary \"-\" has unsupported type %s", resultType)
	}
}

// unaryNot implements "not -> compare-to-zero": cast to i1, then
// compare equal to a zero of the same width the cast landed on.
func unaryNot(rw *convert.Rewriter, arg *ir.Value) (*ir.Value, error) {
	ctx := rw.Context()
	i1 := ctx.IntegerType(1, ir.Signless)
	casted := rw.ConvertOperand(arg, i1)
	zero := rw.CreateOne(arith.Constant, nil, i1, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: 0, Type: i1}),
	})
	return rw.CreateOne(arith.CmpI, []*ir.Value{casted, zero}, i1, map[string]ir.Attribute{
		"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(arith.CmpIEq)}),
	}), nil
}

// unaryInvert implements "~ -> XOR with all-ones", zero-extending a
// bool operand to 64 bits first (spec.md §4.5's explicitly carried-
// forward quirk).
func unaryInvert(rw *convert.Rewriter, arg *ir.Value, resultType ir.Type) (*ir.Value, error) {
	ctx := rw.Context()
	srcType, ok := arg.Type().(*ir.IntegerType)
	if !ok {
		return nil, fmt.Errorf("plierstd: unary \"~\" requires an integer operand, got %s", arg.Type())
	}
	val := arg
	var signless ir.Type
	if srcType.Width == 1 {
		signless = ctx.IntegerType(64, ir.Signless)
		val = rw.CreateOne(arith.ExtUI, []*ir.Value{val}, signless, nil)
	} else {
		signless = convert.MakeSignless(ctx, srcType)
		val = rw.ConvertOperand(val, signless)
	}
	allOnes := rw.CreateOne(arith.Constant, nil, signless, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: -1, Type: signless}),
	})
	res := rw.CreateOne(arith.XorI, []*ir.Value{allOnes, val}, signless, nil)
	return rw.ConvertOperand(res, resultType), nil
}
