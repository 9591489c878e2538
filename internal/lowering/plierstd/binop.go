package plierstd

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// BinOpPattern lowers plier.binop to arith/complex arithmetic following
// the coercion rule and operator table of spec.md §4.5, grounded on
// PlierToStd.cpp's BinOpLowering (scalar case) and BinOpTupleLowering
// (tuple `+` concatenation case).
type BinOpPattern struct{}

func (BinOpPattern) RootKind() ir.OpKind { return plier.BinOp }
func (BinOpPattern) Benefit() int        { return 1 }

func (BinOpPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	operator := operatorOf(op)
	lhs, rhs := op.Operand(0), op.Operand(1)

	if lt, ok := lhs.Type().(*ir.TupleType); ok && operator == "+" {
		rt, ok := rhs.Type().(*ir.TupleType)
		if !ok {
			return false, fmt.Errorf("plierstd: %q requires both binop operands to be tuples", operator)
		}
		result := concatTuples(rw, lt, rt, lhs, rhs)
		rw.ReplaceOp(op, []*ir.Value{result})
		return true, nil
	}

	finalType := coerce(lhs.Type(), rhs.Type())
	l := rw.ConvertOperand(lhs, finalType)
	r := rw.ConvertOperand(rhs, finalType)

	result, err := buildBinOp(rw, operator, finalType, l, r)
	if err != nil {
		return false, err
	}
	result = rw.ConvertOperand(result, op.Result(0).Type())
	rw.ReplaceOp(op, []*ir.Value{result})
	return true, nil
}

func operatorOf(op *ir.Operation) string {
	a, ok := op.Attr(plier.OperatorAttr)
	if !ok {
		return ""
	}
	s, ok := a.(*ir.StringAttr)
	if !ok {
		return ""
	}
	return s.Value
}

// concatTuples builds the element-by-element tuple concatenation of
// spec.md §4.5's "Tuple handling": extract every element of both
// operands via plier.getitem-style indexing and rebuild a wider tuple,
// mirroring BinOpTupleLowering's numba::util::TupleExtractOp loop.
func concatTuples(rw *convert.Rewriter, lt, rt *ir.TupleType, lhs, rhs *ir.Value) *ir.Value {
	ctx := rw.Context()
	elems := make([]ir.Type, 0, len(lt.Elements)+len(rt.Elements))
	elems = append(elems, lt.Elements...)
	elems = append(elems, rt.Elements...)

	args := make([]*ir.Value, 0, len(elems))
	for i, t := range lt.Elements {
		args = append(args, extractTupleElem(rw, lhs, i, t))
	}
	for i, t := range rt.Elements {
		args = append(args, extractTupleElem(rw, rhs, i, t))
	}
	return rw.CreateOne(TupleBuild, args, ctx.TupleType(elems...), nil)
}

func extractTupleElem(rw *convert.Rewriter, tuple *ir.Value, index int, elemType ir.Type) *ir.Value {
	ctx := rw.Context()
	return rw.CreateOne(TupleExtract, []*ir.Value{tuple}, elemType, map[string]ir.Attribute{
		plier.IndexAttr: ctx.InternAttr(&ir.IntegerAttr{Value: int64(index), Type: ctx.IntegerType(64, ir.Signless)}),
	})
}

// buildBinOp dispatches operator over finalType's numeric category,
// mirroring BinOpLowering's per-operator {iop, fop, cop} handler table.
func buildBinOp(rw *convert.Rewriter, operator string, finalType ir.Type, l, r *ir.Value) (*ir.Value, error) {
	switch {
	case isIntType(finalType):
		return buildIntBinOp(rw, operator, finalType.(*ir.IntegerType), l, r)
	case isFloatType(finalType):
		return buildFloatBinOp(rw, operator, finalType.(*ir.FloatType), l, r)
	case isComplexType(finalType):
		return buildComplexBinOp(rw, operator, finalType.(*ir.ComplexType), l, r)
	default:
		return nil, fmt.Errorf("plierstd: binop %q has unsupported result type %s", operator, finalType)
	}
}

func buildIntBinOp(rw *convert.Rewriter, operator string, t *ir.IntegerType, l, r *ir.Value) (*ir.Value, error) {
	ctx := rw.Context()
	signless := convert.MakeSignless(ctx, t)
	l = rw.ConvertOperand(l, signless)
	r = rw.ConvertOperand(r, signless)

	switch operator {
	case "+":
		return rw.CreateOne(arith.AddI, []*ir.Value{l, r}, signless, nil), nil
	case "-":
		return rw.CreateOne(arith.SubI, []*ir.Value{l, r}, signless, nil), nil
	case "*":
		return rw.CreateOne(arith.MulI, []*ir.Value{l, r}, signless, nil), nil
	case "**":
		return buildIPow(rw, t, l, r)
	case "/":
		return buildITrueDiv(rw, t, l, r)
	case "//":
		if t.Signedness == ir.Signed {
			return rw.CreateOne(arith.FloorDivSI, []*ir.Value{l, r}, signless, nil), nil
		}
		return rw.CreateOne(arith.DivUI, []*ir.Value{l, r}, signless, nil), nil
	case "%":
		return buildIMod(rw, signless, l, r)
	case "&":
		return rw.CreateOne(arith.AndI, []*ir.Value{l, r}, signless, nil), nil
	case "|":
		return rw.CreateOne(arith.OrI, []*ir.Value{l, r}, signless, nil), nil
	case "^":
		return rw.CreateOne(arith.XorI, []*ir.Value{l, r}, signless, nil), nil
	case "<<":
		return rw.CreateOne(arith.ShLI, []*ir.Value{l, r}, signless, nil), nil
	case ">>":
		if t.Signedness == ir.Unsigned {
			return rw.CreateOne(arith.ShRUI, []*ir.Value{l, r}, signless, nil), nil
		}
		return rw.CreateOne(arith.ShRSI, []*ir.Value{l, r}, signless, nil), nil
	case ">", ">=", "<", "<=", "==", "!=":
		return rw.CreateOne(arith.CmpI, []*ir.Value{l, r}, ctx.IntegerType(1, ir.Signless), map[string]ir.Attribute{
			"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(cmpIPredicate(operator, t.Signedness == ir.Signed))}),
		}), nil
	default:
		return nil, fmt.Errorf("plierstd: unsupported integer operator %q", operator)
	}
}

func cmpIPredicate(operator string, signed bool) arith.CmpIPredicate {
	switch operator {
	case ">":
		if signed {
			return arith.CmpISGT
		}
		return arith.CmpIUGT
	case ">=":
		if signed {
			return arith.CmpISGE
		}
		return arith.CmpIUGE
	case "<":
		if signed {
			return arith.CmpISLT
		}
		return arith.CmpIULT
	case "<=":
		if signed {
			return arith.CmpISLE
		}
		return arith.CmpIULE
	case "==":
		return arith.CmpIEq
	default: // "!="
		return arith.CmpINe
	}
}

// buildIPow converts both operands to f64, calls arith.PowF, and casts
// the result back (spec.md §4.5 "**: convert both to f64, powf, cast
// back").
func buildIPow(rw *convert.Rewriter, t *ir.IntegerType, l, r *ir.Value) (*ir.Value, error) {
	ctx := rw.Context()
	f64 := ctx.FloatType(64)
	a := rw.ConvertOperand(l, f64)
	b := rw.ConvertOperand(r, f64)
	pow := rw.CreateOne(arith.PowF, []*ir.Value{a, b}, f64, nil)
	return rw.ConvertOperand(pow, t), nil
}

func buildITrueDiv(rw *convert.Rewriter, t *ir.IntegerType, l, r *ir.Value) (*ir.Value, error) {
	f := rw.Context().FloatType(64)
	a := rw.ConvertOperand(l, f)
	b := rw.ConvertOperand(r, f)
	return rw.CreateOne(arith.DivF, []*ir.Value{a, b}, f, nil), nil
}

// buildIMod implements spec.md §4.5's "((a rem b) + b) rem b" Python
// modulo semantics, always over RemSI regardless of signedness (mirrors
// PlierToStd.cpp's replaceImodOp).
func buildIMod(rw *convert.Rewriter, signless ir.Type, l, r *ir.Value) (*ir.Value, error) {
	v1 := rw.CreateOne(arith.RemSI, []*ir.Value{l, r}, signless, nil)
	v2 := rw.CreateOne(arith.AddI, []*ir.Value{v1, r}, signless, nil)
	return rw.CreateOne(arith.RemSI, []*ir.Value{v2, r}, signless, nil), nil
}

func buildFloatBinOp(rw *convert.Rewriter, operator string, t *ir.FloatType, l, r *ir.Value) (*ir.Value, error) {
	ctx := rw.Context()
	switch operator {
	case "+":
		return rw.CreateOne(arith.AddF, []*ir.Value{l, r}, t, nil), nil
	case "-":
		return rw.CreateOne(arith.SubF, []*ir.Value{l, r}, t, nil), nil
	case "*":
		return rw.CreateOne(arith.MulF, []*ir.Value{l, r}, t, nil), nil
	case "**":
		return rw.CreateOne(arith.PowF, []*ir.Value{l, r}, t, nil), nil
	case "/":
		return rw.CreateOne(arith.DivF, []*ir.Value{l, r}, t, nil), nil
	case "//":
		div := rw.CreateOne(arith.DivF, []*ir.Value{l, r}, t, nil)
		return rw.CreateOne(arith.FloorF, []*ir.Value{div}, t, nil), nil
	case "%":
		v1 := rw.CreateOne(arith.RemF, []*ir.Value{l, r}, t, nil)
		v2 := rw.CreateOne(arith.AddF, []*ir.Value{v1, r}, t, nil)
		return rw.CreateOne(arith.RemF, []*ir.Value{v2, r}, t, nil), nil
	case ">", ">=", "<", "<=", "==", "!=":
		return rw.CreateOne(arith.CmpF, []*ir.Value{l, r}, ctx.IntegerType(1, ir.Signless), map[string]ir.Attribute{
			"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(cmpFPredicate(operator))}),
		}), nil
	default:
		return nil, fmt.Errorf("plierstd: unsupported float operator %q", operator)
	}
}

func cmpFPredicate(operator string) arith.CmpFPredicate {
	switch operator {
	case ">":
		return arith.CmpFOGT
	case ">=":
		return arith.CmpFOGE
	case "<":
		return arith.CmpFOLT
	case "<=":
		return arith.CmpFOLE
	case "==":
		return arith.CmpFOEQ
	default: // "!="
		return arith.CmpFONE
	}
}

func buildComplexBinOp(rw *convert.Rewriter, operator string, t *ir.ComplexType, l, r *ir.Value) (*ir.Value, error) {
	switch operator {
	case "+":
		return rw.CreateOne(arith.ComplexAdd, []*ir.Value{l, r}, t, nil), nil
	case "-":
		return rw.CreateOne(arith.ComplexSub, []*ir.Value{l, r}, t, nil), nil
	case "*":
		return rw.CreateOne(arith.ComplexMul, []*ir.Value{l, r}, t, nil), nil
	case "**":
		return rw.CreateOne(arith.ComplexPow, []*ir.Value{l, r}, t, nil), nil
	case "/":
		return rw.CreateOne(arith.ComplexDiv, []*ir.Value{l, r}, t, nil), nil
	default:
		return nil, fmt.Errorf("plierstd: operator %q is invalid on complex operands", operator)
	}
}
