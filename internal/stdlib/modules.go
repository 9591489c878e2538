// Package stdlib is the tier-2 library call resolver that
// plierstd.CallPattern consults before falling through to the tier-3
// external-symbol resolver (spec.md §4.5). It is a small, closed table
// of numeric functions lowered directly to arith IR rather than linked
// in from a native object, mirroring how PlierToStd.cpp's
// NumpyCallLowering/registerLowering resolves a fixed set of math
// builtins before anything reaches the external-call path.
package stdlib

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/ir"
	"plierc/internal/lowering/plierstd"
)

// Function lowers one library call's operands directly into arith IR.
// Arity is checked by the caller so Lower never sees a wrong operand
// count.
type Function struct {
	Name  string
	Arity int
	Lower func(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error)
}

// Library is a named table of Functions, analogous to the teacher's
// ModuleDefinition grouping of a standard-library module's exported
// functions — except each entry here carries executable lowering code
// instead of a bare signature, since this module's "standard library"
// is resolved at compile time rather than looked up by a type checker.
type Library struct {
	Name      string
	Functions map[string]Function
}

func newLibrary(name string, fns ...Function) *Library {
	lib := &Library{Name: name, Functions: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		lib.Functions[fn.Name] = fn
	}
	return lib
}

// NewMathLibrary returns the default numeric Library: the handful of
// unary/binary math functions a reference front end's call expressions
// can resolve to without ever reaching a linked native symbol.
func NewMathLibrary() *Library {
	return newLibrary("math",
		Function{Name: "abs", Arity: 1, Lower: lowerAbs},
		Function{Name: "min", Arity: 2, Lower: lowerMin},
		Function{Name: "max", Arity: 2, Lower: lowerMax},
		Function{Name: "pow", Arity: 2, Lower: lowerPow},
		Function{Name: "sqrt", Arity: 1, Lower: lowerSqrt},
		Function{Name: "floor", Arity: 1, Lower: lowerFloor},
		Function{Name: "len", Arity: 1, Lower: lowerLen},
	)
}

// Resolver adapts lib to plierstd.LibraryResolver's shape: declining
// (ok=false) whenever callee is unknown, its arity doesn't match, or
// the call isn't single-result, so CallPattern falls through to the
// external resolver exactly as it would for a name this library never
// heard of.
func (lib *Library) Resolver() plierstd.LibraryResolver {
	return func(rw *convert.Rewriter, callee string, operands []*ir.Value, resultTypes []ir.Type) ([]*ir.Value, bool) {
		fn, ok := lib.Functions[callee]
		if !ok || len(operands) != fn.Arity || len(resultTypes) != 1 {
			return nil, false
		}
		result, err := fn.Lower(rw, operands, resultTypes[0])
		if err != nil {
			return nil, false
		}
		return []*ir.Value{result}, true
	}
}

func asFloat(rw *convert.Rewriter, v *ir.Value) *ir.Value {
	if _, ok := v.Type().(*ir.FloatType); ok {
		return v
	}
	return rw.ConvertOperand(v, rw.Context().FloatType(64))
}

// lowerAbs builds |x| as a compare-and-select rather than relying on a
// dedicated arith.absf/absi op, since arith.go defines none: cmp x
// against zero, then select x or its negation.
func lowerAbs(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
	x := rw.ConvertOperand(args[0], resultType)
	if ft, ok := resultType.(*ir.FloatType); ok {
		zero := rw.CreateOne(arith.Constant, nil, ft, map[string]ir.Attribute{
			"value": rw.Context().InternAttr(&ir.FloatAttr{Value: 0, Type: ft}),
		})
		neg := rw.CreateOne(arith.NegF, []*ir.Value{x}, ft, nil)
		cond := rw.CreateOne(arith.CmpF, []*ir.Value{x, zero}, rw.Context().IntegerType(1, ir.Signless), map[string]ir.Attribute{
			"predicate": rw.Context().InternAttr(&ir.StringAttr{Value: string(arith.CmpFOGE)}),
		})
		return rw.CreateOne(arith.Select, []*ir.Value{cond, x, neg}, ft, nil), nil
	}
	it, ok := resultType.(*ir.IntegerType)
	if !ok {
		return nil, fmt.Errorf("stdlib: abs needs an integer or float result, got %s", resultType)
	}
	zero := rw.CreateOne(arith.Constant, nil, it, map[string]ir.Attribute{
		"value": rw.Context().InternAttr(&ir.IntegerAttr{Value: 0, Type: it}),
	})
	neg := rw.CreateOne(arith.SubI, []*ir.Value{zero, x}, it, nil)
	cond := rw.CreateOne(arith.CmpI, []*ir.Value{x, zero}, rw.Context().IntegerType(1, ir.Signless), map[string]ir.Attribute{
		"predicate": rw.Context().InternAttr(&ir.StringAttr{Value: string(arith.CmpISGE)}),
	})
	return rw.CreateOne(arith.Select, []*ir.Value{cond, x, neg}, it, nil), nil
}

func lowerMinMax(predI arith.CmpIPredicate, predF arith.CmpFPredicate) func(*convert.Rewriter, []*ir.Value, ir.Type) (*ir.Value, error) {
	return func(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
		a := rw.ConvertOperand(args[0], resultType)
		b := rw.ConvertOperand(args[1], resultType)
		if ft, ok := resultType.(*ir.FloatType); ok {
			cond := rw.CreateOne(arith.CmpF, []*ir.Value{a, b}, rw.Context().IntegerType(1, ir.Signless), map[string]ir.Attribute{
				"predicate": rw.Context().InternAttr(&ir.StringAttr{Value: string(predF)}),
			})
			return rw.CreateOne(arith.Select, []*ir.Value{cond, a, b}, ft, nil), nil
		}
		it, ok := resultType.(*ir.IntegerType)
		if !ok {
			return nil, fmt.Errorf("stdlib: expected an integer or float result, got %s", resultType)
		}
		cond := rw.CreateOne(arith.CmpI, []*ir.Value{a, b}, rw.Context().IntegerType(1, ir.Signless), map[string]ir.Attribute{
			"predicate": rw.Context().InternAttr(&ir.StringAttr{Value: string(predI)}),
		})
		return rw.CreateOne(arith.Select, []*ir.Value{cond, a, b}, it, nil), nil
	}
}

var (
	lowerMin = lowerMinMax(arith.CmpISLE, arith.CmpFOLE)
	lowerMax = lowerMinMax(arith.CmpISGE, arith.CmpFOGE)
)

func lowerPow(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
	ft, ok := resultType.(*ir.FloatType)
	if !ok {
		return nil, fmt.Errorf("stdlib: pow needs a float result, got %s", resultType)
	}
	base := asFloat(rw, args[0])
	base = rw.ConvertOperand(base, ft)
	exp := asFloat(rw, args[1])
	exp = rw.ConvertOperand(exp, ft)
	return rw.CreateOne(arith.PowF, []*ir.Value{base, exp}, ft, nil), nil
}

func lowerSqrt(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
	ft, ok := resultType.(*ir.FloatType)
	if !ok {
		return nil, fmt.Errorf("stdlib: sqrt needs a float result, got %s", resultType)
	}
	x := rw.ConvertOperand(asFloat(rw, args[0]), ft)
	half := rw.CreateOne(arith.Constant, nil, ft, map[string]ir.Attribute{
		"value": rw.Context().InternAttr(&ir.FloatAttr{Value: 0.5, Type: ft}),
	})
	return rw.CreateOne(arith.PowF, []*ir.Value{x, half}, ft, nil), nil
}

func lowerFloor(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
	ft, ok := resultType.(*ir.FloatType)
	if !ok {
		return nil, fmt.Errorf("stdlib: floor needs a float result, got %s", resultType)
	}
	x := rw.ConvertOperand(asFloat(rw, args[0]), ft)
	return rw.CreateOne(arith.FloorF, []*ir.Value{x}, ft, nil), nil
}

// lowerLen resolves a tuple's element count, which this module knows
// statically from its TupleType rather than by emitting any op.
func lowerLen(rw *convert.Rewriter, args []*ir.Value, resultType ir.Type) (*ir.Value, error) {
	tt, ok := args[0].Type().(*ir.TupleType)
	if !ok {
		return nil, fmt.Errorf("stdlib: len needs a tuple operand, got %s", args[0].Type())
	}
	it, ok := resultType.(*ir.IntegerType)
	if !ok {
		return nil, fmt.Errorf("stdlib: len needs an integer result, got %s", resultType)
	}
	return rw.CreateOne(arith.Constant, nil, it, map[string]ir.Attribute{
		"value": rw.Context().InternAttr(&ir.IntegerAttr{Value: int64(len(tt.Elements)), Type: it}),
	}), nil
}
