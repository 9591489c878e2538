// Package arith defines the standard scalar-arithmetic op kinds that
// the conversion framework's default materialization table and the
// high-level lowering's operator table both target: integer/float/
// complex arithmetic, comparisons, casts, and constants. Hosting both
// the "arith." and "complex." namespaces in one package mirrors how
// tightly CastUtils.cpp and PlierToStd.cpp couple them in the source —
// splitting them into two Go packages would only add import ceremony
// with no independent reuse benefit.
package arith

import "plierc/internal/ir"

const (
	Constant OpKind = "arith.constant"
	Undef    OpKind = "arith.undef"

	AddI OpKind = "arith.addi"
	SubI OpKind = "arith.subi"
	MulI OpKind = "arith.muli"
	DivSI OpKind = "arith.divsi"
	DivUI OpKind = "arith.divui"
	RemSI OpKind = "arith.remsi"
	RemUI OpKind = "arith.remui"
	AndI OpKind = "arith.andi"
	OrI  OpKind = "arith.ori"
	XorI OpKind = "arith.xori"
	ShLI OpKind = "arith.shli"
	ShRSI OpKind = "arith.shrsi"
	ShRUI OpKind = "arith.shrui"
	CmpI OpKind = "arith.cmpi"
	FloorDivSI OpKind = "arith.floordivsi"
	FloorDivUI OpKind = "arith.floordivui"

	AddF  OpKind = "arith.addf"
	SubF  OpKind = "arith.subf"
	MulF  OpKind = "arith.mulf"
	DivF  OpKind = "arith.divf"
	RemF  OpKind = "arith.remf"
	NegF  OpKind = "arith.negf"
	PowF  OpKind = "arith.powf"
	FloorF OpKind = "arith.floorf"
	CmpF  OpKind = "arith.cmpf"

	SignCast OpKind = "arith.sign_cast"
	ExtSI    OpKind = "arith.extsi"
	ExtUI    OpKind = "arith.extui"
	TruncI   OpKind = "arith.trunci"
	SIToFP   OpKind = "arith.sitofp"
	UIToFP   OpKind = "arith.uitofp"
	FPToSI   OpKind = "arith.fptosi"
	FPToUI   OpKind = "arith.fptoui"
	ExtF     OpKind = "arith.extf"
	TruncF   OpKind = "arith.truncf"
	IndexCast OpKind = "arith.index_cast"

	Select OpKind = "arith.select"

	ComplexCreate OpKind = "complex.create"
	ComplexAdd    OpKind = "complex.add"
	ComplexSub    OpKind = "complex.sub"
	ComplexMul    OpKind = "complex.mul"
	ComplexDiv    OpKind = "complex.div"
	ComplexPow    OpKind = "complex.pow"
	ComplexNeg    OpKind = "complex.neg"
)

// OpKind is a local alias so constant declarations above read cleanly;
// every exported constant is an ir.OpKind.
type OpKind = ir.OpKind

// CmpIPredicate names arith.cmpi's integer comparison kind, carried as
// a "predicate" StringAttr.
type CmpIPredicate string

const (
	CmpIEq  CmpIPredicate = "eq"
	CmpINe  CmpIPredicate = "ne"
	CmpISLT CmpIPredicate = "slt"
	CmpISLE CmpIPredicate = "sle"
	CmpISGT CmpIPredicate = "sgt"
	CmpISGE CmpIPredicate = "sge"
	CmpIULT CmpIPredicate = "ult"
	CmpIULE CmpIPredicate = "ule"
	CmpIUGT CmpIPredicate = "ugt"
	CmpIUGE CmpIPredicate = "uge"
)

// CmpFPredicate names arith.cmpf's ordered float comparison kind.
type CmpFPredicate string

const (
	CmpFOEQ CmpFPredicate = "oeq"
	CmpFONE CmpFPredicate = "one"
	CmpFOLT CmpFPredicate = "olt"
	CmpFOLE CmpFPredicate = "ole"
	CmpFOGT CmpFPredicate = "ogt"
	CmpFOGE CmpFPredicate = "oge"
)

// Register installs every op kind's OpInfo (trait set, fold hook) into
// ctx. Call once per Context before building or rewriting arith IR.
func Register(ctx *ir.Context) {
	pure := func(name OpKind) { ctx.RegisterOpKind(&ir.OpInfo{Name: string(name)}) }

	pure(Constant)
	pure(Undef)

	ctx.RegisterOpKind(&ir.OpInfo{Name: string(AddI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a + b })})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(SubI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a - b })})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(MulI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a * b })})
	pure(DivSI)
	pure(DivUI)
	pure(RemSI)
	pure(RemUI)
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(AndI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a & b })})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(OrI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a | b })})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(XorI), Trait: ir.TraitSameOperandsAndResultType, Fold: foldIntBinary(func(a, b int64) int64 { return a ^ b })})
	pure(ShLI)
	pure(ShRSI)
	pure(ShRUI)
	pure(CmpI)
	pure(FloorDivSI)
	pure(FloorDivUI)

	pure(AddF)
	pure(SubF)
	pure(MulF)
	pure(DivF)
	pure(RemF)
	pure(NegF)
	pure(PowF)
	pure(FloorF)
	pure(CmpF)

	pure(SignCast)
	pure(ExtSI)
	pure(ExtUI)
	pure(TruncI)
	pure(SIToFP)
	pure(UIToFP)
	pure(FPToSI)
	pure(FPToUI)
	pure(ExtF)
	pure(TruncF)
	pure(IndexCast)

	pure(Select)

	pure(ComplexCreate)
	pure(ComplexAdd)
	pure(ComplexSub)
	pure(ComplexMul)
	pure(ComplexDiv)
	pure(ComplexPow)
	pure(ComplexNeg)
}

// OpKinds lists every op kind this package defines, for callers (such
// as a ConversionTarget) that need to mark the whole dialect legal at
// once rather than naming each kind individually.
func OpKinds() []OpKind {
	return []OpKind{
		Constant, Undef,
		AddI, SubI, MulI, DivSI, DivUI, RemSI, RemUI, AndI, OrI, XorI,
		ShLI, ShRSI, ShRUI, CmpI, FloorDivSI, FloorDivUI,
		AddF, SubF, MulF, DivF, RemF, NegF, PowF, FloorF, CmpF,
		SignCast, ExtSI, ExtUI, TruncI, SIToFP, UIToFP, FPToSI, FPToUI,
		ExtF, TruncF, IndexCast,
		Select,
		ComplexCreate, ComplexAdd, ComplexSub, ComplexMul, ComplexDiv, ComplexPow, ComplexNeg,
	}
}

// foldIntBinary builds a Fold hook for a signless-integer binary op
// whose both operands are arith.constant, generalizing the teacher's
// ConstantFolding.computeBinaryOp (internal/ir/optimizations.go) from a
// closed EVM opcode switch to one reusable closure per arith op.
func foldIntBinary(compute func(a, b int64) int64) func(ctx *ir.Context, op *ir.Operation) []*ir.Value {
	return func(ctx *ir.Context, op *ir.Operation) []*ir.Value {
		lhs, lok := constInt(op.Operand(0))
		rhs, rok := constInt(op.Operand(1))
		if !lok || !rok {
			return nil
		}
		result := compute(lhs, rhs)
		resultType := op.Result(0).Type()
		// The fold hook has no Rewriter to insert through; it reports
		// the computed value as a synthesized, detached constant. The
		// pattern driver inserts that constant before op and then
		// redirects op's uses to it via ReplaceAllUsesWith.
		folded := ir.NewOp(ctx, Constant, nil, []ir.Type{resultType}, map[string]ir.Attribute{
			"value": ctx.InternAttr(&ir.IntegerAttr{Value: result, Type: resultType}),
		})
		return []*ir.Value{folded.Result(0)}
	}
}

func constInt(v *ir.Value) (int64, bool) {
	if v.IsBlockArgument() {
		return 0, false
	}
	def := v.DefiningOp()
	if def.Name != Constant {
		return 0, false
	}
	a, ok := def.Attr("value")
	if !ok {
		return 0, false
	}
	ia, ok := a.(*ir.IntegerAttr)
	if !ok {
		return 0, false
	}
	return ia.Value, true
}
