package frontend

import (
	"fmt"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

// comparisonOps is the subset of BinExpr.Op spellings plierstd's
// BinOpPattern lowers to a CmpI/CmpF rather than an arithmetic op; a
// plier.binop with one of these must declare an i1 result up front,
// since the front end has no later type-inference pass to fix it up.
var comparisonOps = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
}

// Lower builds a builtin.module from a parsed Module: every function
// becomes a func.func carrying a plier-dialect body, and every value
// this front end can't resolve a real Python type for — every integer
// literal, every plain variable — is assigned a uniform signed i64,
// skipping numba's real type-inference pass (genuinely out of scope
// for a reference ingester; see SPEC_FULL.md). Float literals get a
// uniform f64; comparisons always produce i1. Grounded on
// Lowering.cpp's expression-by-expression descent into plier ops, and
// on internal/inline/inline.go's manual scf.Yield construction for the
// structured if/else lowering below.
func Lower(ctx *ir.Context, astMod *Module) (*ir.Operation, error) {
	mod := ir.NewModule(ctx)
	for _, fdef := range astMod.Funcs {
		f, err := lowerFunc(ctx, fdef)
		if err != nil {
			return nil, fmt.Errorf("frontend: function %q: %w", fdef.Name, err)
		}
		ir.InsertAtEnd(ir.Body(mod).Entry(), f)
	}
	return mod, nil
}

func lowerFunc(ctx *ir.Context, fdef *FuncDef) (*ir.Operation, error) {
	i64 := ctx.IntegerType(64, ir.Signed)
	argTypes := make([]ir.Type, len(fdef.Params))
	for i := range fdef.Params {
		argTypes[i] = i64
	}
	f := fn.NewFunc(ctx, fdef.Name, argTypes, []ir.Type{i64})
	entry := f.Regions()[0].Entry()

	scope := make(map[string]*ir.Value, len(fdef.Params))
	for i, name := range fdef.Params {
		scope[name] = entry.Arg(i)
	}

	l := &funcLowerer{ctx: ctx, retType: i64}
	returned, err := l.lowerBlock(entry, fdef.Body, scope)
	if err != nil {
		return nil, err
	}
	if !returned {
		// A body falling off the end without a return has no Python value
		// to report; synthesize a zero so the op still matches its
		// declared single-i64-result signature.
		zero := l.builderAt(entry).CreateOne(plier.Const, nil, i64, map[string]ir.Attribute{
			plier.ValueAttr: ctx.InternAttr(&ir.IntegerAttr{Value: 0, Type: i64}),
		})
		l.builderAt(entry).Create(fn.Return, []*ir.Value{zero}, nil, nil)
	}
	return f, nil
}

// funcLowerer holds the per-function constants every block-lowering
// call needs; scope, by contrast, is threaded explicitly since each
// if/else branch must see and extend its own copy.
type funcLowerer struct {
	ctx     *ir.Context
	retType ir.Type
}

func (l *funcLowerer) builderAt(blk *ir.Block) *ir.Builder {
	b := ir.NewBuilder(l.ctx)
	b.SetInsertionPointToEnd(blk)
	return b
}

// lowerBlock emits stmts at the end of blk against scope, mutating
// scope in place as assignments are seen. It returns true if a return
// was emitted (a plain ReturnStmt, or an IfStmt whose branches both
// return), in which case any statements after it are unreachable and
// are not lowered.
func (l *funcLowerer) lowerBlock(blk *ir.Block, stmts []Stmt, scope map[string]*ir.Value) (bool, error) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *AssignStmt:
			v, err := l.emitExpr(blk, s.Value, scope)
			if err != nil {
				return false, err
			}
			scope[s.Target] = v

		case *ExprStmt:
			if _, err := l.emitExpr(blk, s.Value, scope); err != nil {
				return false, err
			}

		case *ReturnStmt:
			var v *ir.Value
			if s.Value != nil {
				var err error
				v, err = l.emitExpr(blk, s.Value, scope)
				if err != nil {
					return false, err
				}
				v = l.coerceTo(blk, v, l.retType)
			}
			b := l.builderAt(blk)
			if v != nil {
				b.Create(fn.Return, []*ir.Value{v}, nil, nil)
			} else {
				b.Create(fn.Return, nil, nil, nil)
			}
			return true, nil

		case *IfStmt:
			returned, err := l.lowerIf(blk, s, scope)
			if err != nil {
				return false, err
			}
			if returned {
				return true, nil
			}

		default:
			return false, fmt.Errorf("frontend: unsupported statement %T", s)
		}
	}
	return false, nil
}

// lowerIf handles the two shapes of if/else this front end supports: a
// value-merging if (neither branch returns — every variable either
// branch reassigns becomes an scf.if result merged back into scope)
// and a return-producing if (both branches end in a return — the
// whole statement behaves like a ReturnStmt for the enclosing block).
// An if where only one branch returns, or where a branch returns from
// the middle of a longer statement list, isn't representable in this
// IR's structured (branch-free) control flow and is rejected; a real
// CFG lowering would need a block-and-branch dialect nothing in this
// module provides.
func (l *funcLowerer) lowerIf(blk *ir.Block, s *IfStmt, scope map[string]*ir.Value) (bool, error) {
	cmp, ok := s.Cond.(*BinExpr)
	if !ok || !comparisonOps[cmp.Op] {
		return false, fmt.Errorf("frontend: if-condition must be a comparison, got %T", s.Cond)
	}
	cond, err := l.emitExpr(blk, s.Cond, scope)
	if err != nil {
		return false, err
	}

	thenReturns := endsInReturn(s.Then)
	elseReturns := endsInReturn(s.Else)
	if thenReturns != elseReturns {
		return false, fmt.Errorf("frontend: if/else must either both return or neither return")
	}

	if thenReturns {
		ifOp, thenBlk, elseBlk := scf.NewIf(l.ctx, cond, []ir.Type{l.retType}, true)
		ir.InsertAtEnd(blk, ifOp)

		if err := l.lowerReturningBranch(thenBlk, s.Then, scope); err != nil {
			return false, err
		}
		if err := l.lowerReturningBranch(elseBlk, s.Else, scope); err != nil {
			return false, err
		}

		l.builderAt(blk).Create(fn.Return, []*ir.Value{ifOp.Result(0)}, nil, nil)
		return true, nil
	}

	names := mergedNames(s.Then, s.Else)
	resultTypes := make([]ir.Type, len(names))
	for i := range names {
		resultTypes[i] = l.retType
	}
	ifOp, thenBlk, elseBlk := scf.NewIf(l.ctx, cond, resultTypes, s.Else != nil)
	ir.InsertAtEnd(blk, ifOp)

	if err := l.lowerMergingBranch(thenBlk, s.Then, cloneScope(scope), names); err != nil {
		return false, err
	}
	if s.Else != nil {
		if err := l.lowerMergingBranch(elseBlk, s.Else, cloneScope(scope), names); err != nil {
			return false, err
		}
	} else {
		l.yieldNames(elseBlk, names, scope)
	}

	for i, name := range names {
		scope[name] = ifOp.Result(i)
	}
	return false, nil
}

// lowerReturningBranch lowers stmts (which must end in a ReturnStmt)
// into blk, converting that ReturnStmt into an scf.yield of its value
// instead of a func.return.
func (l *funcLowerer) lowerReturningBranch(blk *ir.Block, stmts []Stmt, scope map[string]*ir.Value) error {
	branchScope := cloneScope(scope)
	last := stmts[len(stmts)-1]
	ret := last.(*ReturnStmt)
	if _, err := l.lowerBlock(blk, stmts[:len(stmts)-1], branchScope); err != nil {
		return err
	}
	var v *ir.Value
	if ret.Value != nil {
		var err error
		v, err = l.emitExpr(blk, ret.Value, branchScope)
		if err != nil {
			return err
		}
		v = l.coerceTo(blk, v, l.retType)
	}
	b := l.builderAt(blk)
	if v != nil {
		b.Create(scf.Yield, []*ir.Value{v}, nil, nil)
	} else {
		b.Create(scf.Yield, nil, nil, nil)
	}
	return nil
}

// lowerMergingBranch lowers a value-merging branch's statements into
// blk against its own scope copy, then yields the current value of
// every name in names (falling back to the value it had on entry, for
// a name this branch never reassigned).
func (l *funcLowerer) lowerMergingBranch(blk *ir.Block, stmts []Stmt, scope map[string]*ir.Value, names []string) error {
	if _, err := l.lowerBlock(blk, stmts, scope); err != nil {
		return err
	}
	l.yieldNames(blk, names, scope)
	return nil
}

func (l *funcLowerer) yieldNames(blk *ir.Block, names []string, scope map[string]*ir.Value) {
	vals := make([]*ir.Value, len(names))
	for i, n := range names {
		vals[i] = scope[n]
	}
	l.builderAt(blk).Create(scf.Yield, vals, nil, nil)
}

// emitExpr lowers e to a plier-dialect value at the end of blk,
// resolving identifiers against scope.
func (l *funcLowerer) emitExpr(blk *ir.Block, e Expr, scope map[string]*ir.Value) (*ir.Value, error) {
	switch x := e.(type) {
	case *Ident:
		v, ok := scope[x.Name]
		if !ok {
			return nil, fmt.Errorf("frontend: undefined name %q", x.Name)
		}
		return v, nil

	case *IntLit:
		t := l.ctx.IntegerType(64, ir.Signed)
		return l.builderAt(blk).CreateOne(plier.Const, nil, t, map[string]ir.Attribute{
			plier.ValueAttr: l.ctx.InternAttr(&ir.IntegerAttr{Value: x.Value, Type: t}),
		}), nil

	case *FloatLit:
		t := l.ctx.FloatType(64)
		return l.builderAt(blk).CreateOne(plier.Const, nil, t, map[string]ir.Attribute{
			plier.ValueAttr: l.ctx.InternAttr(&ir.FloatAttr{Value: x.Value, Type: t}),
		}), nil

	case *BinExpr:
		lv, err := l.emitExpr(blk, x.Left, scope)
		if err != nil {
			return nil, err
		}
		rv, err := l.emitExpr(blk, x.Right, scope)
		if err != nil {
			return nil, err
		}
		resultType := l.arithResultType(lv, rv)
		if comparisonOps[x.Op] {
			resultType = l.ctx.IntegerType(1, ir.Signless)
		}
		return l.builderAt(blk).CreateOne(plier.BinOp, []*ir.Value{lv, rv}, resultType, map[string]ir.Attribute{
			plier.OperatorAttr: l.ctx.InternAttr(&ir.StringAttr{Value: x.Op}),
		}), nil

	case *UnaryExpr:
		v, err := l.emitExpr(blk, x.X, scope)
		if err != nil {
			return nil, err
		}
		resultType := v.Type()
		if x.Op == "not" {
			resultType = l.ctx.IntegerType(1, ir.Signless)
		}
		return l.builderAt(blk).CreateOne(plier.UnOp, []*ir.Value{v}, resultType, map[string]ir.Attribute{
			plier.OperatorAttr: l.ctx.InternAttr(&ir.StringAttr{Value: x.Op}),
		}), nil

	case *CallExpr:
		args := make([]*ir.Value, len(x.Args))
		for i, a := range x.Args {
			v, err := l.emitExpr(blk, a, scope)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		resultType := l.ctx.IntegerType(64, ir.Signed)
		return l.builderAt(blk).CreateOne(plier.Call, args, resultType, map[string]ir.Attribute{
			plier.CalleeAttr: l.ctx.InternAttr(&ir.StringAttr{Value: x.Callee}),
		}), nil

	case *TupleExpr:
		elems := make([]*ir.Value, len(x.Elems))
		elemTypes := make([]ir.Type, len(x.Elems))
		for i, e := range x.Elems {
			v, err := l.emitExpr(blk, e, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = v
			elemTypes[i] = v.Type()
		}
		return l.builderAt(blk).CreateOne(plier.BuildTuple, elems, l.ctx.TupleType(elemTypes...), nil), nil

	default:
		return nil, fmt.Errorf("frontend: unsupported expression %T", x)
	}
}

// arithResultType picks f64 if either operand is already floating
// point, i64 otherwise; this front end never sees a narrower integer
// width to promote from, since every plain variable is i64.
func (l *funcLowerer) arithResultType(lv, rv *ir.Value) ir.Type {
	if _, ok := lv.Type().(*ir.FloatType); ok {
		return l.ctx.FloatType(64)
	}
	if _, ok := rv.Type().(*ir.FloatType); ok {
		return l.ctx.FloatType(64)
	}
	return l.ctx.IntegerType(64, ir.Signed)
}

// coerceTo inserts a plier.unop "+" identity cast when v's type
// doesn't already match target, giving plierstd's ConvertOperand
// machinery a concrete op to thread the conversion through rather than
// leaving a dangling type mismatch for ir.Verify to reject.
func (l *funcLowerer) coerceTo(blk *ir.Block, v *ir.Value, target ir.Type) *ir.Value {
	if v.Type() == target {
		return v
	}
	return l.builderAt(blk).CreateOne(plier.UnOp, []*ir.Value{v}, target, map[string]ir.Attribute{
		plier.OperatorAttr: l.ctx.InternAttr(&ir.StringAttr{Value: "+"}),
	})
}

// endsInReturn reports whether stmts' last statement is a ReturnStmt.
func endsInReturn(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ReturnStmt)
	return ok
}

// mergedNames collects every name directly assigned at the top level
// of then or els (not recursing into further nested ifs, a deliberate
// simplification: a variable only reassigned inside a doubly-nested
// conditional keeps its pre-if value on the merged path).
func mergedNames(then, els []Stmt) []string {
	seen := map[string]bool{}
	var names []string
	add := func(stmts []Stmt) {
		for _, s := range stmts {
			if a, ok := s.(*AssignStmt); ok && !seen[a.Target] {
				seen[a.Target] = true
				names = append(names, a.Target)
			}
		}
	}
	add(then)
	add(els)
	return names
}

func cloneScope(scope map[string]*ir.Value) map[string]*ir.Value {
	out := make(map[string]*ir.Value, len(scope))
	for k, v := range scope {
		out[k] = v
	}
	return out
}
