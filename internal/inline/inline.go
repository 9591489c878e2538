// Package inline implements the force-inline engine of spec.md §4.4: a
// single pattern, registered into the greedy pattern engine (component
// B), that rewrites a marked call into a cloned copy of its callee's
// body wrapped in a scoped region, then a post-pass sweep that fails
// loudly on any marker surviving convergence. Grounded in spirit on
// InlineUtils.cpp's ForceInline pattern and ForceInlinePass.
package inline

import (
	"fmt"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
	"plierc/internal/pattern"
)

// Marker is the presence-only attribute name that opts a call or its
// callee into force-inlining, carried on either op as a UnitAttr.
const Marker = "force_inline"

func mustInline(call, callee *ir.Operation) bool {
	_, onCall := call.Attr(Marker)
	_, onCallee := callee.Attr(Marker)
	return onCall || onCallee
}

// ForceInlinePattern is a pattern.Pattern rooted at fn.Call: it looks up
// the callee by symbol in the nearest enclosing symbol table, and — if
// either the call or the callee carries the force-inline marker —
// performs the rewrite described in spec.md §4.4 steps 1-3. inlined
// records every callee symbol name actually inlined away, so step 4's
// sweep erases only those functions rather than every function with no
// remaining caller — which would also catch the entry function, since
// it never has one either.
type ForceInlinePattern struct {
	inlined map[string]bool
}

func (ForceInlinePattern) RootKind() ir.OpKind { return fn.Call }
func (ForceInlinePattern) Benefit() int        { return 1 }

func (p ForceInlinePattern) MatchAndRewrite(op *ir.Operation, rw *pattern.Rewriter) (bool, error) {
	scope := enclosingSymbolTable(op)
	if scope == nil {
		return false, nil
	}
	callee := lookupFunc(scope, fn.Callee(op))
	if callee == nil {
		return false, nil
	}
	if !mustInline(op, callee) {
		return false, nil
	}

	ctx := rw.Context()
	resultTypes := make([]ir.Type, op.NumResults())
	for i, r := range op.Results() {
		resultTypes[i] = r.Type()
	}

	// Step 1: wrap the call in a scoped region producing the same result
	// types.
	execOp := rw.Create(scf.ExecuteRegion, nil, resultTypes, nil)
	destRegion := execOp.AddRegion()

	// Step 2: clone the callee body into that region, substituting each
	// formal parameter for the call's matching operand as the clone
	// proceeds (CloneRegionInto elides any block argument already present
	// in vmap), then route every callee return to a region yield.
	calleeBody := callee.Regions()[0]
	vmap := make(map[*ir.Value]*ir.Value, calleeBody.Entry().NumArgs())
	for i, operand := range op.Operands() {
		if i < calleeBody.Entry().NumArgs() {
			vmap[calleeBody.Entry().Arg(i)] = operand
		}
	}
	ir.CloneRegionInto(ctx, destRegion, calleeBody, vmap)
	convertReturnsToYields(ctx, destRegion)

	ir.WalkRegion(destRegion, ir.PreOrder, rw.Enqueue)

	// Step 3: replace the original call's results with the region's
	// yielded values.
	results := make([]*ir.Value, execOp.NumResults())
	for i := range results {
		results[i] = execOp.Result(i)
	}
	rw.ReplaceOp(op, results)
	p.inlined[fn.Callee(op)] = true
	return true, nil
}

// convertReturnsToYields rewrites every fn.Return terminator reachable
// within region into an scf.Yield with the same operands (spec.md §4.4
// step 2, "route returns to region yield"), leaving the rest of its
// block untouched.
func convertReturnsToYields(ctx *ir.Context, region *ir.Region) {
	for _, b := range region.Blocks() {
		term := b.Terminator()
		if term == nil || term.Name != fn.Return {
			continue
		}
		yield := ir.NewOp(ctx, scf.Yield, term.Operands(), nil, nil)
		ir.InsertAfter(term, yield)
		ir.Erase(term)
	}
}

// enclosingSymbolTable walks op's ancestor chain for the nearest op
// whose region carries a symbol table — the scope fn.Call's callee
// reference resolves against.
func enclosingSymbolTable(op *ir.Operation) *ir.Operation {
	for cur := op.Parent(); cur != nil; cur = cur.Parent() {
		if cur.HasTrait(ir.TraitSymbolTable) {
			return cur
		}
	}
	return nil
}

func lookupFunc(scopeOwner *ir.Operation, name string) *ir.Operation {
	if name == "" {
		return nil
	}
	if len(scopeOwner.Regions()) == 0 {
		return nil
	}
	r := scopeOwner.Regions()[0]
	if r.Symbols() == nil {
		return nil
	}
	e := r.Symbols().Lookup(name)
	if e == nil {
		return nil
	}
	op, _ := e.Op.(*ir.Operation)
	return op
}

// Run applies ForceInlinePattern to a fixed point over mod's body, then
// checks for markers that survived convergence (spec.md §4.4 "If after
// convergence any marked call remains, the pass fails with a
// diagnostic naming the unresolved call") and, on success, sweeps dead
// functions (step 4).
func Run(ctx *ir.Context, mod *ir.Operation) error {
	inlined := make(map[string]bool)
	set := pattern.NewSet(ForceInlinePattern{inlined: inlined})
	if _, err := pattern.ApplyPatternsAndFoldGreedily(ctx, ir.Body(mod), set); err != nil {
		return fmt.Errorf("inline: %w", err)
	}

	var unresolved *ir.Operation
	ir.Walk(mod, ir.PreOrder, func(op *ir.Operation) {
		if unresolved != nil || op.Name != fn.Call {
			return
		}
		scope := enclosingSymbolTable(op)
		if scope == nil {
			return
		}
		callee := lookupFunc(scope, fn.Callee(op))
		if callee != nil && mustInline(op, callee) {
			unresolved = op
		}
	})
	if unresolved != nil {
		return fmt.Errorf("inline: could not inline force-inline call to %q", fn.Callee(unresolved))
	}

	removeDeadFunctions(mod, inlined)
	return nil
}

// removeDeadFunctions erases every fn.Func actually inlined away (its
// symbol name is in inlined) that has no remaining fn.Call referencing
// it (spec.md §4.4 step 4). Restricting the sweep to inlined names
// rather than every unreferenced function is what keeps the module's
// entry function — which by design also has no caller — from being
// erased alongside the functions the inliner actually consumed.
func removeDeadFunctions(mod *ir.Operation, inlined map[string]bool) {
	body := ir.Body(mod)
	referenced := make(map[string]bool)
	ir.Walk(mod, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == fn.Call {
			referenced[fn.Callee(op)] = true
		}
	})
	for _, op := range append([]*ir.Operation(nil), body.Entry().Operations()...) {
		if op.Name != fn.Func {
			continue
		}
		name, ok := op.Attr(ir.SymNameAttr)
		if !ok {
			continue
		}
		s, ok := name.(*ir.StringAttr)
		if !ok || !inlined[s.Value] || referenced[s.Value] {
			continue
		}
		ir.Erase(op)
	}
}
