package ir

import "fmt"

// InvariantError reports a structural invariant violation discovered by
// the verifier (spec.md §7 "Structural" — fatal).
type InvariantError struct {
	Op      *Operation
	Message string
}

func (e *InvariantError) Error() string {
	name := "<detached>"
	if e.Op != nil {
		name = string(e.Op.Name)
	}
	return fmt.Sprintf("ir: invariant violated at %s (%s): %s", name, e.Op.Loc, e.Message)
}

// Verify checks every invariant in spec.md §3 and §8 over mod and its
// descendants, plus any op-specific Verify hook registered in ctx.
// Returns the first violation found, or nil.
func Verify(ctx *Context, mod *Operation) error {
	var firstErr error
	report := func(op *Operation, msg string) {
		if firstErr == nil {
			firstErr = &InvariantError{Op: op, Message: msg}
		}
	}

	// Refresh CFG/dominance per region before checking use-dominance.
	domByRegion := map[*Region]*Dominance{}
	Walk(mod, PreOrder, func(op *Operation) {
		for _, r := range op.regions {
			r.RefreshCFG()
			domByRegion[r] = ComputeDominance(r)
		}
	})

	Walk(mod, PreOrder, func(op *Operation) {
		if firstErr != nil {
			return
		}

		// Each op is either in exactly one block, or detached with no uses.
		if op.block == nil && op != mod {
			if !op.HasNoUses() {
				report(op, "detached op has uses")
				return
			}
		}

		// Dominance: every operand's definition must dominate this use.
		if op.block != nil {
			region := op.block.region
			dom := domByRegion[region]
			for _, operand := range op.operands {
				var defBlock *Block
				if operand.IsBlockArgument() {
					defBlock = operand.DefiningBlock()
				} else {
					defBlock = operand.DefiningOp().Block()
				}
				if defBlock == nil {
					continue // value from an outer, isolated region boundary; checked below
				}
				if defBlock.region != region {
					continue // cross-region use, checked by isolation rule below
				}
				if defBlock == op.block {
					if !blockLocalPrecedes(operand, op) {
						report(op, fmt.Sprintf("use of %%%d does not follow its definition in block", operand.ID()))
						return
					}
					continue
				}
				if dom == nil || !dom.Dominates(defBlock, op.block) {
					report(op, fmt.Sprintf("use of %%%d is not dominated by its definition", operand.ID()))
					return
				}
			}
		}

		// Terminator successor-argument type agreement.
		if op.IsTerminator() {
			for i, succ := range op.successors {
				if succ == nil {
					continue
				}
				args := op.successorArgs[i]
				if len(args) != succ.NumArgs() {
					report(op, "terminator successor argument count mismatch")
					return
				}
				for j, a := range args {
					if a.Type() != succ.Arg(j).Type() {
						report(op, fmt.Sprintf("terminator successor argument %d type mismatch: %s vs %s", j, a.Type(), succ.Arg(j).Type()))
						return
					}
				}
			}
		}

		// Isolation: a value defined inside an isolated-from-above region
		// may not be used outside it.
		if op.block != nil {
			isolatedBoundary := enclosingIsolatedRegion(op.block.region)
			for _, operand := range op.operands {
				src := valueOwningRegion(operand)
				if src == nil {
					continue
				}
				if isolatedBoundary != nil && !regionContains(isolatedBoundary, src) && src != isolatedBoundary {
					if !regionContains(src, op.block.region) {
						report(op, "value crosses an isolated-from-above region boundary")
						return
					}
				}
			}
		}

		if info := ctx.LookupOpKind(string(op.Name)); info != nil && info.Verify != nil {
			if err := info.Verify(op); err != nil {
				report(op, err.Error())
			}
		}
	})

	return firstErr
}

func blockLocalPrecedes(v *Value, use *Operation) bool {
	if v.IsBlockArgument() {
		return true // block args are live from the start of the block
	}
	defOp := v.DefiningOp()
	for _, op := range defOp.block.ops {
		if op == defOp {
			return true
		}
		if op == use {
			return false
		}
	}
	return false
}

func valueOwningRegion(v *Value) *Region {
	if v.IsBlockArgument() {
		return v.DefiningBlock().region
	}
	if v.DefiningOp().block == nil {
		return nil
	}
	return v.DefiningOp().block.region
}

func enclosingIsolatedRegion(r *Region) *Region {
	for cur := r; cur != nil; {
		if cur.owner != nil && cur.owner.HasTrait(TraitIsolatedFromAbove) {
			return cur
		}
		if cur.owner == nil {
			return nil
		}
		cur = cur.owner.Region()
	}
	return nil
}

func regionContains(outer, inner *Region) bool {
	for cur := inner; cur != nil; {
		if cur == outer {
			return true
		}
		if cur.owner == nil {
			return false
		}
		cur = cur.owner.Region()
	}
	return false
}
