package pattern

import (
	"fmt"

	"plierc/internal/ir"
)

// DefaultIterationCap bounds the worklist loop so a buggy pattern that
// keeps re-enqueueing without making progress fails loudly instead of
// hanging the compiler (spec.md §4.2 step 4).
const DefaultIterationCap = 10_000

// ApplyPatternsAndFoldGreedily runs the algorithm of spec.md §4.2 over
// every op transitively inside region: seed a FIFO worklist in
// traversal order, pop an op, try its registered fold hook first, else
// try patterns in descending benefit, re-enqueueing anything touched,
// until the worklist empties or the iteration cap is hit. Returns
// whether anything changed.
func ApplyPatternsAndFoldGreedily(ctx *ir.Context, region *ir.Region, patterns *Set) (bool, error) {
	queued := make(map[*ir.Operation]bool)
	var worklist []*ir.Operation

	enqueue := func(op *ir.Operation) {
		if op == nil || queued[op] {
			return
		}
		queued[op] = true
		worklist = append(worklist, op)
	}

	ir.WalkRegion(region, ir.PreOrder, enqueue)

	rw := newRewriter(ctx, enqueue)
	changed := false

	for iter := 0; len(worklist) > 0; iter++ {
		if iter >= DefaultIterationCap {
			return changed, fmt.Errorf("pattern: iteration cap (%d) exceeded without converging", DefaultIterationCap)
		}

		op := worklist[0]
		worklist = worklist[1:]
		delete(queued, op)

		if op.Block() == nil {
			continue // erased or detached since being enqueued
		}

		if folded, err := tryFold(ctx, op, rw); err != nil {
			return changed, err
		} else if folded {
			changed = true
			continue
		}

		if rewritten, err := tryPatterns(op, patterns, rw); err != nil {
			return changed, err
		} else if rewritten {
			changed = true
		}
	}

	return changed, nil
}

// tryFold consults the op kind's registered Fold hook (spec.md §4.2 step
// 2: "pure constant evaluation built into op definitions"). A fold that
// returns replacement values is equivalent to a one-result-at-a-time
// ReplaceAllUsesWith followed by erasing the folded op.
func tryFold(ctx *ir.Context, op *ir.Operation, rw *Rewriter) (bool, error) {
	info := ctx.LookupOpKind(string(op.Name))
	if info == nil || info.Fold == nil {
		return false, nil
	}
	replacements := info.Fold(ctx, op)
	if replacements == nil {
		return false, nil
	}
	if len(replacements) != op.NumResults() {
		return false, fmt.Errorf("pattern: fold of %s returned %d values for %d results", op.Name, len(replacements), op.NumResults())
	}
	for _, r := range replacements {
		if r == nil {
			return false, nil // a partial fold is not a fold; leave op untouched
		}
	}
	// A fold may hand back a value produced by a freshly constructed,
	// still-detached op (the common case: a newly computed constant).
	// Splice any such op into the IR immediately before the op being
	// folded away, so it is reachable once op is erased.
	for _, r := range replacements {
		if !r.IsBlockArgument() && r.DefiningOp().Block() == nil {
			ir.InsertBefore(op, r.DefiningOp())
			rw.enqueue(r.DefiningOp())
		}
	}
	for i, result := range op.Results() {
		rw.ReplaceAllUsesWith(result, replacements[i])
	}
	rw.EraseOp(op)
	return true, nil
}

// tryPatterns iterates op's registered patterns in descending benefit,
// committing the first successful match (spec.md §4.2 step 3).
func tryPatterns(op *ir.Operation, patterns *Set, rw *Rewriter) (bool, error) {
	for _, p := range patterns.patternsFor(op.Name) {
		rw.SetInsertionPointBefore(op)
		matched, err := p.MatchAndRewrite(op, rw)
		if err != nil {
			return false, fmt.Errorf("pattern: %T on %s: %w", p, op.Name, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
