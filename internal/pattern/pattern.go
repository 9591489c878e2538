// Package pattern implements the greedy, worklist-driven fixed-point
// rewriter of spec.md §4.2, generalizing the teacher's fixed
// ConstantFolding/CommonSubexpressionElimination/DeadCodeElimination
// pipeline (internal/ir/optimizations.go) from a closed pass list applied
// once in a hardcoded order into an open, benefit-ordered pattern
// registry applied to a fixed point.
package pattern

import "plierc/internal/ir"

// Pattern is a local IR rewrite keyed by a root op kind (spec.md §9's
// "small trait interface" in place of the source's deep pattern class
// hierarchy).
type Pattern interface {
	// RootKind is the op kind this pattern's MatchAndRewrite examines.
	RootKind() ir.OpKind
	// Benefit orders pattern application on ties at the same root op;
	// higher runs first.
	Benefit() int
	// MatchAndRewrite attempts the rewrite, using rw for every mutation
	// so the driver's worklist and use-list bookkeeping stay correct. It
	// returns true if it committed a rewrite.
	MatchAndRewrite(op *ir.Operation, rw *Rewriter) (bool, error)
}

// Set is an immutable, benefit-sorted pattern registry indexed by root
// op kind, built once per pass and reused across drivers.
type Set struct {
	byKind map[ir.OpKind][]Pattern
}

// NewSet groups patterns by root kind and sorts each group by descending
// benefit, breaking ties by declaration order (spec.md §5 "Ordering").
func NewSet(patterns ...Pattern) *Set {
	s := &Set{byKind: make(map[ir.OpKind][]Pattern)}
	for _, p := range patterns {
		s.byKind[p.RootKind()] = append(s.byKind[p.RootKind()], p)
	}
	for kind, group := range s.byKind {
		stableSortByBenefitDesc(group)
		s.byKind[kind] = group
	}
	return s
}

func stableSortByBenefitDesc(group []Pattern) {
	// Insertion sort: small groups (a handful of patterns per op kind),
	// and it is trivially stable, which a library sort would need an
	// explicit tie-break index to guarantee instead.
	for i := 1; i < len(group); i++ {
		for j := i; j > 0 && group[j].Benefit() > group[j-1].Benefit(); j-- {
			group[j], group[j-1] = group[j-1], group[j]
		}
	}
}

func (s *Set) patternsFor(kind ir.OpKind) []Pattern { return s.byKind[kind] }
