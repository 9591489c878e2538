package convert

import "plierc/internal/ir"

// Pattern is a conversion rewrite: like pattern.Pattern, but operating
// through a Rewriter that additionally exposes the active
// TypeConverter for materializing cast ops at the boundaries it touches.
type Pattern interface {
	RootKind() ir.OpKind
	Benefit() int
	MatchAndRewrite(op *ir.Operation, rw *Rewriter) (bool, error)
}

// Set is a benefit-sorted pattern registry indexed by root op kind, the
// same shape as internal/pattern.Set since both drivers need the same
// "descending benefit, stable on ties" ordering (spec.md §5 "Ordering").
type Set struct {
	byKind map[ir.OpKind][]Pattern
}

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
	for i := 1; i < len(group); i++ {
		for j := i; j > 0 && group[j].Benefit() > group[j-1].Benefit(); j-- {
			group[j], group[j-1] = group[j-1], group[j]
		}
	}
}

func (s *Set) patternsFor(kind ir.OpKind) []Pattern { return s.byKind[kind] }
