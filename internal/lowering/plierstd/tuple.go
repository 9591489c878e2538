package plierstd

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// BuildTuplePattern lowers plier.build_tuple directly to util.build_tuple
// — the element operands are already concretely typed by this point, so
// the rewrite is a rename with no cast logic of its own, mirroring
// BuildTupleConversionPattern.
type BuildTuplePattern struct{}

func (BuildTuplePattern) RootKind() ir.OpKind { return plier.BuildTuple }
func (BuildTuplePattern) Benefit() int        { return 1 }

func (BuildTuplePattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	result := rw.CreateOne(TupleBuild, op.Operands(), op.Result(0).Type(), nil)
	rw.ReplaceOp(op, []*ir.Value{result})
	return true, nil
}

// GetItemPattern lowers plier.getitem on a tuple operand to
// util.tuple_extract (spec.md §4.5 "getitem on a tuple converts to an
// index-typed extract"), mirroring GetItemTupleConversionPattern.
// getitem on a non-tuple operand is left for a later lowering stage
// (array/memref indexing, out of this component's scope) to claim.
type GetItemPattern struct{}

func (GetItemPattern) RootKind() ir.OpKind { return plier.GetItem }
func (GetItemPattern) Benefit() int        { return 1 }

func (GetItemPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	tuple := op.Operand(0)
	if _, ok := tuple.Type().(*ir.TupleType); !ok {
		return false, nil
	}
	a, ok := op.Attr(plier.IndexAttr)
	if !ok {
		return false, fmt.Errorf("plierstd: %s is missing its %q attribute", op.Name, plier.IndexAttr)
	}
	result := rw.CreateOne(TupleExtract, []*ir.Value{tuple}, op.Result(0).Type(), map[string]ir.Attribute{
		plier.IndexAttr: a,
	})
	rw.ReplaceOp(op, []*ir.Value{result})
	return true, nil
}
