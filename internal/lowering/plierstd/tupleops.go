package plierstd

import "plierc/internal/ir"

// TupleBuild and TupleExtract are the typed, legal tuple vocabulary
// plier.build_tuple/plier.getitem lower to — grounded directly on
// PlierToStd.cpp's numba::util::BuildTupleOp/TupleExtractOp, the
// post-conversion tuple ops every plier tuple op is replaced with.
const (
	TupleBuild   ir.OpKind = "util.build_tuple"
	TupleExtract ir.OpKind = "util.tuple_extract"
)

// registerTupleOps installs TupleBuild/TupleExtract's OpInfo into ctx;
// Register (builtins.go) calls it after installing RangeOp/SliceOp.
func registerTupleOps(ctx *ir.Context) {
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(TupleBuild)})
	ctx.RegisterOpKind(&ir.OpInfo{Name: string(TupleExtract)})
}
