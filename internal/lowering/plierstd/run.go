package plierstd

import (
	"fmt"
	"strings"

	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

// Config bundles the resolver callbacks Run needs to complete global
// loads and the three call-resolution tiers of spec.md §4.5.
type Config struct {
	Global   GlobalResolver
	Library  LibraryResolver
	External ExternalResolver
	// Partial runs the conversion in partial mode (spec.md §4.3),
	// accepting whatever plier ops the patterns couldn't legalize
	// instead of treating that as a hard failure. Leave false to
	// require every plier op to be gone by the end of Run.
	Partial bool
}

// Run lowers every plier op inside mod's body to arith/fn/util ops
// per spec.md §4.5, via the conversion framework of internal/convert.
// ctx must already have plier.Register, arith.Register, fn.Register,
// scf.Register, and plierstd.Register applied.
func Run(ctx *ir.Context, mod *ir.Operation, cfg Config) error {
	converter := newTypeConverter()
	target := newConversionTarget()
	patterns := convert.NewSet(
		BinOpPattern{},
		UnOpPattern{},
		BuildTuplePattern{},
		GetItemPattern{},
		ConstPattern{},
		UndefPattern{},
		GlobalPattern{Resolver: cfg.Global},
		CallPattern{Module: mod, Library: cfg.Library, External: cfg.External},
	)

	body := ir.Body(mod)
	if cfg.Partial {
		return convert.ApplyPartial(ctx, body, target, converter, patterns)
	}
	// Full mode only requires the plier ops to be gone: ops of other
	// dialects that the target does not list are left as they are.
	backup := ir.Snapshot(ctx, body)
	if err := convert.ApplyPartial(ctx, body, target, converter, patterns); err != nil {
		ir.Restore(body, backup)
		return err
	}
	var left []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if strings.HasPrefix(string(op.Name), "plier.") {
			left = append(left, op)
		}
	})
	if len(left) > 0 {
		ir.Restore(body, backup)
		return fmt.Errorf("plierstd: %d plier op(s) remain after full conversion, first: %s", len(left), left[0].Name)
	}
	return nil
}

// newTypeConverter builds the TypeConverter every plierstd pattern
// shares: no declared type mappings of its own (plier's dynamic types
// are eliminated by the patterns themselves, not by a blanket type
// rule), plus the omitted-default target materialization of spec.md
// §4.5's "Omitted defaults".
func newTypeConverter() *convert.TypeConverter {
	tc := convert.NewTypeConverter()
	tc.AddTargetMaterialization(OmittedMaterialization)
	return tc
}

// newConversionTarget marks every plier op kind illegal and every op
// kind plierstd's patterns may legally produce as legal, mirroring
// PlierToStd.cpp's ConversionTarget setup.
func newConversionTarget() *convert.ConversionTarget {
	target := convert.NewConversionTarget()
	for _, kind := range []ir.OpKind{
		plier.BinOp, plier.UnOp, plier.BuildTuple, plier.GetItem,
		plier.Global, plier.Const, plier.Call, plier.Undef,
	} {
		target.AddIllegalOp(kind)
	}
	for _, kind := range []ir.OpKind{
		RangeOp, SliceOp, TupleBuild, TupleExtract,
		fn.Func, fn.Call, fn.Return,
		scf.ExecuteRegion, scf.Yield,
	} {
		target.AddLegalOp(kind)
	}
	for _, kind := range arith.OpKinds() {
		target.AddLegalOp(kind)
	}
	return target
}
