package convert

import (
	"fmt"

	"plierc/internal/ir"
)

// Mode selects spec.md §4.3's two legality-checking strategies: Full
// requires every op to end up legal or the whole region is rolled
// back, Partial accepts whatever the patterns managed to legalize.
type Mode int

const (
	Full Mode = iota
	Partial
)

// maxIterations bounds the worklist loop, mirroring
// pattern.DefaultIterationCap.
const maxIterations = 10_000

// Apply runs patterns over every op transitively inside region to a
// fixed point, first converting block argument types (spec.md §4.3
// "transitively converts block argument types, including entry
// arguments of function-like ops"), then repeatedly matching illegal
// ops against their registered patterns until the worklist empties or
// every op is legal. On Full-mode failure — an op patterns could not
// legalize, or the iteration cap is hit — region is rolled back to its
// state before Apply was called and a descriptive error is returned.
func Apply(ctx *ir.Context, region *ir.Region, target *ConversionTarget, converter *TypeConverter, patterns *Set) error {
	return apply(ctx, region, target, converter, patterns, Full)
}

// ApplyPartial is Apply's Partial-mode counterpart: it never rolls
// back and never errors on remaining illegal ops.
func ApplyPartial(ctx *ir.Context, region *ir.Region, target *ConversionTarget, converter *TypeConverter, patterns *Set) error {
	return apply(ctx, region, target, converter, patterns, Partial)
}

func apply(ctx *ir.Context, region *ir.Region, target *ConversionTarget, converter *TypeConverter, patterns *Set, mode Mode) error {
	backup := ir.Snapshot(ctx, region)

	convertRegionTypes(ctx, region, converter)

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

	rw := newRewriter(ctx, converter, enqueue)

	for iter := 0; len(worklist) > 0; iter++ {
		if iter >= maxIterations {
			if mode == Full {
				ir.Restore(region, backup)
			}
			return fmt.Errorf("convert: iteration cap exceeded without converging")
		}
		op := worklist[0]
		worklist = worklist[1:]
		delete(queued, op)

		if op.Block() == nil {
			continue
		}
		if target.IsLegal(op) {
			continue
		}
		for _, p := range patterns.patternsFor(op.Name) {
			rw.SetInsertionPointBefore(op)
			ok, err := p.MatchAndRewrite(op, rw)
			if err != nil {
				if mode == Full {
					ir.Restore(region, backup)
				}
				return fmt.Errorf("convert: %T on %s: %w", p, op.Name, err)
			}
			if ok {
				break
			}
		}
	}

	if mode != Full {
		return nil
	}

	var illegal []*ir.Operation
	ir.WalkRegion(region, ir.PreOrder, func(op *ir.Operation) {
		if !target.IsLegal(op) {
			illegal = append(illegal, op)
		}
	})
	if len(illegal) > 0 {
		ir.Restore(region, backup)
		return fmt.Errorf("convert: %d op(s) remain illegal after full conversion, first: %s", len(illegal), illegal[0].Name)
	}
	return nil
}

// convertRegionTypes converts every block's argument types transitively
// inside region, inserting a source materialization at each point a
// stale-typed use of a retyped argument remains.
func convertRegionTypes(ctx *ir.Context, region *ir.Region, converter *TypeConverter) {
	convertBlockArgs(ctx, region, converter)
	ir.WalkRegion(region, ir.PreOrder, func(op *ir.Operation) {
		for _, r := range op.Regions() {
			convertBlockArgs(ctx, r, converter)
		}
	})
}

// convertBlockArgs converts the argument types of every block directly
// inside region (not descending into nested regions, which the caller
// walks separately).
func convertBlockArgs(ctx *ir.Context, region *ir.Region, converter *TypeConverter) {
	for _, b := range region.Blocks() {
		for i := 0; i < b.NumArgs(); i++ {
			arg := b.Arg(i)
			converted, changed := converter.Convert(arg.Type())
			if !changed {
				continue
			}
			builder := ir.NewBuilder(ctx)
			if len(b.Operations()) > 0 {
				builder.SetInsertionPointBefore(b.Operations()[0])
			} else {
				builder.SetInsertionPointToEnd(b)
			}
			original := arg.Type()
			arg.SetType(converted)
			materialized := converter.materializeSource(builder, original, []*ir.Value{arg}, original)
			if materialized != nil && materialized != arg {
				ir.ReplaceAllUsesWith(arg, materialized, materialized.DefiningOp())
			}
		}
	}
}
