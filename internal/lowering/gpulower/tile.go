package gpulower

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/scf"
	"plierc/internal/ir"
)

// BlockSizeSuggester returns a device-suggested block (thread-group)
// extent per axis for a loop nest of numDims dimensions (spec.md
// §4.6.3's "device-suggest call"); len(result) == numDims.
type BlockSizeSuggester func(numDims int) []int64

// DefaultBlockSizeSuggester returns 64 along the first axis and 1
// elsewhere, a conservative one-dimensional default.
func DefaultBlockSizeSuggester(numDims int) []int64 {
	sizes := make([]int64, numDims)
	for i := range sizes {
		if i == 0 {
			sizes[i] = 64
		} else {
			sizes[i] = 1
		}
	}
	return sizes
}

// TileParallelLoops rewrites every gpu.parallel op directly inside an
// env_region, whose axes all have a zero constant lower bound and a
// unit constant step, into a 3D grid × 3D block gpu.launch (spec.md
// §4.6.3). Loops with a non-constant or non-zero/non-unit bound are
// left untouched; no error is reported for them.
func TileParallelLoops(ctx *ir.Context, f *ir.Operation, suggest BlockSizeSuggester) {
	if suggest == nil {
		suggest = DefaultBlockSizeSuggester
	}
	body := f.Regions()[0]

	var candidates []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == gpu.Parallel && enclosingEnvOp(op) != nil && isTileable(op) {
			candidates = append(candidates, op)
		}
	})

	for _, loop := range candidates {
		tileOne(ctx, loop, suggest)
	}
}

// isTileable additionally requires numDims <= 3: axes beyond the third
// have no induction-variable slot of their own in a gpu.launch region
// (spec.md §4.6.3 "axes ≥ 3 remain sequential") — tiling those is left
// as a documented limitation rather than guessed at.
func isTileable(loop *ir.Operation) bool {
	numDims := loop.NumOperands() / 3
	if numDims > 3 {
		return false
	}
	for i := 0; i < numDims; i++ {
		lower := loop.Operand(3 * i)
		step := loop.Operand(3*i + 2)
		if !isConstIndex(lower, 0) || !isConstIndex(step, 1) {
			return false
		}
	}
	return true
}

func isConstIndex(v *ir.Value, want int64) bool {
	def := v.DefiningOp()
	if def == nil || def.Name != arith.Constant {
		return false
	}
	a, ok := def.Attr("value")
	if !ok {
		return false
	}
	ia, ok := a.(*ir.IntegerAttr)
	return ok && ia.Value == want
}

// tileOne replaces loop with a gpu.launch whose grid/block dims derive
// from the loop's upper bounds and the suggested block size, wrapping
// the original body in an in-bounds scf.if guard comparing each axis's
// global index (block id * block size + thread id) against the original
// trip count.
func tileOne(ctx *ir.Context, loop *ir.Operation, suggest BlockSizeSuggester) {
	idx := ctx.IndexType()
	numDims := loop.NumOperands() / 3
	block := suggest(numDims)

	var gridVals, blockVals []*ir.Value
	trips := make([]*ir.Value, numDims)
	cursor := loop
	for i := 0; i < numDims; i++ {
		upper := loop.Operand(3*i + 1)
		trips[i] = upper
		var blockSize *ir.Value
		blockSize, cursor = constIndexAfter(ctx, cursor, block[i])
		var grid *ir.Value
		grid, cursor = ceilDivAfter(ctx, cursor, upper, blockSize)
		gridVals = append(gridVals, grid)
		blockVals = append(blockVals, blockSize)
	}
	for len(gridVals) < 3 {
		var v *ir.Value
		v, cursor = constIndexAfter(ctx, cursor, 1)
		gridVals = append(gridVals, v)
	}
	for len(blockVals) < 3 {
		var v *ir.Value
		v, cursor = constIndexAfter(ctx, cursor, 1)
		blockVals = append(blockVals, v)
	}

	captured := capturedValues(loop)
	operands := append(append(gridVals[:3:3], blockVals[:3]...), captured...)

	launch := ir.NewOp(ctx, gpu.Launch, operands, nil, map[string]ir.Attribute{
		gpu.MappingAttr: mappingAttr(ctx, numDims),
	})
	region := launch.AddRegion()
	launchBlock := ir.NewBlock()
	for i := 0; i < 6; i++ {
		launchBlock.AddArg(idx)
	}
	capturedArgs := make([]*ir.Value, len(captured))
	for i, v := range captured {
		capturedArgs[i] = launchBlock.AddArg(v.Type())
	}
	region.AppendBlock(launchBlock)
	ir.InsertAfter(cursor, launch)

	vmap := make(map[*ir.Value]*ir.Value, len(captured)+numDims)
	for i, v := range captured {
		vmap[v] = capturedArgs[i]
	}

	predicate := inBoundsPredicate(ctx, launchBlock, numDims, trips, blockVals)
	ifOp, thenBlk, _ := scf.NewIf(ctx, predicate, nil, false)
	ir.InsertAtEnd(launchBlock, ifOp)
	ir.InsertAtEnd(launchBlock, ir.NewOp(ctx, gpu.Terminator, nil, nil, nil))

	srcBody := loop.Regions()[0]
	for i := 0; i < numDims; i++ {
		vmap[srcBody.Entry().Arg(i)] = launchBlock.Arg(i + 3)
	}
	ir.CloneRegionInto(ctx, thenBlk.Region(), srcBody, vmap)
	convertLoopYieldsToIfYields(ctx, thenBlk.Region())

	ir.Erase(loop)
}

func convertLoopYieldsToIfYields(ctx *ir.Context, region *ir.Region) {
	for _, b := range region.Blocks() {
		term := b.Terminator()
		if term == nil {
			continue
		}
		if term.Name == gpu.Terminator {
			yield := ir.NewOp(ctx, scf.Yield, nil, nil, nil)
			ir.InsertAfter(term, yield)
			ir.Erase(term)
		}
	}
}

// constIndexAfter builds an index constant inserted immediately after
// anchor, returning the constant's value and its own op as the new
// insertion cursor. InsertAfter always lands its operand right after
// anchor's *current* position, so a sequence of calls sharing one
// fixed anchor would stack in reverse order; every caller here instead
// threads the returned cursor forward to the next call's anchor,
// keeping every def before its uses.
func constIndexAfter(ctx *ir.Context, anchor *ir.Operation, v int64) (*ir.Value, *ir.Operation) {
	idx := ctx.IndexType()
	op := ir.NewOp(ctx, arith.Constant, nil, []ir.Type{idx}, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: v, Type: idx}),
	})
	ir.InsertAfter(anchor, op)
	return op.Result(0), op
}

// ceilDivAfter builds arith ops computing ceil(trip / blockSize) as
// (trip + blockSize - 1) / blockSize, each inserted right after the
// previous one so block order stays valid, returning the result and
// the new insertion cursor.
func ceilDivAfter(ctx *ir.Context, anchor *ir.Operation, trip, blockSize *ir.Value) (*ir.Value, *ir.Operation) {
	idx := ctx.IndexType()
	sumOp := ir.NewOp(ctx, arith.AddI, []*ir.Value{trip, blockSize}, []ir.Type{idx}, nil)
	ir.InsertAfter(anchor, sumOp)
	cursor := sumOp
	one, cursor2 := constIndexAfter(ctx, cursor, 1)
	cursor = cursor2
	minusOneOp := ir.NewOp(ctx, arith.SubI, []*ir.Value{sumOp.Result(0), one}, []ir.Type{idx}, nil)
	ir.InsertAfter(cursor, minusOneOp)
	cursor = minusOneOp
	divOp := ir.NewOp(ctx, arith.DivUI, []*ir.Value{minusOneOp.Result(0), blockSize}, []ir.Type{idx}, nil)
	ir.InsertAfter(cursor, divOp)
	cursor = divOp
	return divOp.Result(0), cursor
}

// inBoundsPredicate builds "blockId*blockSize + threadId < trip" for
// each axis, ANDed together, guarding the padded tail iteration.
func inBoundsPredicate(ctx *ir.Context, launchBlock *ir.Block, numDims int, trips, blockVals []*ir.Value) *ir.Value {
	i1 := ctx.IntegerType(1, ir.Signless)
	idx := ctx.IndexType()
	var acc *ir.Value
	last := lastOp(launchBlock)
	append := func(op *ir.Operation) {
		if last == nil {
			ir.InsertAtEnd(launchBlock, op)
		} else {
			ir.InsertAfter(last, op)
		}
		last = op
	}
	for i := 0; i < numDims; i++ {
		blockID := launchBlock.Arg(i)
		threadID := launchBlock.Arg(i + 3)
		mul := ir.NewOp(ctx, arith.MulI, []*ir.Value{blockID, blockVals[i]}, []ir.Type{idx}, nil)
		append(mul)
		gid := ir.NewOp(ctx, arith.AddI, []*ir.Value{mul.Result(0), threadID}, []ir.Type{idx}, nil)
		append(gid)
		cmp := ir.NewOp(ctx, arith.CmpI, []*ir.Value{gid.Result(0), trips[i]}, []ir.Type{i1}, map[string]ir.Attribute{
			"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(arith.CmpIULT)}),
		})
		append(cmp)
		if acc == nil {
			acc = cmp.Result(0)
		} else {
			and := ir.NewOp(ctx, arith.AndI, []*ir.Value{acc, cmp.Result(0)}, []ir.Type{i1}, nil)
			append(and)
			acc = and.Result(0)
		}
	}
	if acc == nil {
		trueOp := ir.NewOp(ctx, arith.Constant, nil, []ir.Type{i1}, map[string]ir.Attribute{
			"value": ctx.InternAttr(&ir.BoolAttr{Value: true}),
		})
		append(trueOp)
		acc = trueOp.Result(0)
	}
	return acc
}

func lastOp(b *ir.Block) *ir.Operation {
	ops := b.Operations()
	if len(ops) == 0 {
		return nil
	}
	return ops[len(ops)-1]
}

// capturedValues returns every value used inside loop's body region
// but defined outside it, in first-use order — the values a launch's
// outlining step must thread through as explicit operands/block args
// since gpu.launch's region is, after outlining, isolated from above.
func capturedValues(loop *ir.Operation) []*ir.Value {
	region := loop.Regions()[0]
	seen := make(map[*ir.Value]bool)
	var captured []*ir.Value
	record := func(v *ir.Value) {
		if v.IsBlockArgument() && v.DefiningBlock() == region.Entry() {
			return
		}
		if definedWithin(v, region) {
			return
		}
		if !seen[v] {
			seen[v] = true
			captured = append(captured, v)
		}
	}
	ir.WalkRegion(region, ir.PreOrder, func(op *ir.Operation) {
		for _, operand := range op.Operands() {
			record(operand)
		}
	})
	return captured
}

func definedWithin(v *ir.Value, region *ir.Region) bool {
	if v.IsBlockArgument() {
		return blockIn(v.DefiningBlock(), region)
	}
	def := v.DefiningOp()
	return def != nil && blockIn(def.Block(), region)
}

func blockIn(b *ir.Block, region *ir.Region) bool {
	for _, candidate := range region.Blocks() {
		if candidate == b {
			return true
		}
	}
	return false
}

func mappingAttr(ctx *ir.Context, numDims int) *ir.DenseIntArrayAttr {
	values := make([]int64, numDims)
	for i := range values {
		values[i] = int64(gpu.ProcessorFor(i))
	}
	return &ir.DenseIntArrayAttr{Values: values}
}
