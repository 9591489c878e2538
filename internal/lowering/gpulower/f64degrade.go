package gpulower

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
)

// DegradeF64 rewrites f's kernel-side f64 accesses and gpu.launch
// arguments to f32 for targets without native double support (spec.md
// §4.6.6). ConvertToSpirvLike must already have run: this retypes
// spirvlike.AccessChain/Load/Store pointee types in place rather than
// operating on memref.Load/Store as the pass it's grounded on does.
// Kernel-side arithmetic is assumed to already be expressed in f32 by
// this point — DegradeF64 only handles the f64-buffer memory boundary
// and the host->device argument cast, the two behaviors spec.md §4.6.6
// names explicitly; it does not hunt down and retype every f64-typed
// arith op a kernel body might still contain.
func DegradeF64(ctx *ir.Context, f *ir.Operation, hasF64 bool) {
	if hasF64 {
		return
	}
	f32 := ctx.FloatType(32)
	f64 := ctx.FloatType(64)
	vec2i32 := ctx.Intern(&ir.VectorType{Len: 2, Element: ctx.IntegerType(32, ir.Signless)}).(*ir.VectorType)

	body := f.Regions()[0]
	var chains, loads, stores, launches []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		switch op.Name {
		case spirvlike.AccessChain:
			if pt, ok := op.Result(0).Type().(*ir.PointerType); ok && pt.Element == f64 {
				chains = append(chains, op)
			}
		case spirvlike.Load:
			if pt, ok := op.Operand(0).Type().(*ir.PointerType); ok && pt.Element == f64 {
				loads = append(loads, op)
			}
		case spirvlike.Store:
			if pt, ok := op.Operand(0).Type().(*ir.PointerType); ok && pt.Element == f64 {
				stores = append(stores, op)
			}
		case gpu.Launch:
			launches = append(launches, op)
		}
	})

	for _, op := range chains {
		pt := op.Result(0).Type().(*ir.PointerType)
		op.Result(0).SetType(ctx.Intern(&ir.PointerType{Element: vec2i32, Space: pt.Space}))
	}
	for _, op := range loads {
		degradeLoad(ctx, op, vec2i32, f32)
	}
	for _, op := range stores {
		degradeStore(ctx, op, vec2i32)
	}
	for _, op := range launches {
		degradeLaunchArgs(ctx, op, f64, f32)
	}
}

// degradeLoad retypes a now-vector<2xi32>-pointee load's own result to
// match, then unpacks the loaded bits to the f32 value its users
// actually expect.
func degradeLoad(ctx *ir.Context, op *ir.Operation, vec2i32, f32 ir.Type) {
	op.Result(0).SetType(vec2i32)
	unpack := ir.NewOp(ctx, spirvlike.UnpackF64, []*ir.Value{op.Result(0)}, []ir.Type{f32}, nil)
	ir.InsertAfter(op, unpack)
	ir.ReplaceAllUsesWith(op.Result(0), unpack.Result(0), unpack)
}

// degradeStore packs the f32 value being stored into the vector<2xi32>
// bit pattern its now-degraded pointer expects.
func degradeStore(ctx *ir.Context, op *ir.Operation, vec2i32 ir.Type) {
	value := op.Operand(1)
	pack := ir.NewOp(ctx, spirvlike.PackF64, []*ir.Value{value}, []ir.Type{vec2i32}, nil)
	ir.InsertBefore(op, pack)
	op.SetOperand(1, pack.Result(0))
}

// degradeLaunchArgs truncates every f64-typed captured operand of a
// gpu.launch to f32 before the launch, retyping the matching block
// argument to match (spec.md §4.6.6 "host-side launch sites cast f64
// arguments to f32"). Operands 0-5 are the grid/block dims and are
// always index-typed, never f64.
func degradeLaunchArgs(ctx *ir.Context, launch *ir.Operation, f64, f32 ir.Type) {
	block := launch.Regions()[0].Entry()
	for i := 6; i < launch.NumOperands(); i++ {
		operand := launch.Operand(i)
		if operand.Type() != f64 {
			continue
		}
		trunc := ir.NewOp(ctx, arith.TruncF, []*ir.Value{operand}, []ir.Type{f32}, nil)
		ir.InsertBefore(launch, trunc)
		launch.SetOperand(i, trunc.Result(0))
		block.Arg(i).SetType(f32)
	}
}
