package gpulower

import (
	"fmt"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
)

// Builtin callee names ConvertToSpirvLike recognizes on a func.call
// inside a gpu.launch region, standing in for the intrinsic functions
// ConvertAtomicOps/ConvertBarrierOp/ConvertMemFenceOp/ConvertAllReduceOp
// pattern-match on by name (spec.md §4.6.5).
const (
	BuiltinAtomicAdd   = "atomic_add"
	BuiltinAtomicSub   = "atomic_sub"
	BuiltinBarrier     = "barrier"
	BuiltinMemFence    = "mem_fence"
	BuiltinGroupReduce = "group_reduce"

	// FlagsAttr names the fence-scope StringAttr a barrier/mem_fence call
	// carries: FenceGlobal or FenceLocal.
	FlagsAttr   = "flags"
	FenceGlobal = "global"
	FenceLocal  = "local"
)

// ConvertToSpirvLike rewrites the SPIR-V-reachable op surface inside
// every gpu.launch region of f (spec.md §4.6.5): every memref.load/
// store becomes a pointer access chain plus an aligned spirvlike load/
// store, and a recognized atomic/barrier/fence/reduce builtin call
// becomes its spirvlike equivalent. FlattenMemrefs must already have
// run, so every remaining load/store here is rank 0 or 1. Unlike the
// pattern this is grounded on, rank 0 is not special-cased: an access
// chain with zero index operands stands in uniformly for "the pointer
// is the base itself".
func ConvertToSpirvLike(ctx *ir.Context, f *ir.Operation) error {
	body := f.Regions()[0]
	var loads, stores, calls []*ir.Operation
	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if enclosingLaunch(op) == nil {
			return
		}
		switch op.Name {
		case memref.Load:
			loads = append(loads, op)
		case memref.Store:
			stores = append(stores, op)
		case fn.Call:
			calls = append(calls, op)
		}
	})

	for _, op := range loads {
		convertLoad(ctx, op)
	}
	for _, op := range stores {
		convertStore(ctx, op)
	}
	for _, op := range calls {
		if err := convertCall(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func accessChainFor(ctx *ir.Context, anchor *ir.Operation, memrefVal *ir.Value, indices []*ir.Value) *ir.Value {
	t := memrefVal.Type().(*ir.MemRefType)
	ptrType := ctx.Intern(&ir.PointerType{Element: t.Element, Space: t.Space}).(*ir.PointerType)
	operands := append([]*ir.Value{memrefVal}, indices...)
	chain := ir.NewOp(ctx, spirvlike.AccessChain, operands, []ir.Type{ptrType}, nil)
	ir.InsertBefore(anchor, chain)
	return chain.Result(0)
}

func alignmentFor(t ir.Type) int64 {
	switch v := t.(type) {
	case *ir.IntegerType:
		return int64(v.Width / 8)
	case *ir.FloatType:
		return int64(v.Width / 8)
	default:
		return 4
	}
}

func alignmentAttr(ctx *ir.Context, t ir.Type) ir.Attribute {
	return ctx.InternAttr(&ir.IntegerAttr{Value: alignmentFor(t), Type: ctx.IntegerType(32, ir.Signless)})
}

func convertLoad(ctx *ir.Context, op *ir.Operation) {
	memrefVal := op.Operand(0)
	indices := op.Operands()[1:]
	ptr := accessChainFor(ctx, op, memrefVal, indices)
	newLoad := ir.NewOp(ctx, spirvlike.Load, []*ir.Value{ptr}, []ir.Type{op.Result(0).Type()}, map[string]ir.Attribute{
		spirvlike.AlignmentAttr: alignmentAttr(ctx, memrefVal.Type().(*ir.MemRefType).Element),
	})
	ir.InsertBefore(op, newLoad)
	ir.ReplaceAllUsesWith(op.Result(0), newLoad.Result(0))
	ir.Erase(op)
}

func convertStore(ctx *ir.Context, op *ir.Operation) {
	value := op.Operand(0)
	memrefVal := op.Operand(1)
	indices := op.Operands()[2:]
	ptr := accessChainFor(ctx, op, memrefVal, indices)
	newStore := ir.NewOp(ctx, spirvlike.Store, []*ir.Value{ptr, value}, nil, map[string]ir.Attribute{
		spirvlike.AlignmentAttr: alignmentAttr(ctx, memrefVal.Type().(*ir.MemRefType).Element),
	})
	ir.InsertBefore(op, newStore)
	ir.Erase(op)
}

func convertCall(ctx *ir.Context, op *ir.Operation) error {
	switch fn.Callee(op) {
	case BuiltinAtomicAdd, BuiltinAtomicSub:
		return convertAtomic(ctx, op)
	case BuiltinBarrier:
		return convertFence(ctx, op, spirvlike.ControlBarrier)
	case BuiltinMemFence:
		return convertFence(ctx, op, spirvlike.MemoryBarrier)
	case BuiltinGroupReduce:
		return convertGroupReduce(ctx, op)
	default:
		return nil
	}
}

// convertAtomic rewrites an atomic_add/atomic_sub builtin call against
// a memref location into an access chain plus a scope-Device atomic.
// A float subtract is modeled as a negate followed by AtomicAdd
// (spirvlike.AtomicSub's documented sign-on-zero quirk, spec.md §9).
func convertAtomic(ctx *ir.Context, op *ir.Operation) error {
	memrefVal := op.Operand(0)
	t, ok := memrefVal.Type().(*ir.MemRefType)
	if !ok {
		return fmt.Errorf("gpulower: %s target is not a memref", fn.Callee(op))
	}
	rank := t.Rank()
	if op.NumOperands() != rank+2 {
		return fmt.Errorf("gpulower: %s expects a memref, %d indices, and a value", fn.Callee(op), rank)
	}
	indices := op.Operands()[1 : 1+rank]
	value := op.Operand(1 + rank)
	ptr := accessChainFor(ctx, op, memrefVal, indices)

	kind := spirvlike.AtomicAdd
	v := value
	if fn.Callee(op) == BuiltinAtomicSub {
		if isFloatType(value.Type()) {
			neg := ir.NewOp(ctx, arith.NegF, []*ir.Value{value}, []ir.Type{value.Type()}, nil)
			ir.InsertBefore(op, neg)
			v = neg.Result(0)
		} else {
			kind = spirvlike.AtomicSub
		}
	}

	atomic := ir.NewOp(ctx, kind, []*ir.Value{ptr, v}, []ir.Type{op.Result(0).Type()}, map[string]ir.Attribute{
		spirvlike.ScopeAttr: ctx.InternAttr(&ir.StringAttr{Value: spirvlike.ScopeDevice}),
	})
	ir.InsertBefore(op, atomic)
	ir.ReplaceAllUsesWith(op.Result(0), atomic.Result(0))
	ir.Erase(op)
	return nil
}

// convertFence rewrites a barrier/mem_fence builtin call into the
// matching spirvlike op: Workgroup scope throughout, with "Sequentially
// Consistent" ORed with CrossWorkgroup or Workgroup memory semantics
// depending on the call's "flags" attribute (spec.md §4.6.5).
func convertFence(ctx *ir.Context, op *ir.Operation, kind ir.OpKind) error {
	flagsAttr, ok := op.Attr(FlagsAttr)
	if !ok {
		return fmt.Errorf("gpulower: %s missing %q attribute", fn.Callee(op), FlagsAttr)
	}
	flags, ok := flagsAttr.(*ir.StringAttr)
	if !ok {
		return fmt.Errorf("gpulower: %s %q attribute is not a string", fn.Callee(op), FlagsAttr)
	}

	var semantics string
	switch flags.Value {
	case FenceGlobal:
		semantics = spirvlike.SemanticsCrossWorkgroup
	case FenceLocal:
		semantics = spirvlike.SemanticsWorkgroupMemory
	default:
		return fmt.Errorf("gpulower: %s unknown fence flag %q", fn.Callee(op), flags.Value)
	}

	fence := ir.NewOp(ctx, kind, nil, nil, map[string]ir.Attribute{
		spirvlike.ScopeAttr:     ctx.InternAttr(&ir.StringAttr{Value: spirvlike.ScopeWorkgroup}),
		spirvlike.SemanticsAttr: ctx.InternAttr(&ir.StringAttr{Value: semantics}),
	})
	ir.InsertBefore(op, fence)
	ir.Erase(op)
	return nil
}

// convertGroupReduce rewrites a group_reduce builtin call into
// spirvlike.GroupReduce, failing for any kind but "add" (spec.md §9's
// resolved Open Question: only group-add reductions are supported).
func convertGroupReduce(ctx *ir.Context, op *ir.Operation) error {
	kindAttr, ok := op.Attr(spirvlike.KindAttr)
	if !ok {
		return fmt.Errorf("gpulower: %s missing %q attribute", fn.Callee(op), spirvlike.KindAttr)
	}
	kind, ok := kindAttr.(*ir.StringAttr)
	if !ok || kind.Value != spirvlike.ReduceAdd {
		return fmt.Errorf("gpulower: unsupported group reduction kind %v", kindAttr)
	}

	reduce := ir.NewOp(ctx, spirvlike.GroupReduce, op.Operands(), []ir.Type{op.Result(0).Type()}, map[string]ir.Attribute{
		spirvlike.KindAttr: ctx.InternAttr(&ir.StringAttr{Value: spirvlike.ReduceAdd}),
	})
	ir.InsertBefore(op, reduce)
	ir.ReplaceAllUsesWith(op.Result(0), reduce.Result(0))
	ir.Erase(op)
	return nil
}

func isFloatType(t ir.Type) bool {
	_, ok := t.(*ir.FloatType)
	return ok
}
