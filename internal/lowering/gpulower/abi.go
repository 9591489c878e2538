package gpulower

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
)

const (
	capabilitiesAttr = "capabilities"
	extensionsAttr   = "extensions"
)

// AttachABI attaches an entry-point ABI workgroup-size attribute to
// every outlined kernel gpu.func and the default SPIR-V capability/
// extension set plus a serialized blob to its owning gpu.module
// (spec.md §4.6.8). OutlineKernels must already have run. Workgroup
// size is read back off each gpu.kernel_launch's block-dimension
// operands, which are always arith.constant index values (tileOne only
// ever builds a gpu.launch with constant-folded block sizes).
func AttachABI(ctx *ir.Context, f *ir.Operation) {
	module := siblingModule(f)
	if module == nil {
		return
	}
	moduleBlock := module.Regions()[0].Entry()

	module.SetAttr(capabilitiesAttr, spirvlike.CapabilitiesAttr(ctx))
	module.SetAttr(extensionsAttr, spirvlike.ExtensionsAttr(ctx))

	kernels := make(map[string]*ir.Operation)
	for _, op := range moduleBlock.Operations() {
		if op.Name == gpu.Func {
			kernels[symName(op)] = op
		}
	}

	ir.WalkRegion(f.Regions()[0], ir.PreOrder, func(op *ir.Operation) {
		if op.Name != gpu.KernelLaunch {
			return
		}
		kernel, ok := kernels[kernelNameFor(op)]
		if !ok {
			return
		}
		kernel.SetAttr(gpu.EntryPointABIAttr, &ir.DenseIntArrayAttr{Values: workgroupSizeOf(op)})
	})

	module.SetAttr(gpu.SpirvBlobAttr, ctx.InternAttr(&ir.StringAttr{Value: serializeSpirvBlob(moduleBlock)}))
}

// siblingModule finds the gpu.module OutlineKernels inserted immediately
// after f.
func siblingModule(f *ir.Operation) *ir.Operation {
	sibling := nextOp(f)
	if sibling == nil || sibling.Name != gpu.Module {
		return nil
	}
	return sibling
}

func nextOp(op *ir.Operation) *ir.Operation {
	ops := op.Block().Operations()
	for i, candidate := range ops {
		if candidate == op {
			if i+1 < len(ops) {
				return ops[i+1]
			}
			return nil
		}
	}
	return nil
}

func kernelNameFor(launch *ir.Operation) string {
	def := launch.Operand(1).DefiningOp()
	if def == nil {
		return ""
	}
	a, ok := def.Attr(gpu.KernelNameAttr)
	if !ok {
		return ""
	}
	s, ok := a.(*ir.StringAttr)
	if !ok {
		return ""
	}
	return s.Value
}

// workgroupSizeOf reads a gpu.kernel_launch's three block-dimension
// operands (dispatch operands 5-7: stream, handle, 3 grid dims, then
// block dims) as constant-folded extents, defaulting an unexpectedly
// non-constant dim to 1.
func workgroupSizeOf(launch *ir.Operation) []int64 {
	sizes := make([]int64, 3)
	for i := 0; i < 3; i++ {
		sizes[i] = constIndexValue(launch.Operand(5 + i))
	}
	return sizes
}

func constIndexValue(v *ir.Value) int64 {
	def := v.DefiningOp()
	if def == nil || def.Name != arith.Constant {
		return 1
	}
	a, ok := def.Attr("value")
	if !ok {
		return 1
	}
	ia, ok := a.(*ir.IntegerAttr)
	if !ok {
		return 1
	}
	return ia.Value
}

// serializeSpirvBlob stands in for a real SPIR-V binary assembler (out
// of scope per spec.md §1): it deterministically fingerprints the
// module's kernel symbol names, giving downstream stages (the driver's
// NativeLoader stub, its tests) something stable to load and compare
// without depending on an actual device compiler.
func serializeSpirvBlob(moduleBlock *ir.Block) string {
	var names []string
	for _, op := range moduleBlock.Operations() {
		if op.Name == gpu.Func {
			names = append(names, symName(op))
		}
	}
	sum := sha256.Sum256([]byte(strings.Join(names, "\x00")))
	return hex.EncodeToString(sum[:])
}
