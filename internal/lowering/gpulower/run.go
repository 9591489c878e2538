package gpulower

import "plierc/internal/ir"

// Config bundles the device-capability knobs Run threads through the
// GPU lowering pipeline of spec.md §4.6.
type Config struct {
	// HasF64 reports whether the target device supports native double
	// precision; false triggers DegradeF64 (§4.6.6).
	HasF64 bool
	// Suggest overrides the per-axis block-size heuristic
	// TileParallelLoops uses (§4.6.3); nil selects
	// DefaultBlockSizeSuggester.
	Suggest BlockSizeSuggester
}

// Run lowers every gpu.env_region inside f's body end to end, in the
// fixed order spec.md §4.6's substages are numbered in: buffer
// classification and allocation insertion (§4.6.1-2), parallel-loop
// tiling (§4.6.3), memref flattening (§4.6.4), SPIR-V conversion
// (§4.6.5), f64 degrade (§4.6.6), kernel outlining (§4.6.7), and ABI/
// capability attachment (§4.6.8). Each substage assumes the previous
// one has already run, per their own doc comments.
func Run(ctx *ir.Context, f *ir.Operation, cfg Config) error {
	buffers, err := ClassifyBuffers(ctx, f)
	if err != nil {
		return err
	}
	InsertAllocations(ctx, f, buffers)
	TileParallelLoops(ctx, f, cfg.Suggest)
	FlattenMemrefs(ctx, f)
	if err := ConvertToSpirvLike(ctx, f); err != nil {
		return err
	}
	DegradeF64(ctx, f, cfg.HasF64)
	OutlineKernels(ctx, f)
	AttachABI(ctx, f)
	return nil
}
