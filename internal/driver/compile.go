package driver

import (
	"fmt"

	"github.com/pkg/errors"

	"plierc/internal/diag"
	"plierc/internal/dialect/fn"
	"plierc/internal/inline"
	"plierc/internal/lowering/gpulower"
	"plierc/internal/lowering/plierstd"
	"plierc/internal/pipeline"

	"plierc/internal/ir"
)

// Stable pass names, spec.md §6. A driver, a -print-before/-print-after
// flag, or a jump marker all name stages by these strings.
const (
	StagePlierToSCF    = "plier-to-scf"
	StagePlierToStd    = "plier-to-std"
	StagePlierToLinalg = "plier-to-linalg"
	StageParallelToTBB = "parallel-to-tbb"
	StageLowerToGPU    = "lower-to-gpu"
	StageLowerToLLVM   = "lower-to-llvm"
)

// Resolvers bundles the three call-resolution tiers plierstd.Run needs
// (spec.md §4.5); a caller with no library or external symbols to
// resolve can leave the corresponding field nil.
type Resolvers struct {
	Global   plierstd.GlobalResolver
	Library  plierstd.LibraryResolver
	External plierstd.ExternalResolver
}

// Result is everything a successful Compile hands back: the final
// module, the loaded native handle (nil if loader was nil), and the
// emitted assembly bytes (nil if emitter was nil).
type Result struct {
	Module   *ir.Operation
	Handle   Handle
	Assembly []byte
}

// Compile runs spec.md §4.8's full pipeline over source: ingest, then
// the six stable-named stages in dependency order, then (optionally)
// native loading and assembly emission. Every diagnostic produced along
// the way is accumulated in the returned Handler rather than dropped;
// Compile returns a non-nil error only once the Handler reports an
// error-level diagnostic or a stage itself fails outright.
//
// loader and emitter may be nil, in which case loading/emission is
// skipped and the corresponding Result field is left zero.
func Compile(ctx *ir.Context, cfg Config, ingester Ingester, source, entryPoint string, resolvers Resolvers, loader NativeLoader, emitter AssemblyEmitter) (*Result, *diag.Handler, error) {
	handler := diag.NewHandler()

	mod, err := ingester.Ingest(ctx, source, entryPoint)
	if err != nil {
		d := diag.FromError(diag.LevelError, diag.User, diag.CodeUserIngestionFailure, ir.Unknown, err)
		handler.Report(d)
		return nil, handler, errors.Wrap(err, "driver: ingestion failed")
	}

	registry, err := newRegistry(cfg, resolvers)
	if err != nil {
		return nil, handler, errors.Wrap(err, "driver: building pipeline registry")
	}

	runner := pipeline.NewRunner(registry)
	runner.Verify = cfg.Verify
	runner.Hook = printHook(cfg)

	if err := runner.Run(ctx, mod); err != nil {
		handler.Report(diag.FromError(diag.LevelError, diag.Structural, diag.CodeVerifierInvariant, ir.Unknown, err))
		return nil, handler, errors.Wrap(err, "driver: pipeline run failed")
	}

	result := &Result{Module: mod}

	if loader != nil {
		h, err := loader.LoadModule(ctx, mod)
		if err != nil {
			handler.Report(diag.FromError(diag.LevelError, diag.User, diag.CodeUserExternalSymbolNotFound, ir.Unknown, err))
			return nil, handler, errors.Wrap(err, "driver: loading compiled module")
		}
		result.Handle = h
	}

	if emitter != nil {
		asm, err := emitter.Emit(ctx, mod)
		if err != nil {
			return nil, handler, errors.Wrap(err, "driver: assembly emission failed")
		}
		result.Assembly = asm
	}

	return result, handler, nil
}

// newRegistry builds the six-stage registry in the fixed dependency
// chain plier-to-scf -> plier-to-std -> plier-to-linalg ->
// parallel-to-tbb -> lower-to-gpu -> lower-to-llvm, matching spec.md
// §6's stable pass-name list. plier-to-linalg and parallel-to-tbb have
// no corresponding A-H component in this module, so they run as
// documented no-op placeholders rather than contrived real work.
func newRegistry(cfg Config, resolvers Resolvers) (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()

	if err := reg.Register(pipeline.Stage{
		Name:        StagePlierToSCF,
		JumpTargets: []string{},
		Populate: func(pm *pipeline.PassManager) {
			pm.Append("force-inline", func(ctx *ir.Context, mod *ir.Operation) error {
				if !cfg.ForceInline {
					return nil
				}
				return inline.Run(ctx, mod)
			})
		},
	}); err != nil {
		return nil, err
	}

	if err := reg.Register(pipeline.Stage{
		Name:         StagePlierToStd,
		Predecessors: []string{StagePlierToSCF},
		// plierstd.CallPattern re-adds a jump marker naming
		// plier-to-scf when a Library-tier call needs another
		// force-inline pass before it can resolve (spec.md §4.5).
		JumpTargets: []string{StagePlierToSCF},
		Populate: func(pm *pipeline.PassManager) {
			pm.Append("plier-to-std", func(ctx *ir.Context, mod *ir.Operation) error {
				return plierstd.Run(ctx, mod, plierstd.Config{
					Global:   resolvers.Global,
					Library:  resolvers.Library,
					External: resolvers.External,
					Partial:  cfg.OptLevel == 0,
				})
			})
		},
	}); err != nil {
		return nil, err
	}

	if err := reg.Register(pipeline.Stage{
		Name:         StagePlierToLinalg,
		Predecessors: []string{StagePlierToStd},
		Populate: func(pm *pipeline.PassManager) {
			// No linalg-level component exists in this module yet;
			// this stage is a documented placeholder that keeps the
			// stable pass name addressable by -print-before/-print-
			// after and by jump markers without doing any rewriting.
			pm.Append("plier-to-linalg", func(ctx *ir.Context, mod *ir.Operation) error {
				return nil
			})
		},
	}); err != nil {
		return nil, err
	}

	if err := reg.Register(pipeline.Stage{
		Name:         StageParallelToTBB,
		Predecessors: []string{StagePlierToLinalg},
		Populate: func(pm *pipeline.PassManager) {
			pm.Append("parallel-to-tbb", func(ctx *ir.Context, mod *ir.Operation) error {
				return nil
			})
		},
	}); err != nil {
		return nil, err
	}

	if err := reg.Register(pipeline.Stage{
		Name:         StageLowerToGPU,
		Predecessors: []string{StageParallelToTBB},
		Populate: func(pm *pipeline.PassManager) {
			pm.Append("lower-to-gpu", func(ctx *ir.Context, mod *ir.Operation) error {
				if !cfg.EnableGpuPipeline {
					return nil
				}
				for _, op := range ir.Body(mod).Entry().Operations() {
					if op.Name != fn.Func {
						continue
					}
					if err := gpulower.Run(ctx, op, gpulower.Config{HasF64: !cfg.Fastmath}); err != nil {
						name, _ := symbolName(op)
						return fmt.Errorf("driver: lower-to-gpu on %q: %w", name, err)
					}
				}
				return nil
			})
		},
	}); err != nil {
		return nil, err
	}

	if err := reg.Register(pipeline.Stage{
		Name:         StageLowerToLLVM,
		Predecessors: []string{StageLowerToGPU},
		Populate: func(pm *pipeline.PassManager) {
			// Assembly emission itself happens after the pipeline run
			// finishes (Compile calls the AssemblyEmitter directly) so
			// it can return the emitted bytes; this stage exists only
			// so the name is addressable in the schedule and by hooks.
			pm.Append("lower-to-llvm", func(ctx *ir.Context, mod *ir.Operation) error {
				return nil
			})
		},
	}); err != nil {
		return nil, err
	}

	return reg, nil
}

// printHook implements -print-before/-print-after by printing pass
// boundaries named in cfg.PrintBefore/cfg.PrintAfter to stderr. It
// prints a one-line op census rather than a full textual dump of the
// module.
func printHook(cfg Config) pipeline.Hook {
	if len(cfg.PrintBefore) == 0 && len(cfg.PrintAfter) == 0 {
		return nil
	}
	return func(event pipeline.Event, stageName, passName string, ctx *ir.Context, mod *ir.Operation) {
		switch event {
		case pipeline.Before:
			if contains(cfg.PrintBefore, stageName) {
				fmt.Printf("; -- before %s / %s -- (%d top-level ops)\n", stageName, passName, len(ir.Body(mod).Entry().Operations()))
			}
		case pipeline.After:
			if contains(cfg.PrintAfter, stageName) {
				fmt.Printf("; -- after %s / %s -- (%d top-level ops)\n", stageName, passName, len(ir.Body(mod).Entry().Operations()))
			}
		}
	}
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
