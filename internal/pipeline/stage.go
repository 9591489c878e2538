// Package pipeline schedules the named lowering stages of spec.md §4.7:
// each stage declares its predecessors and the earlier stages it is
// allowed to jump back to, the registry orders them topologically, and
// a Runner executes them in order while honoring jump-marker requests
// up to a revisit cap.
package pipeline

import "plierc/internal/ir"

// Populate appends the passes a stage runs to pm. Stages receive a
// fresh PassManager each time they run, so a populator closing over
// per-run state (a TypeConverter, a ConversionTarget) must build that
// state itself rather than share it across runs.
type Populate func(pm *PassManager)

// Stage is a named point in the pipeline graph: (name, predecessors,
// jumpTargets, successors, populator), matching spec.md §4.7 exactly.
// Predecessors and Successors both describe ordering edges; a
// dependency need only be declared on one side, but Register accepts
// either (or both, if they agree).
type Stage struct {
	// Name identifies the stage. Must be unique within a Registry and
	// is what JumpTargets and other stages' Predecessors/Successors
	// reference.
	Name string
	// Predecessors are stage names that must run, in full, before this
	// stage starts.
	Predecessors []string
	// Successors are stage names that must run after this stage. Purely
	// a convenience for declaring an edge from the upstream side;
	// Register folds it into the same graph Predecessors builds.
	Successors []string
	// JumpTargets are the earlier stage names this stage is allowed to
	// request a re-run of, via plierstd.AddPipelineJumpMarker-shaped
	// module attributes (spec.md §4.5).
	JumpTargets []string
	// Populate appends this stage's passes to a PassManager. Required.
	Populate Populate
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

func appendUnique(xs []string, x string) []string {
	if contains(xs, x) {
		return xs
	}
	return append(xs, x)
}

// run builds a fresh PassManager, appends this stage's passes, and
// executes them against mod, verifying around every pass when verify
// is set.
func (s *Stage) run(ctx *ir.Context, mod *ir.Operation, verify bool, hook Hook) error {
	pm := &PassManager{}
	s.Populate(pm)
	return pm.execute(ctx, mod, verify, s.Name, hook)
}
