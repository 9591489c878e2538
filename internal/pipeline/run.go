package pipeline

import (
	"fmt"

	"plierc/internal/ir"
)

// JumpMarkersAttr is the module-level ArrayAttr-of-StringAttr a pass
// appends to when it wants an earlier stage re-run (spec.md §4.5). It
// intentionally matches plierstd.JumpMarkersAttr's string exactly by
// convention rather than by import: lowering passes are producers of
// jump requests and live below this package, which is the generic
// consumer and must not depend on any one lowering package's stages.
const JumpMarkersAttr = "pipeline.jump_markers"

// DefaultRevisitCap bounds how many times Run will jump back to the
// same stage before giving up, mirroring convert.maxIterations and
// pattern.DefaultIterationCap's worklist caps (spec.md §7 "fixpoint
// failure").
const DefaultRevisitCap = 4

// Runner drives a Registry's stages to completion over a module.
type Runner struct {
	Registry *Registry
	// Verify, when true, runs ir.Verify before and after every pass.
	Verify bool
	// Hook, if set, observes every pass boundary across every stage.
	Hook Hook
	// RevisitCap overrides DefaultRevisitCap when non-zero.
	RevisitCap int
}

// NewRunner returns a Runner over r with verification enabled and the
// default revisit cap, matching spec.md §5's "verifier runs before and
// optionally between passes".
func NewRunner(r *Registry) *Runner {
	return &Runner{Registry: r, Verify: true}
}

// Run computes the registry's stage order and executes it against mod,
// consuming jump markers as stages produce them. A marker naming a
// stage in the currently-finished stage's JumpTargets rewinds execution
// to that stage's position in the order; a target revisited more than
// RevisitCap times is a fixpoint failure.
func (rn *Runner) Run(ctx *ir.Context, mod *ir.Operation) error {
	order, err := rn.Registry.Order()
	if err != nil {
		return err
	}
	indexOf := make(map[string]int, len(order))
	for i, name := range order {
		indexOf[name] = i
	}

	revisitCap := rn.RevisitCap
	if revisitCap == 0 {
		revisitCap = DefaultRevisitCap
	}
	revisits := make(map[string]int)

	for i := 0; i < len(order); i++ {
		name := order[i]
		stage := rn.Registry.stages[name]

		if err := stage.run(ctx, mod, rn.Verify, rn.Hook); err != nil {
			return err
		}

		target, ok := consumeJumpMarker(ctx, mod, stage.JumpTargets)
		if !ok {
			continue
		}
		targetIdx, ok := indexOf[target]
		if !ok {
			return fmt.Errorf("pipeline: stage %q requested a jump to %q, which is not in the schedule", name, target)
		}
		revisits[target]++
		if revisits[target] > revisitCap {
			return fmt.Errorf("pipeline: stage %q revisited more than %d time(s) without reaching a fixpoint", target, revisitCap)
		}
		i = targetIdx - 1 // the loop's i++ lands back on targetIdx
	}
	return nil
}

// consumeJumpMarker reads mod's JumpMarkersAttr and, if any marker
// matches one of allowed, removes that single marker from the list and
// returns its name. Other markers (requested by other stages, or not
// yet actionable) are left in place.
func consumeJumpMarker(ctx *ir.Context, mod *ir.Operation, allowed []string) (string, bool) {
	existing, ok := mod.Attr(JumpMarkersAttr)
	if !ok {
		return "", false
	}
	arr, ok := existing.(*ir.ArrayAttr)
	if !ok {
		return "", false
	}

	for i, e := range arr.Elements {
		s, ok := e.(*ir.StringAttr)
		if !ok || !contains(allowed, s.Value) {
			continue
		}
		remaining := make([]ir.Attribute, 0, len(arr.Elements)-1)
		remaining = append(remaining, arr.Elements[:i]...)
		remaining = append(remaining, arr.Elements[i+1:]...)
		if len(remaining) == 0 {
			mod.RemoveAttr(JumpMarkersAttr)
		} else {
			mod.SetAttr(JumpMarkersAttr, ctx.InternAttr(&ir.ArrayAttr{Elements: remaining}))
		}
		return s.Value, true
	}
	return "", false
}
