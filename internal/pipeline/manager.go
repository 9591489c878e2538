package pipeline

import (
	"github.com/pkg/errors"

	"plierc/internal/ir"
)

// Pass is one named transformation a stage's populator appends.
type Pass struct {
	Name string
	Run  func(ctx *ir.Context, mod *ir.Operation) error
}

// PassManager accumulates the passes a single stage run executes, in
// order, against the whole module (spec.md §4.7 "Populators receive a
// pass manager and append passes").
type PassManager struct {
	passes []Pass
}

// Append registers a pass under name. Passes within a stage run in the
// order they were appended.
func (pm *PassManager) Append(name string, run func(ctx *ir.Context, mod *ir.Operation) error) {
	pm.passes = append(pm.passes, Pass{Name: name, Run: run})
}

// Event names the two points a Hook is invoked around a pass.
type Event int

const (
	Before Event = iota
	After
)

// Hook observes pass boundaries, letting a driver implement §6's
// print-before/print-after CLI switches and dump-on-failure without
// this package depending on a textual printer. May be nil.
type Hook func(event Event, stageName, passName string, ctx *ir.Context, mod *ir.Operation)

func (pm *PassManager) execute(ctx *ir.Context, mod *ir.Operation, verify bool, stageName string, hook Hook) error {
	for _, p := range pm.passes {
		if hook != nil {
			hook(Before, stageName, p.Name, ctx, mod)
		}
		if verify {
			if err := ir.Verify(ctx, mod); err != nil {
				return errors.Wrapf(err, "pipeline: verifier rejected module before stage %q pass %q", stageName, p.Name)
			}
		}
		if err := p.Run(ctx, mod); err != nil {
			return errors.Wrapf(err, "pipeline: stage %q pass %q failed", stageName, p.Name)
		}
		if hook != nil {
			hook(After, stageName, p.Name, ctx, mod)
		}
	}
	if verify {
		if err := ir.Verify(ctx, mod); err != nil {
			return errors.Wrapf(err, "pipeline: verifier rejected module after stage %q", stageName)
		}
	}
	return nil
}
