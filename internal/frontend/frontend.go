package frontend

import "plierc/internal/ir"

// Ingester is the reference driver.Ingester implementation: it scans,
// parses, and lowers a Python-subset source string to a builtin.module
// of plier/func ops, ignoring entryPoint (every def in source becomes
// a symbol; the driver's own entryPoint only matters for the native
// loader and the assembly emitter downstream).
type Ingester struct{}

// Ingest implements driver.Ingester.
func (Ingester) Ingest(ctx *ir.Context, source, entryPoint string) (*ir.Operation, error) {
	astMod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Lower(ctx, astMod)
}
