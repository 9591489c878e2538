// Package driver implements the execution driver of spec.md §4.8:
// ingestion, verification, and the pass pipeline run under an
// accumulating diagnostic-handler scope, grounded on
// cmd/kanso-cli/main.go's "read source, time the run, run stages,
// print diagnostics" shape plus internal/errors.ErrorReporter.
package driver

import "plierc/internal/ir"

// Ingester is spec.md §6's ingestion interface (consumed): given a
// source string and an entry-point name, returns a freshly constructed
// module in the high-level dialect. internal/frontend.Ingester is the
// concrete reference implementation.
type Ingester interface {
	Ingest(ctx *ir.Context, source, entryPoint string) (*ir.Operation, error)
}

// NativeLoader is spec.md §6's native loader interface (consumed).
type NativeLoader interface {
	LoadModule(ctx *ir.Context, module *ir.Operation) (Handle, error)
	Lookup(handle Handle, symbolName string) (uintptr, error)
	Release(handle Handle) error
	DumpToObject(handle Handle, path string) error
}

// Handle is an opaque loaded-module token, compared only by equality.
type Handle interface{}

// DeviceLauncher is spec.md §6's device launcher interface (consumed):
// opaque stream tokens, kernel handles, launch(stream, kernel, grid,
// block, operands), alloc/dealloc with a hostShared flag.
type DeviceLauncher interface {
	CreateStream() (Stream, error)
	DestroyStream(Stream) error
	GetKernel(handle Handle, name string) (Kernel, error)
	Launch(stream Stream, kernel Kernel, grid, block [3]int64, operands []uintptr) error
	Alloc(size int64, hostShared bool) (uintptr, error)
	Dealloc(ptr uintptr) error
}

// Stream and Kernel are opaque device-launcher tokens.
type Stream interface{}
type Kernel interface{}

// AssemblyEmitter is the third consumed collaborator (SPEC_FULL.md §6):
// it takes the fully-lowered module and produces whatever the
// "lower-to-llvm" stable pass name conceptually hands off to a real
// backend — out of scope per spec.md §1's Non-goals, so this is the
// seam a real backend would plug into.
type AssemblyEmitter interface {
	Emit(ctx *ir.Context, module *ir.Operation) ([]byte, error)
}
