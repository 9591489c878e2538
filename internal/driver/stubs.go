package driver

import (
	"fmt"
	"os"
	"sync"

	"plierc/internal/ir"
)

// StubLoader is a deterministic in-memory NativeLoader used by tests
// and the REPL, never a real LLVM ORC loader (out of scope per
// spec.md §1's Non-goals — SPEC_FULL.md §6).
type StubLoader struct {
	mu      sync.Mutex
	handles map[Handle]*stubModule
	next    int
}

type stubModule struct {
	module  *ir.Operation
	symbols map[string]uintptr
}

// NewStubLoader returns an empty StubLoader.
func NewStubLoader() *StubLoader {
	return &StubLoader{handles: make(map[Handle]*stubModule)}
}

// LoadModule "loads" module by recording it under a fresh handle and
// assigning every symbol-table entry a deterministic fake address
// (its 1-based index in declaration order), so repeated runs over the
// same module produce the same addresses.
func (l *StubLoader) LoadModule(ctx *ir.Context, module *ir.Operation) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	symbols := make(map[string]uintptr)
	var i uintptr
	for _, op := range ir.Body(module).Entry().Operations() {
		name, ok := symbolName(op)
		if !ok {
			continue
		}
		i++
		symbols[name] = i
	}

	l.next++
	h := stubHandle(l.next)
	l.handles[h] = &stubModule{module: module, symbols: symbols}
	return h, nil
}

// Lookup returns symbolName's fake address within handle's module.
func (l *StubLoader) Lookup(handle Handle, symbolName string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mod, ok := l.handles[handle]
	if !ok {
		return 0, fmt.Errorf("driver: unknown handle %v", handle)
	}
	addr, ok := mod.symbols[symbolName]
	if !ok {
		return 0, fmt.Errorf("driver: symbol %q not found", symbolName)
	}
	return addr, nil
}

// Release forgets handle.
func (l *StubLoader) Release(handle Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.handles[handle]; !ok {
		return fmt.Errorf("driver: unknown handle %v", handle)
	}
	delete(l.handles, handle)
	return nil
}

// DumpToObject writes the op name of handle's module, as one line of
// plain text, to path, standing in for a real object-file writer.
func (l *StubLoader) DumpToObject(handle Handle, path string) error {
	l.mu.Lock()
	mod, ok := l.handles[handle]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("driver: unknown handle %v", handle)
	}
	return os.WriteFile(path, []byte(mod.module.Name+"\n"), 0o644)
}

type stubHandle int

// StubLauncher is a deterministic in-memory DeviceLauncher: every
// stream/kernel is a sequence number, every launch is recorded rather
// than executed, and every alloc hands back a fake, strictly
// increasing address. Never a real CUDA/Level Zero driver.
type StubLauncher struct {
	mu       sync.Mutex
	streams  int
	kernels  map[Handle]map[string]stubKernel
	launches []StubLaunch
	nextAddr uintptr
}

// StubLaunch records one Launch call, for tests to assert against.
type StubLaunch struct {
	Stream   Stream
	Kernel   Kernel
	Grid     [3]int64
	Block    [3]int64
	Operands []uintptr
}

type stubStream int
type stubKernel struct {
	handle Handle
	name   string
}

// NewStubLauncher returns an empty StubLauncher.
func NewStubLauncher() *StubLauncher {
	return &StubLauncher{kernels: make(map[Handle]map[string]stubKernel), nextAddr: 0x1000}
}

func (l *StubLauncher) CreateStream() (Stream, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams++
	return stubStream(l.streams), nil
}

func (l *StubLauncher) DestroyStream(Stream) error { return nil }

func (l *StubLauncher) GetKernel(handle Handle, name string) (Kernel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byName, ok := l.kernels[handle]
	if !ok {
		byName = make(map[string]stubKernel)
		l.kernels[handle] = byName
	}
	k, ok := byName[name]
	if !ok {
		k = stubKernel{handle: handle, name: name}
		byName[name] = k
	}
	return k, nil
}

func (l *StubLauncher) Launch(stream Stream, kernel Kernel, grid, block [3]int64, operands []uintptr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches = append(l.launches, StubLaunch{Stream: stream, Kernel: kernel, Grid: grid, Block: block, Operands: operands})
	return nil
}

func (l *StubLauncher) Alloc(size int64, hostShared bool) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	addr := l.nextAddr
	l.nextAddr += uintptr(size)
	return addr, nil
}

func (l *StubLauncher) Dealloc(uintptr) error { return nil }

// Launches returns every recorded Launch call, in call order.
func (l *StubLauncher) Launches() []StubLaunch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]StubLaunch{}, l.launches...)
}

// StubEmitter is a deterministic AssemblyEmitter: it renders the
// module's top-level symbol names as a plain-text stand-in for a real
// backend's emitted assembly.
type StubEmitter struct{}

func (StubEmitter) Emit(ctx *ir.Context, module *ir.Operation) ([]byte, error) {
	var names []string
	for _, op := range ir.Body(module).Entry().Operations() {
		if name, ok := symbolName(op); ok {
			names = append(names, name)
		}
	}
	out := fmt.Sprintf("; plierc stub assembly\n; symbols: %v\n", names)
	return []byte(out), nil
}

// symbolName returns op's sym_name attribute, if it carries one.
func symbolName(op *ir.Operation) (string, bool) {
	a, ok := op.Attr(ir.SymNameAttr)
	if !ok {
		return "", false
	}
	s, ok := a.(*ir.StringAttr)
	if !ok {
		return "", false
	}
	return s.Value, true
}
