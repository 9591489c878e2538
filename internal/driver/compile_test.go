package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plierc/internal/diag"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/ir"
	"plierc/internal/lowering/plierstd"
)

func newDriverContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	fn.Register(ctx)
	scf.Register(ctx)
	plier.Register(ctx)
	memref.Register(ctx)
	gpu.Register(ctx)
	spirvlike.Register(ctx)
	plierstd.Register(ctx)
	return ctx
}

// fakeIngester ignores source/entryPoint and always hands back a fresh
// module with one trivial function, standing in for a real
// internal/frontend.Ingester.
type fakeIngester struct{}

func (fakeIngester) Ingest(ctx *ir.Context, source, entryPoint string) (*ir.Operation, error) {
	i32 := ctx.IntegerType(32, ir.Signless)
	mod := ir.NewModule(ctx)
	f := fn.NewFunc(ctx, entryPoint, []ir.Type{i32, i32}, []ir.Type{i32})
	entry := f.Regions()[0].Entry()
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	sum := b.CreateOne(arith.AddI, []*ir.Value{entry.Arg(0), entry.Arg(1)}, i32, nil)
	b.Create(fn.Return, []*ir.Value{sum}, nil, nil)
	ir.InsertAtEnd(ir.Body(mod).Entry(), f)
	return mod, nil
}

// failingIngester always fails, exercising Compile's ingestion-error path.
type failingIngester struct{}

func (failingIngester) Ingest(ctx *ir.Context, source, entryPoint string) (*ir.Operation, error) {
	return nil, fmt.Errorf("no such source")
}

func TestCompileRunsEveryStageAndEmitsAssembly(t *testing.T) {
	ctx := newDriverContext()
	cfg := DefaultConfig()

	result, handler, err := Compile(ctx, cfg, fakeIngester{}, "ignored", "main", Resolvers{}, nil, StubEmitter{})
	require.NoError(t, err)
	assert.False(t, handler.HasErrors())
	require.NotNil(t, result)
	assert.Contains(t, string(result.Assembly), "main")
}

func TestCompileLoadsModuleThroughNativeLoader(t *testing.T) {
	ctx := newDriverContext()
	cfg := DefaultConfig()
	loader := NewStubLoader()

	result, _, err := Compile(ctx, cfg, fakeIngester{}, "ignored", "main", Resolvers{}, loader, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Handle)

	addr, err := loader.Lookup(result.Handle, "main")
	require.NoError(t, err)
	assert.Equal(t, uintptr(1), addr)
}

func TestCompileReportsIngestionFailureAsUserDiagnostic(t *testing.T) {
	ctx := newDriverContext()
	cfg := DefaultConfig()

	result, handler, err := Compile(ctx, cfg, failingIngester{}, "ignored", "main", Resolvers{}, nil, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	require.True(t, handler.HasErrors())
	assert.Equal(t, diag.CodeUserIngestionFailure, handler.Errors()[0].Code)
}

func TestCompileDisablesGpuPipelineByDefault(t *testing.T) {
	ctx := newDriverContext()
	cfg := DefaultConfig()
	require.False(t, cfg.EnableGpuPipeline)

	_, handler, err := Compile(ctx, cfg, fakeIngester{}, "ignored", "main", Resolvers{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, handler.HasErrors())
}

func TestStubLoaderDumpToObjectWritesModuleName(t *testing.T) {
	ctx := newDriverContext()
	mod, err := fakeIngester{}.Ingest(ctx, "", "dumped")
	require.NoError(t, err)

	loader := NewStubLoader()
	handle, err := loader.LoadModule(ctx, mod)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, loader.DumpToObject(handle, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestStubLauncherRecordsLaunchesAndAllocatesDeterministically(t *testing.T) {
	launcher := NewStubLauncher()

	stream, err := launcher.CreateStream()
	require.NoError(t, err)
	kernel, err := launcher.GetKernel("handle-1", "kernel-a")
	require.NoError(t, err)

	a1, err := launcher.Alloc(16, false)
	require.NoError(t, err)
	a2, err := launcher.Alloc(32, false)
	require.NoError(t, err)
	assert.Equal(t, a1+16, a2)

	require.NoError(t, launcher.Launch(stream, kernel, [3]int64{1, 1, 1}, [3]int64{1, 1, 1}, []uintptr{a1, a2}))
	launches := launcher.Launches()
	require.Len(t, launches, 1)
	assert.Equal(t, []uintptr{a1, a2}, launches[0].Operands)
}

// TestCompileIsSafeForConcurrentUse exercises SPEC_FULL.md §5's
// requirement that independent compilations, each with their own
// ir.Context, can run concurrently without shared mutable state
// racing.
func TestCompileIsSafeForConcurrentUse(t *testing.T) {
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	loader := NewStubLoader()

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := newDriverContext()
			cfg := DefaultConfig()
			_, _, err := Compile(ctx, cfg, fakeIngester{}, "ignored", fmt.Sprintf("fn%d", i), Resolvers{}, loader, StubEmitter{})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}
}
