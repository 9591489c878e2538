package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/diag"
	"plierc/internal/driver"
	"plierc/internal/frontend"
	"plierc/internal/ir"
	"plierc/internal/lowering/plierstd"
	"plierc/internal/stdlib"
)

func main() {
	cfg, rest, err := driver.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if len(rest) < 1 {
		fmt.Println("Usage: plierc [flags] <file.py> [entry point]")
		os.Exit(1)
	}
	path := rest[0]
	entryPoint := "main"
	if len(rest) > 1 {
		entryPoint = rest[1]
	}

	startTime := time.Now()

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	ctx := newPlierContext()
	library := stdlib.NewMathLibrary().Resolver()
	external := plierstd.NewExternalSymbolMangler()

	result, handler, err := driver.Compile(ctx, cfg, frontend.Ingester{}, string(source), entryPoint,
		driver.Resolvers{Library: library, External: external}, nil, nil)

	duration := time.Since(startTime)
	formattedDuration := formatDuration(duration)

	renderer := diag.NewRenderer(path, string(source))
	fmt.Fprint(os.Stderr, renderer.FormatAll(handler))

	if err != nil || handler.HasErrors() {
		color.Red("Compilation failed after %s", formattedDuration)
		os.Exit(1)
	}

	color.Green("Successfully compiled %s (entry %q) in %s: %d top-level ops", path, entryPoint,
		formattedDuration, len(ir.Body(result.Module).Entry().Operations()))
}

func newPlierContext() *ir.Context {
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

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
