// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"plierc/grammar"
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

const (
	PROMPT     = ">> "
	contPrompt = ".. "
	sourcePath = "<repl>"
	entryPoint = "main"
)

// Start drives the read-compile-print loop spec.md §6 names the stub
// loader/emitter for: each `def` block the user types is run through
// the same driver.Compile pipeline cmd/plierc drives, using a
// NativeLoader/AssemblyEmitter deterministic enough to exercise
// without a real backend. A blank line ends the current block and
// triggers a compile; a def left unterminated at EOF is compiled too.
func Start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	loader := driver.NewStubLoader()

	for {
		block, eof := readBlock(scanner)
		if block != "" {
			run(block, loader)
		}
		if eof {
			return
		}
	}
}

// readBlock reads lines until a blank line or EOF, echoing the
// continuation prompt once the first non-blank line has been seen. It
// reports whether the underlying reader is exhausted.
func readBlock(scanner *bufio.Scanner) (block string, eof bool) {
	var lines []string
	prompt := PROMPT
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			if len(lines) == 0 {
				return "", true
			}
			return strings.Join(lines, "\n") + "\n", true
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
		prompt = contPrompt
	}
	return strings.Join(lines, "\n") + "\n", false
}

func run(source string, loader driver.NativeLoader) {
	ctx := newReplContext()
	library := stdlib.NewMathLibrary().Resolver()
	external := plierstd.NewExternalSymbolMangler()

	result, handler, err := driver.Compile(ctx, driver.DefaultConfig(), frontend.Ingester{}, source, entryPoint,
		driver.Resolvers{Library: library, External: external}, loader, driver.StubEmitter{})

	renderer := diag.NewRenderer(sourcePath, source)
	fmt.Print(renderer.FormatAll(handler))

	if err != nil || handler.HasErrors() {
		return
	}
	fmt.Print(grammar.Print(result.Module))
}

func newReplContext() *ir.Context {
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
