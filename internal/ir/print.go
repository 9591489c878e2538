package ir

import (
	"fmt"
	"strings"
)

// Printer is a human-readable IR dumper for debugging, grounded on the
// teacher's internal/ir.Printer (indent-tracking, writeLine/write
// helpers) generalized from an EVM contract dump to a generic dialect
// dump. It is not the formally round-trippable textual format required
// by spec.md §6 — that format is implemented by the grammar package,
// which is free to choose its own concrete syntax.
type Printer struct {
	indent int
	out    strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Dump renders mod (and everything inside it) to a debug string.
func Dump(mod *Operation) string {
	p := NewPrinter()
	p.printOp(mod)
	return p.out.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.out.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...any) {
	p.writeIndent()
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *Printer) printOp(op *Operation) {
	results := make([]string, len(op.results))
	for i, r := range op.results {
		results[i] = fmt.Sprintf("%%%d", r.ID())
	}
	operands := make([]string, len(op.operands))
	for i, v := range op.operands {
		operands[i] = fmt.Sprintf("%%%d", v.ID())
	}
	lhs := ""
	if len(results) > 0 {
		lhs = strings.Join(results, ", ") + " = "
	}
	attrs := ""
	if len(op.attrNames) > 0 {
		parts := make([]string, len(op.attrNames))
		for i, n := range op.attrNames {
			parts[i] = n + " = " + op.attrs[n].String()
		}
		attrs = " {" + strings.Join(parts, ", ") + "}"
	}
	types := make([]string, len(op.results))
	for i, r := range op.results {
		types[i] = r.Type().String()
	}
	typeSuffix := ""
	if len(types) > 0 {
		typeSuffix = " : " + strings.Join(types, ", ")
	}
	p.writeLine("%s%s(%s)%s%s", lhs, op.Name, strings.Join(operands, ", "), attrs, typeSuffix)

	for ri, r := range op.regions {
		p.writeIndent()
		fmt.Fprintf(&p.out, "region %d {\n", ri)
		p.indent++
		for bi, b := range r.blocks {
			p.writeLine("^bb%d(%s):", bi, joinBlockArgs(b))
			p.indent++
			for _, inner := range b.ops {
				p.printOp(inner)
			}
			if term := b.Terminator(); term != nil {
				for si, succ := range term.successors {
					if succ == nil {
						continue
					}
					p.writeLine("  -> ^bb%d(%s)", indexOfBlock(r, succ), joinSuccessorArgs(term, si))
				}
			}
			p.indent--
		}
		p.indent--
		p.writeLine("}")
	}
}

func joinBlockArgs(b *Block) string {
	parts := make([]string, len(b.args))
	for i, a := range b.args {
		parts[i] = fmt.Sprintf("%%%d: %s", a.ID(), a.Type())
	}
	return strings.Join(parts, ", ")
}

func joinSuccessorArgs(term *Operation, i int) string {
	args := term.successorArgs[i]
	parts := make([]string, len(args))
	for j, a := range args {
		parts[j] = fmt.Sprintf("%%%d", a.ID())
	}
	return strings.Join(parts, ", ")
}

func indexOfBlock(r *Region, b *Block) int {
	for i, existing := range r.blocks {
		if existing == b {
			return i
		}
	}
	return -1
}
