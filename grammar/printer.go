package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"plierc/internal/ir"
)

// Print renders mod in the generic operation syntax Parse/Build
// round-trip, recursively printing every nested op, region, and block
// argument. Unlike ir.Dump (print.go), this is the format spec.md §6
// commits to re-parsing.
func Print(mod *ir.Operation) string {
	var b strings.Builder
	printBlockOps(&b, ir.Body(mod).Entry().Operations(), 0)
	return b.String()
}

func printBlockOps(b *strings.Builder, ops []*ir.Operation, level int) {
	for _, op := range ops {
		printOp(b, op, level)
	}
}

func printOp(b *strings.Builder, op *ir.Operation, level int) {
	pad(b, level)
	if len(op.Results()) > 0 {
		names := make([]string, len(op.Results()))
		for i, r := range op.Results() {
			names[i] = valueName(r)
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" = ")
	}
	fmt.Fprintf(b, "%q(", string(op.Name))
	operandNames := make([]string, len(op.Operands()))
	for i, v := range op.Operands() {
		operandNames[i] = valueName(v)
	}
	b.WriteString(strings.Join(operandNames, ", "))
	b.WriteString(")")

	if names := op.AttrNames(); len(names) > 0 {
		b.WriteString(" {")
		parts := make([]string, len(names))
		for i, n := range names {
			attr, _ := op.Attr(n)
			parts[i] = n + " = " + printAttr(attr)
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("}")
	}

	operandTypes := make([]string, len(op.Operands()))
	for i, v := range op.Operands() {
		operandTypes[i] = v.Type().String()
	}
	fmt.Fprintf(b, " : (%s) -> ", strings.Join(operandTypes, ", "))
	resultTypes := make([]string, len(op.Results()))
	for i, r := range op.Results() {
		resultTypes[i] = r.Type().String()
	}
	if len(resultTypes) == 1 {
		b.WriteString(resultTypes[0])
	} else {
		fmt.Fprintf(b, "(%s)", strings.Join(resultTypes, ", "))
	}

	if regions := op.Regions(); len(regions) > 0 {
		b.WriteString(" (")
		for i, region := range regions {
			if i > 0 {
				b.WriteString(", ")
			}
			printRegion(b, region, level)
		}
		b.WriteString(")")
	}
	b.WriteString("\n")
}

func printRegion(b *strings.Builder, r *ir.Region, level int) {
	blk := r.Entry()
	b.WriteString("{\n")
	pad(b, level+1)
	b.WriteString("^bb0(")
	argParts := make([]string, blk.NumArgs())
	for i := 0; i < blk.NumArgs(); i++ {
		a := blk.Arg(i)
		argParts[i] = fmt.Sprintf("%s: %s", valueName(a), a.Type().String())
	}
	b.WriteString(strings.Join(argParts, ", "))
	b.WriteString("):\n")
	printBlockOps(b, blk.Operations(), level+2)
	pad(b, level)
	b.WriteString("}")
}

// printAttr renders an ir.Attribute in the literal syntax AttrValue
// parses back: quoted strings re-quoted verbatim, SymbolRefAttr as
// "@name", Unit as the "unit" keyword, booleans as true/false, arrays
// element by element through printAttr, and every other attribute via
// its own String() (already the literal grammar accepts).
func printAttr(a ir.Attribute) string {
	switch v := a.(type) {
	case *ir.StringAttr:
		return strconv.Quote(v.Value)
	case *ir.SymbolRefAttr:
		return "@" + v.Name
	case *ir.UnitAttr:
		return "unit"
	case *ir.BoolAttr:
		return strconv.FormatBool(v.Value)
	case *ir.ArrayAttr:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = printAttr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return a.String()
	}
}

func valueName(v *ir.Value) string {
	return "%" + strconv.Itoa(v.ID())
}

func pad(b *strings.Builder, level int) {
	b.WriteString(strings.Repeat("  ", level))
}
