package grammar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"plierc/internal/ir"
)

// builder materializes a parsed Module into real *ir.Operation trees.
// env maps every SSA value name ("%7") seen so far to its Value. A
// single flat map suffices across the whole module, nested regions
// included, because value names are globally unique in the printed
// text (printer.go names every value "%" + v.ID(), and IDs are
// per-process unique) — there is no shadowing to worry about.
type builder struct {
	ctx *ir.Context
	env map[string]*ir.Value
}

// Build materializes parsed into a fresh builtin.module operation,
// inserting each top-level Op into the module's entry block in order.
func Build(ctx *ir.Context, parsed *Module) (*ir.Operation, error) {
	b := &builder{ctx: ctx, env: make(map[string]*ir.Value)}
	mod := ir.NewModule(ctx)
	entry := ir.Body(mod).Entry()
	for _, parsedOp := range parsed.Ops {
		op, err := b.buildOp(parsedOp)
		if err != nil {
			return nil, err
		}
		ir.InsertAtEnd(entry, op)
	}
	return mod, nil
}

func (b *builder) buildOp(parsed *Op) (*ir.Operation, error) {
	name, err := strconv.Unquote(parsed.Name)
	if err != nil {
		return nil, fmt.Errorf("grammar: bad op name %s: %w", parsed.Name, err)
	}

	operands := make([]*ir.Value, len(parsed.Operands))
	for i, operandName := range parsed.Operands {
		v, ok := b.env[operandName]
		if !ok {
			return nil, fmt.Errorf("grammar: %s used before it is defined", operandName)
		}
		operands[i] = v
	}

	resultTypes, err := b.resultTypes(parsed.ResultTypes)
	if err != nil {
		return nil, err
	}
	if len(resultTypes) != len(parsed.Results) {
		return nil, fmt.Errorf("grammar: %q declares %d result names but %d result types",
			name, len(parsed.Results), len(resultTypes))
	}

	var attrs map[string]ir.Attribute
	if parsed.Attrs != nil {
		attrs = make(map[string]ir.Attribute, len(parsed.Attrs.Entries))
		for _, entry := range parsed.Attrs.Entries {
			a, err := b.attrValue(entry.Value)
			if err != nil {
				return nil, fmt.Errorf("grammar: attribute %q: %w", entry.Name, err)
			}
			attrs[entry.Name] = a
		}
	}

	op := ir.NewOp(b.ctx, ir.OpKind(name), operands, resultTypes, attrs)
	for i, resultName := range parsed.Results {
		b.env[resultName] = op.Result(i)
	}

	for _, parsedRegion := range parsed.Regions {
		region := op.AddRegion()
		if err := b.buildRegion(region, parsedRegion); err != nil {
			return nil, err
		}
	}
	return op, nil
}

func (b *builder) buildRegion(region *ir.Region, parsed *Region) error {
	argTypes := make([]ir.Type, len(parsed.Args))
	for i, arg := range parsed.Args {
		t, err := b.typeFromExpr(arg.Type)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}
	blk := ir.NewBlock(argTypes...)
	region.AppendBlock(blk)
	for i, arg := range parsed.Args {
		b.env[arg.Name] = blk.Arg(i)
	}
	for _, parsedOp := range parsed.Ops {
		op, err := b.buildOp(parsedOp)
		if err != nil {
			return err
		}
		ir.InsertAtEnd(blk, op)
	}
	return nil
}

func (b *builder) resultTypes(list *TypeList) ([]ir.Type, error) {
	if list.Single != nil {
		t, err := b.typeFromExpr(list.Single)
		if err != nil {
			return nil, err
		}
		return []ir.Type{t}, nil
	}
	types := make([]ir.Type, len(list.Multi))
	for i, expr := range list.Multi {
		t, err := b.typeFromExpr(expr)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

var integerTypeName = regexp.MustCompile(`^(i|si|ui)([0-9]+)$`)
var floatTypeName = regexp.MustCompile(`^f([0-9]+)$`)

// typeFromExpr resolves the bounded type-expression scope this grammar
// commits to re-parsing: scalars, index, none, tuple<...>, and
// complex<...>. Every other Type still prints fine via Type.String()
// (printer.go), it just never appears on the left of this switch
// (DESIGN.md).
func (b *builder) typeFromExpr(expr *TypeExpr) (ir.Type, error) {
	switch expr.Name {
	case "index":
		return b.ctx.IndexType(), nil
	case "none":
		return b.ctx.NoneType(), nil
	case "tuple":
		elems := make([]ir.Type, len(expr.Args))
		for i, arg := range expr.Args {
			t, err := b.typeFromExpr(arg)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return b.ctx.TupleType(elems...), nil
	case "complex":
		if len(expr.Args) != 1 {
			return nil, fmt.Errorf("grammar: complex<...> needs exactly one element type, got %d", len(expr.Args))
		}
		elem, err := b.typeFromExpr(expr.Args[0])
		if err != nil {
			return nil, err
		}
		return b.ctx.ComplexType(elem), nil
	}
	if m := integerTypeName.FindStringSubmatch(expr.Name); m != nil {
		width, _ := strconv.Atoi(m[2])
		sign := ir.Signless
		switch m[1] {
		case "si":
			sign = ir.Signed
		case "ui":
			sign = ir.Unsigned
		}
		return b.ctx.IntegerType(width, sign), nil
	}
	if m := floatTypeName.FindStringSubmatch(expr.Name); m != nil {
		width, _ := strconv.Atoi(m[1])
		return b.ctx.FloatType(width), nil
	}
	return nil, fmt.Errorf("grammar: %q is outside this grammar's type-parsing scope", expr.Name)
}

func (b *builder) attrValue(v *AttrValue) (ir.Attribute, error) {
	switch {
	case v.Str != nil:
		s, err := strconv.Unquote(*v.Str)
		if err != nil {
			return nil, err
		}
		return b.ctx.InternAttr(&ir.StringAttr{Value: s}), nil
	case v.Sym != nil:
		return b.ctx.InternAttr(&ir.SymbolRefAttr{Name: strings.TrimPrefix(*v.Sym, "@")}), nil
	case v.Bool != nil:
		return b.ctx.InternAttr(&ir.BoolAttr{Value: *v.Bool == "true"}), nil
	case v.Unit != nil:
		return b.ctx.InternAttr(&ir.UnitAttr{}), nil
	case v.Float != nil:
		value, err := strconv.ParseFloat(v.Float.Value, 64)
		if err != nil {
			return nil, err
		}
		var t ir.Type = b.ctx.FloatType(64)
		if v.Float.Type != nil {
			if t, err = b.typeFromExpr(v.Float.Type); err != nil {
				return nil, err
			}
		}
		return b.ctx.InternAttr(&ir.FloatAttr{Value: value, Type: t}), nil
	case v.Int != nil:
		value, err := strconv.ParseInt(v.Int.Value, 10, 64)
		if err != nil {
			return nil, err
		}
		var t ir.Type = b.ctx.IntegerType(64, ir.Signed)
		if v.Int.Type != nil {
			if t, err = b.typeFromExpr(v.Int.Type); err != nil {
				return nil, err
			}
		}
		return b.ctx.InternAttr(&ir.IntegerAttr{Value: value, Type: t}), nil
	case v.Arr != nil:
		elems := make([]ir.Attribute, len(v.Arr.Elements))
		for i, e := range v.Arr.Elements {
			a, err := b.attrValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = a
		}
		return b.ctx.InternAttr(&ir.ArrayAttr{Elements: elems}), nil
	}
	return nil, fmt.Errorf("grammar: attribute value has no recognized alternative set")
}
