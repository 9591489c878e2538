package plierstd

import (
	"fmt"

	"plierc/internal/convert"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// LibraryResolver lowers a tier-2 library-backed call directly into
// algorithmic IR (e.g. a call resolvable against a known numeric
// library), mirroring PlierToStd.cpp's library-call lowering stage. It
// returns ok=false to decline and fall through to the tier-3 external
// resolver.
type LibraryResolver func(rw *convert.Rewriter, callee string, operands []*ir.Value, resultTypes []ir.Type) ([]*ir.Value, bool)

// ExternalResolver mangles (name, operand types) to the symbol of a
// function linked in at load time, spec.md §4.5's tier-3
// "external-symbol resolver."
type ExternalResolver func(callee string, operandTypes []ir.Type) (symbol string, ok bool)

// CallPattern lowers plier.call through the three tiers of spec.md
// §4.5's call resolution: hard-coded builtins, then Library, then
// External. Module is the enclosing module, needed to record pipeline
// jump markers and to declare an external callee's symbol if it isn't
// already present.
type CallPattern struct {
	Module   *ir.Operation
	Library  LibraryResolver
	External ExternalResolver
}

func (CallPattern) RootKind() ir.OpKind { return plier.Call }
func (CallPattern) Benefit() int        { return 1 }

func (p CallPattern) MatchAndRewrite(op *ir.Operation, rw *convert.Rewriter) (bool, error) {
	a, ok := op.Attr(plier.CalleeAttr)
	if !ok {
		return false, fmt.Errorf("plierstd: %s is missing its %q attribute", op.Name, plier.CalleeAttr)
	}
	name, ok := a.(*ir.StringAttr)
	if !ok {
		return false, fmt.Errorf("plierstd: %s's %q attribute is not a string", op.Name, plier.CalleeAttr)
	}

	operands := op.Operands()
	resultTypes := resultTypesOf(op)

	if results, ok := p.resolveBuiltin(rw, name.Value, operands, resultTypes); ok {
		rw.ReplaceOp(op, results)
		return true, nil
	}

	if p.Library != nil {
		if results, ok := p.Library(rw, name.Value, operands, resultTypes); ok {
			AddPipelineJumpMarker(rw.Context(), p.Module, "plier-to-scf")
			rw.ReplaceOp(op, results)
			return true, nil
		}
	}

	if p.External != nil {
		operandTypes := make([]ir.Type, len(operands))
		for i, v := range operands {
			operandTypes[i] = v.Type()
		}
		symbol, ok := p.External(name.Value, operandTypes)
		if !ok {
			return false, nil
		}
		p.declareExternal(rw, symbol, operandTypes, resultTypes)
		call := rw.Create(fn.Call, operands, resultTypes, map[string]ir.Attribute{
			fn.CalleeAttr: rw.Context().InternAttr(&ir.SymbolRefAttr{Name: symbol}),
		})
		rw.ReplaceOp(op, call.Results())
		return true, nil
	}

	return false, nil
}

func resultTypesOf(op *ir.Operation) []ir.Type {
	results := op.Results()
	types := make([]ir.Type, len(results))
	for i, r := range results {
		types[i] = r.Type()
	}
	return types
}

// resolveBuiltin implements tier 1: range/slice each become a
// (start, stop, step) descriptor op, and the pipeline is asked to
// revisit its structured-control-flow stage since a new loop form may
// follow from the result.
func (p CallPattern) resolveBuiltin(rw *convert.Rewriter, name string, operands []*ir.Value, resultTypes []ir.Type) ([]*ir.Value, bool) {
	var kind ir.OpKind
	switch name {
	case "range":
		kind = RangeOp
	case "slice":
		kind = SliceOp
	default:
		return nil, false
	}
	if len(resultTypes) != 1 {
		return nil, false
	}
	result := rw.CreateOne(kind, operands, resultTypes[0], nil)
	AddPipelineJumpMarker(rw.Context(), p.Module, "plier-to-scf")
	return []*ir.Value{result}, true
}

// declareExternal finds or creates symbol's func.func declaration in
// Module's body: an empty-bodied signature the native loader binds at
// load time.
func (p CallPattern) declareExternal(rw *convert.Rewriter, symbol string, operandTypes, resultTypes []ir.Type) *ir.Operation {
	if existing := ir.Symbols(p.Module).Lookup(symbol); existing != nil {
		return existing
	}
	decl := fn.NewFunc(rw.Context(), symbol, operandTypes, resultTypes)
	ir.InsertAtEnd(ir.Body(p.Module).Blocks()[0], decl)
	return decl
}
