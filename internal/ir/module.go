package ir

// ModuleOpName is the stable name of the top-level module operation.
const ModuleOpName OpKind = "builtin.module"

// NewModule constructs the top-level Operation described in spec.md §3:
// an isolated-from-above, symbol-table-bearing op with a single region
// and a single entry block. Function-like operations and other
// symbol-visible definitions are inserted into that entry block with
// InsertAtEnd.
func NewModule(ctx *Context) *Operation {
	mod := &Operation{
		Name:  ModuleOpName,
		Loc:   Unknown,
		trait: TraitIsolatedFromAbove | TraitSymbolTable,
	}
	region := mod.AddRegion()
	region.EnableSymbolTable()
	region.AppendBlock(NewBlock())
	return mod
}

// Body returns the module's single region.
func Body(mod *Operation) *Region { return mod.regions[0] }

// Symbols returns the module's symbol table (function/global name ->
// defining op).
func Symbols(mod *Operation) *symbolTableHandle {
	return &symbolTableHandle{region: Body(mod)}
}

// symbolTableHandle is a lookup-only view of the module region's
// symtab index, resolving entries back to *Operation.
type symbolTableHandle struct {
	region *Region
}

// Lookup finds a symbol-visible op by name, or nil.
func (h *symbolTableHandle) Lookup(name string) *Operation {
	e := h.region.Symbols().Lookup(name)
	if e == nil {
		return nil
	}
	return e.Op.(*Operation)
}
