// Package symtab implements the chained-scope symbol tables used by the
// IR core's symbol-table trait (regions that index their children by
// name) and by the force-inline engine's callee lookup.
package symtab

// Kind classifies what a symbol denotes.
type Kind int

const (
	KindFunction Kind = iota
	KindGlobal
	KindValue
)

// Entry is a single named definition visible in a Table.
type Entry struct {
	Name string
	Kind Kind
	// Op is the defining operation, stored as `any` so this package does
	// not depend on internal/ir (ir depends on symtab, not vice versa).
	Op any
}

// Table is a name -> Entry index with parent chaining, mirroring the
// teacher's semantic.SymbolTable but generalized from AST-node payloads
// to arbitrary operation payloads.
type Table struct {
	entries map[string]*Entry
	parent  *Table
}

// New creates a table optionally chained to a parent scope.
func New(parent *Table) *Table {
	return &Table{
		entries: make(map[string]*Entry),
		parent:  parent,
	}
}

// Define inserts or overwrites a symbol in this table's own scope.
func (t *Table) Define(name string, kind Kind, op any) *Entry {
	e := &Entry{Name: name, Kind: kind, Op: op}
	t.entries[name] = e
	return e
}

// Remove deletes a symbol from this table's own scope, if present.
func (t *Table) Remove(name string) {
	delete(t.entries, name)
}

// Lookup searches this table and then each parent in turn.
func (t *Table) Lookup(name string) *Entry {
	if e, ok := t.entries[name]; ok {
		return e
	}
	if t.parent != nil {
		return t.parent.Lookup(name)
	}
	return nil
}

// LookupLocal searches only this table's own scope.
func (t *Table) LookupLocal(name string) *Entry {
	return t.entries[name]
}

// Names returns the locally defined names in insertion order is not
// guaranteed (map-backed); callers that need determinism should track
// their own ordered name list alongside the table, as internal/ir does
// for its block/region op lists.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	return names
}
