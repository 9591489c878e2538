package ir

import "plierc/internal/symtab"

// SymNameAttr is the attribute name under which symbol-visible ops
// (functions, globals) publish the name their symbol table entry is
// keyed on, mirroring MLIR's `sym_name`.
const SymNameAttr = "sym_name"

// InsertAtEnd appends op as the last operation of b, before b's
// terminator if it already has one. If op carries a SymNameAttr and
// b's region has the symbol-table trait, op is also registered there.
func InsertAtEnd(b *Block, op *Operation) {
	if term := b.Terminator(); term != nil {
		insertBefore(b, term, op)
		return
	}
	b.ops = append(b.ops, op)
	op.block = b
	registerSymbol(b.region, op)
}

// InsertBefore inserts op immediately before `before` in `before`'s
// block.
func InsertBefore(before, op *Operation) {
	insertBefore(before.block, before, op)
}

func insertBefore(b *Block, before, op *Operation) {
	for i, existing := range b.ops {
		if existing == before {
			b.ops = append(b.ops[:i], append([]*Operation{op}, b.ops[i:]...)...)
			op.block = b
			registerSymbol(b.region, op)
			return
		}
	}
	InsertAtEnd(b, op)
}

// InsertAfter inserts op immediately after `after` in `after`'s block.
func InsertAfter(after, op *Operation) {
	b := after.block
	for i, existing := range b.ops {
		if existing == after {
			if i+1 >= len(b.ops) {
				InsertAtEnd(b, op)
				return
			}
			b.ops = append(b.ops[:i+1], append([]*Operation{op}, b.ops[i+1:]...)...)
			op.block = b
			registerSymbol(b.region, op)
			return
		}
	}
}

func registerSymbol(r *Region, op *Operation) {
	if r == nil || r.symbols == nil {
		return
	}
	if a, ok := op.Attr(SymNameAttr); ok {
		if s, ok := a.(*StringAttr); ok {
			r.symbols.Define(s.Value, symtab.KindFunction, op)
		}
	}
}

func unregisterSymbol(r *Region, op *Operation) {
	if r == nil || r.symbols == nil {
		return
	}
	if a, ok := op.Attr(SymNameAttr); ok {
		if s, ok := a.(*StringAttr); ok {
			r.symbols.Remove(s.Value)
		}
	}
}

// Erase removes op from its block. op must have no uses (spec.md §3) —
// callers that need to erase a used op should first call
// ReplaceAllUsesWith.
func Erase(op *Operation) {
	if !op.HasNoUses() {
		panic("ir: erasing operation with remaining uses: " + string(op.Name))
	}
	b := op.block
	if b == nil {
		return
	}
	for i, operand := range op.operands {
		for _, u := range operand.uses {
			if u.User == op && u.Operand == i {
				operand.removeUse(u)
				break
			}
		}
	}
	unregisterSymbol(b.region, op)
	for i, existing := range b.ops {
		if existing == op {
			b.ops = append(b.ops[:i], b.ops[i+1:]...)
			break
		}
	}
	op.block = nil
}

// Detach removes op from its block without requiring it to be useless;
// used by the pattern/conversion engines when an op is about to be
// re-inserted elsewhere (e.g. cloned into a freshly created region).
func Detach(op *Operation) {
	b := op.block
	if b == nil {
		return
	}
	unregisterSymbol(b.region, op)
	for i, existing := range b.ops {
		if existing == op {
			b.ops = append(b.ops[:i], b.ops[i+1:]...)
			break
		}
	}
	op.block = nil
}

// ReplaceAllUsesWith rewires every use of `from` to `to`, except uses
// whose user appears in `except`. Both values must carry compatible
// types for the IR to remain well-typed; callers crossing a type
// boundary should materialize a cast first (spec.md §4.3).
func ReplaceAllUsesWith(from, to *Value, except ...*Operation) {
	if from == to {
		return
	}
	skip := make(map[*Operation]bool, len(except))
	for _, op := range except {
		skip[op] = true
	}
	remaining := make([]*Use, 0, len(from.uses))
	for _, u := range from.uses {
		if skip[u.User] {
			remaining = append(remaining, u)
			continue
		}
		u.User.operands[u.Operand] = to
		u.Value = to
		to.addUse(u)
	}
	from.uses = remaining
}

// MoveBlockAfter relocates block b (already attached to some region) to
// immediately follow `after`, which must belong to the same region.
func MoveBlockAfter(after, b *Block) {
	r := after.region
	for i, existing := range r.blocks {
		if existing == b {
			r.blocks = append(r.blocks[:i], r.blocks[i+1:]...)
			break
		}
	}
	for i, existing := range r.blocks {
		if existing == after {
			r.blocks = append(r.blocks[:i+1], append([]*Block{b}, r.blocks[i+1:]...)...)
			b.region = r
			return
		}
	}
}

// MoveOpBefore relocates op (already attached somewhere) to immediately
// before `before`.
func MoveOpBefore(before, op *Operation) {
	Detach(op)
	InsertBefore(before, op)
}

// MoveOpToEnd relocates op to the end of block b.
func MoveOpToEnd(b *Block, op *Operation) {
	Detach(op)
	InsertAtEnd(b, op)
}
