package ir

import "plierc/internal/symtab"

// Region is an ordered sequence of Blocks owned by an Operation (or, for
// the top-level Module, by nothing at all). The first block is the
// entry block (spec.md §3).
type Region struct {
	blocks []*Block
	owner  *Operation

	symbols *symtab.Table // non-nil only when owner's op carries TraitSymbolTable
}

// NewRegion creates an empty, ownerless region. Module uses this for its
// single top-level region; every other region is created via
// (*Operation).AddRegion.
func NewRegion() *Region { return &Region{} }

func (r *Region) Owner() *Operation { return r.owner }
func (r *Region) Blocks() []*Block  { return r.blocks }

// Entry returns the region's entry block, or nil if empty.
func (r *Region) Entry() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

// AppendBlock attaches a detached block as the new last block of r.
func (r *Region) AppendBlock(b *Block) {
	b.region = r
	r.blocks = append(r.blocks, b)
}

// InsertBlockAfter attaches a detached block immediately after `after`.
func (r *Region) InsertBlockAfter(after, b *Block) {
	b.region = r
	for i, existing := range r.blocks {
		if existing == after {
			r.blocks = append(r.blocks[:i+1], append([]*Block{b}, r.blocks[i+1:]...)...)
			return
		}
	}
	r.AppendBlock(b)
}

// EraseBlock detaches and discards a block that has no remaining
// operations referencing it and is not any other block's successor.
func (r *Region) EraseBlock(b *Block) {
	for i, existing := range r.blocks {
		if existing == b {
			r.blocks = append(r.blocks[:i], r.blocks[i+1:]...)
			return
		}
	}
}

// EnableSymbolTable installs the symbol-table trait's backing index on
// this region (spec.md §4.1). Call once when the owning op is created
// with TraitSymbolTable.
func (r *Region) EnableSymbolTable() {
	r.symbols = symtab.New(nil)
}

// Symbols returns the region's symbol table, or nil if the region does
// not carry the symbol-table trait.
func (r *Region) Symbols() *symtab.Table { return r.symbols }

// RefreshCFG recomputes every block's predecessor/successor lists from
// each block's terminator, in insertion order (spec.md §4.1
// determinism). Call this after a batch of terminator rewrites, before
// relying on Predecessors/Successors or computing dominance.
func (r *Region) RefreshCFG() {
	for _, b := range r.blocks {
		b.preds = nil
		b.succs = nil
	}
	for _, b := range r.blocks {
		term := b.Terminator()
		if term == nil {
			continue
		}
		for _, succ := range term.Successors() {
			if succ == nil {
				continue
			}
			b.succs = append(b.succs, succ)
			succ.preds = append(succ.preds, b)
		}
	}
}

// Dominance is a computed dominator relation over a region's blocks,
// built with the standard iterative data-flow algorithm (fixed point
// over predecessor sets) — adequate at the block counts a lowering pass
// produces, and simple enough to re-derive after every rewrite batch
// rather than maintain incrementally.
type Dominance struct {
	region    *Region
	idom      map[*Block]*Block
	dominates map[*Block]map[*Block]bool
}

// ComputeDominance builds the dominator tree for r. r.RefreshCFG must
// have been called first.
func ComputeDominance(r *Region) *Dominance {
	d := &Dominance{region: r, idom: make(map[*Block]*Block)}
	entry := r.Entry()
	if entry == nil {
		return d
	}

	order := reversePostOrder(entry)
	index := make(map[*Block]int, len(order))
	for i, b := range order {
		index[b] = i
	}

	d.idom[entry] = entry
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom *Block
			for _, p := range b.preds {
				if d.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(d.idom, index, newIdom, p)
			}
			if newIdom != nil && d.idom[b] != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}

	d.dominates = make(map[*Block]map[*Block]bool, len(order))
	for _, b := range order {
		d.dominates[b] = map[*Block]bool{b: true}
		cur := b
		for cur != entry {
			cur = d.idom[cur]
			d.dominates[b][cur] = true
		}
	}
	return d
}

func intersect(idom map[*Block]*Block, index map[*Block]int, a, b *Block) *Block {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostOrder(entry *Block) []*Block {
	visited := map[*Block]bool{}
	var post []*Block
	var visit func(b *Block)
	visit = func(b *Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.succs {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	order := make([]*Block, len(post))
	for i, b := range post {
		order[len(post)-1-i] = b
	}
	return order
}

// Dominates reports whether block a dominates block b (every path from
// the entry to b passes through a). A block dominates itself.
func (d *Dominance) Dominates(a, b *Block) bool {
	set, ok := d.dominates[b]
	if !ok {
		return a == b
	}
	return set[a]
}

// ValueDominatesUse reports whether value v's definition dominates the
// block in which it is used — the core invariant of spec.md §3. A value
// defined in the same block as its use is considered dominating iff it
// was defined earlier in program order (checked by the caller via
// block-local ordering; this function only handles the cross-block
// case precisely).
func (d *Dominance) ValueDominatesUse(v *Value, useBlock *Block) bool {
	defBlock := v.DefiningBlock()
	if defBlock == nil {
		defBlock = v.DefiningOp().Block()
	}
	if defBlock == useBlock {
		return true
	}
	return d.Dominates(defBlock, useBlock)
}
