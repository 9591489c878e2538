package ir

// Block is an ordered sequence of Operations terminated by a
// terminator, with ordered typed arguments (spec.md §3). Operations are
// kept in a slice rather than a linked list for simplicity; insertion
// and erasure shift the tail, which is acceptable at the block sizes
// this IR produces (a handful to a few hundred ops).
type Block struct {
	ops    []*Operation
	args   []*Value
	region *Region

	preds []*Block // populated by (Region).RefreshCFG
	succs []*Block
}

// NewBlock creates a detached block with the given argument types. Call
// (*Region).AppendBlock to attach it.
func NewBlock(argTypes ...Type) *Block {
	b := &Block{}
	for i, t := range argTypes {
		b.args = append(b.args, &Value{id: newValueID(), typ: t, defBlock: b, argIndex: i})
	}
	return b
}

func (b *Block) Region() *Region    { return b.region }
func (b *Block) Operations() []*Operation { return b.ops }
func (b *Block) Args() []*Value      { return b.args }
func (b *Block) NumArgs() int        { return len(b.args) }
func (b *Block) Arg(i int) *Value    { return b.args[i] }

// AddArg appends a new block argument of type t, returning it. Existing
// terminators that branch here are NOT updated — the conversion
// framework and pattern engine call this only while also rewriting
// every predecessor terminator in the same transaction.
func (b *Block) AddArg(t Type) *Value {
	v := &Value{id: newValueID(), typ: t, defBlock: b, argIndex: len(b.args)}
	b.args = append(b.args, v)
	return v
}

// Terminator returns the last operation in the block if it is a
// terminator, else nil (a block under construction may temporarily have
// no terminator).
func (b *Block) Terminator() *Operation {
	if len(b.ops) == 0 {
		return nil
	}
	last := b.ops[len(b.ops)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// Predecessors and Successors reflect the last RefreshCFG computation
// on the owning Region; they are not maintained incrementally because
// the pattern/conversion engines recompute dominance wholesale after a
// batch of rewrites rather than after each one (spec.md §4.2 edge
// policies).
func (b *Block) Predecessors() []*Block { return b.preds }
func (b *Block) Successors() []*Block   { return b.succs }

// IsEntry reports whether this is region's first block.
func (b *Block) IsEntry() bool {
	return b.region != nil && len(b.region.blocks) > 0 && b.region.blocks[0] == b
}
