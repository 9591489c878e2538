package ir

// Builder tracks an insertion point and constructs/attaches operations
// at it in one step, mirroring the teacher's internal/ir.Builder
// (currentBlock-tracking) generalized from an EVM-instruction builder
// to a dialect-agnostic op builder.
type Builder struct {
	ctx   *Context
	block *Block
	// before, if non-nil, is the op new ops are inserted before; if nil,
	// new ops are appended to block's end (before any terminator).
	before *Operation
}

// NewBuilder creates a Builder with no insertion point set; callers
// must call SetInsertionPointToEnd/SetInsertionPointBefore before
// emitting.
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx: ctx}
}

func (b *Builder) Context() *Context { return b.ctx }

// SetInsertionPointToEnd directs subsequent Create calls to append at
// the end of blk.
func (b *Builder) SetInsertionPointToEnd(blk *Block) {
	b.block = blk
	b.before = nil
}

// SetInsertionPointBefore directs subsequent Create calls to insert
// immediately before op, within op's own block.
func (b *Builder) SetInsertionPointBefore(op *Operation) {
	b.block = op.block
	b.before = op
}

// Create builds and inserts a new operation at the builder's current
// insertion point, returning it.
func (b *Builder) Create(name OpKind, operands []*Value, resultTypes []Type, attrs map[string]Attribute) *Operation {
	op := NewOp(b.ctx, name, operands, resultTypes, attrs)
	if b.before != nil {
		InsertBefore(b.before, op)
	} else {
		InsertAtEnd(b.block, op)
	}
	return op
}

// CreateOne is a convenience for the common case of an op with exactly
// one result, returning that result directly.
func (b *Builder) CreateOne(name OpKind, operands []*Value, resultType Type, attrs map[string]Attribute) *Value {
	return b.Create(name, operands, []Type{resultType}, attrs).Result(0)
}

// InsertionGuard saves and restores a Builder's insertion point across
// a scoped mutation, mirroring mlir::OpBuilder::InsertionGuard.
type InsertionGuard struct {
	b            *Builder
	block        *Block
	before       *Operation
}

// Save captures the current insertion point; call Restore (typically
// via defer) to put it back.
func (b *Builder) Save() *InsertionGuard {
	return &InsertionGuard{b: b, block: b.block, before: b.before}
}

func (g *InsertionGuard) Restore() {
	g.b.block = g.block
	g.b.before = g.before
}
