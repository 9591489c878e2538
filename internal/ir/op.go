package ir

// Operation is a node in the value graph: a stable "dialect.opname"
// name, ordered operands, ordered results, named attributes, zero or
// more attached regions, and a source location (spec.md §3).
type Operation struct {
	Name  OpKind
	Loc   Location
	trait Traits

	operands []*Value
	results  []*Value

	attrNames []string // insertion order, for deterministic printing
	attrs     map[string]Attribute

	regions []*Region

	block *Block // nil when detached/orphan

	// successors and successorArgs are populated only for terminators
	// with statically known targets (TraitKnownTerminatorSuccessors).
	// successorArgs[i] are the values passed to successors[i]'s block
	// arguments, matched positionally.
	successors    []*Block
	successorArgs [][]*Value
}

// Successors returns the terminator's statically known target blocks.
func (op *Operation) Successors() []*Block { return op.successors }

// SuccessorArgs returns the operand values passed to successors[i]'s
// block arguments.
func (op *Operation) SuccessorArgs(i int) []*Value { return op.successorArgs[i] }

// SetSuccessor records target block b (reached when taking successor
// slot i) along with the values passed to its block arguments. The
// caller is responsible for ensuring arity/type agreement with b's
// arguments (spec.md §3 terminator invariant).
func (op *Operation) SetSuccessor(i int, b *Block, args []*Value) {
	for len(op.successors) <= i {
		op.successors = append(op.successors, nil)
		op.successorArgs = append(op.successorArgs, nil)
	}
	op.successors[i] = b
	op.successorArgs[i] = args
}

// NewOp constructs a detached operation with the given name, operands,
// result types, and attributes. It must be inserted into a Block with
// InsertAtEnd/InsertBefore/InsertAfter (mutate.go) before it can be used
// as anything but a value producer fed directly to another detached op.
func NewOp(ctx *Context, name OpKind, operands []*Value, resultTypes []Type, attrs map[string]Attribute) *Operation {
	op := &Operation{Name: name, Loc: Unknown}
	if info := ctx.LookupOpKind(string(name)); info != nil {
		op.trait = info.Trait
	}
	op.operands = append(op.operands, operands...)
	for i, t := range resultTypes {
		v := &Value{id: newValueID(), typ: t, defOp: op, resIndex: i}
		op.results = append(op.results, v)
	}
	for i, operand := range op.operands {
		operand.addUse(&Use{Value: operand, User: op, Operand: i})
	}
	if len(attrs) > 0 {
		op.attrs = make(map[string]Attribute, len(attrs))
		for k, v := range attrs {
			op.attrs[k] = v
			op.attrNames = append(op.attrNames, k)
		}
	}
	return op
}

// Block returns the block this op currently lives in, or nil if it is
// detached.
func (op *Operation) Block() *Block { return op.block }

// Region returns the region the op's block belongs to, or nil.
func (op *Operation) Region() *Region {
	if op.block == nil {
		return nil
	}
	return op.block.region
}

// Parent returns the op that owns op's enclosing region, or nil at the
// module top level or when detached.
func (op *Operation) Parent() *Operation {
	if r := op.Region(); r != nil {
		return r.owner
	}
	return nil
}

func (op *Operation) Operands() []*Value { return op.operands }
func (op *Operation) Results() []*Value  { return op.results }
func (op *Operation) Regions() []*Region { return op.regions }

func (op *Operation) Operand(i int) *Value { return op.operands[i] }
func (op *Operation) Result(i int) *Value  { return op.results[i] }
func (op *Operation) NumOperands() int     { return len(op.operands) }
func (op *Operation) NumResults() int      { return len(op.results) }

// AddRegion appends a freshly created, empty region owned by op and
// returns it.
func (op *Operation) AddRegion() *Region {
	r := &Region{owner: op}
	op.regions = append(op.regions, r)
	return r
}

// Attr returns a named attribute and whether it was present.
func (op *Operation) Attr(name string) (Attribute, bool) {
	if op.attrs == nil {
		return nil, false
	}
	a, ok := op.attrs[name]
	return a, ok
}

// SetAttr sets (or overwrites) a named attribute.
func (op *Operation) SetAttr(name string, a Attribute) {
	if op.attrs == nil {
		op.attrs = make(map[string]Attribute)
	}
	if _, exists := op.attrs[name]; !exists {
		op.attrNames = append(op.attrNames, name)
	}
	op.attrs[name] = a
}

// RemoveAttr deletes a named attribute if present.
func (op *Operation) RemoveAttr(name string) {
	if _, ok := op.attrs[name]; !ok {
		return
	}
	delete(op.attrs, name)
	for i, n := range op.attrNames {
		if n == name {
			op.attrNames = append(op.attrNames[:i], op.attrNames[i+1:]...)
			break
		}
	}
}

// AttrNames returns attribute names in the order they were first set.
func (op *Operation) AttrNames() []string { return op.attrNames }

// HasTrait reports whether op's registered OpInfo carries the trait.
func (op *Operation) HasTrait(t Traits) bool { return op.trait.Has(t) }

// IsTerminator reports whether this op ends its block.
func (op *Operation) IsTerminator() bool { return op.HasTrait(TraitTerminator) }

// SetOperand replaces operand i, updating both values' use lists.
func (op *Operation) SetOperand(i int, v *Value) {
	old := op.operands[i]
	for _, u := range old.uses {
		if u.User == op && u.Operand == i {
			old.removeUse(u)
			break
		}
	}
	op.operands[i] = v
	v.addUse(&Use{Value: v, User: op, Operand: i})
}

// HasNoUses reports whether every result of op is unused — the
// precondition for erasing it (spec.md §3).
func (op *Operation) HasNoUses() bool {
	for _, r := range op.results {
		if !r.HasNoUses() {
			return false
		}
	}
	return true
}
