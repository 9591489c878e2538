package ir

// OpKind is the stable "dialect.opname" name of an operation definition,
// used as the dispatch key for the op-kind registry and for patterns'
// root-kind matching (spec.md §9).
type OpKind string

// Value is either a block argument or an operation result (spec.md §3).
// Its def-use list is insertion-ordered to satisfy the determinism
// requirement of §4.1.
type Value struct {
	id   int
	typ  Type
	// exactly one of these is non-nil
	defOp    *Operation // when this value is an op result
	resIndex int
	defBlock *Block // when this value is a block argument
	argIndex int

	uses []*Use
}

// Use records one use of a Value by an Operation at a given operand
// index, so replaceAllUsesWith can update both sides of the edge.
type Use struct {
	Value    *Value
	User     *Operation
	Operand  int
}

// Type returns the value's declared type.
func (v *Value) Type() Type { return v.typ }

// SetType overwrites the value's declared type; used by the conversion
// framework's materialization step (spec.md §4.3) and nowhere else —
// ordinary lowering produces a brand-new Value instead of retyping one
// in place.
func (v *Value) SetType(t Type) { v.typ = t }

// DefiningOp returns the operation that produced this value as a result,
// or nil if the value is a block argument.
func (v *Value) DefiningOp() *Operation { return v.defOp }

// ResultIndex returns which result of DefiningOp this value is.
func (v *Value) ResultIndex() int { return v.resIndex }

// DefiningBlock returns the block this value is an argument of, or nil
// if the value is an op result.
func (v *Value) DefiningBlock() *Block { return v.defBlock }

// ArgIndex returns which block argument this value is.
func (v *Value) ArgIndex() int { return v.argIndex }

// IsBlockArgument reports whether this value is a block argument rather
// than an op result.
func (v *Value) IsBlockArgument() bool { return v.defBlock != nil }

// Uses returns the insertion-ordered list of uses of this value.
func (v *Value) Uses() []*Use { return v.uses }

// HasOneUse reports whether exactly one use of this value exists.
func (v *Value) HasOneUse() bool { return len(v.uses) == 1 }

// HasNoUses reports whether this value is unused — a precondition for
// erasing its defining op (spec.md §3 "Operations may be erased only
// when they have no uses").
func (v *Value) HasNoUses() bool { return len(v.uses) == 0 }

func (v *Value) addUse(u *Use) {
	v.uses = append(v.uses, u)
}

// removeUse deletes a single Use record, preserving insertion order of
// the remainder.
func (v *Value) removeUse(u *Use) {
	for i, existing := range v.uses {
		if existing == u {
			v.uses = append(v.uses[:i], v.uses[i+1:]...)
			return
		}
	}
}

var nextValueID = 0

func newValueID() int {
	id := nextValueID
	nextValueID++
	return id
}

// ID returns a stable, process-local, non-reused identifier used only
// for printing (%0, %1, ...) and debugging; it carries no semantic
// meaning and is never compared for equality by passes.
func (v *Value) ID() int { return v.id }
