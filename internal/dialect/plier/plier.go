// Package plier defines the dynamically-typed operand graph that the
// ingestion front end produces: string-opcode binary/unary operators,
// tuple construction/indexing, global loads, Python-style constants
// (including the None and omitted-default sentinels), and calls not
// yet resolved to a concrete callee. internal/lowering/plierstd
// converts every op kind here away; nothing downstream of that pass
// ever sees a plier op. Grounded on PlierToStd.cpp's op vocabulary.
package plier

import "plierc/internal/ir"

const (
	// BinOp applies Operator to two operands of the coercion-rule types
	// described in spec.md §4.5 ("operator" StringAttr).
	BinOp ir.OpKind = "plier.binop"
	// UnOp applies Operator to a single operand ("operator" StringAttr).
	UnOp ir.OpKind = "plier.unop"
	// BuildTuple packs its operands into a tuple<...> result.
	BuildTuple ir.OpKind = "plier.build_tuple"
	// GetItem extracts element Index from a tuple operand ("index"
	// IntegerAttr, signless, statically known — tuple arity is fixed).
	GetItem ir.OpKind = "plier.getitem"
	// Global loads a module-level binding by name ("name" StringAttr).
	Global ir.OpKind = "plier.global"
	// Const carries a literal value: IntegerAttr/FloatAttr/BoolAttr for
	// ordinary literals, ir.UnitAttr for a Python None literal, or
	// TypeVarAttr for an unresolved type-variable literal — both of the
	// latter lower to arith.Undef (spec.md §4.5 "Constants").
	Const ir.OpKind = "plier.const"
	// Call invokes Callee ("callee" StringAttr) with its operands,
	// unresolved until internal/lowering/plierstd's three-tier
	// resolution runs.
	Call ir.OpKind = "plier.call"
	// Undef produces an unconstrained value of its result type.
	Undef ir.OpKind = "plier.undef"
)

const (
	OperatorAttr = "operator"
	IndexAttr    = "index"
	NameAttr     = "name"
	ValueAttr    = "value"
	CalleeAttr   = "callee"
)

// TypeVarAttr marks a plier.const as an unresolved type-variable
// literal rather than carrying an ordinary value. Its concrete
// implementation lives in internal/ir, since Type/Attribute values
// must be constructible by ir.Context's intern table; this is a type
// alias so callers spell it as plier.TypeVarAttr.
type TypeVarAttr = ir.TypeVarAttr

// OmittedType is the type of a value whose caller left an argument at
// its declared default (spec.md §4.5 "Omitted defaults"). See
// ir.OmittedType for the concrete shape; aliased here for the same
// reason as TypeVarAttr above.
type OmittedType = ir.OmittedType

// Register installs every plier op kind's OpInfo into ctx. None of them
// carry a fold hook — constant folding across dynamically typed ops is
// out of scope; plierstd lowers them to arith ops first, and component
// B folds those.
func Register(ctx *ir.Context) {
	for _, name := range []ir.OpKind{BinOp, UnOp, BuildTuple, GetItem, Global, Const, Call, Undef} {
		ctx.RegisterOpKind(&ir.OpInfo{Name: string(name)})
	}
}
