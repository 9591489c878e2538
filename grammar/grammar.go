// Package grammar implements the round-trippable textual IR format
// (spec.md §6: parse(print(M)) == M up to value-name alpha-renaming).
// It generalizes the teacher's hand-rolled Kanso-source grammar (one
// participle struct per contract-source construct: Statement, Type,
// Expr, ...) to MLIR's "generic operation format", which needs exactly
// one rule for every op kind because operand/result/block-argument
// types are read directly off each Value's own Type() rather than off
// any dialect-specific attribute.
package grammar

// Module is the top-level parse: a flat list of operations forming the
// module's entry block, exactly as the driver hands one to Build.
type Module struct {
	Ops []*Op `@@*`
}

// Op is one operation in the generic syntax:
//
//	[%r0, %r1 =] "dialect.op"(%o0, %o1) [{attr = value, ...}] : (t0, t1) -> t2 [(region)*]
//
// Results and Operands are plain SSA value names; types live in
// OperandTypes/ResultTypes rather than alongside each name, matching
// MLIR's generic form.
type Op struct {
	Results      []string    `( @ValueName ( "," @ValueName )* "=" )?`
	Name         string      `@String`
	Operands     []string    `"(" ( @ValueName ( "," @ValueName )* )? ")"`
	Attrs        *AttrDict   `@@?`
	OperandTypes []*TypeExpr `":" "(" ( @@ ( "," @@ )* )? ")"`
	ResultTypes  *TypeList   `"->" @@`
	Regions      []*Region   `( "(" @@ ( "," @@ )* ")" )?`
}

// TypeList is a single unparenthesized result type, or a parenthesized
// list of several — MLIR prints the single-result case bare and wraps
// multi-result ops in parens.
type TypeList struct {
	Multi  []*TypeExpr `  "(" ( @@ ( "," @@ )* )? ")"`
	Single *TypeExpr   `| @@`
}

// Region is always exactly one labeled block, since nothing this
// module's pipeline builds ever attaches a multi-block region (control
// flow stays structured: scf.if/scf.execute_region/fn.func bodies are
// all single-block).
type Region struct {
	Label string      `"{" "^" @Ident`
	Args  []*BlockArg `"(" ( @@ ( "," @@ )* )? ")"`
	Ops   []*Op       `":" @@*`
	Close string      `@"}"`
}

// BlockArg is one "%name: type" entry in a region's block-argument list.
type BlockArg struct {
	Name string    `@ValueName`
	Type *TypeExpr `":" @@`
}

// TypeExpr is a recursive "name<arg, arg, ...>" type spelling, matching
// every Type's String() output this grammar commits to re-parsing:
// scalars (i64, f64, index, none), tuple<...>, and complex<...>.
// MemRefType/FunctionType/VectorType/PointerType/TypeVar/
// UndefinedType/OmittedType/OpaqueType print fine via Type.String()
// but are out of this grammar's parse scope (DESIGN.md).
type TypeExpr struct {
	Name string      `@Ident`
	Args []*TypeExpr `( "<" @@ ( "," @@ )* ">" )?`
}

// AttrDict is an operation's optional "{name = value, ...}" suffix.
type AttrDict struct {
	Entries []*AttrEntry `"{" ( @@ ( "," @@ )* )? "}"`
}

// AttrEntry is one "name = value" pair.
type AttrEntry struct {
	Name  string     `@Ident`
	Value *AttrValue `"=" @@`
}

// AttrValue is the alternation over every attribute spelling this
// grammar round-trips: quoted strings, @symbol references, the two
// unit-keyword literals, and the numeric/array literals below.
type AttrValue struct {
	Str   *string   `  @String`
	Sym   *string   `| @SymbolName`
	Bool  *string   `| @( "true" | "false" )`
	Unit  *string   `| @"unit"`
	Float *FloatLit `| @@`
	Int   *IntLit   `| @@`
	Arr   *ArrayLit `| @@`
}

// IntLit is an integer attribute, optionally typed ("3 : i64").
type IntLit struct {
	Value string    `@Int`
	Type  *TypeExpr `( ":" @@ )?`
}

// FloatLit is a float attribute, optionally typed ("3.5 : f64").
type FloatLit struct {
	Value string    `@Float`
	Type  *TypeExpr `( ":" @@ )?`
}

// ArrayLit is an ArrayAttr's "[v0, v1, ...]" spelling.
type ArrayLit struct {
	Elements []*AttrValue `"[" ( @@ ( "," @@ )* )? "]"`
}
