package ir

// Context is the process-wide (or, more precisely, per-compilation)
// registry of interned types and attributes described in spec.md §3.
// A Context is created before any IR is built and dropped once every
// Module derived from it is dropped; it is not safe for concurrent
// mutation (spec.md §5) — compile independent modules on independent
// Contexts if you need parallelism.
type Context struct {
	types      map[string]Type
	attrs      map[string]Attribute
	opRegistry map[string]*OpInfo
}

// NewContext creates an empty, ready-to-use Context and registers the
// builtin op kinds every dialect conversion pass relies on (currently
// none — dialects register their own op kinds via RegisterOpKind).
func NewContext() *Context {
	return &Context{
		types:      make(map[string]Type),
		attrs:      make(map[string]Attribute),
		opRegistry: make(map[string]*OpInfo),
	}
}

// Intern returns the canonical pointer for a structurally equal type,
// constructing and caching t the first time its key is seen.
func (c *Context) Intern(t Type) Type {
	k := t.key()
	if existing, ok := c.types[k]; ok {
		return existing
	}
	c.types[k] = t
	return t
}

// InternAttr returns the canonical pointer for a structurally equal
// attribute.
func (c *Context) InternAttr(a Attribute) Attribute {
	k := a.key()
	if existing, ok := c.attrs[k]; ok {
		return existing
	}
	c.attrs[k] = a
	return a
}

// Convenience constructors — every one of these interns its result, so
// callers never need to call Intern directly for the common cases.

func (c *Context) IntegerType(width int, sign Signedness) *IntegerType {
	return c.Intern(&IntegerType{Width: width, Signedness: sign}).(*IntegerType)
}

func (c *Context) FloatType(width int) *FloatType {
	return c.Intern(&FloatType{Width: width}).(*FloatType)
}

func (c *Context) IndexType() *IndexType {
	return c.Intern(&IndexType{}).(*IndexType)
}

func (c *Context) NoneType() *NoneType {
	return c.Intern(&NoneType{}).(*NoneType)
}

func (c *Context) ComplexType(elem Type) *ComplexType {
	return c.Intern(&ComplexType{Element: elem}).(*ComplexType)
}

func (c *Context) TupleType(elems ...Type) *TupleType {
	return c.Intern(&TupleType{Elements: elems}).(*TupleType)
}

func (c *Context) MemRefType(shape []int64, elem Type, layout Layout, space MemorySpace) *MemRefType {
	return c.Intern(&MemRefType{Shape: shape, Element: elem, Layout: layout, Space: space}).(*MemRefType)
}

func (c *Context) FunctionType(inputs, results []Type) *FunctionType {
	return c.Intern(&FunctionType{Inputs: inputs, Results: results}).(*FunctionType)
}

func (c *Context) OpaqueType(dialect, payload string) *OpaqueType {
	return c.Intern(&OpaqueType{Dialect: dialect, Payload: payload}).(*OpaqueType)
}

// OpInfo describes a registered op kind: its trait set and optional
// fold/verify hooks, indexed by "dialect.opname" for O(1) dispatch
// (spec.md §9 "dynamic dispatch over op kinds").
type OpInfo struct {
	Name  string
	Kind  OpKind
	Trait Traits
	// Fold is consulted by the pattern engine before any registered
	// pattern runs (spec.md §4.2 step 2). A non-nil return must have one
	// entry per result of op, each either the Value that result folds to
	// (an existing value, or a result of a new detached op), or nil to
	// leave that particular result unfolded.
	// ctx is passed through so a fold may construct a detached
	// replacement op (e.g. a new constant) without a Rewriter.
	Fold func(ctx *Context, op *Operation) []*Value
	// Verify runs additional, op-specific invariant checks beyond the
	// structural ones the core verifier always performs.
	Verify func(op *Operation) error
	// Effects reports this op's memory/storage effects, generalizing the
	// teacher's per-instruction GetEffects() (internal/ir/effects.go)
	// from a fixed EVM storage/memory model to the host/device buffer
	// model the GPU lowering component needs.
	Effects func(op *Operation) []Effect
}

// RegisterOpKind installs (or overwrites) the OpInfo for a dialect op
// name. Dialect packages call this from an init() or explicit Register
// function.
func (c *Context) RegisterOpKind(info *OpInfo) {
	c.opRegistry[info.Name] = info
}

// LookupOpKind returns the registered OpInfo, if any.
func (c *Context) LookupOpKind(name string) *OpInfo {
	return c.opRegistry[name]
}
