package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attribute is the common interface for interned, immutable attribute
// values (spec.md §3).
type Attribute interface {
	String() string
	key() string
}

// IntegerAttr carries an integer value and, where applicable, the type
// it is declared against.
type IntegerAttr struct {
	Value int64
	Type  Type
}

func (a *IntegerAttr) String() string {
	if a.Type != nil {
		return fmt.Sprintf("%d : %s", a.Value, a.Type)
	}
	return strconv.FormatInt(a.Value, 10)
}
func (a *IntegerAttr) key() string { return "int:" + a.String() }

// FloatAttr carries a float64-precision constant and its declared type.
type FloatAttr struct {
	Value float64
	Type  Type
}

func (a *FloatAttr) String() string {
	return fmt.Sprintf("%v : %s", a.Value, a.Type)
}
func (a *FloatAttr) key() string { return "float:" + a.String() }

// StringAttr is an immutable string constant.
type StringAttr struct {
	Value string
}

func (a *StringAttr) String() string { return strconv.Quote(a.Value) }
func (a *StringAttr) key() string    { return "str:" + a.Value }

// BoolAttr is a unit-width boolean constant.
type BoolAttr struct {
	Value bool
}

func (a *BoolAttr) String() string { return strconv.FormatBool(a.Value) }
func (a *BoolAttr) key() string    { return "bool:" + a.String() }

// ArrayAttr is an ordered, heterogeneous attribute list.
type ArrayAttr struct {
	Elements []Attribute
}

func (a *ArrayAttr) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a *ArrayAttr) key() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.key()
	}
	return "array:[" + strings.Join(parts, ",") + "]"
}

// DictionaryAttr is a sorted name -> Attribute map, printed in a
// deterministic (sorted) key order.
type DictionaryAttr struct {
	Entries map[string]Attribute
}

func (a *DictionaryAttr) String() string {
	keys := make([]string, 0, len(a.Entries))
	for k := range a.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + a.Entries[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (a *DictionaryAttr) key() string { return "dict:" + a.String() }

// SymbolRefAttr names another symbol-table entry by qualified name.
type SymbolRefAttr struct {
	Name string
}

func (a *SymbolRefAttr) String() string { return "@" + a.Name }
func (a *SymbolRefAttr) key() string    { return "symref:" + a.Name }

// UnitAttr is a presence-only marker attribute (e.g. the force-inline
// marker of spec.md §4.4).
type UnitAttr struct{}

func (a *UnitAttr) String() string { return "unit" }
func (a *UnitAttr) key() string    { return "unit" }

// DenseIntArrayAttr is a compact attribute for integer lists such as
// grid/block launch bounds or memref strides.
type DenseIntArrayAttr struct {
	Values []int64
}

func (a *DenseIntArrayAttr) String() string {
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "dense<[" + strings.Join(parts, ", ") + "]>"
}
func (a *DenseIntArrayAttr) key() string { return "denseint:" + a.String() }

// OpaqueAttr is a dialect-specific attribute the core does not interpret.
type OpaqueAttr struct {
	Dialect string
	Payload string
}

func (a *OpaqueAttr) String() string { return a.Dialect + "<" + a.Payload + ">" }
func (a *OpaqueAttr) key() string    { return a.String() }

// TypeVarAttr marks a constant as an unresolved type-variable literal
// rather than carrying a concrete value (plier.const's type-variable
// case, spec.md §4.5 "Constants").
type TypeVarAttr struct{}

func (TypeVarAttr) String() string { return "typevar" }
func (TypeVarAttr) key() string    { return "attr:typevar" }
