// Package convert implements the dialect conversion framework of
// spec.md §4.3: a TypeConverter (ordered type mappings with argument/
// source/target materialization), a ConversionTarget (per-op legality),
// and a driver that runs conversion patterns to a fixed point in full
// or partial mode, rolling back the region on full-mode failure.
package convert

import "plierc/internal/ir"

// TypeConverter holds an ordered list of type-to-type mappings (first
// match wins, spec.md §4.3) plus the three materialization callback
// kinds MLIR-family conversion frameworks distinguish: an argument
// materialization (producing a block-argument-typed value from the
// pattern's desired type), a source materialization (recovering the
// original type from a converted value), and a target materialization
// (producing the converted type from an original-typed value). Any
// materialization request the registered callbacks decline falls back
// to the CastUtils.cpp-style default table in cast.go.
type TypeConverter struct {
	conversions []func(ir.Type) (ir.Type, bool)
	argument    []MaterializationFn
	source      []MaterializationFn
	target      []MaterializationFn
}

// MaterializationFn builds a value of resultType from inputs (values of
// the "other side" of a conversion boundary), or returns nil to decline.
type MaterializationFn func(b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value

func NewTypeConverter() *TypeConverter { return &TypeConverter{} }

func (tc *TypeConverter) AddConversion(fn func(ir.Type) (ir.Type, bool)) {
	tc.conversions = append(tc.conversions, fn)
}

func (tc *TypeConverter) AddArgumentMaterialization(fn MaterializationFn) {
	tc.argument = append(tc.argument, fn)
}

func (tc *TypeConverter) AddSourceMaterialization(fn MaterializationFn) {
	tc.source = append(tc.source, fn)
}

func (tc *TypeConverter) AddTargetMaterialization(fn MaterializationFn) {
	tc.target = append(tc.target, fn)
}

// Convert returns the first registered mapping for t, or (t, false) if
// none applies (t is kept unconverted).
func (tc *TypeConverter) Convert(t ir.Type) (ir.Type, bool) {
	for _, fn := range tc.conversions {
		if converted, ok := fn(t); ok {
			return converted, true
		}
	}
	return t, false
}

func (tc *TypeConverter) materializeArgument(b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value {
	return materialize(tc.argument, b, resultType, inputs, originalType)
}

func (tc *TypeConverter) materializeSource(b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value {
	return materialize(tc.source, b, resultType, inputs, originalType)
}

func (tc *TypeConverter) materializeTarget(b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value {
	return materialize(tc.target, b, resultType, inputs, originalType)
}

// materialize tries every registered callback in order; if none
// applies, it falls back to the identity (same type) or the default
// cast table (cast.go), mirroring numba's materialization fallback.
func materialize(fns []MaterializationFn, b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value {
	for _, fn := range fns {
		if v := fn(b, resultType, inputs, originalType); v != nil {
			return v
		}
	}
	if len(inputs) == 1 {
		if resultType == inputs[0].Type() {
			return inputs[0]
		}
		return DoConvert(b, inputs[0], resultType)
	}
	return nil
}

// LegalityKind classifies an op kind's status under a ConversionTarget.
type LegalityKind int

const (
	Illegal LegalityKind = iota
	Legal
	Dynamic
)

type legalityEntry struct {
	kind LegalityKind
	fn   func(*ir.Operation) bool
}

// ConversionTarget classifies every op kind as legal, illegal, or
// dynamically legal (spec.md §4.3). Op kinds with no entry default to
// illegal — the conservative choice, matching MLIR's default unless a
// target explicitly opts an unknown op in.
type ConversionTarget struct {
	entries map[ir.OpKind]legalityEntry
}

func NewConversionTarget() *ConversionTarget {
	return &ConversionTarget{entries: make(map[ir.OpKind]legalityEntry)}
}

func (t *ConversionTarget) AddLegalOp(kind ir.OpKind) {
	t.entries[kind] = legalityEntry{kind: Legal}
}

func (t *ConversionTarget) AddIllegalOp(kind ir.OpKind) {
	t.entries[kind] = legalityEntry{kind: Illegal}
}

func (t *ConversionTarget) AddDynamicallyLegalOp(kind ir.OpKind, fn func(*ir.Operation) bool) {
	t.entries[kind] = legalityEntry{kind: Dynamic, fn: fn}
}

// IsLegal reports whether op is legal under this target right now.
func (t *ConversionTarget) IsLegal(op *ir.Operation) bool {
	e, ok := t.entries[op.Name]
	if !ok {
		return false
	}
	switch e.kind {
	case Legal:
		return true
	case Dynamic:
		return e.fn(op)
	default:
		return false
	}
}
