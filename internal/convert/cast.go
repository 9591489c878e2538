package convert

import (
	"plierc/internal/dialect/arith"
	"plierc/internal/ir"
)

// castBuilder emits the IR that converts val (already known to have
// src's type) to dst, returning the converted value. It mirrors
// CastUtils.cpp's `cast_op_t` function pointer.
type castBuilder func(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value

// castHandler pairs a (src, dst) type-shape predicate with the builder
// that bridges them — the ordered table from CastUtils.cpp's
// castHandlers[], carried into Go as the conversion framework's default
// materialization strategy (spec.md §4.3) and reused by the high-level
// lowering's coercion table (spec.md §4.5).
type castHandler struct {
	src, dst func(ir.Type) bool
	build    castBuilder
}

func isIntType(t ir.Type) bool    { _, ok := t.(*ir.IntegerType); return ok }
func isFloatType(t ir.Type) bool  { _, ok := t.(*ir.FloatType); return ok }
func isIndexType(t ir.Type) bool  { _, ok := t.(*ir.IndexType); return ok }
func isFloatComplex(t ir.Type) bool {
	c, ok := t.(*ir.ComplexType)
	return ok && isFloatType(c.Element)
}

// MakeSignless returns t with signedness stripped, or t itself if it is
// not an integer type or is already signless.
func MakeSignless(ctx *ir.Context, t ir.Type) ir.Type {
	it, ok := t.(*ir.IntegerType)
	if !ok || it.IsSignless() {
		return t
	}
	return ctx.IntegerType(it.Width, ir.Signless)
}

func castHandlers() []castHandler {
	return []castHandler{
		{isIntType, isIntType, buildIntCast},
		{isIntType, isFloatType, buildIntFloatCast},
		{isFloatType, isIntType, buildFloatIntCast},
		{isIndexType, isIntType, buildIndexCast},
		{isIntType, isIndexType, buildIndexCast},
		{isFloatType, isFloatType, buildFloatCast},
		{isIndexType, isFloatType, buildIndexCast},
		{isFloatType, isIndexType, buildIndexCast},
		{isIntType, isFloatComplex, buildIntFloatComplexCast},
		{isFloatType, isFloatComplex, buildFloatFloatComplexCast},
	}
}

// CanConvert reports whether DoConvert can bridge src to dst.
func CanConvert(src, dst ir.Type) bool {
	if src == dst {
		return true
	}
	for _, h := range castHandlers() {
		if h.src(src) && h.dst(dst) {
			return true
		}
	}
	return false
}

// DoConvert emits a value of type dst equal to val, or returns nil if no
// handler bridges val's type to dst (mirrors numba::doConvert).
func DoConvert(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	src := val.Type()
	if src == dst {
		return val
	}
	for _, h := range castHandlers() {
		if h.src(src) && h.dst(dst) {
			return h.build(b, val, dst)
		}
	}
	return nil
}

func buildIntCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	ctx := b.Context()
	srcType := val.Type().(*ir.IntegerType)
	dstType := dst.(*ir.IntegerType)
	srcSignless := MakeSignless(ctx, srcType)
	dstSignless := MakeSignless(ctx, dstType)

	if srcType != srcSignless {
		val = b.CreateOne(arith.SignCast, []*ir.Value{val}, srcSignless, nil)
	}

	switch {
	case dstType.Width > srcType.Width:
		if dstType.Width == 1 {
			val = boolTruncate(b, val)
		} else if srcType.Signedness == ir.Signed {
			val = b.CreateOne(arith.ExtSI, []*ir.Value{val}, dstSignless, nil)
		} else {
			val = b.CreateOne(arith.ExtUI, []*ir.Value{val}, dstSignless, nil)
		}
	case dstType.Width < srcType.Width:
		if dstType.Width == 1 {
			val = boolTruncate(b, val)
		} else {
			val = b.CreateOne(arith.TruncI, []*ir.Value{val}, dstSignless, nil)
		}
	}

	if dstType != dstSignless {
		val = b.CreateOne(arith.SignCast, []*ir.Value{val}, dstType, nil)
	}
	return val
}

// boolTruncate implements CastUtils.cpp's special-cased narrowing to
// i1: compare-not-equal-to-zero rather than a raw bit truncation, so
// e.g. 2 (0b10) truncates to true rather than false.
func boolTruncate(b *ir.Builder, val *ir.Value) *ir.Value {
	ctx := b.Context()
	srcType := val.Type()
	zero := b.CreateOne(arith.Constant, nil, srcType, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.IntegerAttr{Value: 0, Type: srcType}),
	})
	return b.CreateOne(arith.CmpI, []*ir.Value{val, zero}, ctx.IntegerType(1, ir.Signless), map[string]ir.Attribute{
		"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(arith.CmpINe)}),
	})
}

func buildIntFloatCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	ctx := b.Context()
	srcType := val.Type().(*ir.IntegerType)
	signless := MakeSignless(ctx, srcType)
	if val.Type() != signless {
		val = b.CreateOne(arith.SignCast, []*ir.Value{val}, signless, nil)
	}
	if srcType.Signedness == ir.Signed {
		return b.CreateOne(arith.SIToFP, []*ir.Value{val}, dst, nil)
	}
	return b.CreateOne(arith.UIToFP, []*ir.Value{val}, dst, nil)
}

func buildFloatIntCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	ctx := b.Context()
	dstType := dst.(*ir.IntegerType)
	dstSignless := MakeSignless(ctx, dstType)
	var res *ir.Value
	if dstType.Width == 1 {
		srcType := val.Type()
		zero := b.CreateOne(arith.Constant, nil, srcType, map[string]ir.Attribute{
			"value": ctx.InternAttr(&ir.FloatAttr{Value: 0, Type: srcType}),
		})
		res = b.CreateOne(arith.CmpF, []*ir.Value{val, zero}, ctx.IntegerType(1, ir.Signless), map[string]ir.Attribute{
			"predicate": ctx.InternAttr(&ir.StringAttr{Value: string(arith.CmpFONE)}),
		})
	} else if dstType.Signedness == ir.Signed {
		res = b.CreateOne(arith.FPToSI, []*ir.Value{val}, dstSignless, nil)
	} else {
		res = b.CreateOne(arith.FPToUI, []*ir.Value{val}, dstSignless, nil)
	}
	if dstSignless != dstType {
		res = b.CreateOne(arith.SignCast, []*ir.Value{res}, dstType, nil)
	}
	return res
}

func buildIndexCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	ctx := b.Context()
	if isFloatType(val.Type()) {
		i64 := ctx.IntegerType(64, ir.Signed)
		val = b.CreateOne(arith.FPToSI, []*ir.Value{val}, i64, nil)
	}
	if isFloatType(dst) {
		i64 := ctx.IntegerType(64, ir.Signed)
		val = indexCastSignAware(b, val, i64)
		return b.CreateOne(arith.SIToFP, []*ir.Value{val}, dst, nil)
	}
	return indexCastSignAware(b, val, dst)
}

// indexCastSignAware implements numba::indexCast: route through
// signless on both ends of the index<->integer boundary.
func indexCastSignAware(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	ctx := b.Context()
	src := val.Type()
	if src == dst {
		return val
	}
	newSrc := MakeSignless(ctx, src)
	if newSrc != src {
		val = b.CreateOne(arith.SignCast, []*ir.Value{val}, newSrc, nil)
	}
	newDst := MakeSignless(ctx, dst)
	val = b.CreateOne(arith.IndexCast, []*ir.Value{val}, newDst, nil)
	if newDst != dst {
		val = b.CreateOne(arith.SignCast, []*ir.Value{val}, dst, nil)
	}
	return val
}

func buildFloatCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	srcType := val.Type().(*ir.FloatType)
	dstType := dst.(*ir.FloatType)
	if dstType.Width > srcType.Width {
		return b.CreateOne(arith.ExtF, []*ir.Value{val}, dst, nil)
	}
	return b.CreateOne(arith.TruncF, []*ir.Value{val}, dst, nil)
}

func complexFromReal(b *ir.Builder, val *ir.Value, complexType *ir.ComplexType) *ir.Value {
	ctx := b.Context()
	imag := b.CreateOne(arith.Constant, nil, complexType.Element, map[string]ir.Attribute{
		"value": ctx.InternAttr(&ir.FloatAttr{Value: 0, Type: complexType.Element}),
	})
	return b.CreateOne(arith.ComplexCreate, []*ir.Value{val, imag}, complexType, nil)
}

func buildFloatFloatComplexCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	complexType := dst.(*ir.ComplexType)
	if val.Type() != complexType.Element {
		val = buildFloatCast(b, val, complexType.Element)
	}
	return complexFromReal(b, val, complexType)
}

func buildIntFloatComplexCast(b *ir.Builder, val *ir.Value, dst ir.Type) *ir.Value {
	complexType := dst.(*ir.ComplexType)
	val = buildIntFloatCast(b, val, complexType.Element)
	return complexFromReal(b, val, complexType)
}
