package plierstd

import (
	"plierc/internal/convert"
	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/plier"
	"plierc/internal/ir"
)

// OmittedMaterialization is a convert.MaterializationFn for
// TypeConverter.AddTargetMaterialization: a value whose original type
// is a plier.OmittedType (an argument left at its declared default) is
// replaced at its cast site by that default's constant, cast on to
// resultType if the two differ. Grounded on spec.md §4.5's "a value
// with an omitted type is replaced at each cast site by its
// default-valued constant."
func OmittedMaterialization(b *ir.Builder, resultType ir.Type, inputs []*ir.Value, originalType ir.Type) *ir.Value {
	ot, ok := originalType.(*plier.OmittedType)
	if !ok {
		return nil
	}
	ctx := b.Context()
	lit, err := literalFor(ctx, ot.Default, ot.Elem)
	if err != nil {
		return nil
	}
	c := b.CreateOne(arith.Constant, nil, ot.Elem, map[string]ir.Attribute{plier.ValueAttr: lit})
	if ot.Elem == resultType {
		return c
	}
	if converted := convert.DoConvert(b, c, resultType); converted != nil {
		return converted
	}
	return c
}
