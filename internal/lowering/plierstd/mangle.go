package plierstd

import (
	"strings"

	"github.com/iancoleman/strcase"

	"plierc/internal/ir"
)

// NewExternalSymbolMangler returns an ExternalResolver that resolves
// any callee name by mangling it together with its operand types into
// a stable snake_case link symbol, the naming scheme a native loader
// binding external symbols at load time needs to look the right
// overload up by (spec.md §4.5 tier 3). Every segment — the callee
// name and each operand type's own String() — is normalized through
// strcase so a mixed-case source identifier and a type spelling like
// "i64" both land in the same casing convention before being joined.
func NewExternalSymbolMangler() ExternalResolver {
	return func(callee string, operandTypes []ir.Type) (string, bool) {
		segments := make([]string, 0, len(operandTypes)+1)
		segments = append(segments, strcase.ToSnake(callee))
		for _, t := range operandTypes {
			segments = append(segments, strcase.ToSnake(t.String()))
		}
		return "plier_" + strings.Join(segments, "_"), true
	}
}
