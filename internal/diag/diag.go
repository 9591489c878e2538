// Package diag implements the four-tier error taxonomy and the
// accumulating diagnostic-handler scope of spec.md §7, grounded on
// the teacher's internal/errors.ErrorReporter/CompilerError but keyed
// on ir.Location instead of ast.Position so it has no front-end
// dependency.
package diag

import (
	"fmt"

	"github.com/pkg/errors"

	"plierc/internal/ir"
)

// Level mirrors the teacher's ErrorLevel.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelHelp    Level = "help"
)

// Category is spec.md §7's four-tier taxonomy.
type Category string

const (
	// Structural: an invariant violation the verifier caught. Fatal.
	Structural Category = "structural"
	// Conversion: no legal lowering was found for an op. Surfaced to
	// the pipeline; Partial mode continues, Full mode fails.
	Conversion Category = "conversion"
	// Semantic: ambiguous device binding, unknown operator name,
	// unresolved force-inline, unhandled memref producer. Fatal for
	// the containing pass.
	Semantic Category = "semantic"
	// User: ingestion failure, external symbol not found. Surfaced to
	// the driver.
	User Category = "user"
)

// Error codes, one range per category, mirroring the teacher's
// codes.go range-per-concern layout.
const (
	CodeVerifierInvariant = "E1001" // Structural

	CodeConversionNoLegalLowering  = "E2001" // Conversion
	CodeConversionIterationCap     = "E2002"
	CodeConversionRemainingIllegal = "E2003"

	CodeSemanticAmbiguousDeviceBinding  = "E3001" // Semantic
	CodeSemanticUnknownOperator         = "E3002"
	CodeSemanticUnresolvedForceInline   = "E3003"
	CodeSemanticUnhandledMemrefProducer = "E3004"

	CodeUserIngestionFailure       = "E4001" // User
	CodeUserExternalSymbolNotFound = "E4002"
)

// Suggestion is a suggested fix, mirroring the teacher's Suggestion.
type Suggestion struct {
	Message     string
	Replacement string
	Loc         ir.Location
	Length      int
}

// Diagnostic is one structured note the driver's Handler accumulates.
// It implements error so it can be returned or wrapped directly.
type Diagnostic struct {
	Level       Level
	Category    Category
	Code        string
	Message     string
	Loc         ir.Location
	Length      int
	Suggestions []Suggestion
	Notes       []string
	Help        string
	// Cause is the underlying Go error this diagnostic was derived
	// from, if any, preserved via github.com/pkg/errors so a caller can
	// errors.Cause() back to it.
	Cause error
}

func (d Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s[%s]: %s", d.Level, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Level, d.Message)
}

// Unwrap lets errors.Is/errors.As and errors.Cause see through to Cause.
func (d Diagnostic) Unwrap() error { return d.Cause }

// FromError builds a Diagnostic around an existing error, classifying
// it under category and code, at loc. The original error is preserved
// as Cause via errors.WithStack so its message survives unwrapping.
func FromError(level Level, category Category, code string, loc ir.Location, err error) Diagnostic {
	return Diagnostic{
		Level:    level,
		Category: category,
		Code:     code,
		Message:  err.Error(),
		Loc:      loc,
		Cause:    errors.WithStack(err),
	}
}
