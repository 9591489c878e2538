package ir

// Traits are capability markers attached to an op definition's OpInfo,
// generalizing the teacher's per-instruction GetEffects() switch
// (internal/ir/effects.go) from a closed EVM instruction set to an
// open, dialect-extensible bitset.
type Traits uint16

const (
	TraitNone Traits = 0
	// IsolatedFromAbove marks a region whose values may not be used
	// outside it, and which may not itself capture values defined
	// outside except via explicit symbol references.
	TraitIsolatedFromAbove Traits = 1 << iota
	// TraitTerminator marks an op that may end a Block.
	TraitTerminator
	// TraitMemoryEffect marks an op that reads or writes memory/storage;
	// the specific effect is reported by OpInfo.Effects (see effects.go).
	TraitMemoryEffect
	// TraitSymbolTable marks a region that maintains a name -> op index.
	TraitSymbolTable
	// TraitSameOperandsAndResultType constrains verification: every
	// operand and result must share one type.
	TraitSameOperandsAndResultType
	// TraitKnownTerminatorSuccessors marks a terminator whose successor
	// list is statically known from its attributes (vs. e.g. an
	// indirect branch).
	TraitKnownTerminatorSuccessors
)

func (t Traits) Has(flag Traits) bool { return t&flag != 0 }
