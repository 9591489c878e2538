package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// PlierLexer tokenizes the generic operation syntax printer.go emits:
// quoted op names, SSA value names, symbol references, and a small
// literal/punctuation set — generalizing the teacher's KansoLexer from
// a closed Kanso-source keyword set to the open vocabulary a uniform
// op syntax needs. Rule order matters: Arrow must be tried before
// Punct's single "-" would never fire for it (Punct has no "-"), and
// Float before Int so "0.5" doesn't lex as Int "0" followed by "." and
// Int "5".
var PlierLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"String", `"(\\.|[^"])*"`, nil},
		{"Arrow", `->`, nil},
		{"ValueName", `%[0-9]+`, nil},
		{"SymbolName", `@[a-zA-Z_][a-zA-Z0-9_.]*`, nil},
		{"Float", `-?[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.]*`, nil},
		{"Punct", `[{}()<>:,=\[\]\^]`, nil},
	},
})
