package lexer

import "github.com/pumped-fn/reaxpr/value"

// Token is a single lexical unit. Text is the original source slice;
// Value is populated for number/string literals; Identifier marks
// identifier-shaped text.
type Token struct {
	Text       string
	Value      value.Value
	HasValue   bool
	Identifier bool
	Pos        int
}

// operators recognised by longest-match, longest first within each length
// tier so the scanner can try 3, then 2, then 1 without backtracking.
var operators3 = []string{"===", "!=="}
var operators2 = []string{"==", "!=", "<=", ">=", "&&", "||"}
var operators1 = "+-*/%!=<>|"

// punctuation is emitted one character at a time.
const punctuation = "[]{}:,.()?;"
