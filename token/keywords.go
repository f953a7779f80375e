package token

import "strings"

// The language is case-insensitive: all keyword lookups lowercase the
// candidate first.

// Reserved words. A reserved word is only classified as Reserved in a
// reserving syntactic position; elsewhere the lexer and parser treat it as a
// plain Word.
var keywords = map[string]bool{
	"and": true, "as": true, "break": true, "case": true, "catch": true,
	"class": true, "contains": true, "continue": true, "default": true,
	"else": true, "extends": true, "false": true, "finally": true,
	"for": true, "get": true, "global": true, "goto": true, "if": true,
	"in": true, "is": true, "isset": true, "local": true, "loop": true,
	"not": true, "or": true, "return": true, "set": true, "static": true,
	"super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "unset": true, "until": true, "while": true,
}

// flowKeywords begin a control-flow statement when they appear at a true
// statement start.
var flowKeywords = map[string]bool{
	"break": true, "case": true, "catch": true, "continue": true,
	"default": true, "else": true, "finally": true, "for": true,
	"global": true, "goto": true, "if": true, "local": true, "loop": true,
	"return": true, "static": true, "switch": true, "throw": true,
	"try": true, "until": true, "while": true,
}

// wordOperators are keywords that act as infix or prefix operators inside
// expressions.
var wordOperators = map[string]bool{
	"and": true, "contains": true, "in": true, "is": true, "not": true,
	"or": true,
}

// literalKeywords evaluate to a constant value inside expressions.
var literalKeywords = map[string]bool{
	"false": true, "true": true, "unset": true,
}

// IsKeyword reports whether name is a reserved word, ignoring case.
func IsKeyword(name string) bool {
	return keywords[strings.ToLower(name)]
}

// IsFlowKeyword reports whether name starts a control-flow statement.
func IsFlowKeyword(name string) bool {
	return flowKeywords[strings.ToLower(name)]
}

// IsWordOperator reports whether name is an operator keyword (and/or/not/...).
func IsWordOperator(name string) bool {
	return wordOperators[strings.ToLower(name)]
}

// IsLiteralKeyword reports whether name is a literal keyword (true/false/unset).
func IsLiteralKeyword(name string) bool {
	return literalKeywords[strings.ToLower(name)]
}

// Normalize lowercases a name for use as a declaration-table key.
func Normalize(name string) string { return strings.ToLower(name) }
