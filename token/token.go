// Package token defines the lexical tokens of the scripting language and the
// offset-keyed token table shared by the lexer and parser.
package token

// Kind describes the class of a token.
type Kind uint8

// Token kinds
const (
	Unknown Kind = iota
	EOF
	Word     // identifier
	Reserved // keyword in a reserving position
	Number
	String
	Text // raw payload: directive args, hotstring replacement, continuation body
	Operator
	Assign // ":=" and compound assignment operators
	Equals // bare "=", legal only inside expressions; legacy assignment otherwise
	Comma
	Dot
	Percent // dynamic dereference delimiter
	ParenOpen
	ParenClose
	BracketOpen
	BracketClose
	BraceOpen
	BraceClose
	Label
	Hotkey     // "key::" trigger
	HotkeyLine // full hotstring line "::trigger::replacement"
	Directive  // "#name"
	Comment
	BlockComment
)

var kindNames = map[Kind]string{
	Unknown:      "unknown",
	EOF:          "end of file",
	Word:         "identifier",
	Reserved:     "reserved word",
	Number:       "number",
	String:       "string",
	Text:         "text",
	Operator:     "operator",
	Assign:       "assignment",
	Equals:       "=",
	Comma:        ",",
	Dot:          ".",
	Percent:      "%",
	ParenOpen:    "(",
	ParenClose:   ")",
	BracketOpen:  "[",
	BracketClose: "]",
	BraceOpen:    "{",
	BraceClose:   "}",
	Label:        "label",
	Hotkey:       "hotkey",
	HotkeyLine:   "hotstring",
	Directive:    "directive",
	Comment:      "comment",
	BlockComment: "block comment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Line-start classification for a token. Forced continuation marks a token
// that begins a physical line but continues the previous statement (leading
// operator, comma, or continuation-section body).
const (
	ContinuationLine int8 = -1
	MidLine          int8 = 0
	LineStart        int8 = 1
)

// Range is a half-open byte range [Start, End) in the document text.
type Range struct {
	Start int
	End   int
}

// Contains reports whether r fully contains the other range.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Definition is implemented by symbol nodes so a token can carry a link to
// the entity it declares or references without this package depending on the
// symbol package.
type Definition interface {
	SymbolName() string
}

// CallSite records one call expression: the callee name, the offset of the
// name token, and the ranges of the supplied arguments. Consumed by
// signature-help and the type-inference collaborator.
type CallSite struct {
	Name       string
	NameOffset int
	Paren      Range   // the "(...)" span; zero for parenthesis-free calls
	Args       []Range // one range per supplied argument
}

// ParamInfo is attached to the opening delimiter of a parameter or argument
// list: the offsets of the separating commas plus the list span.
type ParamInfo struct {
	Begin  int
	End    int
	Commas []int
	Count  int
}

// SemanticHint suggests a highlight class for a token. The semantic token
// encoder (external) maps these to editor scopes.
type SemanticHint uint8

// Semantic hints
const (
	SemNone SemanticHint = iota
	SemVariable
	SemParameter
	SemFunction
	SemMethod
	SemClass
	SemProperty
	SemKeyword
	SemLabel
	SemOperator
)

// FoldingKind labels a folding range for editors that distinguish them.
type FoldingKind string

// Folding kinds
const (
	FoldBlock        FoldingKind = "block"
	FoldComment      FoldingKind = "comment"
	FoldRegion       FoldingKind = "region"
	FoldContinuation FoldingKind = "continuation"
)

// FoldingRange is a foldable span of the document, emitted by the lexer for
// comments/regions/continuations and by the parser for blocks.
type FoldingRange struct {
	Range Range
	Kind  FoldingKind
}

// Token is one lexeme of the document. Tokens are immutable once scanned
// except for the reclassification fields the parser may overwrite: Kind (for
// reserved-word demotion), OpensAt/ClosesAt pairing, the attached Symbol,
// call-site and parameter-list info, and the semantic hint.
type Token struct {
	Kind    Kind
	Offset  int
	Length  int
	Content string

	// TopOfLine is one of ContinuationLine, MidLine, LineStart.
	TopOfLine int8

	// Prev is the offset of the previous non-comment token, -1 at the start.
	// Next is the offset where the following token begins scanning.
	Prev int
	Next int

	// OpensAt/ClosesAt link matching delimiters by offset, -1 when unpaired.
	OpensAt  int
	ClosesAt int

	// Fragments holds the sub-ranges of a string token assembled from
	// continuation-section lines, preserved for the formatter.
	Fragments []Range

	Symbol   Definition
	CallSite *CallSite
	Params   *ParamInfo
	Hint     SemanticHint
}

// Range returns the byte range covered by the token.
func (t *Token) Range() Range {
	return Range{Start: t.Offset, End: t.Offset + t.Length}
}

// EndOffset returns the offset just past the token text.
func (t *Token) EndOffset() int { return t.Offset + t.Length }

// Is reports whether the token has the given kind.
func (t *Token) Is(k Kind) bool { return t != nil && t.Kind == k }

// IsOp reports whether the token is an operator with the given text.
func (t *Token) IsOp(text string) bool {
	return t != nil && t.Kind == Operator && t.Content == text
}

// OpensBlock reports whether the token can open a brace-delimited body.
func (t *Token) OpensBlock() bool { return t.Is(BraceOpen) }
