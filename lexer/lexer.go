// Package lexer implements the memoizing tokenizer. Tokens are scanned on
// demand from any byte offset and cached in an offset-keyed table, so the
// parser can reposition its cursor for disambiguation without rescanning.
//
// A lexer is created with New and used by one parse pass at a time. All
// lexical problems are reported as diagnostics and degrade to Unknown
// tokens; the stream always reaches EOF.
package lexer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

// DefaultMaxDepth bounds the tokenizer's recursive re-entry into nested
// raw-string, hotstring, and continuation forms.
const DefaultMaxDepth = 8

// Option is a configuration function for a Lexer.
type Option func(*Lexer)

// WithFilename sets the file name used in line text lookups.
func WithFilename(filename string) Option {
	return func(l *Lexer) { l.filename = filename }
}

// WithMaxDepth sets the maximum re-entry depth for nested raw forms.
func WithMaxDepth(depth int) Option {
	return func(l *Lexer) { l.maxDepth = depth }
}

// Lexer scans one document. The zero value is not usable; call New.
type Lexer struct {
	input    string
	filename string

	table *token.Table
	pos   int

	// lineStarts[i] is the byte offset of the first character of line i.
	lineStarts []int

	// prev is the last sequentially emitted non-comment token, used for
	// adjacency links and continuation-line classification.
	prev *token.Token

	diags diag.List
	folds []token.FoldingRange

	// regionStack holds the offsets of open ;@region markers.
	regionStack []int

	// docRun tracks a run of consecutive line-start comments; a run spanning
	// more than one line folds as a comment block.
	docRunStart int
	docRunEnd   int
	docRunLine  int

	// depth counts recursive re-entry into nested raw forms.
	depth    int
	maxDepth int
}

// New returns a Lexer over the given document text.
func New(input string, options ...Option) *Lexer {
	l := &Lexer{
		input:       input,
		table:       token.NewTable(),
		maxDepth:    DefaultMaxDepth,
		docRunStart: -1,
	}
	for _, opt := range options {
		opt(l)
	}
	l.lineStarts = append(l.lineStarts, 0)
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l
}

// Filename returns the configured file name.
func (l *Lexer) Filename() string { return l.filename }

// Input returns the document text.
func (l *Lexer) Input() string { return l.input }

// Table returns the offset-keyed token table.
func (l *Lexer) Table() *token.Table { return l.table }

// Diags returns the diagnostics recorded so far.
func (l *Lexer) Diags() *diag.List { return &l.diags }

// Folds returns the folding ranges recorded so far, closing any trailing
// comment run.
func (l *Lexer) Folds() []token.FoldingRange {
	l.flushDocRun()
	return l.folds
}

// Pos returns the current scan offset. Pos and SetPos are the parser's
// save/restore primitives.
func (l *Lexer) Pos() int { return l.pos }

// SetPos repositions the scanner.
func (l *Lexer) SetPos(offset int) {
	if offset < 0 {
		offset = 0
	}
	l.pos = offset
}

// Next scans and returns the token at the current position, advancing past
// it. At end of input it returns the zero-length EOF token.
func (l *Lexer) Next() *token.Token {
	tok := l.Token(l.pos)
	l.pos = tok.Next
	return tok
}

// Token returns the token beginning at or after the given offset. Repeated
// calls for the same offset on unmodified text return the identical cached
// token.
func (l *Lexer) Token(offset int) *token.Token {
	start := l.skipSpace(offset)
	if cached := l.table.Get(start); cached != nil {
		return cached
	}
	tok := l.scan(start)
	l.table.Put(tok)
	if tok.Kind != token.Comment && tok.Kind != token.BlockComment {
		l.prev = tok
	}
	return tok
}

// PeekNonComment returns the first non-comment token at or after offset
// without moving the scan position.
func (l *Lexer) PeekNonComment(offset int) *token.Token {
	tok := l.Token(offset)
	for tok.Kind == token.Comment || tok.Kind == token.BlockComment {
		tok = l.Token(tok.Next)
	}
	return tok
}

// scan dispatches on the character at start. start is already past any
// whitespace.
func (l *Lexer) scan(start int) *token.Token {
	if start >= len(l.input) {
		return l.emit(token.EOF, len(l.input), len(l.input), "")
	}
	ch := l.input[start]
	atLineStart := l.firstOnLine(start)

	// Comments first: they are legal in every position the scanner reaches.
	if ch == ';' && (atLineStart || start == 0 || isSpaceByte(l.input[start-1])) {
		return l.scanLineComment(start, atLineStart)
	}
	if ch == '/' && start+1 < len(l.input) && l.input[start+1] == '*' {
		return l.scanBlockComment(start)
	}

	if atLineStart {
		if tok := l.scanLineStart(start); tok != nil {
			return tok
		}
	}

	r, size := utf8.DecodeRuneInString(l.input[start:])
	switch {
	case token.IsIdentStart(r):
		return l.scanWord(start, atLineStart)
	case token.IsDigit(r):
		return l.scanNumber(start)
	case ch == '.':
		if start+1 < len(l.input) && token.IsDigit(rune(l.input[start+1])) && !l.prevIsValue(start) {
			return l.scanNumber(start)
		}
		return l.scanOperator(start)
	case ch == '"' || ch == '\'':
		return l.scanString(start)
	case ch == '(' && atLineStart:
		// Handled in scanLineStart; reaching here means it was no
		// continuation header.
		return l.scanOperator(start)
	default:
		if size > 1 {
			l.diags.Errorf(diag.CodeSyntax, token.Range{Start: start, End: start + size},
				"unexpected character %q", r)
			return l.emit(token.Unknown, start, start+size, string(r))
		}
		return l.scanOperator(start)
	}
}

// scanLineStart tries the line-start-only constructs: directives, hotkeys,
// hotstrings, labels, and continuation sections. Returns nil when none
// matches and ordinary scanning should proceed.
func (l *Lexer) scanLineStart(start int) *token.Token {
	ch := l.input[start]
	switch {
	case ch == '#':
		if tok := l.scanHotkey(start); tok != nil {
			return tok
		}
		return l.scanDirective(start)
	case ch == ':':
		if tok := l.scanHotstring(start); tok != nil {
			return tok
		}
		return nil
	case ch == '(':
		if opts, ok := l.continuationHeader(start); ok {
			return l.scanContinuationSection(start, opts)
		}
		return nil
	default:
		if tok := l.scanHotkey(start); tok != nil {
			return tok
		}
		if tok := l.scanLabel(start); tok != nil {
			return tok
		}
		return nil
	}
}

// scanWord scans an identifier and classifies reserved words. A keyword is
// reserved only in a reserving position: flow keywords at a true line start,
// "class" at a statement start, and word operators / literal keywords inside
// expressions. A word adjacent to a % deref delimiter is always plain.
func (l *Lexer) scanWord(start int, atLineStart bool) *token.Token {
	end := start
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !token.IsIdentPart(r) {
			break
		}
		end += size
	}
	text := l.input[start:end]
	kind := token.Word

	derefAdjacent := (start > 0 && l.input[start-1] == '%') ||
		(end < len(l.input) && l.input[end] == '%')
	if !derefAdjacent && token.IsKeyword(text) {
		lower := strings.ToLower(text)
		switch {
		case lower == "class":
			if atLineStart {
				kind = token.Reserved
			}
		case token.IsFlowKeyword(text):
			if atLineStart {
				kind = token.Reserved
			}
		case token.IsWordOperator(text) || token.IsLiteralKeyword(text):
			kind = token.Reserved
		case lower == "extends" || lower == "as" || lower == "get" || lower == "set" ||
			lower == "this" || lower == "super":
			// Contextual: the parser reclassifies these where the grammar
			// demands; the lexer leaves them as plain words.
		}
	}
	return l.emit(kind, start, end, text)
}

// scanNumber scans integer, hex, scientific-exponent, and leading-dot float
// forms. A sign after the exponent marker is consumed tentatively and rolled
// back when no digit run follows.
func (l *Lexer) scanNumber(start int) *token.Token {
	end := start
	if l.input[end] == '0' && end+1 < len(l.input) &&
		(l.input[end+1] == 'x' || l.input[end+1] == 'X') {
		end += 2
		digits := 0
		for end < len(l.input) && token.IsHexDigit(rune(l.input[end])) {
			end++
			digits++
		}
		if digits == 0 {
			l.diags.Errorf(diag.CodeSyntax, token.Range{Start: start, End: end},
				"missing digits in hexadecimal literal")
			return l.emit(token.Unknown, start, end, l.input[start:end])
		}
		return l.emit(token.Number, start, end, l.input[start:end])
	}

	seenDot := false
	if l.input[end] == '.' {
		seenDot = true
		end++
	}
	for end < len(l.input) && token.IsDigit(rune(l.input[end])) {
		end++
	}
	if !seenDot && end < len(l.input) && l.input[end] == '.' {
		mark := end
		end++
		digits := 0
		for end < len(l.input) && token.IsDigit(rune(l.input[end])) {
			end++
			digits++
		}
		if digits == 0 {
			// "1." followed by a non-digit is the number 1 and a dot
			// operator (member access on a literal).
			end = mark
			return l.emit(token.Number, start, end, l.input[start:end])
		}
	}
	if end < len(l.input) && (l.input[end] == 'e' || l.input[end] == 'E') {
		mark := end
		end++
		if end < len(l.input) && (l.input[end] == '+' || l.input[end] == '-') {
			end++
		}
		digits := 0
		for end < len(l.input) && token.IsDigit(rune(l.input[end])) {
			end++
			digits++
		}
		if digits == 0 {
			// Roll back: the exponent marker did not introduce a digit run.
			end = mark
		}
	}
	return l.emit(token.Number, start, end, l.input[start:end])
}

// assignOperators and multiOperators are tried longest-first.
var assignOperators = []string{
	">>>=", "<<=", ">>=", "//=", "??=",
	":=", "+=", "-=", "*=", "/=", ".=", "|=", "&=", "^=",
}

var multiOperators = []string{
	">>>", "!==", "<<", ">>", "=>", "==", "!=", "<=", ">=",
	"&&", "||", "??", "++", "--", "**", "//",
}

func (l *Lexer) scanOperator(start int) *token.Token {
	rest := l.input[start:]
	for _, op := range assignOperators {
		if strings.HasPrefix(rest, op) {
			return l.emit(token.Assign, start, start+len(op), op)
		}
	}
	for _, op := range multiOperators {
		if strings.HasPrefix(rest, op) {
			return l.emit(token.Operator, start, start+len(op), op)
		}
	}
	end := start + 1
	text := l.input[start:end]
	switch l.input[start] {
	case ',':
		return l.emit(token.Comma, start, end, text)
	case '.':
		return l.emit(token.Dot, start, end, text)
	case '=':
		return l.emit(token.Equals, start, end, text)
	case '%':
		return l.emit(token.Percent, start, end, text)
	case '(':
		return l.emit(token.ParenOpen, start, end, text)
	case ')':
		return l.emit(token.ParenClose, start, end, text)
	case '[':
		return l.emit(token.BracketOpen, start, end, text)
	case ']':
		return l.emit(token.BracketClose, start, end, text)
	case '{':
		return l.emit(token.BraceOpen, start, end, text)
	case '}':
		return l.emit(token.BraceClose, start, end, text)
	case '+', '-', '*', '/', '!', '~', '&', '|', '^', '<', '>', '?', ':':
		return l.emit(token.Operator, start, end, text)
	default:
		l.diags.Errorf(diag.CodeSyntax, token.Range{Start: start, End: end},
			"unexpected character %q", text)
		return l.emit(token.Unknown, start, end, text)
	}
}

// emit constructs a token, classifies its line position, links adjacency,
// and returns it. The caller stores it via Token.
func (l *Lexer) emit(kind token.Kind, start, end int, content string) *token.Token {
	tok := &token.Token{
		Kind:     kind,
		Offset:   start,
		Length:   end - start,
		Content:  content,
		Next:     end,
		Prev:     -1,
		OpensAt:  -1,
		ClosesAt: -1,
	}
	if l.prev != nil && l.prev.Offset < start {
		tok.Prev = l.prev.Offset
	}
	tok.TopOfLine = l.classifyLinePos(tok)
	return tok
}

// classifyLinePos decides between LineStart, MidLine, and ContinuationLine.
// A line-start token continues the previous statement when it is itself a
// continuation lead (binary operator, comma, dot) or when the previous
// non-comment token ended its line with a trailing operator.
func (l *Lexer) classifyLinePos(tok *token.Token) int8 {
	if !l.firstOnLine(tok.Offset) {
		return token.MidLine
	}
	if isContinuationLead(tok) {
		return token.ContinuationLine
	}
	if l.prev != nil && l.prev.EndOffset() <= tok.Offset && trailingOperatorContinues(l.prev) {
		return token.ContinuationLine
	}
	return token.LineStart
}

func isContinuationLead(tok *token.Token) bool {
	switch tok.Kind {
	case token.Comma, token.Dot, token.Assign, token.Equals, token.Text:
		return true
	case token.Operator:
		switch tok.Content {
		case "!", "~", "++", "--":
			return false
		}
		return true
	case token.Reserved:
		return token.IsWordOperator(tok.Content)
	default:
		return false
	}
}

func trailingOperatorContinues(prev *token.Token) bool {
	switch prev.Kind {
	case token.Comma, token.Assign, token.Equals, token.Dot,
		token.ParenOpen, token.BracketOpen:
		return true
	case token.Operator:
		switch prev.Content {
		case "++", "--":
			return false
		}
		return true
	case token.Reserved:
		return token.IsWordOperator(prev.Content)
	default:
		return false
	}
}

// prevIsValue reports whether the token immediately before offset ends a
// value (identifier, literal, or closing delimiter), which makes a following
// "." member access rather than a leading-dot float.
func (l *Lexer) prevIsValue(offset int) bool {
	if l.prev == nil || l.prev.EndOffset() > offset {
		return false
	}
	switch l.prev.Kind {
	case token.Word, token.Number, token.String, token.Percent,
		token.ParenClose, token.BracketClose, token.BraceClose:
		return true
	}
	return false
}

// skipSpace advances past horizontal whitespace and newlines.
func (l *Lexer) skipSpace(offset int) int {
	for offset < len(l.input) {
		ch := l.input[offset]
		if ch == '\n' || isSpaceByte(ch) {
			offset++
			continue
		}
		break
	}
	return offset
}

func isSpaceByte(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
}

// lineIndexOf returns the index of the line containing offset.
func (l *Lexer) lineIndexOf(offset int) int {
	return sort.Search(len(l.lineStarts), func(i int) bool {
		return l.lineStarts[i] > offset
	}) - 1
}

// lineStartOf returns the offset of the first character of offset's line.
func (l *Lexer) lineStartOf(offset int) int {
	return l.lineStarts[l.lineIndexOf(offset)]
}

// lineEndOf returns the offset of the newline ending offset's line, or the
// input length on the last line.
func (l *Lexer) lineEndOf(offset int) int {
	idx := l.lineIndexOf(offset)
	if idx+1 < len(l.lineStarts) {
		return l.lineStarts[idx+1] - 1
	}
	return len(l.input)
}

// firstOnLine reports whether only whitespace precedes offset on its line.
func (l *Lexer) firstOnLine(offset int) bool {
	for i := l.lineStartOf(offset); i < offset; i++ {
		if !isSpaceByte(l.input[i]) {
			return false
		}
	}
	return true
}

// GetLineText returns the text of the line the token begins on, for error
// display.
func (l *Lexer) GetLineText(tok *token.Token) string {
	start := l.lineStartOf(tok.Offset)
	return l.input[start:l.lineEndOf(tok.Offset)]
}

// RestOfLine returns a raw Text token covering the remainder of the line at
// offset, excluding a trailing whitespace-delimited comment. Used for
// directive arguments and replacement-style hotstrings.
func (l *Lexer) RestOfLine(offset int) *token.Token {
	start := offset
	for start < len(l.input) && isSpaceByte(l.input[start]) {
		start++
	}
	if cached := l.table.Get(start); cached != nil && cached.Kind == token.Text {
		return cached
	}
	end := l.lineEndOf(start)
	for i := start; i < end; i++ {
		if l.input[i] == ';' && (i == start || isSpaceByte(l.input[i-1])) {
			end = i
			break
		}
	}
	for end > start && isSpaceByte(l.input[end-1]) {
		end--
	}
	tok := l.emit(token.Text, start, end, l.input[start:end])
	tok.Next = l.lineEndOf(start)
	l.table.Put(tok)
	return tok
}
