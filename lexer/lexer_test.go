package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

func scanAll(t *testing.T, input string) []*token.Token {
	t.Helper()
	l := New(input)
	var toks []*token.Token
	for {
		tok := l.Next()
		require.NotNil(t, tok)
		if tok.Kind == token.EOF {
			return toks
		}
		toks = append(toks, tok)
		require.Less(t, len(toks), 10000, "lexer failed to make progress")
	}
}

func kinds(toks []*token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestWordsAndKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  []token.Kind
	}{
		{"x := 1", []token.Kind{token.Word, token.Assign, token.Number}},
		{"if x", []token.Kind{token.Reserved, token.Word}},
		{"a and b", []token.Kind{token.Word, token.Reserved, token.Word}},
		{"return x", []token.Kind{token.Reserved, token.Word}},
		// "class" reserves only at line start.
		{"x := class", []token.Kind{token.Word, token.Assign, token.Word}},
		{"class Foo {\n}", []token.Kind{token.Reserved, token.Word, token.BraceOpen, token.BraceClose}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(scanAll(t, tt.input)))
		})
	}
}

func TestCaseInsensitiveKeywords(t *testing.T) {
	toks := scanAll(t, "If x\nWHILE y")
	require.Len(t, toks, 4)
	assert.Equal(t, token.Reserved, toks[0].Kind)
	assert.Equal(t, token.Reserved, toks[2].Kind)
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input   string
		content string
	}{
		{"42", "42"},
		{"0x1A", "0x1A"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"2.5e-3", "2.5e-3"},
		{".5", ".5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := scanAll(t, tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, token.Number, toks[0].Kind)
			assert.Equal(t, tt.content, toks[0].Content)
		})
	}
}

func TestExponentSignRollback(t *testing.T) {
	// "1e+" is not an exponent; the marker and sign are handed back.
	toks := scanAll(t, "1e+x")
	require.Len(t, toks, 4)
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "1", toks[0].Content)
	assert.Equal(t, token.Word, toks[1].Kind)
	assert.Equal(t, token.Operator, toks[2].Kind)
}

func TestDotAfterNumber(t *testing.T) {
	// "1." followed by a non-digit is a number then a member dot.
	toks := scanAll(t, "1.foo")
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "1", toks[0].Content)
	assert.Equal(t, token.Dot, toks[1].Kind)
	assert.Equal(t, token.Word, toks[2].Kind)
}

func TestStrings(t *testing.T) {
	toks := scanAll(t, `x := "hello"`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.String, toks[2].Kind)
	assert.Equal(t, "hello", toks[2].Content)

	toks = scanAll(t, "y := 'single'")
	require.Len(t, toks, 3)
	assert.Equal(t, token.String, toks[2].Kind)
	assert.Equal(t, "single", toks[2].Content)
}

func TestStringEscapes(t *testing.T) {
	toks := scanAll(t, "x := \"a`nb\"")
	require.Len(t, toks, 3)
	assert.Equal(t, "a\nb", toks[2].Content)
}

func TestUnterminatedString(t *testing.T) {
	l := New(`x := "abc`)
	var last *token.Token
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		last = tok
	}
	require.NotNil(t, last)
	assert.Equal(t, token.String, last.Kind)
	assert.Equal(t, 9, last.EndOffset(), "string token runs to end of document")

	items := l.Diags().Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.CodeUnterminatedString, items[0].Code)
}

func TestHotkeyVsLabelVsAssignment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  token.Kind
	}{
		{"plain hotkey", "F1::", token.Hotkey},
		{"modified hotkey", "^!c::", token.Hotkey},
		{"combo hotkey", "a & b::", token.Hotkey},
		{"label", "target:", token.Label},
		{"assignment is not a label", "x := 1", token.Word},
		{"hotstring", "::btw::by the way", token.HotkeyLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := scanAll(t, tt.input)
			require.NotEmpty(t, toks)
			assert.Equal(t, tt.kind, toks[0].Kind)
		})
	}
}

func TestHotkeyContent(t *testing.T) {
	toks := scanAll(t, `F::MsgBox "hi"`)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, token.Hotkey, toks[0].Kind)
	assert.Equal(t, "F", toks[0].Content)
	assert.Equal(t, token.Word, toks[1].Kind)
	assert.Equal(t, int8(token.MidLine), toks[1].TopOfLine)
}

func TestLabelRequiresBareLine(t *testing.T) {
	// "a: 1" has trailing text, so "a" is an identifier, not a label.
	toks := scanAll(t, "a: 1")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Word, toks[0].Kind)
}

func TestDirectives(t *testing.T) {
	toks := scanAll(t, "#Requires AutoHotkey v2.0")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Directive, toks[0].Kind)
	assert.Equal(t, "#Requires", toks[0].Content)
}

func TestComments(t *testing.T) {
	l := New("; line comment\nx := 1 ; trailing\n/* block\ncomment */\ny := 2")
	var words []string
	for {
		tok := l.PeekNonComment(l.Pos())
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.Word {
			words = append(words, tok.Content)
		}
		l.SetPos(tok.Next)
	}
	assert.Equal(t, []string{"x", "y"}, words)
}

func TestBlockCommentFolding(t *testing.T) {
	l := New("/* one\ntwo\nthree */\nx := 1")
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	folds := l.Folds()
	require.NotEmpty(t, folds)
	assert.Equal(t, token.FoldComment, folds[0].Kind)
}

func TestCommentRunFolding(t *testing.T) {
	input := ";; Helpers\n; grouped utility functions\n; for string handling\nx := 1\n"
	l := New(input)
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	folds := l.Folds()
	require.Len(t, folds, 1)
	assert.Equal(t, token.FoldComment, folds[0].Kind)
	assert.Equal(t, 0, folds[0].Range.Start)

	// A lone comment line folds nothing.
	l = New("; single\nx := 1\n")
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	assert.Empty(t, l.Folds())
}

func TestRegionMarkers(t *testing.T) {
	input := ";@region setup\nx := 1\n;@endregion\n"
	l := New(input)
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	folds := l.Folds()
	require.Len(t, folds, 1)
	assert.Equal(t, token.FoldRegion, folds[0].Kind)
}

func TestTopOfLineClassification(t *testing.T) {
	toks := scanAll(t, "x := 1\ny := 2")
	require.Len(t, toks, 6)
	assert.Equal(t, int8(token.LineStart), toks[0].TopOfLine)
	assert.Equal(t, int8(token.MidLine), toks[1].TopOfLine)
	assert.Equal(t, int8(token.LineStart), toks[3].TopOfLine)
}

func TestLeadingOperatorContinuation(t *testing.T) {
	toks := scanAll(t, "x := 1\n    + 2")
	var plus *token.Token
	for _, tok := range toks {
		if tok.IsOp("+") {
			plus = tok
		}
	}
	require.NotNil(t, plus)
	assert.Equal(t, int8(token.ContinuationLine), plus.TopOfLine)
}

func TestMemoizedRetokenization(t *testing.T) {
	input := "foo(a, b)\nbar := baz + 1"
	l := New(input)

	first := make(map[int]token.Kind)
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		first[tok.Offset] = tok.Kind
	}

	// Re-reading every offset must return the identical cached tokens.
	for offset, kind := range first {
		tok := l.Token(offset)
		require.NotNil(t, tok)
		assert.Equal(t, kind, tok.Kind)
		assert.Equal(t, offset, tok.Offset)
		assert.Same(t, tok, l.Token(offset))
	}
}

func TestStringContinuationSection(t *testing.T) {
	input := "x := \"\n(\nline one\nline two\n)\"\n"
	l := New(input)
	var str *token.Token
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.String {
			str = tok
		}
	}
	require.NotNil(t, str)
	assert.Contains(t, str.Content, "line one")
	assert.Contains(t, str.Content, "line two")
	assert.NotEmpty(t, str.Fragments, "continuation fragments preserved")
	assert.Empty(t, l.Diags().Items())
}

func TestContinuationSectionFold(t *testing.T) {
	input := "x := \"\n(\na\nb\n)\"\n"
	l := New(input)
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	var found bool
	for _, f := range l.Folds() {
		if f.Kind == token.FoldContinuation {
			found = true
		}
	}
	assert.True(t, found)
}

func TestContinuationSectionTokenLinks(t *testing.T) {
	input := "x := \"\n(\nline one\nline two\n)\"\n"
	l := New(input)
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}

	// The section's ")" belongs to the string token; it must not surface as
	// a delimiter of its own, and every pairing link must be reciprocal.
	for _, offset := range l.Table().Offsets() {
		tok := l.Table().Get(offset)
		assert.False(t, tok.IsOp(")"), "stray closer token at offset %d", offset)
		if tok.OpensAt < 0 {
			continue
		}
		opener := l.Table().Get(tok.OpensAt)
		require.NotNil(t, opener, "link from offset %d points at no token", offset)
		assert.Equal(t, offset, opener.ClosesAt)
	}
}

func TestOperatorLadder(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		text  string
	}{
		{"a := b", token.Assign, ":="},
		{"a += b", token.Assign, "+="},
		{"a .= b", token.Assign, ".="},
		{"a == b", token.Operator, "=="},
		{"a != b", token.Operator, "!="},
		{"a && b", token.Operator, "&&"},
		{"a ?? b", token.Operator, "??"},
		{"a => b", token.Operator, "=>"},
		{"a ** b", token.Operator, "**"},
		{"a = b", token.Equals, "="},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := scanAll(t, tt.input)
			require.Len(t, toks, 3)
			assert.Equal(t, tt.kind, toks[1].Kind)
			assert.Equal(t, tt.text, toks[1].Content)
		})
	}
}

func TestPercentAdjacentWord(t *testing.T) {
	// A keyword adjacent to a deref delimiter lexes as a plain identifier.
	toks := scanAll(t, "if%x%")
	require.GreaterOrEqual(t, len(toks), 4)
	assert.Equal(t, token.Word, toks[0].Kind)
	assert.Equal(t, token.Percent, toks[1].Kind)
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closed\nx := 1")
	for {
		if l.Next().Kind == token.EOF {
			break
		}
	}
	items := l.Diags().Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.CodeUnterminated, items[0].Code)
}
