package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahkls/ahkls/parser"
	"github.com/ahkls/ahkls/symbol"
)

func newDoc(t *testing.T, text string, options ...Option) *Document {
	t.Helper()
	doc := New(context.Background(), "file:///test.ahk", text, options...)
	require.NotNil(t, doc)
	require.NotNil(t, doc.Results())
	return doc
}

func TestNewDocument(t *testing.T) {
	doc := newDoc(t, "x := 1\n")

	assert.Equal(t, "/test.ahk", doc.Path)
	assert.NotEqual(t, "", doc.ID.String())
	assert.NotNil(t, doc.Lookup("x"))
	assert.NotNil(t, doc.Lookup("X"), "lookup ignores case")
	assert.Nil(t, doc.Lookup("y"))
}

func TestUpdateReplacesResults(t *testing.T) {
	doc := newDoc(t, "x := 1\n")
	require.NotNil(t, doc.Lookup("x"))

	doc.Update(context.Background(), "y := 2\n", 1)

	assert.Nil(t, doc.Lookup("x"))
	assert.NotNil(t, doc.Lookup("y"))
	assert.Equal(t, int32(1), doc.Version)
}

func TestLookupFindsLabels(t *testing.T) {
	doc := newDoc(t, "start:\nx := 1\n")

	n := doc.Lookup("start")
	require.NotNil(t, n)
	_, ok := n.(*symbol.Label)
	assert.True(t, ok)
}

func TestPositionOffsetRoundTrip(t *testing.T) {
	text := "abc\ndef\nghi"
	doc := newDoc(t, text)

	for offset := 0; offset <= len(text); offset++ {
		pos := doc.PositionAt(offset)
		assert.Equal(t, offset, doc.OffsetAt(pos), "offset %d", offset)
	}
}

func TestPositionCountsUTF16Units(t *testing.T) {
	// "𝕏" is U+1D54F: 4 bytes in UTF-8, two UTF-16 code units.
	text := "x := \"\U0001d54f\" ; wide\n"
	doc := newDoc(t, text)

	quote := 5 // offset of the opening quote
	after := quote + 1 + 4 + 1

	pos := doc.PositionAt(after)
	assert.Equal(t, uint32(0), pos.Line)
	assert.Equal(t, uint32(quote+1+2+1), pos.Character)
	assert.Equal(t, after, doc.OffsetAt(pos))
}

func TestPositionAtClamps(t *testing.T) {
	doc := newDoc(t, "ab\n")
	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, doc.PositionAt(-5))

	end := doc.PositionAt(9999)
	assert.Equal(t, 3, doc.OffsetAt(end))

	// A position past the last line maps to the document end.
	assert.Equal(t, 3, doc.OffsetAt(protocol.Position{Line: 40, Character: 0}))
}

func TestDiagnosticsConversion(t *testing.T) {
	doc := newDoc(t, "f(a, b := 1, c) {\n}\n")

	diags := doc.Diagnostics()
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, protocol.SeverityError, d.Severity)
	assert.Contains(t, d.Message, "default value missing")
	assert.Equal(t, uint32(0), d.Range.Start.Line)
	assert.Equal(t, uint32(13), d.Range.Start.Character)
	assert.Equal(t, uint32(14), d.Range.End.Character)
}

func TestDocumentSymbols(t *testing.T) {
	text := `class Point {
  x := 0
  Length() {
    return this.x
  }
}
go(n) {
  return n
}
F1::go(1)
`
	doc := newDoc(t, text)

	syms := doc.DocumentSymbols()
	names := make(map[string]protocol.SymbolKind)
	for _, s := range syms {
		names[s.Name] = s.Kind
	}
	assert.Equal(t, protocol.Class, names["Point"])
	assert.Equal(t, protocol.Function, names["go"])
	assert.Equal(t, protocol.Event, names["F1"])

	for _, s := range syms {
		if s.Name != "Point" {
			continue
		}
		kids := make(map[string]protocol.SymbolKind)
		for _, kid := range s.Children {
			kids[kid.Name] = kid.Kind
		}
		assert.Equal(t, protocol.Method, kids["Length"])
		assert.Equal(t, protocol.Property, kids["x"])
	}
}

func TestFoldingRanges(t *testing.T) {
	text := `f() {
  x := 1
  y := 2
}
/* one
two */
z := 3
`
	doc := newDoc(t, text)

	folds := doc.FoldingRanges()
	require.NotEmpty(t, folds)

	var haveBlock, haveComment bool
	for _, f := range folds {
		assert.Greater(t, f.EndLine, f.StartLine, "single-line ranges are dropped")
		if f.Kind == string(protocol.Comment) {
			haveComment = true
		} else {
			haveBlock = true
		}
	}
	assert.True(t, haveBlock)
	assert.True(t, haveComment)
}

func TestWorkspaceOpenAndClose(t *testing.T) {
	w := NewWorkspace()
	doc := w.Open(context.Background(), "file:///a.ahk", "x := 1\n", 0)

	assert.Same(t, doc, w.Get("/a.ahk"))
	assert.Same(t, doc, w.Get("/A.ahk"), "paths compare case-insensitively")
	assert.Len(t, w.Documents(), 1)

	w.Close("/a.ahk")
	assert.Nil(t, w.Get("/a.ahk"))
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestWorkspaceLoadsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.ahk", "Helper(x) {\n  return x\n}\n")
	main := writeFile(t, dir, "main.ahk", "#Include util.ahk\ny := Helper(1)\n")

	w := NewWorkspace()
	doc, err := w.Load(context.Background(), main)
	require.NoError(t, err)
	assert.Len(t, w.Documents(), 2)

	n := w.LookupAll(doc, "helper")
	require.NotNil(t, n)
	_, ok := n.(*symbol.Func)
	assert.True(t, ok)
}

func TestWorkspaceLibraryInclude(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	writeFile(t, lib, "str.ahk", "Join(a, b) {\n  return a b\n}\n")
	main := writeFile(t, dir, "main.ahk", "#Include <str>\n")

	w := NewWorkspace(WithLibDirs(lib))
	_, err := w.Load(context.Background(), main)
	require.NoError(t, err)

	assert.NotNil(t, w.Get(filepath.Join(lib, "str.ahk")))
}

func TestWorkspaceIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ahk", "#Include b.ahk\nA_Func() {\n}\n")
	writeFile(t, dir, "b.ahk", "#Include a.ahk\nB_Func() {\n}\n")

	w := NewWorkspace()
	_, err := w.Load(context.Background(), filepath.Join(dir, "a.ahk"))
	require.NoError(t, err)

	assert.Len(t, w.Documents(), 2, "cyclic includes load each file once")
}

func TestWorkspaceMissingInclude(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ahk", "#Include nope.ahk\nx := 1\n")

	w := NewWorkspace()
	doc, err := w.Load(context.Background(), main)
	require.NoError(t, err)
	assert.NotNil(t, doc.Lookup("x"), "a missing include does not block the parse")
}

func TestIncludedFilesUseSkipLinePolicy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.ahk", "x = legacy\nNewer() {\n}\n")
	main := writeFile(t, dir, "main.ahk", "#Include old.ahk\n")

	w := NewWorkspace()
	doc, err := w.Load(context.Background(), main)
	require.NoError(t, err)

	assert.NotNil(t, w.LookupAll(doc, "newer"),
		"library includes skip legacy lines instead of aborting")
}

func TestFindClass(t *testing.T) {
	text := `class Outer {
  class Inner {
    f() {
      return 1
    }
  }
}`
	w := NewWorkspace()
	doc := w.Open(context.Background(), "file:///c.ahk", text, 0)

	assert.NotNil(t, w.FindClass(doc, "Outer"))
	inner := w.FindClass(doc, "Outer.Inner")
	require.NotNil(t, inner)
	assert.Equal(t, "Inner", inner.Name)
	assert.Nil(t, w.FindClass(doc, "Outer.Missing"))
	assert.Nil(t, w.FindClass(doc, "Nope"))
}

func TestRecoveryPolicyOption(t *testing.T) {
	doc := newDoc(t, "x = 1\ny := 2\n", WithRecoveryPolicy(parser.PolicySkipLine))

	assert.False(t, doc.Results().Stopped)
	assert.NotNil(t, doc.Lookup("y"))
}

func TestBuiltinsAreResolved(t *testing.T) {
	doc := newDoc(t, "f() {\n  MsgBox(A_ScriptDir)\n}\n")

	fn, ok := doc.Lookup("f").(*symbol.Func)
	require.True(t, ok)
	assert.Empty(t, fn.Unresolved)
}
