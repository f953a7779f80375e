package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

func parseText(t *testing.T, input string, options ...Option) *Results {
	t.Helper()
	res, _ := Parse(context.Background(), input, options...)
	require.NotNil(t, res)
	return res
}

func diagCodes(res *Results) []diag.Code {
	items := res.Diags.Items()
	codes := make([]diag.Code, len(items))
	for i, item := range items {
		codes[i] = item.Code
	}
	return codes
}

func TestTopLevelAssignment(t *testing.T) {
	res := parseText(t, "x := 1")

	require.Empty(t, res.Diags.Items())
	node, ok := res.Globals["x"]
	require.True(t, ok)
	v, ok := node.(*symbol.Variable)
	require.True(t, ok)
	assert.Equal(t, "x", v.Name)
	assert.True(t, v.Defined)
	assert.Equal(t, "#number", v.TypeHint)
}

func TestCaseInsensitiveDeclarations(t *testing.T) {
	res := parseText(t, "Foo := 1\nFOO := 2")
	require.Empty(t, res.Diags.Items())

	// Same-kind redeclaration is legal; the first declaration wins.
	node := res.Globals["foo"]
	require.NotNil(t, node)
	assert.Equal(t, "Foo", node.SymbolName())
}

func TestRequiredParamAfterOptional(t *testing.T) {
	res := parseText(t, "foo(a, b := 1, c) {\n}")

	items := res.Diags.Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.CodeParamOrder, items[0].Code)
	assert.Contains(t, items[0].Message, "default value missing")
	assert.Contains(t, items[0].Message, `"c"`)

	fn, ok := res.Globals["foo"].(*symbol.Func)
	require.True(t, ok)
	require.Len(t, fn.Params, 3)
	assert.True(t, fn.Params[1].Optional)
	assert.True(t, fn.Params[1].HasDefault)
}

func findObject(nodes []symbol.Node) *symbol.Class {
	for _, n := range nodes {
		if cls, ok := n.(*symbol.Class); ok && cls.Kind == symbol.KindObject {
			return cls
		}
		if obj := findObject(n.Children()); obj != nil {
			return obj
		}
	}
	return nil
}

func TestObjectLiteralInExpressionPosition(t *testing.T) {
	res := parseText(t, "obj := { a: 1, b: 2 }")
	require.Empty(t, res.Diags.Items())

	obj := findObject(res.Symbols())
	require.NotNil(t, obj)
	assert.Contains(t, obj.Static, "a")
	assert.Contains(t, obj.Static, "b")
}

func TestBraceInStatementPositionIsBlock(t *testing.T) {
	res := parseText(t, "{ a: 1, b: 2 }")

	assert.Nil(t, findObject(res.Symbols()), "statement position parses a block, not an object")
}

func TestHotkeyWithCommandBody(t *testing.T) {
	res := parseText(t, `F::MsgBox "hi"`)

	var hk *symbol.Hotkey
	for _, n := range res.Symbols() {
		if h, ok := n.(*symbol.Hotkey); ok {
			hk = h
		}
	}
	require.NotNil(t, hk)
	assert.Equal(t, "F", hk.Name)
	require.NotNil(t, hk.Body)

	require.Len(t, res.CallSites, 1)
	assert.Equal(t, "MsgBox", res.CallSites[0].Name)
	assert.Len(t, res.CallSites[0].Args, 1)
}

func TestUnterminatedStringRecovers(t *testing.T) {
	res := parseText(t, `x := "abc`)

	items := res.Diags.Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.CodeUnterminatedString, items[0].Code)

	// The parse still completes and declares x.
	assert.Contains(t, res.Globals, "x")
	assert.False(t, res.Stopped)
}

func TestDelimiterPairingSymmetry(t *testing.T) {
	res := parseText(t, "x := foo(bar[1], baz(2))\n")
	require.Empty(t, res.Diags.Items())

	for _, offset := range res.Table.Offsets() {
		tok := res.Table.Get(offset)
		if tok.ClosesAt < 0 {
			continue
		}
		closer := res.Table.Get(tok.ClosesAt)
		require.NotNil(t, closer, "closer token at %d must exist", tok.ClosesAt)
		assert.Equal(t, tok.Offset, closer.OpensAt,
			"opener at %d and closer at %d must link both ways", tok.Offset, closer.Offset)
	}
}

func TestMissingCloserSingleDiagnostic(t *testing.T) {
	res := parseText(t, "x := foo(1, 2\n")

	count := 0
	for _, item := range res.Diags.Items() {
		if item.Code == diag.CodeMissingCloser {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFunctionDefinitionVsCall(t *testing.T) {
	res := parseText(t, "foo(x) {\n  return x\n}\nfoo(42)\n")
	require.Empty(t, res.Diags.Items())

	fn, ok := res.Globals["foo"].(*symbol.Func)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)

	require.Len(t, res.CallSites, 1)
	assert.Equal(t, "foo", res.CallSites[0].Name)
}

func TestScopeTotality(t *testing.T) {
	input := `f(a) {
  local b := 2
  global g
  c := 3
  return a + b + c + d
}`
	res := parseText(t, input)

	fn, ok := res.Globals["f"].(*symbol.Func)
	require.True(t, ok)

	assert.Contains(t, fn.Declared, "a")
	assert.Contains(t, fn.Declared, "b")
	assert.Contains(t, fn.Declared, "c", "undeclared write becomes an inferred local")
	assert.Contains(t, fn.Global, "g")
	assert.Contains(t, fn.Unresolved, "d")

	// Every reference lands in exactly one table.
	for _, ref := range fn.Refs() {
		key := ref.Key()
		_, declared := fn.Declared[key]
		_, global := fn.Global[key]
		_, unresolved := fn.Unresolved[key]
		n := 0
		for _, hit := range []bool{declared, global, unresolved} {
			if hit {
				n++
			}
		}
		assert.GreaterOrEqual(t, n, 1, "reference %q must resolve somewhere", ref.Name)
	}
}

func TestAssumeGlobalPromotesWrites(t *testing.T) {
	input := `f() {
  global
  x := 1
}`
	res := parseText(t, input)
	require.Empty(t, res.Diags.Items())

	fn := res.Globals["f"].(*symbol.Func)
	assert.Equal(t, symbol.AssumeGlobal, fn.Assume)
	assert.Contains(t, res.Globals, "x", "write under assume-global promotes to file scope")

	// The function's global map and the document table share identity.
	assert.Same(t, res.Globals["x"].(*symbol.Variable), fn.Global["x"].(*symbol.Variable))
}

func TestAssumeStatic(t *testing.T) {
	input := `counter() {
  static
  n := 0
  n += 1
  return n
}`
	res := parseText(t, input)
	fn := res.Globals["counter"].(*symbol.Func)
	assert.Equal(t, symbol.AssumeStatic, fn.Assume)
	v, ok := fn.Declared["n"]
	require.True(t, ok)
	assert.True(t, v.Static)
}

func TestClosureCapture(t *testing.T) {
	input := `outer() {
  x := 1
  inner() {
    return x
  }
}`
	res := parseText(t, input)

	outer := res.Globals["outer"].(*symbol.Func)
	var inner *symbol.Func
	for _, kid := range outer.Children() {
		if fn, ok := kid.(*symbol.Func); ok && fn.Name == "inner" {
			inner = fn
		}
	}
	require.NotNil(t, inner)
	assert.True(t, inner.Closure)
	assert.Empty(t, inner.Unresolved, "captured name is claimed by the enclosing scope")
}

func TestGlobalReadWithoutDeclaration(t *testing.T) {
	input := "limit := 10\nf() {\n  return limit\n}\n"
	res := parseText(t, input)

	fn := res.Globals["f"].(*symbol.Func)
	assert.Empty(t, fn.Unresolved)
	assert.Contains(t, fn.Global, "limit")
}

func TestTopLevelKindCollision(t *testing.T) {
	res := parseText(t, "Foo() {\n}\nclass Foo {\n}")

	assert.Contains(t, diagCodes(res), diag.CodeNameCollision)
}

func TestVariableRedeclarationIsLegal(t *testing.T) {
	res := parseText(t, "x := 1\nx := 2\nx := 3")
	assert.Empty(t, res.Diags.Items())
}

func TestDuplicateParameter(t *testing.T) {
	res := parseText(t, "f(a, A) {\n}")
	assert.Contains(t, diagCodes(res), diag.CodeParamDuplicate)
}

func TestLegacyAssignmentAborts(t *testing.T) {
	res := parseText(t, "x = 1\ny := 2")

	assert.True(t, res.Stopped)
	assert.Contains(t, diagCodes(res), diag.CodeDialect)
	assert.NotContains(t, res.Globals, "y", "parse stops at the mismatch")
}

func TestLegacyAssignmentSkipLinePolicy(t *testing.T) {
	res := parseText(t, "x = 1\ny := 2", WithRecoveryPolicy(PolicySkipLine))

	assert.False(t, res.Stopped)
	assert.Contains(t, res.Globals, "y")
	items := res.Diags.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, diag.Warning, items[0].Severity)
}

func TestRequiresDirectiveVersionMismatch(t *testing.T) {
	res := parseText(t, "#Requires AutoHotkey v1.1\nx := 1")
	assert.True(t, res.Stopped)
	assert.Contains(t, diagCodes(res), diag.CodeDialect)

	res = parseText(t, "#Requires AutoHotkey v2.0\nx := 1")
	assert.False(t, res.Stopped)
	assert.Contains(t, res.Globals, "x")
}

func TestIncludeDirectives(t *testing.T) {
	res := parseText(t, "#Include lib.ahk\n#Include <util>\n")

	require.Len(t, res.Includes, 2)
	assert.Equal(t, "lib.ahk", res.Includes[0].Raw)
	assert.False(t, res.Includes[0].Library)
	assert.Equal(t, "<util>", res.Includes[1].Raw)
	assert.True(t, res.Includes[1].Library)
}

func TestLoopArgumentCounts(t *testing.T) {
	res := parseText(t, "loop 3\n  x := A_Index\n")
	assert.Empty(t, diagCodes(res))

	res = parseText(t, "loop 1, 2\n  x := 1\n")
	assert.Contains(t, diagCodes(res), diag.CodeArgCount)

	res = parseText(t, "loop parse, input, \"`n\"\n  y := A_LoopField\n")
	assert.NotContains(t, diagCodes(res), diag.CodeArgCount)
}

func TestIfElseChain(t *testing.T) {
	input := `if x {
  a := 1
} else if y {
  b := 2
} else {
  c := 3
}`
	res := parseText(t, input)
	assert.Empty(t, res.Diags.Items())
	assert.Contains(t, res.Globals, "a")
	assert.Contains(t, res.Globals, "b")
	assert.Contains(t, res.Globals, "c")
}

func TestSwitchStatement(t *testing.T) {
	input := `switch x {
case 1, 2:
  a := 1
case "three":
  b := 2
default:
  c := 3
}`
	res := parseText(t, input)
	assert.Empty(t, res.Diags.Items())
	assert.Contains(t, res.Globals, "a")
	assert.Contains(t, res.Globals, "c")
}

func TestTryCatchFinally(t *testing.T) {
	input := `try {
  risky()
} catch TypeError as err {
  handle(err)
} finally {
  cleanup()
}`
	res := parseText(t, input)
	assert.Empty(t, res.Diags.Items())
	names := make([]string, 0, len(res.CallSites))
	for _, cs := range res.CallSites {
		names = append(names, cs.Name)
	}
	assert.Contains(t, names, "risky")
	assert.Contains(t, names, "cleanup")
}

func TestClassBody(t *testing.T) {
	input := `class Point extends Base {
  x := 0
  y := 0
  static Origin := 0

  Length() {
    return this.x + this.y
  }

  static Make(x, y) {
    return Point()
  }

  Norm {
    get => this.Length()
  }
}`
	res := parseText(t, input)
	require.Empty(t, res.Diags.Items())

	cls, ok := res.Globals["point"].(*symbol.Class)
	require.True(t, ok)
	assert.Equal(t, "base", cls.Extends)

	assert.Contains(t, cls.Instance, "x")
	assert.Contains(t, cls.Instance, "y")
	assert.Contains(t, cls.Instance, "length")
	assert.Contains(t, cls.Instance, "norm")
	assert.Contains(t, cls.Static, "origin")
	assert.Contains(t, cls.Static, "make")

	method, ok := cls.Instance["length"].(*symbol.Func)
	require.True(t, ok)
	assert.True(t, method.HasThis)

	prop, ok := cls.Instance["norm"].(*symbol.Property)
	require.True(t, ok)
	assert.NotNil(t, prop.Getter)
	assert.Nil(t, prop.Setter)
}

func TestPropertyMethodCombination(t *testing.T) {
	input := `class C {
  Value {
    get => 1
  }
  Value(x) {
    return x
  }
}`
	res := parseText(t, input)
	require.Empty(t, res.Diags.Items())

	cls := res.Globals["c"].(*symbol.Class)
	prop, ok := cls.Instance["value"].(*symbol.Property)
	require.True(t, ok)
	assert.NotNil(t, prop.Getter)
	assert.NotNil(t, prop.Call, "a property and an accessor-less method combine")
}

func TestNestedClass(t *testing.T) {
	input := `class Outer {
  class Inner {
    f() {
      return 1
    }
  }
}`
	res := parseText(t, input)
	require.Empty(t, res.Diags.Items())

	outer := res.Globals["outer"].(*symbol.Class)
	inner, ok := outer.Static["inner"].(*symbol.Class)
	require.True(t, ok)
	assert.Contains(t, inner.Instance, "f")
}

func TestLabelsAndGoto(t *testing.T) {
	input := "start:\nx := 1\ngoto start\n"
	res := parseText(t, input)
	assert.Empty(t, res.Diags.Items())
	assert.Contains(t, res.Labels, "start")
}

func TestDuplicateLabel(t *testing.T) {
	res := parseText(t, "a:\nx := 1\nA:\ny := 2\n")
	assert.Contains(t, diagCodes(res), diag.CodeNameCollision)
}

func TestArrowFunctions(t *testing.T) {
	res := parseText(t, "double := x => x * 2\nadd := (a, b) => a + b\n")
	require.Empty(t, res.Diags.Items())

	count := 0
	for _, n := range res.FileScope.Children() {
		if fn, ok := n.(*symbol.Func); ok && fn.Name == "" {
			count++
			assert.NotEmpty(t, fn.Params)
			assert.Empty(t, fn.Unresolved)
		}
	}
	assert.Equal(t, 2, count)
}

func TestDynamicDereference(t *testing.T) {
	res := parseText(t, "n := 1\nvalue%n% := 2\nx := %n%\n")
	assert.Empty(t, res.Diags.Items())

	// Pairing: every percent opener links to its closer and back.
	opens := 0
	for _, offset := range res.Table.Offsets() {
		tok := res.Table.Get(offset)
		if tok.Kind != token.Percent || tok.OpensAt >= 0 {
			continue
		}
		opens++
		require.GreaterOrEqual(t, tok.ClosesAt, 0, "percent at %d left unpaired", offset)
		closer := res.Table.Get(tok.ClosesAt)
		require.NotNil(t, closer)
		assert.Equal(t, offset, closer.OpensAt)
	}
	assert.Equal(t, 2, opens)
}

func TestDynamicDereferenceRead(t *testing.T) {
	res := parseText(t, "n := 1\nx := %n%\n")
	assert.Empty(t, res.Diags.Items())
	require.Contains(t, res.Globals, "x")
}

func TestDynamicDereferenceAssignmentTarget(t *testing.T) {
	res := parseText(t, "n := 1\nvalue%n% := 2\ny := 3\n")
	assert.Empty(t, res.Diags.Items())

	// The assignment after the composite target must not be swallowed into
	// the dereference, and the following statement still parses.
	require.Contains(t, res.Globals, "y")
}

func TestCallSiteArguments(t *testing.T) {
	res := parseText(t, "foo(1, \"two\", bar())\n")

	var foo *token.CallSite
	for _, cs := range res.CallSites {
		if cs.Name == "foo" {
			foo = cs
		}
	}
	require.NotNil(t, foo)
	assert.Len(t, foo.Args, 3)
}

func TestMaxDepthRecovery(t *testing.T) {
	input := "x := "
	for i := 0; i < 60; i++ {
		input += "("
	}
	input += "1"
	res := parseText(t, input, WithMaxDepth(20))

	assert.Contains(t, diagCodes(res), diag.CodeSyntax)
	assert.False(t, res.Stopped)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, _ := Parse(ctx, "x := 1\ny := 2\n")
	require.NotNil(t, res)
}

func TestBuiltinsResolve(t *testing.T) {
	res := parseText(t, "f() {\n  return StrLen(\"x\")\n}\n",
		WithBuiltins([]string{"strlen"}))

	fn := res.Globals["f"].(*symbol.Func)
	assert.Empty(t, fn.Unresolved)
}

func TestReturnTypeInference(t *testing.T) {
	input := `f(flag) {
  if flag
    return 1
  return "s"
}`
	res := parseText(t, input)
	fn := res.Globals["f"].(*symbol.Func)
	assert.ElementsMatch(t, []string{"#number", "#string"}, fn.ReturnTypes)
}

func TestHotstringReplacement(t *testing.T) {
	res := parseText(t, "::btw::by the way\n")

	var hs *symbol.Hotkey
	for _, n := range res.Symbols() {
		if h, ok := n.(*symbol.Hotkey); ok {
			hs = h
		}
	}
	require.NotNil(t, hs)
	assert.True(t, hs.Hotstring)
	assert.Nil(t, hs.Body)
	assert.Greater(t, hs.Replacement.Len(), 0)
}

func TestHotstringReplacementNotTokenized(t *testing.T) {
	res := parseText(t, "::btw::by the way\nx := 1\n")
	assert.Empty(t, res.Diags.Items())
	require.Contains(t, res.Globals, "x")

	var hs *symbol.Hotkey
	for _, n := range res.Symbols() {
		if h, ok := n.(*symbol.Hotkey); ok {
			hs = h
		}
	}
	require.NotNil(t, hs)

	// The replacement text is covered by one Text token; none of its words
	// may appear in the table as identifiers.
	for _, offset := range res.Table.Offsets() {
		tok := res.Table.Get(offset)
		if tok.Kind == token.Word {
			assert.False(t, hs.Replacement.Contains(tok.Range()),
				"replacement text scanned as code at offset %d", offset)
		}
	}
}

func TestExecuteHotstring(t *testing.T) {
	res := parseText(t, ":X:sig::insertSignature()\n")

	var hs *symbol.Hotkey
	for _, n := range res.Symbols() {
		if h, ok := n.(*symbol.Hotkey); ok {
			hs = h
		}
	}
	require.NotNil(t, hs)
	require.NotNil(t, hs.Body, "X option parses the payload as code")
	require.Len(t, res.CallSites, 1)
	assert.Equal(t, "insertSignature", res.CallSites[0].Name)
}
