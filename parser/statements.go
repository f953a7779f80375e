package parser

import (
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Statement parsing. A block is a statement sequence; each statement
// dispatches on its leading token.

// parseBlockInto parses statements into the given scope until the stop kind
// (BraceClose or EOF). The cursor is left on the stop token.
func (p *Parser) parseBlockInto(scope *symbol.Func, until token.Kind) {
	saved := p.currentFunc
	p.currentFunc = scope
	defer func() { p.currentFunc = saved }()

	for !p.stop && !p.cancelled() {
		if p.cur.Kind == token.EOF || p.cur.Kind == until {
			return
		}
		if p.cur.Kind == token.BraceClose {
			// A closer we did not open; the enclosing construct handles it.
			return
		}
		p.parseStatement()
	}
}

// parseBlock parses a brace-delimited block into the current scope. The
// cursor must be on the opening brace; it ends just past the closer.
func (p *Parser) parseBlock() {
	open := p.cur
	p.next()
	p.parseBlockInto(p.currentFunc, token.BraceClose)
	if p.cur.Kind != token.BraceClose {
		p.missingCloser(open)
		return
	}
	pair(open, p.cur)
	p.addBlockFold(open, p.cur)
	p.next()
}

func (p *Parser) addBlockFold(open, closer *token.Token) {
	p.res.Folds = append(p.res.Folds, token.FoldingRange{
		Range: token.Range{Start: open.Offset, End: closer.EndOffset()},
		Kind:  token.FoldBlock,
	})
}

// parseStatement dispatches one statement. It always consumes at least one
// token.
func (p *Parser) parseStatement() {
	if !p.enter() {
		p.leave()
		p.skipLine()
		return
	}
	defer p.leave()

	switch p.cur.Kind {
	case token.Reserved:
		p.parseReservedStatement()
	case token.Word:
		p.parseWordStatement()
	case token.Label:
		p.parseLabel()
	case token.Hotkey:
		p.parseHotkey()
	case token.HotkeyLine:
		p.parseHotstring()
	case token.Directive:
		p.parseDirective()
	case token.BraceOpen:
		// Statement position: a block, never an object literal.
		p.parseBlock()
	case token.Equals:
		p.raiseDialect(p.cur, "legacy '=' assignment; use ':=' instead")
	case token.Percent, token.Number, token.String, token.ParenOpen,
		token.BracketOpen, token.Operator, token.Text:
		p.parseExpressionStatement()
	case token.Unknown:
		p.next()
	default:
		p.unexpected("statement", p.cur)
		p.skipLine()
	}
}

// parseReservedStatement handles the keyword-led constructs. An unknown or
// misplaced reserved word is reclassified as a plain identifier and
// reprocessed, the cheapest recovery.
func (p *Parser) parseReservedStatement() {
	switch strings.ToLower(p.cur.Content) {
	case "if":
		p.parseIf()
	case "else":
		p.errorAt(p.cur, diag.CodeSyntax, "'else' with no matching 'if'")
		p.next()
		p.parseBodyStatement()
	case "while":
		p.parseWhile()
	case "loop":
		p.parseLoop()
	case "for":
		p.parseFor()
	case "until":
		p.errorAt(p.cur, diag.CodeSyntax, "'until' with no matching 'loop'")
		p.skipLine()
	case "try":
		p.parseTry()
	case "switch":
		p.parseSwitch()
	case "case", "default":
		p.errorAt(p.cur, diag.CodeSyntax, "%q outside a switch block", p.cur.Content)
		p.skipLine()
	case "goto":
		p.parseGoto()
	case "return":
		p.parseReturn()
	case "throw":
		p.parseThrow()
	case "break", "continue":
		p.parseLoopJump()
	case "global", "local", "static":
		p.parseScopeDecl()
	case "class":
		p.parseClass()
	case "catch", "finally":
		p.errorAt(p.cur, diag.CodeSyntax, "%q with no matching 'try'", p.cur.Content)
		p.skipLine()
	default:
		// Word operators and literal keywords begin a plain expression
		// statement; reclassify and reprocess.
		p.cur.Kind = token.Word
		p.parseExpressionStatement()
	}
}

// parseBodyStatement parses the body of a flow construct: either a braced
// block or a single statement (which may sit on the same or the next line).
func (p *Parser) parseBodyStatement() {
	if p.stop || p.cur.Kind == token.EOF {
		return
	}
	if p.cur.Kind == token.BraceOpen {
		p.parseBlock()
		return
	}
	p.parseStatement()
}

func (p *Parser) parseIf() {
	p.next()
	p.parseExpression(exprOpts{})
	p.parseBodyStatement()
	if p.atWord("else") {
		p.next()
		if p.atWord("if") {
			p.parseIf()
			return
		}
		p.parseBodyStatement()
	}
}

func (p *Parser) parseWhile() {
	p.next()
	p.parseExpression(exprOpts{})
	p.parseBodyStatement()
}

// loopModes maps a loop sub-mode word to its allowed argument count range.
var loopModes = map[string][2]int{
	"files": {1, 2},
	"parse": {1, 3},
	"read":  {1, 2},
	"reg":   {1, 2},
}

// parseLoop validates the keyword-specific argument counts: a plain loop
// takes zero or one argument; the sub-modes take one to three depending on
// the mode.
func (p *Parser) parseLoop() {
	loopTok := p.cur
	p.next()

	mode := ""
	if p.cur.Kind == token.Word {
		if _, ok := loopModes[strings.ToLower(p.cur.Content)]; ok && !p.peek().Is(token.Assign) {
			mode = strings.ToLower(p.cur.Content)
			p.next()
			if p.cur.Kind == token.Comma {
				p.next()
			}
		}
	}

	args := 0
	if mode != "" || p.startsExpression() {
		args = 1 + p.parseArgList(exprOpts{})
	}

	if mode == "" {
		if args > 1 {
			p.errorAt(loopTok, diag.CodeArgCount,
				"loop accepts at most 1 argument, got %d", args)
		}
	} else {
		bounds := loopModes[mode]
		if args < bounds[0] || args > bounds[1] {
			p.errorAt(loopTok, diag.CodeArgCount,
				"loop %s accepts %d to %d arguments, got %d",
				mode, bounds[0], bounds[1], args)
		}
	}

	p.parseBodyStatement()
	if p.atWord("until") {
		p.next()
		p.parseExpression(exprOpts{})
	}
}

// startsExpression reports whether the cursor token can begin a loop/return
// argument on the same logical line.
func (p *Parser) startsExpression() bool {
	if p.cur.TopOfLine == token.LineStart {
		return false
	}
	switch p.cur.Kind {
	case token.Word, token.Number, token.String, token.ParenOpen,
		token.BracketOpen, token.Percent, token.Operator, token.Text:
		return true
	case token.Reserved:
		return token.IsLiteralKeyword(p.cur.Content) || strings.EqualFold(p.cur.Content, "not") ||
			strings.EqualFold(p.cur.Content, "isset")
	default:
		return false
	}
}

// parseArgList consumes comma-separated expressions on the current logical
// line, returning the number of additional arguments after the first.
func (p *Parser) parseArgList(opts exprOpts) int {
	extra := 0
	p.parseExpression(opts)
	for p.cur.Kind == token.Comma {
		p.next()
		extra++
		p.parseExpression(opts)
	}
	return extra
}

func (p *Parser) parseFor() {
	p.next()
	// Loop variables: for v1 [, v2, ...] in expr
	for p.cur.Kind == token.Word || p.cur.Kind == token.Comma {
		if p.cur.Kind == token.Word {
			v := p.newVariable(p.cur, true)
			p.currentFunc.AddRef(v)
			p.currentFunc.AddChild(v)
		}
		p.next()
	}
	if p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "in") {
		p.next()
	} else if p.cur.Kind == token.Word && strings.EqualFold(p.cur.Content, "in") {
		p.next()
	} else {
		p.unexpected("for statement (expected 'in')", p.cur)
	}
	p.parseExpression(exprOpts{})
	p.parseBodyStatement()
	if p.atWord("until") {
		p.next()
		p.parseExpression(exprOpts{})
	}
}

func (p *Parser) parseTry() {
	p.next()
	p.parseBodyStatement()
	for p.atWord("catch") {
		p.next()
		// Optional error-class filter list: catch TypeError, ValueError
		for p.cur.Kind == token.Word && !p.peek().Is(token.BraceOpen) {
			ref := p.newVariable(p.cur, false)
			p.currentFunc.AddRef(ref)
			p.next()
			if p.cur.Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
		// Optional "as var" binding.
		if p.cur.Kind == token.Word && strings.EqualFold(p.cur.Content, "as") {
			p.next()
			if p.cur.Kind == token.Word {
				v := p.newVariable(p.cur, true)
				p.currentFunc.AddRef(v)
				p.currentFunc.AddChild(v)
				p.next()
			} else {
				p.unexpected("catch binding", p.cur)
			}
		}
		p.parseBodyStatement()
	}
	if p.atWord("finally") {
		p.next()
		p.parseBodyStatement()
	}
}

func (p *Parser) parseSwitch() {
	p.next()
	if p.cur.Kind != token.BraceOpen {
		p.parseExpression(exprOpts{})
		// Optional case-sensitivity argument.
		if p.cur.Kind == token.Comma {
			p.next()
			p.parseExpression(exprOpts{})
		}
	}
	if p.cur.Kind != token.BraceOpen {
		p.unexpected("switch statement", p.cur)
		return
	}
	open := p.cur
	p.next()
	for !p.stop && p.cur.Kind != token.BraceClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			return
		}
		switch {
		case p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "case"):
			p.next()
			p.parseCaseValues()
		case p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "default"):
			p.next()
			if p.cur.IsOp(":") {
				p.next()
			} else {
				p.unexpected("default case", p.cur)
			}
		case p.cur.Kind == token.Label && strings.EqualFold(p.cur.Content, "default"):
			p.next()
		default:
			p.parseStatement()
		}
	}
	if p.cur.Kind != token.BraceClose {
		p.missingCloser(open)
		return
	}
	pair(open, p.cur)
	p.addBlockFold(open, p.cur)
	p.next()
}

// parseCaseValues consumes the comma-separated case value list up to ':'.
func (p *Parser) parseCaseValues() {
	for !p.stop && p.cur.Kind != token.EOF {
		p.parseExpression(exprOpts{stopColon: true})
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if p.cur.IsOp(":") {
		p.next()
		return
	}
	p.unexpected("case value list", p.cur)
	p.skipLine()
}

func (p *Parser) parseGoto() {
	p.next()
	switch p.cur.Kind {
	case token.Word:
		p.markLabelRef(p.cur)
		p.next()
	case token.String:
		p.next()
	case token.Percent:
		p.parseExpression(exprOpts{})
	default:
		p.errorAt(p.cur, diag.CodeSyntax, "goto requires a label name")
	}
}

// markLabelRef tags a token as a label reference for navigation.
func (p *Parser) markLabelRef(tok *token.Token) {
	tok.Hint = token.SemLabel
	key := token.Normalize(tok.Content)
	if lbl, ok := p.currentFunc.Labels[key]; ok {
		tok.Symbol = lbl
	} else if lbl, ok := p.res.Labels[key]; ok {
		tok.Symbol = lbl
	}
}

func (p *Parser) parseReturn() {
	retTok := p.cur
	p.next()
	if !p.startsExpression() {
		p.currentFunc.AddReturnType("#void")
		return
	}
	typ := p.parseExpression(exprOpts{})
	_ = retTok
	p.currentFunc.AddReturnType(typ)
	for p.cur.Kind == token.Comma {
		p.errorAt(p.cur, diag.CodeSyntax, "return accepts a single expression")
		p.next()
		p.parseExpression(exprOpts{})
	}
}

func (p *Parser) parseThrow() {
	p.next()
	if !p.startsExpression() {
		p.errorAt(p.prev, diag.CodeSyntax, "throw requires a value")
		return
	}
	p.parseExpression(exprOpts{})
}

func (p *Parser) parseLoopJump() {
	p.next()
	if p.cur.Kind == token.Word && p.cur.TopOfLine == token.MidLine {
		p.markLabelRef(p.cur)
		p.next()
	}
}

// parseScopeDecl handles global/local/static statements. A bare keyword
// switches the function's assume mode; a named form declares variables and
// may initialize them.
func (p *Parser) parseScopeDecl() {
	declTok := p.cur
	var mode symbol.Assume
	switch strings.ToLower(declTok.Content) {
	case "global":
		mode = symbol.AssumeGlobal
	case "static":
		mode = symbol.AssumeStatic
	default:
		mode = symbol.AssumeDefault
	}
	p.next()

	if p.cur.TopOfLine == token.LineStart || p.cur.Kind == token.EOF ||
		p.cur.Kind == token.BraceClose {
		p.currentFunc.AddDeclGroup(symbol.DeclGroup{
			Assume: mode,
			Range:  declTok.Range(),
			Bare:   true,
		})
		return
	}

	group := symbol.DeclGroup{Assume: mode, Range: declTok.Range()}
	for p.cur.Kind == token.Word {
		v := p.newVariable(p.cur, false)
		v.Decl = true
		v.Global = mode == symbol.AssumeGlobal
		v.Static = mode == symbol.AssumeStatic
		group.Names = append(group.Names, v)
		p.currentFunc.AddChild(v)
		nameTok := p.cur
		p.next()
		if p.cur.Kind == token.Assign {
			v.Defined = true
			p.next()
			v.TypeHint = p.parseExpression(exprOpts{})
		} else if p.cur.Kind == token.Equals {
			p.raiseDialect(p.cur, "legacy '=' assignment; use ':=' instead")
			if p.stop {
				return
			}
		}
		_ = nameTok
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if len(group.Names) == 0 {
		p.unexpected("declaration", p.cur)
		p.skipLine()
		return
	}
	p.currentFunc.AddDeclGroup(group)
}

// parseLabel records a goto target in the innermost function's label table.
func (p *Parser) parseLabel() {
	lbl := &symbol.Label{Symbol: symbol.Symbol{
		Name: p.cur.Content,
		Kind: symbol.KindLabel,
		Full: p.cur.Range(),
		Sel:  token.Range{Start: p.cur.Offset, End: p.cur.Offset + len(p.cur.Content)},
	}}
	p.cur.Symbol = lbl
	key := lbl.Key()
	table := p.currentFunc.Labels
	if p.currentFunc == p.res.FileScope {
		table = p.res.Labels
	}
	if _, dup := table[key]; dup {
		p.errorAt(p.cur, diag.CodeNameCollision, "duplicate label %q", lbl.Name)
	} else {
		table[key] = lbl
		p.currentFunc.AddChild(lbl)
	}
	p.next()
}

// parseDirective records a "#name args" line. Includes are recorded for the
// workspace; everything else keeps its raw argument text only.
func (p *Parser) parseDirective() {
	head := p.cur
	name := strings.ToLower(head.Content)
	arg := p.lex.RestOfLine(head.EndOffset())

	dir := &symbol.Directive{
		Symbol: symbol.Symbol{
			Name: head.Content,
			Kind: symbol.KindDirective,
			Full: token.Range{Start: head.Offset, End: arg.EndOffset()},
			Sel:  head.Range(),
		},
		ArgText:  arg.Content,
		ArgRange: arg.Range(),
	}
	head.Symbol = dir
	p.currentFunc.AddChild(dir)

	switch name {
	case "#include", "#includeagain":
		raw := arg.Content
		library := strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">")
		if raw == "" {
			p.errorAt(head, diag.CodeDirective, "%s requires a path argument", head.Content)
		} else {
			p.res.Includes = append(p.res.Includes, Include{
				Raw:     raw,
				Range:   arg.Range(),
				Library: library,
			})
		}
	case "#requires":
		if !strings.HasPrefix(strings.ToLower(arg.Content), "autohotkey") {
			p.warnAt(head, diag.CodeDirective,
				"#Requires expects an interpreter name and version")
		} else if !strings.Contains(arg.Content, "v2") {
			p.raiseDialect(head, "this document requires a different language version")
			if p.stop {
				return
			}
		}
	case "#hotif", "#hotstring", "#dllload", "#singleinstance", "#warn",
		"#maxthreads", "#maxthreadsperhotkey", "#maxthreadsbuffer",
		"#clipboardtimeout", "#errorstdout", "#noenv", "#suspendexempt",
		"#usehook", "#inputlevel", "#winactivateforce":
		// Recorded as a symbol; arguments are opaque to the core.
	default:
		p.warnAt(head, diag.CodeDirective, "unknown directive %q", head.Content)
	}
	p.skipLine()
}
