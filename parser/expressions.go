package parser

import (
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Expression parsing. A single left-to-right consumer builds an incremental
// textual pseudo-type while emitting symbol nodes for every variable
// reference, call, anonymous function, and object literal encountered.

// exprOpts configures one expression parse.
type exprOpts struct {
	// inBrackets: the expression sits inside ( ) or [ ] or { }, where line
	// starts do not terminate it.
	inBrackets bool

	// stopColon terminates at a top-level ':' (case labels).
	stopColon bool

	// stopPercent terminates at '%' (inside a dynamic dereference).
	stopPercent bool
}

// parseExpressionStatement parses a bare expression in statement position,
// including comma-joined expression sequences on one logical line.
func (p *Parser) parseExpressionStatement() {
	p.parseExpression(exprOpts{})
	for p.cur.Kind == token.Comma && !p.stop {
		p.next()
		p.parseExpression(exprOpts{})
	}
}

// parseWordStatement disambiguates a statement that begins with a plain
// identifier: function definition, call, assignment, command-style call
// without parentheses, or bare expression.
func (p *Parser) parseWordStatement() {
	nameTok := p.cur
	nxt := p.peek()

	// A flow keyword in a mid-line statement position (hotkey body, "else"
	// branch on the same line) lexed as a plain word; give it back its
	// reserved role unless it is clearly used as a value.
	if token.IsFlowKeyword(nameTok.Content) &&
		nxt.Kind != token.Assign && nxt.Kind != token.Dot &&
		!(nxt.Is(token.ParenOpen) && nxt.Offset == nameTok.EndOffset()) {
		nameTok.Kind = token.Reserved
		p.parseReservedStatement()
		return
	}

	// "name(" at statement start: scan to the matching ")" and inspect the
	// follower to decide definition versus call, then rewind and re-parse.
	if nxt.Is(token.ParenOpen) && nxt.Offset == nameTok.EndOffset() &&
		nameTok.TopOfLine == token.LineStart {
		closer := p.scanBalanced(nxt)
		if closer.Kind == token.ParenClose {
			follower := p.lex.PeekNonComment(closer.Next)
			if follower.Is(token.BraceOpen) || follower.IsOp("=>") {
				p.parseFuncDef()
				return
			}
		}
	}

	// Legacy assignment: "name = value" at statement start belongs to the
	// old dialect.
	if nameTok.TopOfLine == token.LineStart && nxt.Kind == token.Equals {
		p.next()
		p.raiseDialect(p.cur, "legacy '=' assignment; use ':=' instead")
		return
	}

	// Command-style call: an identifier followed on the same line by an
	// operand with whitespace between (no operator), e.g. `MsgBox "hi"`.
	if p.isCommandCall(nameTok, nxt) {
		p.parseCommandCall()
		return
	}

	p.parseExpressionStatement()
}

// isCommandCall reports whether the statement is a parenthesis-free call.
// The name is already known to sit in statement position; it may be mid-line
// inside a hotkey body or a same-line flow branch.
func (p *Parser) isCommandCall(nameTok, nxt *token.Token) bool {
	if nxt.TopOfLine != token.MidLine {
		return false
	}
	switch nxt.Kind {
	case token.String, token.Number, token.Comma:
		return true
	case token.Word:
		// `x y` is a command call; but `x y` could never be anything else.
		return true
	case token.Reserved:
		return token.IsLiteralKeyword(nxt.Content)
	case token.Percent:
		return nxt.Offset > nameTok.EndOffset()
	default:
		return false
	}
}

// parseCommandCall parses `Name arg1, arg2` through end of line, recording
// a call site with one range per supplied argument.
func (p *Parser) parseCommandCall() {
	nameTok := p.cur
	call := &token.CallSite{Name: nameTok.Content, NameOffset: nameTok.Offset}
	nameTok.CallSite = call
	nameTok.Hint = token.SemFunction
	ref := p.newVariable(nameTok, false)
	ref.TypeHint = "#func"
	p.currentFunc.AddRef(ref)
	p.next()

	for !p.stop && p.cur.Kind != token.EOF {
		if p.cur.TopOfLine == token.LineStart {
			break
		}
		if p.cur.Kind == token.Comma {
			// An omitted argument still occupies a position.
			call.Args = append(call.Args, token.Range{Start: p.cur.Offset, End: p.cur.Offset})
			p.next()
			continue
		}
		start := p.cur.Offset
		p.parseExpression(exprOpts{})
		end := p.prev.EndOffset()
		if end < start {
			end = start
		}
		call.Args = append(call.Args, token.Range{Start: start, End: end})
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	p.res.CallSites = append(p.res.CallSites, call)
}

// parseExpression consumes one expression, returning its pseudo-type. It
// stops at a top-level comma, a closing delimiter it did not open, a colon
// or percent when configured, or (outside brackets) the start of the next
// statement.
func (p *Parser) parseExpression(opts exprOpts) string {
	if !p.enter() {
		p.leave()
		p.skipLine()
		return ""
	}
	defer p.leave()

	typ := ""
	var lastVar *symbol.Variable
	expectOperand := true
	first := true

	for !p.stop && !p.cancelled() {
		tok := p.cur
		if tok.Kind == token.EOF {
			break
		}
		if !first && !opts.inBrackets && !expectOperand &&
			tok.TopOfLine == token.LineStart {
			break
		}
		first = false

		switch tok.Kind {
		case token.ParenClose, token.BracketClose, token.BraceClose, token.Comma:
			return typ
		case token.Label:
			return typ

		case token.Word:
			if !expectOperand {
				return typ
			}
			operandType, v := p.parseWordOperand(opts)
			typ = mergeAdjacent(typ, operandType)
			lastVar = v
			expectOperand = false

		case token.Number:
			typ = mergeAdjacent(typ, "#number")
			lastVar = nil
			expectOperand = false
			p.next()

		case token.String, token.Text:
			typ = mergeAdjacent(typ, "#string")
			lastVar = nil
			expectOperand = false
			p.next()

		case token.Percent:
			if opts.stopPercent {
				// The closer of the enclosing dereference.
				return typ
			}
			typ = mergeAdjacent(typ, p.parseDeref())
			lastVar = nil
			expectOperand = false

		case token.ParenOpen:
			if expectOperand {
				typ = mergeAdjacent(typ, p.parseParenOperand())
				lastVar = nil
				expectOperand = false
			} else {
				// Adjacent "(" after a value: a call on the result.
				typ = p.parseCallOn(tok, typ)
				lastVar = nil
			}

		case token.BracketOpen:
			if expectOperand {
				typ = mergeAdjacent(typ, p.parseArrayLiteral())
			} else {
				p.parseIndexList()
				typ = "#any"
			}
			lastVar = nil
			expectOperand = false

		case token.BraceOpen:
			if !expectOperand {
				return typ
			}
			typ = mergeAdjacent(typ, p.parseObjectOperand())
			lastVar = nil
			expectOperand = false

		case token.Dot:
			lastVar = nil
			p.parseMemberAccess(nil)
			typ = "#any"
			expectOperand = false

		case token.Reserved:
			lower := strings.ToLower(tok.Content)
			switch {
			case token.IsWordOperator(tok.Content):
				tok.Hint = token.SemKeyword
				p.next()
				expectOperand = true
				lastVar = nil
				if lower == "is" || lower == "in" || lower == "contains" {
					typ = "#number"
				}
			case lower == "true" || lower == "false":
				typ = mergeAdjacent(typ, "#number")
				lastVar = nil
				expectOperand = false
				p.next()
			case lower == "unset":
				typ = mergeAdjacent(typ, "#unset")
				lastVar = nil
				expectOperand = false
				p.next()
			case lower == "isset":
				tok.Kind = token.Word
				operandType, v := p.parseWordOperand(opts)
				typ = mergeAdjacent(typ, operandType)
				lastVar = v
				expectOperand = false
			default:
				// A reserved word in operand position is a structural
				// error; reclassify as an identifier and reprocess.
				if expectOperand {
					tok.Kind = token.Word
					continue
				}
				return typ
			}

		case token.Assign:
			rhs := p.parseAssignRHS(opts, lastVar)
			typ = rhs
			lastVar = nil
			expectOperand = false

		case token.Equals:
			// Inside an expression "=" is loose equality.
			p.next()
			typ = "#number"
			lastVar = nil
			expectOperand = true

		case token.Operator:
			done, newType, stillExpect := p.parseOperatorTok(tok, opts, typ, lastVar)
			if done {
				return typ
			}
			typ = newType
			expectOperand = stillExpect
			if stillExpect {
				lastVar = nil
			}

		case token.Hotkey, token.HotkeyLine, token.Directive:
			return typ

		default:
			p.unexpected("expression", tok)
			p.next()
		}
	}
	return typ
}

// parseOperatorTok handles one operator token inside an expression. It
// returns done=true when the operator terminates the expression.
func (p *Parser) parseOperatorTok(tok *token.Token, opts exprOpts, typ string, lastVar *symbol.Variable) (bool, string, bool) {
	switch tok.Content {
	case ":":
		if opts.stopColon {
			return true, typ, false
		}
		// Ternary branch separator: merge both arms.
		p.next()
		other := p.parseExpression(exprOpts{
			inBrackets:  opts.inBrackets,
			stopColon:   opts.stopColon,
			stopPercent: opts.stopPercent,
		})
		return false, mergeUnion(typ, other), false
	case "?":
		// Ternary: the condition type is discarded; arms merge at ':'.
		p.next()
		arm := p.parseExpression(exprOpts{
			inBrackets:  opts.inBrackets,
			stopColon:   false,
			stopPercent: opts.stopPercent,
		})
		return false, arm, false
	case "??":
		p.next()
		other := p.parseExpression(exprOpts{
			inBrackets:  opts.inBrackets,
			stopColon:   opts.stopColon,
			stopPercent: opts.stopPercent,
		})
		return false, mergeUnion(typ, other), false
	case "=>":
		// Single-parameter arrow function: x => expr
		if lastVar != nil {
			return false, p.parseArrowFromVar(lastVar), false
		}
		p.errorAt(tok, diag.CodeSyntax, "unexpected '=>'")
		p.next()
		return false, typ, true
	case "++", "--":
		p.next()
		if lastVar != nil {
			lastVar.Defined = true
		}
		return false, "#number", false
	case "!", "~":
		p.next()
		return false, typ, true
	case "&":
		p.next()
		return false, typ, true
	case "+", "-", "*", "/", "//", "**", "<<", ">>", ">>>", "^", "|":
		p.next()
		return false, "#number", true
	case "<", ">", "<=", ">=", "==", "!=", "!==", "&&", "||":
		p.next()
		return false, "#number", true
	default:
		p.next()
		return false, typ, true
	}
}

// parseAssignRHS parses the right-hand side of an assignment, marking the
// assigned variable defined and propagating the inferred type.
func (p *Parser) parseAssignRHS(opts exprOpts, lastVar *symbol.Variable) string {
	op := p.cur.Content
	p.next()
	rhs := p.parseExpression(opts)
	if lastVar != nil {
		lastVar.Defined = true
		if op == ":=" {
			lastVar.TypeHint = rhs
		}
	}
	if op == ".=" {
		return "#string"
	}
	if op != ":=" && op != "??=" {
		return "#number"
	}
	return rhs
}

// parseWordOperand handles an identifier operand: a call when a "(" is
// adjacent, a dynamic identifier when a "%" is adjacent, a this/super
// member reference inside a class, or a plain variable reference.
func (p *Parser) parseWordOperand(opts exprOpts) (string, *symbol.Variable) {
	nameTok := p.cur
	nxt := p.peek()

	// Dynamic identifier: name%expr% composes at runtime. Inside a
	// dereference interior an adjacent '%' is the enclosing closer, never a
	// new opener: dereferences do not nest.
	if nxt.Is(token.Percent) && nxt.Offset == nameTok.EndOffset() && !opts.stopPercent {
		return p.parseDynamicName(nameTok), nil
	}

	// Call: "(" must be adjacent, with no whitespace.
	if nxt.Is(token.ParenOpen) && nxt.Offset == nameTok.EndOffset() {
		return p.parseCall(nameTok), nil
	}

	lower := strings.ToLower(nameTok.Content)
	if (lower == "this" || lower == "super") && p.currentClass != nil {
		return p.parseSelfRef(nameTok), nil
	}

	v := p.newVariable(nameTok, false)
	nameTok.Symbol = v
	nameTok.Hint = token.SemVariable
	p.currentFunc.AddRef(v)
	p.next()

	if p.cur.Is(token.Dot) {
		p.parseMemberAccess(nil)
		return "#any", nil
	}
	return "#any", v
}

// parseSelfRef handles this./super. member references. References seen
// before the owning class finishes parsing are cached on the class and
// merged into its member table when it closes.
func (p *Parser) parseSelfRef(nameTok *token.Token) string {
	nameTok.Hint = token.SemKeyword
	p.next()
	if !p.cur.Is(token.Dot) {
		return "#object"
	}
	p.parseMemberAccess(p.currentClass)
	return "#any"
}

// parseMemberAccess consumes a .name chain. When pendingOn is non-nil, each
// member name is cached as a speculative member of that class.
func (p *Parser) parseMemberAccess(pendingOn *symbol.Class) {
	for p.cur.Is(token.Dot) {
		p.next()
		if p.cur.Kind != token.Word && p.cur.Kind != token.Reserved {
			if p.cur.Kind != token.Percent {
				p.unexpected("member access", p.cur)
				return
			}
			p.parseDeref()
			continue
		}
		memberTok := p.cur
		memberTok.Kind = token.Word
		memberTok.Hint = token.SemProperty
		p.next()

		if pendingOn != nil {
			m := &symbol.Variable{Symbol: symbol.Symbol{
				Name: memberTok.Content,
				Kind: symbol.KindProperty,
				Full: memberTok.Range(),
				Sel:  memberTok.Range(),
			}}
			pendingOn.AddPending(m)
		}

		// Method call on the member.
		nxt := p.cur
		if nxt.Is(token.ParenOpen) && nxt.Offset == memberTok.EndOffset() {
			memberTok.Hint = token.SemMethod
			call := &token.CallSite{Name: memberTok.Content, NameOffset: memberTok.Offset}
			memberTok.CallSite = call
			p.parseCallArgs(nxt, call)
			p.res.CallSites = append(p.res.CallSites, call)
		}
		if nxt.Is(token.BracketOpen) && nxt.Offset == memberTok.EndOffset() {
			p.parseIndexList()
		}
	}
}

// parseCall parses name(...) recording a call site and a reference to the
// callee.
func (p *Parser) parseCall(nameTok *token.Token) string {
	nameTok.Hint = token.SemFunction
	call := &token.CallSite{Name: nameTok.Content, NameOffset: nameTok.Offset}
	nameTok.CallSite = call
	ref := p.newVariable(nameTok, false)
	ref.TypeHint = "#func"
	nameTok.Symbol = ref
	p.currentFunc.AddRef(ref)
	p.next() // onto "("
	p.parseCallArgs(p.cur, call)
	p.res.CallSites = append(p.res.CallSites, call)

	if p.cur.Is(token.Dot) {
		p.parseMemberAccess(nil)
		return "#any"
	}
	return token.Normalize(nameTok.Content) + "()"
}

// parseCallOn parses (args) applied to the preceding value.
func (p *Parser) parseCallOn(open *token.Token, typ string) string {
	call := &token.CallSite{Name: "", NameOffset: open.Offset}
	p.parseCallArgs(open, call)
	p.res.CallSites = append(p.res.CallSites, call)
	return "#any"
}

// parseCallArgs consumes "(...)" starting at the open paren under the
// cursor, recording argument ranges and comma offsets.
func (p *Parser) parseCallArgs(open *token.Token, call *token.CallSite) {
	info := &token.ParamInfo{Begin: open.Offset}
	open.Params = info
	p.next() // past "("

	for !p.stop && p.cur.Kind != token.ParenClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			return
		}
		if p.cur.Kind == token.Comma {
			call.Args = append(call.Args, token.Range{Start: p.cur.Offset, End: p.cur.Offset})
			info.Commas = append(info.Commas, p.cur.Offset)
			p.next()
			continue
		}
		start := p.cur.Offset
		p.parseExpression(exprOpts{inBrackets: true})
		end := p.prev.EndOffset()
		if end < start {
			end = start
		}
		call.Args = append(call.Args, token.Range{Start: start, End: end})
		if p.cur.Kind == token.Comma {
			info.Commas = append(info.Commas, p.cur.Offset)
			p.next()
		}
	}
	if p.cur.Kind != token.ParenClose {
		p.missingCloser(open)
		call.Paren = token.Range{Start: open.Offset, End: p.cur.Offset}
		info.End = p.cur.Offset
		return
	}
	pair(open, p.cur)
	call.Paren = token.Range{Start: open.Offset, End: p.cur.EndOffset()}
	info.End = p.cur.EndOffset()
	info.Count = len(call.Args)
	p.next()
}

// parseParenOperand disambiguates "(": an arrow-function parameter list
// when "=>" follows the matching ")", otherwise a grouped expression. The
// decision is made by a speculative balanced scan, then the span is parsed
// for real.
func (p *Parser) parseParenOperand() string {
	open := p.cur
	closer := p.scanBalanced(open)
	if closer.Kind == token.ParenClose {
		follower := p.lex.PeekNonComment(closer.Next)
		if follower.IsOp("=>") {
			return p.parseAnonFunc()
		}
	}

	p.next() // past "("
	typ := p.parseExpression(exprOpts{inBrackets: true})
	for p.cur.Kind == token.Comma && !p.stop {
		// Multi-statement group: the last expression's type wins.
		p.next()
		typ = p.parseExpression(exprOpts{inBrackets: true})
	}
	if p.cur.Kind != token.ParenClose {
		p.missingCloser(open)
		return typ
	}
	pair(open, p.cur)
	p.next()
	return typ
}

// parseDeref parses a %expr% dynamic dereference. The interior is parsed
// as a normal expression; the delimiters are paired like brackets.
func (p *Parser) parseDeref() string {
	open := p.cur
	p.next()
	p.parseExpression(exprOpts{inBrackets: true, stopPercent: true})
	if !p.cur.Is(token.Percent) {
		p.missingCloser(open)
		return "#any"
	}
	pair(open, p.cur)
	p.next()
	return "#any"
}

// parseDynamicName consumes an identifier composed with %expr% segments,
// e.g. prefix%n%suffix. The composite cannot be resolved statically; no
// variable symbol is emitted for it.
func (p *Parser) parseDynamicName(nameTok *token.Token) string {
	nameTok.Hint = token.SemVariable
	p.next()
	for {
		if p.cur.Is(token.Percent) && p.cur.Offset == p.prev.EndOffset() {
			p.parseDeref()
			continue
		}
		if p.cur.Kind == token.Word && p.cur.Offset == p.prev.EndOffset() {
			p.next()
			continue
		}
		break
	}
	return "#any"
}

// parseArrayLiteral parses [a, b, ...].
func (p *Parser) parseArrayLiteral() string {
	open := p.cur
	p.next()
	for !p.stop && p.cur.Kind != token.BracketClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			return "#object"
		}
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		p.parseExpression(exprOpts{inBrackets: true})
		if p.cur.Kind == token.Comma {
			p.next()
		}
	}
	if p.cur.Kind != token.BracketClose {
		p.missingCloser(open)
		return "#object"
	}
	pair(open, p.cur)
	p.next()
	return "#object"
}

// parseIndexList parses [index, ...] applied to the preceding value.
func (p *Parser) parseIndexList() {
	open := p.cur
	p.next()
	for !p.stop && p.cur.Kind != token.BracketClose && p.cur.Kind != token.EOF {
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		p.parseExpression(exprOpts{inBrackets: true})
		if p.cur.Kind == token.Comma {
			p.next()
		}
	}
	if p.cur.Kind != token.BracketClose {
		p.missingCloser(open)
		return
	}
	pair(open, p.cur)
	p.next()
}

// parseObjectOperand parses "{" in expression position as an object
// literal. On the first structural failure the partial parse and its
// diagnostics are discarded and the span is re-parsed as a statement block.
func (p *Parser) parseObjectOperand() string {
	snap := p.save()
	if obj, ok := p.parseObjectLiteral(); ok {
		p.currentFunc.AddChild(obj)
		return "#object"
	}
	p.restore(snap)
	p.parseBlock()
	return ""
}

// parseObjectLiteral attempts "{ key: value, ... }". It reports ok=false on
// the first structural failure, leaving rollback to the caller.
func (p *Parser) parseObjectLiteral() (*symbol.Class, bool) {
	open := p.cur
	obj := symbol.NewClass("")
	obj.Kind = symbol.KindObject
	obj.Full.Start = open.Offset
	p.next()

	for !p.stop && p.cur.Kind != token.BraceClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			return nil, false
		}
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}

		var key string
		keyTok := p.cur
		switch p.cur.Kind {
		case token.Word, token.Reserved:
			keyTok.Kind = token.Word
			key = keyTok.Content
			p.next()
		case token.String:
			key = keyTok.Content
			p.next()
		case token.Number:
			key = keyTok.Content
			p.next()
		case token.Percent:
			p.parseDeref()
		default:
			return nil, false
		}
		if !p.cur.IsOp(":") {
			return nil, false
		}
		p.next()
		typ := p.parseExpression(exprOpts{inBrackets: true})

		if key != "" {
			member := &symbol.Variable{Symbol: symbol.Symbol{
				Name: key,
				Kind: symbol.KindProperty,
				Full: keyTok.Range(),
				Sel:  keyTok.Range(),
			}, Defined: true, TypeHint: typ}
			k := member.Key()
			if _, dup := obj.Static[k]; !dup {
				obj.Static[k] = member
				obj.AddChild(member)
			}
			keyTok.Symbol = member
			keyTok.Hint = token.SemProperty
		}

		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		break
	}

	if p.cur.Kind != token.BraceClose {
		return nil, false
	}
	pair(open, p.cur)
	obj.Full.End = p.cur.EndOffset()
	obj.Sel = token.Range{Start: open.Offset, End: open.EndOffset()}
	p.next()
	return obj, true
}

// mergeAdjacent merges the pseudo-type of two adjacent operands. Adjacency
// is string concatenation, so two values merge to #string; a lone operand
// keeps its own type.
func mergeAdjacent(left, right string) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	return "#string"
}

// mergeUnion merges the pseudo-types of alternative branches into a
// deduplicated "a|b" union.
func mergeUnion(a, b string) string {
	if a == "" || a == b {
		return b
	}
	if b == "" {
		return a
	}
	for _, part := range strings.Split(a, "|") {
		if part == b {
			return a
		}
	}
	return a + "|" + b
}
