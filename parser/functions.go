package parser

import (
	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Function definitions: named definitions at statement level, anonymous
// parenthesized arrow functions, and single-parameter arrow functions. Each
// body is parsed into its own scope, and scope resolution runs immediately
// when the body closes.

// newVariable creates a variable node for a reference or declaration site
// and links it to its token.
func (p *Parser) newVariable(tok *token.Token, defined bool) *symbol.Variable {
	v := &symbol.Variable{
		Symbol: symbol.Symbol{
			Name: tok.Content,
			Kind: symbol.KindVariable,
			Full: tok.Range(),
			Sel:  tok.Range(),
		},
		Defined: defined,
	}
	tok.Symbol = v
	return v
}

// parseFuncDef parses "name(params) body" at statement level. The cursor is
// on the name; the decision that this is a definition was already made by a
// balanced scan past the parameter list.
func (p *Parser) parseFuncDef() {
	nameTok := p.cur
	nameTok.Hint = token.SemFunction

	fn := symbol.NewFunc(nameTok.Content, symbol.KindFunction)
	fn.Full = token.Range{Start: nameTok.Offset, End: nameTok.EndOffset()}
	fn.Sel = nameTok.Range()
	if p.currentFunc != p.res.FileScope {
		fn.Closure = true
	}
	nameTok.Symbol = fn

	p.next() // onto "("
	p.parseParams(fn)
	p.parseFuncBody(fn)

	p.currentFunc.AddChild(fn)
	if p.currentFunc == p.res.FileScope {
		p.declareGlobal(fn)
	}
	p.resolveFunc(fn)
}

// parseAnonFunc parses "(params) => expr" in expression position. The
// cursor is on the "(".
func (p *Parser) parseAnonFunc() string {
	open := p.cur
	fn := symbol.NewFunc("", symbol.KindFunction)
	fn.Full.Start = open.Offset
	fn.Sel = token.Range{Start: open.Offset, End: open.EndOffset()}
	fn.Closure = p.currentFunc != p.res.FileScope

	p.parseParams(fn)
	p.parseFuncBody(fn)

	p.currentFunc.AddChild(fn)
	p.resolveFunc(fn)
	return "#func"
}

// parseArrowFromVar converts the variable reference just consumed into the
// single parameter of an arrow function: "x => expr". The cursor is on the
// "=>"; the reference is removed from the enclosing scope.
func (p *Parser) parseArrowFromVar(v *symbol.Variable) string {
	refs := p.currentFunc.Refs()
	if n := len(refs); n > 0 && refs[n-1] == v {
		p.currentFunc.TruncateRefs(n - 1)
	}

	fn := symbol.NewFunc("", symbol.KindFunction)
	fn.Full.Start = v.Full.Start
	fn.Sel = v.Sel
	fn.Closure = p.currentFunc != p.res.FileScope

	v.Kind = symbol.KindParameter
	fn.AddParam(v)
	fn.AddChild(v)

	p.parseFuncBody(fn)
	p.currentFunc.AddChild(fn)
	p.resolveFunc(fn)
	return "#func"
}

// parseParams consumes "(name, &ref, opt := default, rest*)" starting at the
// open paren. Parameter attributes are recorded on the variable nodes; a
// required parameter after an optional one is diagnosed in place.
func (p *Parser) parseParams(fn *symbol.Func) {
	open := p.cur
	info := &token.ParamInfo{Begin: open.Offset}
	open.Params = info
	p.next()

	sawOptional := false
	for !p.stop && p.cur.Kind != token.ParenClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			return
		}
		if p.cur.Kind == token.Comma {
			info.Commas = append(info.Commas, p.cur.Offset)
			p.next()
			continue
		}

		byref := false
		if p.cur.IsOp("&") {
			byref = true
			p.next()
		}
		if p.cur.IsOp("*") {
			// Bare "*": the function accepts and discards extra arguments.
			fn.Variadic = true
			p.next()
			continue
		}
		if p.cur.Kind != token.Word {
			p.unexpected("parameter list", p.cur)
			p.skipTo(token.Comma, token.ParenClose)
			continue
		}

		nameTok := p.cur
		nameTok.Hint = token.SemParameter
		v := p.newVariable(nameTok, true)
		v.ByRef = byref
		if byref {
			fn.ByRef = true
		}
		p.next()

		if p.cur.IsOp("*") {
			v.Variadic = true
			p.next()
		}
		if p.cur.IsOp("?") {
			v.Optional = true
			p.next()
		}
		switch p.cur.Kind {
		case token.Assign:
			if p.cur.Content != ":=" {
				p.unexpected("parameter default", p.cur)
			}
			v.Optional = true
			v.HasDefault = true
			p.next()
			start := p.cur.Offset
			p.parseExpression(exprOpts{inBrackets: true})
			end := p.prev.EndOffset()
			if end < start {
				end = start
			}
			v.DefaultRange = token.Range{Start: start, End: end}
		case token.Equals:
			p.raiseDialect(p.cur, "legacy '=' parameter default; use ':=' instead")
			if p.stop {
				return
			}
		}

		if v.Optional || v.HasDefault || v.Variadic {
			sawOptional = true
		} else if sawOptional && !v.ByRef {
			p.errorAt(nameTok, diag.CodeParamOrder,
				"parameter %q default value missing", v.Name)
		}

		if !fn.AddParam(v) {
			p.errorAt(nameTok, diag.CodeParamDuplicate,
				"duplicate parameter %q", v.Name)
		} else {
			fn.AddChild(v)
		}
	}

	if p.cur.Kind != token.ParenClose {
		p.missingCloser(open)
		info.End = p.cur.Offset
		info.Count = len(fn.Params)
		return
	}
	pair(open, p.cur)
	info.End = p.cur.EndOffset()
	info.Count = len(fn.Params)
	p.next()
}

// parseFuncBody parses the body following a parameter list: either a braced
// block or a fat-arrow expression whose value becomes the return type.
func (p *Parser) parseFuncBody(fn *symbol.Func) {
	switch {
	case p.cur.IsOp("=>"):
		p.next()
		saved := p.currentFunc
		p.currentFunc = fn
		typ := p.parseExpression(exprOpts{})
		p.currentFunc = saved
		fn.AddReturnType(typ)
		fn.Full.End = p.prev.EndOffset()

	case p.cur.Kind == token.BraceOpen:
		open := p.cur
		p.next()
		p.parseBlockInto(fn, token.BraceClose)
		if p.cur.Kind != token.BraceClose {
			p.missingCloser(open)
			fn.Full.End = p.cur.Offset
			return
		}
		pair(open, p.cur)
		p.addBlockFold(open, p.cur)
		fn.Full.End = p.cur.EndOffset()
		p.next()

	default:
		p.unexpected("function body", p.cur)
		fn.Full.End = p.cur.Offset
	}
}
