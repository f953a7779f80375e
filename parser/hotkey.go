package parser

import (
	"strings"

	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Hotkey and hotstring statements. An execute-style body is held by an
// implicit function scope so its variables resolve like any other local
// scope; a replacement-style hotstring keeps only the raw payload range.

// parseHotkey parses "trigger::" and its body: a statement on the same
// line, a braced block, or nothing (stacked triggers share the next body).
func (p *Parser) parseHotkey() {
	head := p.cur
	hk := &symbol.Hotkey{Symbol: symbol.Symbol{
		Name: head.Content,
		Kind: symbol.KindHotkey,
		Full: head.Range(),
		Sel:  head.Range(),
	}}
	head.Symbol = hk
	p.next()

	switch {
	case p.cur.Kind == token.EOF:
	case p.cur.TopOfLine == token.MidLine:
		hk.Body = p.parseHotBody(hk.Name, func() { p.parseBodyStatement() })
		hk.Full.End = hk.Body.Full.End
	case p.cur.Kind == token.BraceOpen:
		hk.Body = p.parseHotBody(hk.Name, func() { p.parseBlock() })
		hk.Full.End = hk.Body.Full.End
	default:
		// Stacked trigger: the next hotkey line supplies the body.
	}

	p.res.FileScope.AddChild(hk)
}

// parseHotBody runs the given parse step inside a fresh implicit function
// scope and resolves it.
func (p *Parser) parseHotBody(name string, step func()) *symbol.Func {
	fn := symbol.NewFunc(name, symbol.KindFunction)
	fn.Full.Start = p.cur.Offset
	fn.Sel = token.Range{Start: p.cur.Offset, End: p.cur.Offset}

	saved := p.currentFunc
	p.currentFunc = fn
	step()
	p.currentFunc = saved

	fn.Full.End = p.prev.EndOffset()
	if fn.Full.End < fn.Full.Start {
		fn.Full.End = fn.Full.Start
	}
	p.resolveFunc(fn)
	return fn
}

// parseHotstring parses ":options:trigger::" and its payload. With the X
// option the payload is executable code; otherwise it is raw replacement
// text through end of line.
func (p *Parser) parseHotstring() {
	head := p.cur
	hs := &symbol.Hotkey{Symbol: symbol.Symbol{
		Name: head.Content,
		Kind: symbol.KindHotkey,
		Full: head.Range(),
		Sel:  head.Range(),
	}, Hotstring: true}
	head.Symbol = hs

	// The payload form is decided before the cursor moves past the head:
	// replacement text must never be tokenized as code. Claiming the rest of
	// the line first makes the later advance land on the cached Text token.
	if !hotstringExecutes(p.lex.Input(), head) {
		rest := p.lex.RestOfLine(head.EndOffset())
		hs.Replacement = rest.Range()
		hs.Full.End = rest.EndOffset()
		p.res.FileScope.AddChild(hs)
		p.skipLine()
		return
	}

	p.next()
	switch {
	case p.cur.Kind != token.EOF && p.cur.TopOfLine == token.MidLine:
		hs.Body = p.parseHotBody(hs.Name, func() { p.parseBodyStatement() })
		hs.Full.End = hs.Body.Full.End
	case p.cur.Kind == token.BraceOpen:
		hs.Body = p.parseHotBody(hs.Name, func() { p.parseBlock() })
		hs.Full.End = hs.Body.Full.End
	}
	p.res.FileScope.AddChild(hs)
}

// hotstringExecutes reports whether the trigger's option segment carries
// the X (execute) option. The options sit between the first two colons of
// the head token's source text.
func hotstringExecutes(input string, head *token.Token) bool {
	text := input[head.Offset:head.EndOffset()]
	if len(text) < 2 || text[0] != ':' {
		return false
	}
	end := strings.IndexByte(text[1:], ':')
	if end < 0 {
		return false
	}
	opts := text[1 : 1+end]
	return strings.ContainsAny(opts, "xX")
}
