package parser

import (
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Class parsing. A class body contains methods, properties with optional
// indexer parameters and get/set accessors, field assignments, and nested
// classes. Instance and static members land in separate tables; a property
// and a same-named method may merge into one callable property.

func (p *Parser) parseClass() {
	classTok := p.cur
	p.next()

	if p.cur.Kind != token.Word {
		p.unexpected("class declaration", p.cur)
		p.skipLine()
		return
	}
	nameTok := p.cur
	nameTok.Hint = token.SemClass

	cls := symbol.NewClass(nameTok.Content)
	cls.Full = token.Range{Start: classTok.Offset, End: nameTok.EndOffset()}
	cls.Sel = nameTok.Range()
	nameTok.Symbol = cls
	p.next()

	if p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "extends") {
		p.next()
		if p.cur.Kind != token.Word {
			p.unexpected("extends clause", p.cur)
		} else {
			baseTok := p.cur
			baseTok.Hint = token.SemClass
			start := baseTok.Offset
			name := baseTok.Content
			p.next()
			// Dotted base path: extends Outer.Inner
			for p.cur.Is(token.Dot) && p.peek().Kind == token.Word {
				p.next()
				p.cur.Hint = token.SemClass
				name += "." + p.cur.Content
				p.next()
			}
			cls.Extends = token.Normalize(name)
			cls.ExtendsRange = token.Range{Start: start, End: p.prev.EndOffset()}
		}
	}

	if p.cur.Kind != token.BraceOpen {
		p.unexpected("class body", p.cur)
		p.registerClass(cls)
		return
	}
	open := p.cur
	p.next()

	savedClass := p.currentClass
	p.currentClass = cls
	for !p.stop && p.cur.Kind != token.BraceClose && p.cur.Kind != token.EOF {
		if p.cancelled() {
			break
		}
		p.parseClassMember(cls)
	}
	p.currentClass = savedClass

	if p.cur.Kind != token.BraceClose {
		p.missingCloser(open)
		cls.Full.End = p.cur.Offset
	} else {
		pair(open, p.cur)
		p.addBlockFold(open, p.cur)
		cls.Full.End = p.cur.EndOffset()
		p.next()
	}

	p.resolveClass(cls)
	p.registerClass(cls)
}

// registerClass records the class in the enclosing scope.
func (p *Parser) registerClass(cls *symbol.Class) {
	p.currentFunc.AddChild(cls)
	if p.currentFunc == p.res.FileScope && p.currentClass == nil {
		p.declareGlobal(cls)
	}
}

// parseClassMember dispatches one member of a class body.
func (p *Parser) parseClassMember(cls *symbol.Class) {
	static := false
	if p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "static") {
		// "static" may also name a member; only treat it as a modifier when
		// another member head follows on the same line.
		nxt := p.peek()
		if nxt.TopOfLine == token.MidLine &&
			(nxt.Kind == token.Word || nxt.Kind == token.Reserved) {
			static = true
			p.next()
		} else {
			p.cur.Kind = token.Word
		}
	}

	switch {
	case p.cur.Kind == token.Reserved && strings.EqualFold(p.cur.Content, "class"):
		p.parseNestedClass(cls, static)
		return
	case p.cur.Kind == token.Word, p.cur.Kind == token.Reserved:
		// Reserved words are legal member names.
		p.cur.Kind = token.Word
	case p.cur.Kind == token.BraceClose, p.cur.Kind == token.EOF:
		return
	default:
		p.unexpected("class member", p.cur)
		p.skipLine()
		return
	}

	nameTok := p.cur
	nxt := p.peek()

	switch {
	case nxt.Is(token.ParenOpen) && nxt.Offset == nameTok.EndOffset():
		p.parseMethod(cls, nameTok, static)
	case nxt.Is(token.BracketOpen) && nxt.Offset == nameTok.EndOffset():
		p.parseProperty(cls, nameTok, static, true)
	case nxt.Is(token.BraceOpen) || nxt.IsOp("=>"):
		p.parseProperty(cls, nameTok, static, false)
	case nxt.Kind == token.Assign:
		p.parseField(cls, nameTok, static)
	case nxt.Kind == token.Equals:
		p.raiseDialect(nxt, "legacy '=' assignment; use ':=' instead")
	case nxt.Kind == token.Comma:
		p.parseField(cls, nameTok, static)
	default:
		p.unexpected("class member", nxt)
		p.skipLine()
	}
}

// parseNestedClass parses "class Inner { ... }" inside a class body. Nested
// classes are always static members of the outer class.
func (p *Parser) parseNestedClass(cls *symbol.Class, static bool) {
	_ = static
	kidsBefore := len(p.currentFunc.Kids)
	p.parseClass()
	kids := p.currentFunc.Kids
	if len(kids) > kidsBefore {
		if inner, ok := kids[len(kids)-1].(*symbol.Class); ok {
			p.currentFunc.Kids = kids[:kidsBefore]
			p.addMember(cls, cls.Static, inner)
		}
	}
}

// parseMethod parses "Name(params) body", registering it in the appropriate
// member table. An accessor-less method whose name matches an existing
// property becomes that property's callable half.
func (p *Parser) parseMethod(cls *symbol.Class, nameTok *token.Token, static bool) {
	nameTok.Hint = token.SemMethod
	fn := symbol.NewFunc(nameTok.Content, symbol.KindMethod)
	fn.Full = token.Range{Start: nameTok.Offset, End: nameTok.EndOffset()}
	fn.Sel = nameTok.Range()
	fn.Static = static
	fn.HasThis = true
	nameTok.Symbol = fn

	p.next() // onto "("
	p.parseParams(fn)
	p.parseFuncBody(fn)
	p.resolveFunc(fn)

	table := cls.Instance
	if static {
		table = cls.Static
	}
	key := fn.Key()
	if existing, ok := table[key]; ok {
		if prop, isProp := existing.(*symbol.Property); isProp && prop.Call == nil {
			prop.Call = fn
			prop.AddChild(fn)
			return
		}
		p.errorAt(nameTok, diag.CodeNameCollision,
			"duplicate class member %q", fn.Name)
		return
	}
	table[key] = fn
	cls.AddChild(fn)
}

// parseProperty parses a property declaration: an optional [indexer] list,
// then either "=> expr" (shorthand getter) or a braced accessor body with
// get/set entries.
func (p *Parser) parseProperty(cls *symbol.Class, nameTok *token.Token, static, indexed bool) {
	nameTok.Hint = token.SemProperty
	prop := &symbol.Property{Symbol: symbol.Symbol{
		Name: nameTok.Content,
		Kind: symbol.KindProperty,
		Full: token.Range{Start: nameTok.Offset, End: nameTok.EndOffset()},
		Sel:  nameTok.Range(),
	}, Static: static}
	nameTok.Symbol = prop
	p.next()

	if indexed {
		p.parseIndexerParams(prop)
	}

	switch {
	case p.cur.IsOp("=>"):
		getter := p.newAccessor("get", prop, nameTok)
		p.parseFuncBody(getter)
		p.resolveFunc(getter)
		prop.Getter = getter
		prop.AddChild(getter)
		prop.Full.End = getter.Full.End

	case p.cur.Kind == token.BraceOpen:
		open := p.cur
		p.next()
		for !p.stop && p.cur.Kind != token.BraceClose && p.cur.Kind != token.EOF {
			if p.cancelled() {
				break
			}
			p.parseAccessor(prop, nameTok)
		}
		if p.cur.Kind != token.BraceClose {
			p.missingCloser(open)
			prop.Full.End = p.cur.Offset
		} else {
			pair(open, p.cur)
			p.addBlockFold(open, p.cur)
			prop.Full.End = p.cur.EndOffset()
			p.next()
		}

	default:
		p.unexpected("property body", p.cur)
	}

	table := cls.Instance
	if static {
		table = cls.Static
	}
	p.addMember(cls, table, prop)
}

// parseIndexerParams consumes "[params]" on an indexed property.
func (p *Parser) parseIndexerParams(prop *symbol.Property) {
	open := p.cur
	p.next()
	for !p.stop && p.cur.Kind != token.BracketClose && p.cur.Kind != token.EOF {
		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		if p.cur.Kind != token.Word {
			p.unexpected("indexer parameter", p.cur)
			p.skipTo(token.Comma, token.BracketClose)
			continue
		}
		v := p.newVariable(p.cur, true)
		v.Kind = symbol.KindParameter
		v.Decl = true
		p.cur.Hint = token.SemParameter
		prop.Params = append(prop.Params, v)
		prop.AddChild(v)
		p.next()
		if p.cur.Kind == token.Assign {
			v.Optional = true
			v.HasDefault = true
			p.next()
			start := p.cur.Offset
			p.parseExpression(exprOpts{inBrackets: true})
			v.DefaultRange = token.Range{Start: start, End: p.prev.EndOffset()}
		}
	}
	if p.cur.Kind != token.BracketClose {
		p.missingCloser(open)
		return
	}
	pair(open, p.cur)
	p.next()
}

// parseAccessor parses one get/set entry of a property body.
func (p *Parser) parseAccessor(prop *symbol.Property, nameTok *token.Token) {
	if p.cur.Kind != token.Reserved && p.cur.Kind != token.Word {
		p.unexpected("property accessor", p.cur)
		p.skipLine()
		return
	}
	which := strings.ToLower(p.cur.Content)
	if which != "get" && which != "set" {
		p.unexpected("property accessor", p.cur)
		p.skipLine()
		return
	}
	accTok := p.cur
	accTok.Hint = token.SemKeyword
	p.next()

	acc := p.newAccessor(which, prop, accTok)
	switch {
	case p.cur.IsOp("=>"), p.cur.Kind == token.BraceOpen:
		p.parseFuncBody(acc)
	default:
		p.unexpected("accessor body", p.cur)
		p.skipLine()
		return
	}
	p.resolveFunc(acc)

	if which == "get" {
		if prop.Getter != nil {
			p.errorAt(accTok, diag.CodeNameCollision, "duplicate 'get' accessor")
			return
		}
		prop.Getter = acc
	} else {
		if prop.Setter != nil {
			p.errorAt(accTok, diag.CodeNameCollision, "duplicate 'set' accessor")
			return
		}
		prop.Setter = acc
	}
	prop.AddChild(acc)
}

// newAccessor builds the implicit function scope of a property accessor.
// Setters receive the implicit "value" parameter.
func (p *Parser) newAccessor(which string, prop *symbol.Property, tok *token.Token) *symbol.Func {
	acc := symbol.NewFunc(which, symbol.KindFunction)
	acc.Full = token.Range{Start: tok.Offset, End: tok.EndOffset()}
	acc.Sel = tok.Range()
	acc.Static = prop.Static
	acc.HasThis = true
	for _, idx := range prop.Params {
		cp := *idx
		acc.AddParam(&cp)
	}
	if which == "set" {
		acc.AddParam(&symbol.Variable{Symbol: symbol.Symbol{
			Name: "value",
			Kind: symbol.KindParameter,
			Full: tok.Range(),
			Sel:  tok.Range(),
		}})
	}
	return acc
}

// parseField parses "name := expr [, name2 := expr]" class fields.
func (p *Parser) parseField(cls *symbol.Class, nameTok *token.Token, static bool) {
	table := cls.Instance
	if static {
		table = cls.Static
	}
	for {
		if p.cur.Kind != token.Word {
			p.unexpected("class field", p.cur)
			p.skipLine()
			return
		}
		fieldTok := p.cur
		fieldTok.Hint = token.SemProperty
		v := p.newVariable(fieldTok, true)
		v.Kind = symbol.KindProperty
		v.Decl = true
		v.Static = static
		p.next()

		if p.cur.Kind == token.Assign {
			p.next()
			v.TypeHint = p.parseExpression(exprOpts{})
		} else if p.cur.Kind == token.Equals {
			p.raiseDialect(p.cur, "legacy '=' assignment; use ':=' instead")
			if p.stop {
				return
			}
		}
		p.addMember(cls, table, v)

		if p.cur.Kind == token.Comma {
			p.next()
			continue
		}
		return
	}
}

// addMember inserts a node into a class member table, diagnosing duplicate
// names within the same table. The same name may appear in both tables.
func (p *Parser) addMember(cls *symbol.Class, table map[string]symbol.Node, n symbol.Node) {
	key := token.Normalize(n.SymbolName())
	if key == "" {
		return
	}
	if _, dup := table[key]; dup {
		p.res.Diags.Errorf(diag.CodeNameCollision, n.NameRange(),
			"duplicate class member %q", n.SymbolName())
		return
	}
	table[key] = n
	cls.AddChild(n)
}
