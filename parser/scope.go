package parser

import (
	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Scope resolution runs once per function, immediately after its body
// closes, in this order: explicit declaration statements, parameters,
// nested definitions, then every reference in source order. References a
// scope cannot resolve stay in its Unresolved table; enclosing scopes claim
// them as they close, the file scope last.

// resolveFunc builds fn's declaration tables and classifies its references.
func (p *Parser) resolveFunc(fn *symbol.Func) {
	atFileScope := fn == p.res.FileScope

	// Explicit global/local/static declarations.
	for _, group := range fn.DeclGroups() {
		if group.Bare {
			fn.Assume = group.Assume
			continue
		}
		for _, v := range group.Names {
			key := v.Key()
			switch group.Assume {
			case symbol.AssumeGlobal:
				if atFileScope {
					// At top level "global x" is an ordinary declaration.
					p.bindDeclared(fn, key, v)
					p.declareGlobal(v)
					continue
				}
				if prior, ok := fn.Global[key]; ok {
					_ = prior
					continue
				}
				fn.Global[key] = p.declareGlobal(v)
			case symbol.AssumeStatic:
				v.Static = true
				p.bindDeclared(fn, key, v)
			default:
				p.bindDeclared(fn, key, v)
			}
		}
	}

	// Parameters take precedence over everything declared in the body.
	for _, param := range fn.Params {
		key := param.Key()
		if prior, ok := fn.Declared[key]; ok {
			p.res.Diags.Errorf(diag.CodeDeclConflict, prior.NameRange(),
				"%q is already a parameter of this function", prior.Name)
		}
		fn.Declared[key] = param
		if _, ok := fn.Global[key]; ok {
			p.res.Diags.Errorf(diag.CodeDeclConflict, param.NameRange(),
				"parameter %q conflicts with a global declaration", param.Name)
			delete(fn.Global, key)
		}
	}

	// Named nested definitions are local to the scope.
	nested := make(map[string]bool)
	for _, kid := range fn.Kids {
		switch n := kid.(type) {
		case *symbol.Func:
			if n.Name != "" && n != fn {
				nested[token.Normalize(n.Name)] = true
			}
		case *symbol.Class:
			if n.Name != "" {
				nested[token.Normalize(n.Name)] = true
			}
		}
	}

	// Names written anywhere in the body resolve reads that precede the
	// first write.
	writes := make(map[string]bool)
	for _, ref := range fn.Refs() {
		if ref.Defined {
			writes[ref.Key()] = true
		}
	}

	for _, ref := range fn.Refs() {
		key := ref.Key()
		if key == "" {
			continue
		}
		if (key == "this" || key == "super") && fn.HasThis {
			continue
		}
		if decl, ok := fn.Declared[key]; ok {
			if ref != decl {
				ref.Decl = false
			}
			continue
		}
		if _, ok := fn.Global[key]; ok {
			continue
		}
		if nested[key] {
			continue
		}

		if ref.Defined {
			switch fn.Assume {
			case symbol.AssumeGlobal:
				node := p.declareGlobal(ref)
				fn.Global[key] = node
				if atFileScope && node == symbol.Node(ref) {
					fn.AddChild(ref)
				}
			case symbol.AssumeStatic:
				ref.Static = true
				p.bindDeclared(fn, key, ref)
				fn.AddChild(ref)
			default:
				p.bindDeclared(fn, key, ref)
				fn.AddChild(ref)
			}
			continue
		}

		// A read: resolved by a later write, a global, or a builtin;
		// otherwise left for an enclosing scope to claim.
		if writes[key] {
			continue
		}
		if g, ok := p.res.Globals[key]; ok {
			fn.Global[key] = g
			continue
		}
		if p.builtins[key] {
			continue
		}
		if _, ok := fn.Unresolved[key]; !ok {
			fn.Unresolved[key] = ref
		}
	}

	// Claim descendants' unresolved reads that this scope declares. The
	// file scope additionally claims against the document's global table
	// and records what remains as truly unresolved.
	p.claimUnresolved(fn, fn, atFileScope)
}

// bindDeclared inserts a declaration into both the Local and merged tables;
// the first declaration of a name wins.
func (p *Parser) bindDeclared(fn *symbol.Func, key string, v *symbol.Variable) {
	if _, ok := fn.Local[key]; !ok {
		fn.Local[key] = v
	}
	if _, ok := fn.Declared[key]; !ok {
		fn.Declared[key] = v
	}
}

// claimUnresolved walks the symbol subtree under node and removes entries
// from descendant functions' Unresolved tables that the owning scope can
// satisfy.
func (p *Parser) claimUnresolved(owner *symbol.Func, node symbol.Node, atFileScope bool) {
	for _, kid := range node.Children() {
		if inner, ok := kid.(*symbol.Func); ok && inner != owner {
			for key := range inner.Unresolved {
				if _, declared := owner.Declared[key]; declared {
					delete(inner.Unresolved, key)
					continue
				}
				if atFileScope {
					if g, ok := p.res.Globals[key]; ok {
						inner.Global[key] = g
						delete(inner.Unresolved, key)
					}
				}
			}
		}
		p.claimUnresolved(owner, kid, atFileScope)
	}
}

// resolveClass finishes a class once its body closes: speculative
// this./super. member references collected during the body parse are merged
// into the instance table when no declared member matches.
func (p *Parser) resolveClass(cls *symbol.Class) {
	for _, v := range cls.Pending() {
		key := v.Key()
		if key == "" || cls.Member(key) != nil {
			continue
		}
		// Inferred member: present in the table for lookup, absent from the
		// outline since no declaration site exists.
		cls.Instance[key] = v
	}
	cls.ClearPending()
}
