package symbol

import "github.com/ahkls/ahkls/token"

// Assume controls how undeclared variable writes inside a function are
// scoped.
type Assume uint8

// Assume modes
const (
	AssumeDefault Assume = iota // undeclared writes become locals
	AssumeGlobal                // undeclared writes promote to file scope
	AssumeStatic                // undeclared writes become statics
)

func (a Assume) String() string {
	switch a {
	case AssumeGlobal:
		return "global"
	case AssumeStatic:
		return "static"
	default:
		return "local"
	}
}

// Func is a function, method, or anonymous/arrow function. The declaration
// maps are keyed by lowercase name and populated by scope resolution, which
// runs once immediately after the body closes.
type Func struct {
	Symbol

	Params []*Variable

	// Declared merges parameters and all local declarations after
	// resolution, with precedence parameters > explicit local/static >
	// explicit global > inferred local.
	Declared map[string]*Variable

	// Local holds explicit and inferred locals; Global holds names bound to
	// file scope. For promoted names the Global entry shares identity with
	// the document's top-level declaration map entry.
	Local  map[string]*Variable
	Global map[string]Node

	// Unresolved references: read before any write with no declaration in
	// any enclosing scope.
	Unresolved map[string]*Variable

	Labels map[string]*Label

	Assume   Assume
	Variadic bool
	ByRef    bool
	Closure  bool
	Static   bool
	HasThis  bool // methods and property accessors receive implicit this/super

	// ReturnTypes is the set of pseudo-types inferred from return statements.
	ReturnTypes []string

	// refs are all variable references seen in the body, in source order.
	// Scope resolution classifies each one exactly once.
	refs []*Variable

	// declGroups are the explicit global/local/static declaration statements
	// in the body, consumed by scope resolution.
	declGroups []DeclGroup
}

// DeclGroup is one explicit scope declaration statement: "global a, b" etc.
type DeclGroup struct {
	Assume Assume // AssumeGlobal for global, AssumeStatic for static, AssumeDefault for local
	Names  []*Variable
	Range  token.Range

	// Bare is set for a declaration with no names, which switches the
	// function's assume mode instead of declaring variables.
	Bare bool
}

// NewFunc returns a Func with initialized declaration tables.
func NewFunc(name string, kind Kind) *Func {
	return &Func{
		Symbol:     Symbol{Name: name, Kind: kind},
		Declared:   make(map[string]*Variable),
		Local:      make(map[string]*Variable),
		Global:     make(map[string]Node),
		Unresolved: make(map[string]*Variable),
		Labels:     make(map[string]*Label),
	}
}

// AddParam appends a parameter, reporting false on a duplicate name.
func (f *Func) AddParam(v *Variable) bool {
	key := v.Key()
	for _, p := range f.Params {
		if p.Key() == key {
			return false
		}
	}
	v.Kind = KindParameter
	v.Decl = true
	v.Defined = true
	f.Params = append(f.Params, v)
	if v.Variadic {
		f.Variadic = true
	}
	return true
}

// AddRef records a variable reference for later scope resolution.
func (f *Func) AddRef(v *Variable) {
	f.refs = append(f.refs, v)
}

// Refs returns the recorded variable references in source order.
func (f *Func) Refs() []*Variable { return f.refs }

// TruncateRefs drops recorded references past n. Used by speculative-parse
// rollback.
func (f *Func) TruncateRefs(n int) {
	if n < len(f.refs) {
		f.refs = f.refs[:n]
	}
}

// AddDeclGroup records an explicit scope declaration statement.
func (f *Func) AddDeclGroup(g DeclGroup) {
	f.declGroups = append(f.declGroups, g)
}

// DeclGroups returns the explicit declaration statements in source order.
func (f *Func) DeclGroups() []DeclGroup { return f.declGroups }

// AddReturnType records an inferred pseudo-type, deduplicated.
func (f *Func) AddReturnType(typ string) {
	if typ == "" {
		return
	}
	for _, t := range f.ReturnTypes {
		if t == typ {
			return
		}
	}
	f.ReturnTypes = append(f.ReturnTypes, typ)
}

// Param returns the parameter with the given name, ignoring case, or nil.
func (f *Func) Param(name string) *Variable {
	key := token.Normalize(name)
	for _, p := range f.Params {
		if p.Key() == key {
			return p
		}
	}
	return nil
}
