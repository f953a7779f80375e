// Package symbol defines the tree of declared program entities produced by a
// parse: functions, classes, properties, variables, labels and hotkeys. All
// nodes are created in one depth-first pass and never mutated afterwards; a
// re-parse discards and rebuilds the whole tree.
package symbol

import "github.com/ahkls/ahkls/token"

// Kind classifies a symbol node.
type Kind uint8

// Symbol kinds
const (
	KindUnknown Kind = iota
	KindVariable
	KindParameter
	KindFunction
	KindMethod
	KindClass
	KindProperty
	KindLabel
	KindHotkey
	KindDirective
	KindObject // inline object literal
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindVariable:  "variable",
	KindParameter: "parameter",
	KindFunction:  "function",
	KindMethod:    "method",
	KindClass:     "class",
	KindProperty:  "property",
	KindLabel:     "label",
	KindHotkey:    "hotkey",
	KindDirective: "directive",
	KindObject:    "object",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Node is implemented by every symbol variant. A node's name range is always
// contained in its declaration range.
type Node interface {
	SymbolName() string
	SymbolKind() Kind
	Range() token.Range
	NameRange() token.Range
	Children() []Node
}

// Symbol carries the fields shared by every variant and is embedded in each.
type Symbol struct {
	Name   string
	Kind   Kind
	Full   token.Range // declaration range
	Sel    token.Range // name range, contained in Full
	Detail string
	Kids   []Node
}

// SymbolName returns the declared name.
func (s *Symbol) SymbolName() string { return s.Name }

// SymbolKind returns the node kind.
func (s *Symbol) SymbolKind() Kind { return s.Kind }

// Range returns the declaration range.
func (s *Symbol) Range() token.Range { return s.Full }

// NameRange returns the narrower range of the name itself.
func (s *Symbol) NameRange() token.Range { return s.Sel }

// Children returns owned child symbols in insertion order.
func (s *Symbol) Children() []Node { return s.Kids }

// AddChild appends a child node, preserving insertion order.
func (s *Symbol) AddChild(n Node) {
	s.Kids = append(s.Kids, n)
}

// Key returns the lowercase declaration-table key for the symbol.
func (s *Symbol) Key() string { return token.Normalize(s.Name) }

// Variable is a variable, parameter, or class field reference/declaration.
type Variable struct {
	Symbol

	// Defined is set when the variable is assigned at this site, as opposed
	// to merely read.
	Defined bool

	// Decl marks an explicit declaration (global/local/static statement,
	// parameter list, or class field).
	Decl bool

	Static bool
	Global bool

	// Parameter attributes.
	ByRef    bool
	Optional bool
	Variadic bool

	// Defaulted parameters keep the token range of the default expression;
	// non-trivial defaults are rendered lazily by the formatter.
	DefaultRange token.Range
	HasDefault   bool

	// TypeHint is the inferred pseudo-type, e.g. "#number" or a class name.
	TypeHint string
}

// Label is a goto target.
type Label struct {
	Symbol
}

// Hotkey binds an input trigger to a body. The body, when present, is an
// implicit function holding the bound statements.
type Hotkey struct {
	Symbol

	// Hotstring is set for ":options:trigger::" forms.
	Hotstring bool

	// Replacement holds the raw payload range of a replacement-style
	// hotstring; execute-style triggers have a Body instead.
	Replacement token.Range
	Body        *Func
}

// Directive records a preprocessor-style "#name args" line. The core keeps
// only the raw argument text and offsets; filesystem resolution is delegated.
type Directive struct {
	Symbol

	ArgText  string
	ArgRange token.Range
}
