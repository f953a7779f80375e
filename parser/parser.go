// Package parser implements the recursive-descent parser and the
// scope/declaration resolver. One entry routine exists per grammar context;
// each consumes tokens through a shared cursor and produces symbol nodes and
// diagnostics. All mutable parse state lives in the Parser struct, threaded
// explicitly through every routine.
//
// A parser should be used once, by calling Parse. The parse runs to
// completion (or to the dialect-mismatch stop signal) and always leaves the
// results in a consistent, possibly partially-recognized state.
package parser

import (
	"context"
	"strings"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/lexer"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Dialect selects the flavor of the source document.
type Dialect uint8

// Dialects
const (
	DialectScript  Dialect = iota // a normal runnable script
	DialectLibrary                // a library/definition file
)

// RecoveryPolicy controls how dialect-mismatch conditions are handled.
type RecoveryPolicy uint8

// Recovery policies
const (
	PolicyAbort    RecoveryPolicy = iota // stop parsing the document
	PolicySkipLine                       // warn and skip to the next line
)

// DefaultMaxDepth bounds parser recursion on degenerate input.
const DefaultMaxDepth = 500

// Include records one include directive: raw argument text only, resolution
// is delegated to the include collaborator.
type Include struct {
	Raw     string
	Range   token.Range
	Library bool // <name> form restricted to the library search path
}

// Results is the output of one parse pass: the symbol tree, the per-scope
// declaration tables reachable through it, the token table, diagnostics,
// folding ranges, call sites, and recorded includes. A re-parse replaces the
// whole structure.
type Results struct {
	// FileScope is the implicit function holding top-level code. Its
	// children are the document's symbols in source order.
	FileScope *symbol.Func

	// Globals is the document's top-level declaration map. Function global
	// maps share identity with these entries for promoted names.
	Globals map[string]symbol.Node

	Labels map[string]*symbol.Label

	Table     *token.Table
	Diags     *diag.List
	Folds     []token.FoldingRange
	CallSites []*token.CallSite
	Includes  []Include

	// Stopped is set when the dialect-mismatch signal truncated the parse.
	Stopped bool
}

// Symbols returns the top-level symbol nodes in source order.
func (r *Results) Symbols() []symbol.Node {
	return r.FileScope.Children()
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithDialect sets the document dialect.
func WithDialect(d Dialect) Option {
	return func(p *Parser) { p.dialect = d }
}

// WithRecoveryPolicy sets the dialect-mismatch recovery policy.
func WithRecoveryPolicy(policy RecoveryPolicy) Option {
	return func(p *Parser) { p.policy = policy }
}

// WithMaxDepth sets the maximum recursion depth.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) { p.maxDepth = depth }
}

// WithBuiltins supplies the set of built-in names that references may
// resolve to without a declaration. Names are lowercased on lookup.
func WithBuiltins(names []string) Option {
	return func(p *Parser) {
		p.builtins = make(map[string]bool, len(names))
		for _, n := range names {
			p.builtins[token.Normalize(n)] = true
		}
	}
}

// Parser holds all mutable state of one parse pass.
type Parser struct {
	ctx context.Context
	lex *lexer.Lexer

	cur  *token.Token
	prev *token.Token

	res *Results

	dialect  Dialect
	policy   RecoveryPolicy
	builtins map[string]bool

	// currentFunc is the innermost open function scope; the file scope at
	// top level. currentClass is the innermost open class, or nil.
	currentFunc  *symbol.Func
	currentClass *symbol.Class

	depth    int
	maxDepth int

	// stop is the dialect-mismatch abort flag, checked at loop heads.
	stop bool
}

// Parse tokenizes and parses the input, returning the results and an error
// aggregating any error-severity diagnostics. The results are valid even
// when the error is non-nil.
func Parse(ctx context.Context, input string, options ...Option) (*Results, error) {
	p := New(lexer.New(input), options...)
	return p.Parse(ctx)
}

// New returns a Parser reading from the given lexer.
func New(lex *lexer.Lexer, options ...Option) *Parser {
	fileScope := symbol.NewFunc("", symbol.KindFunction)
	fileScope.Assume = symbol.AssumeGlobal
	p := &Parser{
		lex:      lex,
		maxDepth: DefaultMaxDepth,
		res: &Results{
			FileScope: fileScope,
			Globals:   make(map[string]symbol.Node),
			Labels:    make(map[string]*symbol.Label),
			Table:     lex.Table(),
			Diags:     &diag.List{},
		},
		currentFunc: fileScope,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Parse runs the single full pass: statements are parsed depth-first, scope
// resolution runs per function/class as each body closes, and a final pass
// checks cross-symbol name collisions at file scope.
func (p *Parser) Parse(ctx context.Context) (*Results, error) {
	p.ctx = ctx
	p.cur = p.lex.PeekNonComment(0)
	p.parseBlockInto(p.currentFunc, token.EOF)

	p.res.FileScope.Full = token.Range{Start: 0, End: len(p.lex.Input())}
	p.resolveFunc(p.res.FileScope)
	p.checkFileScope()

	p.res.Diags.Extend(p.lex.Diags())
	p.res.Folds = append(p.res.Folds, p.lex.Folds()...)
	return p.res, p.res.Diags.Err()
}

// next advances the cursor to the following non-comment token.
func (p *Parser) next() {
	p.prev = p.cur
	if p.cur.Kind == token.EOF {
		return
	}
	p.cur = p.lex.PeekNonComment(p.cur.Next)
}

// peek returns the token after the cursor without advancing.
func (p *Parser) peek() *token.Token {
	if p.cur.Kind == token.EOF {
		return p.cur
	}
	return p.lex.PeekNonComment(p.cur.Next)
}

// atWord reports whether the cursor token is the given keyword, ignoring
// case and reservation: flow keywords reserve only at a true line start, so
// mid-line continuations like "} else" arrive as plain words.
func (p *Parser) atWord(word string) bool {
	return (p.cur.Kind == token.Reserved || p.cur.Kind == token.Word) &&
		strings.EqualFold(p.cur.Content, word)
}

// cancelled checks the parse context at loop heads.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		p.stop = true
		return true
	default:
		return false
	}
}

// snapshot captures the state needed to roll back a speculative parse:
// cursor offset plus the lengths of the diagnostics list, the scope's
// children, references, and the call-site list. Rolling back truncates all
// of them, a transactional rollback rather than exception control flow.
type snapshot struct {
	offset    int
	prev      *token.Token
	diagLen   int
	kidsLen   int
	refsLen   int
	callsLen  int
	foldsLen  int
	inclsLen  int
	owner     *symbol.Func
	ownerKids int
}

func (p *Parser) save() snapshot {
	return snapshot{
		offset:    p.cur.Offset,
		prev:      p.prev,
		diagLen:   p.res.Diags.Len(),
		refsLen:   len(p.currentFunc.Refs()),
		callsLen:  len(p.res.CallSites),
		foldsLen:  len(p.res.Folds),
		inclsLen:  len(p.res.Includes),
		owner:     p.currentFunc,
		ownerKids: len(p.currentFunc.Kids),
	}
}

func (p *Parser) restore(s snapshot) {
	p.cur = p.lex.PeekNonComment(s.offset)
	p.prev = s.prev
	p.res.Diags.Truncate(s.diagLen)
	p.res.CallSites = p.res.CallSites[:s.callsLen]
	p.res.Folds = p.res.Folds[:s.foldsLen]
	p.res.Includes = p.res.Includes[:s.inclsLen]
	s.owner.Kids = s.owner.Kids[:s.ownerKids]
	s.owner.TruncateRefs(s.refsLen)
}

// enter/leave guard recursion depth. enter reports false when the maximum
// nesting depth is exceeded, which records a diagnostic once.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.maxDepth {
		if p.depth == p.maxDepth+1 {
			p.errorAt(p.cur, diag.CodeSyntax, "maximum nesting depth exceeded")
		}
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// skipLine advances the cursor past the remainder of the current physical
// line, the coarsest recovery boundary.
func (p *Parser) skipLine() {
	line := p.cur
	for p.cur.Kind != token.EOF {
		p.next()
		if p.cur.TopOfLine == token.LineStart && p.cur.Offset > line.Offset {
			return
		}
	}
}

// skipTo advances until one of the given kinds or a statement boundary.
func (p *Parser) skipTo(kinds ...token.Kind) {
	for p.cur.Kind != token.EOF {
		for _, k := range kinds {
			if p.cur.Kind == k {
				return
			}
		}
		if p.cur.TopOfLine == token.LineStart {
			return
		}
		p.next()
	}
}

// pair links an opening delimiter with its closer in both directions.
func pair(open, closer *token.Token) {
	open.ClosesAt = closer.Offset
	closer.OpensAt = open.Offset
}

// scanBalanced walks forward from the open delimiter at the cursor,
// counting balanced delimiters, and returns the matching closer token, or
// the EOF token when the construct never closes. The walk tokenizes through
// the memo table only; it produces no symbols, so the caller can rewind and
// re-parse for real.
func (p *Parser) scanBalanced(open *token.Token) *token.Token {
	switch open.Kind {
	case token.ParenOpen, token.BracketOpen, token.BraceOpen:
	default:
		return open
	}
	depth := 0
	tok := open
	for {
		if tok.Kind == token.EOF {
			return tok
		}
		switch tok.Kind {
		case token.ParenOpen, token.BracketOpen, token.BraceOpen:
			depth++
		case token.ParenClose, token.BracketClose, token.BraceClose:
			depth--
			if depth == 0 {
				// A mismatched closer is returned too; callers check the kind.
				return tok
			}
		}
		tok = p.lex.PeekNonComment(tok.Next)
	}
}

// declareGlobal inserts a node into the document's top-level declaration
// map, diagnosing cross-kind collisions. Two same-kind redeclarations of a
// plain variable are legal; the first declaration wins.
func (p *Parser) declareGlobal(n symbol.Node) symbol.Node {
	key := token.Normalize(n.SymbolName())
	if key == "" {
		return n
	}
	existing, ok := p.res.Globals[key]
	if !ok {
		p.res.Globals[key] = n
		return n
	}
	if incompatibleKinds(existing.SymbolKind(), n.SymbolKind()) {
		p.res.Diags.Errorf(diag.CodeNameCollision, n.NameRange(),
			"%s %q conflicts with an existing %s of the same name",
			n.SymbolKind(), n.SymbolName(), existing.SymbolKind())
	}
	return existing
}

// incompatibleKinds reports whether two same-named top-level declarations
// collide. Variable/variable redeclaration is legal; anything involving a
// function or class is not.
func incompatibleKinds(a, b symbol.Kind) bool {
	if a == symbol.KindVariable && b == symbol.KindVariable {
		return false
	}
	return true
}

// checkFileScope is the final pass over top-level names.
func (p *Parser) checkFileScope() {
	for key, lbl := range p.res.Labels {
		if g, ok := p.res.Globals[key]; ok {
			if g.SymbolKind() == symbol.KindFunction || g.SymbolKind() == symbol.KindClass {
				p.res.Diags.Warnf(diag.CodeNameCollision, lbl.NameRange(),
					"label %q shadows a %s of the same name", lbl.Name, g.SymbolKind())
			}
		}
	}
}
