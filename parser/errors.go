package parser

import (
	"fmt"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/token"
)

// Diagnostic helpers. Parsing problems never escape as faults: they are
// recorded with a precise range and parsing resynchronizes at the nearest
// safe boundary. The only distinguished condition is the dialect-mismatch
// stop signal, which is raised through an abort flag checked at loop heads
// and handled at the top-level parse entry.

func (p *Parser) errorAt(tok *token.Token, code diag.Code, format string, args ...any) {
	p.res.Diags.Errorf(code, tok.Range(), format, args...)
}

func (p *Parser) warnAt(tok *token.Token, code diag.Code, format string, args ...any) {
	p.res.Diags.Warnf(code, tok.Range(), format, args...)
}

func (p *Parser) unexpected(context string, tok *token.Token) {
	p.errorAt(tok, diag.CodeSyntax, "unexpected %s while parsing %s", describe(tok), context)
}

func describe(tok *token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Word, token.Reserved, token.Number, token.Operator:
		return fmt.Sprintf("%q", tok.Content)
	default:
		return tok.Kind.String()
	}
}

// raiseDialect reports source written in the legacy dialect. Per the
// configured recovery policy this either aborts the remainder of the parse
// (keeping already-built symbols) or downgrades to a warning and skips to
// the next line.
func (p *Parser) raiseDialect(tok *token.Token, format string, args ...any) {
	if p.policy == PolicySkipLine || p.dialect == DialectLibrary {
		p.warnAt(tok, diag.CodeDialect, format, args...)
		p.skipLine()
		return
	}
	p.errorAt(tok, diag.CodeDialect, format, args...)
	p.stop = true
	p.res.Stopped = true
}

// missingCloser reports exactly one diagnostic for an unterminated construct.
func (p *Parser) missingCloser(open *token.Token) {
	p.res.Diags.Errorf(diag.CodeMissingCloser, open.Range(),
		"missing closing %q", closerFor(open.Kind))
}

func closerFor(k token.Kind) string {
	switch k {
	case token.ParenOpen:
		return ")"
	case token.BracketOpen:
		return "]"
	case token.BraceOpen:
		return "}"
	case token.Percent:
		return "%"
	default:
		return "delimiter"
	}
}
