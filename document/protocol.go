package document

import (
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"

	"github.com/ahkls/ahkls/diag"
	"github.com/ahkls/ahkls/symbol"
	"github.com/ahkls/ahkls/token"
)

// Conversions from parse results to wire-protocol structures. All offsets
// are translated through the document's line index.

// rangeFor converts a byte-offset range to a protocol range.
func (d *Document) rangeFor(r token.Range) protocol.Range {
	return protocol.Range{
		Start: d.PositionAt(r.Start),
		End:   d.PositionAt(r.End),
	}
}

// Diagnostics converts the latest parse's diagnostics.
func (d *Document) Diagnostics() []protocol.Diagnostic {
	items := d.res.Diags.Items()
	out := make([]protocol.Diagnostic, 0, len(items))
	for _, item := range items {
		out = append(out, protocol.Diagnostic{
			Range:    d.rangeFor(item.Range),
			Severity: severityFor(item.Severity),
			Code:     string(item.Code),
			Source:   "ahkls",
			Message:  item.Message,
		})
	}
	return out
}

func severityFor(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.Error:
		return protocol.SeverityError
	case diag.Warning:
		return protocol.SeverityWarning
	case diag.Information:
		return protocol.SeverityInformation
	default:
		return protocol.SeverityHint
	}
}

// DocumentSymbols converts the symbol tree to the hierarchical protocol
// form. Anonymous nodes contribute their children in place of themselves.
func (d *Document) DocumentSymbols() []protocol.DocumentSymbol {
	return d.convertSymbols(d.res.Symbols())
}

func (d *Document) convertSymbols(nodes []symbol.Node) []protocol.DocumentSymbol {
	var out []protocol.DocumentSymbol
	for _, n := range nodes {
		if n.SymbolName() == "" {
			out = append(out, d.convertSymbols(n.Children())...)
			continue
		}
		full := n.Range()
		sel := n.NameRange()
		if !full.Contains(sel) {
			sel = full
		}
		ds := protocol.DocumentSymbol{
			Name:           n.SymbolName(),
			Kind:           symbolKindFor(n),
			Range:          d.rangeFor(full),
			SelectionRange: d.rangeFor(sel),
			Children:       d.convertSymbols(n.Children()),
		}
		if v, ok := n.(*symbol.Variable); ok && v.TypeHint != "" {
			ds.Detail = v.TypeHint
		}
		if fn, ok := n.(*symbol.Func); ok && len(fn.ReturnTypes) > 0 {
			ds.Detail = fn.ReturnTypes[0]
		}
		out = append(out, ds)
	}
	return out
}

func symbolKindFor(n symbol.Node) protocol.SymbolKind {
	switch n.SymbolKind() {
	case symbol.KindFunction:
		return protocol.Function
	case symbol.KindMethod:
		return protocol.Method
	case symbol.KindClass:
		return protocol.Class
	case symbol.KindProperty:
		return protocol.Property
	case symbol.KindParameter, symbol.KindVariable:
		return protocol.Variable
	case symbol.KindLabel, symbol.KindHotkey:
		return protocol.Event
	case symbol.KindDirective:
		return protocol.Namespace
	case symbol.KindObject:
		return protocol.Object
	default:
		return protocol.Variable
	}
}

// FoldingRanges converts the collected folding ranges.
func (d *Document) FoldingRanges() []protocol.FoldingRange {
	folds := d.res.Folds
	out := make([]protocol.FoldingRange, 0, len(folds))
	for _, f := range folds {
		start := d.PositionAt(f.Range.Start)
		end := d.PositionAt(f.Range.End)
		if end.Line <= start.Line {
			continue
		}
		out = append(out, protocol.FoldingRange{
			StartLine:      start.Line,
			StartCharacter: start.Character,
			EndLine:        end.Line,
			EndCharacter:   end.Character,
			Kind:           foldingKindFor(f.Kind),
		})
	}
	return out
}

func foldingKindFor(k token.FoldingKind) string {
	switch k {
	case token.FoldComment:
		return string(protocol.Comment)
	case token.FoldRegion, token.FoldContinuation:
		return string(protocol.Region)
	default:
		return ""
	}
}
